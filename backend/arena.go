package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ArenaRequest configures a batch of easy versus hard games. A zero Seed
// draws randomness from the process source.
type ArenaRequest struct {
	Games          int   `json:"games"`
	BoardSize      int   `json:"board_size"`
	WinLength      int   `json:"win_length"`
	TimeBudgetMs   int   `json:"time_budget_ms"`
	MaxDepth       int   `json:"max_depth"`
	Seed           int64 `json:"seed"`
	AllowBlocked   bool  `json:"allow_blocked_win"`
	IncludeRecords bool  `json:"include_records"`
}

type ArenaGame struct {
	Index  int    `json:"index"`
	HardAs string `json:"hard_as"`
	Winner string `json:"winner"`
	Plies  int    `json:"plies"`
	Moves  []Move `json:"moves,omitempty"`
}

type ArenaResult struct {
	Games     int         `json:"games"`
	HardWins  int         `json:"hard_wins"`
	EasyWins  int         `json:"easy_wins"`
	Draws     int         `json:"draws"`
	AvgPlies  float64     `json:"avg_plies"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Records   []ArenaGame `json:"records,omitempty"`
}

func (r ArenaRequest) normalized(config Config) ArenaRequest {
	if r.Games <= 0 {
		r.Games = 10
	}
	if r.Games > config.ArenaMaxGames {
		r.Games = config.ArenaMaxGames
	}
	defaults := DefaultGameSettings()
	if r.BoardSize <= 0 {
		r.BoardSize = defaults.BoardSize
	}
	r.BoardSize = min(max(r.BoardSize, minBoardSize), maxBoardSize)
	if r.WinLength <= 0 {
		r.WinLength = defaults.WinLength
	}
	if r.WinLength > r.BoardSize {
		r.WinLength = r.BoardSize
	}
	if r.TimeBudgetMs <= 0 {
		r.TimeBudgetMs = 50
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = config.AiMaxDepth
	}
	return r
}

// RunArena plays the games on a bounded pool of workers. Hard plays X in
// even-numbered games and O in odd ones.
func RunArena(ctx context.Context, req ArenaRequest) (ArenaResult, error) {
	config := GetConfig()
	if err := (GameSettings{BoardSize: req.BoardSize}).Validate(); err != nil {
		return ArenaResult{}, err
	}
	req = req.normalized(config)
	config.AiTimeBudgetMs = req.TimeBudgetMs
	config.AiMaxDepth = req.MaxDepth
	config.AiReportProgress = false

	start := time.Now()
	records := make([]ArenaGame, req.Games)
	var mu sync.Mutex
	finished := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.ArenaWorkers)
	for i := 0; i < req.Games; i++ {
		i := i
		g.Go(func() error {
			record, err := playArenaGame(gctx, req, config, i)
			if err != nil {
				return err
			}
			records[i] = record
			mu.Lock()
			finished++
			done := finished
			mu.Unlock()
			log.Debug().
				Str("component", "arena").
				Int("game", i).
				Int("done", done).
				Str("winner", record.Winner).
				Int("plies", record.Plies).
				Msg("arena game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ArenaResult{}, err
	}

	result := ArenaResult{Games: req.Games}
	totalPlies := 0
	for _, record := range records {
		totalPlies += record.Plies
		switch record.Winner {
		case "":
			result.Draws++
		case record.HardAs:
			result.HardWins++
		default:
			result.EasyWins++
		}
	}
	if req.Games > 0 {
		result.AvgPlies = float64(totalPlies) / float64(req.Games)
	}
	if req.IncludeRecords {
		result.Records = records
	}
	result.ElapsedMs = time.Since(start).Milliseconds()
	log.Info().
		Str("component", "arena").
		Int("games", result.Games).
		Int("hard_wins", result.HardWins).
		Int("easy_wins", result.EasyWins).
		Int("draws", result.Draws).
		Float64("avg_plies", result.AvgPlies).
		Msg("arena finished")
	return result, nil
}

func playArenaGame(ctx context.Context, req ArenaRequest, config Config, index int) (ArenaGame, error) {
	settings := DefaultGameSettings()
	settings.BoardSize = req.BoardSize
	settings.WinLength = req.WinLength
	settings.AllowBlockedWin = req.AllowBlocked
	rules := NewRules(settings)

	var rng RandomSource = NewRandomSource()
	if req.Seed != 0 {
		rng = rand.New(rand.NewSource(req.Seed + int64(index)))
	}

	hardSide := CellX
	if index%2 == 1 {
		hardSide = CellO
	}
	engines := map[Cell]MoveChooser{
		hardSide:            NewSearchEngine(hardSide, rules, config, rng),
		hardSide.Opponent(): NewHeuristicMover(hardSide.Opponent(), rules, config, rng),
	}

	board := NewBoard(settings.BoardSize)
	record := ArenaGame{Index: index, HardAs: hardSide.String()}
	toMove := CellX
	for !board.IsFull() {
		if err := ctx.Err(); err != nil {
			return record, err
		}
		move, ok := engines[toMove].ChooseMove(ctx, &board)
		if !ok || !board.Place(move, toMove) {
			break
		}
		record.Plies++
		record.Moves = append(record.Moves, Move{Row: move.Row, Col: move.Col})
		if win := rules.CheckWinner(board); win.HasWinner() {
			record.Winner = win.Winner.String()
			return record, nil
		}
		toMove = toMove.Opponent()
	}
	return record, nil
}
