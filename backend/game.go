package main

import (
	"time"

	"github.com/rs/zerolog/log"
)

type Scores struct {
	X int `json:"x"`
	O int `json:"o"`
}

func (s *Scores) add(player PlayerColor) {
	if player == PlayerX {
		s.X++
	} else {
		s.O++
	}
}

type Game struct {
	settings   GameSettings
	config     Config
	rules      Rules
	state      GameState
	history    MoveHistory
	xPlayer    IPlayer
	oPlayer    IPlayer
	scores     Scores
	version    int
	turnStart  time.Time
	rng        RandomSource
	progress   func(SearchProgress)
	onRoundEnd func(GameState, Scores)
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

// Reset installs new settings and clears the board, history and scores.
func (g *Game) Reset(settings GameSettings) {
	g.stopThinking()
	g.settings = settings.Normalized()
	g.config = GetConfig()
	g.rules = NewRules(g.settings)
	g.state.Reset(g.settings)
	g.history.Clear()
	g.scores = Scores{}
	g.version++
	g.createPlayers()
	g.turnStart = time.Now()
	g.logMatchup()
}

// SetRandomSource and SetProgressSink take effect for players created by the
// next Reset.
func (g *Game) SetRandomSource(rng RandomSource) {
	g.rng = rng
}

func (g *Game) SetProgressSink(fn func(SearchProgress)) {
	g.progress = fn
}

func (g *Game) OnRoundEnd(fn func(GameState, Scores)) {
	g.onRoundEnd = fn
}

func (g *Game) Start() {
	if g.state.Status == StatusNotStarted {
		g.state.Status = StatusRunning
		g.turnStart = time.Now()
	}
}

// Rematch starts a fresh round with the same players and running scores.
func (g *Game) Rematch() {
	g.stopThinking()
	g.state.Reset(g.settings)
	g.history.Clear()
	g.version++
	g.state.Status = StatusRunning
	g.turnStart = time.Now()
}

func (g *Game) ResetScores() {
	g.scores = Scores{}
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history.Clone()
}

func (g *Game) Scores() Scores {
	return g.scores
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) Version() int {
	return g.version
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

func (g *Game) TryApplyMove(move Move) (bool, string) {
	return g.applyMove(move, false, time.Since(g.turnStart))
}

func (g *Game) applyMove(move Move, isAi bool, elapsed time.Duration) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, ErrGameNotRunning.Error()
	}
	if ok, reason := g.rules.IsLegal(g.state, move); !ok {
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	player := g.state.ToMove
	g.state.Board.Set(move.Row, move.Col, CellFromPlayer(player))
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.LastMessage = ""
	g.history.Push(HistoryEntry{
		Move:      move,
		Player:    player,
		ElapsedMs: float64(elapsed.Milliseconds()),
		IsAi:      isAi,
		Depth:     move.Depth,
	})
	g.version++
	g.logMovePlayed(move, player, elapsed, isAi)

	win := g.rules.CheckWinner(g.state.Board)
	if win.HasWinner() {
		winner, _ := PlayerFromCell(win.Winner)
		g.state.Win = win
		g.state.Status = statusForWinner(winner)
		g.scores.add(winner)
		g.finishRound()
		return true, ""
	}
	if g.state.Board.IsFull() {
		g.state.Status = StatusDraw
		g.finishRound()
		return true, ""
	}
	g.state.ToMove = otherPlayer(player)
	g.turnStart = time.Now()
	return true, ""
}

// Undo takes back the last placement, or the last two against an AI so the
// human is to move again.
func (g *Game) Undo() error {
	if g.settings.Mode == ModeLAN {
		return ErrUndoDisabled
	}
	if g.state.Status != StatusRunning {
		return ErrGameNotRunning
	}
	if g.history.Size() == 0 {
		return ErrNothingToUndo
	}
	g.stopThinking()
	pops := 1
	if g.settings.Mode.IsAI() {
		pops = 2
	}
	for i := 0; i < pops; i++ {
		entry, ok := g.history.Pop()
		if !ok {
			break
		}
		g.state.Board.Remove(entry.Move.Row, entry.Move.Col)
	}
	if g.settings.Mode.IsAI() {
		g.state.ToMove = PlayerX
	} else {
		g.state.ToMove = otherPlayer(g.state.ToMove)
	}
	if last, ok := g.history.Last(); ok {
		g.state.LastMove = last.Move
		g.state.HasLastMove = true
	} else {
		g.state.LastMove = Move{Row: -1, Col: -1}
		g.state.HasLastMove = false
	}
	g.version++
	g.turnStart = time.Now()
	return nil
}

// DeclareDraw ends a running round without a winner, as agreed over LAN.
func (g *Game) DeclareDraw() bool {
	if g.state.Status != StatusRunning {
		return false
	}
	g.state.Status = StatusDraw
	g.version++
	g.finishRound()
	return true
}

// Forfeit ends a running round in favour of the other side of loser.
func (g *Game) Forfeit(loser PlayerColor) bool {
	if g.state.Status != StatusRunning {
		return false
	}
	winner := otherPlayer(loser)
	g.state.Status = statusForWinner(winner)
	g.state.Win = WinResult{Winner: CellFromPlayer(winner)}
	g.scores.add(winner)
	g.version++
	g.finishRound()
	return true
}

// SwapSides flips which color the local seat plays, keeping scores.
func (g *Game) SwapSides() {
	g.settings.LocalSide = otherPlayer(g.settings.LocalSide)
	g.settings.XName, g.settings.OName = g.settings.OName, g.settings.XName
	g.settings = g.settings.WithMode(g.settings.Mode)
	g.createPlayers()
}

func (g *Game) Tick() bool {
	if g.state.Status != StatusRunning {
		return false
	}
	switch player := g.currentPlayer().(type) {
	case *HumanPlayer:
		if player.HasPendingMove() {
			applied, _ := g.TryApplyMove(player.TakePendingMove())
			return applied
		}
	case *AIPlayer:
		if player.HasMoveReady() {
			move, ok, version, elapsed := player.TakeMove()
			if !ok || version != g.version {
				return false
			}
			applied, reason := g.applyMove(move, true, elapsed)
			if !applied {
				log.Warn().Str("component", "ai").Str("move", move.String()).Str("reason", reason).Msg("engine move rejected")
			}
			return applied
		}
		if !player.IsThinking() {
			player.StartThinking(g.state.Board, g.version)
		}
	}
	return false
}

func (g *Game) SubmitHumanMove(move Move) bool {
	human, ok := g.currentPlayer().(*HumanPlayer)
	if !ok || human.Type() != PlayerHuman {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerType() PlayerType {
	player := g.currentPlayer()
	if player == nil {
		return PlayerHuman
	}
	return player.Type()
}

func (g *Game) AiThinking() bool {
	ai, ok := g.currentPlayer().(*AIPlayer)
	return ok && ai.IsThinking()
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerX {
		return g.xPlayer
	}
	return g.oPlayer
}

func (g *Game) createPlayers() {
	g.xPlayer = g.newPlayer(PlayerX, g.settings.XType)
	g.oPlayer = g.newPlayer(PlayerO, g.settings.OType)
}

func (g *Game) newPlayer(color PlayerColor, kind PlayerType) IPlayer {
	switch kind {
	case PlayerAI:
		return newAIForMode(g.settings.Mode, CellFromPlayer(color), g.rules, g.config, g.rng, g.progress)
	case PlayerRemote:
		return NewRemotePlayer()
	default:
		return NewHumanPlayer()
	}
}

func (g *Game) stopThinking() {
	for _, player := range []IPlayer{g.xPlayer, g.oPlayer} {
		if ai, ok := player.(*AIPlayer); ok {
			ai.StopThinking()
		}
	}
}

func (g *Game) finishRound() {
	g.stopThinking()
	g.logRoundEnd()
	if g.onRoundEnd != nil {
		g.onRoundEnd(g.state.Clone(), g.scores)
	}
}

func (g *Game) logMatchup() {
	log.Info().
		Str("component", "game").
		Str("mode", string(g.settings.Mode)).
		Str("x", g.settings.XName).
		Str("o", g.settings.OName).
		Int("board_size", g.settings.BoardSize).
		Int("win_length", g.settings.WinLength).
		Bool("allow_blocked_win", g.settings.AllowBlockedWin).
		Msg("new game")
}

func (g *Game) logMovePlayed(move Move, player PlayerColor, elapsed time.Duration, isAi bool) {
	log.Debug().
		Str("component", "game").
		Str("player", player.String()).
		Str("move", move.String()).
		Bool("ai", isAi).
		Dur("elapsed", elapsed).
		Msg("move played")
}

func (g *Game) logRoundEnd() {
	event := log.Info().Str("component", "game").Int("score_x", g.scores.X).Int("score_o", g.scores.O)
	if g.state.Win.HasWinner() {
		event.Str("winner", g.state.Win.Winner.String()).Msg("round won")
		return
	}
	event.Msg("round drawn")
}
