package main

import (
	"context"
	"sort"
)

// HeuristicMover is the easy AI: one ply of win/block lookahead, then an
// adjacency score with deliberate randomness so it stays beatable.
type HeuristicMover struct {
	side            Cell
	rules           Rules
	rng             RandomSource
	bestProbability float64
	topK            int
}

func NewHeuristicMover(side Cell, rules Rules, config Config, rng RandomSource) *HeuristicMover {
	if rng == nil {
		rng = NewRandomSource()
	}
	config = config.withDefaults()
	return &HeuristicMover{
		side:            side,
		rules:           rules,
		rng:             rng,
		bestProbability: config.EasyBestProbability,
		topK:            config.EasyTopK,
	}
}

func (h *HeuristicMover) Side() Cell {
	return h.side
}

func (h *HeuristicMover) ChooseMove(_ context.Context, board *Board) (Move, bool) {
	if move, ok := findWinningMove(board, h.rules, h.side); ok {
		return move, true
	}
	if move, ok := findWinningMove(board, h.rules, h.side.Opponent()); ok {
		return move, true
	}

	moves := NeighborhoodMoves(*board, neighborhoodRadius)
	if len(moves) == 0 {
		return Move{}, false
	}
	scored := make([]candidateMove, len(moves))
	for i, m := range moves {
		scored[i] = candidateMove{move: m, score: h.adjacencyScore(*board, m)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if h.rng.Float64() < h.bestProbability {
		return scored[0].move, true
	}
	top := min(h.topK, len(scored))
	return scored[h.rng.Intn(top)].move, true
}

// adjacencyScore counts the eight neighbours: own stones weigh 3, opponent
// stones 1, plus half the center bonus.
func (h *HeuristicMover) adjacencyScore(board Board, move Move) float64 {
	score := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := move.Row+dr, move.Col+dc
			if !board.InBounds(r, c) {
				continue
			}
			switch board.At(r, c) {
			case h.side:
				score += 3
			case h.side.Opponent():
				score++
			}
		}
	}
	score += max(0, board.Size()/2-manhattanToCenter(move, board.Size())) / 2
	return float64(score)
}
