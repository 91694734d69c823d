package main

import (
	"context"
	"math/rand"
	"testing"
)

// scriptedRandom returns fixed draws and records the bounds it was asked for.
type scriptedRandom struct {
	float   float64
	index   int
	bounds  []int
	counter uint64
}

func (s *scriptedRandom) Intn(n int) int {
	s.bounds = append(s.bounds, n)
	return s.index % n
}

func (s *scriptedRandom) Float64() float64 {
	return s.float
}

func (s *scriptedRandom) Uint64() uint64 {
	s.counter++
	return s.counter
}

func TestHeuristicMoverTakesWin(t *testing.T) {
	mover := NewHeuristicMover(CellO, rulesFor(9, 5, false), DefaultConfig(), &scriptedRandom{float: 0.99})
	board := emptyBoard(9)
	for row := 1; row <= 4; row++ {
		board.Set(row, 2, CellO)
	}
	board.Set(4, 4, CellX)
	move, ok := mover.ChooseMove(context.Background(), &board)
	if !ok || !move.Equals(NewMove(0, 2)) {
		t.Fatalf("expected winning move (0,2), got %s ok=%t", move, ok)
	}
}

func TestHeuristicMoverBlocksLoss(t *testing.T) {
	mover := NewHeuristicMover(CellO, rulesFor(9, 5, false), DefaultConfig(), &scriptedRandom{float: 0.99})
	board := emptyBoard(9)
	for col := 0; col < 4; col++ {
		board.Set(8, col, CellX)
	}
	board.Set(0, 0, CellO)
	before := board.Clone()
	move, ok := mover.ChooseMove(context.Background(), &board)
	if !ok || !move.Equals(NewMove(8, 4)) {
		t.Fatalf("expected block at (8,4), got %s ok=%t", move, ok)
	}
	if !board.Equal(before) {
		t.Fatalf("expected board unchanged after choosing")
	}
}

func TestHeuristicMoverPicksBestOnLowDraw(t *testing.T) {
	rng := &scriptedRandom{float: 0.1}
	mover := NewHeuristicMover(CellO, rulesFor(15, 5, false), DefaultConfig(), rng)
	board := emptyBoard(15)
	board.Set(7, 7, CellX)
	move, ok := mover.ChooseMove(context.Background(), &board)
	if !ok {
		t.Fatalf("expected a move")
	}
	// orthogonal neighbours of the center tie; the first in row-major order wins
	if !move.Equals(NewMove(6, 7)) {
		t.Fatalf("expected best cell (6,7), got %s", move)
	}
	if len(rng.bounds) != 0 {
		t.Fatalf("expected no index draw for the best pick, got %v", rng.bounds)
	}
}

func TestHeuristicMoverRandomPickAmongTopK(t *testing.T) {
	rng := &scriptedRandom{float: 0.95, index: 3}
	mover := NewHeuristicMover(CellO, rulesFor(15, 5, false), DefaultConfig(), rng)
	board := emptyBoard(15)
	board.Set(7, 7, CellX)
	move, ok := mover.ChooseMove(context.Background(), &board)
	if !ok {
		t.Fatalf("expected a move")
	}
	if len(rng.bounds) != 1 || rng.bounds[0] != 6 {
		t.Fatalf("expected one draw among the top 6, got %v", rng.bounds)
	}
	if abs(move.Row-7) > 1 || abs(move.Col-7) > 1 {
		t.Fatalf("expected a neighbour of the center, got %s", move)
	}
}

func TestHeuristicMoverBestRateNearSeventyPercent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	mover := NewHeuristicMover(CellO, rulesFor(15, 5, false), DefaultConfig(), rng)
	board := emptyBoard(15)
	board.Set(7, 7, CellX)
	best := NewMove(6, 7)
	hits := 0
	const rounds = 2000
	for i := 0; i < rounds; i++ {
		move, _ := mover.ChooseMove(context.Background(), &board)
		if move.Equals(best) {
			hits++
		}
	}
	// 0.7 directly plus a 1/6 share of the remaining 0.3
	rate := float64(hits) / rounds
	if rate < 0.68 || rate > 0.82 {
		t.Fatalf("expected best-move rate near 0.75, got %f", rate)
	}
}
