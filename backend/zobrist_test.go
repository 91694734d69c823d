package main

import "testing"

func TestZobristEmptyBoardHashesToZero(t *testing.T) {
	z := NewZobristTable(9, 1)
	if h := z.Hash(emptyBoard(9)); h != 0 {
		t.Fatalf("expected zero hash for empty board, got %d", h)
	}
}

func TestZobristIncrementalMatchesFull(t *testing.T) {
	z := NewZobristTable(15, 99)
	board := emptyBoard(15)
	hash := z.Hash(board)
	moves := []struct {
		move Move
		cell Cell
	}{
		{NewMove(7, 7), CellX},
		{NewMove(7, 8), CellO},
		{NewMove(0, 14), CellX},
		{NewMove(14, 0), CellO},
	}
	for _, m := range moves {
		board.Set(m.move.Row, m.move.Col, m.cell)
		hash ^= z.stone(m.move.Row, m.move.Col, m.cell)
		if full := z.Hash(board); full != hash {
			t.Fatalf("hash mismatch after %s: got %d want %d", m.move, hash, full)
		}
	}
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		board.Remove(m.move.Row, m.move.Col)
		hash ^= z.stone(m.move.Row, m.move.Col, m.cell)
	}
	if hash != 0 {
		t.Fatalf("expected undo to restore the empty hash, got %d", hash)
	}
}

func TestZobristOrderIndependent(t *testing.T) {
	z := NewZobristTable(9, 5)
	a := emptyBoard(9)
	a.Set(1, 1, CellX)
	a.Set(2, 2, CellO)
	b := emptyBoard(9)
	b.Set(2, 2, CellO)
	b.Set(1, 1, CellX)
	if z.Hash(a) != z.Hash(b) {
		t.Fatalf("expected same hash regardless of placement order")
	}
}

func TestZobristDistinguishesPlayers(t *testing.T) {
	z := NewZobristTable(9, 5)
	if z.stone(3, 3, CellX) == z.stone(3, 3, CellO) {
		t.Fatalf("expected distinct tokens per player")
	}
	other := NewZobristTable(9, 6)
	if z.stone(3, 3, CellX) == other.stone(3, 3, CellX) {
		t.Fatalf("expected different seeds to give different tokens")
	}
}

func TestSearchSimulateRestoresHash(t *testing.T) {
	engine := testSearchEngine(CellX, 9, 5)
	board := emptyBoard(9)
	board.Set(4, 4, CellO)
	run := &searchRun{engine: engine, board: &board, hash: engine.zobrist.Hash(board), stats: &SearchStats{}}
	start := run.hash
	run.simulate(NewMove(4, 5), CellX, func() {
		if run.hash != engine.zobrist.Hash(board) {
			t.Fatalf("expected hash to track the simulated stone")
		}
		run.simulate(NewMove(5, 5), CellO, func() {})
	})
	if run.hash != start || board.At(4, 5) != CellEmpty || board.At(5, 5) != CellEmpty {
		t.Fatalf("expected simulate to restore board and hash")
	}
}
