package main

import "testing"

func containsMove(moves []Move, target Move) bool {
	for _, m := range moves {
		if m.Equals(target) {
			return true
		}
	}
	return false
}

func openFourRow7() Board {
	board := emptyBoard(15)
	for col := 3; col <= 6; col++ {
		board.Set(7, col, CellX)
	}
	return board
}

func TestCandidateMovesEmptyBoardIsCenter(t *testing.T) {
	moves := CandidateMoves(emptyBoard(15), CellX, 5, 18)
	if len(moves) != 1 || !moves[0].Equals(NewMove(7, 7)) {
		t.Fatalf("expected only the center, got %v", moves)
	}
}

func TestUrgentCellsForOpenFour(t *testing.T) {
	board := openFourRow7()
	urgent := FindUrgentBlockCells(board, CellX, 5)
	for _, want := range []Move{NewMove(7, 2), NewMove(7, 7)} {
		if !containsMove(urgent, want) {
			t.Fatalf("expected urgent list %v to contain %s", urgent, want)
		}
	}
	moves := CandidateMoves(board, CellO, 5, 18)
	if len(moves) < 2 || !moves[0].Equals(NewMove(7, 2)) || !moves[1].Equals(NewMove(7, 7)) {
		t.Fatalf("expected urgent blocks in front, got %v", moves)
	}
}

func TestUrgentCellsIncludeOpenTwoFlanksAfterThreats(t *testing.T) {
	board := mustParseBoard(t,
		".........",
		".OOO.....",
		".........",
		".........",
		"....OO...",
		".........",
		".........",
		".........",
		".........",
	)
	urgent := FindUrgentBlockCells(board, CellO, 5)
	want := []Move{NewMove(1, 0), NewMove(1, 4), NewMove(4, 3), NewMove(4, 6)}
	if len(urgent) < len(want) {
		t.Fatalf("expected at least %d urgent cells, got %v", len(want), urgent)
	}
	for i, m := range want {
		if !urgent[i].Equals(m) {
			t.Fatalf("expected urgent[%d]=%s, got %v", i, m, urgent)
		}
	}
	seen := map[Move]bool{}
	for _, m := range urgent {
		if seen[m] {
			t.Fatalf("expected no duplicate urgent cells, got %v", urgent)
		}
		seen[m] = true
	}
}

func TestCandidateMovesTruncatesAndStaysLocal(t *testing.T) {
	board := emptyBoard(15)
	board.Set(7, 7, CellX)
	board.Set(7, 8, CellO)
	moves := CandidateMoves(board, CellX, 5, 6)
	if len(moves) != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(moves))
	}
	for _, m := range moves {
		if !board.IsEmpty(m.Row, m.Col) {
			t.Fatalf("expected empty candidate, got %s", m)
		}
		if abs(m.Row-7) > neighborhoodRadius || (abs(m.Col-7) > neighborhoodRadius && abs(m.Col-8) > neighborhoodRadius) {
			t.Fatalf("expected candidate near the stones, got %s", m)
		}
	}
}

func TestNeighborhoodMovesOnTinyBoard(t *testing.T) {
	board := mustParseBoard(t,
		"XO",
		"..",
	)
	moves := NeighborhoodMoves(board, 2)
	if len(moves) != 2 {
		t.Fatalf("expected both empty cells, got %v", moves)
	}
}

func TestQuickScorePrefersOwnStones(t *testing.T) {
	board := emptyBoard(15)
	board.Set(5, 5, CellX)
	board.Set(9, 9, CellO)
	nearOwn := QuickScore(board, NewMove(5, 6), CellX)
	nearOpp := QuickScore(board, NewMove(9, 8), CellX)
	if nearOwn <= nearOpp {
		t.Fatalf("expected own adjacency (%f) to outscore opponent adjacency (%f)", nearOwn, nearOpp)
	}
}

func TestOrderCandidatesKeepsUrgencyFirst(t *testing.T) {
	board := emptyBoard(9)
	board.Set(4, 4, CellX)
	candidates := []candidateMove{
		{move: NewMove(4, 5), priority: prioQuiet},
		{move: NewMove(0, 0), priority: prioThreat},
		{move: NewMove(3, 4), priority: prioEarlyThreat},
	}
	orderCandidates(board, candidates, CellX, true)
	if !candidates[0].move.Equals(NewMove(0, 0)) || !candidates[1].move.Equals(NewMove(3, 4)) {
		t.Fatalf("expected priority order, got %v", candidates)
	}

	quiet := []candidateMove{
		{move: NewMove(0, 8), priority: prioQuiet},
		{move: NewMove(4, 5), priority: prioQuiet},
	}
	orderCandidates(board, quiet, CellX, true)
	if !quiet[0].move.Equals(NewMove(4, 5)) {
		t.Fatalf("expected higher quick score first when maximizing, got %v", quiet)
	}
	orderCandidates(board, quiet, CellX, false)
	if !quiet[0].move.Equals(NewMove(0, 8)) {
		t.Fatalf("expected lower quick score first when minimizing, got %v", quiet)
	}
}
