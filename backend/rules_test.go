package main

import "testing"

func mustParseBoard(t *testing.T, rows ...string) Board {
	t.Helper()
	board, err := ParseBoard(rows...)
	if err != nil {
		t.Fatalf("parse board: %v", err)
	}
	return board
}

func emptyBoard(size int) Board {
	return NewBoard(size)
}

func rulesFor(size, k int, allowBlocked bool) Rules {
	settings := DefaultGameSettings()
	settings.BoardSize = size
	settings.WinLength = k
	settings.AllowBlockedWin = allowBlocked
	return NewRules(settings)
}

func TestCheckWinnerHorizontalFive(t *testing.T) {
	board := emptyBoard(15)
	for col := 3; col <= 7; col++ {
		board.Set(7, col, CellX)
	}
	win := rulesFor(15, 5, false).CheckWinner(board)
	if win.Winner != CellX {
		t.Fatalf("expected X to win, got %v", win.Winner)
	}
	if len(win.Cells) != 5 {
		t.Fatalf("expected 5 winning cells, got %d", len(win.Cells))
	}
	for i, cell := range win.Cells {
		if cell.Row != 7 || cell.Col != 3+i {
			t.Fatalf("expected cell %d at (7,%d), got %s", i, 3+i, cell)
		}
	}
	if !win.LineStart.Equals(NewMove(7, 3)) || !win.LineEnd.Equals(NewMove(7, 7)) {
		t.Fatalf("expected line (7,3)-(7,7), got %s-%s", win.LineStart, win.LineEnd)
	}
}

func TestCheckWinnerAntiDiagonal(t *testing.T) {
	board := emptyBoard(9)
	for i := 0; i < 5; i++ {
		board.Set(1+i, 6-i, CellO)
	}
	win := rulesFor(9, 5, false).CheckWinner(board)
	if win.Winner != CellO {
		t.Fatalf("expected O to win on the anti-diagonal, got %v", win.Winner)
	}
	if !win.Cells[0].Equals(NewMove(1, 6)) || !win.Cells[4].Equals(NewMove(5, 2)) {
		t.Fatalf("expected cells from (1,6) to (5,2), got %v", win.Cells)
	}
}

func TestCheckWinnerVerticalAndDiagonal(t *testing.T) {
	cases := []struct {
		name string
		at   func(i int) Move
	}{
		{"vertical", func(i int) Move { return NewMove(2+i, 4) }},
		{"diagonal", func(i int) Move { return NewMove(1+i, 2+i) }},
	}
	for _, tc := range cases {
		board := emptyBoard(9)
		for i := 0; i < 5; i++ {
			m := tc.at(i)
			board.Set(m.Row, m.Col, CellX)
		}
		win := rulesFor(9, 5, false).CheckWinner(board)
		if win.Winner != CellX || len(win.Cells) != 5 {
			t.Fatalf("%s: expected X to win with 5 cells, got %v %v", tc.name, win.Winner, win.Cells)
		}
		for i, cell := range win.Cells {
			if !cell.Equals(tc.at(i)) {
				t.Fatalf("%s: expected cell %d at %s, got %s", tc.name, i, tc.at(i), cell)
			}
		}
		if !win.LineStart.Equals(tc.at(0)) || !win.LineEnd.Equals(tc.at(4)) {
			t.Fatalf("%s: expected line %s-%s, got %s-%s", tc.name, tc.at(0), tc.at(4), win.LineStart, win.LineEnd)
		}
	}
}

func TestCheckWinnerReportsFirstLineInScanOrder(t *testing.T) {
	line := func(row, col, dr, dc int) []Move {
		cells := make([]Move, 5)
		for i := range cells {
			cells[i] = NewMove(row+i*dr, col+i*dc)
		}
		return cells
	}
	cases := []struct {
		name  string
		lines [][]Move
		want  []Move
	}{
		{"right before down", [][]Move{line(0, 0, 1, 0), line(0, 0, 0, 1)}, line(0, 0, 0, 1)},
		{"down before diagonal", [][]Move{line(0, 0, 1, 1), line(0, 0, 1, 0)}, line(0, 0, 1, 0)},
		{"earlier anchor first", [][]Move{line(0, 4, 1, -1), line(0, 0, 1, 1)}, line(0, 0, 1, 1)},
		{"earlier row first", [][]Move{line(5, 0, 0, 1), line(1, 8, 1, 0)}, line(1, 8, 1, 0)},
	}
	for _, tc := range cases {
		board := emptyBoard(9)
		for _, l := range tc.lines {
			for _, m := range l {
				board.Set(m.Row, m.Col, CellX)
			}
		}
		win := rulesFor(9, 5, false).CheckWinner(board)
		if len(win.Cells) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, win.Cells)
		}
		for i := range tc.want {
			if !win.Cells[i].Equals(tc.want[i]) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, win.Cells)
			}
		}
	}
}

func TestCheckWinnerOpenFourIsNotAWin(t *testing.T) {
	board := emptyBoard(15)
	for col := 3; col <= 6; col++ {
		board.Set(7, col, CellX)
	}
	if win := rulesFor(15, 5, false).CheckWinner(board); win.HasWinner() {
		t.Fatalf("expected no winner for an open four, got %v", win.Winner)
	}
}

func TestCheckWinnerBlockedExactRun(t *testing.T) {
	board := mustParseBoard(t,
		".........",
		".........",
		".........",
		".........",
		"OXXXXXO..",
		".........",
		".........",
		".........",
		".........",
	)
	if win := rulesFor(9, 5, false).CheckWinner(board); win.HasWinner() {
		t.Fatalf("expected sandwiched five to be rejected, got %v", win.Winner)
	}
	win := rulesFor(9, 5, true).CheckWinner(board)
	if win.Winner != CellX {
		t.Fatalf("expected sandwiched five to win when blocked wins are allowed, got %v", win.Winner)
	}
}

func TestCheckWinnerBlockedOverlineStillWins(t *testing.T) {
	board := mustParseBoard(t,
		".........",
		".........",
		".........",
		".........",
		"OXXXXXXO.",
		".........",
		".........",
		".........",
		".........",
	)
	win := rulesFor(9, 5, false).CheckWinner(board)
	if win.Winner != CellX {
		t.Fatalf("expected a flanked six to win, got %v", win.Winner)
	}
	if len(win.Cells) != 5 {
		t.Fatalf("expected exactly 5 reported cells for an overline, got %d", len(win.Cells))
	}
	if !win.LineStart.Equals(NewMove(4, 1)) || !win.LineEnd.Equals(NewMove(4, 6)) {
		t.Fatalf("expected line to span the whole run, got %s-%s", win.LineStart, win.LineEnd)
	}
}

func TestCheckWinnerOneFlankOpenWins(t *testing.T) {
	board := mustParseBoard(t,
		".......",
		".......",
		"OXXXXX.",
		".......",
		".......",
		".......",
		".......",
	)
	if win := rulesFor(7, 5, false).CheckWinner(board); win.Winner != CellX {
		t.Fatalf("expected a five with one open flank to win, got %v", win.Winner)
	}
}

func TestCheckWinnerIsPure(t *testing.T) {
	board := emptyBoard(9)
	for row := 0; row < 5; row++ {
		board.Set(row, row, CellX)
	}
	board.Set(0, 8, CellO)
	before := board.Clone()
	rules := rulesFor(9, 5, false)

	first := rules.CheckWinner(board)
	second := rules.CheckWinner(board)
	if !board.Equal(before) {
		t.Fatalf("expected board to be untouched by CheckWinner")
	}
	if first.Winner != second.Winner || len(first.Cells) != len(second.Cells) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
	for i := range first.Cells {
		if !first.Cells[i].Equals(second.Cells[i]) {
			t.Fatalf("expected identical cells, got %v and %v", first.Cells, second.Cells)
		}
	}
}

// drawPattern fills size x size with stones whose runs never exceed two.
func drawPattern(size int) Board {
	board := NewBoard(size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if (col/2+row)%2 == 0 {
				board.Set(row, col, CellX)
			} else {
				board.Set(row, col, CellO)
			}
		}
	}
	return board
}

func TestFullBoardWithoutWinnerIsDraw(t *testing.T) {
	board := drawPattern(15)
	rules := rulesFor(15, 5, false)
	if win := rules.CheckWinner(board); win.HasWinner() {
		t.Fatalf("expected no winner on the draw pattern, got %v at %v", win.Winner, win.Cells)
	}
	if !rules.IsDraw(board) {
		t.Fatalf("expected a full board without a winner to be a draw")
	}
	if longest := longestRun(ScanRuns(board, CellX)); longest > 2 {
		t.Fatalf("expected draw pattern runs of at most 2, got %d", longest)
	}
}

func TestCheckPlacement(t *testing.T) {
	board := emptyBoard(5)
	board.Set(2, 2, CellX)
	rules := rulesFor(5, 4, false)
	if err := rules.CheckPlacement(board, NewMove(5, 0)); err == nil {
		t.Fatalf("expected out of bounds error")
	}
	if err := rules.CheckPlacement(board, NewMove(2, 2)); err == nil {
		t.Fatalf("expected occupied error")
	}
	if err := rules.CheckPlacement(board, NewMove(0, 0)); err != nil {
		t.Fatalf("expected legal placement, got %v", err)
	}
}

func TestPlaceRejectsOccupiedAndOutOfBounds(t *testing.T) {
	board := emptyBoard(5)
	if !board.Place(NewMove(1, 1), CellX) {
		t.Fatalf("expected placement on empty cell")
	}
	if board.Place(NewMove(1, 1), CellO) {
		t.Fatalf("expected occupied placement to be a no-op")
	}
	if board.At(1, 1) != CellX {
		t.Fatalf("expected original stone to stay, got %v", board.At(1, 1))
	}
	if board.Place(NewMove(-1, 3), CellO) {
		t.Fatalf("expected out of bounds placement to be a no-op")
	}
	if board.CountStones() != 1 {
		t.Fatalf("expected one stone, got %d", board.CountStones())
	}
}

func TestParseBoardRejectsRaggedRows(t *testing.T) {
	if _, err := ParseBoard("...", "..", "..."); err == nil {
		t.Fatalf("expected error for ragged rows")
	}
	if _, err := ParseBoard("..", ".?"); err == nil {
		t.Fatalf("expected error for unknown symbol")
	}
}

func TestFindWinningMoveRestoresBoard(t *testing.T) {
	board := emptyBoard(9)
	for col := 1; col <= 4; col++ {
		board.Set(4, col, CellO)
	}
	before := board.Clone()
	move, ok := findWinningMove(&board, rulesFor(9, 5, false), CellO)
	if !ok {
		t.Fatalf("expected a winning move")
	}
	if !move.Equals(NewMove(4, 0)) {
		t.Fatalf("expected first winning cell (4,0) in row-major order, got %s", move)
	}
	if !board.Equal(before) {
		t.Fatalf("expected board restored after probing")
	}
}
