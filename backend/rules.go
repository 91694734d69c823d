package main

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds    = errors.New("out of bounds")
	ErrOccupied       = errors.New("occupied")
	ErrGameNotRunning = errors.New("game not running")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrUndoDisabled   = errors.New("undo is not available in LAN games")
)

type direction struct {
	dr int
	dc int
}

// Scan order for lines: right, down, down-right, down-left. Every direction
// points "forward" in row-major order, so the cell behind a run start has
// always been visited already.
var lineDirections = [4]direction{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

type WinResult struct {
	Winner    Cell   `json:"winner"`
	Cells     []Move `json:"cells"`
	LineStart Move   `json:"line_start"`
	LineEnd   Move   `json:"line_end"`
}

func (w WinResult) HasWinner() bool {
	return w.Winner != CellEmpty
}

func (w WinResult) Clone() WinResult {
	clone := w
	clone.Cells = append([]Move(nil), w.Cells...)
	return clone
}

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

func (r Rules) IsLegal(state GameState, move Move) (bool, string) {
	if err := r.CheckPlacement(state.Board, move); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func (r Rules) CheckPlacement(board Board, move Move) error {
	if !move.IsValid(board.Size()) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, move)
	}
	if !board.IsEmpty(move.Row, move.Col) {
		return fmt.Errorf("%w: %s", ErrOccupied, move)
	}
	return nil
}

// CheckWinner reports the first winning run in row-major order, trying the
// directions of lineDirections at each run start. Cells holds exactly
// WinLength cells from the run start; LineStart and LineEnd span the whole
// run. A run of exactly WinLength with opponent stones on both flanks is not
// a win unless AllowBlockedWin is set.
func (r Rules) CheckWinner(board Board) WinResult {
	size := board.Size()
	k := r.WinLength()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			cell := board.At(row, col)
			if cell == CellEmpty {
				continue
			}
			for _, dir := range lineDirections {
				if board.InBounds(row-dir.dr, col-dir.dc) && board.At(row-dir.dr, col-dir.dc) == cell {
					continue
				}
				count := 1 + countDirection(board, row, col, dir, cell)
				if count < k {
					continue
				}
				endRow := row + dir.dr*(count-1)
				endCol := col + dir.dc*(count-1)
				if !r.settings.AllowBlockedWin && count == k &&
					isOpponentStone(board, row-dir.dr, col-dir.dc, cell) &&
					isOpponentStone(board, endRow+dir.dr, endCol+dir.dc, cell) {
					continue
				}
				cells := make([]Move, k)
				for i := 0; i < k; i++ {
					cells[i] = Move{Row: row + dir.dr*i, Col: col + dir.dc*i}
				}
				return WinResult{
					Winner:    cell,
					Cells:     cells,
					LineStart: Move{Row: row, Col: col},
					LineEnd:   Move{Row: endRow, Col: endCol},
				}
			}
		}
	}
	return WinResult{}
}

// IsDraw is inferred: no winner and no empty cell left.
func (r Rules) IsDraw(board Board) bool {
	return board.IsFull() && !r.CheckWinner(board).HasWinner()
}

func (r Rules) WinLength() int {
	if r.settings.WinLength <= 0 {
		return DefaultGameSettings().WinLength
	}
	return r.settings.WinLength
}

func (r Rules) AllowBlockedWin() bool {
	return r.settings.AllowBlockedWin
}

func (r Rules) String() string {
	return fmt.Sprintf("Rules{size=%d win=%d blocked=%t}", r.settings.BoardSize, r.WinLength(), r.settings.AllowBlockedWin)
}

// findWinningMove tries every empty cell in row-major order and returns the
// first one that makes cell the winner.
func findWinningMove(board *Board, rules Rules, cell Cell) (Move, bool) {
	size := board.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.At(row, col) != CellEmpty {
				continue
			}
			move := Move{Row: row, Col: col}
			won := false
			board.withStone(move, cell, func() {
				won = rules.CheckWinner(*board).Winner == cell
			})
			if won {
				return move, true
			}
		}
	}
	return Move{}, false
}

func countDirection(board Board, row, col int, dir direction, cell Cell) int {
	count := 0
	r := row + dir.dr
	c := col + dir.dc
	for board.InBounds(r, c) && board.At(r, c) == cell {
		count++
		r += dir.dr
		c += dir.dc
	}
	return count
}

func isOpponentStone(board Board, row, col int, cell Cell) bool {
	if !board.InBounds(row, col) {
		return false
	}
	other := board.At(row, col)
	return other != CellEmpty && other != cell
}
