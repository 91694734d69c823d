package main

import (
	"fmt"
	"strings"
)

type Cell int

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

type Board struct {
	size  int
	cells []Cell
}

func NewBoard(boardSize int) Board {
	b := Board{}
	b.Reset(boardSize)
	return b
}

func (b *Board) Reset(boardSize int) {
	b.size = boardSize
	b.cells = make([]Cell, boardSize*boardSize)
}

func (b Board) At(row, col int) Cell {
	return b.cells[b.index(row, col)]
}

func (b *Board) Set(row, col int, value Cell) {
	b.cells[b.index(row, col)] = value
}

func (b *Board) Remove(row, col int) {
	b.cells[b.index(row, col)] = CellEmpty
}

// Place puts a stone on an empty in-bounds cell. Anything else is a no-op.
func (b *Board) Place(move Move, value Cell) bool {
	if value == CellEmpty || !b.IsEmpty(move.Row, move.Col) {
		return false
	}
	b.Set(move.Row, move.Col, value)
	return true
}

// withStone places value on move, runs fn and lifts the stone again on every
// exit path of fn.
func (b *Board) withStone(move Move, value Cell, fn func()) {
	b.Set(move.Row, move.Col, value)
	defer b.Remove(move.Row, move.Col)
	fn()
}

func (b Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < b.size && col < b.size
}

func (b Board) IsEmpty(row, col int) bool {
	return b.InBounds(row, col) && b.At(row, col) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b Board) CountStones() int {
	return len(b.cells) - b.CountEmpty()
}

func (b Board) IsFull() bool {
	return b.CountEmpty() == 0
}

func (b Board) HasStones() bool {
	for _, cell := range b.cells {
		if cell != CellEmpty {
			return true
		}
	}
	return false
}

func (b Board) EmptyCells() []Move {
	moves := make([]Move, 0, b.CountEmpty())
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			if b.At(row, col) == CellEmpty {
				moves = append(moves, Move{Row: row, Col: col})
			}
		}
	}
	return moves
}

func (b Board) Center() Move {
	return Move{Row: b.size / 2, Col: b.size / 2}
}

func (b Board) Size() int {
	return b.size
}

func (b Board) Clone() Board {
	clone := Board{size: b.size}
	clone.cells = make([]Cell, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

func (b Board) Equal(other Board) bool {
	if b.size != other.size || len(b.cells) != len(other.cells) {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// String renders the grid one row per line using '.', 'X' and 'O'.
func (b Board) String() string {
	var sb strings.Builder
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			sb.WriteByte(b.At(row, col).Symbol())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b Board) index(row, col int) int {
	return row*b.size + col
}

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return "Empty"
	}
}

func (c Cell) Symbol() byte {
	switch c {
	case CellX:
		return 'X'
	case CellO:
		return 'O'
	default:
		return '.'
	}
}

func (c Cell) Opponent() Cell {
	switch c {
	case CellX:
		return CellO
	case CellO:
		return CellX
	default:
		return CellEmpty
	}
}

func CellFromPlayer(player PlayerColor) Cell {
	if player == PlayerX {
		return CellX
	}
	return CellO
}

func PlayerFromCell(cell Cell) (PlayerColor, error) {
	switch cell {
	case CellX:
		return PlayerX, nil
	case CellO:
		return PlayerO, nil
	default:
		return PlayerX, fmt.Errorf("empty cell has no player")
	}
}

// ParseBoard builds a board from rows of '.', 'X' and 'O'. Rows must all have
// the same length as the number of rows.
func ParseBoard(rows ...string) (Board, error) {
	b := NewBoard(len(rows))
	for row, line := range rows {
		if len(line) != len(rows) {
			return Board{}, fmt.Errorf("row %d has %d cells, want %d", row, len(line), len(rows))
		}
		for col := 0; col < len(line); col++ {
			switch line[col] {
			case 'X', 'x':
				b.Set(row, col, CellX)
			case 'O', 'o':
				b.Set(row, col, CellO)
			case '.', '_', ' ':
			default:
				return Board{}, fmt.Errorf("row %d col %d: unexpected %q", row, col, line[col])
			}
		}
	}
	return b, nil
}
