package main

import "fmt"

type Move struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Depth int `json:"depth,omitempty"`
}

func NewMove(row, col int) Move {
	return Move{Row: row, Col: col}
}

func (m Move) IsValid(boardSize int) bool {
	return m.Row >= 0 && m.Col >= 0 && m.Row < boardSize && m.Col < boardSize
}

func (m Move) Equals(other Move) bool {
	return m.Row == other.Row && m.Col == other.Col
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Row, m.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func manhattanToCenter(m Move, boardSize int) int {
	center := boardSize / 2
	return abs(m.Row-center) + abs(m.Col-center)
}
