package main

// Run is a maximal line of one player's stones. LeftEnd and RightEnd are the
// flanking cells and only name a position when the matching Open flag is set.
type Run struct {
	Player    Cell
	Length    int
	Start     Move
	Dir       direction
	LeftEnd   Move
	RightEnd  Move
	LeftOpen  bool
	RightOpen bool
}

func (r Run) Openness() int {
	open := 0
	if r.LeftOpen {
		open++
	}
	if r.RightOpen {
		open++
	}
	return open
}

func (r Run) Cells() []Move {
	cells := make([]Move, r.Length)
	for i := range cells {
		cells[i] = Move{Row: r.Start.Row + r.Dir.dr*i, Col: r.Start.Col + r.Dir.dc*i}
	}
	return cells
}

// ScanRuns lists every run of player. A cell starts a run in a direction only
// when the cell behind it is not player's, so each run is reported once.
func ScanRuns(board Board, player Cell) []Run {
	return appendRuns(nil, board, player)
}

func appendRuns(runs []Run, board Board, player Cell) []Run {
	size := board.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.At(row, col) != player {
				continue
			}
			for _, dir := range lineDirections {
				prevRow := row - dir.dr
				prevCol := col - dir.dc
				if board.InBounds(prevRow, prevCol) && board.At(prevRow, prevCol) == player {
					continue
				}
				length := 1 + countDirection(board, row, col, dir, player)
				nextRow := row + dir.dr*length
				nextCol := col + dir.dc*length
				runs = append(runs, Run{
					Player:    player,
					Length:    length,
					Start:     Move{Row: row, Col: col},
					Dir:       dir,
					LeftEnd:   Move{Row: prevRow, Col: prevCol},
					RightEnd:  Move{Row: nextRow, Col: nextCol},
					LeftOpen:  board.IsEmpty(prevRow, prevCol),
					RightOpen: board.IsEmpty(nextRow, nextCol),
				})
			}
		}
	}
	return runs
}

func longestRun(runs []Run) int {
	longest := 0
	for _, run := range runs {
		if run.Length > longest {
			longest = run.Length
		}
	}
	return longest
}
