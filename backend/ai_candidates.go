package main

import "sort"

const (
	neighborhoodRadius = 2
	urgentBonus        = 200_000
	quickOwnWeight     = 10
	quickOppWeight     = 12
)

const (
	prioThreat = iota
	prioEarlyThreat
	prioQuiet
)

type candidateMove struct {
	move     Move
	score    float64
	priority int
}

// NeighborhoodMoves returns the empty cells within radius of any stone in
// row-major order, every empty cell when that set is empty, and only the
// center on an empty board.
func NeighborhoodMoves(board Board, radius int) []Move {
	if !board.HasStones() {
		return []Move{board.Center()}
	}
	size := board.Size()
	mark := make([]bool, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.At(row, col) == CellEmpty {
				continue
			}
			for dr := -radius; dr <= radius; dr++ {
				for dc := -radius; dc <= radius; dc++ {
					r, c := row+dr, col+dc
					if board.IsEmpty(r, c) {
						mark[r*size+c] = true
					}
				}
			}
		}
	}
	moves := []Move{}
	for i, ok := range mark {
		if ok {
			moves = append(moves, Move{Row: i / size, Col: i % size})
		}
	}
	if len(moves) == 0 {
		return board.EmptyCells()
	}
	return moves
}

// QuickScore is the cheap local ranking used for candidate selection and
// child ordering: stones of side at distance one or two along each axis add
// 10, opponent stones subtract 12, plus a bonus for closeness to the center.
func QuickScore(board Board, move Move, side Cell) float64 {
	opp := side.Opponent()
	score := 0
	for _, dir := range lineDirections {
		for k := 1; k <= 2; k++ {
			for _, sign := range [2]int{1, -1} {
				r := move.Row + sign*dir.dr*k
				c := move.Col + sign*dir.dc*k
				if !board.InBounds(r, c) {
					continue
				}
				switch board.At(r, c) {
				case side:
					score += quickOwnWeight
				case opp:
					score -= quickOppWeight
				}
			}
		}
	}
	score += max(0, board.Size()/2-manhattanToCenter(move, board.Size()))
	return float64(score)
}

// FindUrgentBlockCells lists the cells that answer opponent's threats: open
// flanks of runs of three or more first, then both flanks of open twos.
// Duplicates are dropped keeping the first occurrence.
func FindUrgentBlockCells(board Board, opponent Cell, winLength int) []Move {
	threats, early := findUrgentCells(board, opponent, winLength)
	return append(threats, early...)
}

func findUrgentCells(board Board, opponent Cell, winLength int) (threats []Move, early []Move) {
	seen := make(map[Move]struct{})
	add := func(list []Move, m Move) []Move {
		if _, ok := seen[m]; ok {
			return list
		}
		seen[m] = struct{}{}
		return append(list, m)
	}
	threatLen := max(winLength-2, 2)
	earlyLen := winLength - 3
	runs := ScanRuns(board, opponent)
	for _, run := range runs {
		if run.Length < threatLen {
			continue
		}
		if run.LeftOpen {
			threats = add(threats, run.LeftEnd)
		}
		if run.RightOpen {
			threats = add(threats, run.RightEnd)
		}
	}
	if earlyLen < 2 {
		return threats, early
	}
	for _, run := range runs {
		if run.Length == earlyLen && run.LeftOpen && run.RightOpen {
			early = add(early, run.LeftEnd)
			early = add(early, run.RightEnd)
		}
	}
	return threats, early
}

// CandidateMoves ranks moves for side, best first, with urgent blocks in
// front, truncated to maxCount.
func CandidateMoves(board Board, side Cell, winLength, maxCount int) []Move {
	candidates := collectCandidates(board, side, winLength, maxCount)
	moves := make([]Move, len(candidates))
	for i, c := range candidates {
		moves[i] = c.move
	}
	return moves
}

func collectCandidates(board Board, side Cell, winLength, maxCount int) []candidateMove {
	if !board.HasStones() {
		return []candidateMove{{move: board.Center(), priority: prioQuiet}}
	}
	threats, early := findUrgentCells(board, side.Opponent(), winLength)
	urgent := make(map[Move]int, len(threats)+len(early))
	for _, m := range threats {
		urgent[m] = prioThreat
	}
	for _, m := range early {
		urgent[m] = prioEarlyThreat
	}

	neighbors := NeighborhoodMoves(board, neighborhoodRadius)
	ranked := make([]candidateMove, 0, len(neighbors))
	for _, m := range neighbors {
		if _, ok := urgent[m]; ok {
			continue
		}
		ranked = append(ranked, candidateMove{move: m, score: QuickScore(board, m, side), priority: prioQuiet})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]candidateMove, 0, len(threats)+len(early)+len(ranked))
	for _, list := range [][]Move{threats, early} {
		for _, m := range list {
			out = append(out, candidateMove{
				move:     m,
				score:    QuickScore(board, m, side) + urgentBonus,
				priority: urgent[m],
			})
		}
	}
	out = append(out, ranked...)
	if maxCount > 0 && len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// orderCandidates sorts children for search: urgency first, then the quick
// score from the engine's side, descending when maximizing.
func orderCandidates(board Board, candidates []candidateMove, engineSide Cell, maximizing bool) {
	for i := range candidates {
		candidates[i].score = QuickScore(board, candidates[i].move, engineSide)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if maximizing {
			return a.score > b.score
		}
		return a.score < b.score
	})
}
