package main

type RunTotals struct {
	Five    int
	Open4   int
	Closed4 int
	Open3   int
	Closed3 int
	Open2   int
	Closed2 int
	Single  int
	Longest int
}

// Evaluator scores a position for one side. It keeps a scratch run buffer so
// it must not be shared between goroutines.
type Evaluator struct {
	side      Cell
	winLength int
	weights   HeuristicConfig
	scratch   []Run
}

func NewEvaluator(side Cell, winLength int, weights HeuristicConfig) *Evaluator {
	return &Evaluator{side: side, winLength: winLength, weights: weights}
}

// Evaluate returns own score minus a defensive factor times the opponent's
// score. Positive favors the evaluator's side.
func (e *Evaluator) Evaluate(board Board) float64 {
	own := e.totals(board, e.side)
	opp := e.totals(board, e.side.Opponent())
	return e.weigh(own) - e.defensiveFactor(opp.Longest)*e.weigh(opp)
}

func EvaluateBoard(board Board, side Cell, winLength int, weights HeuristicConfig) float64 {
	return NewEvaluator(side, winLength, weights).Evaluate(board)
}

func (e *Evaluator) totals(board Board, player Cell) RunTotals {
	e.scratch = appendRuns(e.scratch[:0], board, player)
	return tallyRuns(e.scratch, e.winLength)
}

func tallyRuns(runs []Run, winLength int) RunTotals {
	totals := RunTotals{Longest: longestRun(runs)}
	for _, run := range runs {
		open := run.Openness() == 2
		switch gap := winLength - run.Length; {
		case gap <= 0:
			totals.Five++
		case run.Length == 1:
			totals.Single++
		case gap == 1:
			if open {
				totals.Open4++
			} else {
				totals.Closed4++
			}
		case gap == 2:
			if open {
				totals.Open3++
			} else {
				totals.Closed3++
			}
		case gap == 3:
			if open {
				totals.Open2++
			} else {
				totals.Closed2++
			}
		}
	}
	return totals
}

func (e *Evaluator) weigh(t RunTotals) float64 {
	w := e.weights
	return float64(t.Five)*w.Five +
		float64(t.Open4)*w.Open4 +
		float64(t.Closed4)*w.Closed4 +
		float64(t.Open3)*w.Open3 +
		float64(t.Closed3)*w.Closed3 +
		float64(t.Open2)*w.Open2 +
		float64(t.Closed2)*w.Closed2 +
		float64(t.Single)*w.Single
}

// defensiveFactor grows as the opponent's longest run nears a win.
func (e *Evaluator) defensiveFactor(longest int) float64 {
	switch {
	case longest >= e.winLength-1:
		return 2.5
	case longest == e.winLength-2:
		return 2.0
	default:
		return 1.5
	}
}
