package main

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

type SearchStats struct {
	Nodes           int64
	TTProbes        int64
	TTHits          int64
	TTStores        int64
	Cutoffs         int64
	Start           time.Time
	DepthDurations  []time.Duration
	CompletedDepths int
	Reason          string
}

type SearchProgress struct {
	Depth   int           `json:"depth"`
	Move    Move          `json:"move"`
	Score   float64       `json:"score"`
	Nodes   int64         `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
}

// SearchEngine is the hard AI: immediate win and block checks, forced
// replies, then iterative deepening alpha-beta within a wall-clock budget.
// It searches on the caller's board in place and always restores it.
type SearchEngine struct {
	side      Cell
	rules     Rules
	config    Config
	zobrist   *ZobristTable
	tt        *TranspositionTable
	eval      *Evaluator
	rng       RandomSource
	progress  func(SearchProgress)
	lastStats SearchStats
}

func NewSearchEngine(side Cell, rules Rules, config Config, rng RandomSource) *SearchEngine {
	if rng == nil {
		rng = NewRandomSource()
	}
	config = config.withDefaults()
	size := rules.settings.BoardSize
	if size <= 0 {
		size = DefaultGameSettings().BoardSize
	}
	return &SearchEngine{
		side:    side,
		rules:   rules,
		config:  config,
		zobrist: NewZobristTable(size, rng.Uint64()),
		tt:      NewTranspositionTable(uint64(config.AiTtSize), config.AiTtBuckets),
		eval:    NewEvaluator(side, rules.WinLength(), config.Heuristics),
		rng:     rng,
	}
}

// SetProgressSink registers fn to receive the best move after every
// completed depth.
func (e *SearchEngine) SetProgressSink(fn func(SearchProgress)) {
	e.progress = fn
}

func (e *SearchEngine) LastStats() SearchStats {
	return e.lastStats
}

func (e *SearchEngine) Side() Cell {
	return e.side
}

func (e *SearchEngine) ChooseMove(ctx context.Context, board *Board) (Move, bool) {
	stats := SearchStats{Start: time.Now()}
	move, ok := e.chooseMove(ctx, board, &stats)
	e.lastStats = stats
	if e.config.AiLogSearchStats {
		logSearchStats("hard", e.side, stats, move, e.tt)
	}
	if ok {
		move.Depth = stats.CompletedDepths
	}
	return move, ok
}

func (e *SearchEngine) chooseMove(ctx context.Context, board *Board, stats *SearchStats) (Move, bool) {
	opp := e.side.Opponent()
	k := e.rules.WinLength()

	if move, ok := findWinningMove(board, e.rules, e.side); ok {
		stats.Reason = "win"
		return move, true
	}
	if move, ok := findWinningMove(board, e.rules, opp); ok {
		stats.Reason = "block"
		return move, true
	}

	threats, early := findUrgentCells(*board, opp, k)
	if len(threats)+len(early) == 1 {
		stats.Reason = "forced"
		return append(threats, early...)[0], true
	}

	var roots []candidateMove
	if len(threats) > 0 {
		// Only answers to the opponent's threats are searched.
		for _, m := range threats {
			roots = append(roots, candidateMove{move: m, priority: prioThreat})
		}
		for _, m := range early {
			roots = append(roots, candidateMove{move: m, priority: prioEarlyThreat})
		}
	} else {
		roots = collectCandidates(*board, e.side, k, e.config.AiMaxCandidatesRoot)
	}
	if len(roots) == 0 {
		stats.Reason = "random"
		return randomEmptyCell(*board, e.rng)
	}
	orderCandidates(*board, roots, e.side, true)
	if len(roots) == 1 {
		stats.Reason = "only"
		return roots[0].move, true
	}

	if e.zobrist.size != board.Size() {
		e.zobrist = NewZobristTable(board.Size(), e.rng.Uint64())
		e.tt.Clear()
	}
	e.tt.NextGeneration()
	run := &searchRun{
		engine:   e,
		ctx:      ctx,
		deadline: stats.Start.Add(time.Duration(e.config.AiTimeBudgetMs) * time.Millisecond),
		board:    board,
		hash:     e.zobrist.Hash(*board),
		stats:    stats,
	}
	if move, ok := run.iterativeDeepening(roots); ok {
		stats.Reason = "search"
		return move, true
	}
	stats.Reason = "fallback"
	return roots[0].move, true
}

type searchRun struct {
	engine   *SearchEngine
	ctx      context.Context
	deadline time.Time
	board    *Board
	hash     uint64
	stats    *SearchStats
}

func (r *searchRun) iterativeDeepening(roots []candidateMove) (Move, bool) {
	var best Move
	bestScore := math.Inf(-1)
	found := false
	for depth := 1; depth <= r.engine.config.AiMaxDepth; depth++ {
		if r.timedOut() {
			break
		}
		depthStart := time.Now()
		move, score, searched, complete := r.searchRoot(roots, depth)
		// A cut-short depth only wins when nothing completed before it.
		if searched && (complete || !found) {
			best = move
			bestScore = score
			found = true
		}
		if !complete {
			break
		}
		r.stats.CompletedDepths = depth
		r.stats.DepthDurations = append(r.stats.DepthDurations, time.Since(depthStart))
		if r.engine.progress != nil {
			r.engine.progress(SearchProgress{
				Depth:   depth,
				Move:    best,
				Score:   bestScore,
				Nodes:   r.stats.Nodes,
				Elapsed: time.Since(r.stats.Start),
			})
		}
		promoteCandidate(roots, best)
		if bestScore >= r.engine.config.Heuristics.Open4 {
			break
		}
	}
	return best, found
}

func (r *searchRun) searchRoot(roots []candidateMove, depth int) (best Move, bestScore float64, searched bool, complete bool) {
	alpha := math.Inf(-1)
	beta := math.Inf(1)
	bestScore = math.Inf(-1)
	for _, cand := range roots {
		if r.timedOut() {
			return best, bestScore, searched, false
		}
		var score float64
		r.simulate(cand.move, r.engine.side, func() {
			score = r.minimax(depth-1, alpha, beta, false)
		})
		if !searched || score > bestScore {
			best = cand.move
			bestScore = score
			searched = true
		}
		alpha = math.Max(alpha, score)
	}
	return best, bestScore, searched, !r.timedOut()
}

func (r *searchRun) minimax(depth int, alpha, beta float64, maximizing bool) float64 {
	e := r.engine
	r.stats.Nodes++

	r.stats.TTProbes++
	entry, hit := e.tt.Probe(r.hash)
	if hit && entry.Depth >= depth {
		r.stats.TTHits++
		switch entry.Flag {
		case TTExact:
			return entry.Score
		case TTLower:
			if entry.Score >= beta {
				return entry.Score
			}
		case TTUpper:
			if entry.Score <= alpha {
				return entry.Score
			}
		}
	}

	if winner := e.rules.CheckWinner(*r.board).Winner; winner != CellEmpty {
		if winner == e.side {
			return e.config.Heuristics.Five
		}
		return -e.config.Heuristics.Five
	}
	if depth == 0 {
		value := e.eval.Evaluate(*r.board)
		e.tt.Store(r.hash, 0, value, TTExact, Move{})
		r.stats.TTStores++
		return value
	}
	if r.timedOut() {
		return e.eval.Evaluate(*r.board)
	}

	mover := e.side
	if !maximizing {
		mover = e.side.Opponent()
	}
	beam := e.config.AiMaxCandidatesMid
	maxCand := beam
	if depth > 1 {
		maxCand = min(e.config.AiMaxCandidates, beam)
	}
	children := r.children(mover, maxCand, maximizing, entry, hit)
	if len(children) == 0 {
		return 0
	}

	alphaOrig, betaOrig := alpha, beta
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	bestMove := children[0].move
	interrupted := false
	for _, child := range children {
		var value float64
		r.simulate(child.move, mover, func() {
			value = r.minimax(depth-1, alpha, beta, !maximizing)
		})
		if maximizing {
			if value > best {
				best = value
				bestMove = child.move
			}
			alpha = math.Max(alpha, value)
		} else {
			if value < best {
				best = value
				bestMove = child.move
			}
			beta = math.Min(beta, value)
		}
		if alpha >= beta {
			r.stats.Cutoffs++
			break
		}
		if r.timedOut() {
			interrupted = true
			break
		}
	}
	if interrupted {
		return best
	}

	flag := TTExact
	if best <= alphaOrig {
		flag = TTUpper
	} else if best >= betaOrig {
		flag = TTLower
	}
	e.tt.Store(r.hash, depth, best, flag, bestMove)
	r.stats.TTStores++
	return best
}

// children generates and orders the replies at an interior node. A best
// move remembered from an earlier search of the same position goes first.
func (r *searchRun) children(mover Cell, maxCand int, maximizing bool, stored TTEntry, hit bool) []candidateMove {
	children := collectCandidates(*r.board, mover, r.engine.rules.WinLength(), maxCand)
	orderCandidates(*r.board, children, r.engine.side, maximizing)
	// Leaf entries carry no move.
	if hit && stored.Depth > 0 {
		promoteCandidate(children, stored.BestMove)
	}
	return children
}

// simulate plays move for cell, runs fn and restores the board and hash
// whatever path fn leaves by.
func (r *searchRun) simulate(move Move, cell Cell, fn func()) {
	token := r.engine.zobrist.stone(move.Row, move.Col, cell)
	r.board.withStone(move, cell, func() {
		r.hash ^= token
		defer func() { r.hash ^= token }()
		fn()
	})
}

func (r *searchRun) timedOut() bool {
	if r.ctx != nil && r.ctx.Err() != nil {
		return true
	}
	return time.Now().After(r.deadline)
}

func promoteCandidate(candidates []candidateMove, move Move) {
	for i := range candidates {
		if !candidates[i].move.Equals(move) {
			continue
		}
		chosen := candidates[i]
		copy(candidates[1:i+1], candidates[:i])
		candidates[0] = chosen
		return
	}
}

func logSearchStats(tag string, side Cell, stats SearchStats, move Move, tt *TranspositionTable) {
	elapsed := time.Since(stats.Start)
	nps := 0.0
	if elapsed > 0 {
		nps = float64(stats.Nodes) / elapsed.Seconds()
	}
	log.Debug().
		Str("component", "ai").
		Str("engine", tag).
		Str("side", side.String()).
		Str("reason", stats.Reason).
		Str("move", move.String()).
		Int("depth", stats.CompletedDepths).
		Int64("nodes", stats.Nodes).
		Int64("tt_probes", stats.TTProbes).
		Int64("tt_hits", stats.TTHits).
		Int64("cutoffs", stats.Cutoffs).
		Int("tt_used", tt.Count()).
		Int("tt_capacity", tt.Capacity()).
		Float64("nps", nps).
		Dur("elapsed", elapsed).
		Msg("search finished")
}
