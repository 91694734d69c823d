package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AIPlayer runs a MoveChooser on a board copy in a background goroutine so
// the tick loop never blocks on a search.
type AIPlayer struct {
	chooser    MoveChooser
	level      GameMode
	moveMutex  sync.Mutex
	workerDone chan struct{}
	cancel     context.CancelFunc
	thinking   atomic.Bool
	moveReady  atomic.Bool
	readyMove  Move
	readyOK    bool
	readyFor   int
	elapsed    time.Duration
}

func NewAIPlayer(chooser MoveChooser, level GameMode) *AIPlayer {
	return &AIPlayer{chooser: chooser, level: level}
}

// newAIForMode builds the engine for an AI seat. Hard mode gets the search
// engine, everything else the heuristic mover.
func newAIForMode(mode GameMode, side Cell, rules Rules, config Config, rng RandomSource, progress func(SearchProgress)) *AIPlayer {
	if mode == ModeAIHard {
		engine := NewSearchEngine(side, rules, config, rng)
		if progress != nil && config.AiReportProgress {
			engine.SetProgressSink(progress)
		}
		return NewAIPlayer(engine, mode)
	}
	return NewAIPlayer(NewHeuristicMover(side, rules, config, rng), ModeAIEasy)
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) Type() PlayerType {
	return PlayerAI
}

func (a *AIPlayer) Level() GameMode {
	return a.level
}

// ChooseMove runs the engine synchronously.
func (a *AIPlayer) ChooseMove(ctx context.Context, board *Board) (Move, bool) {
	return a.chooser.ChooseMove(ctx, board)
}

// StartThinking searches a copy of board. version tags the result so a
// caller can drop answers to positions that changed in the meantime.
func (a *AIPlayer) StartThinking(board Board, version int) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)

	boardCopy := board.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.workerDone = done
	a.cancel = cancel
	go func() {
		defer close(done)
		defer cancel()
		start := time.Now()
		move, ok := a.chooser.ChooseMove(ctx, &boardCopy)
		if ctx.Err() != nil {
			a.thinking.Store(false)
			return
		}
		a.moveMutex.Lock()
		a.readyMove = move
		a.readyOK = ok
		a.readyFor = version
		a.elapsed = time.Since(start)
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
		a.thinking.Store(false)
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

// TakeMove hands over the last result with the version it was computed for.
func (a *AIPlayer) TakeMove() (Move, bool, int, time.Duration) {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	return a.readyMove, a.readyOK, a.readyFor, a.elapsed
}

// StopThinking cancels a running search and waits for its goroutine.
func (a *AIPlayer) StopThinking() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.workerDone != nil {
		<-a.workerDone
		a.workerDone = nil
	}
	a.thinking.Store(false)
	a.moveReady.Store(false)
}
