package main

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

// blockingChooser waits for cancellation before answering.
type blockingChooser struct {
	started chan struct{}
}

func (b *blockingChooser) ChooseMove(ctx context.Context, board *Board) (Move, bool) {
	close(b.started)
	<-ctx.Done()
	return board.Center(), true
}

func waitReady(t *testing.T, ai *AIPlayer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !ai.HasMoveReady() {
		if time.Now().After(deadline) {
			t.Fatalf("expected a move within the deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestAIPlayerThinksOnACopy(t *testing.T) {
	rules := rulesFor(9, 5, false)
	ai := NewAIPlayer(NewHeuristicMover(CellO, rules, DefaultConfig(), rand.New(rand.NewSource(3))), ModeAIEasy)
	board := emptyBoard(9)
	board.Set(4, 4, CellX)
	before := board.Clone()

	ai.StartThinking(board, 11)
	waitReady(t, ai)
	move, ok, version, _ := ai.TakeMove()
	if !ok || version != 11 {
		t.Fatalf("expected a move tagged with version 11, got ok=%t version=%d", ok, version)
	}
	if !board.IsEmpty(move.Row, move.Col) {
		t.Fatalf("expected an empty cell, got %s", move)
	}
	if !board.Equal(before) {
		t.Fatalf("expected caller board untouched")
	}
	if ai.HasMoveReady() || ai.IsThinking() {
		t.Fatalf("expected player idle after taking the move")
	}
}

func TestAIPlayerStopThinkingDiscardsResult(t *testing.T) {
	chooser := &blockingChooser{started: make(chan struct{})}
	ai := NewAIPlayer(chooser, ModeAIHard)
	ai.StartThinking(emptyBoard(9), 1)
	<-chooser.started
	if !ai.IsThinking() {
		t.Fatalf("expected player to be thinking")
	}
	ai.StopThinking()
	if ai.IsThinking() || ai.HasMoveReady() {
		t.Fatalf("expected cancelled search to leave no result")
	}
}

func TestNewAIForModePicksEngine(t *testing.T) {
	rules := rulesFor(9, 5, false)
	hard := newAIForMode(ModeAIHard, CellO, rules, DefaultConfig(), nil, nil)
	if _, ok := hard.chooser.(*SearchEngine); !ok || hard.Level() != ModeAIHard {
		t.Fatalf("expected the search engine for hard mode")
	}
	easy := newAIForMode(ModeAIEasy, CellO, rules, DefaultConfig(), nil, nil)
	if _, ok := easy.chooser.(*HeuristicMover); !ok || easy.Level() != ModeAIEasy {
		t.Fatalf("expected the heuristic mover for easy mode")
	}
}
