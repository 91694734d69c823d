package main

import "context"

type IPlayer interface {
	IsHuman() bool
	Type() PlayerType
}

// MoveChooser is implemented by both AI tiers. ChooseMove may mutate board
// while it runs but must leave it unchanged on return.
type MoveChooser interface {
	ChooseMove(ctx context.Context, board *Board) (Move, bool)
}
