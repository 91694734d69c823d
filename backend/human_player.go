package main

// HumanPlayer is a seat fed from outside the engine: the local user through
// the API, or the LAN peer when remote is set.
type HumanPlayer struct {
	remote      bool
	pending     bool
	pendingMove Move
}

func NewHumanPlayer() *HumanPlayer {
	return &HumanPlayer{}
}

func NewRemotePlayer() *HumanPlayer {
	return &HumanPlayer{remote: true}
}

func (h *HumanPlayer) IsHuman() bool {
	return true
}

func (h *HumanPlayer) Type() PlayerType {
	if h.remote {
		return PlayerRemote
	}
	return PlayerHuman
}

func (h *HumanPlayer) SetPendingMove(move Move) {
	h.pendingMove = move
	h.pending = true
}

func (h *HumanPlayer) HasPendingMove() bool {
	return h.pending
}

func (h *HumanPlayer) TakePendingMove() Move {
	h.pending = false
	return h.pendingMove
}
