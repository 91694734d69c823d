package main

type PlayerColor int

type GameStatus int

const (
	PlayerX PlayerColor = iota
	PlayerO
)

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusXWon
	StatusOWon
	StatusDraw
)

type GameState struct {
	Board       Board
	ToMove      PlayerColor
	Status      GameStatus
	HasLastMove bool
	LastMove    Move
	LastMessage string
	Win         WinResult
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	s.Board = NewBoard(settings.BoardSize)
	s.ToMove = PlayerX
	s.Status = StatusNotStarted
	s.HasLastMove = false
	s.LastMove = Move{Row: -1, Col: -1}
	s.LastMessage = ""
	s.Win = WinResult{}
}

func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Clone()
	clone.Win = s.Win.Clone()
	return clone
}

func (s GameState) IsOver() bool {
	return s.Status == StatusXWon || s.Status == StatusOWon || s.Status == StatusDraw
}

func otherPlayer(player PlayerColor) PlayerColor {
	if player == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func statusForWinner(player PlayerColor) GameStatus {
	if player == PlayerX {
		return StatusXWon
	}
	return StatusOWon
}

func (p PlayerColor) String() string {
	if p == PlayerX {
		return "X"
	}
	return "O"
}
