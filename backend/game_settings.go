package main

import (
	"errors"
	"fmt"
)

// Board sizes a client may ask for. Larger boards would let one request
// allocate without bound.
const (
	minBoardSize = 3
	maxBoardSize = 30
)

var ErrInvalidSettings = errors.New("invalid game settings")

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
	PlayerRemote
)

type GameMode string

const (
	ModeLocal  GameMode = "local"
	ModeAIEasy GameMode = "ai_easy"
	ModeAIHard GameMode = "ai_hard"
	ModeLAN    GameMode = "lan"
)

type GameSettings struct {
	BoardSize       int         `json:"board_size"`
	WinLength       int         `json:"win_length"`
	AllowBlockedWin bool        `json:"allow_blocked_win"`
	Mode            GameMode    `json:"mode"`
	LocalSide       PlayerColor `json:"local_side"`
	XName           string      `json:"x_name"`
	OName           string      `json:"o_name"`
	XType           PlayerType  `json:"-"`
	OType           PlayerType  `json:"-"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		BoardSize:       15,
		WinLength:       5,
		AllowBlockedWin: false,
		Mode:            ModeAIHard,
		LocalSide:       PlayerX,
		XName:           "Player",
		OName:           "AI",
		XType:           PlayerHuman,
		OType:           PlayerAI,
	}
}

// WithMode returns a copy whose player types follow mode. In AI modes the
// human is X; in LAN mode LocalSide is the human and the other side remote.
func (s GameSettings) WithMode(mode GameMode) GameSettings {
	s.Mode = mode
	switch mode {
	case ModeLocal:
		s.XType = PlayerHuman
		s.OType = PlayerHuman
	case ModeLAN:
		if s.LocalSide == PlayerO {
			s.XType = PlayerRemote
			s.OType = PlayerHuman
		} else {
			s.XType = PlayerHuman
			s.OType = PlayerRemote
		}
	default:
		s.XType = PlayerHuman
		s.OType = PlayerAI
		s.LocalSide = PlayerX
	}
	return s
}

// Validate rejects a board size outside minBoardSize..maxBoardSize. Zero and
// negative sizes are left for Normalized to default.
func (s GameSettings) Validate() error {
	if s.BoardSize > maxBoardSize || (s.BoardSize > 0 && s.BoardSize < minBoardSize) {
		return fmt.Errorf("%w: board size %d outside %d..%d", ErrInvalidSettings, s.BoardSize, minBoardSize, maxBoardSize)
	}
	return nil
}

func (s GameSettings) Normalized() GameSettings {
	defaults := DefaultGameSettings()
	if s.BoardSize <= 0 {
		s.BoardSize = defaults.BoardSize
	}
	s.BoardSize = min(max(s.BoardSize, minBoardSize), maxBoardSize)
	if s.WinLength <= 0 {
		s.WinLength = defaults.WinLength
	}
	if s.WinLength > s.BoardSize {
		s.WinLength = s.BoardSize
	}
	if s.Mode == "" {
		s.Mode = defaults.Mode
	}
	if s.XName == "" {
		s.XName = defaults.XName
	}
	if s.OName == "" {
		s.OName = defaults.OName
	}
	return s.WithMode(s.Mode)
}

func (m GameMode) IsAI() bool {
	return m == ModeAIEasy || m == ModeAIHard
}

// Label is the human readable mode name stored with leaderboard entries.
func (m GameMode) Label() string {
	switch m {
	case ModeLocal:
		return "2 Players"
	case ModeAIEasy:
		return "AI Easy"
	case ModeAIHard:
		return "AI Hard"
	case ModeLAN:
		return "LAN"
	default:
		return string(m)
	}
}

func (s GameSettings) NameFor(player PlayerColor) string {
	if player == PlayerX {
		return s.XName
	}
	return s.OName
}

func (s GameSettings) TypeFor(player PlayerColor) PlayerType {
	if player == PlayerX {
		return s.XType
	}
	return s.OType
}
