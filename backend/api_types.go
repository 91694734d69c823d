package main

import "encoding/json"

type StatusResponse struct {
	Settings        GameSettings      `json:"settings"`
	Config          Config            `json:"config"`
	ModeLabel       string            `json:"mode_label"`
	Board           [][]int           `json:"board"`
	BoardSize       int               `json:"board_size"`
	WinLength       int               `json:"win_length"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	Message         string            `json:"message,omitempty"`
	WinningLine     []Move            `json:"winning_line"`
	Scores          Scores            `json:"scores"`
	History         []historyEntryDTO `json:"history"`
	AiThinking      bool              `json:"ai_thinking"`
	CanUndo         bool              `json:"can_undo"`
	Lan             LanStatus         `json:"lan"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type historyEntryDTO struct {
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Depth     int     `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	History         []historyEntryDTO `json:"history"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	BoardSize       int               `json:"board_size"`
	Scores          Scores            `json:"scores"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type settingsPayload struct {
	Settings GameSettings `json:"settings"`
	Config   Config       `json:"config"`
}

type chatPayload struct {
	From string `json:"from"`
	Text string `json:"text"`
	Self bool   `json:"self"`
}

type lanEventPayload struct {
	Event  string `json:"event"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// LanStatus is the LAN part of the status response.
type LanStatus struct {
	State           string `json:"state"`
	Host            bool   `json:"host"`
	Address         string `json:"address,omitempty"`
	Port            int    `json:"port,omitempty"`
	OpponentName    string `json:"opponent_name,omitempty"`
	RematchSent     bool   `json:"rematch_sent"`
	RematchIncoming bool   `json:"rematch_incoming"`
	DrawSent        bool   `json:"draw_sent"`
	DrawIncoming    bool   `json:"draw_incoming"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

type apiMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func boardToSlice(board Board) [][]int {
	size := board.Size()
	rows := make([][]int, size)
	for r := 0; r < size; r++ {
		rows[r] = make([]int, size)
		for c := 0; c < size; c++ {
			rows[r][c] = cellToInt(board.At(r, c))
		}
	}
	return rows
}

func cellToInt(cell Cell) int {
	switch cell {
	case CellX:
		return 1
	case CellO:
		return 2
	default:
		return 0
	}
}

func playerToInt(player PlayerColor) int {
	if player == PlayerX {
		return 1
	}
	return 2
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusXWon:
		return 1
	case StatusOWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusXWon:
		return "x_won"
	case StatusOWon:
		return "o_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		Row:       entry.Move.Row,
		Col:       entry.Move.Col,
		Player:    playerToInt(entry.Player),
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Depth:     entry.Depth,
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
