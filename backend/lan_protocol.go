package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	lanFrameSeparator = "|"
	lanMaxFrame       = 4096
	lanMaxText        = 1024
)

var ErrFrameTooLong = errors.New("lan frame too long")

type LanMessageType string

const (
	LanMove          LanMessageType = "move"
	LanChat          LanMessageType = "chat"
	LanName          LanMessageType = "name"
	LanLeft          LanMessageType = "left"
	LanOpponentQuit  LanMessageType = "opponent_quit"
	LanReqRematch    LanMessageType = "REQ_REMATCH"
	LanAcceptRematch LanMessageType = "ACCEPT_REMATCH"
	LanDenyRematch   LanMessageType = "DENY_REMATCH"
	LanOfferDraw     LanMessageType = "OFFER_DRAW"
	LanAcceptDraw    LanMessageType = "ACCEPT_DRAW"
	LanDenyDraw      LanMessageType = "DENY_DRAW"
	LanRestart       LanMessageType = "restart"
	LanUnknown       LanMessageType = "unknown"
)

type LanMessage struct {
	Type LanMessageType `json:"type"`
	Move Move           `json:"move,omitempty"`
	Text string         `json:"text,omitempty"`
	Raw  string         `json:"-"`
}

func lanMoveMessage(move Move) LanMessage {
	return LanMessage{Type: LanMove, Move: Move{Row: move.Row, Col: move.Col}}
}

// lanTextMessage cuts text to lanMaxText bytes on a rune boundary so an
// encoded frame always fits the peer's decoder.
func lanTextMessage(kind LanMessageType, text string) LanMessage {
	if len(text) > lanMaxText {
		cut := lanMaxText
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return LanMessage{Type: kind, Text: text}
}

func lanSignal(kind LanMessageType) LanMessage {
	return LanMessage{Type: kind}
}

func stripSeparator(text string) string {
	return strings.ReplaceAll(text, lanFrameSeparator, "")
}

// Encode renders the message as one wire frame including the separator.
func (m LanMessage) Encode() string {
	var body string
	switch m.Type {
	case LanMove:
		body = fmt.Sprintf("move:%d,%d", m.Move.Row, m.Move.Col)
	case LanChat, LanName, LanLeft, LanOpponentQuit:
		body = string(m.Type) + ":" + stripSeparator(m.Text)
	case LanUnknown:
		body = stripSeparator(m.Raw)
	default:
		body = string(m.Type)
	}
	return body + lanFrameSeparator
}

// ParseLanMessage decodes one frame body (without separator).
func ParseLanMessage(frame string) (LanMessage, error) {
	tag, payload, hasPayload := strings.Cut(frame, ":")
	switch LanMessageType(tag) {
	case LanMove:
		rowText, colText, ok := strings.Cut(payload, ",")
		if !ok {
			return LanMessage{}, fmt.Errorf("malformed move frame %q", frame)
		}
		row, err := strconv.Atoi(strings.TrimSpace(rowText))
		if err != nil {
			return LanMessage{}, fmt.Errorf("malformed move row %q: %w", frame, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(colText))
		if err != nil {
			return LanMessage{}, fmt.Errorf("malformed move col %q: %w", frame, err)
		}
		return LanMessage{Type: LanMove, Move: Move{Row: row, Col: col}, Raw: frame}, nil
	case LanChat, LanName, LanLeft:
		return LanMessage{Type: LanMessageType(tag), Text: payload, Raw: frame}, nil
	case LanOpponentQuit:
		return LanMessage{Type: LanOpponentQuit, Text: payload, Raw: frame}, nil
	case LanReqRematch, LanAcceptRematch, LanDenyRematch,
		LanOfferDraw, LanAcceptDraw, LanDenyDraw, LanRestart:
		if hasPayload {
			break
		}
		return LanMessage{Type: LanMessageType(tag), Raw: frame}, nil
	}
	return LanMessage{Type: LanUnknown, Raw: frame}, nil
}

// FrameDecoder accumulates partial reads and yields complete frames.
type FrameDecoder struct {
	buffer strings.Builder
}

// Feed returns the frames completed by chunk. Once a frame grows past
// lanMaxFrame it returns ErrFrameTooLong and the connection should be
// dropped; the frames completed before it are still returned.
func (d *FrameDecoder) Feed(chunk []byte) ([]string, error) {
	d.buffer.Write(chunk)
	data := d.buffer.String()
	var frames []string
	for {
		frame, rest, found := strings.Cut(data, lanFrameSeparator)
		if !found {
			break
		}
		if len(frame) > lanMaxFrame {
			d.buffer.Reset()
			return frames, ErrFrameTooLong
		}
		if frame != "" {
			frames = append(frames, frame)
		}
		data = rest
	}
	d.buffer.Reset()
	if len(data) > lanMaxFrame {
		return frames, ErrFrameTooLong
	}
	d.buffer.WriteString(data)
	return frames, nil
}

// Pending returns the bytes received after the last separator.
func (d *FrameDecoder) Pending() string {
	return d.buffer.String()
}
