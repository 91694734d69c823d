package main

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLanMessageEncode(t *testing.T) {
	cases := []struct {
		msg  LanMessage
		want string
	}{
		{lanMoveMessage(NewMove(3, 14)), "move:3,14|"},
		{lanTextMessage(LanChat, "gg | wp"), "chat:gg  wp|"},
		{lanTextMessage(LanName, "Ana"), "name:Ana|"},
		{lanTextMessage(LanOpponentQuit, "Ana"), "opponent_quit:Ana|"},
		{lanSignal(LanReqRematch), "REQ_REMATCH|"},
		{lanSignal(LanAcceptDraw), "ACCEPT_DRAW|"},
	}
	for _, tc := range cases {
		if got := tc.msg.Encode(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestParseLanMessage(t *testing.T) {
	msg, err := ParseLanMessage("move:7, 8")
	if err != nil || msg.Type != LanMove || !msg.Move.Equals(NewMove(7, 8)) {
		t.Fatalf("expected move (7,8), got %+v %v", msg, err)
	}
	msg, err = ParseLanMessage("chat:see you: later")
	if err != nil || msg.Type != LanChat || msg.Text != "see you: later" {
		t.Fatalf("expected chat text with colon kept, got %+v %v", msg, err)
	}
	msg, _ = ParseLanMessage("left:Bo")
	if msg.Type != LanLeft || msg.Text != "Bo" {
		t.Fatalf("expected left frame, got %+v", msg)
	}
	msg, _ = ParseLanMessage("DENY_REMATCH")
	if msg.Type != LanDenyRematch {
		t.Fatalf("expected deny rematch, got %+v", msg)
	}
}

func TestParseLanMessageRejectsBadInput(t *testing.T) {
	for _, frame := range []string{"move:7", "move:a,1", "move:1,b"} {
		if _, err := ParseLanMessage(frame); err == nil {
			t.Fatalf("expected error for %q", frame)
		}
	}
	for _, frame := range []string{"hello", "OFFER_DRAW:now", "restart:1"} {
		msg, err := ParseLanMessage(frame)
		if err != nil || msg.Type != LanUnknown || msg.Raw != frame {
			t.Fatalf("expected unknown for %q, got %+v %v", frame, msg, err)
		}
	}
}

func TestLanMessageRoundTripThroughDecoder(t *testing.T) {
	var decoder FrameDecoder
	wire := lanMoveMessage(NewMove(1, 2)).Encode() + lanSignal(LanOfferDraw).Encode()
	frames, err := decoder.Feed([]byte(wire))
	if err != nil || len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %v", frames)
	}
	first, _ := ParseLanMessage(frames[0])
	second, _ := ParseLanMessage(frames[1])
	if first.Type != LanMove || second.Type != LanOfferDraw {
		t.Fatalf("unexpected decode %+v %+v", first, second)
	}
}

func TestFrameDecoderHandlesSplitReads(t *testing.T) {
	var decoder FrameDecoder
	if frames, _ := decoder.Feed([]byte("move:1,")); len(frames) != 0 {
		t.Fatalf("expected no frames yet, got %v", frames)
	}
	frames, _ := decoder.Feed([]byte("2|chat:hi||name:"))
	if len(frames) != 2 || frames[0] != "move:1,2" || frames[1] != "chat:hi" {
		t.Fatalf("unexpected frames %v", frames)
	}
	if decoder.Pending() != "name:" {
		t.Fatalf("expected pending %q, got %q", "name:", decoder.Pending())
	}
	frames, _ = decoder.Feed([]byte("Eve|"))
	if len(frames) != 1 || frames[0] != "name:Eve" {
		t.Fatalf("expected buffered frame to complete, got %v", frames)
	}
}

func TestFrameDecoderRejectsOversizedFrames(t *testing.T) {
	var decoder FrameDecoder
	frames, err := decoder.Feed([]byte("chat:ok|" + strings.Repeat("a", lanMaxFrame+1)))
	if !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("expected ErrFrameTooLong for an unterminated frame, got %v", err)
	}
	if len(frames) != 1 || frames[0] != "chat:ok" {
		t.Fatalf("expected the complete frame before it, got %v", frames)
	}
	if decoder.Pending() != "" {
		t.Fatalf("expected the oversized data to be discarded")
	}

	var again FrameDecoder
	if _, err := again.Feed([]byte(strings.Repeat("b", lanMaxFrame+1) + "|")); !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("expected ErrFrameTooLong for a terminated frame, got %v", err)
	}
	if frames, err := again.Feed([]byte(strings.Repeat("c", lanMaxFrame) + "|")); err != nil || len(frames) != 1 {
		t.Fatalf("expected a frame at the limit to pass, got %d frames %v", len(frames), err)
	}
}

func TestLanTextMessageFitsOneFrame(t *testing.T) {
	msg := lanTextMessage(LanChat, strings.Repeat("é", lanMaxText))
	if len(msg.Text) > lanMaxText || !utf8.ValidString(msg.Text) {
		t.Fatalf("expected text cut on a rune boundary under %d bytes, got %d", lanMaxText, len(msg.Text))
	}
	var decoder FrameDecoder
	if frames, err := decoder.Feed([]byte(msg.Encode())); err != nil || len(frames) != 1 {
		t.Fatalf("expected the encoded message to decode, got %v", err)
	}
}
