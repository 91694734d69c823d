package main

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func nextLanMessage(t *testing.T, peer *LanPeer) LanMessage {
	t.Helper()
	select {
	case msg, ok := <-peer.Incoming():
		if !ok {
			t.Fatalf("expected a message, channel closed")
		}
		return msg
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for a message")
	}
	return LanMessage{}
}

func waitPeerDone(t *testing.T, peer *LanPeer) {
	t.Helper()
	select {
	case <-peer.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for the peer to stop")
	}
}

func TestLanPeerExchangeAndFarewell(t *testing.T) {
	hostConn, guestConn := net.Pipe()
	host := newLanPeer(hostConn, true, "Hana")
	guest := newLanPeer(guestConn, false, "Gus")

	if msg := nextLanMessage(t, guest); msg.Type != LanName || msg.Text != "Hana" {
		t.Fatalf("expected host name first, got %+v", msg)
	}
	if msg := nextLanMessage(t, host); msg.Type != LanName || msg.Text != "Gus" {
		t.Fatalf("expected guest name first, got %+v", msg)
	}

	if !host.Send(lanMoveMessage(NewMove(4, 9))) {
		t.Fatalf("expected move to be queued")
	}
	if msg := nextLanMessage(t, guest); msg.Type != LanMove || !msg.Move.Equals(NewMove(4, 9)) {
		t.Fatalf("expected move (4,9), got %+v", msg)
	}

	farewell := lanTextMessage(LanLeft, "Hana")
	host.Close(&farewell)
	if msg := nextLanMessage(t, guest); msg.Type != LanLeft {
		t.Fatalf("expected farewell before close, got %+v", msg)
	}
	waitPeerDone(t, guest)

	if host.Connected() || guest.Connected() {
		t.Fatalf("expected both ends disconnected")
	}
	if host.Reason() != DisconnectLocal {
		t.Fatalf("expected local reason on host, got %q", host.Reason())
	}
	if guest.Reason() != DisconnectRemote {
		t.Fatalf("expected remote_left on guest, got %q", guest.Reason())
	}
	if host.Send(lanSignal(LanOfferDraw)) {
		t.Fatalf("expected send after close to fail")
	}
}

func TestLanPeerDroppedConnection(t *testing.T) {
	a, b := net.Pipe()
	left := newLanPeer(a, true, "")
	right := newLanPeer(b, false, "")
	if right.Reason() != DisconnectNone {
		t.Fatalf("expected no reason while connected")
	}
	left.Close(nil)
	waitPeerDone(t, right)
	if right.Reason() != DisconnectDropped {
		t.Fatalf("expected dropped reason, got %q", right.Reason())
	}
}

func TestLanPeerDropsOversizedFrame(t *testing.T) {
	local, remote := net.Pipe()
	peer := newLanPeer(local, true, "Hana")
	go io.Copy(io.Discard, remote)
	go func() {
		_, _ = remote.Write([]byte(strings.Repeat("x", 2*lanMaxFrame)))
		remote.Close()
	}()
	waitPeerDone(t, peer)
	if peer.Reason() != DisconnectDropped {
		t.Fatalf("expected the link to drop, got %q", peer.Reason())
	}
}

func TestLanHostAcceptsOverTCP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host, err := ListenLan(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	accepted := make(chan *LanPeer, 1)
	go func() {
		peer, err := host.Accept(ctx, "Host")
		if err != nil {
			t.Errorf("accept: %v", err)
		}
		accepted <- peer
	}()

	guest, err := DialLan(ctx, host.Addr().String(), "Guest")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer guest.Close(nil)
	hostPeer := <-accepted
	if hostPeer == nil {
		t.Fatalf("expected an accepted peer")
	}
	defer hostPeer.Close(nil)

	if !hostPeer.IsHost() || guest.IsHost() {
		t.Fatalf("expected host flag only on the accepting side")
	}
	if msg := nextLanMessage(t, hostPeer); msg.Text != "Guest" {
		t.Fatalf("expected guest name, got %+v", msg)
	}
	if msg := nextLanMessage(t, guest); msg.Text != "Host" {
		t.Fatalf("expected host name, got %+v", msg)
	}
}

func TestLanHostAcceptHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	host, err := ListenLan(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cancel()
	if _, err := host.Accept(ctx, "Host"); err == nil {
		t.Fatalf("expected accept to stop when the context ends")
	}
}

func TestPickLANAddress(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"127.0.0.1", "172.20.1.2", "10.0.0.5", "192.168.1.9"}, "192.168.1.9"},
		{[]string{"8.8.8.8", "172.17.0.1", "10.1.1.1"}, "10.1.1.1"},
		{[]string{"8.8.4.4", "172.17.0.1"}, "172.17.0.1"},
		{[]string{"8.8.8.8", "fe80::1"}, "8.8.8.8"},
		{[]string{"127.0.0.1"}, "127.0.0.1"},
		{nil, "127.0.0.1"},
	}
	for _, tc := range cases {
		if got := pickLANAddress(tc.in); got != tc.want {
			t.Fatalf("expected %s for %v, got %s", tc.want, tc.in, got)
		}
	}
}
