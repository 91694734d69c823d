package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	lanQueueSize    = 64
	lanReadBuffer   = 4096
	lanWriteTimeout = 5 * time.Second
	lanDialTimeout  = 5 * time.Second
)

var (
	errPeerClosed   = errors.New("lan peer closed")
	errRemoteClosed = errors.New("lan remote closed the connection")
)

// DisconnectReason classifies how a LAN link ended.
type DisconnectReason string

const (
	DisconnectNone    DisconnectReason = ""
	DisconnectLocal   DisconnectReason = "local"
	DisconnectRemote  DisconnectReason = "remote_left"
	DisconnectDropped DisconnectReason = "dropped"
)

// LanPeer is one end of a two-player TCP link.
type LanPeer struct {
	conn       net.Conn
	isHost     bool
	outgoing   chan string
	incoming   chan LanMessage
	closing    chan struct{}
	closeOnce  sync.Once
	done       chan struct{}
	err        error
	remoteLeft atomic.Bool
}

func newLanPeer(conn net.Conn, isHost bool, name string) *LanPeer {
	p := &LanPeer{
		conn:     conn,
		isHost:   isHost,
		outgoing: make(chan string, lanQueueSize),
		incoming: make(chan LanMessage, lanQueueSize),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	if name != "" {
		p.outgoing <- lanTextMessage(LanName, name).Encode()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		<-ctx.Done()
		return p.conn.Close()
	})
	g.Go(func() error {
		return p.readLoop(ctx)
	})
	g.Go(func() error {
		return p.writeLoop(ctx)
	})
	go func() {
		p.err = g.Wait()
		close(p.incoming)
		close(p.done)
		log.Info().
			Str("component", "lan").
			Bool("host", p.isHost).
			Str("reason", string(p.Reason())).
			Msg("peer disconnected")
	}()
	log.Info().
		Str("component", "lan").
		Bool("host", isHost).
		Str("remote", conn.RemoteAddr().String()).
		Msg("peer connected")
	return p
}

// DialLan joins a host. name is announced to the host on connect.
func DialLan(ctx context.Context, addr string, name string) (*LanPeer, error) {
	dialer := net.Dialer{Timeout: lanDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("lan dial %s: %w", addr, err)
	}
	return newLanPeer(conn, false, name), nil
}

// LanHost listens for exactly one guest.
type LanHost struct {
	listener net.Listener
}

func ListenLan(ctx context.Context, addr string) (*LanHost, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("lan listen %s: %w", addr, err)
	}
	return &LanHost{listener: listener}, nil
}

func (h *LanHost) Addr() net.Addr {
	return h.listener.Addr()
}

// Accept waits for the guest and stops listening afterwards.
func (h *LanHost) Accept(ctx context.Context, name string) (*LanPeer, error) {
	stop := context.AfterFunc(ctx, func() {
		h.listener.Close()
	})
	defer stop()
	conn, err := h.listener.Accept()
	h.listener.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("lan accept: %w", err)
	}
	return newLanPeer(conn, true, name), nil
}

func (h *LanHost) Close() error {
	return h.listener.Close()
}

func (p *LanPeer) readLoop(ctx context.Context) error {
	var decoder FrameDecoder
	buf := make([]byte, lanReadBuffer)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			frames, ferr := decoder.Feed(buf[:n])
			for _, frame := range frames {
				msg, perr := ParseLanMessage(frame)
				if perr != nil {
					log.Warn().Err(perr).Str("component", "lan").Msg("dropping frame")
					continue
				}
				if msg.Type == LanLeft || msg.Type == LanOpponentQuit {
					p.remoteLeft.Store(true)
				}
				select {
				case p.incoming <- msg:
				case <-ctx.Done():
					return nil
				}
			}
			if ferr != nil {
				return fmt.Errorf("lan read: %w", ferr)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errRemoteClosed
			}
			return fmt.Errorf("lan read: %w", err)
		}
	}
}

func (p *LanPeer) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-p.outgoing:
			if err := p.write(frame); err != nil {
				return err
			}
		case <-p.closing:
			for {
				select {
				case frame := <-p.outgoing:
					if err := p.write(frame); err != nil {
						return err
					}
				default:
					return errPeerClosed
				}
			}
		}
	}
}

func (p *LanPeer) write(frame string) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(lanWriteTimeout)); err != nil {
		return err
	}
	if _, err := io.WriteString(p.conn, frame); err != nil {
		return fmt.Errorf("lan write: %w", err)
	}
	return nil
}

// Send queues msg without blocking. It reports false when the queue is full
// or the link is down.
func (p *LanPeer) Send(msg LanMessage) bool {
	select {
	case <-p.closing:
		return false
	case <-p.done:
		return false
	default:
	}
	select {
	case p.outgoing <- msg.Encode():
		return true
	default:
		log.Warn().Str("component", "lan").Str("type", string(msg.Type)).Msg("send queue full")
		return false
	}
}

// Close flushes queued frames, optionally ending with farewell, then drops
// the connection and waits for the loops to exit.
func (p *LanPeer) Close(farewell *LanMessage) {
	p.closeOnce.Do(func() {
		if farewell != nil {
			select {
			case p.outgoing <- farewell.Encode():
			default:
			}
		}
		close(p.closing)
	})
	<-p.done
}

func (p *LanPeer) Incoming() <-chan LanMessage {
	return p.incoming
}

func (p *LanPeer) Done() <-chan struct{} {
	return p.done
}

func (p *LanPeer) IsHost() bool {
	return p.isHost
}

func (p *LanPeer) Connected() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Reason is only meaningful once Done is closed.
func (p *LanPeer) Reason() DisconnectReason {
	select {
	case <-p.done:
	default:
		return DisconnectNone
	}
	switch {
	case p.remoteLeft.Load():
		return DisconnectRemote
	case errors.Is(p.err, errPeerClosed):
		return DisconnectLocal
	default:
		return DisconnectDropped
	}
}

// LocalLANAddress guesses the address a guest on the same network should dial.
func LocalLANAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	candidates := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				candidates = append(candidates, ip4.String())
			}
		}
	}
	return pickLANAddress(candidates)
}

// pickLANAddress prefers private ranges: 192.168/16, then 10/8, then
// 172.16/12. Loopback is the last resort.
func pickLANAddress(candidates []string) string {
	var private, public []netip.Addr
	for _, raw := range candidates {
		addr, err := netip.ParseAddr(raw)
		if err != nil || !addr.Is4() || addr.IsLoopback() || addr.IsUnspecified() {
			continue
		}
		if addr.IsPrivate() {
			private = append(private, addr)
		} else {
			public = append(public, addr)
		}
	}
	if len(private) > 0 {
		sort.SliceStable(private, func(i, j int) bool {
			return privateRangeRank(private[i]) > privateRangeRank(private[j])
		})
		return private[0].String()
	}
	if len(public) > 0 {
		return public[0].String()
	}
	return "127.0.0.1"
}

func privateRangeRank(addr netip.Addr) int {
	text := addr.String()
	switch {
	case strings.HasPrefix(text, "192.168."):
		return 3
	case strings.HasPrefix(text, "10."):
		return 2
	case netip.MustParsePrefix("172.16.0.0/12").Contains(addr):
		return 1
	default:
		return 0
	}
}
