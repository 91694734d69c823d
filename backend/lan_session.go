package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const lanOfferTimeout = 10 * time.Second

var (
	ErrLanActive         = errors.New("leave the LAN session first")
	ErrLanBusy           = errors.New("a LAN session is already open")
	ErrLanNotConnected   = errors.New("no LAN opponent connected")
	ErrLanCooldown       = errors.New("LAN play is on cooldown")
	ErrNoPendingOffer    = errors.New("no pending offer")
	ErrOfferNotAllowed   = errors.New("offer not allowed right now")
	ErrUnknownLanCommand = errors.New("unknown LAN command")
)

type lanSession struct {
	host      *LanHost
	peer      *LanPeer
	cancel    context.CancelFunc
	playsX    bool
	started   bool
	localName string
	opponent  string
	address   string
	port      int

	rematchSent     bool
	rematchIncoming bool
	rematchDeadline time.Time
	drawSent        bool
	drawIncoming    bool
	drawDeadline    time.Time
}

func (s *lanSession) localSide() PlayerColor {
	if s.playsX {
		return PlayerX
	}
	return PlayerO
}

func (s *lanSession) clearOffers() {
	s.rematchSent = false
	s.rematchIncoming = false
	s.drawSent = false
	s.drawIncoming = false
}

// HostLan opens the listener and waits for one guest in the background.
func (gc *GameController) HostLan(name string) (LanStatus, error) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != nil {
		return gc.lanStatusLocked(), ErrLanBusy
	}
	if err := gc.checkCooldown(); err != nil {
		return gc.lanStatusLocked(), err
	}
	addr := gc.deps.LanListenAddr
	if addr == "" {
		addr = fmt.Sprintf(":%d", GetConfig().LanPort)
	}
	ctx, cancel := context.WithCancel(context.Background())
	host, err := ListenLan(ctx, addr)
	if err != nil {
		cancel()
		return gc.lanStatusLocked(), err
	}
	session := &lanSession{
		host:      host,
		cancel:    cancel,
		playsX:    true,
		localName: lanPlayerName(name),
		address:   LocalLANAddress(),
	}
	if tcpAddr, ok := host.Addr().(*net.TCPAddr); ok {
		session.port = tcpAddr.Port
	}
	gc.lan = session
	gc.rememberPlayerName(session.localName)
	go gc.acceptGuest(ctx, session)
	log.Info().Str("component", "lan").Str("addr", host.Addr().String()).Msg("hosting")
	gc.deps.Events.PublishLan(lanEventPayload{Event: "hosting", Detail: host.Addr().String()})
	return gc.lanStatusLocked(), nil
}

// JoinLan dials a host. The dial happens without holding the controller lock.
func (gc *GameController) JoinLan(ctx context.Context, addr string, name string) (LanStatus, error) {
	gc.mu.Lock()
	if gc.lan != nil {
		status := gc.lanStatusLocked()
		gc.mu.Unlock()
		return status, ErrLanBusy
	}
	if err := gc.checkCooldown(); err != nil {
		status := gc.lanStatusLocked()
		gc.mu.Unlock()
		return status, err
	}
	gc.mu.Unlock()

	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, fmt.Sprint(GetConfig().LanPort))
	}
	name = lanPlayerName(name)
	peer, err := DialLan(ctx, addr, name)
	if err != nil {
		return gc.LanStatus(), err
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != nil {
		peer.Close(nil)
		return gc.lanStatusLocked(), ErrLanBusy
	}
	session := &lanSession{
		peer:      peer,
		cancel:    func() {},
		localName: name,
		address:   addr,
	}
	gc.lan = session
	gc.rememberPlayerName(name)
	go gc.pumpLan(session, peer)
	gc.deps.Events.PublishLan(lanEventPayload{Event: "connected", Detail: addr})
	return gc.lanStatusLocked(), nil
}

func (gc *GameController) LanStatus() LanStatus {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lanStatusLocked()
}

func (gc *GameController) SendChat(text string) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	session, err := gc.connectedLocked()
	if err != nil {
		return err
	}
	text = strings.TrimSpace(stripSeparator(text))
	if text == "" {
		return nil
	}
	msg := lanTextMessage(LanChat, text)
	session.peer.Send(msg)
	gc.deps.Events.PublishChat(chatPayload{From: session.localName, Text: msg.Text, Self: true})
	return nil
}

// LanRematch handles offer, accept and deny. Only the loser of a decided
// round may offer.
func (gc *GameController) LanRematch(action string) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	session, err := gc.connectedLocked()
	if err != nil {
		return err
	}
	state := gc.game.State()
	switch action {
	case "offer":
		winner := winnerFromStatus(state.Status)
		if winner == 0 || winner == playerToInt(gc.game.Settings().LocalSide) || session.rematchSent {
			return ErrOfferNotAllowed
		}
		session.peer.Send(lanSignal(LanReqRematch))
		session.rematchSent = true
		gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_sent"})
	case "accept":
		if !session.rematchIncoming {
			return ErrNoPendingOffer
		}
		session.peer.Send(lanSignal(LanAcceptRematch))
		gc.startLanRematchLocked(session)
	case "deny":
		if !session.rematchIncoming {
			return ErrNoPendingOffer
		}
		session.peer.Send(lanSignal(LanDenyRematch))
		session.rematchIncoming = false
		gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_denied"})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLanCommand, action)
	}
	gc.deps.Events.PublishStatus(gc.statusLocked())
	return nil
}

func (gc *GameController) LanDraw(action string) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	session, err := gc.connectedLocked()
	if err != nil {
		return err
	}
	switch action {
	case "offer":
		if gc.game.State().Status != StatusRunning || session.drawSent {
			return ErrOfferNotAllowed
		}
		session.peer.Send(lanSignal(LanOfferDraw))
		session.drawSent = true
		gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_sent"})
	case "accept":
		if !session.drawIncoming {
			return ErrNoPendingOffer
		}
		session.peer.Send(lanSignal(LanAcceptDraw))
		session.drawIncoming = false
		gc.game.DeclareDraw()
		gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_agreed"})
	case "deny":
		if !session.drawIncoming {
			return ErrNoPendingOffer
		}
		session.peer.Send(lanSignal(LanDenyDraw))
		session.drawIncoming = false
		gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_denied"})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLanCommand, action)
	}
	gc.deps.Events.PublishStatus(gc.statusLocked())
	return nil
}

// LeaveLan closes the session. Walking out of a running round tells the
// opponent and puts this install on cooldown.
func (gc *GameController) LeaveLan() error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan == nil {
		return ErrLanNotConnected
	}
	gc.leaveLanLocked()
	return nil
}

func (gc *GameController) leaveLanLocked() {
	session := gc.lan
	var farewell LanMessage
	if session.peer != nil && session.peer.Connected() && gc.game.State().Status == StatusRunning {
		farewell = lanTextMessage(LanOpponentQuit, session.localName)
		gc.applyLeavePenalty(session.localName)
	} else {
		farewell = lanTextMessage(LanLeft, session.localName)
	}
	gc.endLanLocked(session, &farewell)
	gc.deps.Events.PublishLan(lanEventPayload{Event: "left", Name: session.localName})

	settings := DefaultGameSettings()
	settings.XName = session.localName
	gc.game.Reset(settings)
	gc.publishResetLocked()
}

func (gc *GameController) applyLeavePenalty(name string) {
	if gc.deps.Preferences == nil {
		return
	}
	duration := time.Duration(GetConfig().LanCooldownSeconds) * time.Second
	now := gc.deps.Now()
	if _, err := gc.deps.Preferences.Update(func(p *Preferences) {
		applyCooldown(p, now, duration, name)
	}); err != nil {
		log.Warn().Err(err).Str("component", "lan").Msg("could not store cooldown")
		return
	}
	log.Info().Str("component", "lan").Str("name", name).Dur("cooldown", duration).Msg("left a running LAN round")
}

func (gc *GameController) checkCooldown() error {
	if gc.deps.Preferences == nil {
		return nil
	}
	if remaining := CooldownRemaining(gc.deps.Preferences.Load(), gc.deps.Now()); remaining > 0 {
		return fmt.Errorf("%w: %d seconds left", ErrLanCooldown, remaining)
	}
	return nil
}

func (gc *GameController) connectedLocked() (*lanSession, error) {
	if gc.lan == nil || gc.lan.peer == nil || !gc.lan.peer.Connected() {
		return nil, ErrLanNotConnected
	}
	return gc.lan, nil
}

func (gc *GameController) endLanLocked(session *lanSession, farewell *LanMessage) {
	if gc.lan == session {
		gc.lan = nil
	}
	session.cancel()
	if session.host != nil {
		session.host.Close()
	}
	if session.peer != nil {
		session.peer.Close(farewell)
	}
}

func (gc *GameController) acceptGuest(ctx context.Context, session *lanSession) {
	peer, err := session.host.Accept(ctx, session.localName)

	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != session {
		if peer != nil {
			peer.Close(nil)
		}
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("component", "lan").Msg("hosting stopped")
		gc.lan = nil
		session.cancel()
		gc.deps.Events.PublishLan(lanEventPayload{Event: "error", Detail: err.Error()})
		return
	}
	session.peer = peer
	go gc.pumpLan(session, peer)
	gc.deps.Events.PublishLan(lanEventPayload{Event: "connected"})
}

func (gc *GameController) pumpLan(session *lanSession, peer *LanPeer) {
	for msg := range peer.Incoming() {
		gc.handleLanMessage(session, msg)
	}
	gc.handleLanClosed(session, peer)
}

func (gc *GameController) handleLanMessage(session *lanSession, msg LanMessage) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != session {
		return
	}
	now := gc.deps.Now()
	switch msg.Type {
	case LanName:
		session.opponent = lanPlayerName(msg.Text)
		if !session.started {
			gc.startLanGameLocked(session)
		} else {
			gc.syncLanNamesLocked(session)
		}
		gc.deps.Events.PublishLan(lanEventPayload{Event: "opponent", Name: session.opponent})
	case LanMove:
		if gc.game.State().Status != StatusRunning || gc.game.CurrentPlayerType() != PlayerRemote {
			log.Warn().Str("component", "lan").Str("move", msg.Move.String()).Msg("ignoring out of turn move")
			return
		}
		if applied, reason := gc.game.TryApplyMove(msg.Move); !applied {
			log.Warn().Str("component", "lan").Str("move", msg.Move.String()).Str("reason", reason).Msg("remote move rejected")
			return
		}
		session.drawSent = false
		session.drawIncoming = false
		gc.publishMoveLocked()
	case LanChat:
		gc.deps.Events.PublishChat(chatPayload{From: session.opponent, Text: msg.Text})
	case LanLeft, LanOpponentQuit:
		name := msg.Text
		if name == "" {
			name = session.opponent
		}
		gc.game.Forfeit(otherPlayer(session.localSide()))
		gc.deps.Events.PublishLan(lanEventPayload{Event: "opponent_left", Name: name})
		gc.endLanLocked(session, nil)
		gc.deps.Events.PublishStatus(gc.statusLocked())
	case LanReqRematch:
		if !gc.game.State().IsOver() {
			return
		}
		session.rematchIncoming = true
		session.rematchDeadline = now.Add(lanOfferTimeout)
		gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_request", Name: session.opponent})
	case LanAcceptRematch:
		if session.rematchSent {
			gc.startLanRematchLocked(session)
		}
	case LanDenyRematch:
		if session.rematchSent {
			session.rematchSent = false
			gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_denied", Name: session.opponent})
		}
	case LanOfferDraw:
		if gc.game.State().Status != StatusRunning {
			return
		}
		session.drawIncoming = true
		session.drawDeadline = now.Add(lanOfferTimeout)
		gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_offer", Name: session.opponent})
	case LanAcceptDraw:
		if session.drawSent {
			session.drawSent = false
			gc.game.DeclareDraw()
			gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_agreed", Name: session.opponent})
			gc.deps.Events.PublishStatus(gc.statusLocked())
		}
	case LanDenyDraw:
		if session.drawSent {
			session.drawSent = false
			gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_denied", Name: session.opponent})
		}
	default:
		log.Debug().Str("component", "lan").Str("frame", msg.Raw).Msg("ignoring frame")
	}
}

// handleLanClosed runs once the link is gone. A drop during a running round
// counts as a win for the side still here, without any penalty.
func (gc *GameController) handleLanClosed(session *lanSession, peer *LanPeer) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.lan != session {
		return
	}
	gc.game.Forfeit(otherPlayer(session.localSide()))
	gc.lan = nil
	session.cancel()
	gc.deps.Events.PublishLan(lanEventPayload{Event: "disconnected", Name: session.opponent, Detail: string(peer.Reason())})
	gc.deps.Events.PublishStatus(gc.statusLocked())
}

func (gc *GameController) startLanGameLocked(session *lanSession) {
	settings := gc.game.Settings()
	settings.Mode = ModeLAN
	settings.LocalSide = session.localSide()
	if session.playsX {
		settings.XName, settings.OName = session.localName, session.opponent
	} else {
		settings.XName, settings.OName = session.opponent, session.localName
	}
	gc.game.Reset(settings)
	gc.game.Start()
	session.started = true
	session.clearOffers()
	gc.publishResetLocked()
}

func (gc *GameController) syncLanNamesLocked(session *lanSession) {
	settings := gc.game.Settings()
	if settings.LocalSide == PlayerX {
		settings.OName = session.opponent
	} else {
		settings.XName = session.opponent
	}
	gc.game.settings = settings
}

// startLanRematchLocked swaps colors so the players alternate who opens.
func (gc *GameController) startLanRematchLocked(session *lanSession) {
	session.clearOffers()
	session.playsX = !session.playsX
	gc.game.SwapSides()
	gc.game.Rematch()
	gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_started"})
	gc.publishResetLocked()
}

func (gc *GameController) expireOffersLocked(now time.Time) {
	session := gc.lan
	if session == nil || session.peer == nil {
		return
	}
	if session.rematchIncoming && now.After(session.rematchDeadline) {
		session.rematchIncoming = false
		session.peer.Send(lanSignal(LanDenyRematch))
		gc.deps.Events.PublishLan(lanEventPayload{Event: "rematch_expired"})
	}
	if session.drawIncoming && now.After(session.drawDeadline) {
		session.drawIncoming = false
		session.peer.Send(lanSignal(LanDenyDraw))
		gc.deps.Events.PublishLan(lanEventPayload{Event: "draw_expired"})
	}
}

func (gc *GameController) lanStatusLocked() LanStatus {
	cooldown := 0
	if gc.deps.Preferences != nil {
		cooldown = CooldownRemaining(gc.deps.Preferences.Load(), gc.deps.Now())
	}
	session := gc.lan
	if session == nil {
		return LanStatus{State: "idle", CooldownSeconds: cooldown}
	}
	status := LanStatus{
		State:           "connected",
		Host:            session.host != nil,
		Address:         session.address,
		Port:            session.port,
		OpponentName:    session.opponent,
		RematchSent:     session.rematchSent,
		RematchIncoming: session.rematchIncoming,
		DrawSent:        session.drawSent,
		DrawIncoming:    session.drawIncoming,
		CooldownSeconds: cooldown,
	}
	if session.peer == nil {
		status.State = "hosting"
	}
	return status
}

func lanPlayerName(name string) string {
	name = strings.TrimSpace(stripSeparator(name))
	if name == "" {
		return DefaultGameSettings().XName
	}
	return name
}
