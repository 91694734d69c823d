package main

import (
	"encoding/json"
	"sync"
)

// GameEvents receives everything the controller wants pushed to clients.
// Implementations must not block.
type GameEvents interface {
	PublishStatus(StatusResponse)
	PublishHistory(historyPayload)
	PublishReset(resetPayload)
	PublishSettings(settingsPayload)
	PublishChat(chatPayload)
	PublishLan(lanEventPayload)
	PublishProgress(SearchProgress)
}

type Hub struct {
	mu                sync.Mutex
	clients           map[*Client]struct{}
	broadcastHistory  chan historyPayload
	broadcastStatus   chan StatusResponse
	broadcastReset    chan resetPayload
	broadcastSettings chan settingsPayload
	broadcastChat     chan chatPayload
	broadcastLan      chan lanEventPayload
	broadcastProgress chan SearchProgress
}

type Client struct {
	hub  *Hub
	send chan []byte
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:           make(map[*Client]struct{}),
		broadcastHistory:  make(chan historyPayload, 32),
		broadcastStatus:   make(chan StatusResponse, 32),
		broadcastReset:    make(chan resetPayload, 8),
		broadcastSettings: make(chan settingsPayload, 8),
		broadcastChat:     make(chan chatPayload, 32),
		broadcastLan:      make(chan lanEventPayload, 16),
		broadcastProgress: make(chan SearchProgress, 32),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcastHistory:
			h.broadcast("history", payload)
		case payload := <-h.broadcastStatus:
			h.broadcast("status", payload)
		case payload := <-h.broadcastReset:
			h.broadcast("reset", payload)
		case payload := <-h.broadcastSettings:
			h.broadcast("settings", payload)
		case payload := <-h.broadcastChat:
			h.broadcast("chat", payload)
		case payload := <-h.broadcastLan:
			h.broadcast("lan", payload)
		case payload := <-h.broadcastProgress:
			h.broadcast("ai_progress", payload)
		}
	}
}

func (h *Hub) broadcast(kind string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	msg := wsMessage{Type: kind, Payload: mustMarshal(payload)}
	for client := range h.clients {
		client.sendJSON(msg)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (h *Hub) PublishStatus(payload StatusResponse) {
	select {
	case h.broadcastStatus <- payload:
	default:
	}
}

func (h *Hub) PublishHistory(payload historyPayload) {
	select {
	case h.broadcastHistory <- payload:
	default:
	}
}

func (h *Hub) PublishReset(payload resetPayload) {
	select {
	case h.broadcastReset <- payload:
	default:
	}
}

func (h *Hub) PublishSettings(payload settingsPayload) {
	select {
	case h.broadcastSettings <- payload:
	default:
	}
}

func (h *Hub) PublishChat(payload chatPayload) {
	select {
	case h.broadcastChat <- payload:
	default:
	}
}

func (h *Hub) PublishLan(payload lanEventPayload) {
	select {
	case h.broadcastLan <- payload:
	default:
	}
}

// PublishProgress is called from search goroutines; stale progress is
// dropped rather than queued.
func (h *Hub) PublishProgress(payload SearchProgress) {
	select {
	case h.broadcastProgress <- payload:
	default:
	}
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

type nopEvents struct{}

func (nopEvents) PublishStatus(StatusResponse)    {}
func (nopEvents) PublishHistory(historyPayload)   {}
func (nopEvents) PublishReset(resetPayload)       {}
func (nopEvents) PublishSettings(settingsPayload) {}
func (nopEvents) PublishChat(chatPayload)         {}
func (nopEvents) PublishLan(lanEventPayload)      {}
func (nopEvents) PublishProgress(SearchProgress)  {}
