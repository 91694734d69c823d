package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const lanJoinTimeout = 10 * time.Second

func newRouter(controller *GameController, hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Settings GameSettings `json:"settings"`
		}{Settings: controller.Settings()}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if err := controller.StartGame(payload.Settings); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applied, errMsg := controller.ApplyHumanMove(NewMove(payload.Row, payload.Col))
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Post("/api/undo", func(w http.ResponseWriter, r *http.Request) {
		if err := controller.Undo(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Post("/api/rematch", func(w http.ResponseWriter, r *http.Request) {
		if err := controller.Rematch(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Post("/api/scores/reset", func(w http.ResponseWriter, r *http.Request) {
		controller.ResetScores()
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Get("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settingsPayload{Settings: controller.Settings(), Config: GetConfig()})
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings json.RawMessage `json:"settings"`
			Config   *Config         `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		var settings *GameSettings
		if len(payload.Settings) > 0 && string(payload.Settings) != "null" {
			merged := controller.Settings()
			if err := json.Unmarshal(payload.Settings, &merged); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid settings"})
				return
			}
			settings = &merged
		}
		if err := controller.UpdateSettings(settings, payload.Config); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	})

	r.Get("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		entries, err := controller.Leaderboard(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	})

	r.Get("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.Preferences())
	})

	r.Post("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		var patch preferencesPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		prefs, err := controller.UpdatePreferences(patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	})

	r.Route("/api/lan", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, controller.LanStatus())
		})
		r.Post("/host", func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Name string `json:"name"`
			}
			if err := decodeOptional(r, &payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			status, err := controller.HostLan(payload.Name)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, status)
		})
		r.Post("/join", func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Address string `json:"address"`
				Name    string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Address == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address required"})
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), lanJoinTimeout)
			defer cancel()
			status, err := controller.JoinLan(ctx, payload.Address, payload.Name)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, status)
		})
		r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Text string `json:"text"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			if err := controller.SendChat(payload.Text); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Post("/rematch", lanActionHandler(controller.LanRematch, controller))
		r.Post("/draw", lanActionHandler(controller.LanDraw, controller))
		r.Post("/leave", func(w http.ResponseWriter, r *http.Request) {
			if err := controller.LeaveLan(); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, controller.Status())
		})
	})

	r.Post("/api/arena", func(w http.ResponseWriter, r *http.Request) {
		var req ArenaRequest
		if err := decodeOptional(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		result, err := RunArena(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})

	return r
}

func lanActionHandler(action func(string) error, controller *GameController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if err := action(payload.Action); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.Status())
	}
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	keepReadAlive(conn)
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controller.Status())})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			log.Debug().Err(err).Str("component", "ws").Msg("writer stopped")
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controller.Status())})
		case "chat":
			var chat struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(msg.Payload, &chat); err == nil {
				_ = controller.SendChat(chat.Text)
			}
		}
	}
}

// httpStatusFor maps domain errors to response codes.
func httpStatusFor(err error) int {
	var opErr *net.OpError
	switch {
	case errors.As(err, &opErr):
		return http.StatusBadGateway
	case errors.Is(err, ErrLanCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnknownLanCommand), errors.Is(err, ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, ErrGameNotRunning),
		errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrUndoDisabled),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrLanActive),
		errors.Is(err, ErrLanBusy),
		errors.Is(err, ErrLanNotConnected),
		errors.Is(err, ErrNoPendingOffer),
		errors.Is(err, ErrOfferNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional accepts an empty body as the zero payload.
func decodeOptional(r *http.Request, out any) error {
	err := json.NewDecoder(r.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "http").Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
