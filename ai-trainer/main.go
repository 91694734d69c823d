package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type trainer struct {
	client   *http.Client
	baseURL  string
	rounds   int
	interval time.Duration
	request  arenaRequest
	out      *termenv.Output
	history  []arenaResult
}

type arenaRequest struct {
	Games        int   `json:"games"`
	BoardSize    int   `json:"board_size"`
	WinLength    int   `json:"win_length"`
	TimeBudgetMs int   `json:"time_budget_ms"`
	MaxDepth     int   `json:"max_depth"`
	Seed         int64 `json:"seed"`
}

type arenaResult struct {
	Games     int     `json:"games"`
	HardWins  int     `json:"hard_wins"`
	EasyWins  int     `json:"easy_wins"`
	Draws     int     `json:"draws"`
	AvgPlies  float64 `json:"avg_plies"`
	ElapsedMs int64   `json:"elapsed_ms"`
}

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("component", "trainer").Logger()

	t := &trainer{
		client: &http.Client{
			Timeout: 10 * time.Minute,
		},
		baseURL:  strings.TrimRight(getenv("BACKEND_URL", "http://localhost:8080"), "/"),
		rounds:   getenvInt("ARENA_ROUNDS", 1),
		interval: time.Duration(getenvInt("ARENA_INTERVAL_SEC", 5)) * time.Second,
		request: arenaRequest{
			Games:        getenvInt("ARENA_GAMES", 20),
			BoardSize:    getenvInt("ARENA_BOARD_SIZE", 15),
			WinLength:    getenvInt("ARENA_WIN_LENGTH", 5),
			TimeBudgetMs: getenvInt("ARENA_TIME_BUDGET_MS", 50),
			MaxDepth:     getenvInt("ARENA_MAX_DEPTH", 3),
			Seed:         int64(getenvInt("ARENA_SEED", 0)),
		},
		out: termenv.NewOutput(os.Stdout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := t.run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("trainer stopped")
		os.Exit(1)
	}
}

func (t *trainer) run(ctx context.Context) error {
	log.Info().Str("backend", t.baseURL).Int("rounds", t.rounds).Int("games", t.request.Games).Msg("arena trainer started")
	if err := t.waitBackendReady(ctx); err != nil {
		return fmt.Errorf("backend not ready: %w", err)
	}
	for round := 1; round <= t.rounds; round++ {
		req := t.request
		if req.Seed != 0 {
			req.Seed += int64(round-1) * int64(req.Games)
		}
		var result arenaResult
		if err := t.postJSON(ctx, "/api/arena", req, &result); err != nil {
			return err
		}
		t.history = append(t.history, result)
		t.report(round, result)
		if round < t.rounds && !sleepWithContext(ctx, t.interval) {
			return ctx.Err()
		}
	}
	if len(t.history) > 1 {
		t.reportTotals()
	}
	return nil
}

func (t *trainer) report(round int, result arenaResult) {
	title := t.out.String(fmt.Sprintf("round %d", round)).Bold()
	hard := t.out.String(fmt.Sprintf("hard %d", result.HardWins)).Foreground(t.out.Color("2"))
	easy := t.out.String(fmt.Sprintf("easy %d", result.EasyWins)).Foreground(t.out.Color("1"))
	draws := t.out.String(fmt.Sprintf("draws %d", result.Draws)).Foreground(t.out.Color("3"))
	fmt.Fprintf(t.out, "%s  %s  %s  %s  avg plies %.1f  (%s)\n",
		title, hard, easy, draws, result.AvgPlies,
		(time.Duration(result.ElapsedMs) * time.Millisecond).Round(time.Millisecond))
	if result.Games > 0 && result.HardWins*2 < result.Games {
		fmt.Fprintln(t.out, t.out.String("  hard engine won less than half of the games").Foreground(t.out.Color("1")).Italic())
	}
}

func (t *trainer) reportTotals() {
	var total arenaResult
	plies := 0.0
	for _, r := range t.history {
		total.Games += r.Games
		total.HardWins += r.HardWins
		total.EasyWins += r.EasyWins
		total.Draws += r.Draws
		plies += r.AvgPlies * float64(r.Games)
	}
	if total.Games > 0 {
		total.AvgPlies = plies / float64(total.Games)
	}
	rate := 0.0
	if total.Games > 0 {
		rate = 100 * float64(total.HardWins) / float64(total.Games)
	}
	fmt.Fprintf(t.out, "%s  games %d  hard win rate %s  avg plies %.1f\n",
		t.out.String("total").Bold().Underline(),
		total.Games,
		t.out.String(fmt.Sprintf("%.1f%%", rate)).Bold(),
		total.AvgPlies)
}

func (t *trainer) waitBackendReady(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if err := t.ping(ctx); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, 1*time.Second) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("timeout after 60s")
}

func (t *trainer) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/ping", nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping status %d", resp.StatusCode)
	}
	return nil
}

func (t *trainer) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s -> %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
