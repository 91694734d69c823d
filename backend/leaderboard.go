package main

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

const (
	leaderboardLimit      = 10
	leaderboardDateLayout = "2006-01-02 15:04"
)

type LeaderboardEntry struct {
	Name   string `json:"name"`
	ScoreX int    `json:"score_x"`
	ScoreO int    `json:"score_o"`
	Total  int    `json:"total"`
	Mode   string `json:"mode"`
	Date   string `json:"date"`
}

// LeaderboardStore keeps the top scores across sessions.
type LeaderboardStore interface {
	Entries(ctx context.Context) ([]LeaderboardEntry, error)
	Record(ctx context.Context, name string, scores Scores, mode string, at time.Time) ([]LeaderboardEntry, error)
	Close() error
}

func leaderboardSkipsMode(mode string) bool {
	return strings.Contains(mode, "LAN") || strings.Contains(mode, "Online")
}

// sameLeaderboardName compares names case-insensitively. A Caser is stateful,
// so each comparison gets its own.
func sameLeaderboardName(a, b string) bool {
	folder := cases.Fold()
	return folder.String(a) == folder.String(b)
}

// mergeLeaderboard replaces the entry with the same name (ignoring case) or
// appends a new one, then keeps the best leaderboardLimit by total.
func mergeLeaderboard(entries []LeaderboardEntry, update LeaderboardEntry) []LeaderboardEntry {
	update.Total = update.ScoreX + update.ScoreO
	out := make([]LeaderboardEntry, 0, len(entries)+1)
	out = append(out, entries...)
	replaced := false
	for i := range out {
		if sameLeaderboardName(out[i].Name, update.Name) {
			out[i] = update
			replaced = true
			break
		}
	}
	if !replaced {
		out = append(out, update)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	if len(out) > leaderboardLimit {
		out = out[:leaderboardLimit]
	}
	return out
}

func newLeaderboardEntry(name string, scores Scores, mode string, at time.Time) LeaderboardEntry {
	return LeaderboardEntry{
		Name:   name,
		ScoreX: scores.X,
		ScoreO: scores.O,
		Total:  scores.X + scores.O,
		Mode:   mode,
		Date:   at.Format(leaderboardDateLayout),
	}
}

type JSONLeaderboard struct {
	mu   sync.Mutex
	path string
}

func NewJSONLeaderboard(path string) *JSONLeaderboard {
	return &JSONLeaderboard{path: path}
}

func (l *JSONLeaderboard) Entries(_ context.Context) ([]LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(), nil
}

func (l *JSONLeaderboard) load() []LeaderboardEntry {
	var entries []LeaderboardEntry
	if _, err := loadJSONFile(l.path, &entries); err != nil {
		if !errors.Is(err, errDocumentCorrupt) {
			log.Warn().Err(err).Str("component", "leaderboard").Msg("could not open leaderboard")
		} else {
			log.Warn().Err(err).Str("component", "leaderboard").Msg("leaderboard unreadable, starting empty")
		}
		return []LeaderboardEntry{}
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries
}

func (l *JSONLeaderboard) Record(_ context.Context, name string, scores Scores, mode string, at time.Time) ([]LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.load()
	if leaderboardSkipsMode(mode) {
		return entries, nil
	}
	entries = mergeLeaderboard(entries, newLeaderboardEntry(name, scores, mode, at))
	if err := saveJSONFile(l.path, entries); err != nil {
		return entries, err
	}
	return entries, nil
}

func (l *JSONLeaderboard) Close() error {
	return nil
}
