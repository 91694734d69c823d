package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const leaderboardSchema = `
CREATE TABLE IF NOT EXISTS scores (
	position INTEGER PRIMARY KEY,
	name     TEXT    NOT NULL,
	score_x  INTEGER NOT NULL,
	score_o  INTEGER NOT NULL,
	total    INTEGER NOT NULL,
	mode     TEXT    NOT NULL,
	date     TEXT    NOT NULL
);`

// SQLiteLeaderboard stores the ranked list in a single table. The whole list
// is rewritten on each record so ordering stays identical to the JSON store.
type SQLiteLeaderboard struct {
	db *sql.DB
}

func openSQLite(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

func NewSQLiteLeaderboard(ctx context.Context, dsn string) (*SQLiteLeaderboard, error) {
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, leaderboardSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create scores: %w", err)
	}
	log.Info().Str("component", "leaderboard").Str("dsn", dsn).Msg("sqlite leaderboard ready")
	return &SQLiteLeaderboard{db: db}, nil
}

func (l *SQLiteLeaderboard) Entries(ctx context.Context) ([]LeaderboardEntry, error) {
	return queryLeaderboard(ctx, l.db)
}

type leaderboardQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryLeaderboard(ctx context.Context, q leaderboardQuerier) ([]LeaderboardEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, score_x, score_o, total, mode, date
		FROM scores
		ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardEntry, 0, leaderboardLimit)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.ScoreX, &e.ScoreO, &e.Total, &e.Mode, &e.Date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *SQLiteLeaderboard) Record(ctx context.Context, name string, scores Scores, mode string, at time.Time) ([]LeaderboardEntry, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	entries, err := queryLeaderboard(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if leaderboardSkipsMode(mode) {
		_ = tx.Rollback()
		return entries, nil
	}
	entries = mergeLeaderboard(entries, newLeaderboardEntry(name, scores, mode, at))
	if _, err := tx.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("clear scores: %w", err)
	}
	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scores (position, name, score_x, score_o, total, mode, date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, e.Name, e.ScoreX, e.ScoreO, e.Total, e.Mode, e.Date,
		); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scores: %w", err)
	}
	return entries, nil
}

func (l *SQLiteLeaderboard) Close() error {
	return l.db.Close()
}

// OpenLeaderboard picks the backend named by config.
func OpenLeaderboard(ctx context.Context, config Config) (LeaderboardStore, error) {
	switch config.LeaderboardBackend {
	case "sqlite":
		store, err := NewSQLiteLeaderboard(ctx, filepath.Join(config.DataDir, "leaderboard.db"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "json":
		return NewJSONLeaderboard(filepath.Join(config.DataDir, "leaderboard.json")), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", config.LeaderboardBackend)
	}
}
