// Package storage keeps the score history in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
// Nothing here is read back into live rooms; it is a record of finished runs.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry is one finished snake run.
type ScoreEntry struct {
	ID         int64     `json:"id"`
	PlayerName string    `json:"playerName"`
	RoomID     string    `json:"roomId"`
	Points     int       `json:"points"`
	Reason     string    `json:"reason"` // "collision", "left", "disconnect"
	CreatedAt  time.Time `json:"createdAt"`
}

// Round is one Playing session of a room, from start until it emptied.
type Round struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	Players   int       `json:"players"`
	Ticks     int64     `json:"ticks"`
	Duration  int       `json:"durationSecs"`
	EndReason string    `json:"endReason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats aggregates the whole history.
type Stats struct {
	Runs       int       `json:"runs"`
	BestScore  int       `json:"bestScore"`
	AvgScore   float64   `json:"avgScore"`
	Rounds     int       `json:"rounds"`
	LastPlayed time.Time `json:"lastPlayed"`
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Writes come from concurrent tick loops; one connection serialises them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_name TEXT NOT NULL,
			room_id TEXT NOT NULL,
			points INTEGER NOT NULL,
			reason TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(points DESC);
		CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player_name);

		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			players INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_room ON rounds(room_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore records a finished run and returns its row id.
func (s *Store) SaveScore(e ScoreEntry) (int64, error) {
	if e.Points < 0 {
		return 0, fmt.Errorf("storage: negative points %d", e.Points)
	}
	result, err := s.db.Exec(
		"INSERT INTO scores (player_name, room_id, points, reason) VALUES (?, ?, ?, ?)",
		e.PlayerName, e.RoomID, e.Points, e.Reason,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// TopScores returns the best runs, highest first. Ties go to the earlier run.
func (s *Store) TopScores(limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, player_name, room_id, points, reason, created_at
		 FROM scores
		 ORDER BY points DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.RoomID, &e.Points, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// PlayerBest returns a player's best run. Returns 0 if the name has no runs.
func (s *Store) PlayerBest(name string) (int, error) {
	var best sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(points) FROM scores WHERE player_name = ?",
		name,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query player best: %w", err)
	}
	if !best.Valid {
		return 0, nil
	}
	return int(best.Int64), nil
}

// ClearScores deletes the whole run history.
func (s *Store) ClearScores() error {
	if _, err := s.db.Exec("DELETE FROM scores"); err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveRound records a finished round and returns its row id.
func (s *Store) SaveRound(r Round) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO rounds (room_id, players, ticks, duration_secs, end_reason)
		 VALUES (?, ?, ?, ?, ?)`,
		r.RoomID, r.Players, r.Ticks, r.Duration, r.EndReason,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save round: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// RecentRounds returns the latest rounds, newest first.
func (s *Store) RecentRounds(limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, room_id, players, ticks, duration_secs, end_reason, created_at
		 FROM rounds
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		var createdAt any
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Players, &r.Ticks, &r.Duration, &r.EndReason, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		rounds = append(rounds, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return rounds, nil
}

// Stats returns aggregate figures over all recorded runs and rounds.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(points), 0), COALESCE(AVG(points), 0) FROM scores`,
	).Scan(&stats.Runs, &stats.BestScore, &stats.AvgScore)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get score stats: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rounds`).Scan(&stats.Rounds); err != nil {
		return nil, fmt.Errorf("storage: cannot count rounds: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRow(`SELECT created_at FROM scores ORDER BY id DESC LIMIT 1`).Scan(&lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last played: %w", err)
	}
	if err == nil {
		stats.LastPlayed = parseTime(lastPlayed)
	}

	return stats, nil
}

// SaveRunResult implements multiplayer.ResultSaver.
func (s *Store) SaveRunResult(data multiplayer.RunResultData) error {
	_, err := s.SaveScore(ScoreEntry{
		PlayerName: data.PlayerName,
		RoomID:     data.RoomID,
		Points:     data.Points,
		Reason:     data.Reason,
	})
	return err
}

// SaveRoundResult implements multiplayer.ResultSaver.
func (s *Store) SaveRoundResult(data multiplayer.RoundResultData) error {
	_, err := s.SaveRound(Round{
		RoomID:    data.RoomID,
		Players:   data.Players,
		Ticks:     int64(data.Ticks), //nolint:gosec // tick counts stay far below MaxInt64
		Duration:  data.DurationSecs,
		EndReason: data.EndReason,
	})
	return err
}

var _ multiplayer.ResultSaver = (*Store)(nil)

// parseTime handles the driver returning either time.Time or a string.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
