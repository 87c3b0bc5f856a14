// Package storage provides SQLite-based persistence for manual high scores
// and training generation summaries.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single manual run.
type ScoreEntry struct {
	ID        int64
	Mode      string
	Score     int
	Ticks     int
	CreatedAt time.Time
}

// GenerationRecord is the persisted summary of one evaluated generation.
type GenerationRecord struct {
	ID          int64
	Session     string
	Generation  int
	Population  int
	Survivors   int
	Score       int
	Ticks       int
	BestFitness float64
	MeanFitness float64
	StdDev      float64
	Outcome     string
	CreatedAt   time.Time
}

// SessionSummary aggregates the generations of one training session.
type SessionSummary struct {
	Session     string
	Generations int
	BestFitness float64
	BestScore   int
	Started     time.Time
	Finished    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
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

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(mode, score DESC);

		CREATE TABLE IF NOT EXISTS generations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			generation INTEGER NOT NULL,
			population INTEGER NOT NULL,
			survivors INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			stddev_fitness REAL NOT NULL,
			outcome TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session, generation)
		);
		CREATE INDEX IF NOT EXISTS idx_generations_session ON generations(session);
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

// SaveScore records a finished run for the given mode.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(mode string, score, ticks int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (mode, score, ticks) VALUES (?, ?, ?)",
		mode, score, ticks,
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

// TopScores retrieves the top N scores for the given mode.
// Results are ordered by score descending.
func (s *Store) TopScores(mode string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, mode, score, ticks, created_at
		 FROM scores
		 WHERE mode = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		mode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Mode, &e.Score, &e.Ticks, &createdAt); err != nil {
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

// HighScore returns the highest score for the given mode.
// Returns 0 if no scores exist.
func (s *Store) HighScore(mode string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE mode = ?",
		mode,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given mode.
func (s *Store) ClearScores(mode string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE mode = ?", mode)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveGeneration records a generation summary. Saving the same session and
// generation twice replaces the earlier row.
func (s *Store) SaveGeneration(rec GenerationRecord) (int64, error) {
	if rec.Session == "" {
		return 0, errors.New("storage: generation record without session")
	}
	res, err := s.db.Exec(
		`INSERT OR REPLACE INTO generations
		 (session, generation, population, survivors, score, ticks, best_fitness, mean_fitness, stddev_fitness, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Session,
		rec.Generation,
		rec.Population,
		rec.Survivors,
		rec.Score,
		rec.Ticks,
		rec.BestFitness,
		rec.MeanFitness,
		rec.StdDev,
		rec.Outcome,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save generation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// Generations retrieves every generation of a session in order.
func (s *Store) Generations(session string) ([]GenerationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session, generation, population, survivors, score, ticks,
		        best_fitness, mean_fitness, stddev_fitness, outcome, created_at
		 FROM generations
		 WHERE session = ?
		 ORDER BY generation ASC`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		var createdAt any
		if err := rows.Scan(
			&r.ID,
			&r.Session,
			&r.Generation,
			&r.Population,
			&r.Survivors,
			&r.Score,
			&r.Ticks,
			&r.BestFitness,
			&r.MeanFitness,
			&r.StdDev,
			&r.Outcome,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// Sessions summarizes the most recent training sessions, newest first.
func (s *Store) Sessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT session, COUNT(*), MAX(best_fitness), MAX(score), MIN(created_at), MAX(created_at), MAX(id)
		 FROM generations
		 GROUP BY session
		 ORDER BY MAX(id) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var started, finished any
		var lastID int64
		if err := rows.Scan(&ss.Session, &ss.Generations, &ss.BestFitness, &ss.BestScore, &started, &finished, &lastID); err != nil {
			return nil, fmt.Errorf("storage: cannot scan session row: %w", err)
		}
		ss.Started = parseTime(started)
		ss.Finished = parseTime(finished)
		out = append(out, ss)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// ScoreStats contains aggregated statistics for one mode.
type ScoreStats struct {
	Mode       string
	Runs       int
	HighScore  int
	AvgScore   float64
	TotalTicks int64
	LastPlayed time.Time
}

// Stats retrieves aggregated statistics for a mode.
func (s *Store) Stats(mode string) (*ScoreStats, error) {
	stats := &ScoreStats{Mode: mode}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), COALESCE(SUM(ticks), 0), MAX(created_at)
		 FROM scores WHERE mode = ?`,
		mode,
	).Scan(&stats.Runs, &stats.HighScore, &stats.AvgScore, &stats.TotalTicks, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles the datetime forms the driver returns.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
