// Package sqlite provides a SQLite-backed storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fidde/chart_normalizer/pkg/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.up.sql
var migrationSQL string

// Store is a SQLite-backed storage for normalized chart data.
type Store struct {
	db *sql.DB
}

// Config holds SQLite store configuration.
type Config struct {
	DBPath string
}

// DefaultConfig returns default SQLite configuration.
func DefaultConfig(dbPath string) Config {
	return Config{DBPath: dbPath}
}

// New creates a new SQLite store with the given configuration.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	// Run migrations
	if _, err := db.Exec(migrationSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ReplaceDecomposition replaces all stored tables in one transaction.
func (s *Store) ReplaceDecomposition(ctx context.Context, d *models.Decomposition) error {
	if d == nil {
		return fmt.Errorf("decomposition cannot be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"chart_entries", "songs", "stages"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	songStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (id, artist, track, time, genre, date_entered, date_peaked)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing song insert: %w", err)
	}
	defer songStmt.Close()

	for _, song := range d.Songs {
		if _, err := songStmt.ExecContext(ctx, song.ID, song.Artist, song.Track,
			song.Time, song.Genre, song.DateEntered, song.DatePeaked); err != nil {
			return fmt.Errorf("inserting song %d: %w", song.ID, err)
		}
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chart_entries (song_id, week, rank)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer entryStmt.Close()

	for _, e := range d.Entries {
		if _, err := entryStmt.ExecContext(ctx, e.SongID, e.Week, e.Rank); err != nil {
			return fmt.Errorf("inserting entry (%d, %d): %w", e.SongID, e.Week, err)
		}
	}

	stageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stages (position, stage, table_name, row_count, columns)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing stage insert: %w", err)
	}
	defer stageStmt.Close()

	for i, st := range d.Stages {
		cols, err := json.Marshal(st.Columns)
		if err != nil {
			return fmt.Errorf("encoding stage columns: %w", err)
		}
		if _, err := stageStmt.ExecContext(ctx, i, st.Stage, st.Table, st.Rows, string(cols)); err != nil {
			return fmt.Errorf("inserting stage %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing decomposition: %w", err)
	}
	return nil
}

// GetSong retrieves a song by its surrogate key.
func (s *Store) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, artist, track, time, genre, date_entered, date_peaked
		FROM songs WHERE id = ?
	`, id)

	var song models.Song
	err := row.Scan(&song.ID, &song.Artist, &song.Track, &song.Time,
		&song.Genre, &song.DateEntered, &song.DatePeaked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying song %d: %w", id, err)
	}
	return &song, nil
}

// ListSongs returns all songs ordered by ID, optionally filtered by exact
// artist name.
func (s *Store) ListSongs(ctx context.Context, artist string) ([]*models.Song, error) {
	query := `
		SELECT id, artist, track, time, genre, date_entered, date_peaked
		FROM songs
	`
	var args []any
	if artist != "" {
		query += " WHERE artist = ?"
		args = append(args, artist)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Artist, &song.Track, &song.Time,
			&song.Genre, &song.DateEntered, &song.DatePeaked); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, &song)
	}
	return songs, rows.Err()
}

// ListEntriesBySong returns a song's chart trajectory ordered by week.
func (s *Store) ListEntriesBySong(ctx context.Context, songID int64) ([]models.ChartEntry, error) {
	if _, err := s.GetSong(ctx, songID); err != nil {
		return nil, err
	}
	return s.listEntries(ctx, `
		SELECT song_id, week, rank FROM chart_entries
		WHERE song_id = ? ORDER BY week
	`, songID)
}

// ListEntriesByWeek returns one chart week ordered by rank.
func (s *Store) ListEntriesByWeek(ctx context.Context, week int) ([]models.ChartEntry, error) {
	return s.listEntries(ctx, `
		SELECT song_id, week, rank FROM chart_entries
		WHERE week = ? ORDER BY rank, song_id
	`, week)
}

func (s *Store) listEntries(ctx context.Context, query string, args ...any) ([]models.ChartEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ChartEntry
	for rows.Next() {
		var e models.ChartEntry
		if err := rows.Scan(&e.SongID, &e.Week, &e.Rank); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the stored decomposition.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&stats.Songs); err != nil {
		return nil, fmt.Errorf("counting songs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chart_entries").Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, table_name, row_count, columns
		FROM stages ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.StageInfo
		var cols string
		if err := rows.Scan(&st.Stage, &st.Table, &st.Rows, &cols); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &st.Columns); err != nil {
			return nil, fmt.Errorf("decoding stage columns: %w", err)
		}
		stats.Stages = append(stats.Stages, st)
	}
	return stats, rows.Err()
}

// Clear removes all data.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"chart_entries", "songs", "stages"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
