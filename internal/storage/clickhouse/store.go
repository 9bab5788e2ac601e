// Package clickhouse provides a ClickHouse-backed storage implementation,
// suited to analytical queries over large chart datasets.
package clickhouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/fidde/chart_normalizer/pkg/models"
)

// Store implements the storage.Storage interface using ClickHouse
type Store struct {
	conn   driver.Conn
	logger *slog.Logger
}

// NewStore creates a new ClickHouse storage instance
func NewStore(ctx context.Context, config *ConnectionConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Connect to ClickHouse
	conn, err := Connect(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to ClickHouse: %w", err)
	}

	// Initialize schema
	if err := InitializeSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{conn: conn, logger: logger}, nil
}

// ReplaceDecomposition truncates and reloads all tables. ClickHouse has no
// cross-table transactions, so a reload that fails midway leaves partial
// data; callers re-run the load.
func (s *Store) ReplaceDecomposition(ctx context.Context, d *models.Decomposition) error {
	if d == nil {
		return fmt.Errorf("decomposition cannot be nil")
	}

	if err := s.Clear(ctx); err != nil {
		return err
	}

	songBatch, err := s.conn.PrepareBatch(ctx, "INSERT INTO songs")
	if err != nil {
		return fmt.Errorf("preparing songs batch: %w", err)
	}
	for _, song := range d.Songs {
		if err := songBatch.Append(uint64(song.ID), song.Artist, song.Track,
			song.Time, song.Genre, song.DateEntered, song.DatePeaked); err != nil {
			return fmt.Errorf("appending song %d: %w", song.ID, err)
		}
	}
	if err := songBatch.Send(); err != nil {
		return fmt.Errorf("sending songs batch: %w", err)
	}

	entryBatch, err := s.conn.PrepareBatch(ctx, "INSERT INTO chart_entries")
	if err != nil {
		return fmt.Errorf("preparing entries batch: %w", err)
	}
	for _, e := range d.Entries {
		if err := entryBatch.Append(uint64(e.SongID), uint16(e.Week), uint16(e.Rank)); err != nil {
			return fmt.Errorf("appending entry (%d, %d): %w", e.SongID, e.Week, err)
		}
	}
	if err := entryBatch.Send(); err != nil {
		return fmt.Errorf("sending entries batch: %w", err)
	}

	stageBatch, err := s.conn.PrepareBatch(ctx, "INSERT INTO stages")
	if err != nil {
		return fmt.Errorf("preparing stages batch: %w", err)
	}
	for i, st := range d.Stages {
		if err := stageBatch.Append(uint32(i), st.Stage, st.Table, uint64(st.Rows), st.Columns); err != nil {
			return fmt.Errorf("appending stage %d: %w", i, err)
		}
	}
	if err := stageBatch.Send(); err != nil {
		return fmt.Errorf("sending stages batch: %w", err)
	}

	s.logger.Info("decomposition loaded",
		"songs", len(d.Songs),
		"entries", len(d.Entries),
		"stages", len(d.Stages))
	return nil
}

// GetSong retrieves a song by its surrogate key.
func (s *Store) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, artist, track, time, genre, date_entered, date_peaked
		FROM songs WHERE id = ?
	`, uint64(id))

	var (
		songID uint64
		song   models.Song
	)
	err := row.Scan(&songID, &song.Artist, &song.Track, &song.Time,
		&song.Genre, &song.DateEntered, &song.DatePeaked)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, fmt.Errorf("song %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("querying song %d: %w", id, err)
	}
	song.ID = int64(songID)
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

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		var (
			songID uint64
			song   models.Song
		)
		if err := rows.Scan(&songID, &song.Artist, &song.Track, &song.Time,
			&song.Genre, &song.DateEntered, &song.DatePeaked); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		song.ID = int64(songID)
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
	`, uint64(songID))
}

// ListEntriesByWeek returns one chart week ordered by rank.
func (s *Store) ListEntriesByWeek(ctx context.Context, week int) ([]models.ChartEntry, error) {
	return s.listEntries(ctx, `
		SELECT song_id, week, rank FROM chart_entries
		WHERE week = ? ORDER BY rank, song_id
	`, uint16(week))
}

func (s *Store) listEntries(ctx context.Context, query string, args ...any) ([]models.ChartEntry, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ChartEntry
	for rows.Next() {
		var (
			songID uint64
			week   uint16
			rank   uint16
		)
		if err := rows.Scan(&songID, &week, &rank); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, models.ChartEntry{
			SongID: int64(songID),
			Week:   int(week),
			Rank:   int(rank),
		})
	}
	return entries, rows.Err()
}

// Stats summarizes the stored decomposition.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	var songs, entries uint64
	if err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM songs").Scan(&songs); err != nil {
		return nil, fmt.Errorf("counting songs: %w", err)
	}
	if err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM chart_entries").Scan(&entries); err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}
	stats.Songs = int64(songs)
	stats.Entries = int64(entries)

	rows, err := s.conn.Query(ctx, `
		SELECT stage, table_name, row_count, columns
		FROM stages ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st       models.StageInfo
			rowCount uint64
		)
		if err := rows.Scan(&st.Stage, &st.Table, &rowCount, &st.Columns); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		st.Rows = int(rowCount)
		stats.Stages = append(stats.Stages, st)
	}
	return stats, rows.Err()
}

// Clear truncates all tables.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"chart_entries", "songs", "stages"} {
		if err := s.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
			return fmt.Errorf("truncating %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
