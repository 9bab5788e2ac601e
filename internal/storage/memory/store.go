// Package memory provides an in-memory storage implementation for
// normalized chart data.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fidde/chart_normalizer/pkg/models"
)

// Store is an in-memory storage for a decomposition.
type Store struct {
	mu sync.RWMutex

	// Entity table: song ID -> song
	songs map[int64]*models.Song

	// Observation table, grouped both ways it is queried
	bySong map[int64][]models.ChartEntry
	byWeek map[int][]models.ChartEntry

	entryCount int64
	stages     []models.StageInfo
}

// New creates a new in-memory store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.songs = make(map[int64]*models.Song)
	s.bySong = make(map[int64][]models.ChartEntry)
	s.byWeek = make(map[int][]models.ChartEntry)
	s.entryCount = 0
	s.stages = nil
}

// ReplaceDecomposition replaces all stored tables.
func (s *Store) ReplaceDecomposition(ctx context.Context, d *models.Decomposition) error {
	if d == nil {
		return fmt.Errorf("decomposition cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for i := range d.Songs {
		song := d.Songs[i]
		s.songs[song.ID] = &song
	}
	for _, e := range d.Entries {
		s.bySong[e.SongID] = append(s.bySong[e.SongID], e)
		s.byWeek[e.Week] = append(s.byWeek[e.Week], e)
	}
	s.entryCount = int64(len(d.Entries))
	s.stages = append([]models.StageInfo(nil), d.Stages...)
	return nil
}

// GetSong retrieves a song by its surrogate key.
func (s *Store) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, exists := s.songs[id]
	if !exists {
		return nil, fmt.Errorf("song %d: %w", id, models.ErrNotFound)
	}
	return song, nil
}

// ListSongs returns all songs ordered by ID, optionally filtered by exact
// artist name.
func (s *Store) ListSongs(ctx context.Context, artist string) ([]*models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]*models.Song, 0, len(s.songs))
	for _, song := range s.songs {
		if artist != "" && song.Artist != artist {
			continue
		}
		songs = append(songs, song)
	}

	sort.Slice(songs, func(i, j int) bool {
		return songs[i].ID < songs[j].ID
	})
	return songs, nil
}

// ListEntriesBySong returns a song's chart trajectory ordered by week.
func (s *Store) ListEntriesBySong(ctx context.Context, songID int64) ([]models.ChartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.songs[songID]; !exists {
		return nil, fmt.Errorf("song %d: %w", songID, models.ErrNotFound)
	}

	entries := append([]models.ChartEntry(nil), s.bySong[songID]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Week < entries[j].Week
	})
	return entries, nil
}

// ListEntriesByWeek returns one chart week ordered by rank.
func (s *Store) ListEntriesByWeek(ctx context.Context, week int) ([]models.ChartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]models.ChartEntry(nil), s.byWeek[week]...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank < entries[j].Rank
		}
		return entries[i].SongID < entries[j].SongID
	})
	return entries, nil
}

// Stats summarizes the stored decomposition.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &models.Stats{
		Songs:   int64(len(s.songs)),
		Entries: s.entryCount,
		Stages:  append([]models.StageInfo(nil), s.stages...),
	}, nil
}

// Clear removes all data.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
