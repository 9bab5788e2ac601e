// Package storage defines the storage interface for normalized chart data.
package storage

import (
	"context"

	"github.com/fidde/chart_normalizer/pkg/models"
)

// Storage is the interface for persisting and querying a decomposition.
// Implementations must be safe for concurrent use.
type Storage interface {
	// ReplaceDecomposition atomically replaces all stored tables with the
	// given decomposition.
	ReplaceDecomposition(ctx context.Context, d *models.Decomposition) error

	// Song operations
	GetSong(ctx context.Context, id int64) (*models.Song, error)
	ListSongs(ctx context.Context, artist string) ([]*models.Song, error)

	// Chart entry operations
	ListEntriesBySong(ctx context.Context, songID int64) ([]models.ChartEntry, error)
	ListEntriesByWeek(ctx context.Context, week int) ([]models.ChartEntry, error)

	// Stats summarizes table cardinalities and the stage trail.
	Stats(ctx context.Context) (*models.Stats, error)

	// Clear removes all data.
	Clear(ctx context.Context) error

	// Close the storage (for cleanup, e.g., DB connections)
	Close() error
}
