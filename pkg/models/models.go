// Package models defines the domain model for normalized chart data.
package models

import "errors"

// Sentinel errors shared across storage backends and the normalizer.
var (
	// ErrNotFound is returned when a requested item doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrKeyNotFound is returned when a natural-key tuple has no surrogate
	// key mapping.
	ErrKeyNotFound = errors.New("key not found")

	// ErrSchemaMismatch is returned when the input file lacks columns the
	// schema requires.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrDependencyViolation is returned when columns declared dependent on
	// a key take more than one value for the same key.
	ErrDependencyViolation = errors.New("functional dependency violation")
)

// Song is one row of the entity table: the attributes determined by the
// song alone, keyed by its surrogate ID.
type Song struct {
	ID          int64  `json:"id"`
	Artist      string `json:"artist"`
	Track       string `json:"track"`
	Time        string `json:"time,omitempty"`
	Genre       string `json:"genre,omitempty"`
	DateEntered string `json:"date_entered,omitempty"`
	DatePeaked  string `json:"date_peaked,omitempty"`
}

// ChartEntry is one row of the observation table: a song's rank in one
// chart week. (SongID, Week) is the composite key.
type ChartEntry struct {
	SongID int64 `json:"song_id"`
	Week   int   `json:"week"`
	Rank   int   `json:"rank"`
}

// StageInfo records the shape of one table at one normalization stage.
type StageInfo struct {
	Stage   string   `json:"stage"`
	Table   string   `json:"table"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// Decomposition is the full normalized output: the entity and observation
// tables plus the stage trail that produced them.
type Decomposition struct {
	Songs   []Song       `json:"songs"`
	Entries []ChartEntry `json:"entries"`
	Stages  []StageInfo  `json:"stages"`
}

// Stats summarizes a stored decomposition.
type Stats struct {
	Songs   int64       `json:"songs"`
	Entries int64       `json:"entries"`
	Stages  []StageInfo `json:"stages"`
}
