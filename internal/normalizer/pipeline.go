package normalizer

import (
	"fmt"
	"log"

	"github.com/fidde/chart_normalizer/internal/config"
	"github.com/fidde/chart_normalizer/pkg/frame"
	"github.com/fidde/chart_normalizer/pkg/models"
)

// Pipeline runs the full decomposition for a configured schema.
type Pipeline struct {
	schema *config.Schema
}

// New creates a pipeline for the given schema.
func New(schema *config.Schema) *Pipeline {
	return &Pipeline{schema: schema}
}

// Normalize decomposes the wide frame into the entity and observation
// tables: unpivot, assign keys, join keys, then one dependent-column
// extraction per configured step. weekCols are the measure columns as
// found by the loader.
func (p *Pipeline) Normalize(wide *frame.Frame, weekCols []string) (*models.Decomposition, error) {
	d := &models.Decomposition{}
	record := func(stage, table string, f *frame.Frame) {
		d.Stages = append(d.Stages, models.StageInfo{
			Stage:   stage,
			Table:   table,
			Rows:    f.Len(),
			Columns: f.Columns(),
		})
	}
	record("unf", "wide", wide)

	weekSet := make(map[string]struct{}, len(weekCols))
	for _, c := range weekCols {
		weekSet[c] = struct{}{}
	}
	var indexCols []string
	for _, c := range wide.Columns() {
		if _, isWeek := weekSet[c]; !isWeek {
			indexCols = append(indexCols, c)
		}
	}

	long, err := Unpivot(wide, indexCols, weekCols)
	if err != nil {
		return nil, err
	}
	long, err = p.resolveWeeks(long)
	if err != nil {
		return nil, err
	}
	record("1nf", "long", long)

	keys, err := AssignKeys(long, p.schema.NaturalKey)
	if err != nil {
		return nil, err
	}
	entries, err := JoinKeys(long, keys)
	if err != nil {
		return nil, err
	}
	entries, err = dedupeEntries(entries)
	if err != nil {
		return nil, err
	}
	songs := keys.Frame()
	record("1nf", "song_keys", songs)

	for _, step := range p.schema.Steps {
		var extracted *frame.Frame
		entries, extracted, err = ExtractDependent(entries, []string{ColSongID}, step.Columns)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", step.Stage, err)
		}
		songs, err = songs.Join(extracted, ColSongID)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", step.Stage, err)
		}
		record(step.Stage, "entries", entries)
		record(step.Stage, "songs", songs)
	}

	d.Songs, err = p.buildSongs(songs)
	if err != nil {
		return nil, err
	}
	d.Entries, err = buildEntries(entries)
	if err != nil {
		return nil, err
	}

	log.Printf("Normalized %d wide rows into %d songs and %d chart entries (%d stages)",
		wide.Len(), len(d.Songs), len(d.Entries), len(d.Stages))
	return d, nil
}

// dedupeEntries enforces the composite key (song_id, week). The wide input
// may repeat identifying-field combinations, so exact duplicate rows are
// collapsed; the same (song_id, week) with different ranks has no single
// correct row and fails.
func dedupeEntries(entries *frame.Frame) (*frame.Frame, error) {
	entries = entries.Distinct()
	composite, err := entries.Select(ColSongID, ColWeek)
	if err != nil {
		return nil, err
	}
	if composite.Distinct().Len() != entries.Len() {
		return nil, fmt.Errorf("column %q is not determined by (%s, %s): %w",
			ColRank, ColSongID, ColWeek, models.ErrDependencyViolation)
	}
	return entries, nil
}

// resolveWeeks replaces week column headers in the week column with their
// parsed week numbers.
func (p *Pipeline) resolveWeeks(long *frame.Frame) (*frame.Frame, error) {
	weeks := make([]frame.Value, long.Len())
	for i := 0; i < long.Len(); i++ {
		cell, err := long.Cell(i, ColWeek)
		if err != nil {
			return nil, err
		}
		n, ok := p.schema.WeekIndex(cell.AsString())
		if !ok {
			return nil, fmt.Errorf("column %q does not match week pattern", cell.AsString())
		}
		weeks[i] = frame.Int(int64(n))
	}

	resolved, err := long.Drop(ColWeek)
	if err != nil {
		return nil, err
	}
	return resolved.AppendColumn(ColWeek, weeks)
}

// buildSongs converts the final songs frame into typed rows using the
// schema's column mapping. Columns the steps never extracted stay zero.
func (p *Pipeline) buildSongs(songs *frame.Frame) ([]models.Song, error) {
	out := make([]models.Song, songs.Len())
	cols := p.schema.Columns
	for i := 0; i < songs.Len(); i++ {
		id, err := cellInt(songs, i, ColSongID)
		if err != nil {
			return nil, fmt.Errorf("songs row %d: %w", i, err)
		}
		out[i] = models.Song{
			ID:          id,
			Artist:      cellString(songs, i, cols.Artist),
			Track:       cellString(songs, i, cols.Track),
			Time:        cellString(songs, i, cols.Time),
			Genre:       cellString(songs, i, cols.Genre),
			DateEntered: cellString(songs, i, cols.DateEntered),
			DatePeaked:  cellString(songs, i, cols.DatePeaked),
		}
	}
	return out, nil
}

// buildEntries converts the final observation frame into typed rows.
func buildEntries(entries *frame.Frame) ([]models.ChartEntry, error) {
	out := make([]models.ChartEntry, entries.Len())
	for i := 0; i < entries.Len(); i++ {
		id, err := cellInt(entries, i, ColSongID)
		if err != nil {
			return nil, fmt.Errorf("entries row %d: %w", i, err)
		}
		week, err := cellInt(entries, i, ColWeek)
		if err != nil {
			return nil, fmt.Errorf("entries row %d: %w", i, err)
		}
		rank, err := cellInt(entries, i, ColRank)
		if err != nil {
			return nil, fmt.Errorf("entries row %d: %w", i, err)
		}
		out[i] = models.ChartEntry{SongID: id, Week: int(week), Rank: int(rank)}
	}
	return out, nil
}

func cellInt(f *frame.Frame, row int, col string) (int64, error) {
	cell, err := f.Cell(row, col)
	if err != nil {
		return 0, err
	}
	n, ok := cell.AsInt()
	if !ok {
		return 0, fmt.Errorf("column %q: cell %q is not numeric", col, cell.AsString())
	}
	return n, nil
}

func cellString(f *frame.Frame, row int, col string) string {
	if col == "" || !f.HasColumn(col) {
		return ""
	}
	cell, _ := f.Cell(row, col)
	return cell.AsString()
}
