package normalizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fidde/chart_normalizer/internal/config"
	"github.com/fidde/chart_normalizer/pkg/frame"
	"github.com/fidde/chart_normalizer/pkg/models"
)

func loadSchema(t *testing.T, yaml string) *config.Schema {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing schema: %v", err)
	}
	schema, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading schema: %v", err)
	}
	return schema
}

func TestNormalizeWorkedExample(t *testing.T) {
	// Two songs, three non-missing measures, no dependent attributes.
	schema := loadSchema(t, `
natural_key: [artist, track]
week_pattern: '^week(\d+)$'
columns:
  artist: artist
  track: track
`)
	wide := mustFrame(t, []string{"artist", "track", "week1", "week2"},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.Int(5), frame.Int(3)},
		[]frame.Value{frame.String("A"), frame.String("T2"), frame.Int(7), frame.Null()},
	)

	d, err := New(schema).Normalize(wide, []string{"week1", "week2"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(d.Songs) != 2 {
		t.Fatalf("songs = %d, want 2", len(d.Songs))
	}
	if d.Songs[0].ID != 1 || d.Songs[0].Artist != "A" || d.Songs[0].Track != "T" {
		t.Errorf("song 1 = %+v", d.Songs[0])
	}
	if d.Songs[1].ID != 2 || d.Songs[1].Track != "T2" {
		t.Errorf("song 2 = %+v", d.Songs[1])
	}

	want := []models.ChartEntry{
		{SongID: 1, Week: 1, Rank: 5},
		{SongID: 1, Week: 2, Rank: 3},
		{SongID: 2, Week: 1, Rank: 7},
	}
	if len(d.Entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(d.Entries), len(want))
	}
	for i, e := range d.Entries {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestNormalizeBillboardSchema(t *testing.T) {
	schema := config.Default()
	wide := mustFrame(t,
		[]string{"artist", "track", "time", "genre", "date.entered", "date.peaked",
			"x1st.week", "x2nd.week", "x3rd.week"},
		[]frame.Value{
			frame.String("2 Pac"), frame.String("Baby Don't Cry"), frame.String("4:22"),
			frame.String("Rap"), frame.String("2000-02-26"), frame.String("2000-03-18"),
			frame.Int(87), frame.Int(82), frame.Null(),
		},
		[]frame.Value{
			frame.String("2Ge+her"), frame.String("The Hardest Part"), frame.String("3:15"),
			frame.String("R&B"), frame.String("2000-09-02"), frame.String("2000-09-09"),
			frame.Int(91), frame.Int(87), frame.Int(92),
		},
	)
	weeks := []string{"x1st.week", "x2nd.week", "x3rd.week"}

	d, err := New(schema).Normalize(wide, weeks)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(d.Songs) != 2 || len(d.Entries) != 5 {
		t.Fatalf("songs = %d, entries = %d; want 2, 5", len(d.Songs), len(d.Entries))
	}

	song := d.Songs[0]
	if song.Genre != "Rap" || song.Time != "4:22" || song.DateEntered != "2000-02-26" || song.DatePeaked != "2000-03-18" {
		t.Errorf("song attributes not migrated: %+v", song)
	}

	// Composite key is unique across entries
	type key struct {
		id   int64
		week int
	}
	seen := make(map[key]bool)
	for _, e := range d.Entries {
		k := key{e.SongID, e.Week}
		if seen[k] {
			t.Errorf("duplicate composite key %+v", k)
		}
		seen[k] = true
	}

	// Stage trail covers every configured normal form
	stages := make(map[string]bool)
	for _, st := range d.Stages {
		stages[st.Stage] = true
	}
	for _, want := range []string{"unf", "1nf", "2nf", "3nf", "4nf"} {
		if !stages[want] {
			t.Errorf("stage %q missing from trail", want)
		}
	}
}

func TestNormalizeRepeatedWideRow(t *testing.T) {
	// The identifying-field combination may repeat in the wide input; an
	// exact duplicate row must collapse to one set of entries.
	schema := loadSchema(t, `
natural_key: [artist, track]
week_pattern: '^week(\d+)$'
columns:
  artist: artist
  track: track
`)
	wide := mustFrame(t, []string{"artist", "track", "week1", "week2"},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.Int(5), frame.Int(3)},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.Int(5), frame.Int(3)},
	)

	d, err := New(schema).Normalize(wide, []string{"week1", "week2"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(d.Songs) != 1 {
		t.Errorf("songs = %d, want 1", len(d.Songs))
	}
	want := []models.ChartEntry{
		{SongID: 1, Week: 1, Rank: 5},
		{SongID: 1, Week: 2, Rank: 3},
	}
	if len(d.Entries) != len(want) {
		t.Fatalf("entries = %v, want %v", d.Entries, want)
	}
	for i, e := range d.Entries {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestNormalizeConflictingRanks(t *testing.T) {
	// The same (song, week) with two different ranks has no single correct
	// observation row and must fail rather than pick one.
	schema := loadSchema(t, `
natural_key: [artist, track]
week_pattern: '^week(\d+)$'
columns:
  artist: artist
  track: track
`)
	wide := mustFrame(t, []string{"artist", "track", "week1"},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.Int(5)},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.Int(7)},
	)

	_, err := New(schema).Normalize(wide, []string{"week1"})
	if !errors.Is(err, models.ErrDependencyViolation) {
		t.Errorf("Normalize error = %v, want ErrDependencyViolation", err)
	}
}

func TestNormalizeDependencyViolation(t *testing.T) {
	// Same song with two genres: the 2NF extraction must refuse.
	schema := loadSchema(t, `
natural_key: [artist, track]
week_pattern: '^week(\d+)$'
columns:
  artist: artist
  track: track
  genre: genre
steps:
  - stage: 2nf
    columns: [genre]
`)
	wide := mustFrame(t, []string{"artist", "track", "genre", "week1"},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.String("Rap"), frame.Int(5)},
		[]frame.Value{frame.String("A"), frame.String("T"), frame.String("Pop"), frame.Int(6)},
	)

	_, err := New(schema).Normalize(wide, []string{"week1"})
	if err == nil {
		t.Fatal("Normalize should fail on a dependency violation")
	}
}
