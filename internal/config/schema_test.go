package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSchema(t *testing.T) {
	// Create a temporary schema file
	tmpDir := t.TempDir()
	schemaFile := filepath.Join(tmpDir, "schema.yaml")

	yamlContent := `natural_key: [artist, track]
week_pattern: '^wk(\d+)$'
columns:
  artist: artist
  track: track
  genre: genre
steps:
  - stage: 2nf
    columns: [genre]
`

	if err := os.WriteFile(schemaFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test schema file: %v", err)
	}

	schema, err := Load(schemaFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(schema.NaturalKey) != 2 || schema.NaturalKey[0] != "artist" {
		t.Errorf("natural key = %v", schema.NaturalKey)
	}
	if len(schema.Steps) != 1 || schema.Steps[0].Stage != "2nf" {
		t.Errorf("steps = %v", schema.Steps)
	}

	week, ok := schema.WeekIndex("wk7")
	if !ok || week != 7 {
		t.Errorf("WeekIndex(wk7) = %d, %v; want 7, true", week, ok)
	}
	if _, ok := schema.WeekIndex("genre"); ok {
		t.Error("WeekIndex(genre) should not match")
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing natural key",
			yaml: "week_pattern: '^wk(\\d+)$'\n",
		},
		{
			name: "missing week pattern",
			yaml: "natural_key: [artist]\n",
		},
		{
			name: "week pattern without capture group",
			yaml: "natural_key: [artist]\nweek_pattern: '^wk\\d+$'\n",
		},
		{
			name: "invalid regex",
			yaml: "natural_key: [artist]\nweek_pattern: '^wk($'\n",
		},
		{
			name: "invalid yaml",
			yaml: "natural_key: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schema.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("writing schema: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load should fail")
			}
		})
	}
}

func TestLoadSchemaMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestDefaultSchema(t *testing.T) {
	schema := Default()

	week, ok := schema.WeekIndex("x1st.week")
	if !ok || week != 1 {
		t.Errorf("WeekIndex(x1st.week) = %d, %v; want 1, true", week, ok)
	}
	week, ok = schema.WeekIndex("x63rd.week")
	if !ok || week != 63 {
		t.Errorf("WeekIndex(x63rd.week) = %d, %v; want 63, true", week, ok)
	}

	required := schema.Required()
	want := map[string]bool{
		"artist": true, "track": true, "time": true, "genre": true,
		"date.entered": true, "date.peaked": true,
	}
	if len(required) != len(want) {
		t.Errorf("required = %v", required)
	}
	for _, col := range required {
		if !want[col] {
			t.Errorf("unexpected required column %q", col)
		}
	}
}
