// Package config loads the dataset schema: which columns identify a song,
// which columns are weekly measures, and which columns move out of the
// observation table at each normalization stage.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Columns maps the logical fields of the wide dataset to its actual CSV
// header names.
type Columns struct {
	Artist      string `yaml:"artist"`
	Track       string `yaml:"track"`
	Time        string `yaml:"time"`
	Genre       string `yaml:"genre"`
	DateEntered string `yaml:"date_entered"`
	DatePeaked  string `yaml:"date_peaked"`
}

// ExtractionStep declares a functional dependency: the listed columns are
// determined by the key alone, so the normalizer moves them out of the
// observation table. Steps are applied in order; each corresponds to one
// normal-form refinement.
type ExtractionStep struct {
	// Stage labels the normal form this step reaches, e.g. "2nf".
	Stage string `yaml:"stage"`

	// Columns are moved out of the observation table by this step.
	Columns []string `yaml:"columns"`
}

// Schema describes the wide input table and how to decompose it.
type Schema struct {
	// NaturalKey lists the columns whose combination identifies a song.
	NaturalKey []string `yaml:"natural_key"`

	// WeekPattern is a regex matching weekly measure column headers. Its
	// first capture group must be the week number.
	WeekPattern string `yaml:"week_pattern"`

	// Columns maps logical fields to CSV header names.
	Columns Columns `yaml:"columns"`

	// Steps are the ordered dependent-column extractions.
	Steps []ExtractionStep `yaml:"steps"`

	weekRe *regexp.Regexp
}

// Default returns the schema for the Billboard Hot 100 dataset, used when
// no schema file is configured.
func Default() *Schema {
	s := &Schema{
		NaturalKey:  []string{"artist", "track"},
		WeekPattern: `^x(\d+)(?:st|nd|rd|th)\.week$`,
		Columns: Columns{
			Artist:      "artist",
			Track:       "track",
			Time:        "time",
			Genre:       "genre",
			DateEntered: "date.entered",
			DatePeaked:  "date.peaked",
		},
		Steps: []ExtractionStep{
			{Stage: "2nf", Columns: []string{"time", "genre"}},
			{Stage: "3nf", Columns: []string{"date.entered"}},
			{Stage: "4nf", Columns: []string{"date.peaked"}},
		},
	}
	s.weekRe = regexp.MustCompile(s.WeekPattern)
	return s
}

// Load reads a schema from a YAML file and compiles it.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema YAML: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) compile() error {
	if len(s.NaturalKey) == 0 {
		return fmt.Errorf("schema: natural_key must list at least one column")
	}
	if s.WeekPattern == "" {
		return fmt.Errorf("schema: week_pattern is required")
	}
	re, err := regexp.Compile(s.WeekPattern)
	if err != nil {
		return fmt.Errorf("compiling week_pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("schema: week_pattern needs a capture group for the week number")
	}
	s.weekRe = re
	return nil
}

// WeekIndex parses a column header as a weekly measure. ok is false when
// the header is not a week column.
func (s *Schema) WeekIndex(col string) (int, bool) {
	m := s.weekRe.FindStringSubmatch(col)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Required returns the non-measure columns the input file must have: the
// natural key, the logical columns, and every step column.
func (s *Schema) Required() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(cols ...string) {
		for _, c := range cols {
			if c == "" {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	add(s.NaturalKey...)
	c := s.Columns
	add(c.Artist, c.Track, c.Time, c.Genre, c.DateEntered, c.DatePeaked)
	for _, step := range s.Steps {
		add(step.Columns...)
	}
	return out
}
