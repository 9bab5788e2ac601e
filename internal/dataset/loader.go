// Package dataset reads the wide chart CSV into a frame and validates it
// against the configured schema.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fidde/chart_normalizer/internal/config"
	"github.com/fidde/chart_normalizer/pkg/frame"
	"github.com/fidde/chart_normalizer/pkg/models"
)

// Load reads the CSV at path and returns the wide frame plus the week
// columns found, ordered by week number as they appear in the header.
// A missing required column fails with models.ErrSchemaMismatch.
func Load(path string, schema *config.Schema) (*frame.Frame, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	wide, weeks, err := Read(f, schema)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return wide, weeks, nil
}

// Read parses CSV data from r. Split out from Load so tests can feed
// in-memory data.
func Read(r io.Reader, schema *config.Schema) (*frame.Frame, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	if err := checkSchema(header, schema); err != nil {
		return nil, nil, err
	}

	var weeks []string
	for _, col := range header {
		if _, ok := schema.WeekIndex(col); ok {
			weeks = append(weeks, col)
		}
	}
	if len(weeks) == 0 {
		return nil, nil, fmt.Errorf("no columns match week pattern %q: %w", schema.WeekPattern, models.ErrSchemaMismatch)
	}

	var rows [][]frame.Value
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		row := make([]frame.Value, len(record))
		for i, cell := range record {
			row[i] = parseCell(cell)
		}
		rows = append(rows, row)
	}

	wide, err := frame.New(header, rows...)
	if err != nil {
		return nil, nil, err
	}
	return wide, weeks, nil
}

// checkSchema verifies every required column exists in the header.
func checkSchema(header []string, schema *config.Schema) error {
	present := make(map[string]struct{}, len(header))
	for _, col := range header {
		present[col] = struct{}{}
	}
	var missing []string
	for _, col := range schema.Required() {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns %v: %w", missing, models.ErrSchemaMismatch)
	}
	return nil
}

// parseCell infers the cell type. Empty and NA cells become null, then
// int, then float, falling back to string.
func parseCell(s string) frame.Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return frame.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return frame.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return frame.Float(f)
	}
	return frame.String(s)
}
