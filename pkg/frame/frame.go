// Package frame provides small in-memory table primitives: typed cells,
// column projection, deduplication, reshaping and natural joins.
//
// A Frame is an ordered set of named columns over rows of Values. All
// operations are pure: they return new frames and never mutate their
// receiver. The package follows the relational model (every frame can be
// made distinct, joins are natural inner joins on named columns) rather
// than the spreadsheet model.
package frame

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrColumnNotFound is returned when an operation references a column that
// does not exist in the frame.
var ErrColumnNotFound = errors.New("column not found")

// Frame is an immutable table: ordered column names plus rows of cells.
// Every row has exactly one cell per column.
type Frame struct {
	cols []string
	rows [][]Value
}

// New creates a frame from column names and rows. Every row must have
// exactly len(cols) cells.
func New(cols []string, rows ...[]Value) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(cols))
		}
	}
	return &Frame{cols: append([]string(nil), cols...), rows: rows}, nil
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Row returns row i. The returned slice must not be modified.
func (f *Frame) Row(i int) []Value {
	return f.rows[i]
}

// Cell returns the cell at row i, column name.
func (f *Frame) Cell(i int, name string) (Value, error) {
	idx, ok := f.colIndex(name)
	if !ok {
		return Value{}, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	return f.rows[i][idx], nil
}

// HasColumn reports whether the frame has a column with the given name.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.colIndex(name)
	return ok
}

func (f *Frame) colIndex(name string) (int, bool) {
	for i, c := range f.cols {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

func (f *Frame) colIndexes(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := f.colIndex(n)
		if !ok {
			return nil, fmt.Errorf("%q: %w", n, ErrColumnNotFound)
		}
		idx[i] = j
	}
	return idx, nil
}

// Select projects the frame onto the given columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx, err := f.colIndexes(names)
	if err != nil {
		return nil, err
	}
	rows := make([][]Value, len(f.rows))
	for i, row := range f.rows {
		out := make([]Value, len(idx))
		for j, k := range idx {
			out[j] = row[k]
		}
		rows[i] = out
	}
	return New(names, rows...)
}

// Drop removes the given columns, keeping the order of the rest.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	if _, err := f.colIndexes(names); err != nil {
		return nil, err
	}
	dropped := make(map[string]struct{}, len(names))
	for _, n := range names {
		dropped[n] = struct{}{}
	}
	var keep []string
	for _, c := range f.cols {
		if _, drop := dropped[c]; !drop {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// Distinct removes duplicate rows, keeping first occurrences in order.
func (f *Frame) Distinct() *Frame {
	seen := make(map[string]struct{}, len(f.rows))
	var rows [][]Value
	for _, row := range f.rows {
		k := keyOf(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	return &Frame{cols: f.cols, rows: rows}
}

// Filter returns rows for which keep returns true.
func (f *Frame) Filter(keep func(row []Value) bool) *Frame {
	var rows [][]Value
	for _, row := range f.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &Frame{cols: f.cols, rows: rows}
}

// AppendColumn returns a frame with an extra column appended. values must
// have one cell per row.
func (f *Frame) AppendColumn(name string, values []Value) (*Frame, error) {
	if f.HasColumn(name) {
		return nil, fmt.Errorf("duplicate column %q", name)
	}
	if len(values) != len(f.rows) {
		return nil, fmt.Errorf("column %q has %d cells, want %d", name, len(values), len(f.rows))
	}
	rows := make([][]Value, len(f.rows))
	for i, row := range f.rows {
		out := make([]Value, 0, len(row)+1)
		out = append(out, row...)
		out = append(out, values[i])
		rows[i] = out
	}
	return New(append(f.Columns(), name), rows...)
}

// SortBy returns a copy of the frame sorted lexicographically by the given
// columns. The sort is stable, so prior ordering breaks ties.
func (f *Frame) SortBy(names ...string) (*Frame, error) {
	idx, err := f.colIndexes(names)
	if err != nil {
		return nil, err
	}
	rows := append([][]Value(nil), f.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range idx {
			if c := rows[i][k].Compare(rows[j][k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return &Frame{cols: f.cols, rows: rows}, nil
}

// Equal reports whether two frames have identical columns and rows in
// identical order.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || len(f.cols) != len(other.cols) || len(f.rows) != len(other.rows) {
		return false
	}
	for i, c := range f.cols {
		if other.cols[i] != c {
			return false
		}
	}
	for i, row := range f.rows {
		for j, v := range row {
			if !v.Equal(other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// String renders a compact header + row dump, for tests and logs.
func (f *Frame) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(f.cols, " | "))
	for _, row := range f.rows {
		b.WriteByte('\n')
		for j, v := range row {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(v.String())
		}
	}
	return b.String()
}

// Key encodes a row of cells into a collision-free map key, suitable for
// grouping and deduplication across frames.
func Key(vals []Value) string {
	return keyOf(vals)
}

// keyOf encodes a row of cells into a collision-free map key. Each cell is
// length-prefixed so string content cannot forge separators.
func keyOf(vals []Value) string {
	var b strings.Builder
	for _, v := range vals {
		s := v.String()
		fmt.Fprintf(&b, "%d:%d:%s;", v.Kind(), len(s), s)
	}
	return b.String()
}
