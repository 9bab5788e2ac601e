package frame

import (
	"fmt"
)

// Join performs an inner natural join on the named columns. The result has
// the left frame's columns followed by the right frame's non-join columns.
// Left row order is preserved; multiple right matches multiply rows.
func (f *Frame) Join(other *Frame, on ...string) (*Frame, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("join: at least one join column is required")
	}
	leftIdx, err := f.colIndexes(on)
	if err != nil {
		return nil, fmt.Errorf("join left columns: %w", err)
	}
	rightIdx, err := other.colIndexes(on)
	if err != nil {
		return nil, fmt.Errorf("join right columns: %w", err)
	}

	joinCols := make(map[string]struct{}, len(on))
	for _, c := range on {
		joinCols[c] = struct{}{}
	}
	var carryIdx []int
	cols := f.Columns()
	for i, c := range other.cols {
		if _, isJoin := joinCols[c]; isJoin {
			continue
		}
		if f.HasColumn(c) {
			return nil, fmt.Errorf("join: column %q exists on both sides", c)
		}
		carryIdx = append(carryIdx, i)
		cols = append(cols, c)
	}

	// Hash the right side by join key.
	index := make(map[string][][]Value, other.Len())
	for _, row := range other.rows {
		key := make([]Value, len(rightIdx))
		for i, k := range rightIdx {
			key[i] = row[k]
		}
		ks := keyOf(key)
		index[ks] = append(index[ks], row)
	}

	var rows [][]Value
	for _, row := range f.rows {
		key := make([]Value, len(leftIdx))
		for i, k := range leftIdx {
			key[i] = row[k]
		}
		for _, match := range index[keyOf(key)] {
			out := make([]Value, 0, len(cols))
			out = append(out, row...)
			for _, k := range carryIdx {
				out = append(out, match[k])
			}
			rows = append(rows, out)
		}
	}
	return New(cols, rows...)
}
