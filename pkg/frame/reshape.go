package frame

import (
	"fmt"
)

// Melt describes an unpivot: the listed value columns are folded into
// (variable, value) row pairs, repeated per combination of the id columns.
type Melt struct {
	// IDColumns are carried through unchanged on every output row.
	IDColumns []string

	// ValueColumns are the measure columns to fold. Each non-dropped cell
	// becomes one output row.
	ValueColumns []string

	// VarColumn names the output column holding the source column name.
	VarColumn string

	// ValueColumn names the output column holding the cell value.
	ValueColumn string

	// DropNull drops output rows whose measure cell is null.
	DropNull bool
}

// Melt unpivots the frame. The output has len(IDColumns)+2 columns and, with
// DropNull set, one row per non-null measure cell.
func (f *Frame) Melt(m Melt) (*Frame, error) {
	idIdx, err := f.colIndexes(m.IDColumns)
	if err != nil {
		return nil, fmt.Errorf("melt id columns: %w", err)
	}
	valIdx, err := f.colIndexes(m.ValueColumns)
	if err != nil {
		return nil, fmt.Errorf("melt value columns: %w", err)
	}
	if m.VarColumn == "" || m.ValueColumn == "" {
		return nil, fmt.Errorf("melt: variable and value column names are required")
	}

	cols := make([]string, 0, len(m.IDColumns)+2)
	cols = append(cols, m.IDColumns...)
	cols = append(cols, m.VarColumn, m.ValueColumn)

	var rows [][]Value
	for _, row := range f.rows {
		for vi, vc := range valIdx {
			cell := row[vc]
			if m.DropNull && cell.IsNull() {
				continue
			}
			out := make([]Value, 0, len(cols))
			for _, k := range idIdx {
				out = append(out, row[k])
			}
			out = append(out, String(m.ValueColumns[vi]), cell)
			rows = append(rows, out)
		}
	}
	return New(cols, rows...)
}

// Pivot is the inverse of Melt: rows sharing the id columns are widened so
// that each distinct variable value becomes its own column.
type Pivot struct {
	// IDColumns identify an output row.
	IDColumns []string

	// VarColumn holds the target column name on each input row.
	VarColumn string

	// ValueColumn holds the cell value on each input row.
	ValueColumn string

	// ValueColumns fixes the output column set and order. Combinations with
	// no matching input row get a null cell.
	ValueColumns []string
}

// Pivot widens the frame. Input rows with a variable not listed in
// ValueColumns are an error, as are duplicate (id, variable) pairs.
func (f *Frame) Pivot(p Pivot) (*Frame, error) {
	idIdx, err := f.colIndexes(p.IDColumns)
	if err != nil {
		return nil, fmt.Errorf("pivot id columns: %w", err)
	}
	varIdx, ok := f.colIndex(p.VarColumn)
	if !ok {
		return nil, fmt.Errorf("pivot variable column %q: %w", p.VarColumn, ErrColumnNotFound)
	}
	valIdx, ok := f.colIndex(p.ValueColumn)
	if !ok {
		return nil, fmt.Errorf("pivot value column %q: %w", p.ValueColumn, ErrColumnNotFound)
	}

	colPos := make(map[string]int, len(p.ValueColumns))
	for i, c := range p.ValueColumns {
		colPos[c] = i
	}

	cols := make([]string, 0, len(p.IDColumns)+len(p.ValueColumns))
	cols = append(cols, p.IDColumns...)
	cols = append(cols, p.ValueColumns...)

	var order []string
	groups := make(map[string][]Value)
	filled := make(map[string]map[int]bool)
	for _, row := range f.rows {
		id := make([]Value, len(idIdx))
		for i, k := range idIdx {
			id[i] = row[k]
		}
		key := keyOf(id)
		out, exists := groups[key]
		if !exists {
			out = make([]Value, len(cols))
			copy(out, id)
			groups[key] = out
			filled[key] = make(map[int]bool)
			order = append(order, key)
		}

		name := row[varIdx].AsString()
		pos, known := colPos[name]
		if !known {
			return nil, fmt.Errorf("pivot: unexpected variable %q", name)
		}
		slot := len(p.IDColumns) + pos
		if filled[key][slot] {
			return nil, fmt.Errorf("pivot: duplicate cell for variable %q", name)
		}
		filled[key][slot] = true
		out[slot] = row[valIdx]
	}

	rows := make([][]Value, len(order))
	for i, key := range order {
		rows[i] = groups[key]
	}
	return New(cols, rows...)
}
