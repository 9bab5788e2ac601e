// Package normalizer decomposes the wide chart table through successive
// normal forms. The whole pipeline is four primitives applied in a straight
// line: unpivot the weekly measures, assign surrogate keys, join the keys
// in, then repeatedly move key-dependent columns out of the observation
// table.
package normalizer

import (
	"fmt"

	"github.com/fidde/chart_normalizer/pkg/frame"
	"github.com/fidde/chart_normalizer/pkg/models"
)

// Column names introduced by the pipeline.
const (
	ColSongID = "song_id"
	ColWeek   = "week"
	ColRank   = "rank"
)

// Unpivot folds the weekly measure columns into (week, rank) row pairs,
// dropping missing measures. The result has one row per non-null measure
// cell, with the week column holding the source column header.
func Unpivot(wide *frame.Frame, indexCols, valueCols []string) (*frame.Frame, error) {
	long, err := wide.Melt(frame.Melt{
		IDColumns:    indexCols,
		ValueColumns: valueCols,
		VarColumn:    ColWeek,
		ValueColumn:  ColRank,
		DropNull:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("unpivot: %w", err)
	}
	return long, nil
}

// KeyMap assigns surrogate integer keys to natural-key combinations.
// Assignment is injective and deterministic: first-seen order, starting
// at 1.
type KeyMap struct {
	naturalKey []string
	ids        map[string]int64
	keys       *frame.Frame
}

// AssignKeys deduplicates the natural-key combinations observed in long
// and assigns each a sequential surrogate key.
func AssignKeys(long *frame.Frame, naturalKey []string) (*KeyMap, error) {
	distinct, err := long.Select(naturalKey...)
	if err != nil {
		return nil, fmt.Errorf("assign keys: %w", err)
	}
	distinct = distinct.Distinct()

	ids := make(map[string]int64, distinct.Len())
	cols := append([]string{ColSongID}, naturalKey...)
	rows := make([][]frame.Value, distinct.Len())
	for i := 0; i < distinct.Len(); i++ {
		id := int64(i + 1)
		ids[frame.Key(distinct.Row(i))] = id
		row := make([]frame.Value, 0, len(cols))
		row = append(row, frame.Int(id))
		row = append(row, distinct.Row(i)...)
		rows[i] = row
	}

	keys, err := frame.New(cols, rows...)
	if err != nil {
		return nil, fmt.Errorf("assign keys: %w", err)
	}
	return &KeyMap{naturalKey: naturalKey, ids: ids, keys: keys}, nil
}

// Len returns the number of distinct natural keys.
func (k *KeyMap) Len() int {
	return len(k.ids)
}

// Lookup returns the surrogate key for a natural-key tuple.
func (k *KeyMap) Lookup(tuple []frame.Value) (int64, bool) {
	id, ok := k.ids[frame.Key(tuple)]
	return id, ok
}

// Frame returns the key table: song_id followed by the natural-key
// columns, one row per distinct combination.
func (k *KeyMap) Frame() *frame.Frame {
	return k.keys
}

// JoinKeys attaches the surrogate key to every row of long and drops the
// natural-key columns. A tuple absent from the mapping cannot occur when
// the mapping was built from the same table, and fails with
// models.ErrKeyNotFound.
func JoinKeys(long *frame.Frame, keys *KeyMap) (*frame.Frame, error) {
	natIdx := make([]frame.Value, len(keys.naturalKey))
	ids := make([]frame.Value, long.Len())
	for i := 0; i < long.Len(); i++ {
		for j, col := range keys.naturalKey {
			cell, err := long.Cell(i, col)
			if err != nil {
				return nil, fmt.Errorf("join keys: %w", err)
			}
			natIdx[j] = cell
		}
		id, ok := keys.Lookup(natIdx)
		if !ok {
			return nil, fmt.Errorf("join keys: row %d key %v: %w", i, natIdx, models.ErrKeyNotFound)
		}
		ids[i] = frame.Int(id)
	}

	keyed, err := long.AppendColumn(ColSongID, ids)
	if err != nil {
		return nil, fmt.Errorf("join keys: %w", err)
	}
	keyed, err = keyed.Drop(keys.naturalKey...)
	if err != nil {
		return nil, fmt.Errorf("join keys: %w", err)
	}

	// Put the surrogate key first.
	cols := []string{ColSongID}
	for _, c := range keyed.Columns() {
		if c != ColSongID {
			cols = append(cols, c)
		}
	}
	keyed, err = keyed.Select(cols...)
	if err != nil {
		return nil, fmt.Errorf("join keys: %w", err)
	}
	return keyed, nil
}

// ExtractDependent moves columns that depend only on key out of table.
// It returns the reduced table with cols removed, and the extracted table
// holding key plus cols, deduplicated by key. A column taking more than
// one value for the same key fails with models.ErrDependencyViolation.
//
// This is the single mechanism behind every normal-form refinement; 2NF,
// 3NF and 4NF differ only in which columns are handed to it.
func ExtractDependent(table *frame.Frame, key, cols []string) (reduced, extracted *frame.Frame, err error) {
	selected := append(append([]string(nil), key...), cols...)
	extracted, err = table.Select(selected...)
	if err != nil {
		return nil, nil, fmt.Errorf("extract dependent: %w", err)
	}
	extracted = extracted.Distinct()

	keysOnly, err := extracted.Select(key...)
	if err != nil {
		return nil, nil, fmt.Errorf("extract dependent: %w", err)
	}
	if keysOnly.Distinct().Len() != extracted.Len() {
		return nil, nil, fmt.Errorf("columns %v are not determined by %v: %w",
			cols, key, models.ErrDependencyViolation)
	}

	reduced, err = table.Drop(cols...)
	if err != nil {
		return nil, nil, fmt.Errorf("extract dependent: %w", err)
	}
	return reduced, extracted, nil
}
