package frame

import (
	"errors"
	"testing"
)

func mustNew(t *testing.T, cols []string, rows ...[]Value) *Frame {
	t.Helper()
	f, err := New(cols, rows...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		rows    [][]Value
		wantErr bool
	}{
		{
			name: "valid frame",
			cols: []string{"a", "b"},
			rows: [][]Value{{Int(1), String("x")}},
		},
		{
			name: "empty frame",
			cols: []string{"a"},
		},
		{
			name:    "duplicate column",
			cols:    []string{"a", "a"},
			wantErr: true,
		},
		{
			name:    "ragged row",
			cols:    []string{"a", "b"},
			rows:    [][]Value{{Int(1)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols, tt.rows...)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectAndDrop(t *testing.T) {
	f := mustNew(t, []string{"a", "b", "c"},
		[]Value{Int(1), String("x"), Float(1.5)},
		[]Value{Int(2), String("y"), Float(2.5)},
	)

	sel, err := f.Select("c", "a")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := mustNew(t, []string{"c", "a"},
		[]Value{Float(1.5), Int(1)},
		[]Value{Float(2.5), Int(2)},
	)
	if !sel.Equal(want) {
		t.Errorf("Select got:\n%s\nwant:\n%s", sel, want)
	}

	dropped, err := f.Drop("b")
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if got := dropped.Columns(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Drop columns = %v, want [a c]", got)
	}

	if _, err := f.Select("nope"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Select unknown column error = %v, want ErrColumnNotFound", err)
	}
	if _, err := f.Drop("nope"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Drop unknown column error = %v, want ErrColumnNotFound", err)
	}
}

func TestDistinct(t *testing.T) {
	f := mustNew(t, []string{"a", "b"},
		[]Value{String("x"), Int(1)},
		[]Value{String("x"), Int(1)},
		[]Value{String("x"), Int(2)},
		[]Value{String("x"), Int(1)},
	)

	d := f.Distinct()
	if d.Len() != 2 {
		t.Fatalf("Distinct len = %d, want 2", d.Len())
	}
	// First-seen order is preserved
	if v, _ := d.Cell(0, "b"); !v.Equal(Int(1)) {
		t.Errorf("first row b = %v, want 1", v)
	}
	if v, _ := d.Cell(1, "b"); !v.Equal(Int(2)) {
		t.Errorf("second row b = %v, want 2", v)
	}
}

func TestDistinctDoesNotConfuseTypes(t *testing.T) {
	// "1" as string and 1 as int are different cells
	f := mustNew(t, []string{"a"},
		[]Value{String("1")},
		[]Value{Int(1)},
	)
	if got := f.Distinct().Len(); got != 2 {
		t.Errorf("Distinct len = %d, want 2", got)
	}
}

func TestFilter(t *testing.T) {
	f := mustNew(t, []string{"a"},
		[]Value{Int(1)},
		[]Value{Int(2)},
		[]Value{Int(3)},
	)
	got := f.Filter(func(row []Value) bool {
		n, _ := row[0].AsInt()
		return n%2 == 1
	})
	if got.Len() != 2 {
		t.Errorf("Filter len = %d, want 2", got.Len())
	}
}

func TestAppendColumn(t *testing.T) {
	f := mustNew(t, []string{"a"}, []Value{Int(1)}, []Value{Int(2)})

	g, err := f.AppendColumn("b", []Value{String("x"), String("y")})
	if err != nil {
		t.Fatalf("AppendColumn: %v", err)
	}
	if v, _ := g.Cell(1, "b"); !v.Equal(String("y")) {
		t.Errorf("cell (1, b) = %v, want y", v)
	}

	if _, err := f.AppendColumn("a", []Value{Int(1), Int(2)}); err == nil {
		t.Error("AppendColumn with duplicate name should fail")
	}
	if _, err := f.AppendColumn("c", []Value{Int(1)}); err == nil {
		t.Error("AppendColumn with wrong length should fail")
	}
}

func TestSortBy(t *testing.T) {
	f := mustNew(t, []string{"a", "b"},
		[]Value{String("y"), Int(2)},
		[]Value{String("x"), Int(3)},
		[]Value{String("x"), Int(1)},
	)
	sorted, err := f.SortBy("a", "b")
	if err != nil {
		t.Fatalf("SortBy: %v", err)
	}
	if v, _ := sorted.Cell(0, "b"); !v.Equal(Int(1)) {
		t.Errorf("first row b = %v, want 1", v)
	}
	if v, _ := sorted.Cell(2, "a"); !v.Equal(String("y")) {
		t.Errorf("last row a = %v, want y", v)
	}
	// Input order untouched
	if v, _ := f.Cell(0, "a"); !v.Equal(String("y")) {
		t.Error("SortBy mutated its receiver")
	}
}

func TestValueNullAndJSON(t *testing.T) {
	if !Null().IsNull() {
		t.Error("Null() should be null")
	}
	if Null().String() != "" {
		t.Error("null renders as empty string")
	}

	b, err := Float(2.5).MarshalJSON()
	if err != nil || string(b) != "2.5" {
		t.Errorf("Float JSON = %s, %v", b, err)
	}
	b, _ = Null().MarshalJSON()
	if string(b) != "null" {
		t.Errorf("Null JSON = %s, want null", b)
	}
}
