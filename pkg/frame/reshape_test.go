package frame

import (
	"testing"
)

func wideFixture(t *testing.T) *Frame {
	t.Helper()
	return mustNew(t, []string{"artist", "track", "w1", "w2", "w3"},
		[]Value{String("2 Pac"), String("Baby Don't Cry"), Int(87), Int(82), Null()},
		[]Value{String("2Ge+her"), String("The Hardest Part"), Int(91), Null(), Null()},
	)
}

func TestMelt(t *testing.T) {
	wide := wideFixture(t)

	long, err := wide.Melt(Melt{
		IDColumns:    []string{"artist", "track"},
		ValueColumns: []string{"w1", "w2", "w3"},
		VarColumn:    "week",
		ValueColumn:  "rank",
		DropNull:     true,
	})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}

	// One row per non-null measure cell
	if long.Len() != 3 {
		t.Fatalf("melted len = %d, want 3", long.Len())
	}
	if got := long.Columns(); len(got) != 4 || got[2] != "week" || got[3] != "rank" {
		t.Errorf("melted columns = %v", got)
	}
	if v, _ := long.Cell(1, "week"); !v.Equal(String("w2")) {
		t.Errorf("row 1 week = %v, want w2", v)
	}
	if v, _ := long.Cell(2, "rank"); !v.Equal(Int(91)) {
		t.Errorf("row 2 rank = %v, want 91", v)
	}
}

func TestMeltKeepNull(t *testing.T) {
	wide := wideFixture(t)

	long, err := wide.Melt(Melt{
		IDColumns:    []string{"artist", "track"},
		ValueColumns: []string{"w1", "w2", "w3"},
		VarColumn:    "week",
		ValueColumn:  "rank",
	})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}
	if long.Len() != 6 {
		t.Errorf("melted len = %d, want 6 (nulls kept)", long.Len())
	}
}

func TestMeltPivotRoundTrip(t *testing.T) {
	wide := wideFixture(t)

	long, err := wide.Melt(Melt{
		IDColumns:    []string{"artist", "track"},
		ValueColumns: []string{"w1", "w2", "w3"},
		VarColumn:    "week",
		ValueColumn:  "rank",
		DropNull:     true,
	})
	if err != nil {
		t.Fatalf("Melt: %v", err)
	}

	// Re-pivoting restores the original wide frame; the dropped missing
	// cells come back as nulls.
	back, err := long.Pivot(Pivot{
		IDColumns:    []string{"artist", "track"},
		VarColumn:    "week",
		ValueColumn:  "rank",
		ValueColumns: []string{"w1", "w2", "w3"},
	})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if !back.Equal(wide) {
		t.Errorf("round trip mismatch\ngot:\n%s\nwant:\n%s", back, wide)
	}
}

func TestPivotErrors(t *testing.T) {
	long := mustNew(t, []string{"id", "var", "val"},
		[]Value{Int(1), String("w1"), Int(10)},
		[]Value{Int(1), String("w1"), Int(20)},
	)

	_, err := long.Pivot(Pivot{
		IDColumns:    []string{"id"},
		VarColumn:    "var",
		ValueColumn:  "val",
		ValueColumns: []string{"w1"},
	})
	if err == nil {
		t.Error("duplicate (id, variable) should fail")
	}

	// A null first value is still an occupied cell
	long2 := mustNew(t, []string{"id", "var", "val"},
		[]Value{Int(1), String("w1"), Null()},
		[]Value{Int(1), String("w1"), Int(10)},
	)
	_, err = long2.Pivot(Pivot{
		IDColumns:    []string{"id"},
		VarColumn:    "var",
		ValueColumn:  "val",
		ValueColumns: []string{"w1"},
	})
	if err == nil {
		t.Error("duplicate (id, variable) with null value should fail")
	}

	long3 := mustNew(t, []string{"id", "var", "val"},
		[]Value{Int(1), String("w9"), Int(10)},
	)
	_, err = long3.Pivot(Pivot{
		IDColumns:    []string{"id"},
		VarColumn:    "var",
		ValueColumn:  "val",
		ValueColumns: []string{"w1"},
	})
	if err == nil {
		t.Error("unknown variable should fail")
	}
}
