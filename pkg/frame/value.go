package frame

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the type of a cell.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
)

// Value is a single cell. The zero value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// Null returns a null cell.
func Null() Value { return Value{} }

// String returns a string cell.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float cell.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Kind returns the cell's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the cell's string content. Non-string cells render via
// String().
func (v Value) AsString() string { return v.String() }

// AsInt returns the integer content of an int cell, or the truncated value
// of a float cell. ok is false for null and string cells.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

// AsFloat returns the numeric content of an int or float cell.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal reports whether two cells have the same kind and content.
func (v Value) Equal(other Value) bool {
	return v == other
}

// Compare orders cells: null < numeric < string; numerics compare by value,
// strings lexicographically. Used for deterministic sorting only.
func (v Value) Compare(other Value) int {
	ra, rb := v.rank(), other.rank()
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1: // numeric
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case 2: // string
		switch {
		case v.s < other.s:
			return -1
		case v.s > other.s:
			return 1
		}
	}
	return 0
}

func (v Value) rank() int {
	switch v.kind {
	case KindInt, KindFloat:
		return 1
	case KindString:
		return 2
	default:
		return 0
	}
}

// String renders the cell. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON renders null cells as JSON null and numeric cells as numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return []byte("null"), nil
	}
}
