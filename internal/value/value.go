package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
)

// Value is a sealed interface representing the types a sheet evaluation
// can hand across the engine boundary. Only Float, Int, Bool, String,
// and List implement it. Hosts map these onto their own native
// representation; anything the evaluator produces outside this set is
// carried as its string rendering.
type Value interface {
	value() // Sealed - only these types implement it
}

// Float represents a floating-point result.
type Float float64

func (Float) value() {}

// Int represents an integer result. Always int64.
type Int int64

func (Int) value() {}

// Bool represents a boolean result.
type Bool bool

func (Bool) value() {}

// String represents a string result, and the fallback rendering for
// evaluator types outside the boundary set.
type String string

func (String) value() {}

// List represents an ordered sequence of values. Elements may be any
// Value, including nested lists.
type List []Value

func (List) value() {}

// Render returns the human-readable form of a value, used for text CLI
// output and error messages.
func Render(v Value) string {
	switch val := v.(type) {
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case String:
		return string(val)
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Render(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Clone returns a copy of v that shares no mutable state with the
// original. Cache hits return clones so callers cannot corrupt the
// cached value by mutating a list in place.
func Clone(v Value) Value {
	list, ok := v.(List)
	if !ok {
		// Scalars are copied by value.
		return v
	}
	out := make(List, len(list))
	for i, elem := range list {
		out[i] = Clone(elem)
	}
	return out
}

// Marshal serializes a value to JSON bytes.
// Uses type-switch dispatch to handle all Value types.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Float:
		return json.Marshal(float64(val))
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	case String:
		return json.Marshal(string(val))
	case List:
		elems := make([]json.RawMessage, len(val))
		for i, elem := range val {
			b, err := Marshal(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			elems[i] = b
		}
		return json.Marshal(elems)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// MarshalJSON implements json.Marshaler for List so values embed
// cleanly in larger JSON payloads (CLI responses, harness snapshots).
func (l List) MarshalJSON() ([]byte, error) {
	return Marshal(l)
}

// FromStarlark converts an evaluator result into a boundary Value.
//
// Numbers, booleans, and sequences (lists and tuples) convert
// structurally. Integers that overflow int64 degrade to Float. Every
// other evaluator type falls back to its string rendering.
func FromStarlark(v starlark.Value) Value {
	switch val := v.(type) {
	case starlark.Float:
		return Float(float64(val))
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return Int(i)
		}
		return Float(float64(val.Float()))
	case starlark.Bool:
		return Bool(bool(val))
	case starlark.String:
		return String(string(val))
	case *starlark.List:
		out := make(List, val.Len())
		for i := 0; i < val.Len(); i++ {
			out[i] = FromStarlark(val.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = FromStarlark(elem)
		}
		return out
	default:
		return String(v.String())
	}
}

// ToStarlark converts a boundary Value back into an evaluator value,
// used when a cached result is handed to a nested lookup call.
func ToStarlark(v Value) starlark.Value {
	switch val := v.(type) {
	case Float:
		return starlark.Float(float64(val))
	case Int:
		return starlark.MakeInt64(int64(val))
	case Bool:
		return starlark.Bool(bool(val))
	case String:
		return starlark.String(string(val))
	case List:
		elems := make([]starlark.Value, len(val))
		for i, elem := range val {
			elems[i] = ToStarlark(elem)
		}
		return starlark.NewList(elems)
	default:
		return starlark.None
	}
}
