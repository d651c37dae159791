// Package binding exposes ndarray arrays and the plot builder to script
// interpreters. Every value crossing the boundary is converted to a tagged
// Value and validated here; the tengo, goja and Lua adapters only translate
// between their object models and Value.
package binding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/itsmostafa/goplot/internal/ndarray"
)

var (
	// ErrType reports a script value of the wrong type or arity for a call.
	ErrType = errors.New("type error")
	// ErrBudget reports that a run exhausted its host call budget.
	ErrBudget = errors.New("host call budget exceeded")
)

// IsAbort reports whether err ends the run instead of being a script-level
// failure.
func IsAbort(err error) bool {
	return errors.Is(err, ErrBudget) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// TypeError is a rejected conversion or call signature.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return ErrType.Error() + ": " + e.Msg }

func (e *TypeError) Unwrap() error { return ErrType }

func typef(format string, args ...any) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// maxDepth bounds the nesting of lists and maps converted from a script.
// A container that holds itself hits the bound instead of recursing forever.
const maxDepth = 64

func errTooDeep() error {
	return typef("value nested deeper than %d levels (does it contain itself?)", maxDepth)
}

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindBool
	KindString
	KindArray
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "ndarray"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a script value in engine-neutral form.
type Value struct {
	Kind  Kind
	Num   float64
	IsInt bool
	Bool  bool
	Str   string
	Array *ndarray.Array
	// Frozen marks an array produced by indexing. It is a copy, so writes to
	// it are rejected instead of being silently lost.
	Frozen bool
	List   []Value
	Map    map[string]Value
}

func None() Value { return Value{Kind: KindNone} }
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }
func Int(v int) Value { return Value{Kind: KindNumber, Num: float64(v), IsInt: true} }
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }
func String(v string) Value { return Value{Kind: KindString, Str: v} }
func ArrayValue(a *ndarray.Array) Value { return Value{Kind: KindArray, Array: a} }
func List(vs ...Value) Value { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

func frozen(a *ndarray.Array) Value {
	return Value{Kind: KindArray, Array: a, Frozen: true}
}

func ints(vs []int) Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Int(v)
	}
	return List(out...)
}

// ToArray converts numbers, arrays and nested lists of numbers to an array.
// An array value is returned as is, not copied.
func (v Value) ToArray() (*ndarray.Array, error) {
	switch v.Kind {
	case KindArray:
		return v.Array, nil
	case KindNumber:
		return ndarray.Scalar(v.Num), nil
	case KindList:
		nested, err := v.nested()
		if err != nil {
			return nil, err
		}
		return ndarray.FromNested(nested)
	default:
		return nil, typef("expected array, list or number, got %s", v.Kind)
	}
}

func (v Value) nested() (any, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindArray:
		return v.Array.Nested(), nil
	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			n, err := e.nested()
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, typef("array elements must be numbers, got %s", v.Kind)
	}
}

// ToFloat accepts numbers and single-element arrays.
func (v Value) ToFloat() (float64, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindArray:
		if v.Array.Size() == 1 {
			return v.Array.Data()[0], nil
		}
		return 0, typef("expected a number, got array of shape %v", v.Array.Shape())
	default:
		return 0, typef("expected a number, got %s", v.Kind)
	}
}

// ToInt accepts integral numbers.
func (v Value) ToInt() (int, error) {
	f, err := v.ToFloat()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, typef("expected an integer, got %s", strconv.FormatFloat(f, 'g', -1, 64))
	}
	return int(f), nil
}

// ToShape accepts a single integer or a list of integers.
func (v Value) ToShape() ([]int, error) {
	if v.Kind != KindList {
		n, err := v.ToInt()
		if err != nil {
			return nil, typef("shape must be an integer or a list of integers")
		}
		return []int{n}, nil
	}
	shape := make([]int, len(v.List))
	for i, e := range v.List {
		n, err := e.ToInt()
		if err != nil {
			return nil, typef("shape must be an integer or a list of integers")
		}
		shape[i] = n
	}
	return shape, nil
}

// ToFloats flattens a list of numbers or a 1-d array into a float slice.
func (v Value) ToFloats() ([]float64, error) {
	switch v.Kind {
	case KindArray:
		if v.Array.Ndim() != 1 {
			return nil, typef("expected 1-dimensional data, got shape %v", v.Array.Shape())
		}
		return v.Array.Data(), nil
	case KindList:
		out := make([]float64, len(v.List))
		for i, e := range v.List {
			if e.Kind != KindNumber {
				return nil, typef("expected a list of numbers, found %s at position %d", e.Kind, i)
			}
			out[i] = e.Num
		}
		return out, nil
	default:
		return nil, typef("expected array or list of numbers, got %s", v.Kind)
	}
}

// ToText accepts strings only.
func (v Value) ToText() (string, error) {
	if v.Kind != KindString {
		return "", typef("expected a string, got %s", v.Kind)
	}
	return v.Str, nil
}

// String formats v the way print shows it.
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "none"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	case KindArray:
		return v.Array.String()
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.Map[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<unknown>"
	}
}
