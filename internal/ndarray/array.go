// Package ndarray implements a dense, row-major, n-dimensional float64 array
// with bounds-checked access and numpy-style broadcasting.
//
// Arrays behave as values: arithmetic, slicing, reshaping and sub-array
// extraction always return freshly allocated arrays, so mutating a result
// never changes the array it was derived from. Only Set and Assign mutate in
// place.
package ndarray

import (
	"fmt"
	"math"
	"strings"
)

// MaxElements caps the number of elements a single array may hold. A single
// host operation cannot be interrupted, so this also bounds its running time.
const MaxElements = 1 << 24

// Array is a dense n-dimensional array of float64 values.
type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// New creates an array with the given shape, copying data into it. The number
// of values must equal the product of the shape dimensions.
func New(shape []int, data []float64) (*Array, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, shapef("initializer has %d elements, shape %v needs %d", len(data), shape, n)
	}
	a := alloc(shape, n)
	copy(a.data, data)
	return a, nil
}

// alloc returns a zeroed array. Callers must have validated shape.
func alloc(shape []int, n int) *Array {
	s := append([]int(nil), shape...)
	return &Array{
		shape:   s,
		strides: stridesFor(s),
		data:    make([]float64, n),
	}
}

func checkShape(shape []int) (int, error) {
	n := 1
	for i, d := range shape {
		if d < 0 {
			return 0, shapef("negative dimension %d at axis %d", d, i)
		}
		if d > 0 && n > MaxElements/d {
			return 0, shapef("shape %v exceeds the %d element limit", shape, MaxElements)
		}
		n *= d
	}
	return n, nil
}

func stridesFor(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= shape[i]
	}
	return strides
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// Shape returns a copy of the array dimensions.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Strides returns a copy of the row-major element strides.
func (a *Array) Strides() []int { return append([]int{}, a.strides...) }

// Ndim returns the number of axes.
func (a *Array) Ndim() int { return len(a.shape) }

// Size returns the total number of elements.
func (a *Array) Size() int { return len(a.data) }

// Data returns a copy of the elements in row-major order.
func (a *Array) Data() []float64 { return append([]float64{}, a.data...) }

// Len returns the length of the first axis, or 1 for a 0-d array.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 1
	}
	return a.shape[0]
}

func (a *Array) offset(idx []int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, boundsf("index has %d axes, array has %d", len(idx), len(a.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			return 0, boundsf("index %d is out of bounds for axis %d with size %d", v, i, a.shape[i])
		}
		off += v * a.strides[i]
	}
	return off, nil
}

// At returns the element at idx. Every axis index must lie in [0, shape[i]).
func (a *Array) At(idx ...int) (float64, error) {
	off, err := a.offset(idx)
	if err != nil {
		return 0, err
	}
	return a.data[off], nil
}

// Set stores v at idx, mutating the array in place.
func (a *Array) Set(v float64, idx ...int) error {
	off, err := a.offset(idx)
	if err != nil {
		return err
	}
	a.data[off] = v
	return nil
}

// Item returns the single element of a size-1 array.
func (a *Array) Item() (float64, error) {
	if len(a.data) != 1 {
		return 0, shapef("cannot convert array of size %d to a scalar", len(a.data))
	}
	return a.data[0], nil
}

// Sub fixes the leading axes to prefix and returns the remaining block as a
// new array. Sub with a full index returns a 0-d array.
func (a *Array) Sub(prefix ...int) (*Array, error) {
	if len(prefix) > len(a.shape) {
		return nil, boundsf("too many indices: %d for array with %d axes", len(prefix), len(a.shape))
	}
	off := 0
	for i, v := range prefix {
		if v < 0 || v >= a.shape[i] {
			return nil, boundsf("index %d is out of bounds for axis %d with size %d", v, i, a.shape[i])
		}
		off += v * a.strides[i]
	}
	rest := a.shape[len(prefix):]
	n := product(rest)
	out := alloc(rest, n)
	copy(out.data, a.data[off:off+n])
	return out, nil
}

// Copy returns a deep copy.
func (a *Array) Copy() *Array {
	out := alloc(a.shape, len(a.data))
	copy(out.data, a.data)
	return out
}

// Reshape returns a copy with a new shape holding the same number of
// elements. At most one dimension may be -1, in which case it is inferred.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	resolved := append([]int(nil), shape...)
	infer := -1
	known := 1
	for i, d := range resolved {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, shapef("can only infer one dimension in %v", shape)
			}
			infer = i
		case d < 0:
			return nil, shapef("negative dimension %d at axis %d", d, i)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(a.data)%known != 0 {
			return nil, shapef("cannot reshape array of size %d into shape %v", len(a.data), shape)
		}
		resolved[infer] = len(a.data) / known
	}
	n, err := checkShape(resolved)
	if err != nil {
		return nil, err
	}
	if n != len(a.data) {
		return nil, shapef("cannot reshape array of size %d into shape %v", len(a.data), shape)
	}
	out := alloc(resolved, n)
	copy(out.data, a.data)
	return out, nil
}

// Flatten returns a 1-D copy.
func (a *Array) Flatten() *Array {
	out := alloc([]int{len(a.data)}, len(a.data))
	copy(out.data, a.data)
	return out
}

// Transpose returns a copy with the axis order reversed.
func (a *Array) Transpose() *Array {
	nd := len(a.shape)
	shape := make([]int, nd)
	for i := range shape {
		shape[i] = a.shape[nd-1-i]
	}
	out := alloc(shape, len(a.data))
	src := make([]int, nd)
	for i := range src {
		src[i] = a.strides[nd-1-i]
	}
	idx := make([]int, nd)
	off := 0
	for i := range out.data {
		out.data[i] = a.data[off]
		for ax := nd - 1; ax >= 0; ax-- {
			idx[ax]++
			off += src[ax]
			if idx[ax] < shape[ax] {
				break
			}
			off -= src[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return out
}

// Map applies fn to every element and returns the result.
func (a *Array) Map(fn func(float64) float64) *Array {
	out := alloc(a.shape, len(a.data))
	for i, v := range a.data {
		out.data[i] = fn(v)
	}
	return out
}

// Neg returns the elementwise negation.
func (a *Array) Neg() *Array {
	return a.Map(func(v float64) float64 { return -v })
}

// Equal reports whether a and b have the same shape and elements.
func Equal(a, b *Array) bool {
	if len(a.shape) != len(b.shape) || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if a.data[i] != b.data[i] && !(math.IsNaN(a.data[i]) && math.IsNaN(b.data[i])) {
			return false
		}
	}
	return true
}

// Nested returns the array as nested []any of float64 values, or a bare
// float64 for a 0-d array.
func (a *Array) Nested() any {
	if len(a.shape) == 0 {
		return a.data[0]
	}
	return a.nested(0, 0)
}

func (a *Array) nested(axis, off int) []any {
	out := make([]any, a.shape[axis])
	for i := range out {
		pos := off + i*a.strides[axis]
		if axis == len(a.shape)-1 {
			out[i] = a.data[pos]
		} else {
			out[i] = a.nested(axis+1, pos)
		}
	}
	return out
}

func (a *Array) String() string {
	if len(a.shape) == 0 {
		return formatFloat(a.data[0])
	}
	var b strings.Builder
	a.format(&b, 0, 0)
	return b.String()
}

func (a *Array) format(b *strings.Builder, axis, off int) {
	b.WriteByte('[')
	for i := 0; i < a.shape[axis]; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		pos := off + i*a.strides[axis]
		if axis == len(a.shape)-1 {
			b.WriteString(formatFloat(a.data[pos]))
		} else {
			a.format(b, axis+1, pos)
		}
	}
	b.WriteByte(']')
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
