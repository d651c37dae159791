package ndarray

import "math"

// Zeros returns an array of the given shape filled with 0.
func Zeros(shape ...int) (*Array, error) {
	return Full(0, shape...)
}

// Ones returns an array of the given shape filled with 1.
func Ones(shape ...int) (*Array, error) {
	return Full(1, shape...)
}

// Full returns an array of the given shape filled with v.
func Full(v float64, shape ...int) (*Array, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	a := alloc(shape, n)
	if v != 0 {
		for i := range a.data {
			a.data[i] = v
		}
	}
	return a, nil
}

// Scalar returns a 0-d array holding v.
func Scalar(v float64) *Array {
	a := alloc(nil, 1)
	a.data[0] = v
	return a
}

// Vector returns a 1-D array holding a copy of values.
func Vector(values []float64) *Array {
	a := alloc([]int{len(values)}, len(values))
	copy(a.data, values)
	return a
}

// Arange returns evenly spaced values in the half-open interval [start, stop).
func Arange(start, stop, step float64) (*Array, error) {
	if step == 0 {
		return nil, shapef("arange step must not be zero")
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsNaN(step) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil, shapef("arange bounds must be finite")
	}
	count := math.Ceil((stop - start) / step)
	if count < 0 {
		count = 0
	}
	if count > MaxElements {
		return nil, shapef("arange of %g elements exceeds the %d element limit", count, MaxElements)
	}
	n := int(count)
	a := alloc([]int{n}, n)
	for i := range a.data {
		a.data[i] = start + float64(i)*step
	}
	return a, nil
}

// Linspace returns n evenly spaced values over the closed interval [start, stop].
func Linspace(start, stop float64, n int) (*Array, error) {
	if n < 0 {
		return nil, shapef("linspace count %d must be non-negative", n)
	}
	if _, err := checkShape([]int{n}); err != nil {
		return nil, err
	}
	a := alloc([]int{n}, n)
	switch n {
	case 0:
	case 1:
		a.data[0] = start
	default:
		step := (stop - start) / float64(n-1)
		for i := range a.data {
			a.data[i] = start + float64(i)*step
		}
		a.data[n-1] = stop
	}
	return a, nil
}

// FromNested builds an array from a float64 or arbitrarily nested []any of
// float64 values. Every list at the same depth must have the same length.
func FromNested(v any) (*Array, error) {
	var shape []int
	cur := v
	for {
		list, ok := cur.([]any)
		if !ok {
			break
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			break
		}
		cur = list[0]
	}
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	a := alloc(shape, n)
	pos := 0
	if err := fill(a, v, 0, &pos); err != nil {
		return nil, err
	}
	return a, nil
}

func fill(a *Array, v any, depth int, pos *int) error {
	if depth == len(a.shape) {
		f, ok := v.(float64)
		if !ok {
			if _, isList := v.([]any); isList {
				return shapef("inhomogeneous nesting at depth %d", depth)
			}
			return shapef("unsupported element of type %T", v)
		}
		a.data[*pos] = f
		*pos++
		return nil
	}
	list, ok := v.([]any)
	if !ok || len(list) != a.shape[depth] {
		return shapef("inhomogeneous nesting at depth %d: expected %d elements", depth, a.shape[depth])
	}
	for _, item := range list {
		if err := fill(a, item, depth+1, pos); err != nil {
			return err
		}
	}
	return nil
}
