package ndarray

import "math"

// Sum returns the sum of all elements. The sum of an empty array is 0.
func (a *Array) Sum() float64 {
	var s float64
	for _, v := range a.data {
		s += v
	}
	return s
}

// Mean returns the arithmetic mean of all elements.
func (a *Array) Mean() (float64, error) {
	if len(a.data) == 0 {
		return 0, shapef("mean of an empty array")
	}
	return a.Sum() / float64(len(a.data)), nil
}

// Min returns the smallest element.
func (a *Array) Min() (float64, error) {
	if len(a.data) == 0 {
		return 0, shapef("min of an empty array")
	}
	m := a.data[0]
	for _, v := range a.data[1:] {
		m = math.Min(m, v)
	}
	return m, nil
}

// Max returns the largest element.
func (a *Array) Max() (float64, error) {
	if len(a.data) == 0 {
		return 0, shapef("max of an empty array")
	}
	m := a.data[0]
	for _, v := range a.data[1:] {
		m = math.Max(m, v)
	}
	return m, nil
}

// SumAxis sums along axis, removing it from the result shape.
func (a *Array) SumAxis(axis int) (*Array, error) {
	return a.reduceAxis(axis, "sum", func(vals []float64) float64 {
		var s float64
		for _, v := range vals {
			s += v
		}
		return s
	}, true)
}

// MeanAxis averages along axis.
func (a *Array) MeanAxis(axis int) (*Array, error) {
	return a.reduceAxis(axis, "mean", func(vals []float64) float64 {
		var s float64
		for _, v := range vals {
			s += v
		}
		return s / float64(len(vals))
	}, false)
}

// MinAxis takes the minimum along axis.
func (a *Array) MinAxis(axis int) (*Array, error) {
	return a.reduceAxis(axis, "min", func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m
	}, false)
}

// MaxAxis takes the maximum along axis.
func (a *Array) MaxAxis(axis int) (*Array, error) {
	return a.reduceAxis(axis, "max", func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m
	}, false)
}

func (a *Array) reduceAxis(axis int, name string, fold func([]float64) float64, allowEmpty bool) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, boundsf("axis %d is out of bounds for array with %d axes", axis, len(a.shape))
	}
	n := a.shape[axis]
	if n == 0 && !allowEmpty {
		return nil, shapef("%s along an empty axis %d", name, axis)
	}
	outer := product(a.shape[:axis])
	inner := product(a.shape[axis+1:])
	shape := make([]int, 0, len(a.shape)-1)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, a.shape[axis+1:]...)
	out := alloc(shape, outer*inner)
	vals := make([]float64, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for k := 0; k < n; k++ {
				vals[k] = a.data[(o*n+k)*inner+i]
			}
			out.data[o*inner+i] = fold(vals)
		}
	}
	return out, nil
}
