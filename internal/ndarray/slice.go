package ndarray

// Range selects start:stop:step along one axis. A nil Start or Stop means the
// natural end for the step direction. Negative Start and Stop count from the
// end of the axis and out-of-range bounds are clamped. Step must not be zero.
type Range struct {
	Start *int
	Stop  *int
	Step  int
}

// All selects an entire axis.
func All() Range { return Range{Step: 1} }

// Span selects [start, stop) with step 1.
func Span(start, stop int) Range { return Range{Start: &start, Stop: &stop, Step: 1} }

// Int returns a pointer to v, for building Range values.
func Int(v int) *int { return &v }

// resolve converts r into a concrete start, element count and step for an
// axis of length dim.
func (r Range) resolve(dim int) (start, count, step int, err error) {
	step = r.Step
	if step == 0 {
		return 0, 0, 0, shapef("slice step cannot be zero")
	}
	lower, upper := 0, dim
	if step < 0 {
		lower, upper = -1, dim-1
	}
	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += dim
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}
	if step > 0 {
		start = clamp(r.Start, lower)
		stop := clamp(r.Stop, upper)
		if stop > start {
			count = (stop - start + step - 1) / step
		}
	} else {
		start = clamp(r.Start, upper)
		stop := clamp(r.Stop, lower)
		if start > stop {
			count = (start - stop - step - 1) / -step
		}
	}
	return start, count, step, nil
}

type region struct {
	shape  []int
	base   int
	stride []int
}

func (a *Array) region(ranges []Range) (region, error) {
	if len(ranges) > len(a.shape) {
		return region{}, boundsf("too many slice ranges: %d for array with %d axes", len(ranges), len(a.shape))
	}
	nd := len(a.shape)
	r := region{shape: make([]int, nd), stride: make([]int, nd)}
	for ax := 0; ax < nd; ax++ {
		rg := All()
		if ax < len(ranges) {
			rg = ranges[ax]
		}
		start, count, step, err := rg.resolve(a.shape[ax])
		if err != nil {
			return region{}, err
		}
		r.shape[ax] = count
		r.stride[ax] = step * a.strides[ax]
		if count > 0 {
			r.base += start * a.strides[ax]
		}
	}
	return r, nil
}

// walk calls fn with the source offset of every element of r, in row-major
// order of the region.
func (r region) walk(fn func(i, off int)) {
	n := product(r.shape)
	if n == 0 {
		return
	}
	nd := len(r.shape)
	idx := make([]int, nd)
	off := r.base
	for i := 0; i < n; i++ {
		fn(i, off)
		for ax := nd - 1; ax >= 0; ax-- {
			idx[ax]++
			off += r.stride[ax]
			if idx[ax] < r.shape[ax] {
				break
			}
			off -= r.stride[ax] * r.shape[ax]
			idx[ax] = 0
		}
	}
}

// Slice returns a copy of the selected region. Axes without a Range are taken
// whole. The result never aliases a.
func (a *Array) Slice(ranges ...Range) (*Array, error) {
	r, err := a.region(ranges)
	if err != nil {
		return nil, err
	}
	out := alloc(r.shape, product(r.shape))
	r.walk(func(i, off int) {
		out.data[i] = a.data[off]
	})
	return out, nil
}

// Assign writes src, broadcast to the selected region's shape, into a. The
// array is left untouched when src cannot be broadcast to the region.
func (a *Array) Assign(src *Array, ranges ...Range) error {
	r, err := a.region(ranges)
	if err != nil {
		return err
	}
	shape, err := BroadcastShapes(r.shape, src.shape)
	if err != nil {
		return err
	}
	if len(shape) != len(r.shape) {
		return broadcastf("could not broadcast input of shape %v into region of shape %v", src.shape, r.shape)
	}
	for i := range shape {
		if shape[i] != r.shape[i] {
			return broadcastf("could not broadcast input of shape %v into region of shape %v", src.shape, r.shape)
		}
	}
	// Expand src over the region first so the write sees only source values.
	expanded, err := binary(alloc(r.shape, product(r.shape)), src, func(_, y float64) float64 { return y })
	if err != nil {
		return err
	}
	r.walk(func(i, off int) {
		a.data[off] = expanded.data[i]
	})
	return nil
}
