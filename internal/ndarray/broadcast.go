package ndarray

import "math"

// BroadcastShapes returns the shape produced by broadcasting a against b.
// Dimensions are matched right to left; a dimension of 1 stretches to match
// the other operand and any other mismatch is an ErrBroadcast.
func BroadcastShapes(a, b []int) ([]int, error) {
	n := max(len(a), len(b))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if k := len(a) - 1 - i; k >= 0 {
			da = a[k]
		}
		if k := len(b) - 1 - i; k >= 0 {
			db = b[k]
		}
		switch {
		case da == db:
			out[n-1-i] = da
		case da == 1:
			out[n-1-i] = db
		case db == 1:
			out[n-1-i] = da
		default:
			return nil, broadcastf("operands could not be broadcast together with shapes %v %v", a, b)
		}
	}
	return out, nil
}

// broadcastStrides maps a's strides onto an nd-dimensional target shape,
// using a zero stride wherever a is stretched.
func broadcastStrides(a *Array, nd int) []int {
	out := make([]int, nd)
	pad := nd - len(a.shape)
	for j := pad; j < nd; j++ {
		k := j - pad
		if a.shape[k] != 1 {
			out[j] = a.strides[k]
		}
	}
	return out
}

func binary(a, b *Array, fn func(x, y float64) float64) (*Array, error) {
	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	out := alloc(shape, n)
	nd := len(shape)
	as := broadcastStrides(a, nd)
	bs := broadcastStrides(b, nd)
	idx := make([]int, nd)
	ao, bo := 0, 0
	for i := range out.data {
		out.data[i] = fn(a.data[ao], b.data[bo])
		for ax := nd - 1; ax >= 0; ax-- {
			idx[ax]++
			ao += as[ax]
			bo += bs[ax]
			if idx[ax] < shape[ax] {
				break
			}
			ao -= as[ax] * shape[ax]
			bo -= bs[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return out, nil
}

// Add returns a + b with broadcasting.
func Add(a, b *Array) (*Array, error) {
	return binary(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b with broadcasting.
func Sub(a, b *Array) (*Array, error) {
	return binary(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b with broadcasting.
func Mul(a, b *Array) (*Array, error) {
	return binary(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b with broadcasting. Division by zero follows IEEE 754.
func Div(a, b *Array) (*Array, error) {
	return binary(a, b, func(x, y float64) float64 { return x / y })
}

// Pow returns a raised elementwise to b with broadcasting.
func Pow(a, b *Array) (*Array, error) {
	return binary(a, b, math.Pow)
}
