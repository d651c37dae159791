package ndarray

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []int
		want    []int
		wantErr bool
	}{
		{name: "equal", a: []int{2, 3}, b: []int{2, 3}, want: []int{2, 3}},
		{name: "column and row", a: []int{3, 1}, b: []int{1, 4}, want: []int{3, 4}},
		{name: "scalar", a: []int{}, b: []int{2, 2}, want: []int{2, 2}},
		{name: "trailing match", a: []int{5, 4}, b: []int{4}, want: []int{5, 4}},
		{name: "rank expansion", a: []int{2, 1, 3}, b: []int{4, 1}, want: []int{2, 4, 3}},
		{name: "one against zero", a: []int{1}, b: []int{0}, want: []int{0}},
		{name: "mismatch", a: []int{3, 2}, b: []int{4, 2}, wantErr: true},
		{name: "trailing mismatch", a: []int{2, 3}, b: []int{2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrBroadcast) {
					t.Errorf("BroadcastShapes() error = %v, want ErrBroadcast", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BroadcastShapes() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BroadcastShapes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddBroadcastOnes(t *testing.T) {
	a, _ := Ones(3, 1)
	b, _ := Ones(1, 4)
	got, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	want, _ := Full(2, 3, 4)
	if !Equal(got, want) {
		t.Errorf("ones([3,1]) + ones([1,4]) = %v, want %v", got, want)
	}

	c, _ := Ones(3, 2)
	d, _ := Ones(4, 2)
	if _, err := Add(c, d); !errors.Is(err, ErrBroadcast) {
		t.Errorf("ones([3,2]) + ones([4,2]) error = %v, want ErrBroadcast", err)
	}
}

func TestArithmetic(t *testing.T) {
	col := mustNew(t, []int{2, 1}, []float64{1, 2})
	row := Vector([]float64{10, 20, 30})

	tests := []struct {
		name string
		op   func(a, b *Array) (*Array, error)
		want []float64
	}{
		{name: "add", op: Add, want: []float64{11, 21, 31, 12, 22, 32}},
		{name: "sub", op: Sub, want: []float64{-9, -19, -29, -8, -18, -28}},
		{name: "mul", op: Mul, want: []float64{10, 20, 30, 20, 40, 60}},
		{name: "div", op: Div, want: []float64{0.1, 0.05, 1.0 / 30, 0.2, 0.1, 2.0 / 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(col, row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.Shape(), []int{2, 3}) {
				t.Fatalf("shape = %v, want [2 3]", got.Shape())
			}
			for i, v := range got.Data() {
				if math.Abs(v-tt.want[i]) > 1e-12 {
					t.Errorf("element %d = %g, want %g", i, v, tt.want[i])
				}
			}
		})
	}
}

func TestScalarBroadcast(t *testing.T) {
	x := Vector([]float64{1, 2, 3})
	got, err := Mul(x, Scalar(2))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(got, Vector([]float64{2, 4, 6})) {
		t.Errorf("x * 2 = %v, want [2 4 6]", got)
	}
	if !Equal(x, Vector([]float64{1, 2, 3})) {
		t.Errorf("arithmetic mutated its operand: %v", x)
	}
}

func TestReductions(t *testing.T) {
	a := mustNew(t, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})

	if got := a.Sum(); got != 21 {
		t.Errorf("Sum() = %g, want 21", got)
	}
	if got, _ := a.Mean(); got != 3.5 {
		t.Errorf("Mean() = %g, want 3.5", got)
	}
	if got, _ := a.Min(); got != 1 {
		t.Errorf("Min() = %g, want 1", got)
	}
	if got, _ := a.Max(); got != 6 {
		t.Errorf("Max() = %g, want 6", got)
	}

	tests := []struct {
		name string
		fn   func(int) (*Array, error)
		axis int
		want *Array
	}{
		{name: "sum axis 0", fn: a.SumAxis, axis: 0, want: Vector([]float64{5, 7, 9})},
		{name: "sum axis 1", fn: a.SumAxis, axis: 1, want: Vector([]float64{6, 15})},
		{name: "mean axis 1", fn: a.MeanAxis, axis: 1, want: Vector([]float64{2, 5})},
		{name: "min axis 0", fn: a.MinAxis, axis: 0, want: Vector([]float64{1, 2, 3})},
		{name: "max axis 1", fn: a.MaxAxis, axis: 1, want: Vector([]float64{3, 6})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.axis)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	for _, axis := range []int{-1, 2} {
		if _, err := a.SumAxis(axis); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Errorf("SumAxis(%d) error = %v, want ErrIndexOutOfBounds", axis, err)
		}
	}

	empty, _ := Zeros(0)
	if got := empty.Sum(); got != 0 {
		t.Errorf("empty Sum() = %g, want 0", got)
	}
	if _, err := empty.Max(); !errors.Is(err, ErrShape) {
		t.Errorf("empty Max() error = %v, want ErrShape", err)
	}
}

func TestSlice(t *testing.T) {
	a := Vector([]float64{0, 1, 2, 3, 4, 5})

	tests := []struct {
		name string
		r    Range
		want []float64
	}{
		{name: "all", r: All(), want: []float64{0, 1, 2, 3, 4, 5}},
		{name: "span", r: Span(1, 4), want: []float64{1, 2, 3}},
		{name: "negative stop", r: Range{Start: Int(1), Stop: Int(-1), Step: 1}, want: []float64{1, 2, 3, 4}},
		{name: "negative start", r: Range{Start: Int(-2), Step: 1}, want: []float64{4, 5}},
		{name: "step", r: Range{Step: 2}, want: []float64{0, 2, 4}},
		{name: "reverse", r: Range{Step: -1}, want: []float64{5, 4, 3, 2, 1, 0}},
		{name: "reverse step", r: Range{Start: Int(4), Stop: Int(0), Step: -2}, want: []float64{4, 2}},
		{name: "clamped", r: Range{Start: Int(-100), Stop: Int(100), Step: 1}, want: []float64{0, 1, 2, 3, 4, 5}},
		{name: "empty", r: Span(4, 2), want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Slice(tt.r)
			if err != nil {
				t.Fatalf("Slice() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.Data(), tt.want) {
				t.Errorf("Slice() = %v, want %v", got.Data(), tt.want)
			}
		})
	}

	if _, err := a.Slice(Range{Step: 0}); !errors.Is(err, ErrShape) {
		t.Errorf("step 0 error = %v, want ErrShape", err)
	}
	if _, err := a.Slice(All(), All()); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Errorf("too many ranges error = %v, want ErrIndexOutOfBounds", err)
	}
}

func TestSliceOfSlice(t *testing.T) {
	a, _ := Arange(0, 20, 1)

	direct, err := a.Slice(Range{Start: Int(4), Stop: Int(16), Step: 2})
	if err != nil {
		t.Fatal(err)
	}
	outer, _ := a.Slice(Span(2, 18))
	nested, err := outer.Slice(Range{Start: Int(2), Stop: Int(14), Step: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(direct, nested) {
		t.Errorf("slice of slice = %v, direct slice = %v", nested, direct)
	}

	same, _ := direct.Slice(All())
	if !Equal(same, direct) {
		t.Errorf("full slice of slice = %v, want %v", same, direct)
	}
}

func TestSliceDoesNotAlias(t *testing.T) {
	a := Vector([]float64{1, 2, 3})
	s, _ := a.Slice(Span(0, 2))
	_ = s.Set(42, 0)
	if v, _ := a.At(0); v != 1 {
		t.Errorf("mutating a slice changed its source: %g", v)
	}
}

func TestSlice2D(t *testing.T) {
	a := mustNew(t, []int{3, 3}, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	got, err := a.Slice(Span(1, 3), Range{Step: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := mustNew(t, []int{2, 2}, []float64{4, 6, 7, 9})
	if !Equal(got, want) {
		t.Errorf("Slice = %v, want %v", got, want)
	}
}

func TestAssign(t *testing.T) {
	y := Vector([]float64{0, 1, 2, 3, 4})

	if err := y.Assign(Scalar(9), Range{Start: Int(1), Stop: Int(-1), Step: 1}); err != nil {
		t.Fatal(err)
	}
	if !Equal(y, Vector([]float64{0, 9, 9, 9, 4})) {
		t.Errorf("Assign scalar = %v", y)
	}

	if err := y.Assign(Vector([]float64{7, 8}), Span(0, 2)); err != nil {
		t.Fatal(err)
	}
	if !Equal(y, Vector([]float64{7, 8, 9, 9, 4})) {
		t.Errorf("Assign vector = %v", y)
	}

	before := y.Copy()
	if err := y.Assign(Vector([]float64{1, 2, 3}), Span(0, 2)); !errors.Is(err, ErrBroadcast) {
		t.Errorf("Assign mismatched error = %v, want ErrBroadcast", err)
	}
	if !Equal(y, before) {
		t.Errorf("failed Assign mutated the array: %v", y)
	}
}

func TestConstructors(t *testing.T) {
	a, err := Arange(0, 1, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(a, Vector([]float64{0, 0.25, 0.5, 0.75})) {
		t.Errorf("Arange = %v", a)
	}
	if _, err := Arange(0, 1, 0); !errors.Is(err, ErrShape) {
		t.Errorf("Arange step 0 error = %v, want ErrShape", err)
	}
	if down, _ := Arange(3, 0, -1); !Equal(down, Vector([]float64{3, 2, 1})) {
		t.Errorf("Arange descending = %v", down)
	}

	l, err := Linspace(-1, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(l, Vector([]float64{-1, -0.5, 0, 0.5, 1})) {
		t.Errorf("Linspace = %v", l)
	}

	n, err := FromNested([]any{[]any{1.0, 2.0}, []any{3.0, 4.0}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(n.Shape(), []int{2, 2}) {
		t.Errorf("FromNested shape = %v", n.Shape())
	}
	if _, err := FromNested([]any{[]any{1.0}, []any{2.0, 3.0}}); !errors.Is(err, ErrShape) {
		t.Errorf("ragged FromNested error = %v, want ErrShape", err)
	}
	if _, err := FromNested([]any{"x"}); !errors.Is(err, ErrShape) {
		t.Errorf("non-numeric FromNested error = %v, want ErrShape", err)
	}
}
