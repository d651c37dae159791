package plot

import (
	"errors"
	"reflect"
	"testing"

	"github.com/itsmostafa/goplot/internal/ndarray"
)

func line(x, y []float64) Series {
	return Series{Kind: KindLine, X: Inline(x), Y: Inline(y)}
}

func TestBuilderAddPreservesOrder(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		s := line([]float64{0, 1}, []float64{float64(i), float64(i)})
		s.Label = string(rune('a' + i))
		if err := b.Add("plot", s); err != nil {
			t.Fatalf("Add() unexpected error: %v", err)
		}
	}
	spec := b.Snapshot()
	var labels []string
	for _, s := range spec.Series {
		labels = append(labels, s.Label)
	}
	if !reflect.DeepEqual(labels, []string{"a", "b", "c"}) {
		t.Errorf("series order = %v, want [a b c]", labels)
	}
}

func TestBuilderRejectsWithoutMutation(t *testing.T) {
	matrix, _ := ndarray.Zeros(2, 2)

	tests := []struct {
		name   string
		series Series
	}{
		{name: "length mismatch", series: line([]float64{1, 2}, []float64{1})},
		{name: "2-d data", series: Series{Kind: KindLine, X: FromArray(matrix), Y: FromArray(matrix)}},
		{name: "unknown kind", series: Series{Kind: "pie", X: Inline(nil), Y: Inline(nil)}},
		{name: "bad color", series: Series{Kind: KindLine, X: Inline(nil), Y: Inline(nil), Style: Style{Color: "chartreuse-ish"}}},
		{name: "negative width", series: Series{Kind: KindLine, X: Inline(nil), Y: Inline(nil), Style: Style{Width: -1}}},
		{name: "bad marker", series: Series{Kind: KindScatter, X: Inline(nil), Y: Inline(nil), Style: Style{Marker: "star"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			err := b.Add("plot", tt.series)
			if !errors.Is(err, ErrPlotArgument) {
				t.Fatalf("Add() error = %v, want ErrPlotArgument", err)
			}
			if b.Len() != 0 {
				t.Errorf("rejected Add() left %d series", b.Len())
			}
		})
	}
}

func TestBuilderCopiesData(t *testing.T) {
	values := []float64{1, 2}
	b := NewBuilder()
	if err := b.Add("plot", Series{Kind: KindLine, X: Data{Source: SourceInline, Shape: []int{2}, Values: values}, Y: Inline(values)}); err != nil {
		t.Fatal(err)
	}
	values[0] = 99
	if got := b.Snapshot().Series[0].X.Values[0]; got != 1 {
		t.Errorf("series data aliases caller slice: got %g", got)
	}
}

func TestConfigureAxis(t *testing.T) {
	b := NewBuilder()
	if err := b.SetLimits("xlim", "x", -1, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLabel("xlabel", "x", "time"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "inverted limits", call: func() error { return b.SetLimits("xlim", "x", 2, 1) }},
		{name: "unknown axis", call: func() error { return b.SetLabel("set_axis", "z", "depth") }},
		{name: "unknown scale", call: func() error { return b.SetScale("xscale", "x", "cubic") }},
		{name: "log with negative limit", call: func() error { return b.SetScale("xscale", "x", ScaleLog) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrPlotArgument) {
				t.Errorf("error = %v, want ErrPlotArgument", err)
			}
		})
	}

	x := b.Snapshot().XAxis
	if x.Label != "time" || *x.Min != -1 || *x.Max != 1 || x.Scale != ScaleLinear {
		t.Errorf("x axis changed by rejected calls: %+v", x)
	}
}

func TestFinalizeOnce(t *testing.T) {
	b := NewBuilder()
	if err := b.SetTitle("waves"); err != nil {
		t.Fatal(err)
	}
	spec, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize() unexpected error: %v", err)
	}
	if spec.Title != "waves" {
		t.Errorf("Title = %q, want %q", spec.Title, "waves")
	}
	if _, err := b.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Finalize() error = %v, want ErrFinalized", err)
	}
	if err := b.Add("plot", line(nil, nil)); !errors.Is(err, ErrFinalized) {
		t.Errorf("Add() after Finalize error = %v, want ErrFinalized", err)
	}
	if err := b.EnableLegend(); !errors.Is(err, ErrFinalized) {
		t.Errorf("EnableLegend() after Finalize error = %v, want ErrFinalized", err)
	}
}

func TestSpecJSONRoundTrip(t *testing.T) {
	b := NewBuilder()
	_ = b.Add("plot", line([]float64{1, 2, 3}, []float64{2, 4, 6}))
	_ = b.SetLimits("ylim", "y", 0, 10)
	spec, _ := b.Finalize()

	data, err := spec.JSON()
	if err != nil {
		t.Fatalf("JSON() unexpected error: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(decoded, spec) {
		t.Errorf("decoded spec = %+v, want %+v", decoded, spec)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBuilder()
	_ = b.Add("plot", line([]float64{1}, []float64{1}))
	_ = b.SetLimits("xlim", "x", 0, 1)
	spec := b.Snapshot()
	clone := spec.Clone()
	clone.Series[0].Y.Values[0] = 5
	*clone.XAxis.Min = -3
	if spec.Series[0].Y.Values[0] != 1 || *spec.XAxis.Min != 0 {
		t.Errorf("Clone shares memory with its source")
	}
}
