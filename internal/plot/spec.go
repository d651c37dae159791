// Package plot holds the inert figure description produced by a script run
// and consumed, read-only, by a renderer.
package plot

import "encoding/json"

// Kind is the drawing style of a series.
type Kind string

const (
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindBar     Kind = "bar"
)

// Scale is an axis scale.
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// Source records whether series data came from an array value or an inline
// list of numbers.
type Source string

const (
	SourceArray  Source = "array"
	SourceInline Source = "inline"
)

// Data is a snapshot of the numbers backing one series coordinate.
type Data struct {
	Source Source    `json:"source"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// Len returns the number of values.
func (d Data) Len() int { return len(d.Values) }

// Style holds optional presentation attributes of a series.
type Style struct {
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Marker string  `json:"marker,omitempty"`
}

// Series is one drawn data set. Series are drawn in slice order.
type Series struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label,omitempty"`
	X     Data   `json:"x"`
	Y     Data   `json:"y"`
	Style Style  `json:"style"`
}

// Axis configures one plot axis. Nil limits are left to the renderer.
type Axis struct {
	Label string   `json:"label,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Scale Scale    `json:"scale"`
}

// Spec is a complete figure description.
type Spec struct {
	Title  string   `json:"title,omitempty"`
	XAxis  Axis     `json:"x_axis"`
	YAxis  Axis     `json:"y_axis"`
	Legend bool     `json:"legend"`
	Series []Series `json:"series"`
}

// NewSpec returns an empty figure with linear axes.
func NewSpec() *Spec {
	return &Spec{
		XAxis:  Axis{Scale: ScaleLinear},
		YAxis:  Axis{Scale: ScaleLinear},
		Series: []Series{},
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s *Spec) Clone() *Spec {
	out := *s
	out.XAxis = s.XAxis.clone()
	out.YAxis = s.YAxis.clone()
	out.Series = make([]Series, len(s.Series))
	for i, series := range s.Series {
		series.X = series.X.clone()
		series.Y = series.Y.clone()
		out.Series[i] = series
	}
	return &out
}

func (a Axis) clone() Axis {
	if a.Min != nil {
		v := *a.Min
		a.Min = &v
	}
	if a.Max != nil {
		v := *a.Max
		a.Max = &v
	}
	return a
}

func (d Data) clone() Data {
	d.Shape = append([]int{}, d.Shape...)
	d.Values = append([]float64{}, d.Values...)
	return d
}

// JSON encodes the spec for a renderer.
func (s *Spec) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses a spec previously produced by JSON.
func Decode(data []byte) (*Spec, error) {
	s := NewSpec()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
