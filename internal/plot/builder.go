package plot

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"

	"github.com/itsmostafa/goplot/internal/ndarray"
)

var (
	// ErrPlotArgument reports a malformed drawing call.
	ErrPlotArgument = errors.New("plot argument error")
	// ErrFinalized reports a mutation after the spec was handed off.
	ErrFinalized = errors.New("plot specification already finalized")
)

// ArgumentError is a rejected drawing call. The builder is unchanged when it
// is returned.
type ArgumentError struct {
	Call string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrPlotArgument.Error(), e.Call, e.Msg)
}

func (e *ArgumentError) Unwrap() error { return ErrPlotArgument }

func argf(call, format string, args ...any) error {
	return &ArgumentError{Call: call, Msg: fmt.Sprintf(format, args...)}
}

var (
	hexColor     = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	namedColors  = map[string]bool{"black": true, "white": true, "red": true, "green": true, "blue": true, "gray": true, "grey": true, "orange": true, "purple": true, "cyan": true, "magenta": true, "yellow": true, "brown": true, "pink": true}
	validMarkers = map[string]bool{"": true, "o": true, "x": true, "+": true, "s": true, "^": true, ".": true}
)

// FromArray snapshots an array for use as series data.
func FromArray(a *ndarray.Array) Data {
	return Data{Source: SourceArray, Shape: a.Shape(), Values: a.Data()}
}

// Inline wraps a list of numbers as series data.
func Inline(values []float64) Data {
	return Data{Source: SourceInline, Shape: []int{len(values)}, Values: append([]float64{}, values...)}
}

// AxisConfig is a partial axis update; nil fields are left unchanged.
type AxisConfig struct {
	Label *string
	Min   *float64
	Max   *float64
	Scale *Scale
}

// Builder accumulates a Spec during one run. Every method validates its
// arguments completely before touching the spec.
type Builder struct {
	mu    sync.Mutex
	spec  *Spec
	final bool
}

// NewBuilder returns a builder holding an empty spec.
func NewBuilder() *Builder {
	return &Builder{spec: NewSpec()}
}

// Add appends a series.
func (b *Builder) Add(call string, s Series) error {
	switch s.Kind {
	case KindLine, KindScatter, KindBar:
	default:
		return argf(call, "unknown series kind %q", s.Kind)
	}
	if len(s.X.Shape) != 1 {
		return argf(call, "x must be 1-dimensional, got shape %v", s.X.Shape)
	}
	if len(s.Y.Shape) != 1 {
		return argf(call, "y must be 1-dimensional, got shape %v", s.Y.Shape)
	}
	if s.X.Len() != s.Y.Len() {
		return argf(call, "x and y must have the same length, got %d and %d", s.X.Len(), s.Y.Len())
	}
	if err := validateStyle(call, s.Style); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final {
		return ErrFinalized
	}
	s.X = s.X.clone()
	s.Y = s.Y.clone()
	b.spec.Series = append(b.spec.Series, s)
	return nil
}

func validateStyle(call string, st Style) error {
	if st.Color != "" && !namedColors[st.Color] && !hexColor.MatchString(st.Color) {
		return argf(call, "unknown color %q", st.Color)
	}
	if st.Width < 0 || math.IsNaN(st.Width) || math.IsInf(st.Width, 0) {
		return argf(call, "width must be a non-negative finite number, got %g", st.Width)
	}
	if !validMarkers[st.Marker] {
		return argf(call, "unknown marker %q", st.Marker)
	}
	return nil
}

// SetTitle sets the figure title.
func (b *Builder) SetTitle(title string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final {
		return ErrFinalized
	}
	b.spec.Title = title
	return nil
}

// EnableLegend turns on the series legend.
func (b *Builder) EnableLegend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final {
		return ErrFinalized
	}
	b.spec.Legend = true
	return nil
}

// ConfigureAxis applies cfg to the named axis ("x" or "y").
func (b *Builder) ConfigureAxis(call, name string, cfg AxisConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final {
		return ErrFinalized
	}
	target, err := b.axis(call, name)
	if err != nil {
		return err
	}

	next := target.clone()
	if cfg.Label != nil {
		next.Label = *cfg.Label
	}
	if cfg.Min != nil {
		next.Min = cfg.Min
	}
	if cfg.Max != nil {
		next.Max = cfg.Max
	}
	if cfg.Scale != nil {
		next.Scale = *cfg.Scale
	}
	if err := validateAxis(call, next); err != nil {
		return err
	}
	*target = next.clone()
	return nil
}

// SetLimits fixes both ends of an axis range.
func (b *Builder) SetLimits(call, name string, lo, hi float64) error {
	return b.ConfigureAxis(call, name, AxisConfig{Min: &lo, Max: &hi})
}

// SetLabel sets an axis label.
func (b *Builder) SetLabel(call, name, label string) error {
	return b.ConfigureAxis(call, name, AxisConfig{Label: &label})
}

// SetScale sets an axis scale.
func (b *Builder) SetScale(call, name string, scale Scale) error {
	return b.ConfigureAxis(call, name, AxisConfig{Scale: &scale})
}

func (b *Builder) axis(call, name string) (*Axis, error) {
	switch name {
	case "x":
		return &b.spec.XAxis, nil
	case "y":
		return &b.spec.YAxis, nil
	default:
		return nil, argf(call, "unknown axis %q (valid options: x, y)", name)
	}
}

func validateAxis(call string, a Axis) error {
	switch a.Scale {
	case ScaleLinear, ScaleLog:
	default:
		return argf(call, "unknown scale %q (valid options: linear, log)", a.Scale)
	}
	for _, lim := range []*float64{a.Min, a.Max} {
		if lim != nil && (math.IsNaN(*lim) || math.IsInf(*lim, 0)) {
			return argf(call, "axis limits must be finite")
		}
	}
	if a.Min != nil && a.Max != nil && *a.Min >= *a.Max {
		return argf(call, "axis minimum %g must be below maximum %g", *a.Min, *a.Max)
	}
	if a.Scale == ScaleLog {
		if (a.Min != nil && *a.Min <= 0) || (a.Max != nil && *a.Max <= 0) {
			return argf(call, "log scale limits must be positive")
		}
	}
	return nil
}

// Len returns the number of series added so far.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.spec.Series)
}

// Snapshot returns a deep copy of the spec as it stands.
func (b *Builder) Snapshot() *Spec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spec.Clone()
}

// Finalize seals the builder and returns the spec. It succeeds once.
func (b *Builder) Finalize() (*Spec, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final {
		return nil, ErrFinalized
	}
	b.final = true
	return b.spec, nil
}
