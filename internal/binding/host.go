package binding

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/itsmostafa/goplot/internal/ndarray"
	"github.com/itsmostafa/goplot/internal/plot"
)

// Op is an elementwise arithmetic operator reachable from script syntax.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// Options configures a Host.
type Options struct {
	// Output receives print output. Nil discards it.
	Output io.Writer
	// Plot receives drawing calls. Nil gets a fresh builder.
	Plot *plot.Builder
	// Checkpoint runs before every host call. A non-nil error aborts the call.
	Checkpoint func() error
	// MaxCalls bounds the number of host calls per run. Zero means no limit.
	MaxCalls int
}

// Host is the script API for a single run. It is not safe for concurrent use;
// a run drives it from one goroutine.
type Host struct {
	out        io.Writer
	plot       *plot.Builder
	checkpoint func() error
	maxCalls   int
	calls      int
}

// NewHost creates the API surface for one run.
func NewHost(opts Options) *Host {
	h := &Host{
		out:        opts.Output,
		plot:       opts.Plot,
		checkpoint: opts.Checkpoint,
		maxCalls:   opts.MaxCalls,
	}
	if h.out == nil {
		h.out = io.Discard
	}
	if h.plot == nil {
		h.plot = plot.NewBuilder()
	}
	return h
}

// Plot returns the builder the run's drawing calls go to.
func (h *Host) Plot() *plot.Builder { return h.plot }

// Calls returns how many host calls the run has made.
func (h *Host) Calls() int { return h.calls }

// Names lists every global function, including print and println.
func Names() []string {
	names := []string{"print", "println"}
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// enter is the cooperative checkpoint shared by every host call.
func (h *Host) enter() error {
	h.calls++
	if h.maxCalls > 0 && h.calls > h.maxCalls {
		return fmt.Errorf("%w: limit is %d calls", ErrBudget, h.maxCalls)
	}
	if h.checkpoint != nil {
		return h.checkpoint()
	}
	return nil
}

// Call invokes a global function by name.
func (h *Host) Call(name string, args []Value) (Value, error) {
	fn, ok := builtins[name]
	if !ok {
		return None(), typef("undefined function %q", name)
	}
	if err := h.enter(); err != nil {
		return None(), err
	}
	v, err := fn(h, args)
	if err != nil {
		return None(), wrap(name, err)
	}
	return v, nil
}

// HasMethod reports whether arrays have a method called name.
func HasMethod(name string) bool {
	_, ok := methods[name]
	return ok
}

// Method invokes an array method on recv.
func (h *Host) Method(recv Value, name string, args []Value) (Value, error) {
	fn, ok := methods[name]
	if !ok || recv.Kind != KindArray {
		return None(), typef("%s has no method %q", recv.Kind, name)
	}
	if err := h.enter(); err != nil {
		return None(), err
	}
	v, err := fn(h, recv, args)
	if err != nil {
		return None(), wrap(name, err)
	}
	return v, nil
}

// Property returns a read-only array attribute.
func Property(recv Value, name string) (Value, bool) {
	if recv.Kind != KindArray {
		return None(), false
	}
	switch name {
	case "shape":
		return ints(recv.Array.Shape()), true
	case "size":
		return Int(recv.Array.Size()), true
	case "ndim":
		return Int(recv.Array.Ndim()), true
	default:
		return None(), false
	}
}

// BinaryOp applies an arithmetic operator with broadcasting.
func (h *Host) BinaryOp(op Op, l, r Value) (Value, error) {
	if err := h.enter(); err != nil {
		return None(), err
	}
	v, err := arith(op, l, r)
	if err != nil {
		return None(), wrap(op.String(), err)
	}
	return v, nil
}

// Index reads recv[idx]. A full index yields a number; a partial index yields
// a frozen copy of the sub-array.
func (h *Host) Index(recv Value, idx Value) (Value, error) {
	if err := h.enter(); err != nil {
		return None(), err
	}
	v, err := index(recv, idx)
	if err != nil {
		return None(), wrap("index", err)
	}
	return v, nil
}

// SetIndex writes recv[idx] = val.
func (h *Host) SetIndex(recv Value, idx Value, val Value) error {
	if err := h.enter(); err != nil {
		return err
	}
	if err := setIndex(recv, idx, val); err != nil {
		return wrap("index assignment", err)
	}
	return nil
}

// Print writes the already formatted parts separated by spaces and ends the
// line.
func (h *Host) Print(parts []string) error {
	if err := h.enter(); err != nil {
		return err
	}
	_, err := io.WriteString(h.out, strings.Join(parts, " ")+"\n")
	return err
}

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	default:
		return "op"
	}
}

func wrap(call string, err error) error {
	var argErr *plot.ArgumentError
	if errors.As(err, &argErr) || errors.Is(err, plot.ErrFinalized) {
		return err
	}
	var typeErr *TypeError
	if plotCalls[call] && errors.As(err, &typeErr) {
		return &plot.ArgumentError{Call: call, Msg: typeErr.Msg}
	}
	return fmt.Errorf("%s: %w", call, err)
}

func arity(args []Value, lo, hi int) error {
	switch {
	case len(args) >= lo && (hi < 0 || len(args) <= hi):
		return nil
	case lo == hi:
		return typef("wrong number of arguments: want %d, got %d", lo, len(args))
	case hi < 0:
		return typef("wrong number of arguments: want at least %d, got %d", lo, len(args))
	default:
		return typef("wrong number of arguments: want %d to %d, got %d", lo, hi, len(args))
	}
}

func arith(op Op, l, r Value) (Value, error) {
	if l.Kind == KindNumber && r.Kind == KindNumber {
		out, err := arith(op, ArrayValue(ndarray.Scalar(l.Num)), ArrayValue(ndarray.Scalar(r.Num)))
		if err != nil {
			return None(), err
		}
		v, _ := out.Array.Item()
		return Number(v), nil
	}
	a, err := l.ToArray()
	if err != nil {
		return None(), err
	}
	b, err := r.ToArray()
	if err != nil {
		return None(), err
	}
	var out *ndarray.Array
	switch op {
	case OpAdd:
		out, err = ndarray.Add(a, b)
	case OpSub:
		out, err = ndarray.Sub(a, b)
	case OpMul:
		out, err = ndarray.Mul(a, b)
	case OpDiv:
		out, err = ndarray.Div(a, b)
	case OpPow:
		out, err = ndarray.Pow(a, b)
	default:
		return None(), typef("unsupported operator %d", op)
	}
	if err != nil {
		return None(), err
	}
	return ArrayValue(out), nil
}

func outOfBounds(format string, args ...any) error {
	return &ndarray.Error{Kind: ndarray.ErrIndexOutOfBounds, Msg: fmt.Sprintf(format, args...)}
}

// indexTuple resolves an integer or list of integers against a's shape.
// Negative entries count from the end of their axis.
func indexTuple(a *ndarray.Array, idx Value) ([]int, error) {
	var raw []Value
	switch idx.Kind {
	case KindNumber:
		raw = []Value{idx}
	case KindList:
		raw = idx.List
	default:
		return nil, typef("array indices must be integers or lists of integers, got %s", idx.Kind)
	}
	shape := a.Shape()
	if len(raw) > len(shape) {
		return nil, outOfBounds("too many indices: %d for array with %d axes", len(raw), len(shape))
	}
	out := make([]int, len(raw))
	for ax, v := range raw {
		i, err := v.ToInt()
		if err != nil {
			return nil, err
		}
		n := i
		if n < 0 {
			n += shape[ax]
		}
		if n < 0 || n >= shape[ax] {
			return nil, outOfBounds("index %d is out of bounds for axis %d with size %d", i, ax, shape[ax])
		}
		out[ax] = n
	}
	return out, nil
}

func index(recv Value, idx Value) (Value, error) {
	if recv.Kind != KindArray {
		return None(), typef("%s is not indexable", recv.Kind)
	}
	a := recv.Array
	pos, err := indexTuple(a, idx)
	if err != nil {
		return None(), err
	}
	if len(pos) == a.Ndim() {
		v, err := a.At(pos...)
		if err != nil {
			return None(), err
		}
		return Number(v), nil
	}
	sub, err := a.Sub(pos...)
	if err != nil {
		return None(), err
	}
	return frozen(sub), nil
}

func setIndex(recv Value, idx Value, val Value) error {
	if recv.Kind != KindArray {
		return typef("%s does not support index assignment", recv.Kind)
	}
	if recv.Frozen {
		return typef("cannot assign into a sub-array copy; index the original with a list, e.g. x[[i, j]] = v")
	}
	a := recv.Array
	pos, err := indexTuple(a, idx)
	if err != nil {
		return err
	}
	if len(pos) == a.Ndim() {
		f, err := val.ToFloat()
		if err != nil {
			return err
		}
		return a.Set(f, pos...)
	}
	src, err := val.ToArray()
	if err != nil {
		return err
	}
	ranges := make([]ndarray.Range, len(pos))
	for i, p := range pos {
		ranges[i] = ndarray.Span(p, p+1)
	}
	return a.Assign(src, ranges...)
}

func toValue(nested any) Value {
	switch v := nested.(type) {
	case float64:
		return Number(v)
	case []any:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = toValue(e)
		}
		return List(out...)
	default:
		return None()
	}
}
