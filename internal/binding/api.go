package binding

import (
	"math"

	"github.com/itsmostafa/goplot/internal/ndarray"
	"github.com/itsmostafa/goplot/internal/plot"
)

type builtin func(h *Host, args []Value) (Value, error)

type method func(h *Host, recv Value, args []Value) (Value, error)

var builtins = map[string]builtin{
	"array":    fnArray,
	"zeros":    fnFilled(0),
	"ones":     fnFilled(1),
	"full":     fnFull,
	"arange":   fnArange,
	"linspace": fnLinspace,

	"sin":  fnUnary(math.Sin),
	"cos":  fnUnary(math.Cos),
	"tan":  fnUnary(math.Tan),
	"exp":  fnUnary(math.Exp),
	"log":  fnUnary(math.Log),
	"sqrt": fnUnary(math.Sqrt),
	"abs":  fnUnary(math.Abs),
	"neg":  fnUnary(func(x float64) float64 { return -x }),

	"add": fnArith(OpAdd),
	"sub": fnArith(OpSub),
	"mul": fnArith(OpMul),
	"div": fnArith(OpDiv),
	"pow": fnArith(OpPow),

	"sum":   fnReduce("sum"),
	"mean":  fnReduce("mean"),
	"min":   fnReduce("min"),
	"max":   fnReduce("max"),
	"len":   fnLen,
	"shape": fnShape,

	"plot":      fnSeries("plot", plot.KindLine),
	"scatter":   fnSeries("scatter", plot.KindScatter),
	"bar":       fnSeries("bar", plot.KindBar),
	"title":     fnTitle,
	"set_title": fnTitle,
	"xlabel":    fnLabel("x"),
	"ylabel":    fnLabel("y"),
	"xlim":      fnLimits("x"),
	"ylim":      fnLimits("y"),
	"xscale":    fnScale("x"),
	"yscale":    fnScale("y"),
	"set_axis":  fnSetAxis,
	"legend":    fnLegend,
}

// plotCalls are the globals whose argument errors surface as plot argument
// errors.
var plotCalls = map[string]bool{
	"plot": true, "scatter": true, "bar": true,
	"title": true, "set_title": true,
	"xlabel": true, "ylabel": true, "xlim": true, "ylim": true,
	"xscale": true, "yscale": true, "set_axis": true, "legend": true,
}

var methods = map[string]method{
	"get":       mGet,
	"set":       mSet,
	"slice":     mSlice,
	"assign":    mAssign,
	"reshape":   mReshape,
	"flatten":   mNoArgs(func(a *ndarray.Array) *ndarray.Array { return a.Flatten() }),
	"copy":      mNoArgs(func(a *ndarray.Array) *ndarray.Array { return a.Copy() }),
	"T":         mNoArgs(func(a *ndarray.Array) *ndarray.Array { return a.Transpose() }),
	"transpose": mNoArgs(func(a *ndarray.Array) *ndarray.Array { return a.Transpose() }),
	"sum":       mReduce("sum"),
	"mean":      mReduce("mean"),
	"min":       mReduce("min"),
	"max":       mReduce("max"),
	"add":       mArith(OpAdd),
	"sub":       mArith(OpSub),
	"mul":       mArith(OpMul),
	"div":       mArith(OpDiv),
	"pow":       mArith(OpPow),
	"tolist":    mToList,
	"item":      mItem,
	"len":       mLen,
}

func fnArray(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return None(), err
	}
	a, err := args[0].ToArray()
	if err != nil {
		return None(), err
	}
	if args[0].Kind == KindArray {
		a = a.Copy()
	}
	return ArrayValue(a), nil
}

// shapeArgs accepts zeros(3), zeros(2, 3) and zeros([2, 3]).
func shapeArgs(args []Value) ([]int, error) {
	if err := arity(args, 1, -1); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return args[0].ToShape()
	}
	shape := make([]int, len(args))
	for i, v := range args {
		n, err := v.ToInt()
		if err != nil {
			return nil, err
		}
		shape[i] = n
	}
	return shape, nil
}

func fnFilled(v float64) builtin {
	return func(_ *Host, args []Value) (Value, error) {
		shape, err := shapeArgs(args)
		if err != nil {
			return None(), err
		}
		a, err := ndarray.Full(v, shape...)
		if err != nil {
			return None(), err
		}
		return ArrayValue(a), nil
	}
}

func fnFull(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 2, 2); err != nil {
		return None(), err
	}
	shape, err := args[0].ToShape()
	if err != nil {
		return None(), err
	}
	v, err := args[1].ToFloat()
	if err != nil {
		return None(), err
	}
	a, err := ndarray.Full(v, shape...)
	if err != nil {
		return None(), err
	}
	return ArrayValue(a), nil
}

func floats(args []Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, v := range args {
		f, err := v.ToFloat()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// fnArange follows arange(stop), arange(start, stop) and
// arange(start, stop, step).
func fnArange(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 1, 3); err != nil {
		return None(), err
	}
	f, err := floats(args)
	if err != nil {
		return None(), err
	}
	start, stop, step := 0.0, f[0], 1.0
	if len(f) >= 2 {
		start, stop = f[0], f[1]
	}
	if len(f) == 3 {
		step = f[2]
	}
	a, err := ndarray.Arange(start, stop, step)
	if err != nil {
		return None(), err
	}
	return ArrayValue(a), nil
}

func fnLinspace(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 2, 3); err != nil {
		return None(), err
	}
	f, err := floats(args[:2])
	if err != nil {
		return None(), err
	}
	n := 50
	if len(args) == 3 {
		if n, err = args[2].ToInt(); err != nil {
			return None(), err
		}
	}
	a, err := ndarray.Linspace(f[0], f[1], n)
	if err != nil {
		return None(), err
	}
	return ArrayValue(a), nil
}

func fnUnary(fn func(float64) float64) builtin {
	return func(_ *Host, args []Value) (Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return None(), err
		}
		if args[0].Kind == KindNumber {
			return Number(fn(args[0].Num)), nil
		}
		a, err := args[0].ToArray()
		if err != nil {
			return None(), err
		}
		return ArrayValue(a.Map(fn)), nil
	}
}

func fnArith(op Op) builtin {
	return func(_ *Host, args []Value) (Value, error) {
		if err := arity(args, 2, 2); err != nil {
			return None(), err
		}
		return arith(op, args[0], args[1])
	}
}

func fnReduce(name string) builtin {
	return func(_ *Host, args []Value) (Value, error) {
		if err := arity(args, 1, 2); err != nil {
			return None(), err
		}
		a, err := args[0].ToArray()
		if err != nil {
			return None(), err
		}
		return reduce(name, a, args[1:])
	}
}

// reduce folds a to a number, or along an axis when one is given.
func reduce(name string, a *ndarray.Array, axisArg []Value) (Value, error) {
	if len(axisArg) == 1 && axisArg[0].Kind != KindNone {
		axis, err := axisArg[0].ToInt()
		if err != nil {
			return None(), err
		}
		if axis < 0 {
			axis += a.Ndim()
		}
		var out *ndarray.Array
		switch name {
		case "sum":
			out, err = a.SumAxis(axis)
		case "mean":
			out, err = a.MeanAxis(axis)
		case "min":
			out, err = a.MinAxis(axis)
		default:
			out, err = a.MaxAxis(axis)
		}
		if err != nil {
			return None(), err
		}
		return ArrayValue(out), nil
	}
	var (
		v   float64
		err error
	)
	switch name {
	case "sum":
		v = a.Sum()
	case "mean":
		v, err = a.Mean()
	case "min":
		v, err = a.Min()
	default:
		v, err = a.Max()
	}
	if err != nil {
		return None(), err
	}
	return Number(v), nil
}

func fnLen(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return None(), err
	}
	switch v := args[0]; v.Kind {
	case KindArray:
		if v.Array.Ndim() == 0 {
			return None(), typef("len() of a 0-d array")
		}
		return Int(v.Array.Len()), nil
	case KindList:
		return Int(len(v.List)), nil
	case KindMap:
		return Int(len(v.Map)), nil
	case KindString:
		return Int(len([]rune(v.Str))), nil
	default:
		return None(), typef("%s has no length", v.Kind)
	}
}

func fnShape(_ *Host, args []Value) (Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return None(), err
	}
	a, err := args[0].ToArray()
	if err != nil {
		return None(), err
	}
	return ints(a.Shape()), nil
}

func seriesData(name string, v Value) (plot.Data, error) {
	switch v.Kind {
	case KindArray:
		return plot.FromArray(v.Array), nil
	case KindList:
		f, err := v.ToFloats()
		if err != nil {
			return plot.Data{}, typef("%s: %s", name, err.(*TypeError).Msg)
		}
		return plot.Inline(f), nil
	default:
		return plot.Data{}, typef("%s must be an array or a list of numbers, got %s", name, v.Kind)
	}
}

func seriesStyle(v Value) (label string, st plot.Style, err error) {
	if v.Kind != KindMap {
		return "", st, typef("style must be a map, got %s", v.Kind)
	}
	for key, opt := range v.Map {
		switch key {
		case "label":
			label, err = opt.ToText()
		case "color":
			st.Color, err = opt.ToText()
		case "width":
			st.Width, err = opt.ToFloat()
		case "marker":
			st.Marker, err = opt.ToText()
		default:
			return "", st, typef("unknown style option %q (valid options: label, color, width, marker)", key)
		}
		if err != nil {
			return "", st, typef("style option %q: %s", key, err.(*TypeError).Msg)
		}
	}
	return label, st, nil
}

// fnSeries accepts (y), (y, style), (x, y) and (x, y, style). With y alone
// the x data is 0..len(y)-1.
func fnSeries(call string, kind plot.Kind) builtin {
	return func(h *Host, args []Value) (Value, error) {
		if err := arity(args, 1, 3); err != nil {
			return None(), err
		}
		var style *Value
		if last := args[len(args)-1]; len(args) > 1 && last.Kind == KindMap {
			style = &last
			args = args[:len(args)-1]
		}
		if len(args) > 2 {
			return None(), typef("the third argument must be a style map")
		}
		s := plot.Series{Kind: kind}
		var err error
		if s.Y, err = seriesData("y", args[len(args)-1]); err != nil {
			return None(), err
		}
		if len(args) == 2 {
			if s.X, err = seriesData("x", args[0]); err != nil {
				return None(), err
			}
		} else {
			x := make([]float64, s.Y.Len())
			for i := range x {
				x[i] = float64(i)
			}
			s.X = plot.Inline(x)
		}
		if style != nil {
			if s.Label, s.Style, err = seriesStyle(*style); err != nil {
				return None(), err
			}
		}
		return None(), h.plot.Add(call, s)
	}
}

func fnTitle(h *Host, args []Value) (Value, error) {
	if err := arity(args, 1, 1); err != nil {
		return None(), err
	}
	title, err := args[0].ToText()
	if err != nil {
		return None(), err
	}
	return None(), h.plot.SetTitle(title)
}

func fnLabel(axis string) builtin {
	call := axis + "label"
	return func(h *Host, args []Value) (Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return None(), err
		}
		label, err := args[0].ToText()
		if err != nil {
			return None(), err
		}
		return None(), h.plot.SetLabel(call, axis, label)
	}
}

func fnLimits(axis string) builtin {
	call := axis + "lim"
	return func(h *Host, args []Value) (Value, error) {
		if err := arity(args, 2, 2); err != nil {
			return None(), err
		}
		f, err := floats(args)
		if err != nil {
			return None(), err
		}
		return None(), h.plot.SetLimits(call, axis, f[0], f[1])
	}
}

func fnScale(axis string) builtin {
	call := axis + "scale"
	return func(h *Host, args []Value) (Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return None(), err
		}
		scale, err := args[0].ToText()
		if err != nil {
			return None(), err
		}
		return None(), h.plot.SetScale(call, axis, plot.Scale(scale))
	}
}

// fnSetAxis takes an axis name and a map with any of label, min, max and
// scale.
func fnSetAxis(h *Host, args []Value) (Value, error) {
	if err := arity(args, 2, 2); err != nil {
		return None(), err
	}
	name, err := args[0].ToText()
	if err != nil {
		return None(), err
	}
	if args[1].Kind != KindMap {
		return None(), typef("axis options must be a map, got %s", args[1].Kind)
	}
	var cfg plot.AxisConfig
	for key, opt := range args[1].Map {
		if opt.Kind == KindNone {
			continue
		}
		switch key {
		case "label":
			var label string
			if label, err = opt.ToText(); err == nil {
				cfg.Label = &label
			}
		case "min", "max":
			var f float64
			if f, err = opt.ToFloat(); err == nil {
				if key == "min" {
					cfg.Min = &f
				} else {
					cfg.Max = &f
				}
			}
		case "scale":
			var s string
			if s, err = opt.ToText(); err == nil {
				scale := plot.Scale(s)
				cfg.Scale = &scale
			}
		default:
			return None(), typef("unknown axis option %q (valid options: label, min, max, scale)", key)
		}
		if err != nil {
			return None(), typef("axis option %q: %s", key, err.(*TypeError).Msg)
		}
	}
	return None(), h.plot.ConfigureAxis("set_axis", name, cfg)
}

func fnLegend(h *Host, args []Value) (Value, error) {
	if err := arity(args, 0, 0); err != nil {
		return None(), err
	}
	return None(), h.plot.EnableLegend()
}

func mGet(_ *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 1, -1); err != nil {
		return None(), err
	}
	return index(recv, List(args...))
}

// mSet implements x.set(v, i, j, ...).
func mSet(_ *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 2, -1); err != nil {
		return None(), err
	}
	return None(), setIndex(recv, List(args[1:]...), args[0])
}

func mSlice(_ *Host, recv Value, args []Value) (Value, error) {
	ranges, err := parseRanges(args)
	if err != nil {
		return None(), err
	}
	out, err := recv.Array.Slice(ranges...)
	if err != nil {
		return None(), err
	}
	return ArrayValue(out), nil
}

// mAssign implements x.assign(ranges..., v), writing v into the sliced
// region.
func mAssign(_ *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 1, -1); err != nil {
		return None(), err
	}
	if recv.Frozen {
		return None(), typef("cannot assign into a sub-array copy")
	}
	ranges, err := parseRanges(args[:len(args)-1])
	if err != nil {
		return None(), err
	}
	src, err := args[len(args)-1].ToArray()
	if err != nil {
		return None(), err
	}
	return None(), recv.Array.Assign(src, ranges...)
}

// parseRanges reads slice arguments. Scalars form a single-axis
// (start[, stop[, step]]) selection; otherwise each argument is a per-axis
// [start, stop, step] list or none for the whole axis.
func parseRanges(args []Value) ([]ndarray.Range, error) {
	if len(args) == 0 {
		return nil, nil
	}
	perAxis := false
	for _, a := range args {
		if a.Kind == KindList {
			perAxis = true
		}
	}
	if !perAxis {
		r, err := rangeOf(args)
		if err != nil {
			return nil, err
		}
		return []ndarray.Range{r}, nil
	}
	out := make([]ndarray.Range, len(args))
	for i, a := range args {
		switch a.Kind {
		case KindNone:
			out[i] = ndarray.All()
		case KindList:
			r, err := rangeOf(a.List)
			if err != nil {
				return nil, err
			}
			out[i] = r
		default:
			return nil, typef("slice for axis %d must be a [start, stop, step] list or none, got %s", i, a.Kind)
		}
	}
	return out, nil
}

func rangeOf(parts []Value) (ndarray.Range, error) {
	if len(parts) > 3 {
		return ndarray.Range{}, typef("a slice takes at most start, stop and step, got %d values", len(parts))
	}
	r := ndarray.All()
	bound := func(v Value) (*int, error) {
		if v.Kind == KindNone {
			return nil, nil
		}
		n, err := v.ToInt()
		if err != nil {
			return nil, err
		}
		return ndarray.Int(n), nil
	}
	var err error
	if len(parts) > 0 {
		if r.Start, err = bound(parts[0]); err != nil {
			return r, err
		}
	}
	if len(parts) > 1 {
		if r.Stop, err = bound(parts[1]); err != nil {
			return r, err
		}
	}
	if len(parts) > 2 && parts[2].Kind != KindNone {
		if r.Step, err = parts[2].ToInt(); err != nil {
			return r, err
		}
	}
	return r, nil
}

// mReshape accepts x.reshape(2, 3) and x.reshape([2, 3]).
func mReshape(_ *Host, recv Value, args []Value) (Value, error) {
	shape, err := shapeArgs(args)
	if err != nil {
		return None(), err
	}
	out, err := recv.Array.Reshape(shape...)
	if err != nil {
		return None(), err
	}
	return ArrayValue(out), nil
}

func mNoArgs(fn func(*ndarray.Array) *ndarray.Array) method {
	return func(_ *Host, recv Value, args []Value) (Value, error) {
		if err := arity(args, 0, 0); err != nil {
			return None(), err
		}
		return ArrayValue(fn(recv.Array)), nil
	}
}

func mReduce(name string) method {
	return func(_ *Host, recv Value, args []Value) (Value, error) {
		if err := arity(args, 0, 1); err != nil {
			return None(), err
		}
		return reduce(name, recv.Array, args)
	}
}

func mArith(op Op) method {
	return func(_ *Host, recv Value, args []Value) (Value, error) {
		if err := arity(args, 1, 1); err != nil {
			return None(), err
		}
		return arith(op, recv, args[0])
	}
}

func mToList(_ *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 0, 0); err != nil {
		return None(), err
	}
	return toValue(recv.Array.Nested()), nil
}

// mLen is len(x) as a method, for engines whose own len builtin cannot be
// replaced.
func mLen(h *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 0, 0); err != nil {
		return None(), err
	}
	return fnLen(h, []Value{recv})
}

func mItem(_ *Host, recv Value, args []Value) (Value, error) {
	if err := arity(args, 0, 0); err != nil {
		return None(), err
	}
	v, err := recv.Array.Item()
	if err != nil {
		return None(), err
	}
	return Number(v), nil
}
