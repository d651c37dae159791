package binding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/itsmostafa/goplot/internal/ndarray"
	"github.com/itsmostafa/goplot/internal/plot"
)

// ErrorName is the error name a host failure carries into a script, so a JS
// catch block or a Lua pcall handler can branch on e.name.
func ErrorName(err error) string {
	switch {
	case errors.Is(err, ndarray.ErrShape):
		return "ShapeError"
	case errors.Is(err, ndarray.ErrBroadcast):
		return "BroadcastError"
	case errors.Is(err, ndarray.ErrIndexOutOfBounds):
		return "IndexOutOfBounds"
	case errors.Is(err, plot.ErrPlotArgument), errors.Is(err, plot.ErrFinalized):
		return "PlotArgumentError"
	case errors.Is(err, ErrType):
		return "TypeError"
	default:
		return "Error"
	}
}

// InstallJS sets every global function on vm, with console.log as an alias
// for print.
func (h *Host) InstallJS(vm *goja.Runtime) error {
	for _, name := range Names() {
		if err := vm.Set(name, h.jsFunc(vm, name)); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	console := vm.NewObject()
	if err := console.Set("log", h.jsFunc(vm, "print")); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to set console: %w", err)
	}
	return nil
}

// throw raises err inside vm. It must be called from a native function or a
// dynamic object trap, where goja converts the panic into an exception.
// Aborting errors also interrupt the VM so a catch block cannot swallow them.
func throw(vm *goja.Runtime, err error) {
	if IsAbort(err) {
		vm.Interrupt(err)
	}
	obj := vm.NewGoError(err)
	_ = obj.Set("name", ErrorName(err))
	panic(obj)
}

func (h *Host) jsFunc(vm *goja.Runtime, name string) func(goja.FunctionCall) goja.Value {
	if name == "print" || name == "println" {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = jsString(arg)
			}
			if err := h.Print(parts); err != nil {
				throw(vm, err)
			}
			return goja.Undefined()
		}
	}
	return func(call goja.FunctionCall) goja.Value {
		args, err := fromJSArgs(call.Arguments)
		if err != nil {
			throw(vm, wrap(name, err))
		}
		v, err := h.Call(name, args)
		if err != nil {
			throw(vm, err)
		}
		return h.toJS(vm, v)
	}
}

func jsString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "none"
	}
	if a, ok := v.Export().(*jsArray); ok {
		return a.arr.String()
	}
	return v.String()
}

func fromJSArgs(args []goja.Value) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, arg := range args {
		v, err := FromJS(arg)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// FromJS converts a goja value into a Value.
func FromJS(v goja.Value) (Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return None(), nil
	}
	return fromExport(v.Export(), 0)
}

func fromExport(x any, depth int) (Value, error) {
	switch o := x.(type) {
	case nil:
		return None(), nil
	case *jsArray:
		return Value{Kind: KindArray, Array: o.arr, Frozen: o.frozen}, nil
	case int64:
		return Int(int(o)), nil
	case float64:
		return Number(o), nil
	case bool:
		return Bool(o), nil
	case string:
		return String(o), nil
	case []any:
		if depth >= maxDepth {
			return None(), errTooDeep()
		}
		vals := make([]Value, len(o))
		for i, e := range o {
			v, err := fromExport(e, depth+1)
			if err != nil {
				return None(), err
			}
			vals[i] = v
		}
		return List(vals...), nil
	case map[string]any:
		if depth >= maxDepth {
			return None(), errTooDeep()
		}
		m := make(map[string]Value, len(o))
		for k, e := range o {
			v, err := fromExport(e, depth+1)
			if err != nil {
				return None(), err
			}
			m[k] = v
		}
		return Map(m), nil
	default:
		return None(), typef("unsupported value of type %T", x)
	}
}

func (h *Host) toJS(vm *goja.Runtime, v Value) goja.Value {
	switch v.Kind {
	case KindNumber:
		if v.IsInt {
			return vm.ToValue(int64(v.Num))
		}
		return vm.ToValue(v.Num)
	case KindBool:
		return vm.ToValue(v.Bool)
	case KindString:
		return vm.ToValue(v.Str)
	case KindArray:
		return vm.NewDynamicObject(&jsArray{vm: vm, host: h, arr: v.Array, frozen: v.Frozen})
	case KindList:
		elems := make([]any, len(v.List))
		for i, e := range v.List {
			elems[i] = h.toJS(vm, e)
		}
		return vm.NewArray(elems...)
	case KindMap:
		obj := vm.NewObject()
		for k, e := range v.Map {
			_ = obj.Set(k, h.toJS(vm, e))
		}
		return obj
	default:
		return goja.Undefined()
	}
}

// jsArray exposes a host array as a JavaScript object. Numeric keys index
// the first axis; other keys resolve to attributes and methods.
type jsArray struct {
	vm     *goja.Runtime
	host   *Host
	arr    *ndarray.Array
	frozen bool
}

func (o *jsArray) value() Value {
	return Value{Kind: KindArray, Array: o.arr, Frozen: o.frozen}
}

// indexKey parses a property key as an index. JavaScript stringifies
// x[[i, j]] to the key "i,j".
func indexKey(key string) (Value, bool) {
	parts := strings.Split(key, ",")
	vals := make([]Value, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return None(), false
		}
		vals[i] = Int(n)
	}
	if len(vals) == 1 {
		return vals[0], true
	}
	return List(vals...), true
}

func (o *jsArray) Get(key string) goja.Value {
	if idx, ok := indexKey(key); ok {
		v, err := o.host.Index(o.value(), idx)
		if err != nil {
			throw(o.vm, err)
		}
		return o.host.toJS(o.vm, v)
	}
	if v, ok := Property(o.value(), key); ok {
		return o.host.toJS(o.vm, v)
	}
	switch key {
	case "length":
		if o.arr.Ndim() == 0 {
			return nil
		}
		return o.vm.ToValue(o.arr.Len())
	case "toString":
		return o.vm.ToValue(func(goja.FunctionCall) goja.Value {
			return o.vm.ToValue(o.arr.String())
		})
	}
	if !HasMethod(key) {
		return nil
	}
	name := key
	return o.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args, err := fromJSArgs(call.Arguments)
		if err != nil {
			throw(o.vm, wrap(name, err))
		}
		v, err := o.host.Method(o.value(), name, args)
		if err != nil {
			throw(o.vm, err)
		}
		return o.host.toJS(o.vm, v)
	})
}

func (o *jsArray) Set(key string, val goja.Value) bool {
	idx, ok := indexKey(key)
	if !ok {
		return false
	}
	v, err := FromJS(val)
	if err != nil {
		throw(o.vm, wrap("index assignment", err))
	}
	if err := o.host.SetIndex(o.value(), idx, v); err != nil {
		throw(o.vm, err)
	}
	return true
}

func (o *jsArray) Has(key string) bool {
	if i, err := strconv.Atoi(key); err == nil {
		return o.arr.Ndim() > 0 && i >= 0 && i < o.arr.Len()
	}
	_, ok := Property(o.value(), key)
	return ok || HasMethod(key)
}

func (o *jsArray) Delete(string) bool { return false }

func (o *jsArray) Keys() []string {
	if o.arr.Ndim() == 0 {
		return nil
	}
	keys := make([]string, o.arr.Len())
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}
