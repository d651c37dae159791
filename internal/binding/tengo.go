package binding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/token"

	"github.com/itsmostafa/goplot/internal/ndarray"
)

// InstallTengo adds every global function to script. Tengo compiles its own
// builtins over script globals, so the array length is x.len() rather than
// len(x).
func (h *Host) InstallTengo(script *tengo.Script) error {
	for _, name := range Names() {
		if err := script.Add(name, h.tengoFunc(name)); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}
	return nil
}

func (h *Host) tengoFunc(name string) *tengo.UserFunction {
	if name == "print" || name == "println" {
		return &tengo.UserFunction{
			Name: name,
			Value: func(args ...tengo.Object) (tengo.Object, error) {
				parts := make([]string, len(args))
				for i, arg := range args {
					parts[i] = objectToString(arg)
				}
				return tengo.UndefinedValue, h.Print(parts)
			},
		}
	}
	return &tengo.UserFunction{
		Name: name,
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			vals, err := fromTengoArgs(args)
			if err != nil {
				return nil, wrap(name, err)
			}
			v, err := h.Call(name, vals)
			if err != nil {
				return nil, err
			}
			return h.ToTengo(v), nil
		},
	}
}

func fromTengoArgs(args []tengo.Object) ([]Value, error) {
	return fromTengoObjects(args, 0)
}

func fromTengoObjects(args []tengo.Object, depth int) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, arg := range args {
		v, err := fromTengo(arg, depth)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// FromTengo converts a tengo object into a Value.
func FromTengo(obj tengo.Object) (Value, error) {
	return fromTengo(obj, 0)
}

func fromTengo(obj tengo.Object, depth int) (Value, error) {
	switch o := obj.(type) {
	case *tengoArray:
		return Value{Kind: KindArray, Array: o.arr, Frozen: o.frozen}, nil
	case *tengo.Int:
		return Int(int(o.Value)), nil
	case *tengo.Float:
		return Number(o.Value), nil
	case *tengo.Bool:
		return Bool(!o.IsFalsy()), nil
	case *tengo.String:
		return String(o.Value), nil
	case *tengo.Char:
		return String(string(o.Value)), nil
	case *tengo.Undefined:
		return None(), nil
	case *tengo.Array:
		return fromTengoList(o.Value, depth+1)
	case *tengo.ImmutableArray:
		return fromTengoList(o.Value, depth+1)
	case *tengo.Map:
		return fromTengoMap(o.Value, depth+1)
	case *tengo.ImmutableMap:
		return fromTengoMap(o.Value, depth+1)
	default:
		return None(), typef("unsupported value of type %s", obj.TypeName())
	}
}

func fromTengoList(objs []tengo.Object, depth int) (Value, error) {
	if depth > maxDepth {
		return None(), errTooDeep()
	}
	vals, err := fromTengoObjects(objs, depth)
	if err != nil {
		return None(), err
	}
	return List(vals...), nil
}

func fromTengoMap(objs map[string]tengo.Object, depth int) (Value, error) {
	if depth > maxDepth {
		return None(), errTooDeep()
	}
	m := make(map[string]Value, len(objs))
	for k, obj := range objs {
		v, err := fromTengo(obj, depth)
		if err != nil {
			return None(), err
		}
		m[k] = v
	}
	return Map(m), nil
}

// ToTengo converts a Value into a tengo object. Arrays keep their identity.
func (h *Host) ToTengo(v Value) tengo.Object {
	switch v.Kind {
	case KindNumber:
		if v.IsInt {
			return &tengo.Int{Value: int64(v.Num)}
		}
		return &tengo.Float{Value: v.Num}
	case KindBool:
		if v.Bool {
			return tengo.TrueValue
		}
		return tengo.FalseValue
	case KindString:
		return &tengo.String{Value: v.Str}
	case KindArray:
		return &tengoArray{host: h, arr: v.Array, frozen: v.Frozen}
	case KindList:
		objs := make([]tengo.Object, len(v.List))
		for i, e := range v.List {
			objs[i] = h.ToTengo(e)
		}
		return &tengo.Array{Value: objs}
	case KindMap:
		objs := make(map[string]tengo.Object, len(v.Map))
		for k, e := range v.Map {
			objs[k] = h.ToTengo(e)
		}
		return &tengo.Map{Value: objs}
	default:
		return tengo.UndefinedValue
	}
}

func objectToString(obj tengo.Object) string {
	if s, ok := obj.(*tengo.String); ok {
		return s.Value
	}
	return tengoString(obj, 0)
}

// tengoString formats obj like tengo does, but stops at maxDepth so a list
// that contains itself still prints.
func tengoString(obj tengo.Object, depth int) string {
	if depth > maxDepth {
		return "..."
	}
	switch v := obj.(type) {
	case *tengo.Float:
		return fmt.Sprintf("%g", v.Value)
	case *tengo.Undefined:
		return "none"
	case *tengo.Array:
		return tengoListString(v.Value, depth)
	case *tengo.ImmutableArray:
		return tengoListString(v.Value, depth)
	case *tengo.Map:
		return tengoMapString(v.Value, depth)
	case *tengo.ImmutableMap:
		return tengoMapString(v.Value, depth)
	default:
		return obj.String()
	}
}

func tengoListString(objs []tengo.Object, depth int) string {
	parts := make([]string, len(objs))
	for i, o := range objs {
		parts[i] = tengoString(o, depth+1)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func tengoMapString(objs map[string]tengo.Object, depth int) string {
	keys := make([]string, 0, len(objs))
	for k := range objs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + tengoString(objs[k], depth+1)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// tengoArray is the script-side handle of a host array. Arithmetic
// operators, indexing and attribute access all route through the Host.
type tengoArray struct {
	tengo.ObjectImpl
	host   *Host
	arr    *ndarray.Array
	frozen bool
}

func (o *tengoArray) value() Value {
	return Value{Kind: KindArray, Array: o.arr, Frozen: o.frozen}
}

func (o *tengoArray) TypeName() string { return "ndarray" }

func (o *tengoArray) String() string { return o.arr.String() }

func (o *tengoArray) IsFalsy() bool { return o.arr.Size() == 0 }

// Copy backs the copy builtin. The result is writable.
func (o *tengoArray) Copy() tengo.Object {
	return &tengoArray{host: o.host, arr: o.arr.Copy()}
}

func (o *tengoArray) Equals(x tengo.Object) bool {
	other, ok := x.(*tengoArray)
	return ok && ndarray.Equal(o.arr, other.arr)
}

var tengoOps = map[token.Token]Op{
	token.Add: OpAdd,
	token.Sub: OpSub,
	token.Mul: OpMul,
	token.Quo: OpDiv,
}

// BinaryOp handles x + y, x - y, x * y and x / y with x an array. A number on
// the left is not routed here by tengo, so 2 * x needs mul(2, x).
func (o *tengoArray) BinaryOp(op token.Token, rhs tengo.Object) (tengo.Object, error) {
	hop, ok := tengoOps[op]
	if !ok {
		return nil, tengo.ErrInvalidOperator
	}
	r, err := FromTengo(rhs)
	if err != nil {
		return nil, tengo.ErrInvalidOperator
	}
	v, err := o.host.BinaryOp(hop, o.value(), r)
	if err != nil {
		return nil, err
	}
	return o.host.ToTengo(v), nil
}

// IndexGet serves x[i], x[[i, j]] and the selectors x.shape and x.sum.
func (o *tengoArray) IndexGet(index tengo.Object) (tengo.Object, error) {
	if name, ok := index.(*tengo.String); ok {
		return o.attr(name.Value)
	}
	idx, err := FromTengo(index)
	if err != nil {
		return nil, tengo.ErrInvalidIndexType
	}
	v, err := o.host.Index(o.value(), idx)
	if err != nil {
		return nil, err
	}
	return o.host.ToTengo(v), nil
}

func (o *tengoArray) attr(name string) (tengo.Object, error) {
	if v, ok := Property(o.value(), name); ok {
		return o.host.ToTengo(v), nil
	}
	if !HasMethod(name) {
		return nil, typef("ndarray has no attribute %q", name)
	}
	return &tengo.UserFunction{
		Name: name,
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			vals, err := fromTengoArgs(args)
			if err != nil {
				return nil, wrap(name, err)
			}
			v, err := o.host.Method(o.value(), name, vals)
			if err != nil {
				return nil, err
			}
			return o.host.ToTengo(v), nil
		},
	}, nil
}

func (o *tengoArray) IndexSet(index, value tengo.Object) error {
	idx, err := FromTengo(index)
	if err != nil || idx.Kind == KindString {
		return tengo.ErrInvalidIndexType
	}
	v, err := FromTengo(value)
	if err != nil {
		return tengo.ErrInvalidIndexValueType
	}
	return o.host.SetIndex(o.value(), idx, v)
}

func (o *tengoArray) CanIterate() bool { return o.arr.Ndim() > 0 }

// Iterate walks the first axis, yielding numbers for 1-d arrays and frozen
// rows otherwise.
func (o *tengoArray) Iterate() tengo.Iterator {
	return &tengoArrayIterator{arr: o, n: o.arr.Len(), i: -1}
}

type tengoArrayIterator struct {
	tengo.ObjectImpl
	arr *tengoArray
	n   int
	i   int
}

func (it *tengoArrayIterator) TypeName() string { return "ndarray-iterator" }

func (it *tengoArrayIterator) String() string { return "<ndarray-iterator>" }

func (it *tengoArrayIterator) Next() bool {
	it.i++
	return it.i < it.n
}

func (it *tengoArrayIterator) Key() tengo.Object {
	return &tengo.Int{Value: int64(it.i)}
}

func (it *tengoArrayIterator) Value() tengo.Object {
	v, err := index(it.arr.value(), Int(it.i))
	if err != nil {
		return tengo.UndefinedValue
	}
	return it.arr.host.ToTengo(v)
}
