package binding

import (
	"fmt"
	"regexp"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/itsmostafa/goplot/internal/ndarray"
)

const (
	luaArrayType = "ndarray"
	luaErrorType = "hosterror"
)

// luaArray is the userdata payload of a host array.
type luaArray struct {
	arr    *ndarray.Array
	frozen bool
}

func (a *luaArray) value() Value {
	return Value{Kind: KindArray, Array: a.arr, Frozen: a.frozen}
}

// luaError is the userdata payload of a failed host call. Scripts see it as
// an object with name and message fields, so pcall handlers can branch on
// e.name.
type luaError struct {
	err  error
	line int
}

// LuaError extracts the host error carried by a value raised inside Lua,
// along with the script line of the call that failed (0 when unknown).
func LuaError(v lua.LValue) (error, int, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, 0, false
	}
	e, ok := ud.Value.(*luaError)
	if !ok {
		return nil, 0, false
	}
	return e.err, e.line, true
}

type luaBridge struct {
	host  *Host
	abort func(error)
}

// InstallLua sets every global function on L and registers the array and
// error metatables. abort receives errors that must end the run, so the
// engine can stop the VM even when the script wraps the call in pcall.
func (h *Host) InstallLua(L *lua.LState, abort func(error)) {
	b := &luaBridge{host: h, abort: abort}

	arrays := L.NewTypeMetatable(luaArrayType)
	L.SetFuncs(arrays, map[string]lua.LGFunction{
		"__index":    b.index,
		"__newindex": b.newIndex,
		"__add":      b.arith(OpAdd),
		"__sub":      b.arith(OpSub),
		"__mul":      b.arith(OpMul),
		"__div":      b.arith(OpDiv),
		"__pow":      b.arith(OpPow),
		"__unm":      b.unary("neg"),
		"__len":      b.unary("len"),
		"__tostring": b.tostring,
		"__eq":       b.eq,
	})

	errs := L.NewTypeMetatable(luaErrorType)
	L.SetFuncs(errs, map[string]lua.LGFunction{
		"__index":    luaErrorField,
		"__tostring": luaErrorString,
	})

	for _, name := range Names() {
		L.SetGlobal(name, L.NewFunction(b.global(name)))
	}
}

// luaWhere matches the "chunk:line:" prefix produced by LState.Where.
var luaWhere = regexp.MustCompile(`:(\d+):$`)

// raise throws err as a host error object. It never returns normally; the
// int result lets callers write return b.raise(L, err).
func (b *luaBridge) raise(L *lua.LState, err error) int {
	if IsAbort(err) && b.abort != nil {
		b.abort(err)
	}
	e := &luaError{err: err}
	if m := luaWhere.FindStringSubmatch(L.Where(1)); m != nil {
		e.line, _ = strconv.Atoi(m[1])
	}
	ud := L.NewUserData()
	ud.Value = e
	L.SetMetatable(ud, L.GetTypeMetatable(luaErrorType))
	L.Error(ud, 1)
	return 0
}

func (b *luaBridge) global(name string) lua.LGFunction {
	if name == "print" || name == "println" {
		return func(L *lua.LState) int {
			parts := make([]string, L.GetTop())
			for i := range parts {
				parts[i] = luaString(L.Get(i + 1))
			}
			if err := b.host.Print(parts); err != nil {
				return b.raise(L, err)
			}
			return 0
		}
	}
	return b.call(name)
}

// call forwards every argument on the stack to the global function name.
func (b *luaBridge) call(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		args, err := fromLuaArgs(L, 1)
		if err != nil {
			return b.raise(L, wrap(name, err))
		}
		v, err := b.host.Call(name, args)
		if err != nil {
			return b.raise(L, err)
		}
		L.Push(b.toLua(L, v))
		return 1
	}
}

// unary applies the global function name to the first argument only.
func (b *luaBridge) unary(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		arg, err := FromLua(L.Get(1))
		if err != nil {
			return b.raise(L, wrap(name, err))
		}
		v, err := b.host.Call(name, []Value{arg})
		if err != nil {
			return b.raise(L, err)
		}
		L.Push(b.toLua(L, v))
		return 1
	}
}

func fromLuaArgs(L *lua.LState, from int) ([]Value, error) {
	top := L.GetTop()
	if top < from {
		return nil, nil
	}
	vals := make([]Value, 0, top-from+1)
	for i := from; i <= top; i++ {
		v, err := FromLua(L.Get(i))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// FromLua converts a Lua value into a Value. Tables with keys 1..n become
// lists and tables with string keys become maps.
func FromLua(lv lua.LValue) (Value, error) {
	return fromLua(lv, 0)
}

func fromLua(lv lua.LValue, depth int) (Value, error) {
	switch v := lv.(type) {
	case lua.LNumber:
		return Number(float64(v)), nil
	case lua.LString:
		return String(string(v)), nil
	case lua.LBool:
		return Bool(bool(v)), nil
	case *lua.LNilType:
		return None(), nil
	case *lua.LUserData:
		if a, ok := v.Value.(*luaArray); ok {
			return a.value(), nil
		}
	case *lua.LTable:
		return fromLuaTable(v, depth+1)
	}
	return None(), typef("unsupported value of type %s", lv.Type())
}

func fromLuaTable(t *lua.LTable, depth int) (Value, error) {
	if depth > maxDepth {
		return None(), errTooDeep()
	}
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if count == n {
		vals := make([]Value, n)
		for i := 1; i <= n; i++ {
			v, err := fromLua(t.RawGetInt(i), depth)
			if err != nil {
				return None(), err
			}
			vals[i-1] = v
		}
		return List(vals...), nil
	}

	m := make(map[string]Value, count)
	var err error
	t.ForEach(func(k, lv lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = typef("table keys must be 1..n or strings, got %s", k.Type())
			return
		}
		m[string(key)], err = fromLua(lv, depth)
	})
	if err != nil {
		return None(), err
	}
	return Map(m), nil
}

func (b *luaBridge) toLua(L *lua.LState, v Value) lua.LValue {
	switch v.Kind {
	case KindNumber:
		return lua.LNumber(v.Num)
	case KindBool:
		return lua.LBool(v.Bool)
	case KindString:
		return lua.LString(v.Str)
	case KindArray:
		ud := L.NewUserData()
		ud.Value = &luaArray{arr: v.Array, frozen: v.Frozen}
		L.SetMetatable(ud, L.GetTypeMetatable(luaArrayType))
		return ud
	case KindList:
		t := L.CreateTable(len(v.List), 0)
		for _, e := range v.List {
			t.Append(b.toLua(L, e))
		}
		return t
	case KindMap:
		t := L.CreateTable(0, len(v.Map))
		for k, e := range v.Map {
			t.RawSetString(k, b.toLua(L, e))
		}
		return t
	default:
		return lua.LNil
	}
}

func luaString(lv lua.LValue) string {
	switch v := lv.(type) {
	case lua.LString:
		return string(v)
	case *lua.LNilType:
		return "none"
	case *lua.LUserData:
		switch p := v.Value.(type) {
		case *luaArray:
			return p.arr.String()
		case *luaError:
			return ErrorName(p.err) + ": " + p.err.Error()
		}
	case *lua.LTable:
		if val, err := fromLuaTable(v, 1); err == nil {
			return val.String()
		}
	}
	return lv.String()
}

func (b *luaBridge) checkArray(L *lua.LState, n int) *luaArray {
	ud := L.CheckUserData(n)
	a, ok := ud.Value.(*luaArray)
	if !ok {
		L.ArgError(n, "ndarray expected")
	}
	return a
}

// index serves x[i], x[{i, j}], the properties x.shape, x.size and x.ndim,
// and methods called as x:sum().
func (b *luaBridge) index(L *lua.LState) int {
	self := b.checkArray(L, 1)
	key := L.Get(2)
	if name, ok := key.(lua.LString); ok {
		return b.attr(L, self, string(name))
	}
	idx, err := FromLua(key)
	if err != nil {
		return b.raise(L, err)
	}
	v, err := b.host.Index(self.value(), idx)
	if err != nil {
		return b.raise(L, err)
	}
	L.Push(b.toLua(L, v))
	return 1
}

func (b *luaBridge) attr(L *lua.LState, self *luaArray, name string) int {
	if v, ok := Property(self.value(), name); ok {
		L.Push(b.toLua(L, v))
		return 1
	}
	if !HasMethod(name) {
		return b.raise(L, typef("ndarray has no attribute %q", name))
	}
	L.Push(L.NewFunction(func(L *lua.LState) int {
		recv, ok := L.Get(1).(*lua.LUserData)
		if !ok {
			return b.raise(L, typef("call methods with a colon: x:%s(...)", name))
		}
		a, ok := recv.Value.(*luaArray)
		if !ok {
			return b.raise(L, typef("call methods with a colon: x:%s(...)", name))
		}
		args, err := fromLuaArgs(L, 2)
		if err != nil {
			return b.raise(L, wrap(name, err))
		}
		v, err := b.host.Method(a.value(), name, args)
		if err != nil {
			return b.raise(L, err)
		}
		L.Push(b.toLua(L, v))
		return 1
	}))
	return 1
}

func (b *luaBridge) newIndex(L *lua.LState) int {
	self := b.checkArray(L, 1)
	key := L.Get(2)
	if name, ok := key.(lua.LString); ok {
		return b.raise(L, typef("cannot set attribute %q of ndarray", string(name)))
	}
	idx, err := FromLua(key)
	if err != nil {
		return b.raise(L, err)
	}
	val, err := FromLua(L.Get(3))
	if err != nil {
		return b.raise(L, err)
	}
	if err := b.host.SetIndex(self.value(), idx, val); err != nil {
		return b.raise(L, err)
	}
	return 0
}

// arith handles a op b where either operand is an array, so 2 * x works.
func (b *luaBridge) arith(op Op) lua.LGFunction {
	return func(L *lua.LState) int {
		l, err := FromLua(L.Get(1))
		if err != nil {
			return b.raise(L, fmt.Errorf("%s: %w", op, err))
		}
		r, err := FromLua(L.Get(2))
		if err != nil {
			return b.raise(L, fmt.Errorf("%s: %w", op, err))
		}
		v, err := b.host.BinaryOp(op, l, r)
		if err != nil {
			return b.raise(L, err)
		}
		L.Push(b.toLua(L, v))
		return 1
	}
}

func (b *luaBridge) tostring(L *lua.LState) int {
	L.Push(lua.LString(b.checkArray(L, 1).arr.String()))
	return 1
}

func (b *luaBridge) eq(L *lua.LState) int {
	l, lok := L.Get(1).(*lua.LUserData)
	r, rok := L.Get(2).(*lua.LUserData)
	if !lok || !rok {
		L.Push(lua.LFalse)
		return 1
	}
	la, lok := l.Value.(*luaArray)
	ra, rok := r.Value.(*luaArray)
	L.Push(lua.LBool(lok && rok && ndarray.Equal(la.arr, ra.arr)))
	return 1
}

func luaErrorField(L *lua.LState) int {
	e, ok := L.CheckUserData(1).Value.(*luaError)
	if !ok {
		L.ArgError(1, "host error expected")
		return 0
	}
	switch L.CheckString(2) {
	case "name":
		L.Push(lua.LString(ErrorName(e.err)))
	case "message":
		L.Push(lua.LString(e.err.Error()))
	case "line":
		L.Push(lua.LNumber(e.line))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func luaErrorString(L *lua.LState) int {
	e, ok := L.CheckUserData(1).Value.(*luaError)
	if !ok {
		L.ArgError(1, "host error expected")
		return 0
	}
	L.Push(lua.LString(ErrorName(e.err) + ": " + e.err.Error()))
	return 1
}
