package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/itsmostafa/goplot/internal/binding"
)

// luaEngine runs scripts written in Lua.
type luaEngine struct{}

func (luaEngine) Name() string { return EngineLua }

// Execute loads the whole chunk before running it, with only the base, table,
// string and math libraries opened.
func (luaEngine) Execute(ctx context.Context, s Script, host *binding.Host, cfg Config) (*ScriptError, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("failed to open lua library %q: %w", lib.name, err)
		}
	}
	// Scripts get no file access.
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}

	fn, err := L.LoadString(s.Source)
	if err != nil {
		return luaSyntaxError(err, s.Source), nil
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	host.InstallLua(L, cancel)
	L.SetContext(runCtx)

	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return luaRuntimeError(ctx, runCtx, err, cfg), nil
	}
	return nil, nil
}

var (
	// luaSyntaxPos matches the position part of a parse error, for example
	// "<string> line:3(column:7) near 'end':   syntax error".
	luaSyntaxPos = regexp.MustCompile(`line:(\d+)\(column:(\d+)\) near '(.*?)':\s*(.*)`)
	// luaSyntaxEOF matches a parse error at the end of the chunk, which
	// carries no position: "<string> at EOF:   syntax error".
	luaSyntaxEOF = regexp.MustCompile(`at EOF:\s*(.*)`)
)

func luaSyntaxError(err error, source string) *ScriptError {
	text := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		text = apiErr.Object.String()
	}
	serr := &ScriptError{Kind: KindSyntax, Message: strings.TrimSpace(text), err: err}
	if m := luaSyntaxPos.FindStringSubmatch(text); m != nil {
		serr.Line, _ = strconv.Atoi(m[1])
		serr.Column, _ = strconv.Atoi(m[2])
		serr.Message = fmt.Sprintf("%s near '%s'", strings.TrimSpace(m[4]), m[3])
	} else if m := luaSyntaxEOF.FindStringSubmatch(text); m != nil {
		serr.Line = lastLine(source)
		serr.Message = strings.TrimSpace(m[1]) + " at end of input"
	}
	return serr
}

// lastLine is the number of the last line of source, ignoring trailing
// newlines.
func lastLine(source string) int {
	return strings.Count(strings.TrimRight(source, "\n"), "\n") + 1
}

var (
	// luaMessagePos matches the "<string>:line:" prefix of a raised string.
	luaMessagePos = regexp.MustCompile(`(?s)^<string>:(\d+):\s*(.*)$`)
	// luaFrame matches one script frame of a stack traceback.
	luaFrame = regexp.MustCompile(`<string>:(\d+):`)
)

func luaRuntimeError(ctx, runCtx context.Context, err error, cfg Config) *ScriptError {
	if runCtx.Err() != nil {
		return abortError(ctx, context.Cause(runCtx), cfg)
	}

	serr := &ScriptError{Kind: KindRuntime, Message: err.Error(), err: err}
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) || apiErr.Object == nil {
		return serr
	}
	serr.Traceback = strings.TrimSpace(apiErr.StackTrace)

	if herr, line, ok := binding.LuaError(apiErr.Object); ok {
		serr.Kind = kindOf(herr)
		serr.Message = herr.Error()
		serr.Line = line
		serr.err = herr
	} else {
		serr.Message = apiErr.Object.String()
		if m := luaMessagePos.FindStringSubmatch(serr.Message); m != nil {
			serr.Line, _ = strconv.Atoi(m[1])
			serr.Message = m[2]
		}
	}
	if serr.Line == 0 {
		if m := luaFrame.FindStringSubmatch(apiErr.StackTrace); m != nil {
			serr.Line, _ = strconv.Atoi(m[1])
		}
	}
	return serr
}
