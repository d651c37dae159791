package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/parser"

	"github.com/itsmostafa/goplot/internal/binding"
)

// tengoEngine runs scripts written in Tengo.
type tengoEngine struct{}

func (tengoEngine) Name() string { return EngineTengo }

// Execute compiles the whole script before running it, so syntax and
// unresolved-name errors are reported before any statement has an effect.
func (tengoEngine) Execute(ctx context.Context, s Script, host *binding.Host, cfg Config) (*ScriptError, error) {
	script := tengo.NewScript([]byte(s.Source))

	// Set resource limits for sandboxing
	if cfg.MaxAllocs > 0 {
		script.SetMaxAllocs(cfg.MaxAllocs)
	}

	if err := host.InstallTengo(script); err != nil {
		return nil, fmt.Errorf("failed to install host API: %w", err)
	}

	compiled, err := script.Compile()
	if err != nil {
		return tengoCompileError(err), nil
	}

	if err := compiled.RunContext(ctx); err != nil {
		return tengoRuntimeError(ctx, err, cfg), nil
	}
	return nil, nil
}

func tengoCompileError(err error) *ScriptError {
	serr := &ScriptError{Kind: KindSyntax, err: err}

	var list parser.ErrorList
	var cerr *tengo.CompilerError
	switch {
	case errors.As(err, &list) && len(list) > 0:
		serr.Message = list[0].Msg
		serr.Line, serr.Column = list[0].Pos.Line, list[0].Pos.Column
		if len(list) > 1 {
			serr.Message = fmt.Sprintf("%s (and %d more errors)", serr.Message, len(list)-1)
		}
	case errors.As(err, &cerr):
		pos := cerr.FileSet.Position(cerr.Node.Pos())
		serr.Message = cerr.Err.Error()
		serr.Line, serr.Column = pos.Line, pos.Column
	default:
		serr.Message = err.Error()
	}
	return serr
}

// tengoFrame matches one "at (main):line:col" entry of a runtime error. The
// innermost frame comes first.
var tengoFrame = regexp.MustCompile(`at \(main\):(\d+):(\d+)`)

func tengoRuntimeError(ctx context.Context, err error, cfg Config) *ScriptError {
	if errors.Is(err, tengo.ErrObjectAllocLimit) {
		return &ScriptError{
			Kind:    KindTimeoutOrCancelled,
			Message: fmt.Sprintf("execution stopped: allocation limit of %d objects exceeded", cfg.MaxAllocs),
			err:     err,
		}
	}
	if binding.IsAbort(err) || ctx.Err() != nil {
		return abortError(ctx, err, cfg)
	}

	text := err.Error()
	first, trace, _ := strings.Cut(text, "\n")
	serr := &ScriptError{
		Kind:      kindOf(err),
		Message:   strings.TrimPrefix(first, "Runtime Error: "),
		Traceback: strings.TrimSpace(trace),
		err:       err,
	}
	if m := tengoFrame.FindStringSubmatch(text); m != nil {
		serr.Line, _ = strconv.Atoi(m[1])
		serr.Column, _ = strconv.Atoi(m[2])
	}
	return serr
}
