package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/itsmostafa/goplot/internal/binding"
)

// jsEngine runs scripts written in JavaScript.
type jsEngine struct{}

func (jsEngine) Name() string { return EngineJS }

// Execute parses and compiles the script before creating the runtime, then
// runs it with an interrupt wired to ctx.
func (jsEngine) Execute(ctx context.Context, s Script, host *binding.Host, cfg Config) (*ScriptError, error) {
	name := s.Name
	if name == "" {
		name = "script.js"
	}

	ast, err := parser.ParseFile(nil, name, s.Source, 0)
	if err != nil {
		return jsParseError(err), nil
	}
	prg, err := goja.CompileAST(ast, false)
	if err != nil {
		return jsParseError(err), nil
	}

	// Create a new goja runtime for each execution (isolation)
	vm := goja.New()
	if err := host.InstallJS(vm); err != nil {
		return nil, fmt.Errorf("failed to install host API: %w", err)
	}

	// Set up interrupt for context cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunProgram(prg); err != nil {
		return jsRuntimeError(ctx, err, cfg), nil
	}
	return nil, nil
}

func jsParseError(err error) *ScriptError {
	serr := &ScriptError{Kind: KindSyntax, Message: err.Error(), err: err}

	var list parser.ErrorList
	var syn *goja.CompilerSyntaxError
	switch {
	case errors.As(err, &list) && len(list) > 0:
		serr.Message = list[0].Message
		serr.Line, serr.Column = list[0].Position.Line, list[0].Position.Column
		if len(list) > 1 {
			serr.Message = fmt.Sprintf("%s (and %d more errors)", serr.Message, len(list)-1)
		}
	case errors.As(err, &syn):
		serr.Message = syn.Message
		if syn.File != nil {
			pos := syn.File.Position(syn.Offset)
			serr.Line, serr.Column = pos.Line, pos.Column
		}
	}
	return serr
}

func jsRuntimeError(ctx context.Context, err error, cfg Config) *ScriptError {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) || binding.IsAbort(err) || ctx.Err() != nil {
		return abortError(ctx, err, cfg)
	}

	serr := &ScriptError{Kind: KindRuntime, Message: err.Error(), err: err}
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return serr
	}
	serr.Traceback = ex.String()
	if cause := ex.Unwrap(); cause != nil {
		serr.Kind = kindOf(cause)
		serr.Message = cause.Error()
	} else if v := ex.Value(); v != nil {
		serr.Message = v.String()
	}
	for _, frame := range ex.Stack() {
		if pos := frame.Position(); pos.Line > 0 {
			serr.Line, serr.Column = pos.Line, pos.Column
			break
		}
	}
	return serr
}
