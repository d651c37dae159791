package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/itsmostafa/goplot/internal/binding"
	"github.com/itsmostafa/goplot/internal/ndarray"
	"github.com/itsmostafa/goplot/internal/plot"
)

var (
	// ErrBusy is returned when a run is requested while another is active.
	ErrBusy = errors.New("sandbox is already running a script")
	// ErrUnknownEngine is returned for an engine name with no implementation.
	ErrUnknownEngine = errors.New("unknown engine")
)

// ErrorKind classifies a failed run.
type ErrorKind string

const (
	KindSyntax             ErrorKind = "ScriptSyntaxError"
	KindRuntime            ErrorKind = "ScriptRuntimeError"
	KindTimeoutOrCancelled ErrorKind = "ScriptTimeoutOrCancelled"
	KindShape              ErrorKind = "ShapeError"
	KindBroadcast          ErrorKind = "BroadcastError"
	KindIndexOutOfBounds   ErrorKind = "IndexOutOfBounds"
	KindPlotArgument       ErrorKind = "PlotArgumentError"
)

// ScriptError is the structured failure attached to a Result. Line and
// Column are 1-based and zero when unknown.
type ScriptError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
	Traceback string    `json:"traceback,omitempty"`

	err error
}

func (e *ScriptError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the engine or host error the failure was built from.
func (e *ScriptError) Unwrap() error { return e.err }

// kindOf classifies an error raised while the script was executing.
func kindOf(err error) ErrorKind {
	switch {
	case binding.IsAbort(err):
		return KindTimeoutOrCancelled
	case errors.Is(err, ndarray.ErrShape):
		return KindShape
	case errors.Is(err, ndarray.ErrBroadcast):
		return KindBroadcast
	case errors.Is(err, ndarray.ErrIndexOutOfBounds):
		return KindIndexOutOfBounds
	case errors.Is(err, plot.ErrPlotArgument), errors.Is(err, plot.ErrFinalized):
		return KindPlotArgument
	default:
		return KindRuntime
	}
}

// abortError describes a run stopped by its context or a budget.
func abortError(ctx context.Context, err error, cfg Config) *ScriptError {
	msg := "execution cancelled"
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg = "execution timed out"
		if cfg.Timeout > 0 {
			msg = fmt.Sprintf("execution timed out after %s", cfg.Timeout)
		}
	case errors.Is(err, binding.ErrBudget):
		msg = fmt.Sprintf("execution stopped: %s (limit %d)", binding.ErrBudget, cfg.MaxHostCalls)
	}
	return &ScriptError{Kind: KindTimeoutOrCancelled, Message: msg, err: err}
}
