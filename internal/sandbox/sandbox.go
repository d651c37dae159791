// Package sandbox runs scripts in a fresh interpreter per run and turns the
// outcome into a Result: captured output, a classified error and the plot the
// script built.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/goplot/internal/binding"
	"github.com/itsmostafa/goplot/internal/plot"
)

// Result is the outcome of one run. It is not modified after Run returns.
type Result struct {
	RunID     string
	Script    Script
	Engine    string
	State     State
	Output    string
	Truncated bool
	Error     *ScriptError
	Duration  time.Duration
	// Plot is the finalized specification, possibly with zero series. It is
	// read-only once handed out.
	Plot *plot.Spec
	// HostCalls counts the host API calls the script made.
	HostCalls int
}

// Sandbox owns the lifecycle of script runs. One run may be active at a time.
type Sandbox struct {
	cfg Config

	mu    sync.Mutex
	state State
	last  *Result
}

// New creates an idle sandbox.
func New(cfg Config) *Sandbox {
	if cfg.Engine == "" {
		cfg.Engine = EngineTengo
	}
	return &Sandbox{cfg: cfg, state: Idle}
}

// Config returns the sandbox configuration.
func (s *Sandbox) Config() Config { return s.cfg }

// State returns the current lifecycle state.
func (s *Sandbox) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the most recent result, or nil before the first run.
func (s *Sandbox) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run executes script and waits for it to finish.
func (s *Sandbox) Run(ctx context.Context, script Script) (*Result, error) {
	return s.RunWithOutput(ctx, script, nil)
}

// RunWithOutput is Run with every output write also forwarded to live while
// the script runs. Script failures are reported in the Result; the error
// return is for host failures and ErrBusy.
func (s *Sandbox) RunWithOutput(ctx context.Context, script Script, live io.Writer) (*Result, error) {
	engineName := script.Engine
	if engineName == "" {
		engineName = s.cfg.Engine
	}
	engine, err := EngineFor(engineName)
	if err != nil {
		return nil, err
	}

	if err := s.begin(); err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	out := newOutput(s.cfg.MaxOutputChars, live)
	builder := plot.NewBuilder()
	host := binding.NewHost(binding.Options{
		Output:     out,
		Plot:       builder,
		Checkpoint: runCtx.Err,
		MaxCalls:   s.cfg.MaxHostCalls,
	})

	start := time.Now()
	serr, err := engine.Execute(runCtx, script, host, s.cfg)
	if err != nil {
		s.end(Failed, nil)
		return nil, fmt.Errorf("%s engine: %w", engine.Name(), err)
	}

	spec, err := builder.Finalize()
	if err != nil {
		s.end(Failed, nil)
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Script:    script,
		Engine:    engine.Name(),
		State:     Completed,
		Output:    out.String(),
		Truncated: out.Truncated(),
		Error:     serr,
		Duration:  time.Since(start),
		Plot:      spec,
		HostCalls: host.Calls(),
	}
	switch {
	case serr == nil:
	case serr.Kind == KindTimeoutOrCancelled:
		res.State = Cancelled
	default:
		res.State = Failed
	}
	s.end(res.State, res)
	return res, nil
}

// Unstarted builds the Result for a script that never reached an engine, such
// as a request superseded before it started.
func Unstarted(script Script, state State, kind ErrorKind, msg string) *Result {
	return &Result{
		RunID:  uuid.NewString(),
		Script: script,
		Engine: script.Engine,
		State:  state,
		Error:  &ScriptError{Kind: kind, Message: msg},
		Plot:   plot.NewSpec(),
	}
}

func (s *Sandbox) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return ErrBusy
	}
	next, err := Transition(s.state, Running)
	if err != nil {
		return err
	}
	s.state = next
	s.last = nil
	return nil
}

func (s *Sandbox) end(state State, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, err := Transition(s.state, state); err == nil {
		s.state = next
	}
	s.last = res
}
