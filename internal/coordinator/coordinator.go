// Package coordinator schedules script runs on a single worker goroutine.
//
// Requests are numbered in arrival order and their results are delivered in
// that order. A new request cancels the run in progress and any request that
// has not started yet; superseded requests are still delivered, as Cancelled
// results, so every request gets exactly one result.
package coordinator

import (
	"context"
	"io"
	"sync"

	"github.com/itsmostafa/goplot/internal/sandbox"
)

// Listener receives events from the worker goroutine. Callbacks run one at a
// time and may call RequestRun or RequestCancel, but not Wait or Close.
// Nil callbacks are skipped.
type Listener struct {
	// OnState reports that request id entered state.
	OnState func(id uint64, state sandbox.State)
	// OnOutput forwards output from request id as the script writes it.
	OnOutput func(id uint64, p []byte)
	// OnResult delivers the result of request id.
	OnResult func(id uint64, res *sandbox.Result)
}

type request struct {
	id         uint64
	script     sandbox.Script
	superseded bool
}

// Coordinator serializes runs on one sandbox.
type Coordinator struct {
	sb       *sandbox.Sandbox
	listener Listener

	mu          sync.Mutex
	work        *sync.Cond
	idle        *sync.Cond
	queue       []*request
	nextID      uint64
	activeID    uint64
	outstanding int
	cancel      context.CancelFunc
	closed      bool

	done chan struct{}
}

// New starts the worker goroutine. Call Close to stop it.
func New(sb *sandbox.Sandbox, l Listener) *Coordinator {
	c := &Coordinator{
		sb:       sb,
		listener: l,
		done:     make(chan struct{}),
	}
	c.work = sync.NewCond(&c.mu)
	c.idle = sync.NewCond(&c.mu)
	go c.loop()
	return c
}

// RequestRun queues script and returns its request id. Everything requested
// earlier that has not finished is cancelled. It returns 0 after Close.
func (c *Coordinator) RequestRun(script sandbox.Script) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	c.cancelLocked()
	c.nextID++
	c.outstanding++
	c.queue = append(c.queue, &request{id: c.nextID, script: script})
	c.work.Signal()
	return c.nextID
}

// RequestCancel cancels the active run and every queued request.
func (c *Coordinator) RequestCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Active returns the id of the running request, or 0.
func (c *Coordinator) Active() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Wait blocks until every request made so far has been delivered.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.outstanding > 0 {
		c.idle.Wait()
	}
}

// Close cancels outstanding work, delivers its results and stops the worker.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.cancelLocked()
		c.work.Signal()
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Coordinator) cancelLocked() {
	for _, r := range c.queue {
		r.superseded = true
	}
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) loop() {
	defer close(c.done)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.work.Wait()
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		req := c.queue[0]
		c.queue = c.queue[1:]
		if req.superseded {
			c.mu.Unlock()
			c.deliver(req.id, sandbox.Unstarted(req.script, sandbox.Cancelled,
				sandbox.KindTimeoutOrCancelled, "superseded by a newer run"))
			c.finish()
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.activeID = req.id
		c.cancel = cancel
		c.mu.Unlock()

		res := c.run(ctx, req)
		cancel()

		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		c.deliver(req.id, res)
		c.finish()
	}
}

func (c *Coordinator) run(ctx context.Context, req *request) *sandbox.Result {
	if c.listener.OnState != nil {
		c.listener.OnState(req.id, sandbox.Running)
	}
	var live io.Writer
	if c.listener.OnOutput != nil {
		live = liveOutput{id: req.id, fn: c.listener.OnOutput}
	}
	res, err := c.sb.RunWithOutput(ctx, req.script, live)
	if err != nil {
		res = sandbox.Unstarted(req.script, sandbox.Failed, sandbox.KindRuntime, err.Error())
	}
	if c.listener.OnState != nil {
		c.listener.OnState(req.id, res.State)
	}
	return res
}

func (c *Coordinator) deliver(id uint64, res *sandbox.Result) {
	if c.listener.OnResult != nil {
		c.listener.OnResult(id, res)
	}
}

// finish marks one request delivered and wakes Wait once nothing is left.
func (c *Coordinator) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeID = 0
	c.outstanding--
	if c.outstanding == 0 {
		c.idle.Broadcast()
	}
}

// liveOutput tags output writes with the request that produced them.
type liveOutput struct {
	id uint64
	fn func(id uint64, p []byte)
}

func (w liveOutput) Write(p []byte) (int, error) {
	w.fn(w.id, append([]byte(nil), p...))
	return len(p), nil
}
