package coordinator

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itsmostafa/goplot/internal/sandbox"
)

type recorder struct {
	mu      sync.Mutex
	ids     []uint64
	results map[uint64]*sandbox.Result
	states  map[uint64][]sandbox.State
	output  map[uint64]string
	running chan uint64
	// hold blocks the worker when the keyed request starts.
	hold map[uint64]chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		results: map[uint64]*sandbox.Result{},
		states:  map[uint64][]sandbox.State{},
		output:  map[uint64]string{},
		running: make(chan uint64, 16),
		hold:    map[uint64]chan struct{}{},
	}
}

func (r *recorder) listener() Listener {
	return Listener{
		OnState: func(id uint64, s sandbox.State) {
			r.mu.Lock()
			r.states[id] = append(r.states[id], s)
			gate := r.hold[id]
			r.mu.Unlock()
			if s == sandbox.Running {
				r.running <- id
				if gate != nil {
					<-gate
				}
			}
		},
		OnOutput: func(id uint64, p []byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.output[id] += string(p)
		},
		OnResult: func(id uint64, res *sandbox.Result) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ids = append(r.ids, id)
			r.results[id] = res
		},
	}
}

func (r *recorder) waitRunning(t *testing.T, want uint64) {
	t.Helper()
	select {
	case id := <-r.running:
		if id != want {
			t.Fatalf("running request = %d, want %d", id, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("request %d never started", want)
	}
}

func newCoordinator(t *testing.T) (*Coordinator, *recorder) {
	t.Helper()
	cfg := sandbox.DefaultConfig()
	cfg.Timeout = 10 * time.Second
	rec := newRecorder()
	c := New(sandbox.New(cfg), rec.listener())
	t.Cleanup(c.Close)
	return c, rec
}

func script(src string) sandbox.Script {
	return sandbox.NewScript("test.tengo", src)
}

func TestRunDeliversResult(t *testing.T) {
	c, rec := newCoordinator(t)
	id := c.RequestRun(script(`println("hello"); plot([1, 2], [3, 4])`))
	c.Wait()

	res := rec.results[id]
	if res == nil {
		t.Fatalf("no result for request %d", id)
	}
	if res.State != sandbox.Completed {
		t.Errorf("state = %s, want completed (error %v)", res.State, res.Error)
	}
	if len(res.Plot.Series) != 1 {
		t.Errorf("series count = %d, want 1", len(res.Plot.Series))
	}
	if got := rec.output[id]; got != "hello\n" {
		t.Errorf("live output = %q, want %q", got, "hello\n")
	}
	want := []sandbox.State{sandbox.Running, sandbox.Completed}
	if got := rec.states[id]; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("states = %v, want %v", got, want)
	}
}

func TestNewRequestCancelsActiveRun(t *testing.T) {
	c, rec := newCoordinator(t)
	first := c.RequestRun(script(`for { }`))
	rec.waitRunning(t, first)
	if c.Active() != first {
		t.Errorf("Active() = %d, want %d", c.Active(), first)
	}

	second := c.RequestRun(script(`for { }`))
	third := c.RequestRun(script(`plot([1], [1])`))
	c.Wait()

	want := []uint64{first, second, third}
	if len(rec.ids) != len(want) {
		t.Fatalf("delivered %v, want %v", rec.ids, want)
	}
	for i := range want {
		if rec.ids[i] != want[i] {
			t.Fatalf("delivered %v, want %v", rec.ids, want)
		}
	}

	tests := []struct {
		id    uint64
		state sandbox.State
	}{
		{id: first, state: sandbox.Cancelled},
		{id: second, state: sandbox.Cancelled},
		{id: third, state: sandbox.Completed},
	}
	for _, tt := range tests {
		if got := rec.results[tt.id].State; got != tt.state {
			t.Errorf("request %d state = %s, want %s", tt.id, got, tt.state)
		}
	}
	if msg := rec.results[first].Error.Message; !strings.Contains(msg, "cancelled") {
		t.Errorf("active run error = %q, want a cancellation", msg)
	}
	if c.Active() != 0 {
		t.Errorf("Active() = %d after Wait, want 0", c.Active())
	}
}

func TestSupersededRequestNeverStarts(t *testing.T) {
	c, rec := newCoordinator(t)
	gate := make(chan struct{})
	rec.hold[1] = gate

	first := c.RequestRun(script(`for { }`))
	rec.waitRunning(t, first)
	second := c.RequestRun(script(`println("second")`))
	third := c.RequestRun(script(`println("third")`))
	close(gate)
	c.Wait()

	if len(rec.ids) != 3 || rec.ids[0] != first || rec.ids[1] != second || rec.ids[2] != third {
		t.Fatalf("delivered %v, want [%d %d %d]", rec.ids, first, second, third)
	}
	if _, ran := rec.states[second]; ran {
		t.Errorf("superseded request %d was started", second)
	}
	res := rec.results[second]
	if res.State != sandbox.Cancelled || res.Output != "" || len(res.Plot.Series) != 0 {
		t.Errorf("superseded result = %+v, want an empty cancelled result", res)
	}
	if rec.results[first].State != sandbox.Cancelled {
		t.Errorf("first state = %s, want cancelled", rec.results[first].State)
	}
	if got := rec.output[third]; got != "third\n" {
		t.Errorf("third output = %q", got)
	}
}

func TestRequestCancel(t *testing.T) {
	c, rec := newCoordinator(t)
	id := c.RequestRun(script("println(\"started\")\nfor { }"))
	rec.waitRunning(t, id)
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec.mu.Lock()
		out := rec.output[id]
		rec.mu.Unlock()
		if out != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no output before cancel")
		}
		time.Sleep(time.Millisecond)
	}
	c.RequestCancel()
	c.Wait()

	res := rec.results[id]
	if res.State != sandbox.Cancelled || res.Error.Kind != sandbox.KindTimeoutOrCancelled {
		t.Fatalf("state = %s, error = %v; want cancelled", res.State, res.Error)
	}
	if res.Output != "started\n" {
		t.Errorf("output = %q, want the output written before cancellation", res.Output)
	}

	// The coordinator keeps working after a cancel.
	next := c.RequestRun(script(`x := 2`))
	c.Wait()
	if got := rec.results[next].State; got != sandbox.Completed {
		t.Errorf("next run state = %s, want completed", got)
	}
}

func TestHostErrorBecomesFailedResult(t *testing.T) {
	c, rec := newCoordinator(t)
	s := script(`x := 1`)
	s.Engine = "cobol"
	id := c.RequestRun(s)
	c.Wait()
	res := rec.results[id]
	if res.State != sandbox.Failed || !strings.Contains(res.Error.Message, "unknown engine") {
		t.Errorf("state = %s, error = %v; want unknown engine failure", res.State, res.Error)
	}
}

func TestClose(t *testing.T) {
	cfg := sandbox.DefaultConfig()
	rec := newRecorder()
	c := New(sandbox.New(cfg), rec.listener())
	id := c.RequestRun(script(`for { }`))
	rec.waitRunning(t, id)
	c.Close()

	if got := rec.results[id]; got == nil || got.State != sandbox.Cancelled {
		t.Errorf("result after Close = %+v, want cancelled", got)
	}
	if got := c.RequestRun(script(`x := 1`)); got != 0 {
		t.Errorf("RequestRun after Close = %d, want 0", got)
	}
	c.Close()
}
