package sandbox

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Output is the append-only captured output of one run. Each write is
// forwarded to the live writer as it happens, so partial output survives a
// later failure.
type Output struct {
	mu        sync.Mutex
	buf       strings.Builder
	live      io.Writer
	max       int
	truncated bool
}

func newOutput(max int, live io.Writer) *Output {
	return &Output{max: max, live: live}
}

// Write appends p, dropping whatever exceeds the configured cap. The cut
// never splits a UTF-8 sequence, and nothing is kept after the first cut.
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(p)
	if o.truncated {
		return n, nil
	}
	if o.max > 0 {
		room := max(o.max-o.buf.Len(), 0)
		if len(p) > room {
			for room > 0 && !utf8.RuneStart(p[room]) {
				room--
			}
			p = p[:room]
			o.truncated = true
		}
	}
	if len(p) == 0 {
		return n, nil
	}
	o.buf.Write(p)
	if o.live != nil {
		// Live writer errors are ignored.
		_, _ = o.live.Write(p)
	}
	return n, nil
}

// String returns everything captured so far.
func (o *Output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

// Truncated reports whether output was dropped.
func (o *Output) Truncated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.truncated
}
