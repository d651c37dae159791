// Package runlog appends one JSON line per delivered run result.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/itsmostafa/goplot/internal/sandbox"
)

// Entry is one line of a run log.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Request    uint64    `json:"request,omitempty"`
	RunID      string    `json:"run_id"`
	ScriptID   string    `json:"script_id"`
	ScriptName string    `json:"script_name,omitempty"`
	Engine     string    `json:"engine"`
	State      string    `json:"state"`
	DurationMs int64     `json:"duration_ms"`
	Series     int       `json:"series"`
	OutputLen  int       `json:"output_bytes"`
	Truncated  bool      `json:"truncated,omitempty"`
	HostCalls  int       `json:"host_calls,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	ErrorMsg   string    `json:"error_message,omitempty"`
	ErrorLine  int       `json:"error_line,omitempty"`
}

// FromResult summarizes res. request is the coordinator request id, or 0.
func FromResult(request uint64, res *sandbox.Result) Entry {
	e := Entry{
		Request:    request,
		RunID:      res.RunID,
		ScriptID:   res.Script.ID,
		ScriptName: res.Script.Name,
		Engine:     res.Engine,
		State:      res.State.String(),
		DurationMs: res.Duration.Milliseconds(),
		OutputLen:  len(res.Output),
		Truncated:  res.Truncated,
		HostCalls:  res.HostCalls,
	}
	if res.Plot != nil {
		e.Series = len(res.Plot.Series)
	}
	if res.Error != nil {
		e.ErrorKind = string(res.Error.Kind)
		e.ErrorMsg = res.Error.Message
		e.ErrorLine = res.Error.Line
	}
	return e
}

// Recorder writes entries to a timestamped .jsonl file in a directory.
type Recorder struct {
	mu   sync.Mutex
	path string
}

// NewRecorder creates dir if needed and picks a new log file inside it.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return &Recorder{path: filepath.Join(dir, timestamp+".jsonl")}, nil
}

// Path returns the log file path.
func (r *Recorder) Path() string { return r.path }

// Append writes entry as one line, stamping it if Timestamp is zero.
func (r *Recorder) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write run entry: %w", err)
	}
	return nil
}

// Record appends the summary of res.
func (r *Recorder) Record(request uint64, res *sandbox.Result) error {
	return r.Append(FromResult(request, res))
}

// Entries reads every entry written so far.
func (r *Recorder) Entries() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // Skip malformed entries
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	return entries, nil
}
