package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itsmostafa/goplot/internal/plot"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

func TestRecorder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	rec, err := NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder() error: %v", err)
	}
	if !strings.HasSuffix(rec.Path(), ".jsonl") {
		t.Errorf("Path() = %q, want a .jsonl file", rec.Path())
	}

	entries, err := rec.Entries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("Entries() before writing = %v, %v", entries, err)
	}

	ok := &sandbox.Result{
		RunID:    "run-1",
		Script:   sandbox.NewScript("a.tengo", "plot([1], [2])"),
		Engine:   sandbox.EngineTengo,
		State:    sandbox.Completed,
		Output:   "hello\n",
		Duration: 1500 * time.Millisecond,
		Plot:     &plot.Spec{Series: []plot.Series{{Kind: plot.KindLine}}},
	}
	failed := sandbox.Unstarted(sandbox.NewScript("b.js", "x"), sandbox.Failed, sandbox.KindShape, "bad shape")
	failed.Error.Line = 4

	if err := rec.Record(1, ok); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(2, failed); err != nil {
		t.Fatal(err)
	}

	entries, err = rec.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"request", entries[0].Request, uint64(1)},
		{"run id", entries[0].RunID, "run-1"},
		{"state", entries[0].State, "completed"},
		{"duration", entries[0].DurationMs, int64(1500)},
		{"series", entries[0].Series, 1},
		{"output bytes", entries[0].OutputLen, 6},
		{"error kind", entries[1].ErrorKind, "ShapeError"},
		{"error line", entries[1].ErrorLine, 4},
		{"failed state", entries[1].State, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("entry was not stamped")
	}
}

func TestEntriesSkipsMalformedLines(t *testing.T) {
	rec, err := NewRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rec.Path(), []byte("not json\n{\"run_id\":\"x\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := rec.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].RunID != "x" {
		t.Errorf("Entries() = %+v, want the one valid line", entries)
	}
}
