package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/itsmostafa/goplot/internal/plot"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	serr := &sandbox.ScriptError{Kind: sandbox.KindIndexOutOfBounds, Message: "index 5 is out of bounds", Line: 2, Column: 3}
	FormatError(&buf, serr, "x := zeros(2)\ny := x[5]\n")
	out := buf.String()
	for _, want := range []string{"IndexOutOfBounds", "index 5 is out of bounds", "line 2, column 3", "y := x[5]"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatError output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	FormatError(&buf, nil, "")
	if buf.Len() != 0 {
		t.Errorf("FormatError(nil) wrote %q", buf.String())
	}
}

func TestSourceLine(t *testing.T) {
	tests := []struct {
		line int
		want string
		ok   bool
	}{
		{1, "a", true},
		{2, "b", true},
		{0, "", false},
		{4, "", false},
	}
	for _, tt := range tests {
		got, ok := sourceLine("a\r\nb\nc", tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("sourceLine(%d) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatSpec(t *testing.T) {
	lo, hi := 0.0, 10.0
	spec := plot.NewSpec()
	spec.Title = "Growth"
	spec.XAxis.Min, spec.XAxis.Max = &lo, &hi
	spec.YAxis.Scale = plot.ScaleLog
	spec.Series = []plot.Series{
		{Kind: plot.KindLine, Label: "train", Y: plot.Data{Values: []float64{1, 2, 3}}, Style: plot.Style{Color: "red"}},
		{Kind: plot.KindBar, Y: plot.Data{Values: []float64{4}}},
	}

	var buf bytes.Buffer
	FormatSpec(&buf, spec)
	out := buf.String()
	for _, want := range []string{"Growth", "[0, 10]", "log", "train", "3 points", "color=red", "series 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatSpec output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	FormatSpec(&buf, plot.NewSpec())
	if !strings.Contains(buf.String(), "empty plot") {
		t.Errorf("empty spec output = %q", buf.String())
	}
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	res := sandbox.Unstarted(sandbox.NewScript("a.tengo", ""), sandbox.Cancelled, sandbox.KindTimeoutOrCancelled, "stopped")
	res.Truncated = true
	FormatSummary(&buf, res)
	for _, want := range []string{"CANCELLED", "truncated", "Series:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("FormatSummary output missing %q:\n%s", want, buf.String())
		}
	}
}
