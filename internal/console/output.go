// Package console renders run states, results and plot specifications for a
// terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/goplot/internal/plot"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// boxStyle for the run summary
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	// errorBoxStyle frames script errors
	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)

	seriesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

// FormatHeader renders the session header.
func FormatHeader(w io.Writer, mode, engine, source string, timeout time.Duration) {
	limit := "none"
	if timeout > 0 {
		limit = timeout.String()
	}
	content := fmt.Sprintf("%s %s  %s %s\n%s %s  %s %s",
		dimStyle.Render("Mode:"), titleStyle.Render(mode),
		dimStyle.Render("Engine:"), titleStyle.Render(engine),
		dimStyle.Render("Script:"), source,
		dimStyle.Render("Timeout:"), limit,
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// StateLabel returns a colored label for a run state.
func StateLabel(s sandbox.State) string {
	switch s {
	case sandbox.Completed:
		return successStyle.Render("COMPLETED")
	case sandbox.Failed:
		return errorStyle.Render("FAILED")
	case sandbox.Cancelled:
		return warnStyle.Render("CANCELLED")
	case sandbox.Running:
		return titleStyle.Render("RUNNING")
	default:
		return dimStyle.Render(strings.ToUpper(s.String()))
	}
}

// FormatState writes a one-line state change for request id.
func FormatState(w io.Writer, id uint64, s sandbox.State) {
	indicator := warnStyle.Render("●")
	if sandbox.IsTerminal(s) {
		indicator = dimStyle.Render("○")
	}
	fmt.Fprintf(w, "%s %s %s\n", indicator, dimStyle.Render(fmt.Sprintf("run #%d", id)), StateLabel(s))
}

// FormatOutput writes script output as is.
func FormatOutput(w io.Writer, p []byte) {
	fmt.Fprint(w, string(p))
}

// FormatError renders a script error, quoting the failing line of source when
// it is known.
func FormatError(w io.Writer, serr *sandbox.ScriptError, source string) {
	if serr == nil {
		return
	}
	lines := []string{errorStyle.Render(string(serr.Kind)) + " " + serr.Message}
	if serr.Line > 0 {
		loc := fmt.Sprintf("line %d", serr.Line)
		if serr.Column > 0 {
			loc += fmt.Sprintf(", column %d", serr.Column)
		}
		lines = append(lines, dimStyle.Render(loc))
		if text, ok := sourceLine(source, serr.Line); ok {
			lines = append(lines, fmt.Sprintf("%s %s", dimStyle.Render(fmt.Sprintf("%4d |", serr.Line)), text))
			if serr.Column > 0 {
				lines = append(lines, fmt.Sprintf("%s %s^", dimStyle.Render("     |"), strings.Repeat(" ", serr.Column-1)))
			}
		}
	}
	fmt.Fprintln(w, errorBoxStyle.Render(strings.Join(lines, "\n")))
}

func sourceLine(source string, line int) (string, bool) {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// FormatSummary renders the result summary box.
func FormatSummary(w io.Writer, res *sandbox.Result) {
	series := 0
	if res.Plot != nil {
		series = len(res.Plot.Series)
	}
	output := formatNumber(len(res.Output)) + " bytes"
	if res.Truncated {
		output += " " + warnStyle.Render("(truncated)")
	}

	line1 := fmt.Sprintf("%s %.3fs  %s %d  %s %s",
		dimStyle.Render("Duration:"), res.Duration.Seconds(),
		dimStyle.Render("Series:"), series,
		dimStyle.Render("Output:"), output,
	)
	line2 := fmt.Sprintf("%s %s  %s %s  %s",
		dimStyle.Render("Engine:"), res.Engine,
		dimStyle.Render("Host calls:"), formatNumber(res.HostCalls),
		StateLabel(res.State),
	)
	content := titleStyle.Render("Run Complete") + "\n" + line1 + "\n" + line2
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatSpec lists the title, axes and series of a plot specification.
func FormatSpec(w io.Writer, spec *plot.Spec) {
	if spec == nil || (len(spec.Series) == 0 && spec.Title == "") {
		fmt.Fprintln(w, dimStyle.Render("(empty plot)"))
		return
	}
	if spec.Title != "" {
		fmt.Fprintln(w, titleStyle.Render(spec.Title))
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("x:"), formatAxis(spec.XAxis))
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("y:"), formatAxis(spec.YAxis))
	for i, s := range spec.Series {
		name := s.Label
		if name == "" {
			name = fmt.Sprintf("series %d", i+1)
		}
		fmt.Fprintf(w, "%s %s %s %d points%s\n",
			seriesStyle.Render(string(s.Kind)), name,
			dimStyle.Render("·"), s.Y.Len(), formatStyle(s.Style))
	}
	if spec.Legend {
		fmt.Fprintln(w, dimStyle.Render("legend on"))
	}
}

func formatAxis(a plot.Axis) string {
	parts := []string{string(a.Scale)}
	if a.Label != "" {
		parts = append(parts, fmt.Sprintf("%q", a.Label))
	}
	if a.Min != nil || a.Max != nil {
		parts = append(parts, fmt.Sprintf("[%s, %s]", bound(a.Min), bound(a.Max)))
	}
	return strings.Join(parts, " ")
}

func bound(v *float64) string {
	if v == nil {
		return "auto"
	}
	return fmt.Sprintf("%g", *v)
}

func formatStyle(st plot.Style) string {
	var parts []string
	if st.Color != "" {
		parts = append(parts, "color="+st.Color)
	}
	if st.Width > 0 {
		parts = append(parts, fmt.Sprintf("width=%g", st.Width))
	}
	if st.Marker != "" {
		parts = append(parts, "marker="+st.Marker)
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render("("+strings.Join(parts, ", ")+")")
}

// formatNumber adds commas to large numbers for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
