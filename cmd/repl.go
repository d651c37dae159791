package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/itsmostafa/goplot/internal/console"
	"github.com/itsmostafa/goplot/internal/coordinator"
	"github.com/itsmostafa/goplot/internal/plot"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

const (
	historyFile = ".goplot_history"
	promptMain  = "goplot> "
	promptCont  = "   ...> "
)

const replHelp = `Lines are collected into a script until you run it.

REPL commands:
  :run           Run the collected script (cancels a run in progress)
  :cancel        Cancel the run in progress
  :show          Print the collected script
  :clear         Discard the collected script
  :plot          Print the plot of the last completed run
  :save FILE     Write the plot of the last completed run as JSON
  :help          Show this help
  :quit          Exit the REPL
`

var replFlags sandboxFlags

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Edit and run scripts interactively",
	Long:  `Start an interactive session. Type script lines, then :run to execute them.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := replFlags.config()
		if err != nil {
			return err
		}
		rec, err := replFlags.recorder()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		console.FormatHeader(w, "repl", cfg.Engine, "(interactive)", cfg.Timeout)
		fmt.Fprintln(w, "Type :help for commands, Ctrl+D exits.")

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)
		ln.SetCompleter(completeCommand)

		home, _ := os.UserHomeDir()
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()

		s := &replSession{
			engine:    cfg.Engine,
			out:       w,
			presenter: newPresenter(w, cmd.ErrOrStderr(), rec, ""),
		}
		coord := coordinator.New(sandbox.New(cfg), s.listener())
		defer coord.Close()
		s.coord = coord

		for {
			prompt := promptMain
			if len(s.lines) > 0 {
				prompt = promptCont
			}
			line, err := ln.Prompt(prompt)
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			if errors.Is(err, liner.ErrPromptAborted) {
				coord.RequestCancel()
				continue
			}
			if err != nil {
				return err
			}
			if strings.TrimSpace(line) != "" {
				ln.AppendHistory(line)
			}
			if !s.handle(line) {
				return nil
			}
		}
	},
}

func init() {
	replFlags.register(replCmd)
	rootCmd.AddCommand(replCmd)
}

var replCommands = []string{":run", ":cancel", ":show", ":clear", ":plot", ":save ", ":help", ":quit"}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, ":") {
		return nil
	}
	var out []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// replSession holds the script being edited and the last completed plot.
type replSession struct {
	engine    string
	out       io.Writer
	coord     *coordinator.Coordinator
	presenter *presenter
	lines     []string

	mu   sync.Mutex
	last *plot.Spec
}

func (s *replSession) listener() coordinator.Listener {
	l := s.presenter.listener()
	l.OnResult = func(id uint64, res *sandbox.Result) {
		s.presenter.result(id, res)
		if res.State == sandbox.Completed {
			s.mu.Lock()
			s.last = res.Plot
			s.mu.Unlock()
		}
	}
	return l
}

func (s *replSession) lastPlot() *plot.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// handle processes one input line. It returns false to end the session.
func (s *replSession) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		s.lines = append(s.lines, line)
		return true
	}

	command, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case ":quit", ":q", ":exit":
		return false
	case ":run":
		if len(s.lines) == 0 {
			fmt.Fprintln(s.out, "nothing to run")
			return true
		}
		script := sandbox.NewScript("repl", strings.Join(s.lines, "\n"))
		script.Engine = s.engine
		s.presenter.submit(s.coord, script)
	case ":cancel":
		s.coord.RequestCancel()
	case ":show":
		for i, l := range s.lines {
			fmt.Fprintf(s.out, "%4d | %s\n", i+1, l)
		}
	case ":clear":
		s.lines = nil
	case ":plot":
		console.FormatSpec(s.out, s.lastPlot())
	case ":save":
		spec := s.lastPlot()
		switch {
		case arg == "":
			fmt.Fprintln(s.out, "usage: :save FILE")
		case spec == nil:
			fmt.Fprintln(s.out, "no completed run yet")
		default:
			if err := writeSpec(arg, spec); err != nil {
				fmt.Fprintln(s.out, err)
			} else {
				fmt.Fprintf(s.out, "wrote %s\n", arg)
			}
		}
	case ":help":
		fmt.Fprint(s.out, replHelp)
	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", command)
	}
	return true
}
