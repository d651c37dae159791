package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/goplot/internal/console"
	"github.com/itsmostafa/goplot/internal/coordinator"
	"github.com/itsmostafa/goplot/internal/runlog"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

var watchFlags sandboxFlags
var watchOut string
var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-run a script every time it changes",
	Long: `Watch a script file and re-run it whenever it is saved. A change made while
the previous run is still going cancels that run and starts the new one. The
plot of the latest completed run is written to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := watchFlags.config()
		if err != nil {
			return err
		}
		rec, err := watchFlags.recorder()
		if err != nil {
			return err
		}
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to watch script: %w", err)
		}

		w := cmd.OutOrStdout()
		console.FormatHeader(w, "watch", cfg.Engine, path, cfg.Timeout)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p := newPresenter(w, cmd.ErrOrStderr(), rec, watchOut)
		coord := coordinator.New(sandbox.New(cfg), p.listener())
		defer coord.Close()

		return watchFile(ctx, path, watchInterval, func(s sandbox.Script) {
			p.submit(coord, s)
		}, cmd.ErrOrStderr())
	},
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Write the latest plot specification as JSON to this file")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 500*time.Millisecond, "How often to check the file for changes")

	rootCmd.AddCommand(watchCmd)
}

// fileStamp identifies one saved version of a file.
type fileStamp struct {
	mod  time.Time
	size int64
}

// watchFile calls run with the script at path now and after every change
// until ctx is done.
func watchFile(ctx context.Context, path string, interval time.Duration, run func(sandbox.Script), errw io.Writer) error {
	var last fileStamp
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		info, err := os.Stat(path)
		if err == nil {
			stamp := fileStamp{mod: info.ModTime(), size: info.Size()}
			if stamp != last {
				last = stamp
				if script, err := loadScript(path); err == nil {
					run(script)
				} else {
					fmt.Fprintln(errw, err)
				}
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// presenter prints coordinator events and persists results.
type presenter struct {
	out, errw io.Writer
	rec       *runlog.Recorder
	specPath  string

	mu      sync.Mutex
	scripts map[uint64]sandbox.Script
}

func newPresenter(out, errw io.Writer, rec *runlog.Recorder, specPath string) *presenter {
	return &presenter{
		out:      out,
		errw:     errw,
		rec:      rec,
		specPath: specPath,
		scripts:  map[uint64]sandbox.Script{},
	}
}

// submit requests a run of s, remembering its source for error reports.
func (p *presenter) submit(coord *coordinator.Coordinator, s sandbox.Script) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := coord.RequestRun(s)
	p.scripts[id] = s
	return id
}

func (p *presenter) listener() coordinator.Listener {
	return coordinator.Listener{
		OnState: func(id uint64, s sandbox.State) {
			console.FormatState(p.out, id, s)
		},
		OnOutput: func(_ uint64, b []byte) {
			console.FormatOutput(p.out, b)
		},
		OnResult: p.result,
	}
}

func (p *presenter) result(id uint64, res *sandbox.Result) {
	p.mu.Lock()
	source := p.scripts[id].Source
	delete(p.scripts, id)
	p.mu.Unlock()

	if p.rec != nil {
		if err := p.rec.Record(id, res); err != nil {
			fmt.Fprintln(p.errw, err)
		}
	}
	if res.State == sandbox.Cancelled && res.Duration == 0 {
		// Superseded before it started.
		return
	}
	console.FormatError(p.errw, res.Error, source)
	console.FormatSpec(p.out, res.Plot)
	console.FormatSummary(p.out, res)
	if p.specPath != "" && res.State == sandbox.Completed {
		if err := writeSpec(p.specPath, res.Plot); err != nil {
			fmt.Fprintln(p.errw, err)
		}
	}
}
