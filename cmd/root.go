package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/goplot/internal/plot"
	"github.com/itsmostafa/goplot/internal/runlog"
	"github.com/itsmostafa/goplot/internal/sandbox"
	"github.com/itsmostafa/goplot/internal/version"
)

// errRunFailed signals a script that did not complete. The details have
// already been printed.
var errRunFailed = errors.New("script did not complete")

var rootCmd = &cobra.Command{
	Use:   "goplot",
	Short: "Run plotting scripts against a numeric array host",
	Long: `goplot runs short Tengo, JavaScript or Lua scripts that build numeric arrays and
describe plots with calls like plot, scatter, bar, title and xlim.

Each run happens in a fresh interpreter and produces captured output, a
structured error when the script fails, and a JSON plot specification that a
renderer can draw.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("goplot %s\n", version.String()))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// sandboxFlags are shared by the commands that run scripts.
type sandboxFlags struct {
	engine    string
	timeout   time.Duration
	maxCalls  int
	maxOutput int
	logDir    string
}

func (f *sandboxFlags) register(cmd *cobra.Command) {
	// Engine and timeout flags with env var fallback
	defaultEngine := sandbox.EngineTengo
	if env := os.Getenv("GOPLOT_ENGINE"); env != "" {
		defaultEngine = env
	}
	defaults := sandbox.DefaultConfig()
	defaultTimeout := defaults.Timeout
	if env := os.Getenv("GOPLOT_TIMEOUT"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			defaultTimeout = d
		}
	}

	cmd.Flags().StringVarP(&f.engine, "engine", "e", defaultEngine, "Script engine when the file extension does not pick one (tengo, js, lua)")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "t", defaultTimeout, "Maximum run time (0 = unlimited)")
	cmd.Flags().IntVar(&f.maxCalls, "max-calls", defaults.MaxHostCalls, "Maximum host API calls per run (0 = unlimited)")
	cmd.Flags().IntVar(&f.maxOutput, "max-output", defaults.MaxOutputChars, "Maximum captured output bytes per run (0 = unlimited)")
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "Append a JSONL record of every run to a file in this directory")
}

func (f *sandboxFlags) config() (sandbox.Config, error) {
	if _, err := sandbox.EngineFor(f.engine); err != nil {
		return sandbox.Config{}, err
	}
	cfg := sandbox.DefaultConfig()
	cfg.Engine = f.engine
	cfg.Timeout = f.timeout
	cfg.MaxHostCalls = f.maxCalls
	cfg.MaxOutputChars = f.maxOutput
	return cfg, nil
}

func (f *sandboxFlags) recorder() (*runlog.Recorder, error) {
	if f.logDir == "" {
		return nil, nil
	}
	return runlog.NewRecorder(f.logDir)
}

// loadScript reads path and tags it with the engine its extension selects.
func loadScript(path string) (sandbox.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sandbox.Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	return sandbox.NewScript(path, string(data)), nil
}

// writeSpec writes the JSON plot specification to path.
func writeSpec(path string, spec *plot.Spec) error {
	data, err := spec.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
