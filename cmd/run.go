package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/goplot/internal/console"
	"github.com/itsmostafa/goplot/internal/sandbox"
)

var runFlags sandboxFlags
var runOut string
var runQuiet bool

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a script once",
	Long: `Run a script once and print its output, any error and a summary of the plot
it built. The engine is chosen by extension (.tengo, .js, .lua) and falls back to
--engine. Exits with status 1 when the script fails or is cancelled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runFlags.config()
		if err != nil {
			return err
		}
		rec, err := runFlags.recorder()
		if err != nil {
			return err
		}
		script, err := loadScript(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if !runQuiet {
			console.FormatHeader(w, "run", engineLabel(script, cfg), script.Name, cfg.Timeout)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := sandbox.New(cfg).RunWithOutput(ctx, script, w)
		if err != nil {
			return err
		}
		if rec != nil {
			if err := rec.Record(0, res); err != nil {
				return err
			}
		}

		console.FormatError(cmd.ErrOrStderr(), res.Error, script.Source)
		if !runQuiet {
			console.FormatSpec(w, res.Plot)
			console.FormatSummary(w, res)
		}
		if runOut != "" {
			if err := writeSpec(runOut, res.Plot); err != nil {
				return err
			}
		}
		if res.State != sandbox.Completed {
			return errRunFailed
		}
		return nil
	},
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Write the plot specification as JSON to this file")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Print only script output and errors")

	rootCmd.AddCommand(runCmd)
}

func engineLabel(script sandbox.Script, cfg sandbox.Config) string {
	if script.Engine != "" {
		return script.Engine
	}
	return fmt.Sprintf("%s (default)", cfg.Engine)
}
