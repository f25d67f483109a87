package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spo/internal/adapters/driven/taskfile"
	"github.com/custodia-labs/spo/internal/adapters/driving/tui"
	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimise the instruction in a task file",
	Long: `Run an optimisation session for a YAML task file and print the best
instruction found.

The task file holds the seed prompt, the requirement and the example
questions. Create one with 'spo task init'.

Examples:
  spo optimize --task entities.yaml
  spo optimize --task entities.yaml --rounds 10 --json
  spo optimize --task entities.yaml --tui`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringP("task", "t", "", "path to the task file")
	optimizeCmd.Flags().IntP("rounds", "r", 0, "round budget including the seed round (overrides the task file)")
	optimizeCmd.Flags().String("name", "", "session label (defaults to the task file name)")
	optimizeCmd.Flags().Bool("json", false, "print the full result as JSON")
	optimizeCmd.Flags().Bool("tui", false, "show live progress in a terminal UI")
	_ = optimizeCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	if err := requireOptimizer(); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("task")
	task, err := taskfile.Load(path, defaultMaxRounds())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rounds") {
		task.MaxRounds, _ = cmd.Flags().GetInt("rounds")
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	useTUI, _ := cmd.Flags().GetBool("tui")

	var result *domain.Result
	if useTUI {
		result, err = tui.Run(cmd.Context(), &tui.Ports{Optimizer: optimizer}, task, name)
	} else {
		opts := driving.OptimizeOptions{Name: name}
		if !asJSON {
			opts.Observer = progressPrinter(cmd.ErrOrStderr())
		}
		result, err = optimizer.Optimize(cmd.Context(), task, opts)
	}

	if result != nil {
		if printErr := printResult(cmd.OutOrStdout(), result, asJSON); printErr != nil {
			return printErr
		}
	}
	return err
}

// defaultMaxRounds returns the configured round budget for tasks that do
// not set their own.
func defaultMaxRounds() int {
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			return settings.Optimizer.MaxRounds
		}
	}
	return domain.DefaultAppSettings().Optimizer.MaxRounds
}

func progressPrinter(w io.Writer) driving.RoundObserver {
	return func(r domain.Round) {
		switch {
		case r.Index == 0:
			fmt.Fprintf(w, "round 0: seed evaluated (%d exemplars)\n", len(r.Execution.Outputs))
		case r.Failed():
			fmt.Fprintf(w, "round %d: failed: %s\n", r.Index, r.Failure)
		default:
			fmt.Fprintf(w, "round %d: %s (%s)\n", r.Index, r.Status(), r.Judgment)
		}
	}
}

func printResult(w io.Writer, result *domain.Result, asJSON bool) error {
	if asJSON {
		return writeJSON(w, result)
	}

	fmt.Fprintf(w, "Session: %s\n", result.SessionID)
	fmt.Fprintf(w, "Best instruction (round %d, score %d):\n\n", result.Best.Index, result.Best.Score)
	fmt.Fprintln(w, result.BestInstruction())
	return nil
}
