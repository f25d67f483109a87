// Package cli implements the spo command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spo/internal/core/ports/driving"
	"github.com/custodia-labs/spo/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root.
var (
	optimizer       driving.Optimizer
	settingsService driving.SettingsService

	// modelsErr explains why model roles could not be bound. Commands that
	// call models refuse to run while it is set; history still works.
	modelsErr error
)

var rootCmd = &cobra.Command{
	Use:   "spo",
	Short: "Self-supervised prompt optimisation",
	Long: `spo improves an instruction prompt without labelled scores.

Each round proposes a rewritten instruction, runs it against a small set of
example questions and asks a judge model whether its answers beat the best
instruction so far. The best instruction is kept and every round is recorded.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err == nil {
			logger.SetVerbose(verbose)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// SetServices injects the core services used by commands.
func SetServices(opt driving.Optimizer, settings driving.SettingsService) {
	optimizer = opt
	settingsService = settings
}

// SetModelsError records why the model roles are unavailable.
func SetModelsError(err error) {
	modelsErr = err
}

// SetVersion sets the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// requireOptimizer checks the optimizer is wired and its models are bound.
func requireOptimizer() error {
	if optimizer == nil {
		return errors.New("optimizer not configured")
	}
	return modelsErr
}

// requireHistory checks session history can be read.
func requireHistory() error {
	if optimizer == nil {
		return errors.New("optimizer not configured")
	}
	return nil
}
