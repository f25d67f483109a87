package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spo/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/spo/internal/core/domain"
)

// shutdownGrace bounds how long in-flight sessions may run after a stop signal.
const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST /optimize                  optimise an article-writing prompt
  POST /v1/sessions               run a session for any task
  GET  /v1/sessions               list sessions
  GET  /v1/sessions/{session_id}  show a session and its rounds
  GET  /healthz                   liveness check`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (defaults to the configured server address)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireOptimizer(); err != nil {
		return err
	}

	settings := domain.DefaultAppSettings()
	if settingsService != nil {
		if current, err := settingsService.Get(); err == nil {
			settings = *current
		}
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = settings.Server.Addr
	}

	router := httpapi.NewRouter(optimizer, httpapi.Config{MaxRounds: settings.Optimizer.MaxRounds})
	cmd.Printf("spo API listening on %s\n", addr)
	return httpapi.NewServer(addr, router).Run(cmd.Context(), shutdownGrace)
}
