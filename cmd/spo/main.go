// Command spo is the prompt optimisation CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/spo/internal/adapters/driven/ai"
	"github.com/custodia-labs/spo/internal/adapters/driven/config/file"
	"github.com/custodia-labs/spo/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spo/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/spo/internal/adapters/driving/cli"
	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/core/services"
	"github.com/custodia-labs/spo/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return report(fmt.Errorf("open config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return report(fmt.Errorf("load settings: %w", err))
	}

	store, closeStore, err := openSessionStore(settings.Storage)
	if err != nil {
		return report(err)
	}
	defer closeStore()

	prompts, err := file.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return report(fmt.Errorf("open prompts: %w", err))
	}
	watchPrompts(ctx, prompts)

	gateway, closeGateway, modelsErr := openGateway(ctx, *settings)
	defer closeGateway()

	executor := services.NewExecutor(gateway, services.WithConcurrency(settings.Optimizer.Concurrency))
	judge := services.NewJudge(gateway)
	generator := services.NewGenerator(gateway)
	for _, svc := range []driven.PromptStoreAware{executor, judge, generator} {
		svc.SetPromptStore(prompts)
	}

	cli.SetServices(services.NewOptimizerService(store, executor, judge, generator), settingsService)
	cli.SetModelsError(modelsErr)
	cli.SetVersion(version)

	// cobra reports command errors itself
	return cli.Execute(ctx)
}

// openSessionStore selects the history backend.
func openSessionStore(cfg domain.StorageSettings) (driven.SessionStore, func(), error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		return memory.NewSessionStore(), func() {}, nil
	case domain.StorageSQLite, "":
		db, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open history database: %w", err)
		}
		return db.SessionStore(), func() {
			if err := db.Close(); err != nil {
				logger.Warn("close history database: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

// openGateway binds every role to its model. When a role is not configured
// the returned gateway fails every call and the error is reported to the
// CLI, which still serves settings and history commands.
func openGateway(ctx context.Context, settings domain.AppSettings) (driven.ModelGateway, func(), error) {
	gateway, err := ai.NewRoleGatewayFromSettings(ctx, settings)
	if err != nil {
		unavailable := driven.ModelGatewayFunc(
			func(context.Context, domain.Role, []driven.ChatMessage) (string, error) {
				return "", err
			})
		return unavailable, func() {}, err
	}
	return gateway, func() {
		if err := gateway.Close(); err != nil {
			logger.Warn("close model services: %v", err)
		}
	}, nil
}

// watchPrompts reloads edited templates while long-running commands serve.
func watchPrompts(ctx context.Context, prompts *file.PromptStore) {
	// Load once so the directory and default files exist before watching.
	if _, err := prompts.Load(driven.PromptExecute); err != nil {
		logger.Warn("prompt templates unavailable, using defaults: %v", err)
		return
	}
	watcher, err := file.NewPromptWatcher(prompts, prompts.Dir())
	if err != nil {
		logger.Warn("prompt hot reload disabled: %v", err)
		return
	}
	watcher.Start(ctx)
	go func() {
		<-ctx.Done()
		if err := watcher.Stop(); err != nil {
			logger.Debug("stop prompt watcher: %v", err)
		}
	}()
}

func report(err error) error {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return err
}
