// Package main contains the entrypoint for the PolyGate chat gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polygate-bot/polygate/internal/adapter"
	"github.com/polygate-bot/polygate/internal/app"
	"github.com/polygate-bot/polygate/internal/bridge"
	"github.com/polygate-bot/polygate/internal/config"
	"github.com/polygate-bot/polygate/internal/domain"
	"github.com/polygate-bot/polygate/internal/logger"
	"github.com/polygate-bot/polygate/internal/platform"
	"github.com/polygate-bot/polygate/internal/platform/telegram"
	"github.com/polygate-bot/polygate/internal/recorder"
	"github.com/polygate-bot/polygate/internal/scheduler"
	"github.com/polygate-bot/polygate/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires all components together and blocks until shutdown. It returns
// the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)
	log.Info("logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := store.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer store.CloseDB(db)
	st := store.New(db, log)

	br := bridge.New(log)

	rec := recorder.New(st, log)
	rec.Attach(br)
	defer rec.Detach()

	adapters := buildAdapters(cfg, br, log)
	if len(adapters) == 0 {
		log.Error("no platforms enabled, nothing to do")
		return 1
	}

	sched, err := scheduler.New(log, cfg.Scheduler, st)
	if err != nil {
		log.Error("failed to create scheduler", "error", err)
		return 1
	}

	gateway := app.New(log, adapters, sched)

	log.Info("starting gateway")
	runErr := gateway.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("gateway stopped due to error", "error", runErr)
		return 1
	}

	return 0
}

// buildAdapters constructs one adapter per enabled platform.
func buildAdapters(cfg *config.Config, br *bridge.Bridge, log *slog.Logger) []*adapter.Adapter {
	var adapters []*adapter.Adapter

	if cfg.Platforms.Telegram.Enabled {
		factory := func(pc config.PlatformConfig) (platform.Client, error) {
			return telegram.New(telegram.Config{
				Token:       pc.Token,
				WebhookURL:  pc.WebhookURL,
				WebhookAddr: pc.WebhookAddr,
			}, log)
		}
		adapters = append(adapters,
			adapter.New(domain.PlatformTelegram, cfg.Platforms.Telegram, factory, br, log))
	}

	return adapters
}
