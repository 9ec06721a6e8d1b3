package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	configloader "github.com/patths/gametime-bonus/external/config"
	gameserverimpl "github.com/patths/gametime-bonus/external/gameserver"
	repositoryimpl "github.com/patths/gametime-bonus/external/repository"
	webhookimpl "github.com/patths/gametime-bonus/external/webhook"
	"github.com/patths/gametime-bonus/internal/config"
	gameserverpkg "github.com/patths/gametime-bonus/internal/gameserver"
	"github.com/patths/gametime-bonus/internal/tracker"
	"github.com/samber/do/v2"
)

const serverAttachTimeout = 20 * time.Second

func main() {
	// A local .env is a development convenience; in production everything
	// comes from the real environment.
	_ = godotenv.Load()

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: attaching to game server")
	runService(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	gameserverimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	tracker.RegisterDI(injector)

	return injector
}

func runService(injector do.Injector) {
	server, err := do.Invoke[gameserverpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve game server client", "error", err)
		os.Exit(1)
	}
	pool, err := do.Invoke[*pgxpool.Pool](injector)
	if err != nil {
		slog.Error("failed to resolve database pool", "error", err)
		os.Exit(1)
	}
	tr, err := do.Invoke[*tracker.Tracker](injector)
	if err != nil {
		slog.Error("failed to resolve tracker", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverAttachTimeout)
	err = server.Connect(ctx)
	cancel()
	if err != nil {
		slog.Error("game server attach failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: game server attached")

	server.RegisterPlayerEventHandler(tr.HandlePlayerEvent)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	go tr.Run(loopCtx)

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering log stream loop")
		if err := server.Run(); err != nil {
			slog.Error("log stream loop failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	stopLoop()
	if err := server.Close(); err != nil {
		slog.Error("game server close failed", "error", err)
	}
	pool.Close()
}
