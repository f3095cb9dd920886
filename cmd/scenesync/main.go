package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"scenesync/internal/config"
	"scenesync/internal/router"
	"scenesync/internal/server"
	"scenesync/internal/session"
	"scenesync/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, defaults apply)")
	flag.Parse()

	// Load configuration first so the log level can honor it
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadAndValidate(*configPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting scenesync",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	// Process-wide session state
	clients := session.NewClientRegistry()
	rooms := session.NewRoomRegistry(logger)

	rt := router.New(router.Limits{
		MaxRoomIDLength:   cfg.Session.MaxRoomIDLength,
		MaxUsernameLength: cfg.Session.MaxUsernameLength,
		MaxChatLength:     cfg.Session.MaxChatLength,
	}, clients, rooms, logger)

	srv := server.New(cfg.Server, rt, clients, rooms, logger)

	// Shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("scenesync stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
