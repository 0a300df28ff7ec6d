package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow_go/internal/app"
	"escrow_go/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 0. Global Panic Recovery
	defer infra.Recover()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown(context.Background())

	infra.PrintBanner(bootstrap.Config)

	// 4. Periodic snapshots shorten the replay tail on the next start.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := bootstrap.SaveSnapshot(); err != nil {
					slog.Warn("snapshot failed", slog.Any("error", err))
				}
			}
		}
	}()

	slog.InfoContext(ctx, "✨ Escrow Vault fully operational. Press Ctrl+C to exit.",
		slog.String("feed", infra.FeedURL(bootstrap.Config.Feed.ListenAddr)))

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")

	// Final snapshot on clean exit.
	if err := bootstrap.SaveSnapshot(); err != nil {
		slog.Warn("final snapshot failed", slog.Any("error", err))
	}
}
