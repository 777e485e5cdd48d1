// Package main is the entry point for the MCP sampling gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"samplegate/config"
	"samplegate/internal/app"
	"samplegate/internal/logging"
	"samplegate/internal/providers"
	"samplegate/internal/providers/anthropic"
	"samplegate/internal/providers/openrouter"
	"samplegate/internal/providers/stub"
	"samplegate/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	result, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := result.Config

	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	slog.Info("starting samplegate",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)
	if result.ConfigFile != "" {
		slog.Info("configuration loaded", "file", result.ConfigFile)
	}

	factory := providers.NewStrategyFactory()
	factory.Add(stub.Registration)
	factory.Add(openrouter.Registration)
	factory.Add(anthropic.Registration)

	application, err := app.New(context.Background(), app.Config{
		AppConfig: result,
		Factory:   factory,
	})
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := application.Start(":" + cfg.Server.Port); err != nil {
		slog.Error("server error", "error", err)
		_ = application.Shutdown(context.Background())
		os.Exit(1)
	}
	// Start returns as soon as the listener closes; wait for buffered usage to flush
	<-shutdownDone
}
