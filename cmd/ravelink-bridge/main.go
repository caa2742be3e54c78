// Command ravelink-bridge runs the audio-reactive lighting bridge: it
// loads layered YAML+env configuration, boots the audio source and
// reactive engine, and serves until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NameSRoby/ravelink-bridge/internal/bridge"
	"github.com/NameSRoby/ravelink-bridge/internal/config"
)

func main() {
	configPath := flag.String("config", "ravelink.yaml", "path to the bridge's YAML configuration file")
	envPrefix := flag.String("env-prefix", "RAVELINK", "prefix for environment variable overrides")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	if err := run(*configPath, *envPrefix, logger); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envPrefix string, logger *slog.Logger) error {
	loader, err := config.NewLoader(config.WithYAMLFile(configPath), config.WithEnvPrefix(envPrefix))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	root, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	b, err := bridge.New(root, logger)
	if err != nil {
		return fmt.Errorf("construct bridge: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	// SIGBREAK is Windows-only and has no syscall equivalent on this
	// build target; SIGINT/SIGTERM cover the terminate-and-shutdown
	// contract on every platform this binary actually ships for.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	b.Stop()
	return nil
}

func parseLevel(s string) slog.Level {
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
