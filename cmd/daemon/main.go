// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/oldtube/internal/config"
	"github.com/ManuGH/oldtube/internal/daemon"
	xglog "github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/persistence/sqlite"
	"github.com/ManuGH/oldtube/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const checkpointInterval = 10 * time.Minute

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "oldtube",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// An explicit -config wins; otherwise ${OLDTUBE_DATA_DIR}/config.yaml is
	// picked up when present.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	source := "file"
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString("OLDTUBE_DATA_DIR", "./data"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
			source = "file(auto)"
		} else {
			source = "env+defaults"
		}
	}

	cfg, err := config.NewLoader(effectiveConfigPath, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "oldtube",
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", effectiveConfigPath).
		Msg("configuration loaded")

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
	}
	logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}

func run(ctx context.Context, cfg config.AppConfig) error {
	logger := xglog.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "oldtube",
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	rt, err := buildRuntime(ctx, cfg, nil)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return err
	}

	mgr, err := daemon.NewManager(config.ParseServerConfig(cfg), daemon.Deps{
		Logger:         logger,
		APIHandler:     rt.handler,
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.MetricsListen,
	})
	if err != nil {
		_ = rt.Close()
		_ = tp.Shutdown(context.Background())
		return err
	}
	// Hooks run LIFO: the database closes before the tracer flushes.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("database", func(context.Context) error { return rt.Close() })

	app := daemon.NewApp(logger, mgr, daemon.Task{
		Name:     "wal-checkpoint",
		Interval: checkpointInterval,
		Run: func(ctx context.Context) error {
			busy, err := sqlite.Checkpoint(ctx, rt.db)
			if err != nil {
				return err
			}
			if busy {
				logger.Debug().Str("event", "db.checkpoint_busy").Msg("wal checkpoint could not complete")
			}
			return nil
		},
	})

	logger.Info().
		Str("event", "daemon.starting").
		Str("listen", cfg.ListenAddr).
		Str("metrics_listen", cfg.MetricsListen).
		Str("version", version).
		Str("commit", commit).
		Msg("starting oldtube")
	return app.Run(ctx)
}
