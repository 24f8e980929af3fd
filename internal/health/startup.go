// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/oldtube/internal/config"
	"github.com/ManuGH/oldtube/internal/log"
)

// ToolProbe is implemented by *ffmpeg.Tool.
type ToolProbe interface {
	Resolve() (string, bool)
}

// PerformStartupChecks validates the environment before the server starts.
// A missing ffmpeg is logged but not fatal.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig, tool ToolProbe) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Str(log.FieldEvent, "startup.checks").Msg("running pre-flight startup checks")

	for _, dir := range []string{cfg.Storage.VideosDir, cfg.Storage.ThumbsDir, filepath.Dir(cfg.Storage.DBPath)} {
		if err := checkDir(logger, dir); err != nil {
			return fmt.Errorf("storage check failed: %w", err)
		}
	}

	for _, addr := range []string{cfg.ListenAddr, cfg.MetricsListen} {
		if err := checkListenAddr(addr); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	if tool != nil {
		if bin, ok := tool.Resolve(); ok {
			logger.Info().Str(log.FieldTool, bin).Msg("ffmpeg available")
		} else {
			logger.Warn().
				Str(log.FieldEvent, "startup.tool_missing").
				Msg("ffmpeg not found; uploads are stored without conversion or thumbnails")
		}
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	f, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	logger.Debug().Str(log.FieldPath, path).Msg("directory is writable")
	return nil
}

func checkListenAddr(addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	return nil
}
