// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Validate reports every invalid setting at once.
func Validate(cfg AppConfig) error {
	var errs ValidationErrors
	add := func(field, reason string) {
		errs = append(errs, FieldError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		add("listen", "must not be empty")
	}
	if cfg.Upload.MaxMB <= 0 {
		add("upload.maxMB", "must be positive")
	}
	if cfg.Upload.RateLimitPerMinute < 0 {
		add("upload.rateLimitPerMinute", "must not be negative")
	}
	if cfg.Upload.Timeout < 0 {
		add("upload.timeout", "must not be negative")
	}
	if cfg.FFmpeg.Timeout <= 0 {
		add("ffmpeg.timeout", "must be positive")
	}
	if cfg.FFmpeg.Workers < 1 {
		add("ffmpeg.workers", "must be at least 1")
	}
	if cfg.Storage.VideosDir != "" && filepath.Clean(cfg.Storage.VideosDir) == filepath.Clean(cfg.Storage.ThumbsDir) {
		add("storage.thumbsDir", "must differ from storage.videosDir")
	}
	if strings.TrimSpace(cfg.AdminUser) == "" {
		add("adminUser", "must not be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel", "unknown level "+cfg.LogLevel)
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			add("tracing.exporter", "must be grpc or http")
		}
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			add("tracing.sampleRate", "must be within [0,1]")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
