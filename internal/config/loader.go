// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr   = ":8080"
	defaultDataDir      = "./data"
	defaultAdminUser    = "admin"
	defaultLogLevel     = "info"
	defaultMaxMB        = 250
	defaultRatePerMin   = 30
	defaultToolTimeout  = 10 * time.Minute
	defaultUploadWindow = 30 * time.Minute
	defaultToolWorkers  = 2
	defaultTraceExport  = "grpc"
	defaultTraceTarget  = "localhost:4317"
	defaultTraceSamples = 1.0
)

// Loader resolves configuration with precedence ENV > YAML file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: strings.TrimSpace(configPath), version: version}
}

// Load builds, merges and validates the configuration.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return AppConfig{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
		if err := mergeFile(&cfg, fileCfg); err != nil {
			return AppConfig{}, err
		}
	}

	mergeEnv(&cfg)
	deriveStoragePaths(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		ListenAddr: defaultListenAddr,
		DataDir:    defaultDataDir,
		LogLevel:   defaultLogLevel,
		AdminUser:  defaultAdminUser,
		Upload: UploadConfig{
			MaxMB:              defaultMaxMB,
			RateLimitPerMinute: defaultRatePerMin,
			Timeout:            defaultUploadWindow,
		},
		FFmpeg: FFmpegConfig{
			Convert:   true,
			Thumbnail: true,
			Timeout:   defaultToolTimeout,
			Workers:   defaultToolWorkers,
		},
		Tracing: TracingConfig{
			Exporter:   defaultTraceExport,
			Endpoint:   defaultTraceTarget,
			SampleRate: defaultTraceSamples,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// Parse YAML with strict mode (unknown fields cause errors)
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	return &fileCfg, nil
}

func mergeFile(dst *AppConfig, src *FileConfig) error {
	setString(&dst.ListenAddr, src.Listen)
	setString(&dst.MetricsListen, src.MetricsListen)
	setString(&dst.DataDir, src.DataDir)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.AdminUser, src.AdminUser)

	setString(&dst.Storage.VideosDir, src.Storage.VideosDir)
	setString(&dst.Storage.ThumbsDir, src.Storage.ThumbsDir)
	setString(&dst.Storage.DBPath, src.Storage.DBPath)

	if src.Upload.MaxMB != nil {
		dst.Upload.MaxMB = *src.Upload.MaxMB
	}
	if src.Upload.RateLimitPerMinute != nil {
		dst.Upload.RateLimitPerMinute = *src.Upload.RateLimitPerMinute
	}
	if s := strings.TrimSpace(src.Upload.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("upload.timeout: %w", err)
		}
		dst.Upload.Timeout = d
	}

	setString(&dst.FFmpeg.Bin, src.FFmpeg.Bin)
	if src.FFmpeg.Convert != nil {
		dst.FFmpeg.Convert = *src.FFmpeg.Convert
	}
	if src.FFmpeg.Thumbnail != nil {
		dst.FFmpeg.Thumbnail = *src.FFmpeg.Thumbnail
	}
	if s := strings.TrimSpace(src.FFmpeg.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("ffmpeg.timeout: %w", err)
		}
		dst.FFmpeg.Timeout = d
	}
	if src.FFmpeg.Workers != nil {
		dst.FFmpeg.Workers = *src.FFmpeg.Workers
	}

	if src.Tracing.Enabled != nil {
		dst.Tracing.Enabled = *src.Tracing.Enabled
	}
	setString(&dst.Tracing.Exporter, src.Tracing.Exporter)
	setString(&dst.Tracing.Endpoint, src.Tracing.Endpoint)
	if src.Tracing.SampleRate != nil {
		dst.Tracing.SampleRate = *src.Tracing.SampleRate
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString("OLDTUBE_LISTEN", cfg.ListenAddr)
	cfg.MetricsListen = ParseString("OLDTUBE_METRICS_LISTEN", cfg.MetricsListen)
	cfg.DataDir = ParseString("OLDTUBE_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = ParseString("OLDTUBE_LOG_LEVEL", cfg.LogLevel)
	cfg.AdminUser = ParseString("OLDTUBE_ADMIN_USER", cfg.AdminUser)

	cfg.Storage.VideosDir = ParseString("OLDTUBE_VIDEOS_DIR", cfg.Storage.VideosDir)
	cfg.Storage.ThumbsDir = ParseString("OLDTUBE_THUMBS_DIR", cfg.Storage.ThumbsDir)
	cfg.Storage.DBPath = ParseString("OLDTUBE_DB_PATH", cfg.Storage.DBPath)

	cfg.Upload.MaxMB = ParseInt64("OLDTUBE_MAX_MB", cfg.Upload.MaxMB)
	cfg.Upload.RateLimitPerMinute = ParseInt("OLDTUBE_UPLOAD_RATE_LIMIT", cfg.Upload.RateLimitPerMinute)
	cfg.Upload.Timeout = ParseDuration("OLDTUBE_UPLOAD_TIMEOUT", cfg.Upload.Timeout)

	cfg.FFmpeg.Bin = strings.TrimSpace(ParseString("FFMPEG_BIN", cfg.FFmpeg.Bin))
	cfg.FFmpeg.Convert = ParseBool("OLDTUBE_CONVERT", cfg.FFmpeg.Convert)
	cfg.FFmpeg.Thumbnail = ParseBool("OLDTUBE_THUMBNAIL", cfg.FFmpeg.Thumbnail)
	cfg.FFmpeg.Timeout = ParseDuration("OLDTUBE_TOOL_TIMEOUT", cfg.FFmpeg.Timeout)
	cfg.FFmpeg.Workers = ParseInt("OLDTUBE_TOOL_WORKERS", cfg.FFmpeg.Workers)

	cfg.Tracing.Enabled = ParseBool("OLDTUBE_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString("OLDTUBE_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString("OLDTUBE_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = ParseFloat("OLDTUBE_TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)
}

// deriveStoragePaths fills storage locations that were not set explicitly
// from the data directory.
func deriveStoragePaths(cfg *AppConfig) {
	if cfg.Storage.VideosDir == "" {
		cfg.Storage.VideosDir = filepath.Join(cfg.DataDir, "uploads", "videos")
	}
	if cfg.Storage.ThumbsDir == "" {
		cfg.Storage.ThumbsDir = filepath.Join(cfg.DataDir, "uploads", "thumbs")
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.DataDir, "oldtube.db")
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
