// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string

	ListenAddr    string
	MetricsListen string
	DataDir       string
	LogLevel      string
	AdminUser     string

	Storage StorageConfig
	Upload  UploadConfig
	FFmpeg  FFmpegConfig
	Tracing TracingConfig
}

// StorageConfig locates the durable directories and the catalog database.
type StorageConfig struct {
	VideosDir string
	ThumbsDir string
	DBPath    string
}

// UploadConfig bounds the upload endpoint.
type UploadConfig struct {
	MaxMB              int64
	RateLimitPerMinute int
	// Timeout bounds reading one upload body and replaces the server-wide
	// read timeout for the upload route. Zero removes the bound.
	Timeout time.Duration
}

// MaxBytes returns the request body limit derived from MaxMB.
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxMB * 1024 * 1024
}

// FFmpegConfig controls conversion and thumbnail extraction.
type FFmpegConfig struct {
	// Bin is an explicit binary path; empty means PATH lookup.
	Bin       string
	Convert   bool
	Thumbnail bool
	Timeout   time.Duration
	Workers   int
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled    bool
	Exporter   string // "grpc" or "http"
	Endpoint   string
	SampleRate float64
}

// FileConfig mirrors the YAML file. Pointers distinguish unset from zero.
type FileConfig struct {
	Listen        string `yaml:"listen,omitempty"`
	MetricsListen string `yaml:"metricsListen,omitempty"`
	DataDir       string `yaml:"dataDir,omitempty"`
	LogLevel      string `yaml:"logLevel,omitempty"`
	AdminUser     string `yaml:"adminUser,omitempty"`

	Storage struct {
		VideosDir string `yaml:"videosDir,omitempty"`
		ThumbsDir string `yaml:"thumbsDir,omitempty"`
		DBPath    string `yaml:"dbPath,omitempty"`
	} `yaml:"storage,omitempty"`

	Upload struct {
		MaxMB              *int64 `yaml:"maxMB,omitempty"`
		RateLimitPerMinute *int   `yaml:"rateLimitPerMinute,omitempty"`
		Timeout            string `yaml:"timeout,omitempty"`
	} `yaml:"upload,omitempty"`

	FFmpeg struct {
		Bin       string `yaml:"bin,omitempty"`
		Convert   *bool  `yaml:"convert,omitempty"`
		Thumbnail *bool  `yaml:"thumbnail,omitempty"`
		Timeout   string `yaml:"timeout,omitempty"`
		Workers   *int   `yaml:"workers,omitempty"`
	} `yaml:"ffmpeg,omitempty"`

	Tracing struct {
		Enabled    *bool    `yaml:"enabled,omitempty"`
		Exporter   string   `yaml:"exporter,omitempty"`
		Endpoint   string   `yaml:"endpoint,omitempty"`
		SampleRate *float64 `yaml:"sampleRate,omitempty"`
	} `yaml:"tracing,omitempty"`
}
