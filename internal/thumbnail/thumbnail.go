// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package thumbnail extracts a small preview frame from a stored video.
package thumbnail

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ManuGH/oldtube/internal/infra/ffmpeg"
	"github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/ManuGH/oldtube/internal/naming"
)

const (
	DefaultWidth  = 120
	DefaultHeight = 90
	DefaultOffset = "00:00:01.000"
)

// Tool is the subset of *ffmpeg.Tool the generator needs.
type Tool interface {
	Available() bool
	Run(ctx context.Context, op string, args []string) (bool, string)
}

// Config controls where and whether thumbnails are produced.
type Config struct {
	Enabled bool
	Dir     string
	Width   int
	Height  int
	Offset  string
}

// Generator writes jpg thumbnails into Config.Dir.
type Generator struct {
	tool   Tool
	cfg    Config
	unique func(base, ext string) string
}

// New creates a Generator; zero geometry falls back to 120x90 at 1s.
func New(tool Tool, cfg Config) *Generator {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Offset == "" {
		cfg.Offset = DefaultOffset
	}
	return &Generator{tool: tool, cfg: cfg, unique: naming.UniqueName}
}

// Enabled reports whether thumbnails are generated at all.
func (g *Generator) Enabled() bool {
	return g.cfg.Enabled
}

// Generate extracts a frame from videoPath and returns the stored thumbnail
// file name. A disabled generator returns two empty strings. Every other
// failure returns an empty name and a warning; Generate never blocks an upload.
func (g *Generator) Generate(ctx context.Context, videoPath, baseName string) (string, string) {
	if !g.cfg.Enabled {
		metrics.RecordThumbnail("disabled")
		return "", ""
	}
	logger := log.WithComponentFromContext(ctx, "thumbnail")
	if !g.tool.Available() {
		metrics.RecordThumbnail("skipped")
		warning := ffmpeg.ToolName + " not found (thumbnail skipped)"
		logger.Warn().Str(log.FieldEvent, "thumbnail.skipped").Msg(warning)
		return "", warning
	}

	name := g.unique(baseName+"-thumb", "jpg")
	out := filepath.Join(g.cfg.Dir, name)
	args := ffmpeg.ThumbnailArgs(videoPath, out, g.cfg.Offset, g.cfg.Width, g.cfg.Height)

	ok, msg := g.tool.Run(ctx, "thumbnail", args)
	if ok {
		if fi, err := os.Stat(out); err == nil && fi.Mode().IsRegular() {
			metrics.RecordThumbnail("generated")
			logger.Debug().Str(log.FieldEvent, "thumbnail.done").Str(log.FieldThumbnail, name).Msg("thumbnail generated")
			return name, ""
		}
		if msg == "" {
			msg = "no output produced"
		}
	}

	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Debug().Err(err).Str(log.FieldPath, out).Msg("could not remove partial thumbnail")
	}
	metrics.RecordThumbnail("failed")
	warning := "Thumbnail failed: " + msg
	logger.Warn().Str(log.FieldEvent, "thumbnail.failed").Str(log.FieldWarning, warning).Msg("thumbnail generation failed")
	return "", warning
}
