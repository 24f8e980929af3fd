// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package transcoder converts uploaded videos into a browser friendly mp4.
// Conversion is best effort: every failure degrades to keeping the original
// file and reporting a warning.
package transcoder

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/oldtube/internal/infra/ffmpeg"
	"github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/ManuGH/oldtube/internal/naming"
)

// TargetExt is the container every convertible upload ends up in.
const TargetExt = "mp4"

// Tool is the subset of *ffmpeg.Tool the adapter needs.
type Tool interface {
	Available() bool
	Run(ctx context.Context, op string, args []string) (bool, string)
}

// Outcome describes where the video lives after Convert.
type Outcome struct {
	Path      string
	Ext       string
	Warning   string
	Converted bool
}

// Config toggles automatic conversion.
type Config struct {
	AutoConvert bool
}

// Adapter runs the conversion profile through Tool.
type Adapter struct {
	tool        Tool
	autoConvert bool
	remove      func(string) error
}

// New creates an Adapter.
func New(tool Tool, cfg Config) *Adapter {
	return &Adapter{tool: tool, autoConvert: cfg.AutoConvert, remove: os.Remove}
}

// Convert turns source into an mp4 next to it. On success the source is
// deleted and the new path returned. Otherwise the source is returned
// untouched, with a warning when conversion was attempted or impossible.
func (a *Adapter) Convert(ctx context.Context, source string) Outcome {
	inExt := naming.Ext(source)
	keep := Outcome{Path: source, Ext: inExt}
	logger := log.WithComponentFromContext(ctx, "transcoder")

	if inExt == TargetExt || !a.autoConvert {
		metrics.RecordConversion("passthrough")
		return keep
	}
	if !a.tool.Available() {
		metrics.RecordConversion("skipped")
		keep.Warning = ffmpeg.ToolName + " not found (convert skipped)"
		logger.Warn().Str(log.FieldEvent, "convert.skipped").Str(log.FieldPath, source).Msg(keep.Warning)
		return keep
	}

	out := naming.Stem(source) + "." + TargetExt
	ok, msg := a.tool.Run(ctx, "convert", ffmpeg.ConvertArgs(source, out))
	if !ok {
		metrics.RecordConversion("failed")
		if err := a.remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Err(err).Str(log.FieldPath, out).Msg("could not remove partial output")
		}
		keep.Warning = "Convert failed: " + msg
		logger.Warn().
			Str(log.FieldEvent, "convert.failed").
			Str(log.FieldPath, source).
			Str(log.FieldWarning, keep.Warning).
			Msg("conversion failed, keeping original")
		return keep
	}

	if err := a.remove(source); err != nil {
		logger.Debug().Err(err).Str(log.FieldPath, source).Msg("could not remove converted source")
	}
	metrics.RecordConversion("converted")
	logger.Info().
		Str(log.FieldEvent, "convert.done").
		Str(log.FieldFilename, filepath.Base(out)).
		Str("from_ext", inExt).
		Msg("converted upload to " + strings.ToUpper(TargetExt))
	return Outcome{Path: out, Ext: TargetExt, Converted: true}
}
