// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingest turns an upload request into a stored, optionally
// converted video with a thumbnail and a library record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/oldtube/internal/library"
	"github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/mediastore"
	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/ManuGH/oldtube/internal/naming"
	"github.com/ManuGH/oldtube/internal/telemetry"
	"github.com/ManuGH/oldtube/internal/transcoder"
)

// Request is a single upload as received from the client.
type Request struct {
	Title      string
	VideoName  string
	Video      io.Reader
	ThumbName  string
	Thumb      io.Reader
	UploaderID int64
}

func (r Request) hasThumb() bool {
	return r.Thumb != nil && strings.TrimSpace(r.ThumbName) != ""
}

// Result is a persisted upload plus any non-fatal warnings.
type Result struct {
	Video    library.Video
	Warnings []string
}

// Converter is implemented by *transcoder.Adapter.
type Converter interface {
	Convert(ctx context.Context, source string) transcoder.Outcome
}

// ThumbnailGenerator is implemented by *thumbnail.Generator.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, videoPath, baseName string) (string, string)
}

// Storage is implemented by *mediastore.Store.
type Storage interface {
	Save(ctx context.Context, kind mediastore.Kind, name string, r io.Reader) (string, int64, error)
	Remove(kind mediastore.Kind, name string) error
}

// Catalog is implemented by *library.Store.
type Catalog interface {
	CreateVideo(ctx context.Context, v library.Video) (library.Video, error)
	DeleteVideo(ctx context.Context, id int64) (library.Video, error)
}

// Pool is implemented by *workerpool.Pool.
type Pool interface {
	Do(ctx context.Context, fn func(ctx context.Context)) error
}

// Deps wires the service.
type Deps struct {
	Storage    Storage
	Catalog    Catalog
	Converter  Converter
	Thumbnails ThumbnailGenerator
	Pool       Pool
}

// Validate reports the first missing dependency.
func (d Deps) Validate() error {
	switch {
	case d.Storage == nil:
		return errors.New("storage is required")
	case d.Catalog == nil:
		return errors.New("catalog is required")
	case d.Converter == nil:
		return errors.New("converter is required")
	case d.Thumbnails == nil:
		return errors.New("thumbnail generator is required")
	case d.Pool == nil:
		return errors.New("worker pool is required")
	}
	return nil
}

// Service orchestrates uploads.
type Service struct {
	deps   Deps
	unique func(base, ext string) string
	tracer trace.Tracer
}

// NewService creates a Service.
func NewService(deps Deps) (*Service, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &Service{
		deps:   deps,
		unique: naming.UniqueName,
		tracer: telemetry.Tracer("oldtube/ingest"),
	}, nil
}

// Validate checks req in the order title, video file, video extension,
// thumbnail extension. It runs before any byte is written, so a rejected
// upload never leaves files behind.
func Validate(req Request) error {
	if strings.TrimSpace(req.Title) == "" {
		return ErrTitleRequired
	}
	if req.Video == nil || strings.TrimSpace(req.VideoName) == "" {
		return ErrFileRequired
	}
	if !naming.AllowedVideo(req.VideoName) {
		return ErrDisallowedExtension
	}
	if req.hasThumb() && !naming.AllowedImage(req.ThumbName) {
		return ErrDisallowedThumbnailExtension
	}
	return nil
}

// Handle validates, stores, converts and records one upload. Validation
// failures are returned as *ValidationError. Tool failures never fail the
// upload; they surface in Result.Warnings. Files written before a later
// storage or catalog error are left in place.
func (s *Service) Handle(ctx context.Context, req Request) (Result, error) {
	ctx = log.ContextWithUploadID(ctx, uuid.NewString())
	ctx, span := s.tracer.Start(ctx, "ingest.upload")
	defer span.End()
	logger := log.WithComponentFromContext(ctx, "ingest")

	if err := Validate(req); err != nil {
		metrics.RecordUpload("invalid")
		span.SetAttributes(attribute.String("upload.rejected", err.Error()))
		logger.Info().Str(log.FieldEvent, "upload.rejected").Err(err).Msg("upload rejected")
		return Result{}, err
	}

	res, err := s.ingest(ctx, span, req)
	if err != nil {
		metrics.RecordUpload("error")
		telemetry.RecordError(span, err)
		logger.Error().Str(log.FieldEvent, "upload.failed").Err(err).Msg("upload failed")
		return Result{}, err
	}

	metrics.RecordUpload("ok")
	span.SetAttributes(
		attribute.Int64(telemetry.VideoIDKey, res.Video.ID),
		attribute.Int(telemetry.UploadWarningsKey, len(res.Warnings)),
	)
	logger.Info().
		Str(log.FieldEvent, "upload.stored").
		Int64(log.FieldVideoID, res.Video.ID).
		Str(log.FieldFilename, res.Video.Filename).
		Str(log.FieldThumbnail, res.Video.ThumbFilename).
		Strs("warnings", res.Warnings).
		Msg("upload stored")
	return res, nil
}

func (s *Service) ingest(ctx context.Context, span trace.Span, req Request) (Result, error) {
	stem := naming.Stem(strings.TrimSpace(req.VideoName))
	ext := naming.Ext(req.VideoName)

	path, n, err := s.deps.Storage.Save(ctx, mediastore.KindVideo, s.unique(stem, ext), req.Video)
	if err != nil {
		return Result{}, fmt.Errorf("store video: %w", err)
	}
	metrics.AddUploadBytes(n)

	var (
		warnings  []string
		outcome   transcoder.Outcome
		thumbName string
	)

	// Conversion and thumbnail extraction share one worker slot so a single
	// upload never holds more than one tool process at a time.
	err = s.deps.Pool.Do(ctx, func(ctx context.Context) {
		outcome = s.deps.Converter.Convert(ctx, path)
		if outcome.Warning != "" {
			warnings = append(warnings, outcome.Warning)
		}
		if req.hasThumb() {
			return
		}
		var warning string
		thumbName, warning = s.deps.Thumbnails.Generate(ctx, outcome.Path, stem)
		if warning != "" {
			warnings = append(warnings, warning)
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("process video: %w", err)
	}
	span.SetAttributes(telemetry.ConvertAttributes(outcome.Converted, outcome.Ext)...)

	thumbSource := "generated"
	if req.hasThumb() {
		thumbSource = "uploaded"
		thumbName = s.unique(stem+"-thumb", naming.Ext(req.ThumbName))
		if _, _, err := s.deps.Storage.Save(ctx, mediastore.KindThumb, thumbName, req.Thumb); err != nil {
			return Result{}, fmt.Errorf("store thumbnail: %w", err)
		}
		metrics.RecordThumbnail("uploaded")
	} else if thumbName == "" {
		thumbSource = "none"
	}
	span.SetAttributes(telemetry.UploadAttributes(outcome.Ext, n, thumbSource)...)

	video, err := s.deps.Catalog.CreateVideo(ctx, library.Video{
		Title:         strings.TrimSpace(req.Title),
		Filename:      filepath.Base(outcome.Path),
		Ext:           outcome.Ext,
		OriginalName:  strings.TrimSpace(req.VideoName),
		ThumbFilename: thumbName,
		UploaderID:    req.UploaderID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("record video: %w", err)
	}
	return Result{Video: video, Warnings: warnings}, nil
}

// Remove deletes a video record and then its files. File removal is best
// effort; the record is gone once Remove returns nil.
func (s *Service) Remove(ctx context.Context, id int64) (library.Video, error) {
	v, err := s.deps.Catalog.DeleteVideo(ctx, id)
	if err != nil {
		return library.Video{}, err
	}
	logger := log.WithComponentFromContext(ctx, "ingest")
	if err := s.deps.Storage.Remove(mediastore.KindVideo, v.Filename); err != nil {
		logger.Warn().Err(err).Int64(log.FieldVideoID, id).Msg("could not remove video file")
	}
	if v.ThumbFilename != "" {
		if err := s.deps.Storage.Remove(mediastore.KindThumb, v.ThumbFilename); err != nil {
			logger.Warn().Err(err).Int64(log.FieldVideoID, id).Msg("could not remove thumbnail file")
		}
	}
	logger.Info().Str(log.FieldEvent, "video.removed").Int64(log.FieldVideoID, id).Msg("video removed")
	return v, nil
}
