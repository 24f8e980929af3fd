// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ManuGH/oldtube/internal/api"
	"github.com/ManuGH/oldtube/internal/config"
	"github.com/ManuGH/oldtube/internal/health"
	"github.com/ManuGH/oldtube/internal/infra/ffmpeg"
	"github.com/ManuGH/oldtube/internal/ingest"
	"github.com/ManuGH/oldtube/internal/library"
	"github.com/ManuGH/oldtube/internal/mediastore"
	"github.com/ManuGH/oldtube/internal/persistence/sqlite"
	"github.com/ManuGH/oldtube/internal/rangeserve"
	"github.com/ManuGH/oldtube/internal/thumbnail"
	"github.com/ManuGH/oldtube/internal/transcoder"
	"github.com/ManuGH/oldtube/internal/workerpool"
)

// runtime bundles everything main needs after wiring.
type runtime struct {
	db      *sql.DB
	handler http.Handler
}

func (r *runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// buildRuntime opens storage and the catalog and assembles the HTTP handler.
// lookPath overrides the ffmpeg lookup; nil means exec.LookPath.
func buildRuntime(ctx context.Context, cfg config.AppConfig, lookPath func(string) (string, error)) (*runtime, error) {
	store := mediastore.New(cfg.Storage.VideosDir, cfg.Storage.ThumbsDir)
	if err := store.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("prepare media directories: %w", err)
	}

	tool := ffmpeg.New(ffmpeg.Options{
		Bin:      cfg.FFmpeg.Bin,
		Timeout:  cfg.FFmpeg.Timeout,
		LookPath: lookPath,
	})

	if err := health.PerformStartupChecks(ctx, cfg, tool); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(ctx, cfg.Storage.DBPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt := &runtime{db: db}

	issues, err := sqlite.VerifyIntegrity(ctx, db, "quick")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("verify database: %w", err), rt.Close())
	}
	if len(issues) > 0 {
		return nil, errors.Join(fmt.Errorf("database corrupted: %s", strings.Join(issues, "; ")), rt.Close())
	}

	lib, err := library.NewStore(ctx, db)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	if _, err := lib.EnsureUser(ctx, cfg.AdminUser, true); err != nil {
		return nil, errors.Join(fmt.Errorf("ensure admin user: %w", err), rt.Close())
	}

	svc, err := ingest.NewService(ingest.Deps{
		Storage:   store,
		Catalog:   lib,
		Converter: transcoder.New(tool, transcoder.Config{AutoConvert: cfg.FFmpeg.Convert}),
		Thumbnails: thumbnail.New(tool, thumbnail.Config{
			Enabled: cfg.FFmpeg.Thumbnail,
			Dir:     cfg.Storage.ThumbsDir,
		}),
		Pool: workerpool.New(cfg.FFmpeg.Workers),
	})
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDatabaseChecker(lib.Ping))
	hm.RegisterChecker(health.NewWritableDirChecker("videos_dir", func() error {
		return store.CheckWritable(mediastore.KindVideo)
	}))
	hm.RegisterChecker(health.NewWritableDirChecker("thumbs_dir", func() error {
		return store.CheckWritable(mediastore.KindThumb)
	}))
	hm.RegisterChecker(health.NewToolChecker("ffmpeg", tool.Available))

	srv, err := api.New(cfg, api.Deps{
		Library: lib,
		Ingest:  svc,
		Media:   rangeserve.New(store),
		Health:  hm,
	})
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	rt.handler = srv.Handler()
	return rt, nil
}
