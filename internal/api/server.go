// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes uploads, media playback and the video library over
// HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/oldtube/internal/api/middleware"
	"github.com/ManuGH/oldtube/internal/config"
	"github.com/ManuGH/oldtube/internal/health"
	"github.com/ManuGH/oldtube/internal/ingest"
	"github.com/ManuGH/oldtube/internal/library"
	"github.com/ManuGH/oldtube/internal/mediastore"
)

// Library is the subset of *library.Store the handlers use.
type Library interface {
	GetVideo(ctx context.Context, id int64) (library.Video, error)
	ListVideos(ctx context.Context, limit int) ([]library.Video, error)
	RateVideo(ctx context.Context, videoID, userID int64, stars int) (library.RatingSummary, error)
	Ratings(ctx context.Context, videoID int64) (library.RatingSummary, error)
	AddComment(ctx context.Context, videoID, userID int64, body string) (library.Comment, error)
	ListComments(ctx context.Context, videoID int64, limit int) ([]library.Comment, error)
	CreateUser(ctx context.Context, username string, isAdmin bool) (library.User, error)
	UserByName(ctx context.Context, username string) (library.User, error)
	ListUsers(ctx context.Context) ([]library.User, error)
	ProfileByName(ctx context.Context, username string) (library.Profile, error)
	ToggleFavorite(ctx context.Context, videoID, userID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64, limit int) ([]library.Video, error)
	SendMessage(ctx context.Context, senderID int64, to, subject, body string) (library.Message, error)
	Inbox(ctx context.Context, userID int64, limit int) ([]library.Message, error)
	Sent(ctx context.Context, userID int64, limit int) ([]library.Message, error)
	ReadMessage(ctx context.Context, id, userID int64) (library.Message, error)
}

// Uploader is implemented by *ingest.Service.
type Uploader interface {
	Handle(ctx context.Context, req ingest.Request) (ingest.Result, error)
	Remove(ctx context.Context, id int64) (library.Video, error)
}

// MediaServer is implemented by *rangeserve.Server.
type MediaServer interface {
	Serve(w http.ResponseWriter, r *http.Request, kind mediastore.Kind, filename string)
	ServeFile(w http.ResponseWriter, r *http.Request, kind mediastore.Kind, filename string)
}

// Deps wires the server.
type Deps struct {
	Library Library
	Ingest  Uploader
	Media   MediaServer
	Health  *health.Manager
}

// Validate reports the first missing dependency.
func (d Deps) Validate() error {
	switch {
	case d.Library == nil:
		return errors.New("library is required")
	case d.Ingest == nil:
		return errors.New("ingest service is required")
	case d.Media == nil:
		return errors.New("media server is required")
	case d.Health == nil:
		return errors.New("health manager is required")
	}
	return nil
}

// Server holds the HTTP handlers.
type Server struct {
	cfg  config.AppConfig
	deps Deps
}

// New creates a Server.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, deps: deps}, nil
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	tracing := ""
	if s.cfg.Tracing.Enabled {
		tracing = "oldtube"
	}
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracing,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)

	r.With(middleware.UploadRateLimit(s.cfg.Upload.RateLimitPerMinute)).Post("/upload", s.handleUpload)

	r.Route("/media", func(r chi.Router) {
		r.Get("/video/{filename}", s.handleVideo)
		r.Head("/video/{filename}", s.handleVideo)
		r.Get("/thumb/{filename}", s.handleThumb)
		r.Head("/thumb/{filename}", s.handleThumb)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/videos", s.handleListVideos)
		r.Get("/videos/{id}", s.handleGetVideo)
		r.Delete("/videos/{id}", s.handleDeleteVideo)
		r.Post("/videos/{id}/ratings", s.handleRateVideo)
		r.Post("/videos/{id}/comments", s.handleAddComment)
		r.Post("/videos/{id}/favorite", s.handleToggleFavorite)
		r.Get("/favorites", s.handleListFavorites)
		r.Post("/users", s.handleCreateUser)
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{username}", s.handleProfile)
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", s.handleInbox)
			r.Get("/sent", s.handleSentMessages)
			r.Post("/", s.handleSendMessage)
			r.Get("/{id}", s.handleReadMessage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
	return r
}
