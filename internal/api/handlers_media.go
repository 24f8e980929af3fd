// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/oldtube/internal/mediastore"
)

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	s.deps.Media.Serve(w, r, mediastore.KindVideo, chi.URLParam(r, "filename"))
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	s.deps.Media.ServeFile(w, r, mediastore.KindThumb, chi.URLParam(r, "filename"))
}
