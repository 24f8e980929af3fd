// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/oldtube/internal/library"
	"github.com/ManuGH/oldtube/internal/log"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	commentPageSize  = 200
	maxJSONBody      = 1 << 20
)

type videoDetail struct {
	Video    library.Video         `json:"video"`
	Ratings  library.RatingSummary `json:"ratings"`
	Comments []library.Comment     `json:"comments"`
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// pathID parses the {id} route parameter. Malformed IDs are answered with
// 404 like unknown ones.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Request body must be a JSON object.")
		return false
	}
	return true
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.deps.Library.ListVideos(r.Context(), listLimit(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	v, err := s.deps.Library.GetVideo(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ratings, err := s.deps.Library.Ratings(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	comments, err := s.deps.Library.ListComments(ctx, id, commentPageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videoDetail{Video: v, Ratings: ratings, Comments: comments})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.adminUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Ingest.Remove(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "video.deleted").
		Int64(log.FieldVideoID, id).
		Str(log.FieldUser, admin.Username).
		Msg("video deleted by administrator")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRateVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Stars int `json:"stars"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	summary, err := s.deps.Library.RateVideo(r.Context(), id, user.ID, body.Stars)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := s.deps.Library.AddComment(r.Context(), id, user.ID, body.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.deps.Library.CreateUser(r.Context(), body.Username, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	users, err := s.deps.Library.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
