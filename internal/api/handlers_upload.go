// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/oldtube/internal/ingest"
	"github.com/ManuGH/oldtube/internal/log"
)

// Parts above this size are spooled to temporary files.
const multipartMemory = 32 << 20

type uploadResponse struct {
	ID        int64    `json:"id"`
	Filename  string   `json:"filename"`
	Ext       string   `json:"ext"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Warnings  []string `json:"warnings"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")

	s.extendUploadDeadline(w, logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "Upload exceeds the size limit.")
			return
		}
		if isReadTimeout(err) {
			logger.Warn().Err(err).Str(log.FieldEvent, "upload.read_timeout").Msg("upload body not received in time")
			writeError(w, http.StatusRequestTimeout, codeTimeout, "Upload took too long to arrive.")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_form", "Expected a multipart/form-data upload.")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}()

	req := ingest.Request{
		Title:      r.FormValue("title"),
		UploaderID: user.ID,
	}

	video, videoName, err := openPart(r.MultipartForm, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if video != nil {
		defer func() { _ = video.Close() }()
		req.Video, req.VideoName = video, videoName
	}

	thumb, thumbName, err := openPart(r.MultipartForm, "thumb")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if thumb != nil {
		defer func() { _ = thumb.Close() }()
		req.Thumb, req.ThumbName = thumb, thumbName
	}

	res, err := s.deps.Ingest.Handle(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	w.Header().Set("Location", "/api/videos/"+strconv.FormatInt(res.Video.ID, 10))
	writeJSON(w, http.StatusCreated, uploadResponse{
		ID:        res.Video.ID,
		Filename:  res.Video.Filename,
		Ext:       res.Video.Ext,
		Thumbnail: res.Video.ThumbFilename,
		Warnings:  warnings,
	})
}

// extendUploadDeadline replaces the server-wide read deadline with the
// upload window so large bodies on slow links are not cut off.
func (s *Server) extendUploadDeadline(w http.ResponseWriter, logger zerolog.Logger) {
	var deadline time.Time
	if d := s.cfg.Upload.Timeout; d > 0 {
		deadline = time.Now().Add(d)
	}
	err := http.NewResponseController(w).SetReadDeadline(deadline)
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Warn().Err(err).Str(log.FieldEvent, "upload.deadline_failed").Msg("could not extend upload read deadline")
	}
}

func isReadTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// mime/multipart does not always wrap the underlying read error.
	return strings.Contains(err.Error(), "i/o timeout")
}

// openPart opens the first file submitted under field. A missing field
// yields a nil reader and no error.
func openPart(form *multipart.Form, field string) (io.ReadCloser, string, error) {
	if form == nil {
		return nil, "", nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, "", nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, "", err
	}
	return f, headers[0].Filename, nil
}
