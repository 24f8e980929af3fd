// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package rangeserve streams stored media with HTTP byte range support so
// players can seek without downloading whole files.
package rangeserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/mediastore"
	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/ManuGH/oldtube/internal/telemetry"
)

// ChunkSize is the unit in which partial responses are streamed.
const ChunkSize = 256 << 10

const defaultCacheControl = "public, max-age=3600"

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// Resolver is implemented by *mediastore.Store.
type Resolver interface {
	Resolve(kind mediastore.Kind, name string) (string, os.FileInfo, error)
}

// Server serves files resolved through a Resolver.
type Server struct {
	files        Resolver
	cacheControl string
	tracer       trace.Tracer
}

// New creates a Server.
func New(files Resolver) *Server {
	return &Server{
		files:        files,
		cacheControl: defaultCacheControl,
		tracer:       telemetry.Tracer("oldtube/rangeserve"),
	}
}

// Serve answers a playback request for filename. Without a usable Range
// header the whole file is sent with status 200 and conditional request
// handling. With one, exactly the requested bytes are streamed with 206.
// Unknown names, traversal attempts and non-regular files get 404.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, kind mediastore.Kind, filename string) {
	s.serve(w, r, kind, filename, true)
}

// ServeFile answers a request for filename using the standard library's
// range and conditional handling only. It suits small files like thumbnails.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, kind mediastore.Kind, filename string) {
	s.serve(w, r, kind, filename, false)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, kind mediastore.Kind, filename string, partial bool) {
	ctx, span := s.tracer.Start(r.Context(), "media.serve",
		trace.WithAttributes(attribute.String(telemetry.MediaKindKey, string(kind))))
	defer span.End()
	r = r.WithContext(ctx)
	logger := log.WithComponentFromContext(ctx, "rangeserve")

	path, _, err := s.files.Resolve(kind, filename)
	if err != nil {
		metrics.RecordMediaRequest(string(kind), "not_found")
		logger.Debug().
			Str(log.FieldEvent, "media.not_found").
			Str(log.FieldFilename, filename).
			Msg("media file not found")
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	// #nosec G304 -- path is confined to the media directory by Resolve
	f, err := os.Open(path)
	if err != nil {
		s.fail(w, span, kind, filename, fmt.Errorf("open media: %w", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, path).Msg("failed to close media file")
		}
	}()

	// Re-stat through the handle so size and validators match what we read.
	info, err := f.Stat()
	if err != nil {
		s.fail(w, span, kind, filename, fmt.Errorf("stat media: %w", err))
		return
	}
	size := info.Size()

	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), size)
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", s.cacheControl)
	h.Set("Content-Type", ContentType(filename))
	h.Set("Accept-Ranges", "bytes")

	header := r.Header.Get("Range")
	spec, ok := ParseRange(header, size)
	if !partial || !ok {
		if partial && header != "" {
			// Malformed or unsatisfiable: answer with the full file rather
			// than letting ServeContent produce a 416.
			r = r.Clone(ctx)
			r.Header.Del("Range")
		}
		cw := &countingWriter{ResponseWriter: w, status: http.StatusOK}
		http.ServeContent(cw, r, info.Name(), info.ModTime(), f)
		s.record(kind, cw.status, cw.n)
		logger.Debug().
			Str(log.FieldEvent, "media.served").
			Str(log.FieldFilename, filename).
			Int(log.FieldStatus, cw.status).
			Int64(log.FieldBytes, cw.n).
			Msg("media served")
		return
	}

	// Conditional headers are ignored on the range path: a satisfiable
	// range always answers 206 with the requested bytes.
	span.SetAttributes(
		attribute.Int64(telemetry.MediaRangeStartKey, spec.Start),
		attribute.Int64(telemetry.MediaRangeEndKey, spec.End),
	)
	h.Set("Content-Range", spec.ContentRange(size))
	h.Set("Content-Length", strconv.FormatInt(spec.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	metrics.RecordMediaRequest(string(kind), "partial")

	if r.Method == http.MethodHead {
		return
	}
	if _, err := f.Seek(spec.Start, io.SeekStart); err != nil {
		logger.Error().Err(err).Str(log.FieldFilename, filename).Msg("seek failed after headers were sent")
		return
	}

	n, err := copyRange(ctx, w, f, spec.Length())
	metrics.AddMediaBytes(string(kind), n)
	evt := logger.Debug()
	if err != nil && !errors.Is(err, context.Canceled) {
		evt = logger.Warn().Err(err)
	}
	evt.Str(log.FieldEvent, "media.range_served").
		Str(log.FieldFilename, filename).
		Str(log.FieldRange, spec.ContentRange(size)).
		Int64(log.FieldBytes, n).
		Msg("media range served")
}

func (s *Server) fail(w http.ResponseWriter, span trace.Span, kind mediastore.Kind, filename string, err error) {
	telemetry.RecordError(span, err)
	metrics.RecordMediaRequest(string(kind), "error")
	logger := log.WithComponent("rangeserve")
	logger.Error().
		Err(err).
		Str(log.FieldEvent, "media.error").
		Str(log.FieldFilename, filename).
		Msg("could not serve media")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) record(kind mediastore.Kind, status int, n int64) {
	switch status {
	case http.StatusNotModified:
		metrics.RecordMediaRequest(string(kind), "not_modified")
	case http.StatusPartialContent:
		metrics.RecordMediaRequest(string(kind), "partial")
	case http.StatusOK:
		metrics.RecordMediaRequest(string(kind), "full")
	default:
		metrics.RecordMediaRequest(string(kind), strconv.Itoa(status))
	}
	metrics.AddMediaBytes(string(kind), n)
}

// copyRange copies up to remaining bytes from src to dst in ChunkSize
// pieces. It stops early when a read yields no data or ctx ends.
func copyRange(ctx context.Context, dst io.Writer, src io.Reader, remaining int64) (int64, error) {
	bp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bp)
	buf := *bp

	var written int64
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		want := min(int64(len(buf)), remaining)
		n, rerr := src.Read(buf[:want])
		if n == 0 {
			if rerr != nil && !errors.Is(rerr, io.EOF) {
				return written, rerr
			}
			return written, nil
		}
		wn, werr := dst.Write(buf[:n])
		written += int64(wn)
		if werr != nil {
			return written, werr
		}
		remaining -= int64(n)
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, rerr
		}
	}
	return written, nil
}

type countingWriter struct {
	http.ResponseWriter
	status  int
	n       int64
	written bool
}

func (c *countingWriter) WriteHeader(code int) {
	if !c.written {
		c.status = code
		c.written = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *countingWriter) Write(b []byte) (int, error) {
	if !c.written {
		c.WriteHeader(http.StatusOK)
	}
	n, err := c.ResponseWriter.Write(b)
	c.n += int64(n)
	return n, err
}
