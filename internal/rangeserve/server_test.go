// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rangeserve

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/oldtube/internal/mediastore"
)

func newTestServer(t *testing.T) (*Server, *mediastore.Store, []byte) {
	t.Helper()
	root := t.TempDir()
	store := mediastore.New(filepath.Join(root, "videos"), filepath.Join(root, "thumbs"))
	require.NoError(t, store.EnsureDirs())

	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(store.Path(mediastore.KindVideo, "clip.mp4"), content, 0o600))
	require.NoError(t, os.WriteFile(store.Path(mediastore.KindVideo, "empty.webm"), nil, 0o600))
	require.NoError(t, os.WriteFile(store.Path(mediastore.KindThumb, "clip.jpg"), []byte("jpeg"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.mp4"), []byte("secret"), 0o600))
	return New(store), store, content
}

func do(s *Server, method, name, rangeHeader string) *httptest.ResponseRecorder {
	// The name is passed out of band so hostile names never reach URL parsing.
	req := httptest.NewRequest(method, "/media/video/file", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	s.Serve(rec, req, mediastore.KindVideo, name)
	return rec
}

func TestServePartial(t *testing.T) {
	s, _, content := newTestServer(t)

	rec := do(s, http.MethodGet, "clip.mp4", "bytes=100-199")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, "100", rec.Header().Get("Content-Length"))
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, content[100:200], rec.Body.Bytes())
}

func TestServePartialClampsEnd(t *testing.T) {
	s, _, content := newTestServer(t)

	rec := do(s, http.MethodGet, "clip.mp4", "bytes=900-2000")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, "100", rec.Header().Get("Content-Length"))
	require.Equal(t, content[900:], rec.Body.Bytes())
}

func TestServeMalformedRangeFallsBackToFull(t *testing.T) {
	s, _, content := newTestServer(t)

	for _, h := range []string{"bytes=abc", "bytes=-100"} {
		rec := do(s, http.MethodGet, "clip.mp4", h)
		require.Equal(t, http.StatusOK, rec.Code, h)
		require.Empty(t, rec.Header().Get("Content-Range"), h)
		require.Equal(t, content, rec.Body.Bytes(), h)
	}
}

func TestServeFull(t *testing.T) {
	s, _, content := newTestServer(t)

	rec := do(s, http.MethodGet, "clip.mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, content, rec.Body.Bytes())
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Header().Get("ETag"), `W/"`))
	require.NotEmpty(t, rec.Header().Get("Last-Modified"))
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestServeIsIdempotent(t *testing.T) {
	s, _, _ := newTestServer(t)

	a := do(s, http.MethodGet, "clip.mp4", "bytes=10-509")
	b := do(s, http.MethodGet, "clip.mp4", "bytes=10-509")
	require.Equal(t, a.Code, b.Code)
	require.Equal(t, a.Header(), b.Header())
	require.True(t, bytes.Equal(a.Body.Bytes(), b.Body.Bytes()))
}

func TestServeNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, name := range []string{"missing.mp4", "../secret.mp4", "..%2fsecret.mp4", "clip.mp4\x00.txt", ""} {
		rec := do(s, http.MethodGet, name, "bytes=0-1")
		require.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}

func TestServeSymlinkEscape(t *testing.T) {
	s, store, _ := newTestServer(t)
	target := filepath.Join(filepath.Dir(store.Dir(mediastore.KindVideo)), "secret.mp4")
	require.NoError(t, os.Symlink(target, store.Path(mediastore.KindVideo, "link.mp4")))

	rec := do(s, http.MethodGet, "link.mp4", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeDirectoryIsNotFound(t *testing.T) {
	s, store, _ := newTestServer(t)
	require.NoError(t, os.Mkdir(store.Path(mediastore.KindVideo, "dir.mp4"), 0o750))

	rec := do(s, http.MethodGet, "dir.mp4", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeHead(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(s, http.MethodHead, "clip.mp4", "bytes=0-9")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "10", rec.Header().Get("Content-Length"))
	require.Zero(t, rec.Body.Len())

	rec = do(s, http.MethodHead, "clip.mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())
}

func TestServeEmptyFileWithRange(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "empty.webm", "bytes=0-")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())
	require.Equal(t, "video/webm", rec.Header().Get("Content-Type"))
}

func TestServeConditional(t *testing.T) {
	s, _, _ := newTestServer(t)
	etag := do(s, http.MethodGet, "clip.mp4", "").Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/media/video/clip.mp4", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	s.Serve(rec, req, mediastore.KindVideo, "clip.mp4")
	require.Equal(t, http.StatusNotModified, rec.Code)
	require.Zero(t, rec.Body.Len())

	req.Header.Set("Range", "bytes=100-199")
	rec = httptest.NewRecorder()
	s.Serve(rec, req, mediastore.KindVideo, "clip.mp4")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, 100, rec.Body.Len())
}

func TestServeFileThumbnail(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/media/thumb/clip.jpg", nil)
	rec := httptest.NewRecorder()
	s.ServeFile(rec, req, mediastore.KindThumb, "clip.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, "jpeg", rec.Body.String())

	req.Header.Set("Range", "bytes=1-2")
	rec = httptest.NewRecorder()
	s.ServeFile(rec, req, mediastore.KindThumb, "clip.jpg")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "pe", rec.Body.String())
}

type stingyReader struct{ data []byte }

func (r *stingyReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, nil
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestCopyRangeStopsOnEmptyRead(t *testing.T) {
	var dst bytes.Buffer
	n, err := copyRange(context.Background(), &dst, &stingyReader{data: []byte("short")}, 100)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
	require.Equal(t, "short", dst.String())
}

func TestCopyRangeChunksLargeRanges(t *testing.T) {
	src := bytes.Repeat([]byte{7}, ChunkSize*2+10)
	var dst bytes.Buffer
	n, err := copyRange(context.Background(), &dst, bytes.NewReader(src), int64(ChunkSize+5))
	require.NoError(t, err)
	require.EqualValues(t, ChunkSize+5, n)
	require.Equal(t, ChunkSize+5, dst.Len())
}

func TestCopyRangeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := copyRange(ctx, io.Discard, bytes.NewReader(make([]byte, 10)), 10)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}
