// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/oldtube/internal/config"
)

func noFFmpeg(string) (string, error) { return "", exec.ErrNotFound }

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	return config.AppConfig{
		Version:       "test",
		ListenAddr:    "127.0.0.1:0",
		MetricsListen: "127.0.0.1:0",
		DataDir:       dir,
		AdminUser:     "admin",
		Storage: config.StorageConfig{
			VideosDir: filepath.Join(dir, "videos"),
			ThumbsDir: filepath.Join(dir, "thumbs"),
			DBPath:    filepath.Join(dir, "oldtube.db"),
		},
		Upload: config.UploadConfig{MaxMB: 1},
		FFmpeg: config.FFmpegConfig{
			Convert:   true,
			Thumbnail: true,
			Timeout:   time.Second,
			Workers:   1,
		},
	}
}

func TestBuildRuntimeServesProbes(t *testing.T) {
	cfg := testConfig(t)
	rt, err := buildRuntime(context.Background(), cfg, noFFmpeg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.DirExists(t, cfg.Storage.VideosDir)
	assert.DirExists(t, cfg.Storage.ThumbsDir)
	assert.FileExists(t, cfg.Storage.DBPath)

	srv := httptest.NewServer(rt.handler)
	t.Cleanup(srv.Close)

	// A missing ffmpeg degrades but does not fail readiness.
	resp, err := http.Get(srv.URL + "/readyz?verbose=true")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/users", nil)
	require.NoError(t, err)
	req.Header.Set("X-OldTube-User", "admin")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "admin user is seeded at startup")
}

func TestBuildRuntimeRejectsUnwritableLayout(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.Storage.VideosDir = filepath.Join(blocker, "videos")

	_, err := buildRuntime(context.Background(), cfg, noFFmpeg)
	require.Error(t, err)
}

func TestHealthcheck(t *testing.T) {
	ready := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/healthz":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/readyz" && ready:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)
	addr := strings.TrimPrefix(srv.URL, "http://")

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, healthcheck([]string{"-addr", addr}, &out, &errOut))
	assert.Contains(t, out.String(), "Healthcheck successful (ready)")

	ready = false
	errOut.Reset()
	assert.Equal(t, 1, healthcheck([]string{"-addr", addr}, &out, &errOut))
	assert.Contains(t, errOut.String(), "503")

	out.Reset()
	assert.Equal(t, 0, healthcheck([]string{"-addr", addr, "-mode", "live"}, &out, &errOut))
	assert.Contains(t, out.String(), "(live)")

	assert.Equal(t, 1, healthcheck([]string{"-bogus"}, &out, &errOut))
}
