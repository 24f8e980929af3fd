// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mediastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s := New(filepath.Join(root, "uploads", "videos"), filepath.Join(root, "uploads", "thumbs"))
	require.NoError(t, s.EnsureDirs())
	return s
}

func TestEnsureDirsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.EnsureDirs())
	require.DirExists(t, s.Dir(KindVideo))
	require.DirExists(t, s.Dir(KindThumb))
}

func TestSaveAndResolve(t *testing.T) {
	s := newStore(t)

	path, n, err := s.Save(context.Background(), KindVideo, "clip.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	require.Equal(t, int64(11), n)
	require.Equal(t, filepath.Join(s.Dir(KindVideo), "clip.mp4"), path)

	got, info, err := s.Resolve(KindVideo, "clip.mp4")
	require.NoError(t, err)
	require.Equal(t, int64(11), info.Size())
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "video-bytes", string(data))

	_, _, err = s.Resolve(KindThumb, "clip.mp4")
	require.ErrorIs(t, err, ErrNotFound)
}

type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "partial"), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestSaveFailureLeavesNothing(t *testing.T) {
	s := newStore(t)

	_, _, err := s.Save(context.Background(), KindVideo, "broken.mp4", &failingReader{})
	require.Error(t, err)
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	entries, err := os.ReadDir(s.Dir(KindVideo))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Save(ctx, KindThumb, "t.jpg", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveRejectsUnsafeNames(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"../escape.mp4", "a/b.mp4", ""} {
		_, _, err := s.Save(context.Background(), KindVideo, name, strings.NewReader("x"))
		require.Error(t, err, name)
	}
}

func TestResolveNotFoundCases(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(KindVideo), "sub.mp4"), 0o750))

	for _, name := range []string{"missing.mp4", "../thumbs/x.jpg", "sub.mp4", "..", "%2e%2e"} {
		_, _, err := s.Resolve(KindVideo, name)
		require.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	_, _, err := s.Save(context.Background(), KindThumb, "t.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(KindThumb, "t.jpg"))
	require.NoError(t, s.Remove(KindThumb, "t.jpg"))
	require.NoFileExists(t, s.Path(KindThumb, "t.jpg"))
}

func TestCheckWritable(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CheckWritable(KindVideo))

	missing := New(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, missing.CheckWritable(KindVideo))
}
