// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.mp4"), []byte("x"), 0o600))

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link.mp4")))

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	got, err := ConfineRelPath(root, "a.mp4")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(realRoot, "a.mp4"), got)

	got, err = ConfineRelPath(root, "missing.mp4")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(realRoot, "missing.mp4"), got)

	for _, bad := range []string{"../x", "..", "a\\..\\b", "/etc/passwd", "link.mp4"} {
		_, err := ConfineRelPath(root, bad)
		require.Error(t, err, bad)
		require.True(t, errors.Is(err, ErrEscapesRoot), "%s: %v", bad, err)
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(f, []byte("abc"), 0o600))

	info, err := IsRegularFile(f)
	require.NoError(t, err)
	require.Equal(t, int64(3), info.Size())

	_, err = IsRegularFile(dir)
	require.Error(t, err)

	_, err = IsRegularFile(filepath.Join(dir, "nope"))
	require.True(t, os.IsNotExist(err))
}

func TestIsPathTraversal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"clip-20240101000000000000-abcd1234.mp4", false},
		{"../etc/passwd", true},
		{"%2e%2e/etc", true},
		{"%252e%252e%252f", true},
		{"a%00.mp4", true},
		{"%c0%ae%c0%ae/", true},
		{"normal name.jpg", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsPathTraversal(tt.in), tt.in)
	}
}

func TestIsPlainName(t *testing.T) {
	require.True(t, IsPlainName("a.mp4"))
	for _, bad := range []string{"", ".", "a/b.mp4", `a\b`, "..", "x%2f..%2fy"} {
		require.False(t, IsPlainName(bad), bad)
	}
}
