// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	available bool
	ok        bool
	msg       string
	calls     [][]string
	// produce writes the output file like a real encoder would.
	produce bool
}

func (f *fakeTool) Available() bool { return f.available }

func (f *fakeTool) Run(_ context.Context, _ string, args []string) (bool, string) {
	f.calls = append(f.calls, args)
	if f.produce {
		_ = os.WriteFile(args[len(args)-1], []byte("mp4"), 0o600)
	}
	return f.ok, f.msg
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0o600))
	return path
}

func TestConvertPassthroughForMP4(t *testing.T) {
	tool := &fakeTool{available: true, ok: true}
	src := writeSource(t, "clip.MP4")

	out := New(tool, Config{AutoConvert: true}).Convert(context.Background(), src)
	require.Equal(t, Outcome{Path: src, Ext: "mp4"}, out)
	require.Empty(t, tool.calls)
}

func TestConvertDisabled(t *testing.T) {
	tool := &fakeTool{available: true, ok: true}
	src := writeSource(t, "clip.webm")

	out := New(tool, Config{AutoConvert: false}).Convert(context.Background(), src)
	require.Equal(t, Outcome{Path: src, Ext: "webm"}, out)
	require.Empty(t, tool.calls)
}

func TestConvertToolUnavailable(t *testing.T) {
	src := writeSource(t, "clip.mkv")

	out := New(&fakeTool{}, Config{AutoConvert: true}).Convert(context.Background(), src)
	require.Equal(t, src, out.Path)
	require.Equal(t, "mkv", out.Ext)
	require.Equal(t, "ffmpeg not found (convert skipped)", out.Warning)
	require.FileExists(t, src)
}

func TestConvertFailureKeepsOriginal(t *testing.T) {
	tool := &fakeTool{available: true, ok: false, msg: "Invalid data found when processing input", produce: true}
	src := writeSource(t, "clip.mov")

	out := New(tool, Config{AutoConvert: true}).Convert(context.Background(), src)
	require.Equal(t, src, out.Path)
	require.Equal(t, "mov", out.Ext)
	require.False(t, out.Converted)
	require.Equal(t, "Convert failed: Invalid data found when processing input", out.Warning)
	require.FileExists(t, src)
	require.NoFileExists(t, filepath.Join(filepath.Dir(src), "clip.mp4"))
}

func TestConvertSuccessRemovesSource(t *testing.T) {
	tool := &fakeTool{available: true, ok: true, produce: true}
	src := writeSource(t, "clip.ogg")

	out := New(tool, Config{AutoConvert: true}).Convert(context.Background(), src)
	want := filepath.Join(filepath.Dir(src), "clip.mp4")
	require.Equal(t, Outcome{Path: want, Ext: "mp4", Converted: true}, out)
	require.NoFileExists(t, src)
	require.FileExists(t, want)

	require.Len(t, tool.calls, 1)
	args := tool.calls[0]
	require.Contains(t, args, src)
	require.Equal(t, want, args[len(args)-1])
}

func TestConvertSourceRemovalErrorIsSwallowed(t *testing.T) {
	tool := &fakeTool{available: true, ok: true}
	a := New(tool, Config{AutoConvert: true})
	a.remove = func(string) error { return os.ErrPermission }

	out := a.Convert(context.Background(), "/nowhere/clip.webm")
	require.Equal(t, "/nowhere/clip.mp4", out.Path)
	require.Empty(t, out.Warning)
}
