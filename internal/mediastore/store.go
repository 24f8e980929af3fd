// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mediastore owns the two durable upload directories: one for
// videos and one for thumbnails.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/oldtube/internal/fsutil"
	"github.com/ManuGH/oldtube/internal/log"
)

// Kind selects a storage directory.
type Kind string

const (
	KindVideo Kind = "video"
	KindThumb Kind = "thumb"
)

// ErrNotFound is returned by Resolve for names that do not denote a
// regular file inside the directory.
var ErrNotFound = errors.New("media not found")

const filePerm = 0o644

// Store maps kinds to directories.
type Store struct {
	videosDir string
	thumbsDir string
}

// New creates a Store. Directories are created by EnsureDirs.
func New(videosDir, thumbsDir string) *Store {
	return &Store{videosDir: videosDir, thumbsDir: thumbsDir}
}

// EnsureDirs creates both directories if they are missing.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.videosDir, s.thumbsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return nil
}

// Dir returns the directory of kind.
func (s *Store) Dir(kind Kind) string {
	if kind == KindThumb {
		return s.thumbsDir
	}
	return s.videosDir
}

// Path joins a generated name onto the directory of kind without any checks.
func (s *Store) Path(kind Kind, name string) string {
	return filepath.Join(s.Dir(kind), name)
}

type countingReader struct {
	r   io.Reader
	ctx context.Context
	n   int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Save streams r into name under kind's directory. The file only becomes
// visible once fully written and synced, so readers never observe partial
// uploads. It returns the final path and the number of bytes written.
func (s *Store) Save(ctx context.Context, kind Kind, name string, r io.Reader) (string, int64, error) {
	if !fsutil.IsPlainName(name) {
		return "", 0, fmt.Errorf("save %s: invalid name %q", kind, name)
	}
	path := s.Path(kind, name)
	logger := log.WithComponentFromContext(ctx, "mediastore")

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(filePerm))
	if err != nil {
		return "", 0, fmt.Errorf("create pending %s file: %w", kind, err)
	}
	defer func() {
		// Cleanup is a no-op after a successful commit.
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	cr := &countingReader{r: r, ctx: ctx}
	if _, err := io.Copy(pending, cr); err != nil {
		return "", cr.n, fmt.Errorf("write %s data: %w", kind, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", cr.n, fmt.Errorf("atomically replace %s file: %w", kind, err)
	}

	logger.Debug().
		Str(log.FieldEvent, "mediastore.saved").
		Str("kind", string(kind)).
		Str(log.FieldFilename, name).
		Int64(log.FieldSize, cr.n).
		Msg("media file stored")
	return path, cr.n, nil
}

// Resolve maps a request supplied name to a regular file inside kind's
// directory. Traversal attempts, symlink escapes and missing files all
// yield ErrNotFound so callers cannot distinguish them.
func (s *Store) Resolve(kind Kind, name string) (string, os.FileInfo, error) {
	if !fsutil.IsPlainName(name) {
		return "", nil, ErrNotFound
	}
	path, err := fsutil.ConfineRelPath(s.Dir(kind), name)
	if err != nil {
		return "", nil, ErrNotFound
	}
	info, err := fsutil.IsRegularFile(path)
	if err != nil {
		return "", nil, ErrNotFound
	}
	return path, info, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(kind Kind, name string) error {
	if !fsutil.IsPlainName(name) {
		return fmt.Errorf("remove %s: invalid name %q", kind, name)
	}
	if err := os.Remove(s.Path(kind, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s %s: %w", kind, name, err)
	}
	return nil
}

// CheckWritable verifies that kind's directory accepts new files.
func (s *Store) CheckWritable(kind Kind) error {
	f, err := os.CreateTemp(s.Dir(kind), ".probe-*")
	if err != nil {
		return fmt.Errorf("%s dir not writable: %w", kind, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
