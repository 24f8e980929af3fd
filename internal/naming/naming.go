// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package naming derives storage-safe file names from user supplied input.
package naming

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxSlugLen   = 60
	fallbackSlug = "video"
	stampLayout  = "20060102150405.000000"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\-_\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

var (
	videoExts = map[string]struct{}{"mp4": {}, "webm": {}, "ogg": {}, "mov": {}, "mkv": {}}
	imageExts = map[string]struct{}{"png": {}, "jpg": {}, "jpeg": {}, "webp": {}}
)

// Slug lower-cases text and reduces it to [a-z0-9_-], joining words with "-".
// The result is at most 60 characters and never empty.
func Slug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// Ext returns the lower-cased extension of filename without the dot, or ""
// when filename has no dot.
func Ext(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(filename[i+1:]))
}

// Stem returns filename without its last extension.
func Stem(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}

// AllowedVideo reports whether filename carries an accepted video extension.
func AllowedVideo(filename string) bool {
	return allowed(filename, videoExts)
}

// AllowedImage reports whether filename carries an accepted thumbnail extension.
func AllowedImage(filename string) bool {
	return allowed(filename, imageExts)
}

func allowed(filename string, set map[string]struct{}) bool {
	if !strings.Contains(filename, ".") {
		return false
	}
	_, ok := set[Ext(filename)]
	return ok
}

// Namer produces unique storage names. The zero value is not usable; use
// NewNamer or the package level UniqueName.
type Namer struct {
	now    func() time.Time
	suffix func() string
}

// NewNamer returns a Namer. Nil arguments select the wall clock and a random
// 8 hex digit suffix.
func NewNamer(now func() time.Time, suffix func() string) *Namer {
	if now == nil {
		now = time.Now
	}
	if suffix == nil {
		suffix = randomSuffix
	}
	return &Namer{now: now, suffix: suffix}
}

// UniqueName returns "<slug>-<utc stamp>-<suffix>.<ext>". The stamp has
// microsecond resolution so names sort by creation time.
func (n *Namer) UniqueName(base, ext string) string {
	stamp := strings.Replace(n.now().UTC().Format(stampLayout), ".", "", 1)
	return Slug(base) + "-" + stamp + "-" + n.suffix() + "." + strings.ToLower(strings.TrimPrefix(ext, "."))
}

func randomSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

var (
	defaultOnce  sync.Once
	defaultNamer *Namer
)

// UniqueName generates a storage name with the process-wide Namer.
func UniqueName(base, ext string) string {
	defaultOnce.Do(func() { defaultNamer = NewNamer(nil, nil) })
	return defaultNamer.UniqueName(base, ext)
}
