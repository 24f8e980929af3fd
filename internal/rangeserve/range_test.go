// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rangeserve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		header string
		size   int64
		want   Spec
		ok     bool
	}{
		{header: "bytes=100-199", size: 1000, want: Spec{Start: 100, End: 199}, ok: true},
		{header: "bytes=900-2000", size: 1000, want: Spec{Start: 900, End: 999}, ok: true},
		{header: "bytes=0-", size: 1000, want: Spec{Start: 0, End: 999}, ok: true},
		{header: "bytes=5000-", size: 1000, want: Spec{Start: 999, End: 999}, ok: true},
		{header: "bytes=500-100", size: 1000, want: Spec{Start: 500, End: 500}, ok: true},
		{header: "bytes=1-2,5-6", size: 1000, want: Spec{Start: 1, End: 2}, ok: true},
		{header: "bytes=99999999999999999999-", size: 10, want: Spec{Start: 9, End: 9}, ok: true},
		{header: "bytes=abc", size: 1000},
		{header: "bytes=-500", size: 1000},
		{header: "items=0-1", size: 1000},
		{header: "", size: 1000},
		{header: "bytes=0-10", size: 0},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ParseRange(tt.header, tt.size)
			if ok != tt.ok {
				t.Fatalf("ParseRange(%q, %d) ok = %v, want %v", tt.header, tt.size, ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRange(%q, %d) mismatch (-want +got):\n%s", tt.header, tt.size, diff)
			}
		})
	}
}

func TestSpecLengthAndContentRange(t *testing.T) {
	s := Spec{Start: 100, End: 199}
	if s.Length() != 100 {
		t.Errorf("Length() = %d, want 100", s.Length())
	}
	if got := s.ContentRange(1000); got != "bytes 100-199/1000" {
		t.Errorf("ContentRange() = %q", got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.mp4":   "video/mp4",
		"a.WEBM":  "video/webm",
		"a.ogg":   "video/ogg",
		"a.mov":   "video/quicktime",
		"a.mkv":   "video/x-matroska",
		"a.jpg":   "image/jpeg",
		"a.jpeg":  "image/jpeg",
		"a.png":   "image/png",
		"a.webp":  "image/webp",
		"a.avi":   "application/octet-stream",
		"noext":   "application/octet-stream",
		"a.b.mp4": "video/mp4",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
