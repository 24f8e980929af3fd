// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IsPathTraversal reports whether a request supplied name contains parent
// references, NUL bytes or encoded variants of them, after up to three
// rounds of URL decoding and NFC normalisation.
func IsPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	raw := strings.ToLower(p)
	for _, pat := range []string{"..", "%00", "\x00", "%c0%ae", "%e0%80%ae"} {
		if strings.Contains(lower, pat) || strings.Contains(raw, pat) {
			return true
		}
	}

	normalized := norm.NFC.String(lower)
	return strings.Contains(normalized, "..")
}

// IsPlainName reports whether name is a single path element that is safe to
// join onto a storage root.
func IsPlainName(name string) bool {
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) {
		return false
	}
	return !IsPathTraversal(name)
}
