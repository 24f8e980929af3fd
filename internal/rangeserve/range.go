// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rangeserve

import (
	"fmt"
	"regexp"
	"strconv"
)

// Only the first "bytes=start-[end]" range is honoured. Suffix ranges and
// anything else fall back to a full response.
var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)`)

// Spec is an inclusive byte range already clamped to a file's bounds.
type Spec struct {
	Start int64
	End   int64
}

// Length is the number of bytes covered by the range.
func (s Spec) Length() int64 {
	return s.End - s.Start + 1
}

// ContentRange formats the Content-Range header value for a file of size.
func (s Spec) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", s.Start, s.End, size)
}

// ParseRange interprets a Range header against a file of size bytes. It
// reports false when the header is absent or malformed, or when the file is
// empty. Start is clamped into [0, size-1]; a missing end means size-1 and
// end is clamped into [start, size-1].
func ParseRange(header string, size int64) (Spec, bool) {
	if header == "" || size <= 0 {
		return Spec{}, false
	}
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return Spec{}, false
	}

	last := size - 1
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || start > last {
		// Overflowing digit strings are as unsatisfiable as any other
		// start past the end.
		start = last
	}

	end := last
	if m[2] != "" {
		if v, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			end = v
		}
	}
	end = max(start, min(end, last))

	return Spec{Start: start, End: end}, true
}
