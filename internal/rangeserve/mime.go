// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rangeserve

import "github.com/ManuGH/oldtube/internal/naming"

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// ContentType maps a filename to the MIME type used in responses.
func ContentType(filename string) string {
	if ct, ok := contentTypes[naming.Ext(filename)]; ok {
		return ct
	}
	return defaultContentType
}
