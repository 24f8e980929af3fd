// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by the upload and playback spans.
const (
	UploadExtKey       = "upload.ext"
	UploadBytesKey     = "upload.bytes"
	UploadThumbKey     = "upload.thumbnail_source"
	UploadWarningsKey  = "upload.warnings"
	VideoIDKey         = "video.id"
	ConvertOutcomeKey  = "convert.outcome"
	ConvertOutputExt   = "convert.output_ext"
	MediaKindKey       = "media.kind"
	MediaRangeStartKey = "media.range.start"
	MediaRangeEndKey   = "media.range.end"
)

// UploadAttributes describes an accepted upload.
func UploadAttributes(ext string, bytes int64, thumbSource string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(UploadExtKey, ext),
		attribute.Int64(UploadBytesKey, bytes),
		attribute.String(UploadThumbKey, thumbSource),
	}
}

// ConvertAttributes describes a conversion outcome.
func ConvertAttributes(converted bool, outputExt string) []attribute.KeyValue {
	outcome := "kept"
	if converted {
		outcome = "converted"
	}
	return []attribute.KeyValue{
		attribute.String(ConvertOutcomeKey, outcome),
		attribute.String(ConvertOutputExt, outputExt),
	}
}
