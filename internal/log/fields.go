// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldUploadID  = "upload_id"
	FieldVideoID   = "video_id"
	FieldUser      = "user"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldDuration  = "duration_ms"

	// Media fields
	FieldPath      = "path"
	FieldFilename  = "filename"
	FieldExt       = "ext"
	FieldSize      = "size"
	FieldRange     = "range"
	FieldTool      = "tool"
	FieldExitCode  = "exit_code"
	FieldWarning   = "warning"
	FieldThumbnail = "thumbnail"

	// HTTP fields
	FieldMethod = "method"
	FieldStatus = "status"
	FieldRemote = "remote_addr"
	FieldBytes  = "bytes"
)
