// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest

// ValidationError rejects an upload before anything is written. Message is
// safe to show to the uploader.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any ValidationError with the same code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrTitleRequired = &ValidationError{
		Code:    "title_required",
		Message: "Title is required.",
	}
	ErrFileRequired = &ValidationError{
		Code:    "file_required",
		Message: "Choose a video file.",
	}
	ErrDisallowedExtension = &ValidationError{
		Code:    "disallowed_extension",
		Message: "Allowed: mp4, webm, ogg, mov, mkv",
	}
	ErrDisallowedThumbnailExtension = &ValidationError{
		Code:    "disallowed_thumbnail_extension",
		Message: "Thumbnail: png/jpg/jpeg/webp",
	}
)
