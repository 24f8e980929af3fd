// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import "fmt"

// baseArgs keep ffmpeg away from the terminal and quiet on success.
var baseArgs = []string{"-y", "-nostdin", "-hide_banner", "-loglevel", "error"}

// ConvertArgs builds the browser-compatible mp4 profile: H.264 video at
// CRF 23 with the veryfast preset, AAC audio at 128k and the moov atom moved
// to the front so playback can start before the download completes.
func ConvertArgs(input, output string) []string {
	args := append([]string{}, baseArgs...)
	return append(args,
		"-i", input,
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k",
		"-movflags", "+faststart",
		output,
	)
}

// ThumbnailArgs grabs one frame at offset and letterboxes it into a
// width x height canvas without distorting the aspect ratio.
func ThumbnailArgs(input, output, offset string, width, height int) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width, height, width, height,
	)
	args := append([]string{}, baseArgs...)
	return append(args,
		"-ss", offset,
		"-i", input,
		"-vframes", "1",
		"-vf", filter,
		output,
	)
}
