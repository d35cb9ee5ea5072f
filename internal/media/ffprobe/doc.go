// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to read a finalized capture's duration (for timestamp
// clamping) and to confirm the file actually contains a video stream before
// frame extraction begins.
package ffprobe
