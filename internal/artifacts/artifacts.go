// Package artifacts names the files a session directory accumulates as it
// moves through the pipeline. Stages communicate only through these files.
package artifacts

import "path/filepath"

const (
	// Video is the capture container written by the encoder.
	Video = "video.mp4"
	// EncoderLog receives the encoder's stderr, append-mode.
	EncoderLog = "ffmpeg.log"
	// Meta is the per-session metadata record written on stop.
	Meta = "meta.json"
	// EventLog is the key-event timeline written by the overlay UI.
	EventLog = "events.json"
	// FramesDirBase is the preferred name for the still-frame directory. When
	// it already exists and is non-empty a numeric suffix is appended.
	FramesDirBase = "frames"
	// FrameIndex is the manifest written inside the frames directory.
	FrameIndex = "index.json"
	// OCR is the recognition-results artifact.
	OCR = "ocr.json"
	// Analysis is the paired-interval artifact, the pipeline's final output.
	Analysis = "analysis.json"
)

// VideoPath returns the capture file path for a session directory.
func VideoPath(outputDir string) string { return filepath.Join(outputDir, Video) }

// EventLogPath returns the event log path for a session directory.
func EventLogPath(outputDir string) string { return filepath.Join(outputDir, EventLog) }

// OCRPath returns the recognition artifact path for a session directory.
func OCRPath(outputDir string) string { return filepath.Join(outputDir, OCR) }

// AnalysisPath returns the analysis artifact path for a session directory.
func AnalysisPath(outputDir string) string { return filepath.Join(outputDir, Analysis) }
