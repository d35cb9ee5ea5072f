package recorder

import (
	"path/filepath"
	"time"

	"keyreel/internal/artifacts"
	"keyreel/internal/fileutil"
	"keyreel/internal/version"
)

// Meta is the durable per-session record written when a recording stops.
type Meta struct {
	StartedAt   string   `json:"startedAt"`
	DurationMs  int64    `json:"durationMs"`
	ROI         Region   `json:"roi"`
	OutDir      string   `json:"outDir"`
	VideoPath   string   `json:"videoPath"`
	EncoderArgs []string `json:"encoderArgs"`
	AppVersion  string   `json:"appVersion"`
	Type        string   `json:"type"`
}

func writeMeta(session *Session, durationMs int64) error {
	meta := Meta{
		StartedAt:   session.StartedAt.Format(time.RFC3339),
		DurationMs:  durationMs,
		ROI:         session.Region,
		OutDir:      session.OutputDir,
		VideoPath:   session.VideoPath,
		EncoderArgs: session.EncoderArgs,
		AppVersion:  version.Version,
		Type:        "recording",
	}
	return fileutil.WriteJSON(filepath.Join(session.OutputDir, artifacts.Meta), meta)
}

// LoadMeta reads a session's meta.json.
func LoadMeta(outputDir string) (Meta, error) {
	var meta Meta
	err := fileutil.ReadJSON(filepath.Join(outputDir, artifacts.Meta), &meta)
	return meta, err
}
