package sessions

import (
	"database/sql"
	"time"
)

const recordColumns = "id, session_id, output_dir, status, roi_json, duration_ms, error_message, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           int64
		sessionID    string
		outputDir    string
		statusStr    string
		roiJSON      sql.NullString
		durationMs   sql.NullInt64
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&outputDir,
		&statusStr,
		&roiJSON,
		&durationMs,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	return &Record{
		ID:           id,
		SessionID:    sessionID,
		OutputDir:    outputDir,
		Status:       Status(statusStr),
		ROIJSON:      roiJSON.String,
		DurationMs:   durationMs.Int64,
		ErrorMessage: errorMessage.String,
		CreatedAt:    parseTime(createdRaw),
		UpdatedAt:    parseTime(updatedRaw),
	}, nil
}

func parseTime(raw string) time.Time {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed
	}
	return time.Time{}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
