// Package logging provides slog construction with console and JSON handlers
// plus shared structured-field conventions for the pipeline.
package logging
