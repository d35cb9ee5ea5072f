// Package services defines the shared error taxonomy and context carriers
// used across the recording and post-processing pipeline.
package services
