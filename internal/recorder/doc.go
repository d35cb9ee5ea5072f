// Package recorder manages the lifecycle of the external screen-capture
// encoder: exactly one active session, graceful-then-forced shutdown, and
// durable session metadata.
package recorder
