// Package config loads, normalizes, and validates keyreel's TOML configuration.
package config
