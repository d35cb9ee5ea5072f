package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Extraction.Workers < 0 {
		return errors.New("extraction.workers must not be negative")
	}
	if c.OCR.Workers < 0 {
		return errors.New("ocr.workers must not be negative")
	}
	if c.Extraction.TaskTimeoutSeconds < 0 {
		return errors.New("extraction.task_timeout_seconds must not be negative")
	}
	if c.OCR.TaskTimeoutSeconds < 0 {
		return errors.New("ocr.task_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ReadyPollMs >= c.Workflow.ReadyTimeoutMs {
		return fmt.Errorf(
			"workflow.ready_poll_ms (%d) must be smaller than workflow.ready_timeout_ms (%d)",
			c.Workflow.ReadyPollMs, c.Workflow.ReadyTimeoutMs,
		)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
