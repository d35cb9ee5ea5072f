package config

import "strings"

// normalize expands path fields and backfills zero values with defaults.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(valueOr(c.Paths.StagingDir, defaultStagingDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}

	if c.Capture.StopGraceMs <= 0 {
		c.Capture.StopGraceMs = defaultStopGraceMs
	}
	if c.Workflow.ReadyPollMs <= 0 {
		c.Workflow.ReadyPollMs = defaultReadyPollMs
	}
	if c.Workflow.ReadyTimeoutMs <= 0 {
		c.Workflow.ReadyTimeoutMs = defaultReadyTimeoutMs
	}
	if c.Workflow.MinFreeDiskMiB <= 0 {
		c.Workflow.MinFreeDiskMiB = defaultMinFreeDiskMiB
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(valueOr(c.Logging.Format, defaultLogFormat)))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(valueOr(c.Logging.Level, defaultLogLevel)))

	return nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
