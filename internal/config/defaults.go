package config

const (
	defaultStagingDir     = "~/.local/share/keyreel/sessions"
	defaultLogDir         = "~/.local/share/keyreel/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultStopGraceMs    = 1500
	defaultReadyPollMs    = 250
	defaultReadyTimeoutMs = 20000
	defaultMinFreeDiskMiB = 512
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Capture: Capture{
			ShowRegion:  false,
			Scale720p:   false,
			StopGraceMs: defaultStopGraceMs,
		},
		Extraction: Extraction{
			OnlyDown: true,
		},
		Workflow: Workflow{
			ReadyPollMs:    defaultReadyPollMs,
			ReadyTimeoutMs: defaultReadyTimeoutMs,
			MinFreeDiskMiB: defaultMinFreeDiskMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
