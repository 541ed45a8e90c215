package config

import "time"

const (
	defaultUploadDir            = "~/.local/share/convolens/uploads"
	defaultLogDir               = "~/.local/share/convolens/logs"
	defaultAPIBind              = "127.0.0.1:7512"
	defaultRetentionSeconds     = 1800
	defaultSweepIntervalSeconds = 60
	defaultWorkerCount          = 2
	defaultQueueCapacity        = 64
	defaultMaxDeliveries        = 3
	defaultErrorRetryInterval   = 10
	defaultLanguage             = "en"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Retention: Retention{
			WindowSeconds:        defaultRetentionSeconds,
			SweepIntervalSeconds: defaultSweepIntervalSeconds,
		},
		Workflow: Workflow{
			WorkerCount:        defaultWorkerCount,
			QueueCapacity:      defaultQueueCapacity,
			MaxDeliveries:      defaultMaxDeliveries,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Analysis: Analysis{
			DefaultLanguage: defaultLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// RetentionWindow returns the TTL applied to every state store key family.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.Retention.WindowSeconds) * time.Second
}

// SweepInterval returns how often the expiry sweeper runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Retention.SweepIntervalSeconds) * time.Second
}

// RetryInterval returns the delay before a failed delivery is redelivered.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Workflow.ErrorRetryInterval) * time.Second
}
