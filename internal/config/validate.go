package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRetention(); err != nil {
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

func (c *Config) validateRetention() error {
	if c.Retention.WindowSeconds <= 0 {
		return errors.New("retention.window_seconds must be positive")
	}
	if c.Retention.SweepIntervalSeconds <= 0 {
		return errors.New("retention.sweep_interval_seconds must be positive")
	}
	if c.Retention.SweepIntervalSeconds > c.Retention.WindowSeconds {
		return errors.New("retention.sweep_interval_seconds must not exceed retention.window_seconds")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.worker_count":         c.Workflow.WorkerCount,
		"workflow.queue_capacity":       c.Workflow.QueueCapacity,
		"workflow.max_deliveries":       c.Workflow.MaxDeliveries,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
