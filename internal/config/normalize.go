package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.HandoffDir = strings.TrimSpace(c.Paths.HandoffDir)
	if c.Paths.HandoffDir != "" {
		if c.Paths.HandoffDir, err = expandPath(c.Paths.HandoffDir); err != nil {
			return fmt.Errorf("paths.handoff_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeWatch() error {
	if c.Watch.PollInterval == 0 {
		c.Watch.PollInterval = defaultWatchPollInterval
	}
	if c.Watch.MaxPartialRetries == 0 {
		c.Watch.MaxPartialRetries = defaultWatchMaxPartialRetries
	}
	normalized := make([]string, 0, len(c.Watch.Directories))
	for _, dir := range c.Watch.Directories {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("watch.directories: %w", err)
		}
		normalized = append(normalized, expanded)
	}
	c.Watch.Directories = normalized
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
