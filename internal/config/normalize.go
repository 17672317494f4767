package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvTimeout overrides search.timeout_seconds.
const EnvTimeout = "RELOCATOR_TIMEOUT"

func (c *Config) normalize() error {
	c.normalizeSearch()
	c.normalizeCatalog()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSearch() {
	if value, ok := os.LookupEnv(EnvTimeout); ok {
		if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && seconds > 0 {
			c.Search.TimeoutSeconds = seconds
		}
	}
	if c.Search.TimeoutSeconds == 0 {
		c.Search.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Search.StatRetries < 0 {
		c.Search.StatRetries = 0
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BackupSuffix = strings.TrimSpace(c.Catalog.BackupSuffix)
	if c.Catalog.BackupSuffix == "" {
		c.Catalog.BackupSuffix = defaultBackupSuffix
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
