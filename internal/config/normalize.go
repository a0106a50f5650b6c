package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeDestination()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	if c.Source.URL == "" {
		if value, ok := os.LookupEnv("SOURCE_URL"); ok {
			c.Source.URL = value
		}
	}
	if c.Source.APIKey == "" {
		if value, ok := os.LookupEnv("SOURCE_API_KEY"); ok {
			c.Source.APIKey = value
		}
	}
	c.Source.URL = strings.TrimRight(strings.TrimSpace(c.Source.URL), "/")
	c.Source.APIKey = strings.TrimSpace(c.Source.APIKey)
	c.Source.Collection = strings.TrimSpace(c.Source.Collection)
	if c.Source.Collection == "" {
		c.Source.Collection = defaultSourceCollection
	}
	c.Source.SyncedCollection = strings.TrimSpace(c.Source.SyncedCollection)
	if c.Source.SyncedCollection == "" {
		c.Source.SyncedCollection = defaultSyncedCollection
	}
}

func (c *Config) normalizeDestination() {
	if c.Destination.URL == "" {
		if value, ok := os.LookupEnv("DEST_URL"); ok {
			c.Destination.URL = value
		}
	}
	if c.Destination.APIKey == "" {
		if value, ok := os.LookupEnv("DEST_API_KEY"); ok {
			c.Destination.APIKey = value
		}
	}
	if c.Destination.LibraryID == "" {
		if value, ok := os.LookupEnv("DEST_LIBRARY_ID"); ok {
			c.Destination.LibraryID = value
		}
	}
	c.Destination.URL = strings.TrimRight(strings.TrimSpace(c.Destination.URL), "/")
	c.Destination.APIKey = strings.TrimSpace(c.Destination.APIKey)
	c.Destination.LibraryID = strings.TrimSpace(c.Destination.LibraryID)
}

func (c *Config) normalizeSync() {
	if c.Sync.ScanPollInterval <= 0 {
		c.Sync.ScanPollInterval = defaultScanPollInterval
	}
	if c.Sync.ScanTimeout <= 0 {
		c.Sync.ScanTimeout = defaultScanTimeout
	}
	if c.Sync.RequestTimeout <= 0 {
		c.Sync.RequestTimeout = defaultRequestTimeout
	}
	if c.Sync.DownloadTimeout <= 0 {
		c.Sync.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
