package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing required values are a
// startup-fatal condition; they are never surfaced mid-run.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateDestination(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.Source.URL == "" {
		return errors.New("source.url is required. Set SOURCE_URL env var or edit the config file (create with 'absync config init')")
	}
	if c.Source.APIKey == "" {
		return errors.New("source.api_key is required. Set SOURCE_API_KEY env var or edit the config file")
	}
	return nil
}

func (c *Config) validateDestination() error {
	if c.Destination.URL == "" {
		return errors.New("destination.url is required. Set DEST_URL env var or edit the config file")
	}
	if c.Destination.APIKey == "" {
		return errors.New("destination.api_key is required. Set DEST_API_KEY env var or edit the config file")
	}
	if c.Destination.LibraryID == "" {
		return errors.New("destination.library_id is required. Set DEST_LIBRARY_ID env var or edit the config file")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/absync/config.toml"
		}
		return fmt.Errorf("paths.download_dir must be set (edit %s)", defaultPath)
	}
	return nil
}
