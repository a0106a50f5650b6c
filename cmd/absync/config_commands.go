package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"absync/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(cmdCtx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the server URLs and API keys before running absync.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with keys redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source.url              = %s\n", cfg.Source.URL)
			fmt.Fprintf(out, "source.api_key          = %s\n", redactKey(cfg.Source.APIKey))
			fmt.Fprintf(out, "source.collection       = %s\n", cfg.Source.Collection)
			fmt.Fprintf(out, "source.synced_collection = %s\n", cfg.Source.SyncedCollection)
			fmt.Fprintf(out, "destination.url         = %s\n", cfg.Destination.URL)
			fmt.Fprintf(out, "destination.api_key     = %s\n", redactKey(cfg.Destination.APIKey))
			fmt.Fprintf(out, "destination.library_id  = %s\n", cfg.Destination.LibraryID)
			fmt.Fprintf(out, "paths.download_dir      = %s\n", cfg.Paths.DownloadDir)
			fmt.Fprintf(out, "paths.log_dir           = %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "sync.scan_poll_interval = %ds\n", cfg.Sync.ScanPollInterval)
			fmt.Fprintf(out, "sync.scan_timeout       = %ds\n", cfg.Sync.ScanTimeout)
			fmt.Fprintf(out, "sync.request_timeout    = %ds\n", cfg.Sync.RequestTimeout)
			fmt.Fprintf(out, "sync.download_timeout   = %ds\n", cfg.Sync.DownloadTimeout)
			fmt.Fprintf(out, "logging.format          = %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "logging.level           = %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

func redactKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return key[:2] + strings.Repeat("*", 6) + key[len(key)-2:]
}
