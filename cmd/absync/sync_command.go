package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"absync/internal/config"
	"absync/internal/logging"
	"absync/internal/reconcile"
	"absync/internal/report"
	"absync/internal/runlock"
	"absync/internal/runlog"
	"absync/internal/scan"
	"absync/internal/services/audiobookshelf"
	"absync/internal/stager"
)

func newSyncCommand(cmdCtx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass between the source and destination servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return runSync(cmd, cfg, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be synced without writing files or mutating either server")
	return cmd
}

func runSync(cmd *cobra.Command, cfg *config.Config, dryRun bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := buildLogger(cfg, dryRun)
	if err != nil {
		return err
	}

	// A dry run touches nothing on disk, so it runs without the lock and
	// is never recorded in history.
	var store *runlog.Store
	if !dryRun {
		lock := runlock.New(logDir(cfg))
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()

		store, err = runlog.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	clientOpts := audiobookshelf.Options{
		RequestTimeout:  time.Duration(cfg.Sync.RequestTimeout) * time.Second,
		DownloadTimeout: time.Duration(cfg.Sync.DownloadTimeout) * time.Second,
	}
	source := audiobookshelf.NewSource(cfg.Source.URL, cfg.Source.APIKey, logger, clientOpts)
	dest := audiobookshelf.NewDestination(cfg.Destination.URL, cfg.Destination.APIKey, logger, clientOpts)

	if err := source.Ping(ctx); err != nil {
		return fmt.Errorf("source server unreachable: %w", err)
	}
	if err := dest.Ping(ctx); err != nil {
		return fmt.Errorf("destination server unreachable: %w", err)
	}

	downloadDir, err := config.ExpandPath(cfg.Paths.DownloadDir)
	if err != nil {
		return fmt.Errorf("resolve download dir: %w", err)
	}

	reconciler := reconcile.New(
		source,
		dest,
		stager.New(source, logger),
		scan.New(dest, time.Duration(cfg.Sync.ScanPollInterval)*time.Second, time.Duration(cfg.Sync.ScanTimeout)*time.Second, logger),
		reconcile.Options{
			DownloadDir:      downloadDir,
			LibraryID:        cfg.Destination.LibraryID,
			SourceCollection: cfg.Source.Collection,
			SyncedCollection: cfg.Source.SyncedCollection,
			DryRun:           dryRun,
		},
		logger,
	)

	runID := uuid.NewString()
	summary, err := reconciler.Run(ctx, runID)
	if err != nil {
		return err
	}

	if store != nil {
		if recordErr := store.RecordRun(ctx, summary); recordErr != nil {
			logger.Warn("failed to record run history", logging.Args(logging.Error(recordErr))...)
		}
	}

	report.New(cmd.OutOrStdout()).Render(summary)
	if report.ExitCode(summary) != 0 {
		counts := summary.Counts()
		return fmt.Errorf("%d of %d book(s) failed", counts.Failed, counts.Total)
	}
	return nil
}

// buildLogger keeps dry runs off the log file so they leave no trace on
// disk.
func buildLogger(cfg *config.Config, dryRun bool) (*slog.Logger, error) {
	if dryRun {
		return logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	}
	return logging.NewFromConfig(cfg)
}

func logDir(cfg *config.Config) string {
	dir, err := config.ExpandPath(cfg.Paths.LogDir)
	if err != nil {
		return cfg.Paths.LogDir
	}
	return dir
}
