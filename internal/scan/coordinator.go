package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"absync/internal/logging"
)

// ErrTimeout reports that a library scan did not settle within the
// configured window. Callers may treat it as advisory and continue.
var ErrTimeout = errors.New("library scan timed out")

// LibraryScanner is the slice of the destination API the coordinator needs.
type LibraryScanner interface {
	TriggerScan(ctx context.Context, libraryID string) error
	LibraryScanning(ctx context.Context, libraryID string) (bool, error)
}

// Coordinator triggers a single library scan for a batch and waits for it to
// settle. Triggering once per run instead of once per book keeps the
// destination server from queueing redundant scans.
type Coordinator struct {
	scanner LibraryScanner
	poll    time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a coordinator. Poll and timeout come from the sync section
// of the configuration.
func New(scanner LibraryScanner, poll, timeout time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		scanner: scanner,
		poll:    poll,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "scan"),
	}
}

// ScanAndWait triggers exactly one scan of the library and polls the
// library's scanning flag until it clears. A poll error is logged and
// retried on the next tick; only the trigger failing, the context ending, or
// the timeout elapsing surface as errors.
func (c *Coordinator) ScanAndWait(ctx context.Context, libraryID string) error {
	if err := c.scanner.TriggerScan(ctx, libraryID); err != nil {
		return fmt.Errorf("trigger library scan: %w", err)
	}
	c.logger.Info("library scan triggered", logging.Args(logging.String("library_id", libraryID))...)

	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		scanning, err := c.scanner.LibraryScanning(ctx, libraryID)
		if err != nil {
			c.logger.Warn("scan status check failed", logging.Args(logging.Error(err))...)
		} else if !scanning {
			c.logger.Info("library scan complete", logging.Args(logging.String("library_id", libraryID))...)
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
	}
}
