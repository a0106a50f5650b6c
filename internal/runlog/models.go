package runlog

import (
	"time"

	"absync/internal/reconcile"
)

// RunRecord is one persisted run with its aggregate counters.
type RunRecord struct {
	ID       string
	Started  time.Time
	Finished time.Time
	DryRun   bool
	Counts   reconcile.Counts
}

// BookRecord is one persisted per-book outcome belonging to a run.
type BookRecord struct {
	RunID      string
	BookID     string
	Title      string
	Author     string
	Path       string
	Status     reconcile.Status
	Reason     string
	Downloaded bool
}
