package reconcile

import "time"

// Status is the terminal classification a book reaches during a run.
type Status string

const (
	// StatusSynced means the book completed every phase: its files are in
	// the destination library, metadata was applied, and it was moved to
	// the synced collection.
	StatusSynced Status = "synced"
	// StatusSkippedInvalid means the book was missing an author or title
	// and was never staged.
	StatusSkippedInvalid Status = "skipped_invalid"

	StatusDownloadFailed Status = "download_failed"
	StatusMatchFailed    Status = "match_failed"
	StatusMetadataFailed Status = "metadata_failed"
	StatusMoveFailed     Status = "move_failed"
)

// Outcome records the single terminal result for one book. A book receives
// exactly one outcome per run; later phases never overwrite an earlier
// failure.
type Outcome struct {
	BookID     string
	Title      string
	Author     string
	Path       string
	Status     Status
	Reason     string
	Downloaded bool
}

// Failed reports whether the outcome counts against the run's exit code.
// Invalid books are skipped deliberately and do not fail the run.
func (o Outcome) Failed() bool {
	switch o.Status {
	case StatusDownloadFailed, StatusMatchFailed, StatusMetadataFailed, StatusMoveFailed:
		return true
	default:
		return false
	}
}

// Summary is the aggregate result of one run, consumed by the reporter and
// the run log.
type Summary struct {
	RunID    string
	DryRun   bool
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Counts tallies the outcome list for reporting.
type Counts struct {
	Total           int
	Processed       int
	Downloaded      int
	SkippedExisting int
	SkippedInvalid  int
	Failed          int
}

func (s *Summary) Counts() Counts {
	var c Counts
	c.Total = len(s.Outcomes)
	for _, o := range s.Outcomes {
		switch {
		case o.Failed():
			c.Failed++
		case o.Status == StatusSkippedInvalid:
			c.SkippedInvalid++
		case o.Status == StatusSynced:
			c.Processed++
			if o.Downloaded {
				c.Downloaded++
			} else {
				c.SkippedExisting++
			}
		}
	}
	return c
}

// Succeeded reports whether the run completed without per-book failures.
func (s *Summary) Succeeded() bool {
	for _, o := range s.Outcomes {
		if o.Failed() {
			return false
		}
	}
	return true
}
