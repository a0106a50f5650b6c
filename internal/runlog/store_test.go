package runlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"absync/internal/reconcile"
	"absync/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func summaryFixture(runID string, started time.Time) *reconcile.Summary {
	return &reconcile.Summary{
		RunID:    runID,
		Started:  started,
		Finished: started.Add(time.Minute),
		Outcomes: []reconcile.Outcome{
			{BookID: "a", Title: "Dune", Author: "Frank Herbert", Path: "Frank Herbert/Dune", Status: reconcile.StatusSynced, Downloaded: true},
			{BookID: "b", Title: "Orphaned", Status: reconcile.StatusSkippedInvalid, Reason: "missing author"},
			{BookID: "c", Title: "Broken", Author: "Someone", Status: reconcile.StatusDownloadFailed, Reason: "connection reset"},
		},
	}
}

func TestRecordAndReadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.RecordRun(ctx, summaryFixture("run-1", started)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.DryRun {
		t.Errorf("unexpected run record: %+v", run)
	}
	if !run.Started.Equal(started) {
		t.Errorf("started = %v, want %v", run.Started, started)
	}
	want := reconcile.Counts{Total: 3, Processed: 1, Downloaded: 1, SkippedInvalid: 1, Failed: 1}
	if run.Counts != want {
		t.Errorf("counts = %+v, want %+v", run.Counts, want)
	}

	books, err := store.RunBooks(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunBooks: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("got %d books, want 3", len(books))
	}
	if books[0].BookID != "a" || books[0].Status != reconcile.StatusSynced || !books[0].Downloaded {
		t.Errorf("unexpected first book: %+v", books[0])
	}
	if books[2].Reason != "connection reset" {
		t.Errorf("unexpected failure reason: %+v", books[2])
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		s := summaryFixture(id, base.Add(time.Duration(i)*time.Hour))
		if err := store.RecordRun(ctx, s); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Errorf("runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestRunBooksUnknownRun(t *testing.T) {
	store := openTestStore(t)
	books, err := store.RunBooks(context.Background(), "missing")
	if err != nil {
		t.Fatalf("RunBooks: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no books, got %v", books)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	store.Close()

	if _, err := Open(cfg); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := Open(cfg)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.RecordRun(context.Background(), summaryFixture("run-1", time.Now().UTC())); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	first.Close()

	second, err := Open(cfg)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	runs, err := second.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}
