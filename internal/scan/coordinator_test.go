package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"absync/internal/logging"
)

type fakeScanner struct {
	triggerErr     error
	triggered      int
	alwaysScanning bool
	statuses       []bool
	statusErrs     []error
	statusCalls    int
}

func (f *fakeScanner) TriggerScan(context.Context, string) error {
	f.triggered++
	return f.triggerErr
}

func (f *fakeScanner) LibraryScanning(context.Context, string) (bool, error) {
	i := f.statusCalls
	f.statusCalls++
	if i < len(f.statusErrs) && f.statusErrs[i] != nil {
		return false, f.statusErrs[i]
	}
	if f.alwaysScanning {
		return true, nil
	}
	if i >= len(f.statuses) {
		return false, nil
	}
	return f.statuses[i], nil
}

func TestScanAndWaitTriggersOnceAndPollsUntilIdle(t *testing.T) {
	scanner := &fakeScanner{statuses: []bool{true, true, false}}
	coord := New(scanner, time.Millisecond, time.Second, logging.NewNop())

	if err := coord.ScanAndWait(context.Background(), "lib-1"); err != nil {
		t.Fatalf("ScanAndWait returned error: %v", err)
	}
	if scanner.triggered != 1 {
		t.Errorf("TriggerScan called %d times, want 1", scanner.triggered)
	}
	if scanner.statusCalls != 3 {
		t.Errorf("LibraryScanning called %d times, want 3", scanner.statusCalls)
	}
}

func TestScanAndWaitTriggerFailure(t *testing.T) {
	scanner := &fakeScanner{triggerErr: errors.New("scan endpoint down")}
	coord := New(scanner, time.Millisecond, time.Second, logging.NewNop())

	if err := coord.ScanAndWait(context.Background(), "lib-1"); err == nil {
		t.Fatal("expected trigger failure to surface")
	}
	if scanner.statusCalls != 0 {
		t.Errorf("expected no polling after trigger failure, got %d calls", scanner.statusCalls)
	}
}

func TestScanAndWaitToleratesPollErrors(t *testing.T) {
	scanner := &fakeScanner{
		statuses:   []bool{true, false, false},
		statusErrs: []error{nil, errors.New("transient")},
	}
	coord := New(scanner, time.Millisecond, time.Second, logging.NewNop())

	if err := coord.ScanAndWait(context.Background(), "lib-1"); err != nil {
		t.Fatalf("poll error should be retried, got %v", err)
	}
}

func TestScanAndWaitTimeout(t *testing.T) {
	scanner := &fakeScanner{alwaysScanning: true}
	coord := New(scanner, time.Millisecond, 5*time.Millisecond, logging.NewNop())

	err := coord.ScanAndWait(context.Background(), "lib-1")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestScanAndWaitContextCancel(t *testing.T) {
	scanner := &fakeScanner{statuses: []bool{true, true, true}}
	coord := New(scanner, 10*time.Millisecond, time.Second, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := coord.ScanAndWait(ctx, "lib-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
