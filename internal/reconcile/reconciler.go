package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"absync/internal/logging"
	"absync/internal/media"
	"absync/internal/services"
)

// SourceAPI is the slice of the source server used by the reconciler.
type SourceAPI interface {
	FindCollectionByName(ctx context.Context, name string) (*media.Collection, error)
	ListCollectionBooks(ctx context.Context, collectionID string) ([]media.Book, error)
	EnsureCollection(ctx context.Context, libraryID, name string, seedBookIDs []string) (*media.Collection, bool, error)
	AddToCollection(ctx context.Context, collectionID, bookID string) error
	RemoveFromCollection(ctx context.Context, collectionID, bookID string) error
}

// DestinationAPI is the slice of the destination server used by the
// reconciler.
type DestinationAPI interface {
	FindItemByPath(ctx context.Context, libraryID, relPath string) (*media.DestinationItem, error)
	UpdateMetadata(ctx context.Context, itemID string, payload media.MetadataUpdate) error
}

// Stager downloads one book into its target directory.
type Stager interface {
	Stage(ctx context.Context, book *media.Book, dir string) error
}

// Scanner triggers and awaits a destination library scan.
type Scanner interface {
	ScanAndWait(ctx context.Context, libraryID string) error
}

// Options carries the run parameters derived from configuration.
type Options struct {
	DownloadDir      string
	LibraryID        string
	SourceCollection string
	SyncedCollection string
	DryRun           bool
}

// Reconciler drives the per-book pipeline: existence check, stage-or-skip,
// one batch-wide scan, path match, metadata copy, and collection move.
// Books are processed strictly sequentially in enumeration order.
type Reconciler struct {
	source  SourceAPI
	dest    DestinationAPI
	stager  Stager
	scanner Scanner
	opts    Options
	logger  *slog.Logger
}

func New(source SourceAPI, dest DestinationAPI, stager Stager, scanner Scanner, opts Options, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		source:  source,
		dest:    dest,
		stager:  stager,
		scanner: scanner,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
	}
}

// bookState tracks one book across phases. A nil outcome means the book is
// still live; once set the book is excluded from every later phase.
type bookState struct {
	book       media.Book
	relPath    string
	staged     bool
	downloaded bool
	outcome    *Outcome
}

// batch is the run's explicit mutable state. Outcomes are appended in
// terminal order, at most one per book.
type batch struct {
	states   []*bookState
	outcomes []Outcome
}

func (b *batch) finish(state *bookState, status Status, reason string, downloaded bool) {
	if state.outcome != nil {
		return
	}
	outcome := Outcome{
		BookID:     state.book.ID,
		Title:      state.book.Title,
		Author:     state.book.PrimaryAuthor(),
		Path:       state.relPath,
		Status:     status,
		Reason:     reason,
		Downloaded: downloaded,
	}
	state.outcome = &outcome
	b.outcomes = append(b.outcomes, outcome)
}

func (b *batch) live() []*bookState {
	var out []*bookState
	for _, state := range b.states {
		if state.outcome == nil {
			out = append(out, state)
		}
	}
	return out
}

// Run executes one full reconciliation pass. It returns an error only for
// run-fatal conditions (source collection missing, context cancelled);
// per-book failures are recorded in the summary instead.
func (r *Reconciler) Run(ctx context.Context, runID string) (*Summary, error) {
	ctx = services.WithRunID(ctx, runID)
	summary := &Summary{RunID: runID, DryRun: r.opts.DryRun, Started: time.Now()}

	collection, err := r.source.FindCollectionByName(ctx, r.opts.SourceCollection)
	if err != nil {
		if services.IsNotFound(err) {
			return nil, fmt.Errorf("source collection %q not found", r.opts.SourceCollection)
		}
		return nil, fmt.Errorf("find source collection: %w", err)
	}

	books, err := r.source.ListCollectionBooks(ctx, collection.ID)
	if err != nil {
		return nil, fmt.Errorf("list collection books: %w", err)
	}
	logging.WithContext(ctx, r.logger).Info("collection enumerated",
		logging.Args(logging.String("collection", collection.Name), logging.Int("books", len(books)))...)

	if len(books) == 0 {
		summary.Finished = time.Now()
		return summary, nil
	}

	run := &batch{}
	for i := range books {
		run.states = append(run.states, &bookState{book: books[i], relPath: books[i].FolderPath()})
	}

	if err := r.stagePhase(ctx, run); err != nil {
		return nil, err
	}
	r.scanPhase(ctx, run)
	if err := r.promotePhase(ctx, run, collection); err != nil {
		return nil, err
	}

	summary.Outcomes = run.outcomes
	summary.Finished = time.Now()
	return summary, nil
}

// stagePhase classifies every book and downloads the ones that need files.
// Invalid books and ambiguous paths terminate here; everything else stays
// live for the post-scan phases.
func (r *Reconciler) stagePhase(ctx context.Context, run *batch) error {
	pathCount := make(map[string]int)
	for _, state := range run.states {
		if r.validate(state) == "" {
			pathCount[state.relPath]++
		}
	}

	for _, state := range run.states {
		if err := ctx.Err(); err != nil {
			return err
		}
		bookCtx := services.WithPhase(services.WithBookID(ctx, state.book.ID), "stage")
		log := r.bookLogger(bookCtx, state)

		if reason := r.validate(state); reason != "" {
			log.Warn("book skipped", logging.Args(logging.String("reason", reason))...)
			run.finish(state, StatusSkippedInvalid, reason, false)
			continue
		}
		if pathCount[state.relPath] > 1 {
			log.Warn("two books map to the same folder", logging.Args(logging.String(logging.FieldPath, state.relPath))...)
			run.finish(state, StatusMatchFailed, "ambiguous path", false)
			continue
		}

		target := filepath.Join(r.opts.DownloadDir, filepath.FromSlash(state.relPath))
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			log.Info("folder already exists, skipping download")
			state.staged = true
			continue
		}

		if r.opts.DryRun {
			log.Info("would download", logging.Args(logging.String(logging.FieldPath, state.relPath))...)
			state.staged = true
			state.downloaded = true
			continue
		}

		log.Info("downloading", logging.Args(logging.String(logging.FieldPath, state.relPath))...)
		if err := r.stager.Stage(bookCtx, &state.book, target); err != nil {
			log.Error("download failed", logging.Args(logging.Error(err))...)
			run.finish(state, StatusDownloadFailed, err.Error(), false)
			continue
		}
		state.staged = true
		state.downloaded = true
	}
	return nil
}

// scanPhase triggers at most one scan for the whole batch. A scan failure is
// advisory: matching may still succeed if the server indexed the new folders
// on its own.
func (r *Reconciler) scanPhase(ctx context.Context, run *batch) {
	any := false
	for _, state := range run.states {
		if state.outcome == nil && state.staged {
			any = true
			break
		}
	}
	if !any {
		return
	}
	scanCtx := services.WithPhase(ctx, "scan")
	if r.opts.DryRun {
		r.logger.Info("would trigger library scan", logging.Args(logging.String("library_id", r.opts.LibraryID))...)
		return
	}
	if err := r.scanner.ScanAndWait(scanCtx, r.opts.LibraryID); err != nil {
		r.logger.Warn("library scan did not complete, matching anyway", logging.Args(logging.Error(err))...)
	}
}

// promotePhase matches each live book on the destination, applies metadata,
// and moves it to the synced collection. In dry-run mode the books are
// classified without touching either server.
func (r *Reconciler) promotePhase(ctx context.Context, run *batch, downloads *media.Collection) error {
	var synced *media.Collection

	for _, state := range run.live() {
		if err := ctx.Err(); err != nil {
			return err
		}
		bookCtx := services.WithPhase(services.WithBookID(ctx, state.book.ID), "promote")
		log := r.bookLogger(bookCtx, state)

		if r.opts.DryRun {
			log.Info("would match, apply metadata, and move to synced collection")
			run.finish(state, StatusSynced, "", state.downloaded)
			continue
		}

		item, err := r.dest.FindItemByPath(bookCtx, r.opts.LibraryID, state.relPath)
		if err != nil {
			reason := "no destination item matched folder path"
			if !services.IsNotFound(err) {
				reason = err.Error()
			}
			log.Error("match failed", logging.Args(logging.String("reason", reason))...)
			run.finish(state, StatusMatchFailed, reason, state.downloaded)
			continue
		}

		if err := r.dest.UpdateMetadata(bookCtx, item.ID, state.book.UpdatePayload()); err != nil {
			log.Error("metadata update failed", logging.Args(logging.Error(err))...)
			run.finish(state, StatusMetadataFailed, err.Error(), state.downloaded)
			continue
		}

		if err := r.moveToSynced(bookCtx, &synced, downloads, state); err != nil {
			log.Error("collection move failed", logging.Args(logging.Error(err))...)
			run.finish(state, StatusMoveFailed, err.Error(), state.downloaded)
			continue
		}

		log.Info("book synced")
		run.finish(state, StatusSynced, "", state.downloaded)
	}
	return nil
}

// moveToSynced resolves the synced collection lazily so a run with nothing
// to promote never creates it. Creating the collection with the first book
// as seed doubles as that book's add.
func (r *Reconciler) moveToSynced(ctx context.Context, synced **media.Collection, downloads *media.Collection, state *bookState) error {
	if *synced == nil {
		collection, created, err := r.source.EnsureCollection(ctx, downloads.LibraryID, r.opts.SyncedCollection, []string{state.book.ID})
		if err != nil {
			return fmt.Errorf("ensure synced collection: %w", err)
		}
		*synced = collection
		if created {
			return r.source.RemoveFromCollection(ctx, downloads.ID, state.book.ID)
		}
	}
	if err := r.source.AddToCollection(ctx, (*synced).ID, state.book.ID); err != nil {
		return fmt.Errorf("add to synced collection: %w", err)
	}
	return r.source.RemoveFromCollection(ctx, downloads.ID, state.book.ID)
}

func (r *Reconciler) validate(state *bookState) string {
	if state.book.Title == "" {
		return "missing title"
	}
	if state.book.PrimaryAuthor() == "" {
		return "missing author"
	}
	return ""
}

func (r *Reconciler) bookLogger(ctx context.Context, state *bookState) *slog.Logger {
	return logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldTitle, state.book.Title),
	)
}
