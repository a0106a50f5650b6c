package stager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"absync/internal/logging"
	"absync/internal/media"
	"absync/internal/services"
	"absync/internal/textutil"
)

// FileFetcher is the download capability the stager needs from the source
// server.
type FileFetcher interface {
	DownloadFile(ctx context.Context, itemID, ino string) (io.ReadCloser, error)
	DownloadArchive(ctx context.Context, itemID string) (io.ReadCloser, string, error)
	DownloadCover(ctx context.Context, itemID string) (io.ReadCloser, string, error)
}

// Stager writes one book's audio files and cover into its target directory.
// No other component writes under a book's directory.
type Stager struct {
	fetcher FileFetcher
	logger  *slog.Logger
}

// New constructs a stager over the provided fetcher.
func New(fetcher FileFetcher, logger *slog.Logger) *Stager {
	return &Stager{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "stager"),
	}
}

// Stage downloads the book into dir, preserving original file order and
// names. When any audio download fails the whole directory is removed before
// returning, so a half-written book can never satisfy a later existence
// check. A cover failure is not fatal; the book simply ships without one.
func (s *Stager) Stage(ctx context.Context, book *media.Book, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	var err error
	if len(book.AudioFiles) > 0 {
		err = s.stageFiles(ctx, book, dir)
	} else {
		err = s.stageArchive(ctx, book, dir)
	}
	if err != nil {
		s.cleanup(dir)
		return err
	}

	s.stageCover(ctx, book, dir)
	return nil
}

func (s *Stager) stageFiles(ctx context.Context, book *media.Book, dir string) error {
	for _, ref := range book.AudioFiles {
		name := audioFileName(ref)
		body, err := s.fetcher.DownloadFile(ctx, book.ID, ref.Ino)
		if err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
		err = writeStream(filepath.Join(dir, name), body)
		body.Close()
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		s.logger.Debug("audio file staged",
			logging.Args(logging.String(logging.FieldBookID, book.ID), logging.String("file", name))...)
	}
	return nil
}

// stageArchive handles books whose snapshot carries no per-file inodes: the
// whole-item download endpoint returns either a single audio stream or a zip
// archive that is extracted in place.
func (s *Stager) stageArchive(ctx context.Context, book *media.Book, dir string) error {
	body, contentType, err := s.fetcher.DownloadArchive(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("download item: %w", err)
	}
	defer body.Close()

	if strings.Contains(contentType, "zip") {
		archivePath := filepath.Join(dir, ".download.zip")
		if err := writeStream(archivePath, body); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
		if err := extractZip(archivePath, dir); err != nil {
			return fmt.Errorf("extract archive: %w", err)
		}
		if err := os.Remove(archivePath); err != nil {
			return fmt.Errorf("remove archive: %w", err)
		}
		return nil
	}

	name := textutil.SanitizePathSegment(book.Title) + audioExtension(contentType)
	if err := writeStream(filepath.Join(dir, name), body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Stager) stageCover(ctx context.Context, book *media.Book, dir string) {
	if !book.CoverAvailable {
		return
	}
	body, ext, err := s.fetcher.DownloadCover(ctx, book.ID)
	if err != nil {
		if !services.IsNotFound(err) {
			s.logger.Warn("cover download failed",
				logging.Args(logging.String(logging.FieldBookID, book.ID), logging.Error(err))...)
		}
		return
	}
	defer body.Close()

	coverPath := filepath.Join(dir, "cover"+ext)
	if err := writeStream(coverPath, body); err != nil {
		s.logger.Warn("cover write failed",
			logging.Args(logging.String(logging.FieldBookID, book.ID), logging.Error(err))...)
		_ = os.Remove(coverPath)
	}
}

func (s *Stager) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to clean up partial download",
			logging.Args(logging.String(logging.FieldPath, dir), logging.Error(err))...)
	}
}

func audioFileName(ref media.AudioFileRef) string {
	base := path.Base(strings.ReplaceAll(ref.Filename, "\\", "/"))
	name := textutil.SanitizePathSegment(base)
	if name == textutil.FallbackSegment {
		return fmt.Sprintf("track-%03d.m4b", ref.Index)
	}
	return name
}

func audioExtension(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "flac"):
		return ".flac"
	default:
		return ".m4b"
	}
}

func writeStream(path string, body io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
