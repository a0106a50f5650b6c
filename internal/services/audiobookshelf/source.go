package audiobookshelf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"absync/internal/logging"
	"absync/internal/media"
	"absync/internal/services"
)

// Source is the client for the triage server books are promoted from.
type Source struct {
	*Client
	logger *slog.Logger
}

// NewSource constructs a source-server client.
func NewSource(baseURL, apiKey string, logger *slog.Logger, opts Options) *Source {
	return &Source{
		Client: newClient("source", baseURL, apiKey, opts),
		logger: logging.NewComponentLogger(logger, "source"),
	}
}

// FindCollectionByName searches every library on the source server for a
// collection with the given name (case-insensitive). Returns ErrNotFound when
// no library has it.
func (s *Source) FindCollectionByName(ctx context.Context, name string) (*media.Collection, error) {
	var libraries librariesResponse
	if err := s.getJSON(ctx, "/api/libraries", nil, &libraries); err != nil {
		return nil, err
	}

	for _, library := range libraries.Libraries {
		var collections collectionsResponse
		path := fmt.Sprintf("/api/libraries/%s/collections", library.ID)
		if err := s.getJSON(ctx, path, nil, &collections); err != nil {
			return nil, err
		}
		for _, payload := range collections.Results {
			if strings.EqualFold(payload.Name, name) {
				return s.getCollection(ctx, payload.ID, library.ID)
			}
		}
	}

	return nil, services.Wrap(services.ErrNotFound, "source", "find collection", fmt.Sprintf("collection %q not found in any library", name), nil)
}

func (s *Source) getCollection(ctx context.Context, collectionID, libraryID string) (*media.Collection, error) {
	var payload collectionPayload
	if err := s.getJSON(ctx, "/api/collections/"+collectionID, nil, &payload); err != nil {
		return nil, err
	}
	collection := payload.toCollection()
	if collection.LibraryID == "" {
		collection.LibraryID = libraryID
	}
	return &collection, nil
}

// ListCollectionBooks returns full book snapshots for every item in the
// collection. The collection endpoint collapses book metadata, so each item
// is refetched individually; when an individual fetch fails the collapsed
// collection data is used as a fallback.
func (s *Source) ListCollectionBooks(ctx context.Context, collectionID string) ([]media.Book, error) {
	var payload collectionPayload
	if err := s.getJSON(ctx, "/api/collections/"+collectionID, nil, &payload); err != nil {
		return nil, err
	}

	books := make([]media.Book, 0, len(payload.Books))
	for i := range payload.Books {
		collapsed := &payload.Books[i]
		if collapsed.ID == "" {
			books = append(books, collapsed.toBook())
			continue
		}
		full, err := s.GetBook(ctx, collapsed.ID)
		if err != nil {
			s.logger.Debug("item refetch failed, using collection data",
				logging.Args(logging.String(logging.FieldBookID, collapsed.ID), logging.Error(err))...)
			books = append(books, collapsed.toBook())
			continue
		}
		books = append(books, *full)
	}
	return books, nil
}

// GetBook fetches one library item with its complete metadata.
func (s *Source) GetBook(ctx context.Context, itemID string) (*media.Book, error) {
	var payload itemPayload
	if err := s.getJSON(ctx, "/api/items/"+itemID, nil, &payload); err != nil {
		return nil, err
	}
	book := payload.toBook()
	return &book, nil
}

// DownloadFile streams one audio file of an item, identified by its
// server-side inode token. The caller owns the returned reader.
func (s *Source) DownloadFile(ctx context.Context, itemID, ino string) (io.ReadCloser, error) {
	body, _, err := s.stream(ctx, fmt.Sprintf("/api/items/%s/file/%s/download", itemID, ino), true)
	return body, err
}

// DownloadArchive streams the whole-item download, which the server delivers
// as a zip archive for multi-file books. Returns the body and its content
// type so callers can detect archives.
func (s *Source) DownloadArchive(ctx context.Context, itemID string) (io.ReadCloser, string, error) {
	return s.stream(ctx, fmt.Sprintf("/api/items/%s/download", itemID), true)
}

// DownloadCover streams the item's cover image and reports the file extension
// derived from the response content type. A missing cover surfaces as
// ErrNotFound, which callers treat as "no cover", not a failure.
func (s *Source) DownloadCover(ctx context.Context, itemID string) (io.ReadCloser, string, error) {
	body, contentType, err := s.stream(ctx, fmt.Sprintf("/api/items/%s/cover", itemID), false)
	if err != nil {
		return nil, "", err
	}
	return body, coverExtension(contentType), nil
}

func coverExtension(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// EnsureCollection finds the named collection, creating it when missing. The
// creation endpoint requires at least one book, so seedBookIDs is passed when
// a new collection has to be made. The bool result reports whether the
// collection was created (and therefore already contains the seed books).
func (s *Source) EnsureCollection(ctx context.Context, libraryID, name string, seedBookIDs []string) (*media.Collection, bool, error) {
	collection, err := s.FindCollectionByName(ctx, name)
	if err == nil {
		return collection, false, nil
	}
	if !services.IsNotFound(err) {
		return nil, false, err
	}

	if len(seedBookIDs) == 0 {
		return nil, false, services.Wrap(services.ErrValidation, "source", "create collection", fmt.Sprintf("collection %q needs at least one book", name), nil)
	}

	s.logger.Info("creating collection", logging.Args(logging.String("collection", name))...)
	body := map[string]any{
		"libraryId":   libraryID,
		"name":        name,
		"description": "",
		"books":       seedBookIDs,
	}
	var created collectionPayload
	if err := s.postJSON(ctx, "/api/collections", body, &created); err != nil {
		return nil, false, err
	}
	result := created.toCollection()
	if result.LibraryID == "" {
		result.LibraryID = libraryID
	}
	return &result, true, nil
}

// AddToCollection adds a book to a collection.
func (s *Source) AddToCollection(ctx context.Context, collectionID, bookID string) error {
	body := map[string]string{"id": bookID}
	return s.postJSON(ctx, fmt.Sprintf("/api/collections/%s/book", collectionID), body, nil)
}

// RemoveFromCollection removes a book from a collection.
func (s *Source) RemoveFromCollection(ctx context.Context, collectionID, bookID string) error {
	return s.deleteJSON(ctx, fmt.Sprintf("/api/collections/%s/book/%s", collectionID, bookID))
}
