package audiobookshelf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"absync/internal/logging"
	"absync/internal/media"
	"absync/internal/services"
)

// Destination is the client for the main server receiving staged books.
type Destination struct {
	*Client
	logger *slog.Logger
}

// NewDestination constructs a destination-server client.
func NewDestination(baseURL, apiKey string, logger *slog.Logger, opts Options) *Destination {
	return &Destination{
		Client: newClient("destination", baseURL, apiKey, opts),
		logger: logging.NewComponentLogger(logger, "destination"),
	}
}

// TriggerScan asks the destination to rescan the library folder.
func (d *Destination) TriggerScan(ctx context.Context, libraryID string) error {
	return d.postJSON(ctx, fmt.Sprintf("/api/libraries/%s/scan", libraryID), nil, nil)
}

// LibraryScanning reports whether the library is currently scanning.
func (d *Destination) LibraryScanning(ctx context.Context, libraryID string) (bool, error) {
	var payload libraryPayload
	if err := d.getJSON(ctx, "/api/libraries/"+libraryID, nil, &payload); err != nil {
		return false, err
	}
	return payload.Scanning, nil
}

// ListLibraryItems returns every item in the library with its relative path.
func (d *Destination) ListLibraryItems(ctx context.Context, libraryID string) ([]media.DestinationItem, error) {
	var payload libraryItemsResponse
	if err := d.getJSON(ctx, fmt.Sprintf("/api/libraries/%s/items", libraryID), nil, &payload); err != nil {
		return nil, err
	}
	items := make([]media.DestinationItem, 0, len(payload.Results))
	for _, item := range payload.Results {
		items = append(items, media.DestinationItem{ID: item.ID, RelPath: item.RelPath})
	}
	return items, nil
}

// FindItemByPath locates the library item whose relative path matches the
// staged folder path. Backslash separators are normalized before comparison
// so a Windows-hosted server still matches. Returns ErrNotFound on a miss.
func (d *Destination) FindItemByPath(ctx context.Context, libraryID, relPath string) (*media.DestinationItem, error) {
	items, err := d.ListLibraryItems(ctx, libraryID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		candidate := strings.ReplaceAll(items[i].RelPath, "\\", "/")
		if candidate == relPath || strings.HasSuffix(candidate, "/"+relPath) {
			return &items[i], nil
		}
	}
	d.logger.Debug("no library item at path",
		logging.Args(logging.String(logging.FieldPath, relPath), logging.Int("items", len(items)))...)
	return nil, services.Wrap(services.ErrNotFound, "destination", "find item", fmt.Sprintf("no item with path %q", relPath), nil)
}

// UpdateMetadata replaces the item's book metadata with the supplied payload.
func (d *Destination) UpdateMetadata(ctx context.Context, itemID string, payload media.MetadataUpdate) error {
	return d.patchJSON(ctx, fmt.Sprintf("/api/items/%s/media", itemID), payload)
}
