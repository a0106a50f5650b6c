package testsupport

import (
	"path/filepath"
	"testing"

	"absync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Source.URL = "http://source.test"
	cfg.Source.APIKey = "source-key"
	cfg.Destination.URL = "http://dest.test"
	cfg.Destination.APIKey = "dest-key"
	cfg.Destination.LibraryID = "lib-main"
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSourceURL points the source server at the provided base URL, usually
// an httptest server.
func WithSourceURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Source.URL = url
	}
}

// WithDestinationURL points the destination server at the provided base URL.
func WithDestinationURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Destination.URL = url
	}
}

// WithCollections overrides the source collection names.
func WithCollections(download, synced string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Source.Collection = download
		cfg.Source.SyncedCollection = synced
	}
}
