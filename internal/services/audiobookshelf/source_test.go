package audiobookshelf

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"absync/internal/services"
)

const sampleItem = `{
	"id": "li_1",
	"libraryId": "lib_src",
	"relPath": "Frank Herbert/Dune",
	"media": {
		"coverPath": "/metadata/items/li_1/cover.jpg",
		"metadata": {
			"title": "Dune",
			"authors": [{"id": "aut_1", "name": "Frank Herbert"}],
			"narrators": ["Scott Brick"],
			"series": [{"id": "ser_1", "name": "Dune", "sequence": 1}],
			"publishedYear": 1965,
			"genres": ["Science Fiction"],
			"explicit": false
		},
		"audioFiles": [
			{"index": 1, "ino": "ino-1", "metadata": {"filename": "Dune - 01.mp3"}},
			{"index": 2, "ino": "ino-2", "metadata": {"filename": "Dune - 02.mp3"}}
		]
	}
}`

func newSourceFixture(t *testing.T, handler http.Handler) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSource(server.URL, "src-key", nil, Options{})
}

func TestGetBookParsesSnapshot(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items/li_1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(sampleItem))
	}))

	book, err := source.GetBook(context.Background(), "li_1")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if book.Title != "Dune" || book.PrimaryAuthor() != "Frank Herbert" {
		t.Errorf("unexpected book: %+v", book)
	}
	if book.PublishedYear != "1965" {
		t.Errorf("numeric publishedYear not normalized: %q", book.PublishedYear)
	}
	if len(book.Series) != 1 || book.Series[0].Sequence != "1" {
		t.Errorf("series sequence not normalized: %+v", book.Series)
	}
	if !book.CoverAvailable {
		t.Error("cover availability not detected")
	}
	if len(book.AudioFiles) != 2 || book.AudioFiles[0].Ino != "ino-1" || book.AudioFiles[1].Filename != "Dune - 02.mp3" {
		t.Errorf("audio files not preserved in order: %+v", book.AudioFiles)
	}
}

func TestFindCollectionByNameSearchesLibraries(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/libraries":
			w.Write([]byte(`{"libraries":[{"id":"lib_a"},{"id":"lib_b"}]}`))
		case "/api/libraries/lib_a/collections":
			w.Write([]byte(`{"results":[]}`))
		case "/api/libraries/lib_b/collections":
			w.Write([]byte(`{"results":[{"id":"col_1","libraryId":"lib_b","name":"Download"}]}`))
		case "/api/collections/col_1":
			w.Write([]byte(`{"id":"col_1","libraryId":"lib_b","name":"Download","books":[{"id":"li_1"},{"id":"li_2"}]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	collection, err := source.FindCollectionByName(context.Background(), "download")
	if err != nil {
		t.Fatalf("FindCollectionByName failed: %v", err)
	}
	if collection.ID != "col_1" || collection.LibraryID != "lib_b" {
		t.Errorf("unexpected collection: %+v", collection)
	}
	if len(collection.BookIDs) != 2 {
		t.Errorf("book ids not collected: %v", collection.BookIDs)
	}
}

func TestFindCollectionByNameMissing(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/libraries":
			w.Write([]byte(`{"libraries":[{"id":"lib_a"}]}`))
		case "/api/libraries/lib_a/collections":
			w.Write([]byte(`{"results":[{"id":"col_9","name":"Other"}]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	_, err := source.FindCollectionByName(context.Background(), "Download")
	if !services.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListCollectionBooksRefetchesItems(t *testing.T) {
	itemFetches := 0
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/col_1":
			w.Write([]byte(`{"id":"col_1","name":"Download","books":[{"id":"li_1","media":{"metadata":{"title":"Collapsed"}}}]}`))
		case "/api/items/li_1":
			itemFetches++
			w.Write([]byte(sampleItem))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	books, err := source.ListCollectionBooks(context.Background(), "col_1")
	if err != nil {
		t.Fatalf("ListCollectionBooks failed: %v", err)
	}
	if itemFetches != 1 {
		t.Fatalf("expected 1 item refetch, got %d", itemFetches)
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("full metadata not used: %+v", books)
	}
}

func TestDownloadCoverMissingIsNotFound(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, _, err := source.DownloadCover(context.Background(), "li_1")
	if !services.IsNotFound(err) {
		t.Fatalf("expected not-found for missing cover, got %v", err)
	}
}

func TestDownloadCoverSniffsExtension(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("img"))
	}))

	body, ext, err := source.DownloadCover(context.Background(), "li_1")
	if err != nil {
		t.Fatalf("DownloadCover failed: %v", err)
	}
	defer body.Close()
	if ext != ".webp" {
		t.Errorf("ext = %q, want .webp", ext)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "img" {
		t.Errorf("body = %q", data)
	}
}

func TestEnsureCollectionCreatesWithSeeds(t *testing.T) {
	var created map[string]any
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/libraries":
			w.Write([]byte(`{"libraries":[{"id":"lib_src"}]}`))
		case r.URL.Path == "/api/libraries/lib_src/collections":
			w.Write([]byte(`{"results":[]}`))
		case r.URL.Path == "/api/collections" && r.Method == http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
				t.Fatalf("decode create body: %v", err)
			}
			w.Write([]byte(`{"id":"col_new","libraryId":"lib_src","name":"Synced"}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	collection, wasCreated, err := source.EnsureCollection(context.Background(), "lib_src", "Synced", []string{"li_1"})
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if !wasCreated {
		t.Error("expected creation")
	}
	if collection.ID != "col_new" {
		t.Errorf("unexpected collection: %+v", collection)
	}
	books, ok := created["books"].([]any)
	if !ok || len(books) != 1 {
		t.Errorf("seed books not sent: %v", created)
	}
}

func TestEnsureCollectionRequiresSeedsWhenCreating(t *testing.T) {
	source := newSourceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/libraries":
			w.Write([]byte(`{"libraries":[]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	_, _, err := source.EnsureCollection(context.Background(), "lib_src", "Synced", nil)
	if err == nil {
		t.Fatal("expected error when creating without seed books")
	}
}
