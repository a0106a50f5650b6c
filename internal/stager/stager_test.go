package stager

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"absync/internal/logging"
	"absync/internal/media"
)

type fakeFetcher struct {
	files       map[string]string
	fileErr     map[string]error
	archive     []byte
	archiveType string
	archiveErr  error
	cover       string
	coverExt    string
	coverErr    error
}

func (f *fakeFetcher) DownloadFile(_ context.Context, _, ino string) (io.ReadCloser, error) {
	if err := f.fileErr[ino]; err != nil {
		return nil, err
	}
	content, ok := f.files[ino]
	if !ok {
		return nil, errors.New("unknown inode " + ino)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeFetcher) DownloadArchive(_ context.Context, _ string) (io.ReadCloser, string, error) {
	if f.archiveErr != nil {
		return nil, "", f.archiveErr
	}
	return io.NopCloser(bytes.NewReader(f.archive)), f.archiveType, nil
}

func (f *fakeFetcher) DownloadCover(_ context.Context, _ string) (io.ReadCloser, string, error) {
	if f.coverErr != nil {
		return nil, "", f.coverErr
	}
	return io.NopCloser(strings.NewReader(f.cover)), f.coverExt, nil
}

func testBook(files ...media.AudioFileRef) *media.Book {
	return &media.Book{
		ID:             "book-1",
		Title:          "Dune",
		Authors:        []media.Author{{Name: "Frank Herbert"}},
		AudioFiles:     files,
		CoverAvailable: true,
	}
}

func TestStageWritesFilesAndCover(t *testing.T) {
	fetcher := &fakeFetcher{
		files:    map[string]string{"ino-1": "part one", "ino-2": "part two"},
		cover:    "jpeg bytes",
		coverExt: ".jpg",
	}
	book := testBook(
		media.AudioFileRef{Index: 1, Ino: "ino-1", Filename: "Dune - 01.m4b"},
		media.AudioFileRef{Index: 2, Ino: "ino-2", Filename: "Dune - 02.m4b"},
	)
	dir := filepath.Join(t.TempDir(), "Frank Herbert", "Dune")

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	for name, want := range map[string]string{
		"Dune - 01.m4b": "part one",
		"Dune - 02.m4b": "part two",
		"cover.jpg":     "jpeg bytes",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
}

func TestStageSanitizesFilenames(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]string{"ino-1": "audio"}}
	book := testBook(media.AudioFileRef{Index: 1, Ino: "ino-1", Filename: "../evil: name?.m4b"})
	book.CoverAvailable = false
	dir := t.TempDir()

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "evil- name.m4b")); err != nil {
		t.Fatalf("expected sanitized filename: %v", err)
	}
}

func TestStageFallsBackToIndexName(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]string{"ino-1": "audio"}}
	book := testBook(media.AudioFileRef{Index: 3, Ino: "ino-1", Filename: ""})
	book.CoverAvailable = false
	dir := t.TempDir()

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "track-003.m4b")); err != nil {
		t.Fatalf("expected index-derived filename: %v", err)
	}
}

func TestStageRemovesDirectoryOnAudioFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		files:   map[string]string{"ino-1": "part one"},
		fileErr: map[string]error{"ino-2": errors.New("connection reset")},
	}
	book := testBook(
		media.AudioFileRef{Index: 1, Ino: "ino-1", Filename: "01.m4b"},
		media.AudioFileRef{Index: 2, Ino: "ino-2", Filename: "02.m4b"},
	)
	dir := filepath.Join(t.TempDir(), "Dune")

	err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir)
	if err == nil {
		t.Fatal("expected error from failed download")
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Fatalf("expected %s to be removed after failure, stat err: %v", dir, statErr)
	}
}

func TestStageExtractsArchive(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range map[string]string{"01.m4b": "part one", "02.m4b": "part two"} {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	fetcher := &fakeFetcher{archive: buf.Bytes(), archiveType: "application/zip"}
	book := testBook()
	book.CoverAvailable = false
	dir := t.TempDir()

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	for name, want := range map[string]string{"01.m4b": "part one", "02.m4b": "part two"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s extracted: %v", name, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".download.zip")); !os.IsNotExist(err) {
		t.Errorf("expected archive to be removed after extraction")
	}
}

func TestStageArchiveSingleStream(t *testing.T) {
	fetcher := &fakeFetcher{archive: []byte("mp3 bytes"), archiveType: "audio/mpeg"}
	book := testBook()
	book.CoverAvailable = false
	dir := t.TempDir()

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Dune.mp3"))
	if err != nil {
		t.Fatalf("expected single audio file: %v", err)
	}
	if string(data) != "mp3 bytes" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestStageCoverFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{
		files:    map[string]string{"ino-1": "audio"},
		coverErr: errors.New("cover endpoint down"),
	}
	book := testBook(media.AudioFileRef{Index: 1, Ino: "ino-1", Filename: "01.m4b"})
	dir := t.TempDir()

	if err := New(fetcher, logging.NewNop()).Stage(context.Background(), book, dir); err != nil {
		t.Fatalf("cover failure should not fail staging: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "01.m4b")); err != nil {
		t.Fatalf("audio file missing: %v", err)
	}
}

func TestResolveEntryPathRejectsTraversal(t *testing.T) {
	if _, err := resolveEntryPath("/tmp/books", "../outside.m4b"); err == nil {
		t.Fatal("expected traversal entry to be rejected")
	}
	target, err := resolveEntryPath("/tmp/books", "disc1/01.m4b")
	if err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}
	if target != filepath.Join("/tmp/books", "disc1", "01.m4b") {
		t.Errorf("unexpected target %q", target)
	}
}
