package media

import (
	"path"

	"absync/internal/textutil"
)

// Author identifies a contributing author on the source server.
type Author struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Series identifies a series membership with its reading-order sequence.
type Series struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Sequence string `json:"sequence,omitempty"`
}

// AudioFileRef identifies one audio file of a book in its original order.
// Ino is the server-side inode token used by the per-file download endpoint.
type AudioFileRef struct {
	Index    int
	Ino      string
	Filename string
}

// Book is an immutable snapshot of a source library item, fetched once per
// run. Identity is the source item ID.
type Book struct {
	ID        string
	LibraryID string

	Title         string
	Subtitle      string
	Authors       []Author
	Narrators     []string
	Series        []Series
	Description   string
	Publisher     string
	PublishedYear string
	Language      string
	Genres        []string
	Explicit      bool
	ASIN          string
	ISBN          string

	CoverAvailable bool
	AudioFiles     []AudioFileRef
}

// PrimaryAuthor returns the first author name, or empty when none is set.
func (b *Book) PrimaryAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0].Name
}

// FolderPath derives the sanitized "Author/Title" relative path for the book.
// It is computed from the same sanitizer at staging time and at match time,
// so both sides of the comparison always agree.
func (b *Book) FolderPath() string {
	author := textutil.SanitizePathSegment(b.PrimaryAuthor())
	title := textutil.SanitizePathSegment(b.Title)
	return path.Join(author, title)
}

// Collection is a named server-side grouping of books used as a workflow
// marker ("Download" = pending, "Synced" = processed).
type Collection struct {
	ID        string
	LibraryID string
	Name      string
	BookIDs   []string
}

// DestinationItem is a server-assigned record discovered after a scan, keyed
// by folder path. It exists only to resolve a Book to a destination item ID.
type DestinationItem struct {
	ID      string
	RelPath string
}
