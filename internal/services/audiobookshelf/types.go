package audiobookshelf

import (
	"encoding/json"
	"strings"

	"absync/internal/media"
)

// flexString accepts both JSON strings and numbers. Some servers report
// published years and series sequences as bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type librariesResponse struct {
	Libraries []libraryPayload `json:"libraries"`
}

type libraryPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Scanning bool   `json:"scanning"`
}

type collectionsResponse struct {
	Results []collectionPayload `json:"results"`
}

type collectionPayload struct {
	ID        string        `json:"id"`
	LibraryID string        `json:"libraryId"`
	Name      string        `json:"name"`
	Books     []itemPayload `json:"books"`
}

type libraryItemsResponse struct {
	Results []itemPayload `json:"results"`
}

type itemPayload struct {
	ID        string       `json:"id"`
	LibraryID string       `json:"libraryId"`
	Path      string       `json:"path"`
	RelPath   string       `json:"relPath"`
	Media     mediaPayload `json:"media"`
	// Some endpoints report audio files on the item rather than the media.
	AudioFiles []audioFilePayload `json:"audioFiles"`
}

type mediaPayload struct {
	Metadata   metadataPayload    `json:"metadata"`
	CoverPath  string             `json:"coverPath"`
	AudioFiles []audioFilePayload `json:"audioFiles"`
}

type metadataPayload struct {
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	Authors       []authorPayload `json:"authors"`
	Narrators     []string        `json:"narrators"`
	Series        []seriesPayload `json:"series"`
	Description   string          `json:"description"`
	Publisher     string          `json:"publisher"`
	PublishedYear flexString      `json:"publishedYear"`
	Language      string          `json:"language"`
	Genres        []string        `json:"genres"`
	Explicit      bool            `json:"explicit"`
	ASIN          string          `json:"asin"`
	ISBN          string          `json:"isbn"`
}

type authorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type seriesPayload struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Sequence flexString `json:"sequence"`
}

type audioFilePayload struct {
	Index    int                `json:"index"`
	Ino      string             `json:"ino"`
	Metadata fileMetadataPayload `json:"metadata"`
}

type fileMetadataPayload struct {
	Filename string `json:"filename"`
}

func (p *itemPayload) toBook() media.Book {
	meta := p.Media.Metadata

	authors := make([]media.Author, 0, len(meta.Authors))
	for _, a := range meta.Authors {
		authors = append(authors, media.Author{ID: a.ID, Name: a.Name})
	}
	series := make([]media.Series, 0, len(meta.Series))
	for _, s := range meta.Series {
		series = append(series, media.Series{ID: s.ID, Name: s.Name, Sequence: string(s.Sequence)})
	}

	files := p.Media.AudioFiles
	if len(files) == 0 {
		files = p.AudioFiles
	}
	// Order preserved exactly as returned; the server already lists files in
	// playback order.
	refs := make([]media.AudioFileRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, media.AudioFileRef{
			Index:    f.Index,
			Ino:      f.Ino,
			Filename: f.Metadata.Filename,
		})
	}

	return media.Book{
		ID:             p.ID,
		LibraryID:      p.LibraryID,
		Title:          meta.Title,
		Subtitle:       meta.Subtitle,
		Authors:        authors,
		Narrators:      meta.Narrators,
		Series:         series,
		Description:    meta.Description,
		Publisher:      meta.Publisher,
		PublishedYear:  string(meta.PublishedYear),
		Language:       meta.Language,
		Genres:         meta.Genres,
		Explicit:       meta.Explicit,
		ASIN:           meta.ASIN,
		ISBN:           meta.ISBN,
		CoverAvailable: strings.TrimSpace(p.Media.CoverPath) != "",
		AudioFiles:     refs,
	}
}

func (p *collectionPayload) toCollection() media.Collection {
	ids := make([]string, 0, len(p.Books))
	for _, book := range p.Books {
		if book.ID != "" {
			ids = append(ids, book.ID)
		}
	}
	return media.Collection{
		ID:        p.ID,
		LibraryID: p.LibraryID,
		Name:      p.Name,
		BookIDs:   ids,
	}
}
