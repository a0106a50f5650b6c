package media

// MetadataUpdate is the request body for the destination metadata endpoint
// (PATCH /api/items/{id}/media).
type MetadataUpdate struct {
	Metadata MetadataFields `json:"metadata"`
}

// MetadataFields mirrors the writable metadata surface of a library item.
// Empty optional fields are omitted so the destination keeps whatever its
// scanner derived for them.
type MetadataFields struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []Author `json:"authors,omitempty"`
	Narrators     []string `json:"narrators,omitempty"`
	Series        []Series `json:"series,omitempty"`
	Description   string   `json:"description,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedYear string   `json:"publishedYear,omitempty"`
	Language      string   `json:"language,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Explicit      bool     `json:"explicit"`
	ASIN          string   `json:"asin,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
}

// UpdatePayload builds the metadata payload that copies the source snapshot
// onto the matched destination item.
func (b *Book) UpdatePayload() MetadataUpdate {
	return MetadataUpdate{
		Metadata: MetadataFields{
			Title:         b.Title,
			Subtitle:      b.Subtitle,
			Authors:       b.Authors,
			Narrators:     b.Narrators,
			Series:        b.Series,
			Description:   b.Description,
			Publisher:     b.Publisher,
			PublishedYear: b.PublishedYear,
			Language:      b.Language,
			Genres:        b.Genres,
			Explicit:      b.Explicit,
			ASIN:          b.ASIN,
			ISBN:          b.ISBN,
		},
	}
}
