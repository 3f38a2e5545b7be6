package domain

import "time"

// GalleryItem is a single prompt card sourced from the document store.
type GalleryItem struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	ImageURL   string    `json:"imageUrl"`
	LastEdited time.Time `json:"lastEdited"`
}

const (
	// UntitledItem marks pages without a usable title; they are never listed.
	UntitledItem = "Untitled"
	// Uncategorized is used when a page has no category selection.
	Uncategorized = "Uncategorized"
	// PlaceholderImageURL is shown for pages without a cover or image file.
	PlaceholderImageURL = "https://picsum.photos/400/600"
)
