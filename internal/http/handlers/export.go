package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"promptlens/internal/domain"
	"promptlens/internal/gallery"
	"promptlens/internal/prompt"
	"promptlens/pkg/zip"
)

type exportedPrompt struct {
	ID         string        `json:"id"`
	Slug       string        `json:"slug"`
	Title      string        `json:"title"`
	Category   string        `json:"category"`
	Tags       []string      `json:"tags"`
	ImageURL   string        `json:"imageUrl"`
	LastEdited time.Time     `json:"lastEdited"`
	Prompt     string        `json:"prompt"`
	Fields     prompt.Fields `json:"fields"`
}

// ExportPrompts streams the (optionally filtered) gallery as a zip with one
// <slug>.json document per item.
func (a *App) ExportPrompts(w http.ResponseWriter, r *http.Request) {
	items, err := a.Gallery.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items = gallery.Filter(items, r.URL.Query().Get("category"))

	entries, err := exportEntries(items)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := zip.Archive(entries)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="prompts.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func exportEntries(items []domain.GalleryItem) ([]zip.Entry, error) {
	used := make(map[string]bool, len(items))
	entries := make([]zip.Entry, 0, len(items))
	for _, item := range items {
		doc, err := json.MarshalIndent(exportedPrompt{
			ID:         item.ID,
			Slug:       item.Slug,
			Title:      item.Title,
			Category:   item.Category,
			Tags:       item.Tags,
			ImageURL:   item.ImageURL,
			LastEdited: item.LastEdited,
			Prompt:     item.Prompt,
			Fields:     prompt.Parse(item.Prompt),
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", item.ID, err)
		}

		base := item.Slug
		if base == "" {
			base = item.ID
		}
		name := base + ".json"
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d.json", base, n)
		}
		used[name] = true
		entries = append(entries, zip.Entry{Name: name, Data: doc, Modified: item.LastEdited})
	}
	return entries, nil
}
