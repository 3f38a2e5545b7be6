package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"promptlens/internal/domain"
	"promptlens/internal/gallery"
	"promptlens/internal/prompt"
)

type promptListResponse struct {
	Items      []domain.GalleryItem `json:"items"`
	Categories []string             `json:"categories"`
	Total      int                  `json:"total"`
	NextOffset *int                 `json:"next_offset"`
}

type promptDetailResponse struct {
	Item    domain.GalleryItem `json:"item"`
	Fields  prompt.Fields      `json:"fields"`
	Entries []prompt.Entry     `json:"entries"`
}

type parseRequest struct {
	Prompt string `json:"prompt"`
}

type parseResponse struct {
	Fields  prompt.Fields  `json:"fields"`
	Entries []prompt.Entry `json:"entries"`
}

type composeRequest struct {
	Fields prompt.Fields     `json:"fields"`
	Set    map[string]string `json:"set"`
}

type composeResponse struct {
	Prompt string        `json:"prompt"`
	Fields prompt.Fields `json:"fields"`
}

// ListPrompts serves one page of the gallery, optionally filtered by category.
func (a *App) ListPrompts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, ok := queryInt(q.Get("offset"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid offset")
		return
	}
	limit, ok := queryInt(q.Get("limit"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid limit")
		return
	}

	items, err := a.Gallery.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	filtered := gallery.Filter(items, q.Get("category"))
	page, next := gallery.Page(filtered, offset, limit)

	resp := promptListResponse{
		Items:      page,
		Categories: gallery.Categories(items),
		Total:      len(filtered),
	}
	if next >= 0 {
		resp.NextOffset = &next
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) PromptCategories(w http.ResponseWriter, r *http.Request) {
	items, err := a.Gallery.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"categories": gallery.Categories(items)})
}

// GetPrompt returns one gallery item by slug or id with its prompt decomposed.
func (a *App) GetPrompt(w http.ResponseWriter, r *http.Request) {
	item, err := a.Gallery.Find(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	fields := prompt.Parse(item.Prompt)
	a.json(w, http.StatusOK, promptDetailResponse{Item: item, Fields: fields, Entries: fields.Entries()})
}

func (a *App) ParsePrompt(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	fields := prompt.Parse(req.Prompt)
	a.json(w, http.StatusOK, parseResponse{Fields: fields, Entries: fields.Entries()})
}

// ComposePrompt applies optional field edits and rebuilds the prompt text.
func (a *App) ComposePrompt(w http.ResponseWriter, r *http.Request) {
	req := composeRequest{Fields: prompt.Empty()}
	if !a.decodeJSON(w, r, &req) {
		return
	}
	fields := req.Fields
	if strings.TrimSpace(fields.AspectRatio) == "" {
		fields.AspectRatio = prompt.DefaultAspectRatio
	}
	for key := range req.Set {
		if _, ok := fields.Get(key); !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown field "+strconv.Quote(key))
			return
		}
	}
	for _, key := range prompt.FieldKeys {
		value, ok := req.Set[key]
		if !ok {
			continue
		}
		if err := fields.Set(key, value); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	a.json(w, http.StatusOK, composeResponse{Prompt: prompt.Construct(fields), Fields: fields})
}

// queryInt parses an optional non-negative integer query value.
func queryInt(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
