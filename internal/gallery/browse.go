package gallery

import "promptlens/internal/domain"

const (
	AllCategories   = "All"
	InitialPageSize = 28
	PageStep        = 14
)

// Categories returns "All" followed by each category in first-seen order.
func Categories(items []domain.GalleryItem) []string {
	out := []string{AllCategories}
	seen := map[string]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	return out
}

func Filter(items []domain.GalleryItem, category string) []domain.GalleryItem {
	if category == "" || category == AllCategories {
		return items
	}
	out := make([]domain.GalleryItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Page slices items starting at offset. A non-positive limit means the
// initial page size for the first page and PageStep afterwards. The second
// return is the offset of the next page, or -1 when nothing remains.
func Page(items []domain.GalleryItem, offset, limit int) ([]domain.GalleryItem, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = PageStep
		if offset == 0 {
			limit = InitialPageSize
		}
	}
	if offset >= len(items) {
		return []domain.GalleryItem{}, -1
	}
	if limit >= len(items)-offset {
		return items[offset:], -1
	}
	end := offset + limit
	return items[offset:end], end
}

func FindBySlug(items []domain.GalleryItem, key string) (domain.GalleryItem, bool) {
	if key == "" {
		return domain.GalleryItem{}, false
	}
	for _, item := range items {
		if item.Slug == key || item.ID == key {
			return item, true
		}
	}
	return domain.GalleryItem{}, false
}
