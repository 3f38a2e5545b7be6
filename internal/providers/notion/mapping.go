package notion

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"promptlens/internal/domain"
)

type page struct {
	ID             string              `json:"id"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Cover          *fileObject         `json:"cover"`
	Properties     map[string]property `json:"properties"`
}

type property struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Select      *selectOption  `json:"select"`
	MultiSelect []selectOption `json:"multi_select"`
	Files       []fileObject   `json:"files"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectOption struct {
	Name string `json:"name"`
}

type fileObject struct {
	Type     string    `json:"type"`
	External *fileLink `json:"external"`
	File     *fileLink `json:"file"`
}

type fileLink struct {
	URL string `json:"url"`
}

func (f *fileObject) url() string {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "external":
		if f.External != nil {
			return f.External.URL
		}
	case "file":
		if f.File != nil {
			return f.File.URL
		}
	}
	return ""
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify produces a URL-friendly identifier from a page title.
func Slugify(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

func mapPage(p page) domain.GalleryItem {
	titleProp := findProperty(p.Properties, "Title", "Name")
	promptProp := findProperty(p.Properties, "Prompt")
	categoryProp := findProperty(p.Properties, "Category")
	tagsProp := findProperty(p.Properties, "Tags")
	imageProp := findProperty(p.Properties, "Image", "Cover", "Img")

	title := domain.UntitledItem
	if titleProp != nil && len(titleProp.Title) > 0 && titleProp.Title[0].PlainText != "" {
		title = titleProp.Title[0].PlainText
	}

	var promptText strings.Builder
	if promptProp != nil {
		for _, rt := range promptProp.RichText {
			promptText.WriteString(rt.PlainText)
		}
	}

	category := domain.Uncategorized
	if categoryProp != nil {
		switch {
		case categoryProp.Select != nil:
			category = categoryProp.Select.Name
		case len(categoryProp.MultiSelect) > 0:
			category = categoryProp.MultiSelect[0].Name
		}
	}

	tags := []string{}
	if tagsProp != nil {
		for _, opt := range tagsProp.MultiSelect {
			tags = append(tags, opt.Name)
		}
	}

	imageURL := domain.PlaceholderImageURL
	var found string
	if p.Cover != nil {
		found = p.Cover.url()
	} else if imageProp != nil && len(imageProp.Files) > 0 {
		found = imageProp.Files[0].url()
	}
	if found != "" {
		imageURL = found
	}

	slug := Slugify(title)
	if slug == "" {
		slug = p.ID
	}

	return domain.GalleryItem{
		ID:         p.ID,
		Slug:       slug,
		Title:      title,
		Prompt:     promptText.String(),
		Category:   category,
		Tags:       tags,
		ImageURL:   imageURL,
		LastEdited: p.LastEditedTime,
	}
}

// findProperty looks a property up by case-insensitive name first, then by
// exact alias. Keys are scanned in sorted order so lookups are stable.
func findProperty(props map[string]property, name string, aliases ...string) *property {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.EqualFold(k, name) {
			p := props[k]
			return &p
		}
	}
	for _, k := range keys {
		for _, alias := range aliases {
			if k == alias {
				p := props[k]
				return &p
			}
		}
	}
	return nil
}
