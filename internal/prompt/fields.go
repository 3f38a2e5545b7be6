// Package prompt converts free-form image-generation prompts into a fixed set
// of semantic fields and back again.
package prompt

import (
	"fmt"
	"strings"
)

// DefaultAspectRatio is reported when a prompt carries no --ar/--aspect flag.
const DefaultAspectRatio = "4:5"

// Field keys in their stable display and export order.
const (
	KeyImageType   = "imageType"
	KeyObject      = "object"
	KeyBackground  = "background"
	KeyStyle       = "style"
	KeyLighting    = "lighting"
	KeyTexture     = "texture"
	KeyDetails     = "details"
	KeyAspectRatio = "aspectRatio"
)

// FieldKeys lists every field key in the order used for rendering and export.
var FieldKeys = []string{
	KeyImageType,
	KeyObject,
	KeyBackground,
	KeyStyle,
	KeyLighting,
	KeyTexture,
	KeyDetails,
	KeyAspectRatio,
}

// Labels maps field keys to human readable labels.
var Labels = map[string]string{
	KeyImageType:   "Image Type",
	KeyObject:      "Subject / Object",
	KeyBackground:  "Background",
	KeyStyle:       "Style",
	KeyLighting:    "Lighting",
	KeyTexture:     "Texture",
	KeyDetails:     "Details",
	KeyAspectRatio: "Aspect Ratio",
}

// Fields is the structured view of a prompt. The declaration order of the
// struct fields is the serialization order for JSON and YAML.
type Fields struct {
	ImageType   string `json:"imageType" yaml:"imageType"`
	Object      string `json:"object" yaml:"object"`
	Background  string `json:"background" yaml:"background"`
	Style       string `json:"style" yaml:"style"`
	Lighting    string `json:"lighting" yaml:"lighting"`
	Texture     string `json:"texture" yaml:"texture"`
	Details     string `json:"details" yaml:"details"`
	AspectRatio string `json:"aspectRatio" yaml:"aspectRatio"`
}

// Entry is a single labelled field value.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Empty returns a record with every field blank except the default aspect ratio.
func Empty() Fields {
	return Fields{AspectRatio: DefaultAspectRatio}
}

// Entries returns the fields as labelled entries in FieldKeys order.
func (f Fields) Entries() []Entry {
	out := make([]Entry, 0, len(FieldKeys))
	for _, key := range FieldKeys {
		value, _ := f.Get(key)
		out = append(out, Entry{Key: key, Label: Labels[key], Value: value})
	}
	return out
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	ptr := f.ref(key)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// Set replaces the value stored under key. Clearing the aspect ratio restores
// DefaultAspectRatio so the record always carries a ratio.
func (f *Fields) Set(key, value string) error {
	ptr := f.ref(key)
	if ptr == nil {
		return fmt.Errorf("unknown prompt field %q", key)
	}
	if key == KeyAspectRatio && strings.TrimSpace(value) == "" {
		value = DefaultAspectRatio
	}
	*ptr = value
	return nil
}

func (f *Fields) ref(key string) *string {
	switch key {
	case KeyImageType:
		return &f.ImageType
	case KeyObject:
		return &f.Object
	case KeyBackground:
		return &f.Background
	case KeyStyle:
		return &f.Style
	case KeyLighting:
		return &f.Lighting
	case KeyTexture:
		return &f.Texture
	case KeyDetails:
		return &f.Details
	case KeyAspectRatio:
		return &f.AspectRatio
	default:
		return nil
	}
}

// EditText mirrors a text edit in a two-view editor: the new text is kept
// verbatim and the structured view is derived from it.
func EditText(text string) (string, Fields) {
	return text, Parse(text)
}

// EditField mirrors a structured edit: one field changes and the text view is
// rebuilt from the updated record.
func EditField(f Fields, key, value string) (string, Fields, error) {
	if err := f.Set(key, value); err != nil {
		return "", f, err
	}
	return Construct(f), f, nil
}
