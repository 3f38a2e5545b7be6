package prompt

import (
	"strings"
	"unicode/utf8"
)

// An image type longer than this (or containing a space) reads as a clause
// and is joined to the subject with ": " instead of " of ".
const keywordTypeMaxLength = 20

// Construct rebuilds a prompt string from f. The result always ends with the
// aspect-ratio flag; an empty ratio is rendered as DefaultAspectRatio.
func Construct(f Fields) string {
	var core strings.Builder

	if f.ImageType != "" {
		core.WriteString(f.ImageType)
		if f.Object != "" {
			if isClauseType(f.ImageType) {
				core.WriteString(": ")
			} else {
				core.WriteString(" of ")
			}
		}
	}
	core.WriteString(f.Object)

	if f.Background != "" {
		if core.Len() > 0 {
			lower := asciiLower(f.Background)
			if strings.HasPrefix(lower, "in ") || strings.HasPrefix(lower, "at ") {
				core.WriteString(" ")
			} else {
				core.WriteString(" in ")
			}
		}
		core.WriteString(f.Background)
	}

	parts := make([]string, 0, 5)
	if core.Len() > 0 {
		parts = append(parts, core.String())
	}
	for _, attr := range []string{f.Style, f.Lighting, f.Texture, f.Details} {
		if attr != "" {
			parts = append(parts, attr)
		}
	}

	ratio := f.AspectRatio
	if ratio == "" {
		ratio = DefaultAspectRatio
	}
	return strings.Join(parts, ", ") + " --ar " + ratio
}

func isClauseType(imageType string) bool {
	return utf8.RuneCountInString(imageType) > keywordTypeMaxLength || strings.Contains(imageType, " ")
}
