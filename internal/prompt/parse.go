package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// A colon further into the text than this is read as punctuation, not as
	// the separator between an image type and the prompt body.
	typeColonWindow = 60
	minTypeLength   = 2
)

var (
	aspectFlag    = regexp.MustCompile(`(?i)--(?:ar|aspect)\s+(\d+:\d+)`)
	placeSplitter = regexp.MustCompile(`\s+in\s+|\s+at\s+`)
)

// mediumKeywords is ordered longest first so "oil painting" wins over "painting".
var mediumKeywords = []string{
	"cinematic shot",
	"oil painting",
	"illustration",
	"digital art",
	"concept art",
	"photograph",
	"macro shot",
	"3d render",
	"editorial",
	"portrait",
	"close-up",
	"painting",
	"sketch",
	"render",
	"photo",
}

var (
	styleKeywords    = []string{"style", "aesthetic", "vibe", "punk", "wave", "core", "minimalist", "abstract", "surreal", "vintage", "modern"}
	lightingKeywords = []string{"light", "lighting", "shadow", "glow", "sun", "dark", "bright", "neon", "volumetric", "cinematic"}
	textureKeywords  = []string{"texture", "skin", "fabric", "wood", "metal", "smooth", "rough", "detailed", "grain", "sharp", "focus"}
)

// Parse decomposes a raw prompt into Fields. It never fails: unrecognised
// input ends up in Object or Details and the aspect ratio defaults to
// DefaultAspectRatio.
func Parse(raw string) Fields {
	text := strings.TrimSpace(raw)
	out := Empty()

	if loc := aspectFlag.FindStringSubmatchIndex(text); loc != nil {
		out.AspectRatio = text[loc[2]:loc[3]]
		text = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	}

	if idx := strings.IndexByte(text, ':'); idx >= 0 && utf8.RuneCountInString(text[:idx]) < typeColonWindow {
		candidate := strings.TrimSpace(text[:idx])
		if utf8.RuneCountInString(candidate) > minTypeLength {
			out.ImageType = candidate
			text = strings.TrimSpace(text[idx+1:])
		}
	}

	segments := splitSegments(text)
	if len(segments) == 0 {
		return out
	}

	subject := segments[0]
	if out.ImageType == "" {
		if kw := matchMedium(subject); kw != "" {
			out.ImageType = subject[:len(kw)]
			subject = trimConnector(strings.TrimSpace(subject[len(kw):]))
		}
	}
	out.Object, out.Background = splitPlace(subject)

	var details []string
	for _, seg := range segments[1:] {
		lower := asciiLower(seg)
		switch {
		case containsAny(lower, styleKeywords):
			out.Style = appendSegment(out.Style, seg)
		case containsAny(lower, lightingKeywords):
			out.Lighting = appendSegment(out.Lighting, seg)
		case containsAny(lower, textureKeywords):
			out.Texture = appendSegment(out.Texture, seg)
		default:
			details = append(details, seg)
		}
	}
	out.Details = strings.Join(details, ", ")

	return out
}

func splitSegments(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func matchMedium(segment string) string {
	lower := asciiLower(segment)
	for _, kw := range mediumKeywords {
		if strings.HasPrefix(lower, kw) {
			return kw
		}
	}
	return ""
}

func trimConnector(rest string) string {
	switch {
	case strings.HasPrefix(asciiLower(rest), "of "):
		return strings.TrimSpace(rest[3:])
	case strings.HasPrefix(rest, ":"):
		return strings.TrimSpace(rest[1:])
	default:
		return rest
	}
}

// splitPlace separates "subject in/at place" into object and background.
// Every later "in"/"at" is folded into the background as " in ".
func splitPlace(subject string) (string, string) {
	parts := placeSplitter.Split(subject, -1)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " in ")
}

func appendSegment(existing, seg string) string {
	if existing == "" {
		return seg
	}
	return existing + ", " + seg
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// asciiLower lowercases A-Z only. Byte offsets stay aligned with the input,
// which lets a keyword match be sliced back out of the original casing.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
