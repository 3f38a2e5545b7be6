package vision

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"promptlens/internal/domain"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

var allowedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// NormalizeMIME lower-cases a content type, drops parameters and maps the
// "image/jpg" alias. It returns ErrInvalidImage for unsupported types.
func NormalizeMIME(mimeType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	if !allowedMIME[mt] {
		return "", fmt.Errorf("%w: unsupported type %q", domain.ErrInvalidImage, mimeType)
	}
	return mt, nil
}

// DetectMIME sniffs the content type of raw image bytes.
func DetectMIME(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}
	return NormalizeMIME(http.DetectContentType(data))
}

// DecodeDataURL accepts either a base64 data URL or bare base64 and returns
// the image bytes with their content type.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}

	declared := ""
	if m := dataURLPrefix.FindStringSubmatch(s); m != nil {
		declared = "image/" + m[1]
		s = s[len(m[0]):]
	} else if strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("%w: unsupported data url", domain.ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64: %v", domain.ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}

	if declared != "" {
		mt, err := NormalizeMIME(declared)
		return data, mt, err
	}
	mt, err := DetectMIME(data)
	return data, mt, err
}
