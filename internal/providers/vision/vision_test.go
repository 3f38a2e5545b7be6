package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"promptlens/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func newTestClient(gen contentGenerator) *GeminiClient {
	c := NewGeminiClient(Options{APIKey: "k"})
	c.generator = gen
	return c
}

func TestReverseEngineerSendsImageAndInstruction(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Portrait of an old fisherman, ", "golden hour --ar 4:5")}
	client := newTestClient(gen)

	got, err := client.ReverseEngineer(context.Background(), pngHeader, "image/png")
	if err != nil {
		t.Fatalf("ReverseEngineer error: %v", err)
	}
	if got != "Portrait of an old fisherman, golden hour --ar 4:5" {
		t.Fatalf("unexpected prompt: %q", got)
	}
	if gen.model != DefaultModel {
		t.Fatalf("unexpected model: %s", gen.model)
	}
	if len(gen.contents) != 1 || len(gen.contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents: %+v", gen.contents)
	}
	img := gen.contents[0].Parts[0]
	if img.InlineData == nil || img.InlineData.MIMEType != "image/png" || len(img.InlineData.Data) != len(pngHeader) {
		t.Fatalf("image part mismatch: %+v", img.InlineData)
	}
	if !strings.HasPrefix(gen.contents[0].Parts[1].Text, "Act as an expert AI Art Prompt Engineer.") {
		t.Fatalf("instruction mismatch: %q", gen.contents[0].Parts[1].Text)
	}
	if gen.config == nil || gen.config.Temperature == nil || *gen.config.Temperature != 0.4 {
		t.Fatalf("temperature not set: %+v", gen.config)
	}
	if gen.config.MaxOutputTokens != 500 {
		t.Fatalf("max tokens = %d", gen.config.MaxOutputTokens)
	}
}

func TestReverseEngineerEmptyTextFallsBack(t *testing.T) {
	for _, resp := range []*genai.GenerateContentResponse{nil, {}, textResponse("   ")} {
		client := newTestClient(&fakeGenerator{resp: resp})
		got, err := client.ReverseEngineer(context.Background(), pngHeader, "image/png")
		if err != nil {
			t.Fatalf("ReverseEngineer error: %v", err)
		}
		if got != FallbackPrompt {
			t.Fatalf("expected fallback, got %q", got)
		}
	}
}

func TestReverseEngineerWrapsProviderErrors(t *testing.T) {
	client := newTestClient(&fakeGenerator{err: errors.New("quota exceeded")})
	_, err := client.ReverseEngineer(context.Background(), pngHeader, "image/png")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to analyze image") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestReverseEngineerRejectsBadInput(t *testing.T) {
	client := newTestClient(&fakeGenerator{resp: textResponse("x")})
	if _, err := client.ReverseEngineer(context.Background(), nil, "image/png"); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for empty image, got %v", err)
	}
	if _, err := client.ReverseEngineer(context.Background(), pngHeader, "image/gif"); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for gif, got %v", err)
	}
}

func TestReverseEngineerWithoutKeyFails(t *testing.T) {
	client := NewGeminiClient(Options{})
	if _, err := client.ReverseEngineer(context.Background(), pngHeader, "image/png"); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNormalizeMIME(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "image/png", want: "image/png"},
		{in: "IMAGE/JPG", want: "image/jpeg"},
		{in: "image/jpeg; charset=binary", want: "image/jpeg"},
		{in: "image/webp", want: "image/webp"},
		{in: "image/gif", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeMIME(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidImage) {
				t.Fatalf("NormalizeMIME(%q) expected ErrInvalidImage, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("NormalizeMIME(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestDecodeDataURL(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	tests := []struct {
		name     string
		in       string
		wantMIME string
		wantErr  bool
	}{
		{name: "png data url", in: "data:image/png;base64," + encoded, wantMIME: "image/png"},
		{name: "jpg alias", in: "data:image/jpg;base64," + encoded, wantMIME: "image/jpeg"},
		{name: "bare base64 sniffed", in: encoded, wantMIME: "image/png"},
		{name: "gif data url", in: "data:image/gif;base64," + encoded, wantErr: true},
		{name: "broken base64", in: "data:image/png;base64,@@@", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mt, err := DecodeDataURL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidImage) {
					t.Fatalf("expected ErrInvalidImage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeDataURL error: %v", err)
			}
			if mt != tt.wantMIME {
				t.Fatalf("mime = %q, want %q", mt, tt.wantMIME)
			}
			if string(data) != string(pngHeader) {
				t.Fatalf("decoded bytes mismatch")
			}
		})
	}
}
