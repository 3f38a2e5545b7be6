package vision

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"promptlens/internal/domain"
	"promptlens/internal/infra"
)

const (
	DefaultModel = "gemini-2.5-flash-image"

	// FallbackPrompt is returned when the model answers with no text.
	FallbackPrompt = "Could not generate prompt."

	temperature     float32 = 0.4
	maxOutputTokens int32   = 500
	tokenProvider           = "gemini"
)

const instruction = "Act as an expert AI Art Prompt Engineer. Analyze this image and provide a high-fidelity, detailed text prompt that could be used to generate a similar image using Midjourney or Stable Diffusion. Focus on subject, lighting, style, camera settings, and composition. Format the output as a single, continuous prompt string without introductory text."

// TokenSource resolves the API key when none is configured explicitly.
type TokenSource interface {
	Resolve(ctx context.Context, provider, explicit string) (string, error)
}

// contentGenerator is the slice of the genai Models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Tokens  TokenSource
	Logger  *infra.Logger
}

// GeminiClient turns an image into a generation prompt through Gemini.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	tokens  TokenSource
	logger  infra.Logger

	mu        sync.Mutex
	generator contentGenerator
}

func NewGeminiClient(opts Options) *GeminiClient {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	logger := infra.DiscardLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &GeminiClient{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimSpace(opts.BaseURL),
		model:   model,
		tokens:  opts.Tokens,
		logger:  logger,
	}
}

// Model reports the model name used for analysis.
func (c *GeminiClient) Model() string {
	return c.model
}

// ReverseEngineer asks the model for a prompt that would reproduce the image.
func (c *GeminiClient) ReverseEngineer(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}
	mt, err := NormalizeMIME(mimeType)
	if err != nil {
		return "", err
	}
	gen, err := c.generatorFor(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mt),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	resp, err := gen.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.model).Msg("vision: generate content failed")
		return "", fmt.Errorf("%w: failed to analyze image: %v", domain.ErrProviderFailure, err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		c.logger.Warn().Str("model", c.model).Msg("vision: empty response")
		return FallbackPrompt, nil
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(image)).
		Int("chars", len(text)).
		Msg("vision: prompt generated")
	return text, nil
}

func (c *GeminiClient) generatorFor(ctx context.Context) (contentGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generator != nil {
		return c.generator, nil
	}

	key := c.apiKey
	if key == "" {
		if c.tokens == nil {
			return nil, fmt.Errorf("gemini api key: %w", domain.ErrMissingCredential)
		}
		resolved, err := c.tokens.Resolve(ctx, tokenProvider, "")
		if err != nil {
			return nil, err
		}
		key = resolved
	}

	cfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", domain.ErrProviderFailure, err)
	}
	c.generator = client.Models
	return c.generator, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
