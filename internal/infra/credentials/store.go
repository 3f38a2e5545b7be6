package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptlens/internal/domain"
	"promptlens/internal/infra"
	"promptlens/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderNotion = "notion"
)

// Providers lists the integrations whose tokens may be stored.
var Providers = []string{ProviderNotion, ProviderGemini}

// Store keeps integration tokens in the integration_tokens table so they can
// be rotated without redeploying.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) NotionToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderNotion)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers an explicitly configured token and falls back to the store.
func (s *Store) Resolve(ctx context.Context, provider, explicit string) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}
	if s == nil || s.sql == nil {
		return "", fmt.Errorf("%s token: %w", provider, domain.ErrMissingCredential)
	}
	token, err := s.Token(ctx, provider)
	if err != nil {
		return "", fmt.Errorf("load %s token: %w", provider, err)
	}
	if token == "" {
		return "", fmt.Errorf("%s token: %w", provider, domain.ErrMissingCredential)
	}
	return token, nil
}

// SetToken stores token for a known provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !isKnownProvider(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s token is required", provider)
	}
	return s.upsert(ctx, provider, token, map[string]any{"source": "tokenctl"})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

func isKnownProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}
