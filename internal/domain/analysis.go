package domain

import (
	"context"
	"time"

	"promptlens/internal/prompt"
)

// Analysis records one reverse-engineered prompt produced by the assistant.
type Analysis struct {
	ID         string        `json:"id"`
	Prompt     string        `json:"prompt"`
	Fields     prompt.Fields `json:"fields"`
	StorageKey string        `json:"storage_key,omitempty"`
	MIME       string        `json:"mime"`
	Bytes      int64         `json:"bytes"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AnalysisRepository persists assistant analyses.
type AnalysisRepository interface {
	Create(ctx context.Context, a *Analysis) error
	ListRecent(ctx context.Context, limit int) ([]Analysis, error)
}
