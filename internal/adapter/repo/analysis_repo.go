package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"promptlens/internal/domain"
	"promptlens/internal/infra"
	"promptlens/internal/sqlinline"
)

// AnalysisRepositoryPG implements domain.AnalysisRepository using PostgreSQL.
type AnalysisRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewAnalysisRepository(sql infra.SQLExecutor) *AnalysisRepositoryPG {
	return &AnalysisRepositoryPG{sql: sql}
}

// Create inserts the analysis and fills in its server-assigned timestamp.
func (r *AnalysisRepositoryPG) Create(ctx context.Context, a *domain.Analysis) error {
	if a == nil {
		return fmt.Errorf("analysis is required")
	}
	fields, err := json.Marshal(a.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAnalysis, a.ID, a.Prompt, fields, a.StorageKey, a.MIME, a.Bytes)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListRecent returns up to limit analyses, newest first.
func (r *AnalysisRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Analysis, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentAnalyses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Analysis{}
	for rows.Next() {
		var (
			a      domain.Analysis
			fields []byte
		)
		if err := rows.Scan(&a.ID, &a.Prompt, &fields, &a.StorageKey, &a.MIME, &a.Bytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &a.Fields); err != nil {
				return nil, fmt.Errorf("decode fields for %s: %w", a.ID, err)
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ domain.AnalysisRepository = (*AnalysisRepositoryPG)(nil)
