package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"promptlens/internal/domain"
	"promptlens/internal/prompt"
	"promptlens/internal/sqlinline"
)

type recordingExecutor struct {
	query string
	args  []any
	row   pgx.Row
	rows  pgx.Rows
	err   error
}

func (e *recordingExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (e *recordingExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	e.query, e.args = query, args
	return e.row
}

func (e *recordingExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	e.query, e.args = query, args
	return e.rows, e.err
}

type timeRow struct {
	at  time.Time
	err error
}

func (r timeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*time.Time)) = r.at
	return nil
}

// sliceRows serves pre-built analysis rows through the pgx.Rows interface.
type sliceRows struct {
	data [][]any
	idx  int
}

func (r *sliceRows) Close()                                       {}
func (r *sliceRows) Err() error                                   { return nil }
func (r *sliceRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *sliceRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *sliceRows) Values() ([]any, error)                       { return r.data[r.idx-1], nil }
func (r *sliceRows) RawValues() [][]byte                          { return nil }
func (r *sliceRows) Conn() *pgx.Conn                              { return nil }

func (r *sliceRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *int64:
			*d = v.(int64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestAnalysisRepositoryCreate(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	exec := &recordingExecutor{row: timeRow{at: created}}
	repo := NewAnalysisRepository(exec)

	a := &domain.Analysis{
		ID:     "7f1c7c5e-0000-4000-8000-000000000001",
		Prompt: "Photo of a cat --ar 1:1",
		Fields: prompt.Parse("Photo of a cat --ar 1:1"),
		MIME:   "image/png",
		Bytes:  42,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if exec.query != sqlinline.QInsertAnalysis {
		t.Fatalf("unexpected query used")
	}
	if len(exec.args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(exec.args))
	}
	var stored prompt.Fields
	if err := json.Unmarshal(exec.args[2].([]byte), &stored); err != nil {
		t.Fatalf("fields arg is not json: %v", err)
	}
	if stored.Object != "a cat" || stored.AspectRatio != "1:1" {
		t.Fatalf("unexpected stored fields: %+v", stored)
	}
	if !a.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %s", a.CreatedAt)
	}
}

func TestAnalysisRepositoryCreatePropagatesErrors(t *testing.T) {
	repo := NewAnalysisRepository(&recordingExecutor{row: timeRow{err: errors.New("unique violation")}})
	if err := repo.Create(context.Background(), &domain.Analysis{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if err := repo.Create(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil analysis")
	}
}

func TestAnalysisRepositoryListRecent(t *testing.T) {
	at := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	fields, _ := json.Marshal(prompt.Parse("Portrait of a knight, dramatic lighting"))
	exec := &recordingExecutor{rows: &sliceRows{data: [][]any{
		{"id-2", "Portrait of a knight, dramatic lighting", fields, "uploads/ab/abc.png", "image/png", int64(10), at},
		{"id-1", "legacy", []byte(nil), "", "image/jpeg", int64(5), at.Add(-time.Hour)},
	}}}
	repo := NewAnalysisRepository(exec)

	got, err := repo.ListRecent(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if exec.query != sqlinline.QListRecentAnalyses || exec.args[0] != 5 {
		t.Fatalf("unexpected query or args: %v", exec.args)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(got))
	}
	if got[0].Fields.ImageType != "Portrait" || got[0].Fields.Lighting != "dramatic lighting" {
		t.Fatalf("fields not decoded: %+v", got[0].Fields)
	}
	if got[1].Fields.AspectRatio != "" {
		t.Fatalf("expected zero fields for legacy row, got %+v", got[1].Fields)
	}
}

func TestAnalysisRepositoryListRecentEmpty(t *testing.T) {
	repo := NewAnalysisRepository(&recordingExecutor{rows: &sliceRows{}})
	got, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
