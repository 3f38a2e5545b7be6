package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"promptlens/internal/domain"
	"promptlens/internal/infra"
	"promptlens/internal/prompt"
	"promptlens/internal/providers/vision"
	"promptlens/internal/storage"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
	uploadPrefix       = "uploads"
)

// Analyzer produces a generation prompt for an image.
type Analyzer interface {
	ReverseEngineer(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Upload is an image submitted for analysis.
type Upload struct {
	Data     []byte
	MIME     string
	Filename string
}

type Options struct {
	Repository domain.AnalysisRepository
	Files      *storage.FileStore
	MaxBytes   int64
	Logger     *infra.Logger
}

// Service runs the reverse-engineering assistant: it validates the upload,
// asks the vision model for a prompt and decomposes the answer for display.
type Service struct {
	analyzer Analyzer
	repo     domain.AnalysisRepository
	files    *storage.FileStore
	maxBytes int64
	logger   infra.Logger
	now      func() time.Time
}

func NewService(analyzer Analyzer, opts Options) *Service {
	logger := infra.DiscardLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Service{
		analyzer: analyzer,
		repo:     opts.Repository,
		files:    opts.Files,
		maxBytes: opts.MaxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Analyze(ctx context.Context, up Upload) (*domain.Analysis, error) {
	if len(up.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}
	if s.maxBytes > 0 && int64(len(up.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, s.maxBytes)
	}
	mimeType, err := resolveMIME(up)
	if err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: vision analyzer not configured", domain.ErrProviderFailure)
	}

	start := time.Now()
	text, err := s.analyzer.ReverseEngineer(ctx, up.Data, mimeType)
	if err != nil {
		return nil, err
	}

	analysis := &domain.Analysis{
		ID:        uuid.NewString(),
		Prompt:    text,
		Fields:    prompt.Parse(text),
		MIME:      mimeType,
		Bytes:     int64(len(up.Data)),
		CreatedAt: s.now().UTC(),
	}

	if s.files != nil {
		key := storage.ContentKey(uploadPrefix, up.Data, strings.TrimPrefix(mimeType, "image/"))
		stored, err := s.files.Write(ctx, key, up.Data)
		if err != nil {
			s.logger.Warn().Err(err).Str("analysis_id", analysis.ID).Msg("assistant: store upload failed")
		} else {
			analysis.StorageKey = stored
		}
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, analysis); err != nil {
			s.logger.Warn().Err(err).Str("analysis_id", analysis.ID).Msg("assistant: persist analysis failed")
		}
	}

	s.logger.Info().
		Str("analysis_id", analysis.ID).
		Str("mime", mimeType).
		Int64("bytes", analysis.Bytes).
		Str("filename", up.Filename).
		Dur("took", time.Since(start)).
		Msg("assistant: image analyzed")

	return analysis, nil
}

// Recent lists stored analyses newest first. Without a repository the
// history is empty.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	if s.repo == nil {
		return []domain.Analysis{}, nil
	}
	items, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return items, nil
}

func resolveMIME(up Upload) (string, error) {
	if strings.TrimSpace(up.MIME) == "" || strings.EqualFold(strings.TrimSpace(up.MIME), "application/octet-stream") {
		return vision.DetectMIME(up.Data)
	}
	return vision.NormalizeMIME(up.MIME)
}
