package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"promptlens/internal/assistant"
	"promptlens/internal/domain"
	"promptlens/internal/infra"
)

const maxJSONBody = 1 << 20

// GalleryService is the read side of the prompt gallery.
type GalleryService interface {
	List(ctx context.Context) ([]domain.GalleryItem, error)
	Refresh(ctx context.Context) ([]domain.GalleryItem, error)
	Find(ctx context.Context, key string) (domain.GalleryItem, error)
}

// AssistantService reverse-engineers prompts from uploaded images.
type AssistantService interface {
	Analyze(ctx context.Context, up assistant.Upload) (*domain.Analysis, error)
	Recent(ctx context.Context, limit int) ([]domain.Analysis, error)
}

type App struct {
	Gallery        GalleryService
	Assistant      AssistantService
	Logger         infra.Logger
	MaxUploadBytes int64
}

func NewApp(gallery GalleryService, assistant AssistantService, logger infra.Logger, maxUploadBytes int64) *App {
	return &App{
		Gallery:        gallery,
		Assistant:      assistant,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// fail maps a service error to the JSON error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "payload too large")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrProviderFailure):
		a.logger(r).Error().Err(err).Msg("upstream failure")
		a.error(w, http.StatusBadGateway, "upstream", "upstream service failed")
	default:
		a.logger(r).Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return a.decodeJSONLimit(w, r, v, maxJSONBody)
}

func (a *App) decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "payload too large")
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
