package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"promptlens/internal/assistant"
	"promptlens/internal/domain"
	"promptlens/internal/prompt"
	"promptlens/internal/providers/vision"
)

const multipartOverhead = 1 << 20

type analyzeJSONRequest struct {
	Image string `json:"image"`
}

type analysisResponse struct {
	*domain.Analysis
	Entries []prompt.Entry `json:"entries"`
}

// AnalyzeImage accepts a multipart "image" file or a JSON data URL and
// returns the reverse-engineered prompt with its decomposition.
func (a *App) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	up, ok := a.readUpload(w, r)
	if !ok {
		return
	}
	analysis, err := a.Assistant.Analyze(r.Context(), up)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, analysisResponse{Analysis: analysis, Entries: analysis.Fields.Entries()})
}

func (a *App) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid limit")
			return
		}
		limit = n
	}
	items, err := a.Assistant.Recent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) readUpload(w http.ResponseWriter, r *http.Request) (assistant.Upload, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return a.readMultipartUpload(w, r)
	}

	var req analyzeJSONRequest
	if !a.decodeUploadJSON(w, r, &req) {
		return assistant.Upload{}, false
	}
	data, mimeType, err := vision.DecodeDataURL(req.Image)
	if err != nil {
		a.fail(w, r, err)
		return assistant.Upload{}, false
	}
	return assistant.Upload{Data: data, MIME: mimeType}, true
}

func (a *App) readMultipartUpload(w http.ResponseWriter, r *http.Request) (assistant.Upload, bool) {
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.uploadError(w, r, err)
		return assistant.Upload{}, false
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return assistant.Upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.uploadError(w, r, err)
		return assistant.Upload{}, false
	}
	return assistant.Upload{
		Data:     data,
		MIME:     header.Header.Get("Content-Type"),
		Filename: header.Filename,
	}, true
}

// decodeUploadJSON sizes the body limit for a base64 encoded image.
func (a *App) decodeUploadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := int64(maxJSONBody)
	if a.MaxUploadBytes > 0 {
		limit = a.MaxUploadBytes*4/3 + multipartOverhead
	}
	return a.decodeJSONLimit(w, r, v, limit)
}

func (a *App) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image too large")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", "invalid upload")
}
