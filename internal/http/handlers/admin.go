package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// RequireBearer guards admin routes with a static bearer token.
func RequireBearer(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"invalid admin token"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RefreshGallery bypasses the cache and refetches the gallery.
func (a *App) RefreshGallery(w http.ResponseWriter, r *http.Request) {
	items, err := a.Gallery.Refresh(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger(r).Info().Int("items", len(items)).Msg("gallery refreshed by admin")
	a.json(w, http.StatusOK, map[string]any{"items": len(items), "refreshed_at": time.Now().UTC()})
}
