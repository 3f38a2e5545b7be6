package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) (*time.Time, func() time.Time) {
	now := t
	return &now, func() time.Time { return now }
}

func TestLimiterWindow(t *testing.T) {
	now, clock := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewLimiter(2, time.Minute)
	l.now = clock

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("a"); !ok {
			t.Fatalf("hit %d should pass", i+1)
		}
	}
	ok, wait := l.Allow("a")
	if ok {
		t.Fatal("third hit should be limited")
	}
	if wait != time.Minute {
		t.Fatalf("wait = %s, want 1m", wait)
	}
	if ok, _ := l.Allow("b"); !ok {
		t.Fatal("other client should not be limited")
	}

	*now = now.Add(20 * time.Second)
	if _, wait := l.Allow("a"); wait != 40*time.Second {
		t.Fatalf("wait = %s, want 40s", wait)
	}

	*now = now.Add(40 * time.Second)
	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("window should reset")
	}
}

func TestLimiterSweepsExpiredBuckets(t *testing.T) {
	now, clock := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewLimiter(1, time.Minute)
	l.now = clock

	l.Allow("a")
	l.Allow("b")
	*now = now.Add(2 * time.Minute)
	l.Allow("c")

	if len(l.buckets) != 1 {
		t.Fatalf("buckets = %d, want only the fresh one", len(l.buckets))
	}
	if _, ok := l.buckets["c"]; !ok {
		t.Fatal("fresh bucket missing")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow("a"); !ok {
			t.Fatalf("hit %d limited with limit 0", i+1)
		}
	}
}

func TestRateLimitMiddlewareResponds429(t *testing.T) {
	now, clock := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewLimiter(1, time.Minute)
	l.now = clock
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(""); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}

	*now = now.Add(59*time.Second + 800*time.Millisecond)
	limited := send("")
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", limited.Code)
	}
	if got := limited.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want 1", got)
	}
	if !strings.Contains(limited.Body.String(), `"rate_limited"`) {
		t.Fatalf("unexpected body: %s", limited.Body.String())
	}

	if rec := send("203.0.113.7"); rec.Code != http.StatusNoContent {
		t.Fatalf("forwarded client shares the proxy bucket: status %d", rec.Code)
	}
}

func TestClientIPForRateLimit(t *testing.T) {
	v6Remote := net.JoinHostPort("2001:db8::2", "443")
	tests := []struct {
		forwarded string
		remote    string
		want      string
	}{
		{forwarded: "203.0.113.1", remote: "198.51.100.10:1234", want: "203.0.113.1"},
		{forwarded: " , bogus, 203.0.113.9 ", remote: "198.51.100.10:1234", want: "203.0.113.9"},
		{forwarded: "bogus", remote: "198.51.100.10:1234", want: "198.51.100.10"},
		{forwarded: "", remote: "198.51.100.10:1234", want: "198.51.100.10"},
		{forwarded: "2001:db8::1", remote: v6Remote, want: "2001:db8::1"},
		{forwarded: "", remote: v6Remote, want: "2001:db8::2"},
		{forwarded: "", remote: "203.0.113.1", want: "203.0.113.1"},
		{forwarded: "", remote: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		if got := clientIPForRateLimit(req); got != tt.want {
			t.Fatalf("clientIPForRateLimit(%q, %q) = %q, want %q", tt.forwarded, tt.remote, got, tt.want)
		}
	}
}
