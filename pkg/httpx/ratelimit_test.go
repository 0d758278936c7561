package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, target, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestFormFieldKeyExtractor(t *testing.T) {
	form := url.Values{"username": {"bob"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, "bob", httpx.FormFieldKeyExtractor("username")(req))

	// The handler can still read the form afterwards.
	require.Equal(t, "bob", req.PostFormValue("username"))

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.FormFieldKeyExtractor("username")(empty))
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 3, Window: time.Minute, Burst: 3}
	h := httpx.RateLimitByIP(cfg)(okHandler)

	for i := range 3 {
		require.Equal(t, http.StatusOK, hit(h, "/", "192.168.1.1:1").Code, "request %d", i+1)
	}

	rec := hit(h, "/", "192.168.1.1:1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
	require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Separate bucket per address.
	require.Equal(t, http.StatusOK, hit(h, "/", "192.168.1.2:1").Code)
}

func TestRateLimitByIPAndFormField(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitByIPAndFormField(cfg, "username")(okHandler)

	require.Equal(t, http.StatusOK, hit(h, "/?username=alice", "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "/?username=alice", "10.0.0.1:1").Code)
	require.Equal(t, http.StatusOK, hit(h, "/?username=bob", "10.0.0.1:1").Code)
}

func TestRateLimitProfiles(t *testing.T) {
	for _, cfg := range []httpx.RateLimitConfig{httpx.StrictLimit, httpx.ModerateLimit, httpx.LenientLimit} {
		require.Positive(t, cfg.Requests)
		require.Positive(t, cfg.Window)
		require.Positive(t, cfg.Burst)
	}
	require.Less(t, httpx.StrictLimit.Requests, httpx.ModerateLimit.Requests)
	require.Less(t, httpx.ModerateLimit.Requests, httpx.LenientLimit.Requests)
}

func TestRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 10}

	require.Equal(t, def, httpx.RateLimitFromEnv("TEST", def))

	t.Setenv("RATELIMIT_TEST_REQUESTS", "50")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TEST_BURST", "-4")

	got := httpx.RateLimitFromEnv("TEST", def)
	require.Equal(t, 50, got.Requests)
	require.Equal(t, 30*time.Second, got.Window)
	require.Equal(t, 10, got.Burst)
}
