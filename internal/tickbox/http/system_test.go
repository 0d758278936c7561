package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpapi "github.com/aussiebroadwan/tickbox/internal/tickbox/http"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

func TestHealth(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	t.Run("livez", func(t *testing.T) {
		resp, err := http.Get(srv.URL + tickboxsdk.PathLivez)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body tickboxsdk.HealthResponse
		require.NoError(t, jsonDecode(resp, &body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "ok", body.Status)
		require.Equal(t, "test", body.Version)
		require.Nil(t, body.Checks)
	})

	t.Run("readyz", func(t *testing.T) {
		health, err := srv.Client.Ready(ctx)
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "ok", health.Checks.Database)
		require.Equal(t, "ok", health.Checks.Signer)
		require.Empty(t, health.Checks.Registry)
	})
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyzHandler_Degraded(t *testing.T) {
	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer})
	require.NoError(t, err)

	h := httpapi.ReadyzHandler(time.Now(), "test", okPinger{}, failingPinger{}, keys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tickboxsdk.PathReadyz, nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"degraded"`)
	require.Contains(t, rec.Body.String(), `"registry":"error: connection refused"`)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestJWKS(t *testing.T) {
	srv := newTestServer(t)

	jwks, err := srv.Client.JWKS(context.Background())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, srv.Keys.Algorithm(), jwks.Keys[0].Alg)
}

func TestMetricsEndpoint(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	srv.login(t, "metrics@example.com")
	_, _ = srv.Client.PasswordGrant(ctx, "metrics@example.com", "Wrong1!!")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	require.Contains(t, body, `tickbox_registrations_total{outcome="success"} 1`)
	require.Contains(t, body, `tickbox_token_requests_total{grant_type="password",outcome="success"} 1`)
	require.Contains(t, body, `tickbox_token_requests_total{grant_type="password",outcome="invalid_credentials"} 1`)
}

func TestSwaggerUI(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/swagger/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+tickboxsdk.PathLivez, nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}
