package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning uptime and version. Always 200 OK while the process serves requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	tickboxsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, tickboxsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the database, the token registry (when external) and the signing keys.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	tickboxsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	tickboxsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	registry Pinger,
	keys *jwtx.KeyManager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &tickboxsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		status, code := "ok", http.StatusOK
		degrade := func() {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if err := db.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}

		if registry != nil {
			checks.Registry = "ok"
			if err := registry.Ping(r.Context()); err != nil {
				checks.Registry = "error: " + err.Error()
				degrade()
			}
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			degrade()
		}

		httpx.WriteJSON(w, code, tickboxsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
