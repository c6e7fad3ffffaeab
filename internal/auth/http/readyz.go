package http

import (
	"net/http"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/cache"
	"github.com/harborworks/gatehouse/internal/auth/store"
	"github.com/harborworks/gatehouse/pkg/httpx"
)

// ReadyzHandler is the readiness probe. It checks both external
// dependencies; either one failing marks the service degraded.
func ReadyzHandler(startTime time.Time, version string, st store.Store, kv cache.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{
			Database: "ok",
			Cache:    "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if err := kv.Ping(r.Context()); err != nil {
			checks.Cache = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
