package http

import (
	"context"
	stdhttp "net/http"
	"time"

	perr "taskdata/internal/platform/errors"
)

// OpsOptions configures the operational endpoints
type OpsOptions struct {
	// Ready reports dependency readiness; nil means always ready
	Ready func(context.Context) error
	// ReadyTimeout bounds one readiness check; zero means 2s
	ReadyTimeout time.Duration
	// Metrics serves /metrics when set
	Metrics stdhttp.Handler
	// Profiler mounts pprof under /debug
	Profiler bool
	// Version is echoed by /healthz
	Version string
}

// MountOps mounts /healthz, /readyz, /metrics and optionally /debug
func MountOps(r Router, o OpsOptions) {
	timeout := o.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	r.Get("/healthz", healthz(o.Version))
	r.Get("/readyz", readyz(o.Ready, timeout))

	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics)
	}
	MountProfiler(r, "/debug", o.Profiler)
}

// healthz godoc
// @Summary Liveness and build version
// @Tags ops
// @Produce json
// @Success 200 {object} Envelope{data=map[string]string}
// @Router /healthz [get]
func healthz(version string) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		RespondOK(w, req, map[string]string{"status": "ok", "version": version})
	}
}

// readyz godoc
// @Summary Readiness of the Postgres and ClickHouse stores
// @Tags ops
// @Produce json
// @Success 200 {object} Envelope{data=map[string]string}
// @Failure 503 {object} Envelope
// @Router /readyz [get]
func readyz(ready func(context.Context) error, timeout time.Duration) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			if err := ready(ctx); err != nil {
				RespondErrorStatus(w, req, stdhttp.StatusServiceUnavailable,
					perr.Wrap(err, perr.ErrorCodeUnavailable, "dependencies not ready"))
				return
			}
		}
		RespondOK(w, req, map[string]string{"status": "ready"})
	}
}
