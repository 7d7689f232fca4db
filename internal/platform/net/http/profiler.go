package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves chi's pprof mux under prefix on the ops listener (OPS_PROFILER)
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	// the pprof mux routes from /pprof, so the listener prefix is stripped first
	pprof := stdhttp.StripPrefix(prefix, mw.Profiler())
	r.Handle(prefix, pprof)
	r.Handle(prefix+"/*", pprof)
}
