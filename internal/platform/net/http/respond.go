// Package http hosts the ops listener: router seam, server lifecycle and JSON replies
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "taskdata/internal/platform/errors"
	pnet "taskdata/internal/platform/net"
)

// Envelope is the response body for every ops endpoint
type Envelope struct {
	StatusCode int        `json:"status_code"`
	Status     string     `json:"status"`
	Error      *perr.Wire `json:"error,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	Data       any        `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	JSON(w, stdhttp.StatusOK, Envelope{
		StatusCode: stdhttp.StatusOK,
		Status:     stdhttp.StatusText(stdhttp.StatusOK),
		RequestID:  pnet.RequestID(r.Context()),
		Data:       data,
	})
}

// RespondError maps a project error into an envelope and writes it
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	RespondErrorStatus(w, r, perr.HTTPStatus(err), err)
}

// RespondErrorStatus writes err with an explicit status
func RespondErrorStatus(w stdhttp.ResponseWriter, r *stdhttp.Request, status int, err error) {
	wire := perr.WireFrom(err)
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Error:      &wire,
		RequestID:  pnet.RequestID(r.Context()),
	})
}
