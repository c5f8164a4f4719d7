// Package response writes JSON bodies and problem documents, tagging both
// with the request ID assigned by middleware.RequestID.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/homescore/homescore/internal/api/middleware"
	"github.com/homescore/homescore/internal/api/models"
)

// JSON writes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}

	// Map links carry query strings; keep them readable.
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// Error writes problem with its instance set to the request path.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.WithInstance(r.URL.Path).Write(w)
}

// problemFunc builds a problem from a trace ID and detail.
type problemFunc func(traceID, detail string) *models.Problem

func write(w http.ResponseWriter, r *http.Request, build problemFunc, detail string) {
	Error(w, r, build(middleware.GetRequestID(r.Context()), detail))
}

// BadRequest writes a 400 listing the offending fields.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, fields []models.FieldError) {
	write(w, r, func(traceID, detail string) *models.Problem {
		return models.NewBadRequest(traceID, detail, fields)
	}, detail)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewNotFound, detail)
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewInternalError, detail)
}

// BadGateway writes a 502. Used when an upstream provider fails outright.
func BadGateway(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewBadGateway, detail)
}

// ServiceUnavailable writes a 503. Used when a collaborator is not
// configured or its circuit is open.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewServiceUnavailable, detail)
}
