package response_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/api/middleware"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/api/response"
)

// requestWithContext returns a request that has passed through the RequestID middleware.
func requestWithContext(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)

	var processed *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	return processed, httptest.NewRecorder()
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"hello"}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestJSON_NilData(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter, r *http.Request)
		status int
		typ    string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "city", Message: "is required"}})
			},
			status: http.StatusBadRequest,
			typ:    models.ProblemTypeValidation,
		},
		{
			name:   "not found",
			write:  func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "postcode not found") },
			status: http.StatusNotFound,
			typ:    models.ProblemTypeNotFound,
		},
		{
			name:   "internal error",
			write:  func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") },
			status: http.StatusInternalServerError,
			typ:    models.ProblemTypeInternal,
		},
		{
			name:   "bad gateway",
			write:  func(w http.ResponseWriter, r *http.Request) { response.BadGateway(w, r, "upstream failed") },
			status: http.StatusBadGateway,
			typ:    models.ProblemTypeBadGateway,
		},
		{
			name:   "service unavailable",
			write:  func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "down") },
			status: http.StatusServiceUnavailable,
			typ:    models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodGet, "/v1/test")

			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var problem models.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, tt.typ, problem.Type)
			assert.Equal(t, "/v1/test", problem.Instance)
			assert.NotEmpty(t, problem.TraceID)
		})
	}
}

func TestJSON_DoesNotEscapeLinks(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/v1/locations")

	response.JSON(rec, req, http.StatusOK, map[string]string{"link": "https://www.google.com/maps?q=1,2&z=3"})

	assert.Contains(t, rec.Body.String(), "q=1,2&z=3")
}

func TestRequestIDPropagation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-Id", "client-request-123")

	var processed *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "client-request-123", middleware.GetRequestID(processed.Context()))

	rec := httptest.NewRecorder()
	response.JSON(rec, processed, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, "client-request-123", rec.Header().Get("X-Request-Id"))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, middleware.GetRequestID(context.Background()))
}
