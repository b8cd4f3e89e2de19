package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanbiz/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api error", ErrInvalidParameter, http.StatusBadRequest, TypeBadParameter},
		{"summary not ready", ErrSummaryNotReady, http.StatusNotFound, TypeNotFound},
		{"run in progress", ErrRunInProgress, http.StatusConflict, TypeConflict},
		{"schema", fmt.Errorf("load: %w", NewSchemaError("City")), http.StatusBadRequest, TypeSchema},
		{"type", NewTypeError("x equals y"), http.StatusBadRequest, TypeCellType},
		{"validation", NewAppValidationError("top_n"), http.StatusUnprocessableEntity, TypeValidation},
		{"not found", NewNotFoundError("chart kind"), http.StatusNotFound, TypeNotFound},
		{"key", NewKeyError("Ghost"), http.StatusInternalServerError, TypeIntegrity},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/overview", body["instance"])
			assert.Contains(t, body, "trace_id")
			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, logs.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_AppErrorSurfacesMessage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	err := fmt.Errorf("fold employees: %w", NewKeyError("Ghost"))
	problem := h.ErrorToProblem(err, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, err.Error(), problem.Detail)
	assert.Equal(t, "KEY", problem.Extensions["error_type"])
	assert.Equal(t, map[string]interface{}{"key": "Ghost"}, problem.Extensions["context"])
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	assert.Contains(t, decodeProblem(t, rec), "stack")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("index out of range")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/overview", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeSchema, "Schema Error", "", "").
		WithExtension("error_type", "SCHEMA")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(400), got["status"])
	assert.Equal(t, "SCHEMA", got["error_type"])
	assert.NotContains(t, got, "detail")
	assert.NotContains(t, got, "instance")
}

func TestStatusForType(t *testing.T) {
	status, _, _ := StatusForType(ErrTypeConfig)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, problemType, _ := StatusForType(ErrTypeValidation)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, TypeValidation, problemType)
}
