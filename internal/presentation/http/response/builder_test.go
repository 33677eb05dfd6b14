package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, rec), rec
}

func TestBuildSuccessWritesRawPayload(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData([]string{"a", "b"}).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `["a","b"]`, rec.Body.String())
}

func TestBuildSuccessWithoutData(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithStatus(http.StatusNoContent).Build())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBuildAppError(t *testing.T) {
	c, rec := newContext()
	err := errorbank.BadRequest("missing required fields", errorbank.WithDetail("fields", []string{"sku"}))
	require.NoError(t, New(c).WithError(err).Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing required fields", body.Error)
	assert.Equal(t, "bad_request", body.Kind)
	assert.Equal(t, []any{"sku"}, body.Details["fields"])
}

func TestBuildUnknownErrorIsInternal(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithError(errors.New("pq: connection refused")).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error","kind":"internal"}`, rec.Body.String())
}
