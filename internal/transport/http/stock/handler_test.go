package stock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/database/databasetest"
	"github.com/Additional-Code/sistemact/internal/dto"
	repo "github.com/Additional-Code/sistemact/internal/repository/stock"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	authsvc "github.com/Additional-Code/sistemact/internal/service/auth"
	service "github.com/Additional-Code/sistemact/internal/service/stock"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.Config{}
	logger := zap.NewNop()

	e := httpserver.NewEcho(cfg, nil, logger)
	router := httpserver.NewRouter(e, cfg, authsvc.NewService(cfg, logger), logger)
	Register(router, NewHandler(service.NewService(repo.NewRepository(databasetest.NewSQLite(t)))))
	return e
}

func send(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIncomingStockEndpoints(t *testing.T) {
	e := newServer(t)

	rec := send(e, http.MethodPost, "/ingresos", `{"codigoBarras":"7790001","sku":"TAZ-02","articulo":"Taza","cantidad":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item dto.IncomingStockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.NotZero(t, item.ID)
	assert.False(t, item.Chequeado)

	rec = send(e, http.MethodPut, fmt.Sprintf("/ingresos/%d", item.ID), `{"codigoBarras":"7790001","sku":"TAZ-02","articulo":"Taza","cantidad":10,"chequeado":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.True(t, item.Chequeado)
	assert.Equal(t, 10, item.Cantidad)

	rec = send(e, http.MethodGet, "/ingresos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []dto.IncomingStockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	rec = send(e, http.MethodDelete, "/ingresos", fmt.Sprintf(`{"ids":[%d]}`, item.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eliminados":1}`, rec.Body.String())
}

func TestIncomingStockRejectsInvalidPayload(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/ingresos", `{"cantidad":3}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/ingresos", `{"articulo":"Taza","cantidad":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/ingresos", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, send(e, http.MethodPut, "/ingresos/77", `{"articulo":"Taza"}`).Code)
}
