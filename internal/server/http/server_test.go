package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/sistemact/internal/service/auth"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

func testConfig(t *testing.T, enforce bool) config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave"), bcrypt.MinCost)
	require.NoError(t, err)
	return config.Config{
		CORS: config.CORS{AllowedOrigins: []string{"http://panel.local"}},
		Auth: config.Auth{
			Username:     "admin",
			PasswordHash: string(hash),
			JWTSecret:    "secret",
			TokenTTL:     8 * time.Hour,
			StateTTL:     time.Minute,
			Enforce:      enforce,
		},
		Observability: config.Observability{ServiceName: "sistemact-test"},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	e := NewEcho(testConfig(t, true), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestErrorHandlerRendersAppErrors(t *testing.T) {
	e := NewEcho(testConfig(t, true), nil, zap.NewNop())
	e.GET("/boom", func(c echo.Context) error {
		return errorbank.Conflict("sync already running", errorbank.WithDetail("platform", "tiendanube"))
	})
	e.GET("/plain", func(c echo.Context) error {
		return assert.AnError
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "sync already running", body.Error)
	assert.Equal(t, string(errorbank.KindConflict), body.Kind)
	assert.Equal(t, "tiendanube", body.Details["platform"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(errorbank.KindInternal), decodeError(t, rec).Kind)
}

func TestErrorHandlerMapsEchoErrors(t *testing.T) {
	e := NewEcho(testConfig(t, true), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-existe", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(errorbank.KindNotFound), decodeError(t, rec).Kind)
}

func TestCORSPreflight(t *testing.T) {
	e := NewEcho(testConfig(t, true), nil, zap.NewNop())
	e.GET("/cargar-ventas", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/cargar-ventas", nil)
	req.Header.Set(echo.HeaderOrigin, "http://panel.local")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://panel.local", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRequireSession(t *testing.T) {
	cfg := testConfig(t, true)
	sessions := authsvc.NewService(cfg, zap.NewNop())
	e := NewEcho(cfg, nil, zap.NewNop())
	router := NewRouter(e, cfg, sessions, zap.NewNop())
	router.GET("/privado", func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		return c.String(http.StatusOK, claims.Subject)
	}, router.RequireAuth)

	token, _, err := sessions.Login(t.Context(), "admin", "clave")
	require.NoError(t, err)
	state, err := sessions.NewState("tiendanube")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "state token is not a session", header: "Bearer " + state, status: http.StatusUnauthorized},
		{name: "valid session", header: "Bearer " + token, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/privado", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "admin", rec.Body.String())
			} else {
				assert.Equal(t, string(errorbank.KindUnauthorized), decodeError(t, rec).Kind)
			}
		})
	}
}

func TestRouterWithoutEnforcement(t *testing.T) {
	cfg := testConfig(t, false)
	e := NewEcho(cfg, nil, zap.NewNop())
	router := NewRouter(e, cfg, authsvc.NewService(cfg, zap.NewNop()), zap.NewNop())
	router.GET("/privado", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, router.RequireAuth)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/privado", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	type payload struct {
		Descripcion string `json:"descripcion" validate:"required"`
		Prioridad   string `json:"prioridad" validate:"omitempty,oneof=baja media alta"`
	}

	v := NewValidator()
	require.NoError(t, v.Validate(&payload{Descripcion: "ordenar depósito", Prioridad: "alta"}))

	err := v.Validate(&payload{Prioridad: "urgente"})
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	fields, ok := errorbank.From(err).Details()["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "required", fields["descripcion"])
	assert.Equal(t, "oneof", fields["prioridad"])
}
