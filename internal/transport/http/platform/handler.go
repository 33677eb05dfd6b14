package platform

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/dto"
	"github.com/Additional-Code/sistemact/internal/integration"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	authsvc "github.com/Additional-Code/sistemact/internal/service/auth"
	credsvc "github.com/Additional-Code/sistemact/internal/service/credential"
	"github.com/Additional-Code/sistemact/internal/service/salesync"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sistemact/transport/http/platform")

const (
	msgSyncStarted = "Sincronización iniciada"
	msgSyncRunning = "Ya hay una sincronización en curso"
)

// Handler serves the per-platform OAuth and sync endpoints.
type Handler struct {
	registry    *integration.Registry
	sessions    *authsvc.Service
	credentials *credsvc.Service
	engine      *salesync.Engine
	frontendURL string
	logger      *zap.Logger
}

// Params defines dependencies for constructing Handler.
type Params struct {
	fx.In

	Registry    *integration.Registry
	Sessions    *authsvc.Service
	Credentials *credsvc.Service
	Engine      *salesync.Engine
	Config      config.Config
	Logger      *zap.Logger
}

// NewHandler constructs a platform Handler.
func NewHandler(p Params) *Handler {
	return &Handler{
		registry:    p.Registry,
		sessions:    p.Sessions,
		credentials: p.Credentials,
		engine:      p.Engine,
		frontendURL: p.Config.Frontend.URL,
		logger:      p.Logger,
	}
}

// Register binds the platform routes. The OAuth legs are reached by browser redirects and
// stay public; the sync endpoints require a session.
func Register(r *httpserver.Router, h *Handler) {
	r.GET("/:platform/auth", h.authorize)
	r.GET("/:platform/callback", h.callback)
	r.GET("/:platform/sincronizar-ventas", h.sync, r.RequireAuth)
	r.GET("/:platform/estado-sincronizacion", h.status, r.RequireAuth)
}

func (h *Handler) connector(c echo.Context) (integration.Connector, error) {
	platform, err := integration.ParsePlatform(c.Param("platform"))
	if err != nil {
		return nil, errorbank.NotFound("unknown platform", errorbank.WithCause(err), errorbank.WithDetail("platform", c.Param("platform")))
	}
	conn, ok := h.registry.Get(platform)
	if !ok {
		return nil, errorbank.NotFound("platform not configured", errorbank.WithDetail("platform", string(platform)))
	}
	return conn, nil
}

func (h *Handler) authorize(c echo.Context) error {
	b := response.New(c)

	conn, err := h.connector(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	state, err := h.sessions.NewState(string(conn.Platform()))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to sign oauth state", errorbank.WithCause(err))).Build()
	}
	return c.Redirect(http.StatusFound, conn.AuthCodeURL(state))
}

func (h *Handler) callback(c echo.Context) error {
	b := response.New(c)

	conn, err := h.connector(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	platform := string(conn.Platform())

	if reason := c.QueryParam("error"); reason != "" {
		h.logger.Warn("oauth authorization denied", zap.String("platform", platform), zap.String("reason", reason))
		return b.WithError(errorbank.Unauthorized("authorization denied", errorbank.WithDetail("reason", reason))).Build()
	}
	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return b.WithError(errorbank.BadRequest("code is required")).Build()
	}
	// marketplace installs started outside /auth arrive without state
	if state := c.QueryParam("state"); state != "" {
		if err := h.sessions.VerifyState(state, platform); err != nil {
			return b.WithError(errorbank.Unauthorized("invalid oauth state", errorbank.WithCause(err))).Build()
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "platform.callback", trace.WithAttributes(attribute.String("platform", platform)))
	defer span.End()

	cred, err := conn.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		var ue *integration.UpstreamError
		if errors.As(err, &ue) {
			return b.WithError(errorbank.BadGateway("token exchange failed",
				errorbank.WithCause(err),
				errorbank.WithDetail("platform", platform),
				errorbank.WithDetail("status", ue.Status),
			)).Build()
		}
		return b.WithError(errorbank.Internal("token exchange failed", errorbank.WithCause(err))).Build()
	}
	if err := h.credentials.Upsert(ctx, cred); err != nil {
		return b.WithError(err).Build()
	}

	return c.Redirect(http.StatusFound, h.frontendURL)
}

func (h *Handler) sync(c echo.Context) error {
	b := response.New(c)

	conn, err := h.connector(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	started, err := h.engine.Trigger(c.Request().Context(), conn.Platform())
	if errors.Is(err, salesync.ErrStopped) {
		return b.WithError(errorbank.Conflict("server is shutting down", errorbank.WithCause(err))).Build()
	}
	if err != nil {
		return b.WithError(err).Build()
	}

	msg := msgSyncStarted
	if !started {
		msg = msgSyncRunning
	}
	return b.WithData(dto.SyncResponse{Mensaje: msg, Sincronizando: true}).Build()
}

func (h *Handler) status(c echo.Context) error {
	b := response.New(c)

	conn, err := h.connector(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	running, err := h.engine.Status(c.Request().Context(), conn.Platform())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.SyncStatusResponse{Sincronizando: running}).Build()
}
