package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/sistemact/internal/dto"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	service "github.com/Additional-Code/sistemact/internal/service/auth"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sistemact/transport/http/auth")

// Handler exposes the operator login.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func Register(r *httpserver.Router, h *Handler) {
	r.POST("/auth/login", h.login)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	token, expires, err := h.svc.Login(ctx, payload.Username, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	c.Response().Header().Set("X-Token-Expires", expires.UTC().Format(time.RFC3339))
	return b.WithData(dto.LoginResponse{Token: token}).Build()
}
