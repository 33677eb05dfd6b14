package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/observability"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/sistemact/internal/service/auth"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho, NewRouter),
	fx.Invoke(Run),
)

// NewEcho configures the Echo router with basic middleware.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// ErrorHandler renders every failed request as a response.ErrorBody.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			err = fromHTTPError(he)
		}

		appErr := errorbank.From(err)
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		}
		if appErr.Kind() == errorbank.KindInternal {
			logger.Error("http request failed", fields...)
		} else {
			logger.Debug("http request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.StatusCode())
			return
		}
		if buildErr := response.New(c).WithError(appErr).Build(); buildErr != nil {
			logger.Error("write error response", zap.Error(buildErr))
		}
	}
}

func fromHTTPError(he *echo.HTTPError) *errorbank.AppError {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	opts := []errorbank.Option{}
	if he.Internal != nil {
		opts = append(opts, errorbank.WithCause(he.Internal))
	}

	switch he.Code {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return errorbank.BadRequest(msg, opts...)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errorbank.Unauthorized(msg, opts...)
	case http.StatusNotFound:
		return errorbank.NotFound(msg, opts...)
	case http.StatusConflict:
		return errorbank.Conflict(msg, opts...)
	case http.StatusUnprocessableEntity:
		return errorbank.Unprocessable(msg, opts...)
	case http.StatusBadGateway:
		return errorbank.BadGateway(msg, opts...)
	default:
		return errorbank.Internal(msg, opts...)
	}
}

// Router hands handlers the Echo instance together with the session guard.
type Router struct {
	*echo.Echo
	// RequireAuth rejects requests without a valid session token.
	RequireAuth echo.MiddlewareFunc
}

// NewRouter builds the Router. With AUTH_ENFORCE=false the session guard lets every request through.
func NewRouter(e *echo.Echo, cfg config.Config, sessions *authsvc.Service, logger *zap.Logger) *Router {
	guard := RequireSession(sessions)
	if !cfg.Auth.Enforce {
		logger.Warn("session enforcement disabled; protected routes are public")
		guard = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return &Router{Echo: e, RequireAuth: guard}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: e,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
