package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echo "github.com/labstack/echo/v4"

	authsvc "github.com/Additional-Code/sistemact/internal/service/auth"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

const claimsKey = "session.claims"

// RequireSession validates the Bearer token of each request and stores its claims on the context.
func RequireSession(sessions *authsvc.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return errorbank.Unauthorized("missing bearer token")
			}

			claims, err := sessions.ValidateSession(strings.TrimSpace(token))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, authsvc.ErrExpiredToken) {
					msg = "token expired"
				}
				return errorbank.Unauthorized(msg, errorbank.WithCause(err))
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the session claims stored by RequireSession, if any.
func ClaimsFrom(c echo.Context) (*authsvc.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*authsvc.Claims)
	return claims, ok
}

// Validator adapts go-playground/validator to echo.Validator. Field names in the
// error details use the JSON names the client sent.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorbank.BadRequest("invalid request payload", errorbank.WithCause(err))
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return errorbank.BadRequest("validation failed",
		errorbank.WithCause(err),
		errorbank.WithDetail("fields", fields),
	)
}
