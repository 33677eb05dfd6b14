package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

// TokenType distinguishes session tokens from OAuth state tokens.
type TokenType string

const (
	TokenTypeSession TokenType = "session"
	TokenTypeState   TokenType = "oauth_state"
)

const issuer = "sistemact"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims are carried by every token the service signs.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// Service authenticates the operator and signs session and OAuth state tokens.
type Service struct {
	username     string
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration
	stateTTL     time.Duration
	now          func() time.Time
}

// NewService builds a Service from the auth configuration. Without a configured secret an
// ephemeral one is generated, so tokens do not survive a restart.
func NewService(cfg config.Config, logger *zap.Logger) *Service {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; using an ephemeral signing secret")
		secret = uuid.NewString() + uuid.NewString()
	}
	if cfg.Auth.Username == "" || cfg.Auth.PasswordHash == "" {
		logger.Warn("operator login is not configured; /auth/login will reject every attempt")
	}
	return &Service{
		username:     cfg.Auth.Username,
		passwordHash: []byte(cfg.Auth.PasswordHash),
		secret:       []byte(secret),
		tokenTTL:     cfg.Auth.TokenTTL,
		stateTTL:     cfg.Auth.StateTTL,
		now:          time.Now,
	}
}

// Login checks the operator credentials and returns a signed session token.
func (s *Service) Login(_ context.Context, username, password string) (string, time.Time, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", time.Time{}, errorbank.BadRequest("username and password are required")
	}
	if s.username == "" || len(s.passwordHash) == 0 {
		return "", time.Time{}, errorbank.Unauthorized("invalid credentials")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, errorbank.Unauthorized("invalid credentials")
	}

	expires := s.now().Add(s.tokenTTL)
	token, err := s.sign(username, TokenTypeSession, expires)
	if err != nil {
		return "", time.Time{}, errorbank.Internal("failed to sign token", errorbank.WithCause(err))
	}
	return token, expires, nil
}

// ValidateSession parses a session token and returns its claims.
func (s *Service) ValidateSession(token string) (*Claims, error) {
	return s.parse(token, TokenTypeSession)
}

// NewState signs a short-lived OAuth state bound to platform.
func (s *Service) NewState(platform string) (string, error) {
	return s.sign(platform, TokenTypeState, s.now().Add(s.stateTTL))
}

// VerifyState checks that state was issued by NewState for platform.
func (s *Service) VerifyState(state, platform string) error {
	claims, err := s.parse(state, TokenTypeState)
	if err != nil {
		return err
	}
	if claims.Subject != platform {
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) sign(subject string, typ TokenType, expires time.Time) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) parse(token string, expected TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash stored in AUTH_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
