package credential

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/cache"
	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/entity"
	repo "github.com/Additional-Code/sistemact/internal/repository/credential"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/sistemact/service/credential")

// Service is the credential store used by the OAuth callback and the sync engine.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// Upsert stores cred, replacing any credential of the same platform account.
func (s *Service) Upsert(ctx context.Context, cred *entity.Credential) error {
	if cred == nil || strings.TrimSpace(cred.Platform) == "" || strings.TrimSpace(cred.AccountID) == "" {
		return errorbank.BadRequest("credential platform and account id are required")
	}
	if cred.AccessToken == "" {
		return errorbank.BadRequest("credential access token is required")
	}
	ctx, span := serviceTracer.Start(ctx, "CredentialService.Upsert", trace.WithAttributes(
		attribute.String("credential.platform", cred.Platform),
	))
	defer span.End()

	if err := s.repo.Upsert(ctx, cred); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to store credential", errorbank.WithCause(err))
	}

	if err := s.cache.Delete(ctx, cache.LatestCredentialKey(cred.Platform)); err != nil {
		s.logger.Warn("credential cache invalidation failed", zap.String("platform", cred.Platform), zap.Error(err))
	}

	s.logger.Info("credential stored",
		zap.String("platform", cred.Platform),
		zap.String("account_id", cred.AccountID),
	)
	return nil
}

// Latest returns the most recently issued credential of platform.
func (s *Service) Latest(ctx context.Context, platform string) (*entity.Credential, error) {
	ctx, span := serviceTracer.Start(ctx, "CredentialService.Latest", trace.WithAttributes(
		attribute.String("credential.platform", platform),
	))
	defer span.End()

	key := cache.LatestCredentialKey(platform)
	var cached entity.Credential
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("credential cache read failed", zap.String("platform", platform), zap.Error(err))
	}

	cred, err := s.repo.Latest(ctx, platform)
	if err != nil {
		return nil, s.translate(span, err)
	}

	if err := cache.SetJSON(ctx, s.cache, key, cred, s.cacheTTL); err != nil {
		s.logger.Warn("credential cache write failed", zap.String("platform", platform), zap.Error(err))
	}
	return cred, nil
}

// ForAccount returns the credential of one platform account.
func (s *Service) ForAccount(ctx context.Context, platform, accountID string) (*entity.Credential, error) {
	ctx, span := serviceTracer.Start(ctx, "CredentialService.ForAccount", trace.WithAttributes(
		attribute.String("credential.platform", platform),
		attribute.String("credential.account_id", accountID),
	))
	defer span.End()

	cred, err := s.repo.ForAccount(ctx, platform, accountID)
	if err != nil {
		return nil, s.translate(span, err)
	}
	return cred, nil
}

func (s *Service) translate(span trace.Span, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("credential not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal("failed to load credential", errorbank.WithCause(err))
}
