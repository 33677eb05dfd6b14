package sale

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
	"github.com/Additional-Code/sistemact/internal/messaging"
	repo "github.com/Additional-Code/sistemact/internal/repository/sale"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

// EventSaleCreated is published after manual order lines are stored.
const EventSaleCreated = "sale.created"

var serviceTracer = otel.Tracer("github.com/Additional-Code/sistemact/service/sale")

// Service encapsulates business logic around the sales board.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: p.Config.Messaging.Enabled,
	}
}

// List returns every order line, newest first.
func (s *Service) List(ctx context.Context) ([]entity.OrderLine, error) {
	ctx, span := serviceTracer.Start(ctx, "SaleService.List")
	defer span.End()

	var rows []entity.OrderLine
	err := cache.GetJSON(ctx, s.cache, cache.SalesListKey, &rows)
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("sales cache read failed", zap.Error(err))
	}

	rows, err = s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load sales", errorbank.WithCause(err))
	}

	if err := cache.SetJSON(ctx, s.cache, cache.SalesListKey, rows, s.cacheTTL); err != nil {
		s.logger.Warn("sales cache write failed", zap.Error(err))
	}
	return rows, nil
}

// Create stores manually entered order lines in one batch.
func (s *Service) Create(ctx context.Context, rows []entity.OrderLine) ([]entity.OrderLine, error) {
	if len(rows) == 0 {
		return nil, errorbank.BadRequest("at least one sale is required")
	}
	for i := range rows {
		if err := validate(&rows[i]); err != nil {
			return nil, err
		}
		rows[i].ID = 0
		rows[i].SetSource(entity.SourceManual)
	}

	ctx, span := serviceTracer.Start(ctx, "SaleService.Create", trace.WithAttributes(attribute.Int("sale.count", len(rows))))
	defer span.End()

	if err := s.repo.CreateMany(ctx, rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errorbank.Internal("sale number already exists", errorbank.WithCause(err))
		}
		return nil, errorbank.Internal("failed to create sale", errorbank.WithCause(err))
	}

	s.InvalidateList(ctx)
	s.publishCreated(ctx, rows)
	return rows, nil
}

// UpdateFlags sets completada and/or entregada on one row.
func (s *Service) UpdateFlags(ctx context.Context, id int64, flags repo.Flags) (*entity.OrderLine, error) {
	if flags.Completed == nil && flags.Delivered == nil {
		return nil, errorbank.BadRequest("completada or entregada is required")
	}
	ctx, span := serviceTracer.Start(ctx, "SaleService.UpdateFlags", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	if err := s.repo.UpdateFlags(ctx, id, flags); err != nil {
		return nil, s.translate(span, err, "failed to update sale")
	}
	s.InvalidateList(ctx)

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load sale")
	}
	return row, nil
}

// Delete removes one row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "SaleService.Delete", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(span, err, "failed to delete sale")
	}
	s.InvalidateList(ctx)
	return nil
}

// InvalidateList drops the cached sales listing.
func (s *Service) InvalidateList(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.SalesListKey); err != nil {
		s.logger.Warn("sales cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) translate(span trace.Span, err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("sale not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(msg, errorbank.WithCause(err))
}

func (s *Service) publishCreated(ctx context.Context, rows []entity.OrderLine) {
	if !s.messaging || s.publisher == nil {
		return
	}
	event := SaleCreatedEvent{
		SaleNumbers: make([]string, 0, len(rows)),
		CreatedAt:   time.Now().UTC(),
	}
	for _, r := range rows {
		event.SaleNumbers = append(event.SaleNumbers, r.SaleNumber)
	}
	if err := messaging.PublishJSON(ctx, s.publisher, EventSaleCreated, event.SaleNumbers[0], event); err != nil {
		s.logger.Error("publish sale created", zap.Error(err))
	}
}

func validate(row *entity.OrderLine) error {
	row.SaleNumber = strings.TrimSpace(row.SaleNumber)
	missing := make([]string, 0)
	if row.SaleNumber == "" {
		missing = append(missing, "numeroVenta")
	}
	if strings.TrimSpace(row.SKU) == "" {
		missing = append(missing, "sku")
	}
	if strings.TrimSpace(row.ProductName) == "" {
		missing = append(missing, "nombre")
	}
	if row.Quantity <= 0 {
		missing = append(missing, "cantidad")
	}
	if strings.TrimSpace(row.CustomerName) == "" {
		missing = append(missing, "cliente")
	}
	if strings.TrimSpace(row.DispatchPoint) == "" {
		missing = append(missing, "puntoDespacho")
	}
	if len(missing) > 0 {
		return errorbank.BadRequest("missing required fields", errorbank.WithDetail("fields", missing))
	}
	return nil
}

// SaleCreatedEvent is emitted when manual order lines are persisted.
type SaleCreatedEvent struct {
	SaleNumbers []string  `json:"sale_numbers"`
	CreatedAt   time.Time `json:"created_at"`
}
