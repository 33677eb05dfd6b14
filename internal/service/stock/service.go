package stock

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/sistemact/internal/entity"
	repo "github.com/Additional-Code/sistemact/internal/repository/stock"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/sistemact/service/stock")

// Service manages incoming merchandise lines.
type Service struct {
	repo *repo.Repository
}

func NewService(r *repo.Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) List(ctx context.Context) ([]entity.IncomingStock, error) {
	ctx, span := serviceTracer.Start(ctx, "StockService.List")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, err, "failed to load incoming stock")
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, item *entity.IncomingStock) error {
	if err := normalise(item); err != nil {
		return err
	}
	ctx, span := serviceTracer.Start(ctx, "StockService.Create")
	defer span.End()

	item.ID = 0
	if err := s.repo.Create(ctx, item); err != nil {
		return fail(span, err, "failed to create incoming stock")
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, item *entity.IncomingStock) (*entity.IncomingStock, error) {
	if err := normalise(item); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "StockService.Update", trace.WithAttributes(attribute.Int64("stock.id", id)))
	defer span.End()

	item.ID = id
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fail(span, err, "failed to update incoming stock")
	}
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "failed to load incoming stock")
	}
	return stored, nil
}

func (s *Service) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, errorbank.BadRequest("ids are required")
	}
	ctx, span := serviceTracer.Start(ctx, "StockService.DeleteMany", trace.WithAttributes(attribute.Int("stock.ids", len(ids))))
	defer span.End()

	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fail(span, err, "failed to delete incoming stock")
	}
	return n, nil
}

func normalise(item *entity.IncomingStock) error {
	if item == nil || strings.TrimSpace(item.Article) == "" {
		return errorbank.BadRequest("articulo is required")
	}
	if item.Quantity < 0 {
		return errorbank.BadRequest("cantidad must not be negative")
	}
	item.Article = strings.TrimSpace(item.Article)
	item.Barcode = strings.TrimSpace(item.Barcode)
	item.SKU = strings.TrimSpace(item.SKU)
	return nil
}

func fail(span trace.Span, err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("incoming stock not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
