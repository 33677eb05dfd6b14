package stock

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/sistemact/internal/database"
	"github.com/Additional-Code/sistemact/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/sistemact/repository/stock")

// ErrNotFound is returned when an incoming stock line is missing.
var ErrNotFound = errors.New("incoming stock not found")

// Repository encapsulates read/write access for incoming stock lines.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// List returns all incoming stock lines, unchecked first.
func (r *Repository) List(ctx context.Context) ([]entity.IncomingStock, error) {
	ctx, span := repoTracer.Start(ctx, "StockRepository.List")
	defer span.End()

	items := make([]entity.IncomingStock, 0)
	if err := r.reader.NewSelect().Model(&items).OrderExpr("checked ASC, id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// Create persists a new incoming stock line.
func (r *Repository) Create(ctx context.Context, item *entity.IncomingStock) error {
	if item == nil {
		return errors.New("nil stock line")
	}
	ctx, span := repoTracer.Start(ctx, "StockRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if _, err := r.writer.NewInsert().Model(item).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites the editable columns of a stock line.
func (r *Repository) Update(ctx context.Context, item *entity.IncomingStock) error {
	ctx, span := repoTracer.Start(ctx, "StockRepository.Update", trace.WithAttributes(attribute.Int64("stock.id", item.ID)))
	defer span.End()

	item.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().Model(item).
		Column("barcode", "sku", "article", "quantity", "checked", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return expectAffected(res)
}

// GetByID fetches a stock line by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.IncomingStock, error) {
	ctx, span := repoTracer.Start(ctx, "StockRepository.GetByID", trace.WithAttributes(attribute.Int64("stock.id", id)))
	defer span.End()

	item := new(entity.IncomingStock)
	err := r.reader.NewSelect().Model(item).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// DeleteMany removes the given stock lines and reports how many rows were removed.
func (r *Repository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, span := repoTracer.Start(ctx, "StockRepository.DeleteMany", trace.WithAttributes(attribute.Int("stock.ids", len(ids))))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.IncomingStock)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return 0, err
	}
	return res.RowsAffected()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
