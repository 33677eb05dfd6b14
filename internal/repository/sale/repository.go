package sale

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

var repoTracer = otel.Tracer("github.com/Additional-Code/sistemact/repository/sale")

// lookupBatch keeps IN lists under the sqlite bound parameter limit.
const lookupBatch = 500

var (
	// ErrNotFound is returned when a sale row is missing.
	ErrNotFound = errors.New("sale not found")
	// ErrDuplicate is returned when a sale number already exists.
	ErrDuplicate = errors.New("duplicate sale number")
)

// Flags carries the user-controlled state of a row; nil fields are left untouched.
type Flags struct {
	Completed *bool
	Delivered *bool
}

// Repository encapsulates read/write access for sale rows.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// List returns every row, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.List")
	defer span.End()

	rows := make([]entity.OrderLine, 0)
	if err := r.reader.NewSelect().Model(&rows).OrderExpr("id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// GetByID fetches a row by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.GetByID", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	row := new(entity.OrderLine)
	err := r.reader.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return row, nil
}

// CreateMany inserts rows in a single statement. An empty batch is a no-op.
func (r *Repository) CreateMany(ctx context.Context, rows []entity.OrderLine) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, span := repoTracer.Start(ctx, "SaleRepository.CreateMany", trace.WithAttributes(attribute.Int("sale.rows", len(rows))))
	defer span.End()

	now := time.Now().UTC()
	for i := range rows {
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		rows[i].UpdatedAt = now
	}

	_, err := r.writer.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
	}
	return err
}

// UpdateFlags updates the completion and delivery flags of one row.
func (r *Repository) UpdateFlags(ctx context.Context, id int64, flags Flags) error {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.UpdateFlags", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	q := r.writer.NewUpdate().Model((*entity.OrderLine)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if flags.Completed != nil {
		q = q.Set("completed = ?", *flags.Completed)
	}
	if flags.Delivered != nil {
		q = q.Set("delivered = ?", *flags.Delivered)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return expectAffected(res)
}

// Delete removes a row by primary key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.Delete", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.OrderLine)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return expectAffected(res)
}

// ListBySource returns the partition of rows flagged with src.
func (r *Repository) ListBySource(ctx context.Context, src entity.Source) ([]entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.ListBySource", trace.WithAttributes(attribute.String("sale.source", string(src))))
	defer span.End()

	rows := make([]entity.OrderLine, 0)
	expr, args := sourceWhere(src)
	if err := r.writer.NewSelect().Model(&rows).Where(expr, args...).Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// DeleteBySource removes the partition of rows flagged with src and reports how many were removed.
func (r *Repository) DeleteBySource(ctx context.Context, src entity.Source) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.DeleteBySource", trace.WithAttributes(attribute.String("sale.source", string(src))))
	defer span.End()

	expr, args := sourceWhere(src)
	res, err := r.writer.NewDelete().Model((*entity.OrderLine)(nil)).Where(expr, args...).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return 0, err
	}
	n, _ := res.RowsAffected()
	span.SetAttributes(attribute.Int64("sale.deleted", n))
	return n, nil
}

// SaleNumbersOutside returns the subset of numbers already held by rows outside the src partition.
func (r *Repository) SaleNumbersOutside(ctx context.Context, src entity.Source, numbers []string) ([]string, error) {
	taken := make([]string, 0)
	if len(numbers) == 0 {
		return taken, nil
	}
	ctx, span := repoTracer.Start(ctx, "SaleRepository.SaleNumbersOutside", trace.WithAttributes(
		attribute.String("sale.source", string(src)),
		attribute.Int("sale.numbers", len(numbers)),
	))
	defer span.End()

	expr, args := sourceWhere(src)
	for start := 0; start < len(numbers); start += lookupBatch {
		end := min(start+lookupBatch, len(numbers))
		var chunk []string
		err := r.writer.NewSelect().
			Model((*entity.OrderLine)(nil)).
			Column("sale_number").
			Where("sale_number IN (?)", bun.In(numbers[start:end])).
			Where("NOT ("+expr+")", args...).
			Scan(ctx, &chunk)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "select failed")
			return nil, err
		}
		taken = append(taken, chunk...)
	}
	span.SetAttributes(attribute.Int("sale.taken", len(taken)))
	return taken, nil
}

func sourceWhere(src entity.Source) (string, []any) {
	switch src {
	case entity.SourceMarketplace:
		return "is_marketplace_order = ?", []any{true}
	case entity.SourceStorefront:
		return "is_storefront_order = ?", []any{true}
	default:
		return "is_marketplace_order = ? AND is_storefront_order = ?", []any{false, false}
	}
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
