package task

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

var repoTracer = otel.Tracer("github.com/Additional-Code/sistemact/repository/task")

// ErrNotFound is returned when a task is missing.
var ErrNotFound = errors.New("task not found")

// Repository encapsulates read/write access for tasks.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// List returns all tasks, pending first.
func (r *Repository) List(ctx context.Context) ([]entity.Task, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.List")
	defer span.End()

	tasks := make([]entity.Task, 0)
	if err := r.reader.NewSelect().Model(&tasks).OrderExpr("completed ASC, id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tasks, nil
}

// Create persists a new task.
func (r *Repository) Create(ctx context.Context, task *entity.Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	ctx, span := repoTracer.Start(ctx, "TaskRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	if _, err := r.writer.NewInsert().Model(task).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites the editable columns of a task.
func (r *Repository) Update(ctx context.Context, task *entity.Task) error {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.Update", trace.WithAttributes(attribute.Int64("task.id", task.ID)))
	defer span.End()

	task.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().Model(task).
		Column("description", "priority", "completed", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return expectAffected(res)
}

// GetByID fetches a task by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.GetByID", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer span.End()

	task := new(entity.Task)
	err := r.reader.NewSelect().Model(task).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return task, nil
}

// DeleteMany removes the given tasks and reports how many rows were removed.
func (r *Repository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, span := repoTracer.Start(ctx, "TaskRepository.DeleteMany", trace.WithAttributes(attribute.Int("task.ids", len(ids))))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Task)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
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
