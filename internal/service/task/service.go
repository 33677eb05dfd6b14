package task

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/entity"
	repo "github.com/Additional-Code/sistemact/internal/repository/task"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

// Task priorities.
const (
	PriorityLow    = "baja"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/sistemact/service/task")

// Service manages the internal task list.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(r *repo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: r, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.List")
	defer span.End()

	tasks, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load tasks", errorbank.WithCause(err))
	}
	return tasks, nil
}

func (s *Service) Create(ctx context.Context, task *entity.Task) error {
	if err := normalise(task); err != nil {
		return err
	}
	ctx, span := serviceTracer.Start(ctx, "TaskService.Create")
	defer span.End()

	task.ID = 0
	if err := s.repo.Create(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to create task", errorbank.WithCause(err))
	}
	return nil
}

// Update replaces the editable fields of task id and returns the stored row.
func (s *Service) Update(ctx context.Context, id int64, task *entity.Task) (*entity.Task, error) {
	if err := normalise(task); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "TaskService.Update", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer span.End()

	task.ID = id
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, translate(span, err, "failed to update task")
	}
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(span, err, "failed to load task")
	}
	return stored, nil
}

// DeleteMany removes tasks by id and reports how many were removed.
func (s *Service) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, errorbank.BadRequest("ids are required")
	}
	ctx, span := serviceTracer.Start(ctx, "TaskService.DeleteMany", trace.WithAttributes(attribute.Int("task.ids", len(ids))))
	defer span.End()

	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return 0, errorbank.Internal("failed to delete tasks", errorbank.WithCause(err))
	}
	s.logger.Debug("tasks deleted", zap.Int64("count", n))
	return n, nil
}

func normalise(task *entity.Task) error {
	if task == nil || strings.TrimSpace(task.Description) == "" {
		return errorbank.BadRequest("descripcion is required")
	}
	task.Description = strings.TrimSpace(task.Description)
	switch task.Priority = strings.ToLower(strings.TrimSpace(task.Priority)); task.Priority {
	case "":
		task.Priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return errorbank.BadRequest("invalid prioridad", errorbank.WithDetail("prioridad", task.Priority))
	}
	return nil
}

func translate(span trace.Span, err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("task not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
