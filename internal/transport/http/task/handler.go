package task

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/sistemact/internal/dto"
	"github.com/Additional-Code/sistemact/internal/entity"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	service "github.com/Additional-Code/sistemact/internal/service/task"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sistemact/transport/http/task")

// Handler exposes task endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a task Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register binds the /tareas routes behind the session guard.
func Register(r *httpserver.Router, h *Handler) {
	g := r.Group("/tareas", r.RequireAuth)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("", h.deleteMany)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.list")
	defer span.End()

	tasks, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toDTO(&tasks[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	task, err := bindTask(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.create")
	defer span.End()

	if err := h.svc.Create(ctx, task); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(task)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	task, err := bindTask(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.update", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer span.End()

	stored, err := h.svc.Update(ctx, id, task)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(stored)).Build()
}

func (h *Handler) deleteMany(c echo.Context) error {
	b := response.New(c)

	var payload dto.DeleteManyRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.deleteMany")
	defer span.End()

	n, err := h.svc.DeleteMany(ctx, payload.IDs)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.DeleteManyResponse{Eliminados: n}).Build()
}

func bindTask(c echo.Context) (*entity.Task, error) {
	var payload dto.TaskRequest
	if err := c.Bind(&payload); err != nil {
		return nil, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if err := c.Validate(&payload); err != nil {
		return nil, err
	}
	return &entity.Task{
		Description: payload.Descripcion,
		Priority:    payload.Prioridad,
		Completed:   payload.Completada,
	}, nil
}

func toDTO(task *entity.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID,
		Descripcion: task.Description,
		Prioridad:   task.Priority,
		Completada:  task.Completed,
		Fecha:       task.CreatedAt,
	}
}
