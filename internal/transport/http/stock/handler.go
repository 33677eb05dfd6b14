package stock

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
	service "github.com/Additional-Code/sistemact/internal/service/stock"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sistemact/transport/http/stock")

// Handler exposes the incoming merchandise (ingresos) endpoints.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func Register(r *httpserver.Router, h *Handler) {
	g := r.Group("/ingresos", r.RequireAuth)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("", h.deleteMany)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.list")
	defer span.End()

	items, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.IncomingStockResponse, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	item, err := bindItem(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.create")
	defer span.End()

	if err := h.svc.Create(ctx, item); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(item)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	item, err := bindItem(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.update", trace.WithAttributes(attribute.Int64("stock.id", id)))
	defer span.End()

	stored, err := h.svc.Update(ctx, id, item)
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

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.deleteMany")
	defer span.End()

	n, err := h.svc.DeleteMany(ctx, payload.IDs)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.DeleteManyResponse{Eliminados: n}).Build()
}

func bindItem(c echo.Context) (*entity.IncomingStock, error) {
	var payload dto.IncomingStockRequest
	if err := c.Bind(&payload); err != nil {
		return nil, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if err := c.Validate(&payload); err != nil {
		return nil, err
	}
	return &entity.IncomingStock{
		Barcode:  payload.CodigoBarras,
		SKU:      payload.SKU,
		Article:  payload.Articulo,
		Quantity: payload.Cantidad,
		Checked:  payload.Chequeado,
	}, nil
}

func toDTO(item *entity.IncomingStock) dto.IncomingStockResponse {
	return dto.IncomingStockResponse{
		ID:           item.ID,
		CodigoBarras: item.Barcode,
		SKU:          item.SKU,
		Articulo:     item.Article,
		Cantidad:     item.Quantity,
		Chequeado:    item.Checked,
		Fecha:        item.CreatedAt,
	}
}
