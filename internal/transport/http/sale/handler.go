package sale

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/sistemact/internal/dto"
	"github.com/Additional-Code/sistemact/internal/entity"
	"github.com/Additional-Code/sistemact/internal/presentation/http/response"
	salerepo "github.com/Additional-Code/sistemact/internal/repository/sale"
	httpserver "github.com/Additional-Code/sistemact/internal/server/http"
	service "github.com/Additional-Code/sistemact/internal/service/sale"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/sistemact/transport/http/sale")

// Handler exposes the sales board endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a sale Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register binds the sales routes behind the session guard.
func Register(r *httpserver.Router, h *Handler) {
	r.GET("/cargar-ventas", h.list, r.RequireAuth)
	r.POST("/guardar-ventas", h.create, r.RequireAuth)
	r.PATCH("/actualizar-venta/:id", h.update, r.RequireAuth)
	r.PUT("/actualizar-venta/:id", h.update, r.RequireAuth)
	r.DELETE("/borrar-venta/:id", h.delete, r.RequireAuth)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.list")
	defer span.End()

	rows, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.SaleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return b.WithData(out).Build()
}

// create accepts either a single sale object or an array of them.
func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	payload, err := decodeSales(c.Request().Body)
	if err != nil {
		return b.WithError(err).Build()
	}

	rows := make([]entity.OrderLine, 0, len(payload))
	for _, p := range payload {
		rows = append(rows, fromDTO(p))
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.create", trace.WithAttributes(attribute.Int("sale.count", len(rows))))
	defer span.End()

	created, err := h.svc.Create(ctx, rows)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.SaleResponse, 0, len(created))
	for i := range created {
		out = append(out, toDTO(&created[i]))
	}
	return b.WithStatus(http.StatusCreated).WithData(out).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateSaleRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.update", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	row, err := h.svc.UpdateFlags(ctx, id, salerepo.Flags{
		Completed: payload.Completada,
		Delivered: payload.Entregada,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(row)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sales.delete", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.MessageResponse{Mensaje: "venta eliminada"}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func decodeSales(body io.Reader) ([]dto.CreateSaleRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errorbank.BadRequest("request body is required")
	}

	var out []dto.CreateSaleRequest
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &out)
	} else {
		var one dto.CreateSaleRequest
		err = json.Unmarshal(raw, &one)
		out = append(out, one)
	}
	if err != nil {
		return nil, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return out, nil
}

func fromDTO(p dto.CreateSaleRequest) entity.OrderLine {
	return entity.OrderLine{
		SaleNumber:    p.NumeroVenta,
		SKU:           p.SKU,
		ProductName:   p.Nombre,
		Quantity:      p.Cantidad,
		UnitPrice:     p.PrecioUnitario,
		CustomerName:  p.Cliente,
		DispatchPoint: p.PuntoDespacho,
		ShipmentType:  p.TipoEnvio,
		Note:          p.Nota,
		ImageURL:      p.Imagen,
		VariationID:   p.VariacionID,
		Attributes:    p.Atributos,
	}
}

func toDTO(row *entity.OrderLine) dto.SaleResponse {
	return dto.SaleResponse{
		ID:                 row.ID,
		NumeroVenta:        row.SaleNumber,
		NumeroOrden:        row.OrderID,
		SKU:                row.SKU,
		Nombre:             row.ProductName,
		Cantidad:           row.Quantity,
		PrecioUnitario:     row.UnitPrice,
		Cliente:            row.CustomerName,
		PuntoDespacho:      row.DispatchPoint,
		TipoEnvio:          row.ShipmentType,
		Nota:               row.Note,
		Imagen:             row.ImageURL,
		VariacionID:        row.VariationID,
		Atributos:          row.Attributes,
		EsVentaMarketplace: row.IsMarketplaceOrder,
		EsVentaTienda:      row.IsStorefrontOrder,
		Completada:         row.Completed,
		Entregada:          row.Delivered,
		Fecha:              row.CreatedAt,
	}
}
