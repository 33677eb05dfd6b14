package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleResponse is an order line as rendered by the sales board.
type SaleResponse struct {
	ID                 int64           `json:"id"`
	NumeroVenta        string          `json:"numeroVenta"`
	NumeroOrden        string          `json:"numeroOrden,omitempty"`
	SKU                string          `json:"sku"`
	Nombre             string          `json:"nombre"`
	Cantidad           int             `json:"cantidad"`
	PrecioUnitario     decimal.Decimal `json:"precioUnitario"`
	Cliente            string          `json:"cliente"`
	PuntoDespacho      string          `json:"puntoDespacho"`
	TipoEnvio          string          `json:"tipoEnvio,omitempty"`
	Nota               string          `json:"nota,omitempty"`
	Imagen             string          `json:"imagen,omitempty"`
	VariacionID        string          `json:"variacionId,omitempty"`
	Atributos          string          `json:"atributos,omitempty"`
	EsVentaMarketplace bool            `json:"esVentaMarketplace"`
	EsVentaTienda      bool            `json:"esVentaTienda"`
	Completada         bool            `json:"completada"`
	Entregada          bool            `json:"entregada"`
	Fecha              time.Time       `json:"fecha"`
}

// CreateSaleRequest is one manually entered order line. Required fields are checked by the sale service.
type CreateSaleRequest struct {
	NumeroVenta    string          `json:"numeroVenta"`
	SKU            string          `json:"sku"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	Cliente        string          `json:"cliente"`
	PuntoDespacho  string          `json:"puntoDespacho"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	TipoEnvio      string          `json:"tipoEnvio"`
	Nota           string          `json:"nota"`
	Imagen         string          `json:"imagen"`
	VariacionID    string          `json:"variacionId"`
	Atributos      string          `json:"atributos"`
}

// UpdateSaleRequest toggles the user-controlled flags of a row.
type UpdateSaleRequest struct {
	Completada *bool `json:"completada"`
	Entregada  *bool `json:"entregada"`
}
