package dto

import "time"

// TaskResponse is an internal task.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Descripcion string    `json:"descripcion"`
	Prioridad   string    `json:"prioridad"`
	Completada  bool      `json:"completada"`
	Fecha       time.Time `json:"fecha"`
}

// TaskRequest creates or replaces a task.
type TaskRequest struct {
	Descripcion string `json:"descripcion" validate:"required"`
	Prioridad   string `json:"prioridad" validate:"omitempty,oneof=baja media alta"`
	Completada  bool   `json:"completada"`
}

// IncomingStockResponse is one line of a merchandise receipt.
type IncomingStockResponse struct {
	ID           int64     `json:"id"`
	CodigoBarras string    `json:"codigoBarras"`
	SKU          string    `json:"sku"`
	Articulo     string    `json:"articulo"`
	Cantidad     int       `json:"cantidad"`
	Chequeado    bool      `json:"chequeado"`
	Fecha        time.Time `json:"fecha"`
}

// IncomingStockRequest creates or replaces a receipt line.
type IncomingStockRequest struct {
	CodigoBarras string `json:"codigoBarras"`
	SKU          string `json:"sku"`
	Articulo     string `json:"articulo" validate:"required"`
	Cantidad     int    `json:"cantidad" validate:"gte=0"`
	Chequeado    bool   `json:"chequeado"`
}

// DeleteManyRequest lists the ids removed by a bulk delete.
type DeleteManyRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// DeleteManyResponse reports how many rows a bulk delete removed.
type DeleteManyResponse struct {
	Eliminados int64 `json:"eliminados"`
}
