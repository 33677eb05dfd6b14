package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Source identifies where an order line came from.
type Source string

const (
	SourceManual      Source = "manual"
	SourceMarketplace Source = "marketplace"
	SourceStorefront  Source = "storefront"
)

// Dispatch points assigned to order lines for logistics routing.
const (
	DispatchFlex        = "Flex"
	DispatchPickupPoint = "Punto de Despacho"
	DispatchCoordinate  = "A coordinar"
)

// OrderLine is one row of the sales board, regardless of origin.
type OrderLine struct {
	bun.BaseModel `bun:"table:sales"`

	ID                 int64           `bun:",pk,autoincrement"`
	SaleNumber         string          `bun:"sale_number,notnull,unique"`
	OrderID            string          `bun:"order_id"`
	SKU                string          `bun:"sku"`
	ProductName        string          `bun:"product_name"`
	Quantity           int             `bun:"quantity,notnull"`
	UnitPrice          decimal.Decimal `bun:"unit_price,type:numeric(12,2),notnull"`
	CustomerName       string          `bun:"customer_name"`
	DispatchPoint      string          `bun:"dispatch_point"`
	ShipmentType       string          `bun:"shipment_type"`
	Note               string          `bun:"note"`
	ImageURL           string          `bun:"image_url"`
	VariationID        string          `bun:"variation_id"`
	Attributes         string          `bun:"attributes"`
	IsMarketplaceOrder bool            `bun:"is_marketplace_order,notnull"`
	IsStorefrontOrder  bool            `bun:"is_storefront_order,notnull"`
	Completed          bool            `bun:"completed,notnull"`
	Delivered          bool            `bun:"delivered,notnull"`
	CreatedAt          time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time       `bun:"updated_at,nullzero"`
}

// Source derives the provenance from the source flags.
func (o *OrderLine) Source() Source {
	switch {
	case o.IsMarketplaceOrder:
		return SourceMarketplace
	case o.IsStorefrontOrder:
		return SourceStorefront
	default:
		return SourceManual
	}
}

// SetSource sets the source flags so that at most one of them is true.
func (o *OrderLine) SetSource(src Source) {
	o.IsMarketplaceOrder = src == SourceMarketplace
	o.IsStorefrontOrder = src == SourceStorefront
}
