// Package integration defines the boundary between remote sales platforms and the
// reconciliation engine. Connectors translate each platform's payloads into Order values
// before any domain logic sees them.
package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/Additional-Code/sistemact/internal/entity"
)

// Platform names a remote sales platform. The value is also its URL slug.
type Platform string

const (
	MercadoLibre Platform = "mercadolibre"
	Tiendanube   Platform = "tiendanube"
)

// PaymentStatusPaid is the only payment status that produces order lines.
const PaymentStatusPaid = "paid"

// Order is the platform-neutral shape of a remote order.
type Order struct {
	ExternalOrderID string
	PaymentStatus   string
	CustomerName    string
	ShippingLabel   string
	Note            string
	LineItems       []LineItem
}

// Paid reports whether the order is fully paid.
func (o Order) Paid() bool {
	return strings.EqualFold(strings.TrimSpace(o.PaymentStatus), PaymentStatusPaid)
}

// LineItem is one product line of an Order.
type LineItem struct {
	ProductID   string
	VariationID string
	SKU         string
	Name        string
	VariantName string
	Quantity    int
	UnitPrice   decimal.Decimal
	ImageURL    string
}

// Connector is implemented by every platform integration.
type Connector interface {
	Platform() Platform
	// Source is the order line partition owned by the platform.
	Source() entity.Source
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*entity.Credential, error)
	// FetchPaidOrders returns the open, paid orders of the credential's account.
	FetchPaidOrders(ctx context.Context, cred *entity.Credential) ([]Order, error)
	// RowID synthesizes the unique sale number of one line item.
	RowID(order Order, item LineItem) string
	// OrderIDFromRow recovers the order-level id from a sale number, or "" if it cannot.
	OrderIDFromRow(saleNumber string) string
}

// ConnectorGroup is the Fx value group connectors register into.
const ConnectorGroup = `group:"integration.connectors"`

// Params collects connectors from the Fx graph.
type Params struct {
	fx.In

	Connectors []Connector `group:"integration.connectors"`
}

// Module provides the connector Registry.
var Module = fx.Provide(NewRegistry)

// Registry resolves connectors by platform.
type Registry struct {
	connectors map[Platform]Connector
}

// NewRegistry builds a Registry from the connectors in the Fx graph.
func NewRegistry(p Params) *Registry {
	return New(p.Connectors...)
}

// New builds a Registry from explicit connectors.
func New(connectors ...Connector) *Registry {
	m := make(map[Platform]Connector, len(connectors))
	for _, c := range connectors {
		if c == nil {
			continue
		}
		m[c.Platform()] = c
	}
	return &Registry{connectors: m}
}

// Get returns the connector registered for p.
func (r *Registry) Get(p Platform) (Connector, bool) {
	c, ok := r.connectors[p]
	return c, ok
}

// Platforms lists the registered platforms in a stable order.
func (r *Registry) Platforms() []Platform {
	out := make([]Platform, 0, len(r.connectors))
	for p := range r.connectors {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePlatform validates a platform slug.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case MercadoLibre, Tiendanube:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}
