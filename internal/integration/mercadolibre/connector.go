package mercadolibre

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/entity"
	"github.com/Additional-Code/sistemact/internal/integration"
)

// RowPrefix prefixes sale numbers of multi-item orders.
const RowPrefix = "ML"

// FlexLabel is the shipping label given to self-service (Flex) shipments.
const FlexLabel = "Mercado Envíos Flex"

const (
	pageSize   = 50
	maxOffset  = 5000
	selfServed = "self_service"
)

var tracer = otel.Tracer("github.com/Additional-Code/sistemact/integration/mercadolibre")

// Module registers the Mercado Libre connector.
var Module = fx.Provide(
	fx.Annotate(
		NewFromConfig,
		fx.As(new(integration.Connector)),
		fx.ResultTags(integration.ConnectorGroup),
	),
)

// Connector talks to the Mercado Libre marketplace API.
type Connector struct {
	cfg        config.Platform
	httpClient *http.Client
	oauth      *oauth2.Config
	logger     *zap.Logger
}

// NewFromConfig builds a connector from application configuration.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Connector {
	return New(cfg.MercadoLibre, &http.Client{Timeout: cfg.MercadoLibre.HTTPTimeout}, logger)
}

// New builds a connector with an explicit HTTP client.
func New(cfg config.Platform, client *http.Client, logger *zap.Logger) *Connector {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		cfg:        cfg,
		httpClient: client,
		logger:     logger.With(zap.String("platform", string(integration.MercadoLibre))),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (c *Connector) Platform() integration.Platform { return integration.MercadoLibre }

func (c *Connector) Source() entity.Source { return entity.SourceMarketplace }

func (c *Connector) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *Connector) Exchange(ctx context.Context, code string) (*entity.Credential, error) {
	ctx, span := tracer.Start(ctx, "mercadolibre.Exchange")
	defer span.End()

	cred, err := integration.ExchangeCode(ctx, integration.MercadoLibre, c.oauth, c.httpClient, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		c.logger.Error("mercadolibre token exchange failed", zap.Error(err))
		return nil, err
	}
	return cred, nil
}

// FetchPaidOrders searches the seller's paid orders and resolves each shipment's logistic type.
func (c *Connector) FetchPaidOrders(ctx context.Context, cred *entity.Credential) ([]integration.Order, error) {
	ctx, span := tracer.Start(ctx, "mercadolibre.FetchPaidOrders", trace.WithAttributes(
		attribute.String("seller.id", cred.AccountID),
	))
	defer span.End()

	fail := func(err error) ([]integration.Order, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		c.logger.Error("mercadolibre orders request failed", zap.Error(err))
		return nil, err
	}

	var orders []integration.Order
	for offset := 0; offset < maxOffset; offset += pageSize {
		page, err := c.searchOrders(ctx, cred, offset)
		if err != nil {
			return fail(err)
		}
		for _, o := range page.Results {
			if !strings.EqualFold(o.Status, integration.PaymentStatusPaid) {
				continue
			}
			label, err := c.shippingLabel(ctx, cred, o.Shipping.ID)
			if err != nil {
				return fail(err)
			}
			orders = append(orders, toOrder(o, label))
		}
		if len(page.Results) < pageSize || offset+pageSize >= page.Paging.Total {
			break
		}
	}

	span.SetAttributes(attribute.Int("orders.fetched", len(orders)))
	return orders, nil
}

func (c *Connector) searchOrders(ctx context.Context, cred *entity.Credential, offset int) (*mlSearch, error) {
	q := url.Values{}
	q.Set("seller", cred.AccountID)
	q.Set("order.status", integration.PaymentStatusPaid)
	q.Set("sort", "date_desc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(pageSize))

	req, err := c.newRequest(ctx, cred, "/orders/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var out mlSearch
	if err := integration.Do(c.httpClient, integration.MercadoLibre, "search orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Connector) shippingLabel(ctx context.Context, cred *entity.Credential, shipmentID int64) (string, error) {
	if shipmentID == 0 {
		// no shipment: buyer and seller arrange delivery
		return "", nil
	}
	req, err := c.newRequest(ctx, cred, fmt.Sprintf("/shipments/%d", shipmentID))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-format-new", "true")

	var shipment mlShipment
	if err := integration.Do(c.httpClient, integration.MercadoLibre, "get shipment", req, &shipment); err != nil {
		return "", err
	}
	logistic := shipment.Logistic.Type
	if logistic == "" {
		logistic = shipment.LogisticType
	}
	if logistic == selfServed {
		return FlexLabel, nil
	}
	return logistic, nil
}

func (c *Connector) newRequest(ctx context.Context, cred *entity.Credential, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	return req, nil
}

// RowID uses the order id for single-item orders and ML-{order}-{item} otherwise.
func (c *Connector) RowID(order integration.Order, item integration.LineItem) string {
	if len(order.LineItems) <= 1 {
		return order.ExternalOrderID
	}
	return fmt.Sprintf("%s-%s-%s", RowPrefix, order.ExternalOrderID, item.ProductID)
}

func (c *Connector) OrderIDFromRow(saleNumber string) string {
	if !strings.HasPrefix(saleNumber, RowPrefix+"-") {
		return saleNumber
	}
	parts := strings.Split(saleNumber, "-")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

type mlSearch struct {
	Results []mlOrder `json:"results"`
	Paging  struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

type mlOrder struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Buyer  struct {
		Nickname  string `json:"nickname"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"buyer"`
	Shipping struct {
		ID int64 `json:"id"`
	} `json:"shipping"`
	OrderItems []mlOrderItem `json:"order_items"`
}

type mlOrderItem struct {
	Item struct {
		ID                  string `json:"id"`
		Title               string `json:"title"`
		SellerSKU           string `json:"seller_sku"`
		VariationID         int64  `json:"variation_id"`
		VariationAttributes []struct {
			Name      string `json:"name"`
			ValueName string `json:"value_name"`
		} `json:"variation_attributes"`
	} `json:"item"`
	Quantity  integration.FlexInt `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unit_price"`
}

type mlShipment struct {
	LogisticType string `json:"logistic_type"`
	Logistic     struct {
		Type string `json:"type"`
	} `json:"logistic"`
}

func toOrder(o mlOrder, label string) integration.Order {
	customer := strings.TrimSpace(o.Buyer.FirstName + " " + o.Buyer.LastName)
	if customer == "" {
		customer = o.Buyer.Nickname
	}
	order := integration.Order{
		ExternalOrderID: strconv.FormatInt(o.ID, 10),
		PaymentStatus:   o.Status,
		CustomerName:    customer,
		ShippingLabel:   label,
		LineItems:       make([]integration.LineItem, 0, len(o.OrderItems)),
	}
	for _, it := range o.OrderItems {
		attrs := make([]string, 0, len(it.Item.VariationAttributes))
		for _, a := range it.Item.VariationAttributes {
			attrs = append(attrs, fmt.Sprintf("%s: %s", a.Name, a.ValueName))
		}
		item := integration.LineItem{
			ProductID:   it.Item.ID,
			SKU:         it.Item.SellerSKU,
			Name:        it.Item.Title,
			VariantName: strings.Join(attrs, ", "),
			Quantity:    int(it.Quantity),
			UnitPrice:   it.UnitPrice,
		}
		if it.Item.VariationID != 0 {
			item.VariationID = strconv.FormatInt(it.Item.VariationID, 10)
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}
