package tiendanube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

// RowPrefix prefixes every synthesized sale number.
const RowPrefix = "TN"

const (
	pageSize = 200
	maxPages = 50
)

var tracer = otel.Tracer("github.com/Additional-Code/sistemact/integration/tiendanube")

// Module registers the Tiendanube connector.
var Module = fx.Provide(
	fx.Annotate(
		NewFromConfig,
		fx.As(new(integration.Connector)),
		fx.ResultTags(integration.ConnectorGroup),
	),
)

// Connector talks to the Tiendanube storefront API.
type Connector struct {
	cfg        config.Platform
	httpClient *http.Client
	oauth      *oauth2.Config
	logger     *zap.Logger
}

// NewFromConfig builds a connector from application configuration.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Connector {
	return New(cfg.Tiendanube, &http.Client{Timeout: cfg.Tiendanube.HTTPTimeout}, logger)
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
		logger:     logger.With(zap.String("platform", string(integration.Tiendanube))),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   fmt.Sprintf("%s/%s/authorize", cfg.AuthURL, cfg.ClientID),
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (c *Connector) Platform() integration.Platform { return integration.Tiendanube }

func (c *Connector) Source() entity.Source { return entity.SourceStorefront }

// AuthCodeURL returns the app installation URL.
func (c *Connector) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the installation code for a store token.
func (c *Connector) Exchange(ctx context.Context, code string) (*entity.Credential, error) {
	ctx, span := tracer.Start(ctx, "tiendanube.Exchange")
	defer span.End()

	cred, err := integration.ExchangeCode(ctx, integration.Tiendanube, c.oauth, c.httpClient, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		c.logger.Error("tiendanube token exchange failed", zap.Error(err))
		return nil, err
	}
	return cred, nil
}

// FetchPaidOrders pages through the open, paid orders of the store.
func (c *Connector) FetchPaidOrders(ctx context.Context, cred *entity.Credential) ([]integration.Order, error) {
	ctx, span := tracer.Start(ctx, "tiendanube.FetchPaidOrders", trace.WithAttributes(
		attribute.String("store.id", cred.AccountID),
	))
	defer span.End()

	var orders []integration.Order
	for page := 1; page <= maxPages; page++ {
		batch, last, err := c.fetchPage(ctx, cred, page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			c.logger.Error("tiendanube orders request failed", zap.Int("page", page), zap.Error(err))
			return nil, err
		}
		for _, o := range batch {
			order := toOrder(o)
			if !order.Paid() {
				continue
			}
			orders = append(orders, order)
		}
		if last {
			break
		}
	}

	span.SetAttributes(attribute.Int("orders.fetched", len(orders)))
	return orders, nil
}

func (c *Connector) fetchPage(ctx context.Context, cred *entity.Credential, page int) ([]tnOrder, bool, error) {
	q := url.Values{}
	q.Set("payment_status", integration.PaymentStatusPaid)
	q.Set("status", "open")
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/%s/orders?%s", c.cfg.APIURL, url.PathEscape(cred.AccountID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authentication", "bearer "+cred.AccessToken)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/json")

	var batch []tnOrder
	err = integration.Do(c.httpClient, integration.Tiendanube, "list orders", req, &batch)
	var ue *integration.UpstreamError
	if errors.As(err, &ue) && isPastLastPage(ue) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return batch, len(batch) < pageSize, nil
}

// Tiendanube answers 404 "Last page is N" when paging beyond the results.
func isPastLastPage(err *integration.UpstreamError) bool {
	return err.Status == http.StatusNotFound && strings.Contains(err.Body, "Last page")
}

// RowID keeps one row per product line: TN-{order}-{product}.
func (c *Connector) RowID(order integration.Order, item integration.LineItem) string {
	return fmt.Sprintf("%s-%s-%s", RowPrefix, order.ExternalOrderID, item.ProductID)
}

// OrderIDFromRow parses TN-{order}-{product}.
func (c *Connector) OrderIDFromRow(saleNumber string) string {
	parts := strings.Split(saleNumber, "-")
	if len(parts) != 3 || parts[0] != RowPrefix {
		return ""
	}
	return parts[1]
}

type tnOrder struct {
	ID             int64           `json:"id"`
	Number         int64           `json:"number"`
	PaymentStatus  string          `json:"payment_status"`
	Status         string          `json:"status"`
	Note           string          `json:"note"`
	ShippingOption json.RawMessage `json:"shipping_option"`
	Customer       struct {
		Name string `json:"name"`
	} `json:"customer"`
	Products []tnProduct `json:"products"`
}

type tnProduct struct {
	ProductID     int64               `json:"product_id"`
	VariantID     int64               `json:"variant_id"`
	Name          string              `json:"name"`
	SKU           string              `json:"sku"`
	Quantity      integration.FlexInt `json:"quantity"`
	Price         decimal.Decimal     `json:"price"`
	VariantValues []string            `json:"variant_values"`
	Image         *struct {
		Src string `json:"src"`
	} `json:"image"`
}

func toOrder(o tnOrder) integration.Order {
	order := integration.Order{
		ExternalOrderID: strconv.FormatInt(o.ID, 10),
		PaymentStatus:   o.PaymentStatus,
		CustomerName:    strings.TrimSpace(o.Customer.Name),
		ShippingLabel:   shippingLabel(o.ShippingOption),
		Note:            strings.TrimSpace(o.Note),
		LineItems:       make([]integration.LineItem, 0, len(o.Products)),
	}
	for _, p := range o.Products {
		item := integration.LineItem{
			ProductID:   strconv.FormatInt(p.ProductID, 10),
			SKU:         p.SKU,
			Name:        p.Name,
			VariantName: strings.Join(p.VariantValues, " / "),
			Quantity:    int(p.Quantity),
			UnitPrice:   p.Price,
		}
		if p.VariantID != 0 {
			item.VariationID = strconv.FormatInt(p.VariantID, 10)
		}
		if p.Image != nil {
			item.ImageURL = p.Image.Src
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}

// shipping_option is a plain string on most stores and an object on some API versions.
func shippingLabel(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}
