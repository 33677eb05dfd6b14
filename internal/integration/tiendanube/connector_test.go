package tiendanube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/entity"
	"github.com/Additional-Code/sistemact/internal/integration"
)

const ordersPage = `[
  {
    "id": 100,
    "payment_status": "paid",
    "status": "open",
    "note": " dejar en porteria ",
    "shipping_option": "Retiro en sucursal",
    "customer": {"name": "Ada Lovelace"},
    "products": [
      {"product_id": 5, "variant_id": 51, "name": "Remera", "sku": "REM-1", "quantity": "2", "price": "1500.50",
       "variant_values": ["Rojo", "M"], "image": {"src": "https://cdn.example.com/rem.jpg"}}
    ]
  },
  {
    "id": 101,
    "payment_status": "pending",
    "status": "open",
    "shipping_option": {"name": "Envio Flex"},
    "customer": {"name": "Grace"},
    "products": [{"product_id": 6, "name": "Buzo", "sku": "BUZ-1", "quantity": 1, "price": "9000.00"}]
  }
]`

func newConnector(t *testing.T, srv *httptest.Server) *Connector {
	t.Helper()
	return New(config.Platform{
		ClientID:     "4321",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/tiendanube/callback",
		UserAgent:    "SistemaCT test",
		AuthURL:      "https://www.tiendanube.com/apps",
		TokenURL:     srv.URL + "/apps/authorize/token",
		APIURL:       srv.URL,
	}, srv.Client(), nil)
}

func credential() *entity.Credential {
	return &entity.Credential{Platform: "tiendanube", AccountID: "777", AccessToken: "tn-token"}
}

func TestFetchPaidOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/777/orders", r.URL.Path)
		assert.Equal(t, "bearer tn-token", r.Header.Get("Authentication"))
		assert.Equal(t, "SistemaCT test", r.Header.Get("User-Agent"))
		assert.Equal(t, "paid", r.URL.Query().Get("payment_status"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ordersPage))
	}))
	defer srv.Close()

	orders, err := newConnector(t, srv).FetchPaidOrders(context.Background(), credential())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "100", o.ExternalOrderID)
	assert.Equal(t, "Ada Lovelace", o.CustomerName)
	assert.Equal(t, "Retiro en sucursal", o.ShippingLabel)
	assert.Equal(t, "dejar en porteria", o.Note)
	require.Len(t, o.LineItems, 1)

	item := o.LineItems[0]
	assert.Equal(t, "5", item.ProductID)
	assert.Equal(t, "51", item.VariationID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Rojo / M", item.VariantName)
	assert.Equal(t, "1500.5", item.UnitPrice.String())
	assert.Equal(t, "https://cdn.example.com/rem.jpg", item.ImageURL)
}

func TestFetchPaidOrdersStopsAtLastPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(fullPage()))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"message":"Not Found","description":"Last page is 1"}`))
	}))
	defer srv.Close()

	orders, err := newConnector(t, srv).FetchPaidOrders(context.Background(), credential())
	require.NoError(t, err)
	assert.Len(t, orders, pageSize)
	assert.Equal(t, 2, calls)
}

func TestFetchPaidOrdersUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid access token"}`))
	}))
	defer srv.Close()

	_, err := newConnector(t, srv).FetchPaidOrders(context.Background(), credential())
	var ue *integration.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Equal(t, integration.Tiendanube, ue.Platform)
}

func TestRowIDs(t *testing.T) {
	c := New(config.Platform{}, nil, nil)
	order := integration.Order{ExternalOrderID: "100", LineItems: []integration.LineItem{{ProductID: "5"}}}

	id := c.RowID(order, order.LineItems[0])
	assert.Equal(t, "TN-100-5", id)
	assert.Equal(t, "100", c.OrderIDFromRow(id))
	assert.Equal(t, "", c.OrderIDFromRow("100"))
	assert.Equal(t, "", c.OrderIDFromRow("ML-100-5"))
}

func TestAuthCodeURL(t *testing.T) {
	c := New(config.Platform{ClientID: "4321", AuthURL: "https://www.tiendanube.com/apps"}, nil, nil)

	u, err := url.Parse(c.AuthCodeURL("st4te"))
	require.NoError(t, err)
	assert.Equal(t, "/apps/4321/authorize", u.Path)
	assert.Equal(t, "st4te", u.Query().Get("state"))
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/authorize/token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tn-token","token_type":"bearer","scope":"read_orders","user_id":777}`))
	}))
	defer srv.Close()

	cred, err := newConnector(t, srv).Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "777", cred.AccountID)
	assert.Equal(t, "tn-token", cred.AccessToken)
}

func TestShippingLabel(t *testing.T) {
	assert.Equal(t, "", shippingLabel(nil))
	assert.Equal(t, "", shippingLabel([]byte("null")))
	assert.Equal(t, "Correo", shippingLabel([]byte(`"Correo"`)))
	assert.Equal(t, "Envio Flex", shippingLabel([]byte(`{"name":"Envio Flex"}`)))
}

func fullPage() string {
	out := "["
	for i := 0; i < pageSize; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"id":%d,"payment_status":"paid","products":[{"product_id":1,"quantity":1,"price":"10"}]}`, i+1)
	}
	return out + "]"
}
