package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ShopFulfillment/internal/api/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestClient(url string) *Client {
	return New(Config{
		BaseURL:          url,
		ConfirmationPath: "/v1/messages/order-confirmation",
		ShipmentPath:     "/v1/messages/shipment",
		Timeout:          5 * time.Second,
	}, nil)
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		minor    int64
		currency string
		expected string
	}{
		{minor: 2599, currency: "USD", expected: "25.99 USD"},
		{minor: 2500, currency: "eur", expected: "25.00 EUR"},
		{minor: 5, currency: "USD", expected: "0.05 USD"},
		{minor: 1500, currency: "JPY", expected: "1500 JPY"},
		{minor: 12345, currency: "KWD", expected: "12.345 KWD"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FormatAmount(tc.minor, tc.currency))
	}
}

func TestClient_SendOrderConfirmation(t *testing.T) {
	t.Parallel()

	o := order.Order{
		ID:       "order-1",
		Email:    "buyer@example.com",
		Amount:   3500,
		Currency: "USD",
		Items: []order.LineItem{
			{ProductRef: "ebook-1", Quantity: 1, UnitPrice: 1500, FilePath: "books/go.pdf"},
			{ProductRef: "mug", Quantity: 2, UnitPrice: 1000},
		},
	}

	t.Run("should send totals and the download link", func(t *testing.T) {
		// given
		var (
			got  confirmationReq
			keys []string
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages/order-confirmation", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			keys = append(keys, r.Header.Get(idempotencyHeader))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		// when
		err := newTestClient(server.URL).SendOrderConfirmation(context.Background(), order.OrderConfirmation{
			Order:    o,
			Download: &order.DownloadGrant{Token: "tok", ExpiresAt: t0},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"order-confirmation:order-1"}, keys)
		assert.Equal(t, "35.00 USD", got.Total)
		require.Len(t, got.Items, 2)
		assert.True(t, got.Items[0].Digital)
		assert.Equal(t, "20.00 USD", got.Items[1].LineTotal)
		require.NotNil(t, got.Download)
		assert.Equal(t, "tok", got.Download.Token)
	})

	t.Run("should classify failures", func(t *testing.T) {
		testCases := []struct {
			status   int
			expected error
		}{
			{status: http.StatusServiceUnavailable, expected: ErrUnavailable},
			{status: http.StatusTooManyRequests, expected: ErrUnavailable},
			{status: http.StatusUnprocessableEntity, expected: ErrRejected},
		}

		for _, tc := range testCases {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			err := newTestClient(server.URL).SendOrderConfirmation(context.Background(), order.OrderConfirmation{Order: o})
			server.Close()

			assert.ErrorIs(t, err, tc.expected, "status %d", tc.status)
		}
	})

	t.Run("should report an unreachable service as unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		err := newTestClient(url).SendOrderConfirmation(context.Background(), order.OrderConfirmation{Order: o})

		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestClient_SendShipmentNotice(t *testing.T) {
	t.Parallel()

	// given
	var (
		got shipmentReq
		key string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages/shipment", r.URL.Path)
		key = r.Header.Get(idempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// when
	err := newTestClient(server.URL).SendShipmentNotice(context.Background(), order.ShipmentNotice{
		OrderID:        "order-1",
		Email:          "buyer@example.com",
		TrackingNumber: "1Z999",
		Amended:        true,
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, "shipment:order-1:1Z999", key)
	assert.Equal(t, shipmentReq{To: "buyer@example.com", OrderID: "order-1", TrackingNumber: "1Z999", Correction: true}, got)
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, ShipmentPath: "/s", RatePerSecond: 1}, nil)
	notice := order.ShipmentNotice{OrderID: "order-1", TrackingNumber: "1Z"}

	require.NoError(t, client.SendShipmentNotice(context.Background(), notice))

	// the second send has to wait for a token longer than the deadline allows
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.SendShipmentNotice(ctx, notice)

	assert.ErrorContains(t, err, "wait for send slot")
}
