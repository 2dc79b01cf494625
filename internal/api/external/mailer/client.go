package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ShopFulfillment/internal/api/domain/order"

	"golang.org/x/time/rate"
)

const idempotencyHeader = "Idempotency-Key"

// Client sends transactional emails through the outbound mail service.
// It implements order.Notifier.
type Client struct {
	confirmationURL string
	shipmentURL     string
	http            *http.Client
	limiter         *rate.Limiter
}

type Config struct {
	BaseURL          string
	ConfirmationPath string
	ShipmentPath     string
	Timeout          time.Duration
	RatePerSecond    float64
}

var _ order.Notifier = (*Client)(nil)

func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	return &Client{
		confirmationURL: cfg.BaseURL + cfg.ConfirmationPath,
		shipmentURL:     cfg.BaseURL + cfg.ShipmentPath,
		http:            httpClient,
		limiter:         rate.NewLimiter(limit, burst),
	}
}

type lineItem struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
	Digital    bool   `json:"digital"`
}

type download struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type confirmationReq struct {
	To             string     `json:"to"`
	OrderID        string     `json:"order_id"`
	Total          string     `json:"total"`
	Items          []lineItem `json:"items"`
	ShippingMethod string     `json:"shipping_method,omitempty"`
	Download       *download  `json:"download,omitempty"`
}

type shipmentReq struct {
	To             string `json:"to"`
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	Correction     bool   `json:"correction"`
}

func (c *Client) SendOrderConfirmation(ctx context.Context, confirmation order.OrderConfirmation) error {
	o := confirmation.Order
	body := confirmationReq{
		To:             o.Email,
		OrderID:        o.ID,
		Total:          FormatAmount(o.Amount, o.Currency),
		Items:          make([]lineItem, 0, len(o.Items)),
		ShippingMethod: o.ShippingMethod,
	}
	for _, item := range o.Items {
		body.Items = append(body.Items, lineItem{
			ProductRef: item.ProductRef,
			Quantity:   item.Quantity,
			UnitPrice:  FormatAmount(item.UnitPrice, o.Currency),
			LineTotal:  FormatAmount(item.UnitPrice*int64(item.Quantity), o.Currency),
			Digital:    item.FilePath != "",
		})
	}
	if g := confirmation.Download; g != nil {
		body.Download = &download{Token: g.Token, ExpiresAt: g.ExpiresAt}
	}

	return c.post(ctx, c.confirmationURL, "order-confirmation:"+o.ID, body)
}

func (c *Client) SendShipmentNotice(ctx context.Context, notice order.ShipmentNotice) error {
	return c.post(ctx, c.shipmentURL, "shipment:"+notice.Key(), shipmentReq{
		To:             notice.Email,
		OrderID:        notice.OrderID,
		TrackingNumber: notice.TrackingNumber,
		Correction:     notice.Amended,
	})
}

func (c *Client) post(ctx context.Context, url, idempotencyKey string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	j, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(j))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(idempotencyHeader, idempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, string(raw))
	default:
		return fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, string(raw))
	}
}
