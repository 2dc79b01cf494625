package order

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
)

// DefaultCurrency is applied when checkout does not send one.
const DefaultCurrency = "USD"

type Order struct {
	ID                string            `json:"order_id"`
	Email             string            `json:"email"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	Items             []LineItem        `json:"items"`
	ShippingMethod    string            `json:"shipping_method,omitempty"`
	ShippingZone      string            `json:"shipping_zone,omitempty"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	TrackingNumber    *string           `json:"tracking_number,omitempty"`
	ShippedAt         *time.Time        `json:"shipped_at,omitempty"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	DownloadToken     *string           `json:"download_token,omitempty"`
	DownloadExpiresAt *time.Time        `json:"download_expires_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// LineItem is a single product line. A non-empty FilePath marks a digital item
// that is delivered through a download token once payment succeeds.
type LineItem struct {
	ProductRef string `json:"product_ref" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice  int64  `json:"unit_price" binding:"gte=0"`
	FilePath   string `json:"file_path,omitempty"`
}

// DigitalFiles returns the file paths of the digital items, in item order, without duplicates.
func (o Order) DigitalFiles() []string {
	var files []string
	for _, item := range o.Items {
		if item.FilePath != "" && !slices.Contains(files, item.FilePath) {
			files = append(files, item.FilePath)
		}
	}
	return files
}

func (o Order) ClearDownloadPointer() Order {
	o.DownloadToken = nil
	o.DownloadExpiresAt = nil
	return o
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
)

var AvailablePaymentStatuses = []PaymentStatus{PaymentPending, PaymentSucceeded}

// CanBeUpdatedTo reports whether a payment status may move to newStatus.
// Payment status only moves forward.
func (s PaymentStatus) CanBeUpdatedTo(newStatus PaymentStatus) bool {
	return s == PaymentPending && newStatus == PaymentSucceeded
}

func NewPaymentStatus(raw string) (PaymentStatus, error) {
	if slices.Contains(AvailablePaymentStatuses, PaymentStatus(raw)) {
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("invalid payment status: %q", raw)
}

type FulfillmentStatus string

const (
	FulfillmentAwaitingPayment FulfillmentStatus = "awaiting_payment"
	FulfillmentPaid            FulfillmentStatus = "paid"
	FulfillmentShipped         FulfillmentStatus = "shipped"
)

var AvailableFulfillmentStatuses = []FulfillmentStatus{FulfillmentAwaitingPayment, FulfillmentPaid, FulfillmentShipped}

func NewFulfillmentStatus(raw string) (FulfillmentStatus, error) {
	if slices.Contains(AvailableFulfillmentStatuses, FulfillmentStatus(raw)) {
		return FulfillmentStatus(raw), nil
	}
	return "", fmt.Errorf("invalid fulfillment status: %q", raw)
}

// Draft is what the checkout flow submits to create an order.
type Draft struct {
	Email          string     `json:"email" binding:"required,email"`
	Amount         int64      `json:"amount" binding:"required,gt=0"`
	Currency       string     `json:"currency" binding:"omitempty,len=3"`
	Items          []LineItem `json:"items" binding:"required,min=1,dive"`
	ShippingMethod string     `json:"shipping_method"`
	ShippingZone   string     `json:"shipping_zone"`
}

func (d *Draft) Validate() error {
	email := strings.TrimSpace(d.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	if d.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number of minor units", ErrValidation)
	}
	if d.Currency != "" && len(d.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrValidation)
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: items are required", ErrValidation)
	}
	for i, item := range d.Items {
		if strings.TrimSpace(item.ProductRef) == "" {
			return fmt.Errorf("%w: items[%d].product_ref is required", ErrValidation, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be positive", ErrValidation, i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: items[%d].unit_price must not be negative", ErrValidation, i)
		}
	}
	return nil
}

// NewOrder builds a fresh order from a validated draft.
func NewOrder(id string, d Draft, now time.Time) Order {
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	return Order{
		ID:                id,
		Email:             strings.TrimSpace(d.Email),
		Amount:            d.Amount,
		Currency:          currency,
		Items:             slices.Clone(d.Items),
		ShippingMethod:    d.ShippingMethod,
		ShippingZone:      d.ShippingZone,
		PaymentStatus:     PaymentPending,
		FulfillmentStatus: FulfillmentAwaitingPayment,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

type Pagination struct {
	Limit  int
	Offset int
}

type OrdersQuery struct {
	IDs            []string
	Emails         []string
	DownloadTokens []string
	PaymentStatus  []PaymentStatus
	Pagination     *Pagination
	SortBy         *string
	SortOrder      *string
}

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("invalid sort by: %s", *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s", *o.SortOrder)
	}
	if o.Pagination != nil && (o.Pagination.Limit <= 0 || o.Pagination.Offset < 0) {
		return fmt.Errorf("invalid pagination: limit must be positive and offset must not be negative")
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithEmails(emails ...string) *OrdersQueryBuilder {
	b.query.Emails = emails
	return b
}

func (b *OrdersQueryBuilder) WithDownloadTokens(tokens ...string) *OrdersQueryBuilder {
	b.query.DownloadTokens = tokens
	return b
}

func (b *OrdersQueryBuilder) WithPaymentStatuses(statuses ...PaymentStatus) *OrdersQueryBuilder {
	b.query.PaymentStatus = statuses
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}

// AssignTrackingRequest is the admin command that ships a paid order.
type AssignTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=128"`
}

// AmendShipmentRequest corrects the tracking number of an already shipped order.
type AmendShipmentRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=128"`
	Reason         string `json:"reason" binding:"required,max=512"`
	Actor          string `json:"actor,omitempty" binding:"max=128"`
}

func (r *AmendShipmentRequest) Validate() error {
	if strings.TrimSpace(r.TrackingNumber) == "" {
		return fmt.Errorf("%w: tracking_number is required", ErrValidation)
	}
	if strings.TrimSpace(r.Reason) == "" {
		return fmt.Errorf("%w: reason is required when amending a shipment", ErrValidation)
	}
	return nil
}

// PaymentConfirmation is a verified "payment succeeded" signal for an order.
type PaymentConfirmation struct {
	ProviderEventID string `json:"provider_event_id"`
	EventType       string `json:"event_type"`
	OrderID         string `json:"order_id"`
	Email           string `json:"email"`
}

// ConfirmResult tells the caller whether this delivery performed the transition
// or was a duplicate of one already applied.
type ConfirmResult struct {
	OrderID      string `json:"order_id"`
	Transitioned bool   `json:"transitioned"`
}
