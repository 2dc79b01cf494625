package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ShopFulfillment/pkg/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// LookupConfig bounds the wait for an order row that a payment event raced ahead of.
type LookupConfig struct {
	Attempts    uint
	BaseDelay   time.Duration
	TotalBudget time.Duration
}

func DefaultLookupConfig() LookupConfig {
	return LookupConfig{
		Attempts:    3,
		BaseDelay:   200 * time.Millisecond,
		TotalBudget: 2 * time.Second,
	}
}

type Option func(*Service)

func WithLookupConfig(cfg LookupConfig) Option {
	return func(s *Service) {
		s.lookup = cfg
	}
}

func WithPointerValidator(v PointerValidator) Option {
	return func(s *Service) {
		s.pointers = v
	}
}

func WithEventMirror(m EventMirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// Service is the order lifecycle manager. All state changes go through the
// conditional primitives of OrderRepo.
type Service struct {
	repo         OrderRepo
	events       EventSink
	notifier     Notifier
	entitlements EntitlementIssuer
	dispatcher   Dispatcher

	pointers PointerValidator
	mirror   EventMirror
	lookup   LookupConfig
	now      func() time.Time
	newID    func() string
}

func NewOrderService(
	repo OrderRepo,
	events EventSink,
	notifier Notifier,
	entitlements EntitlementIssuer,
	dispatcher Dispatcher,
	opts ...Option,
) *Service {
	s := &Service{
		repo:         repo,
		events:       events,
		notifier:     notifier,
		entitlements: entitlements,
		dispatcher:   dispatcher,
		lookup:       DefaultLookupConfig(),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, draft Draft) (Order, error) {
	if err := draft.Validate(); err != nil {
		return Order{}, err
	}

	o := NewOrder(s.newID(), draft, s.now())
	created := newEvent(o.ID, OrderEventCreated, "", map[string]any{
		"amount":   o.Amount,
		"currency": o.Currency,
		"items":    len(o.Items),
	}, o.CreatedAt)

	err := s.repo.InTransaction(ctx, func(tx TxOrderRepo) error {
		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.CreateEvent(ctx, created); err != nil {
			return fmt.Errorf("store event: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	slog.InfoContext(ctx, "Order created", "order_id", o.ID, "amount", o.Amount, "currency", o.Currency)
	s.mirrorEvents(ctx, created)
	return o, nil
}

func (s *Service) GetOrderByID(ctx context.Context, id string) (Order, error) {
	o, err := getOrderByID(ctx, s.repo, id)
	if err != nil {
		return Order{}, err
	}
	return s.reconcilePointer(ctx, o), nil
}

func getOrderByID(ctx context.Context, repo TxOrderRepo, id string) (Order, error) {
	query, _ := NewOrdersQueryBuilder().
		WithIDs(id).
		Build()

	orders, err := repo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (s *Service) GetOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	orders, err := s.repo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	for i := range orders {
		orders[i] = s.reconcilePointer(ctx, orders[i])
	}
	return orders, nil
}

func (s *Service) GetEvents(ctx context.Context, query OrderEventQuery) (OrderEventPage, error) {
	if err := query.Validate(); err != nil {
		return OrderEventPage{}, err
	}
	page, err := s.events.GetOrderEvents(ctx, query)
	if err != nil {
		return OrderEventPage{}, fmt.Errorf("get order events: %w", err)
	}
	return page, nil
}

// reconcilePointer drops the denormalized download pointer when the token behind it
// is no longer usable. The token store stays the source of truth.
func (s *Service) reconcilePointer(ctx context.Context, o Order) Order {
	if s.pointers == nil || o.DownloadToken == nil {
		return o
	}

	live, err := s.pointers.IsLive(ctx, *o.DownloadToken)
	if err != nil {
		slog.WarnContext(ctx, "Download pointer check failed", "order_id", o.ID, slog.Any("error", err))
		return o
	}
	if !live {
		return o.ClearDownloadPointer()
	}
	return o
}

// ConfirmPayment applies a verified payment-succeeded signal. Repeated deliveries
// for an already paid order are no-ops and report Transitioned=false.
func (s *Service) ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) (ConfirmResult, error) {
	result := ConfirmResult{OrderID: confirmation.OrderID}

	o, err := s.waitForOrder(ctx, confirmation.OrderID)
	if err != nil {
		if errors.Is(err, ErrReconciliationRequired) {
			metrics.PaymentTransitions.WithLabelValues("reconciliation_required").Inc()
			slog.ErrorContext(ctx, "Payment references an order that never became visible, reconciliation required",
				"order_id", confirmation.OrderID,
				"provider_event_id", confirmation.ProviderEventID,
				"event_type", confirmation.EventType,
				"attempts", s.lookup.Attempts,
				"budget", s.lookup.TotalBudget.String())
		}
		return result, err
	}

	if confirmation.Email != "" && !strings.EqualFold(confirmation.Email, o.Email) {
		slog.WarnContext(ctx, "Payment email differs from order email, using order email",
			"order_id", o.ID,
			"provider_event_id", confirmation.ProviderEventID)
	}

	now := s.now()
	paid := newEvent(o.ID, OrderEventPaymentSucceeded, confirmation.ProviderEventID, map[string]any{
		"event_type": confirmation.EventType,
	}, now)

	err = s.repo.InTransaction(ctx, func(tx TxOrderRepo) error {
		ok, err := tx.SetPaymentStatusIf(ctx, o.ID, PaymentPending, PaymentSucceeded, now)
		if err != nil {
			return fmt.Errorf("set payment status: %w", err)
		}
		if !ok {
			return nil
		}
		result.Transitioned = true

		if err := tx.CreateEvent(ctx, paid); err != nil {
			return fmt.Errorf("store event: %w", err)
		}
		return nil
	})
	if err != nil {
		return ConfirmResult{OrderID: o.ID}, err
	}

	if !result.Transitioned {
		metrics.PaymentTransitions.WithLabelValues("duplicate").Inc()
		slog.InfoContext(ctx, "Duplicate payment confirmation ignored",
			"order_id", o.ID,
			"provider_event_id", confirmation.ProviderEventID)
		return result, nil
	}

	metrics.PaymentTransitions.WithLabelValues("transitioned").Inc()
	slog.InfoContext(ctx, "Order payment confirmed",
		"order_id", o.ID,
		"provider_event_id", confirmation.ProviderEventID)

	o.PaymentStatus = PaymentSucceeded
	o.FulfillmentStatus = FulfillmentPaid
	o.PaidAt = &now
	o.UpdatedAt = now

	s.mirrorEvents(ctx, paid)
	s.dispatcher.Go(ctx, "payment_fulfillment", func(ctx context.Context) error {
		return s.fulfillPaidOrder(ctx, o)
	})

	return result, nil
}

// waitForOrder polls for the order with exponential backoff. Only a missing row is
// retried; storage errors return immediately.
func (s *Service) waitForOrder(ctx context.Context, orderID string) (Order, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.lookup.BaseDelay
	b.MaxInterval = s.lookup.TotalBudget

	o, err := backoff.Retry(ctx, func() (Order, error) {
		o, err := getOrderByID(ctx, s.repo, orderID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Order{}, backoff.Permanent(err)
		}
		return o, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.lookup.Attempts),
		backoff.WithMaxElapsedTime(s.lookup.TotalBudget),
	)
	if errors.Is(err, ErrNotFound) {
		return Order{}, fmt.Errorf("%w: order %s", ErrReconciliationRequired, orderID)
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// fulfillPaidOrder issues download access for digital items and sends the
// confirmation email. Token failures do not stop the email.
func (s *Service) fulfillPaidOrder(ctx context.Context, o Order) error {
	var grant *DownloadGrant
	if files := o.DigitalFiles(); len(files) > 0 && s.entitlements != nil {
		g, err := s.entitlements.IssueForOrder(ctx, o.ID, files)
		if err != nil {
			slog.ErrorContext(ctx, "Download token issuance failed", "order_id", o.ID, slog.Any("error", err))
		} else {
			grant = &g
			o.DownloadToken = &g.Token
			o.DownloadExpiresAt = &g.ExpiresAt
			s.recordEvent(ctx, newEvent(o.ID, OrderEventDownloadTokenIssued, "", map[string]any{
				"expires_at": g.ExpiresAt,
				"files":      len(files),
			}, s.now()))
		}
	}

	if err := s.notifier.SendOrderConfirmation(ctx, OrderConfirmation{Order: o, Download: grant}); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}

func (s *Service) AssignTracking(ctx context.Context, orderID string, request AssignTrackingRequest) (Order, error) {
	tracking := strings.TrimSpace(request.TrackingNumber)
	if tracking == "" {
		return Order{}, fmt.Errorf("%w: tracking_number is required", ErrValidation)
	}

	now := s.now()
	shippedEvent := newEvent(orderID, OrderEventShipped, "", map[string]any{
		"tracking_number": tracking,
	}, now)

	var shipped Order
	err := s.repo.InTransaction(ctx, func(tx TxOrderRepo) error {
		ok, err := tx.AssignTracking(ctx, orderID, tracking, now)
		if err != nil {
			return fmt.Errorf("assign tracking: %w", err)
		}

		current, err := getOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !ok {
			return trackingRejection(current)
		}
		shipped = current

		if err := tx.CreateEvent(ctx, shippedEvent); err != nil {
			return fmt.Errorf("store event: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	slog.InfoContext(ctx, "Order shipped", "order_id", orderID, "tracking_number", tracking)
	s.mirrorEvents(ctx, shippedEvent)
	s.notifyShipment(ctx, ShipmentNotice{
		OrderID:        shipped.ID,
		Email:          shipped.Email,
		TrackingNumber: tracking,
	})

	return s.reconcilePointer(ctx, shipped), nil
}

func trackingRejection(o Order) error {
	if o.FulfillmentStatus == FulfillmentShipped {
		return ErrAlreadyShipped
	}
	return fmt.Errorf("%w: payment is %s, fulfillment is %s", ErrInvalidTransition, o.PaymentStatus, o.FulfillmentStatus)
}

// AmendShipment replaces the tracking number of a shipped order. It is an explicit
// admin correction and is audited separately from regular shipping.
func (s *Service) AmendShipment(ctx context.Context, orderID string, request AmendShipmentRequest) (Order, error) {
	if err := request.Validate(); err != nil {
		return Order{}, err
	}
	tracking := strings.TrimSpace(request.TrackingNumber)

	now := s.now()
	var (
		amended  Order
		previous string
		event    NewOrderEvent
	)
	err := s.repo.InTransaction(ctx, func(tx TxOrderRepo) error {
		current, err := getOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current.FulfillmentStatus != FulfillmentShipped {
			return fmt.Errorf("%w: only shipped orders can be amended, fulfillment is %s", ErrInvalidTransition, current.FulfillmentStatus)
		}
		if current.TrackingNumber != nil {
			previous = *current.TrackingNumber
		}

		ok, err := tx.AmendTracking(ctx, orderID, tracking, now)
		if err != nil {
			return fmt.Errorf("amend tracking: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: order is no longer shipped", ErrInvalidTransition)
		}

		event = newEvent(orderID, OrderEventShipmentAmended, s.newID(), map[string]any{
			"previous_tracking_number": previous,
			"tracking_number":          tracking,
			"reason":                   request.Reason,
			"actor":                    request.Actor,
		}, now)
		if err := tx.CreateEvent(ctx, event); err != nil {
			return fmt.Errorf("store event: %w", err)
		}

		amended = current
		amended.TrackingNumber = &tracking
		amended.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	slog.WarnContext(ctx, "Shipment amended",
		"order_id", orderID,
		"previous_tracking_number", previous,
		"tracking_number", tracking,
		"reason", request.Reason,
		"actor", request.Actor)

	s.mirrorEvents(ctx, event)
	s.notifyShipment(ctx, ShipmentNotice{
		OrderID:        amended.ID,
		Email:          amended.Email,
		TrackingNumber: tracking,
		Amended:        true,
	})

	return s.reconcilePointer(ctx, amended), nil
}

func (s *Service) notifyShipment(ctx context.Context, notice ShipmentNotice) {
	s.dispatcher.Go(ctx, "shipment_notice", func(ctx context.Context) error {
		if err := s.notifier.SendShipmentNotice(ctx, notice); err != nil {
			return fmt.Errorf("send shipment notice %s: %w", notice.Key(), err)
		}
		return nil
	})
}

// recordEvent stores an audit event outside of any state transition.
func (s *Service) recordEvent(ctx context.Context, event NewOrderEvent) {
	if _, err := s.events.CreateOrderEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to store order event",
			"order_id", event.OrderID,
			"kind", event.Kind,
			slog.Any("error", err))
		return
	}
	s.mirrorEvents(ctx, event)
}

func (s *Service) mirrorEvents(ctx context.Context, events ...NewOrderEvent) {
	if s.mirror == nil {
		return
	}
	s.dispatcher.Go(ctx, "audit_mirror", func(ctx context.Context) error {
		for _, e := range events {
			if err := s.mirror.MirrorOrderEvent(ctx, e); err != nil {
				return fmt.Errorf("mirror %s event for order %s: %w", e.Kind, e.OrderID, err)
			}
		}
		return nil
	})
}
