package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ShopFulfillment/pkg/pointers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type inlineDispatcher struct {
	names []string
	errs  []error
}

func (d *inlineDispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	d.names = append(d.names, name)
	if err := fn(ctx); err != nil {
		d.errs = append(d.errs, err)
	}
}

type eventKindMatcher OrderEventKind

func eventOfKind(kind OrderEventKind) gomock.Matcher {
	return eventKindMatcher(kind)
}

func (m eventKindMatcher) Matches(x any) bool {
	e, ok := x.(NewOrderEvent)
	return ok && e.Kind == OrderEventKind(m)
}

func (m eventKindMatcher) String() string {
	return fmt.Sprintf("order event of kind %q", string(m))
}

type serviceMocks struct {
	repo         *MockOrderRepo
	events       *MockEventSink
	notifier     *MockNotifier
	entitlements *MockEntitlementIssuer
	pointers     *MockPointerValidator
	dispatcher   *inlineDispatcher
}

func orderService(t *testing.T) (*Service, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := serviceMocks{
		repo:         NewMockOrderRepo(ctrl),
		events:       NewMockEventSink(ctrl),
		notifier:     NewMockNotifier(ctrl),
		entitlements: NewMockEntitlementIssuer(ctrl),
		pointers:     NewMockPointerValidator(ctrl),
		dispatcher:   &inlineDispatcher{},
	}

	service := NewOrderService(m.repo, m.events, m.notifier, m.entitlements, m.dispatcher,
		WithPointerValidator(m.pointers),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string { return "order-1" }),
		WithLookupConfig(LookupConfig{Attempts: 3, BaseDelay: time.Millisecond, TotalBudget: time.Second}),
	)

	m.repo.EXPECT().
		InTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(TxOrderRepo) error) error {
			return fn(m.repo)
		}).
		AnyTimes()

	return service, m
}

func expectOrderLookup(m serviceMocks, orderID string) *gomock.Call {
	query, _ := NewOrdersQueryBuilder().WithIDs(orderID).Build()
	return m.repo.EXPECT().GetOrders(gomock.Any(), query)
}

func pendingOrder(items ...LineItem) Order {
	if len(items) == 0 {
		items = []LineItem{{ProductRef: "poster", Quantity: 1, UnitPrice: 2500}}
	}
	return Order{
		ID:                "order-1",
		Email:             "buyer@example.com",
		Amount:            2500,
		Currency:          "USD",
		Items:             items,
		PaymentStatus:     PaymentPending,
		FulfillmentStatus: FulfillmentAwaitingPayment,
		CreatedAt:         testNow.Add(-time.Hour),
		UpdatedAt:         testNow.Add(-time.Hour),
	}
}

func paidOrder() Order {
	o := pendingOrder()
	o.PaymentStatus = PaymentSucceeded
	o.FulfillmentStatus = FulfillmentPaid
	o.PaidAt = pointers.Ptr(testNow.Add(-time.Minute))
	return o
}

func shippedOrder(tracking string) Order {
	o := paidOrder()
	o.FulfillmentStatus = FulfillmentShipped
	o.TrackingNumber = &tracking
	o.ShippedAt = pointers.Ptr(testNow.Add(-time.Minute))
	return o
}

func TestOrderService_GetOrderByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	withPointer := paidOrder()
	withPointer.DownloadToken = pointers.Ptr("tok")
	withPointer.DownloadExpiresAt = pointers.Ptr(testNow.Add(time.Hour))

	testCases := []struct {
		name          string
		mock          func(m serviceMocks)
		expectedOrder Order
		expectedError string
	}{
		{
			name: "should return order when found",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return([]Order{paidOrder()}, nil)
			},
			expectedOrder: paidOrder(),
		},
		{
			name: "should return ErrNotFound when order not found",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return([]Order{}, nil)
			},
			expectedError: ErrNotFound.Error(),
		},
		{
			name: "should return error when repository fails",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return(nil, errors.New("database error"))
			},
			expectedError: "get order: database error",
		},
		{
			name: "should keep download pointer while token is live",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return([]Order{withPointer}, nil)
				m.pointers.EXPECT().IsLive(gomock.Any(), "tok").Return(true, nil)
			},
			expectedOrder: withPointer,
		},
		{
			name: "should drop download pointer once token is gone",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return([]Order{withPointer}, nil)
				m.pointers.EXPECT().IsLive(gomock.Any(), "tok").Return(false, nil)
			},
			expectedOrder: withPointer.ClearDownloadPointer(),
		},
		{
			name: "should keep download pointer when token check fails",
			mock: func(m serviceMocks) {
				expectOrderLookup(m, "order-1").Return([]Order{withPointer}, nil)
				m.pointers.EXPECT().IsLive(gomock.Any(), "tok").Return(false, errors.New("store down"))
			},
			expectedOrder: withPointer,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service, m := orderService(t)
			tc.mock(m)

			// when
			result, err := service.GetOrderByID(ctx, "order-1")

			// then
			if tc.expectedError != "" {
				assert.EqualError(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOrder, result)
		})
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	validDraft := Draft{
		Email:  "buyer@example.com",
		Amount: 4200,
		Items: []LineItem{
			{ProductRef: "ebook", Quantity: 1, UnitPrice: 4200, FilePath: "books/go.pdf"},
		},
		ShippingMethod: "none",
	}

	t.Run("should create pending order with audit event", func(t *testing.T) {
		// given
		service, m := orderService(t)
		m.repo.EXPECT().CreateOrder(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, o Order) error {
			assert.Equal(t, "order-1", o.ID)
			assert.Equal(t, PaymentPending, o.PaymentStatus)
			assert.Equal(t, FulfillmentAwaitingPayment, o.FulfillmentStatus)
			assert.Equal(t, DefaultCurrency, o.Currency)
			return nil
		})
		m.repo.EXPECT().CreateEvent(ctx, eventOfKind(OrderEventCreated)).Return(nil)

		// when
		o, err := service.CreateOrder(ctx, validDraft)

		// then
		require.NoError(t, err)
		assert.Equal(t, "order-1", o.ID)
		assert.Equal(t, testNow, o.CreatedAt)
	})

	t.Run("should reject malformed drafts without touching storage", func(t *testing.T) {
		drafts := map[string]Draft{
			"missing email":   {Amount: 100, Items: validDraft.Items},
			"malformed email": {Email: "not-an-email", Amount: 100, Items: validDraft.Items},
			"zero amount":     {Email: "a@b.co", Amount: 0, Items: validDraft.Items},
			"no items":        {Email: "a@b.co", Amount: 100},
			"bad quantity":    {Email: "a@b.co", Amount: 100, Items: []LineItem{{ProductRef: "x", Quantity: 0}}},
			"bad currency":    {Email: "a@b.co", Amount: 100, Currency: "EURO", Items: validDraft.Items},
		}

		for name, draft := range drafts {
			t.Run(name, func(t *testing.T) {
				// given
				service, _ := orderService(t)

				// when
				_, err := service.CreateOrder(ctx, draft)

				// then
				assert.ErrorIs(t, err, ErrValidation)
			})
		}
	})

	t.Run("should propagate storage failure", func(t *testing.T) {
		// given
		service, m := orderService(t)
		m.repo.EXPECT().CreateOrder(ctx, gomock.Any()).Return(errors.New("connection refused"))

		// when
		_, err := service.CreateOrder(ctx, validDraft)

		// then
		assert.EqualError(t, err, "create order: connection refused")
	})
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	confirmation := PaymentConfirmation{
		ProviderEventID: "evt_1",
		EventType:       "checkout.session.completed",
		OrderID:         "order-1",
		Email:           "buyer@example.com",
	}

	t.Run("should transition on first delivery and fire side effects", func(t *testing.T) {
		// given
		service, m := orderService(t)
		digital := pendingOrder(LineItem{ProductRef: "ebook", Quantity: 1, UnitPrice: 2500, FilePath: "books/go.pdf"})
		grant := DownloadGrant{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}

		expectOrderLookup(m, "order-1").Return([]Order{digital}, nil)
		m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(true, nil)
		m.repo.EXPECT().CreateEvent(ctx, eventOfKind(OrderEventPaymentSucceeded)).Return(nil)
		m.entitlements.EXPECT().IssueForOrder(gomock.Any(), "order-1", []string{"books/go.pdf"}).Return(grant, nil)
		m.events.EXPECT().CreateOrderEvent(gomock.Any(), eventOfKind(OrderEventDownloadTokenIssued)).Return(&OrderEvent{}, nil)
		m.notifier.EXPECT().SendOrderConfirmation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c OrderConfirmation) error {
				assert.Equal(t, PaymentSucceeded, c.Order.PaymentStatus)
				assert.Equal(t, FulfillmentPaid, c.Order.FulfillmentStatus)
				require.NotNil(t, c.Download)
				assert.Equal(t, grant, *c.Download)
				return nil
			})

		// when
		result, err := service.ConfirmPayment(ctx, confirmation)

		// then
		require.NoError(t, err)
		assert.True(t, result.Transitioned)
		assert.Equal(t, []string{"payment_fulfillment"}, m.dispatcher.names)
		assert.Empty(t, m.dispatcher.errs)
	})

	t.Run("should treat repeated deliveries as no-ops", func(t *testing.T) {
		// given
		service, m := orderService(t)
		const deliveries = 4

		expectOrderLookup(m, "order-1").Return([]Order{pendingOrder()}, nil).Times(deliveries)
		gomock.InOrder(
			m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(true, nil),
			m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(false, nil).Times(deliveries-1),
		)
		m.repo.EXPECT().CreateEvent(ctx, eventOfKind(OrderEventPaymentSucceeded)).Return(nil).Times(1)
		m.notifier.EXPECT().SendOrderConfirmation(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		// when
		transitions := 0
		for i := 0; i < deliveries; i++ {
			result, err := service.ConfirmPayment(ctx, confirmation)
			require.NoError(t, err)
			if result.Transitioned {
				transitions++
			}
		}

		// then
		assert.Equal(t, 1, transitions)
		assert.Len(t, m.dispatcher.names, 1)
	})

	t.Run("should wait for an order that is not yet visible", func(t *testing.T) {
		// given
		service, m := orderService(t)
		gomock.InOrder(
			expectOrderLookup(m, "order-1").Return([]Order{}, nil),
			expectOrderLookup(m, "order-1").Return([]Order{pendingOrder()}, nil),
		)
		m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(true, nil)
		m.repo.EXPECT().CreateEvent(ctx, gomock.Any()).Return(nil)
		m.notifier.EXPECT().SendOrderConfirmation(gomock.Any(), gomock.Any()).Return(nil)

		// when
		result, err := service.ConfirmPayment(ctx, confirmation)

		// then
		require.NoError(t, err)
		assert.True(t, result.Transitioned)
	})

	t.Run("should give up after the attempt ceiling and require reconciliation", func(t *testing.T) {
		// given
		service, m := orderService(t)
		expectOrderLookup(m, "order-1").Return([]Order{}, nil).Times(3)

		// when
		result, err := service.ConfirmPayment(ctx, confirmation)

		// then
		assert.ErrorIs(t, err, ErrReconciliationRequired)
		assert.False(t, result.Transitioned)
		assert.Empty(t, m.dispatcher.names)
	})

	t.Run("should not retry storage failures", func(t *testing.T) {
		// given
		service, m := orderService(t)
		expectOrderLookup(m, "order-1").Return(nil, errors.New("database error")).Times(1)

		// when
		_, err := service.ConfirmPayment(ctx, confirmation)

		// then
		assert.EqualError(t, err, "get order: database error")
		assert.NotErrorIs(t, err, ErrReconciliationRequired)
	})

	t.Run("should keep the transition when side effects fail", func(t *testing.T) {
		// given
		service, m := orderService(t)
		digital := pendingOrder(LineItem{ProductRef: "ebook", Quantity: 1, UnitPrice: 2500, FilePath: "books/go.pdf"})

		expectOrderLookup(m, "order-1").Return([]Order{digital}, nil)
		m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(true, nil)
		m.repo.EXPECT().CreateEvent(ctx, gomock.Any()).Return(nil)
		m.entitlements.EXPECT().IssueForOrder(gomock.Any(), "order-1", gomock.Any()).Return(DownloadGrant{}, errors.New("token store down"))
		m.notifier.EXPECT().SendOrderConfirmation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c OrderConfirmation) error {
				assert.Nil(t, c.Download)
				return errors.New("mailer unavailable")
			})

		// when
		result, err := service.ConfirmPayment(ctx, confirmation)

		// then
		require.NoError(t, err)
		assert.True(t, result.Transitioned)
		require.Len(t, m.dispatcher.errs, 1)
		assert.ErrorContains(t, m.dispatcher.errs[0], "mailer unavailable")
	})

	t.Run("should roll back when the audit event cannot be stored", func(t *testing.T) {
		// given
		service, m := orderService(t)
		expectOrderLookup(m, "order-1").Return([]Order{pendingOrder()}, nil)
		m.repo.EXPECT().SetPaymentStatusIf(ctx, "order-1", PaymentPending, PaymentSucceeded, testNow).Return(true, nil)
		m.repo.EXPECT().CreateEvent(ctx, gomock.Any()).Return(errors.New("disk full"))

		// when
		_, err := service.ConfirmPayment(ctx, confirmation)

		// then
		assert.EqualError(t, err, "store event: disk full")
		assert.Empty(t, m.dispatcher.names)
	})
}

func TestOrderService_AssignTracking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	request := AssignTrackingRequest{TrackingNumber: "DHL123"}

	testCases := []struct {
		name          string
		mock          func(m serviceMocks)
		expectedError error
		expectNotice  bool
	}{
		{
			name: "should ship a paid order",
			mock: func(m serviceMocks) {
				m.repo.EXPECT().AssignTracking(ctx, "order-1", "DHL123", testNow).Return(true, nil)
				expectOrderLookup(m, "order-1").Return([]Order{shippedOrder("DHL123")}, nil)
				m.repo.EXPECT().CreateEvent(ctx, eventOfKind(OrderEventShipped)).Return(nil)
				m.notifier.EXPECT().SendShipmentNotice(gomock.Any(), ShipmentNotice{
					OrderID:        "order-1",
					Email:          "buyer@example.com",
					TrackingNumber: "DHL123",
				}).Return(nil)
			},
			expectNotice: true,
		},
		{
			name: "should reject tracking before payment",
			mock: func(m serviceMocks) {
				m.repo.EXPECT().AssignTracking(ctx, "order-1", "DHL123", testNow).Return(false, nil)
				expectOrderLookup(m, "order-1").Return([]Order{pendingOrder()}, nil)
			},
			expectedError: ErrInvalidTransition,
		},
		{
			name: "should reject reassigning tracking after shipment",
			mock: func(m serviceMocks) {
				m.repo.EXPECT().AssignTracking(ctx, "order-1", "DHL123", testNow).Return(false, nil)
				expectOrderLookup(m, "order-1").Return([]Order{shippedOrder("UPS999")}, nil)
			},
			expectedError: ErrAlreadyShipped,
		},
		{
			name: "should return ErrNotFound for unknown order",
			mock: func(m serviceMocks) {
				m.repo.EXPECT().AssignTracking(ctx, "order-1", "DHL123", testNow).Return(false, nil)
				expectOrderLookup(m, "order-1").Return([]Order{}, nil)
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service, m := orderService(t)
			tc.mock(m)

			// when
			o, err := service.AssignTracking(ctx, "order-1", request)

			// then
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Empty(t, m.dispatcher.names)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FulfillmentShipped, o.FulfillmentStatus)
			assert.Equal(t, tc.expectNotice, len(m.dispatcher.names) == 1)
		})
	}

	t.Run("should require a tracking number", func(t *testing.T) {
		service, _ := orderService(t)

		_, err := service.AssignTracking(ctx, "order-1", AssignTrackingRequest{TrackingNumber: "  "})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("should not fail when the shipment notice fails", func(t *testing.T) {
		// given
		service, m := orderService(t)
		m.repo.EXPECT().AssignTracking(ctx, "order-1", "DHL123", testNow).Return(true, nil)
		expectOrderLookup(m, "order-1").Return([]Order{shippedOrder("DHL123")}, nil)
		m.repo.EXPECT().CreateEvent(ctx, gomock.Any()).Return(nil)
		m.notifier.EXPECT().SendShipmentNotice(gomock.Any(), gomock.Any()).Return(errors.New("smtp timeout"))

		// when
		_, err := service.AssignTracking(ctx, "order-1", request)

		// then
		require.NoError(t, err)
		require.Len(t, m.dispatcher.errs, 1)
		assert.ErrorContains(t, m.dispatcher.errs[0], "order-1:DHL123")
	})
}

func TestOrderService_AmendShipment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	request := AmendShipmentRequest{TrackingNumber: "DHL456", Reason: "courier relabelled parcel", Actor: "ops@example.com"}

	t.Run("should amend a shipped order", func(t *testing.T) {
		// given
		service, m := orderService(t)
		expectOrderLookup(m, "order-1").Return([]Order{shippedOrder("DHL123")}, nil)
		m.repo.EXPECT().AmendTracking(ctx, "order-1", "DHL456", testNow).Return(true, nil)
		m.repo.EXPECT().CreateEvent(ctx, eventOfKind(OrderEventShipmentAmended)).Return(nil)
		m.notifier.EXPECT().SendShipmentNotice(gomock.Any(), ShipmentNotice{
			OrderID:        "order-1",
			Email:          "buyer@example.com",
			TrackingNumber: "DHL456",
			Amended:        true,
		}).Return(nil)

		// when
		o, err := service.AmendShipment(ctx, "order-1", request)

		// then
		require.NoError(t, err)
		require.NotNil(t, o.TrackingNumber)
		assert.Equal(t, "DHL456", *o.TrackingNumber)
	})

	t.Run("should reject amending an order that has not shipped", func(t *testing.T) {
		// given
		service, m := orderService(t)
		expectOrderLookup(m, "order-1").Return([]Order{paidOrder()}, nil)

		// when
		_, err := service.AmendShipment(ctx, "order-1", request)

		// then
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("should require a reason", func(t *testing.T) {
		service, _ := orderService(t)

		_, err := service.AmendShipment(ctx, "order-1", AmendShipmentRequest{TrackingNumber: "DHL456"})

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestOrderService_GetEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	from := testNow
	to := testNow.Add(-time.Hour)

	testCases := []struct {
		name  string
		query OrderEventQuery
	}{
		{name: "should reject a negative limit", query: OrderEventQuery{Limit: -1}},
		{name: "should reject an unknown kind", query: OrderEventQuery{Kinds: []OrderEventKind{"refunded"}}},
		{name: "should reject an inverted time range", query: OrderEventQuery{TimeFrom: &from, TimeTo: &to}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := orderService(t)

			_, err := service.GetEvents(ctx, tc.query)

			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}

	t.Run("should pass a valid query to the sink", func(t *testing.T) {
		service, m := orderService(t)
		query := OrderEventQuery{OrderIDs: []string{"order-1"}, Kinds: []OrderEventKind{OrderEventShipped}}
		m.events.EXPECT().GetOrderEvents(ctx, query).Return(OrderEventPage{HasMore: true}, nil)

		page, err := service.GetEvents(ctx, query)

		require.NoError(t, err)
		assert.True(t, page.HasMore)
	})
}
