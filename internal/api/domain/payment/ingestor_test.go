package payment

import (
	"context"
	"errors"
	"testing"

	"ShopFulfillment/internal/api/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	rawBody   = []byte(`{"id":"evt_1"}`)
	signature = "t=1,v1=abc"
)

func paidEvent() Event {
	return Event{
		ID:   "evt_1",
		Type: EventCheckoutSessionCompleted,
		Metadata: map[string]string{
			MetadataEmail:   "buyer@example.com",
			MetadataOrderID: "order-1",
		},
	}
}

func TestIngestor_HandleEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	testCases := []struct {
		name          string
		mock          func(v *MockVerifier, p *MockProcessor)
		expectedAck   Ack
		expectedError error
	}{
		{
			name: "should reject a bad signature without processing",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(Event{}, errors.New("no valid signature found"))
			},
			expectedError: ErrSignatureInvalid,
		},
		{
			name: "should reject a malformed payload",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(Event{}, ErrMalformedEvent)
			},
			expectedError: ErrMalformedEvent,
		},
		{
			name: "should acknowledge unrelated event types",
			mock: func(v *MockVerifier, p *MockProcessor) {
				event := paidEvent()
				event.Type = "charge.refunded"
				v.EXPECT().Verify(rawBody, signature).Return(event, nil)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckIgnored},
		},
		{
			name: "should acknowledge events without an order id",
			mock: func(v *MockVerifier, p *MockProcessor) {
				event := paidEvent()
				delete(event.Metadata, MetadataOrderID)
				v.EXPECT().Verify(rawBody, signature).Return(event, nil)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckIgnored},
		},
		{
			name: "should acknowledge events without an email",
			mock: func(v *MockVerifier, p *MockProcessor) {
				event := paidEvent()
				event.Metadata[MetadataEmail] = "  "
				v.EXPECT().Verify(rawBody, signature).Return(event, nil)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckIgnored},
		},
		{
			name: "should forward a payment confirmation",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(paidEvent(), nil)
				p.EXPECT().ProcessPayment(ctx, order.PaymentConfirmation{
					ProviderEventID: "evt_1",
					EventType:       EventCheckoutSessionCompleted,
					OrderID:         "order-1",
					Email:           "buyer@example.com",
				}).Return(AckProcessed, nil)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckProcessed},
		},
		{
			name: "should acknowledge duplicates",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(paidEvent(), nil)
				p.EXPECT().ProcessPayment(ctx, gomock.Any()).Return(AckDuplicate, nil)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckDuplicate},
		},
		{
			name: "should acknowledge when reconciliation is required",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(paidEvent(), nil)
				p.EXPECT().ProcessPayment(ctx, gomock.Any()).Return(AckStatus(""), order.ErrReconciliationRequired)
			},
			expectedAck: Ack{EventID: "evt_1", Status: AckReconciliationRequired},
		},
		{
			name: "should surface storage failures",
			mock: func(v *MockVerifier, p *MockProcessor) {
				v.EXPECT().Verify(rawBody, signature).Return(paidEvent(), nil)
				p.EXPECT().ProcessPayment(ctx, gomock.Any()).Return(AckStatus(""), errors.New("connection refused"))
			},
			expectedError: errors.New("connection refused"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctrl := gomock.NewController(t)
			verifier := NewMockVerifier(ctrl)
			processor := NewMockProcessor(ctrl)
			tc.mock(verifier, processor)
			ingestor := NewIngestor(verifier, processor)

			// when
			ack, err := ingestor.HandleEvent(ctx, rawBody, signature)

			// then
			if tc.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tc.expectedError, ErrSignatureInvalid) || errors.Is(tc.expectedError, ErrMalformedEvent) {
					assert.ErrorIs(t, err, tc.expectedError)
				} else {
					assert.ErrorContains(t, err, tc.expectedError.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAck, ack)
		})
	}
}
