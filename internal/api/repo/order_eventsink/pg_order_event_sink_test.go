package order_eventsink

import (
	"context"
	"regexp"
	"testing"
	"time"

	"ShopFulfillment/internal/api/domain/order"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

const selectEventsSQL = `SELECT id, order_id, kind, provider_event_id, data, created_at FROM order_events`

func newMockSink(t *testing.T) (*PgOrderEventRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPgOrderEventRepo(mock, squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)), mock
}

func TestCreateOrderEvent(t *testing.T) {
	ctx := context.Background()
	insertSQL := `INSERT INTO order_events (id,order_id,kind,provider_event_id,data,created_at) VALUES ($1,$2,$3,$4,$5,$6)`

	testCases := []struct {
		name          string
		err           error
		expectedError error
	}{
		{name: "should store the event"},
		{name: "should report duplicates", err: &pgconn.PgError{Code: "23505"}, expectedError: order.ErrEventAlreadyStored},
		{name: "should report unknown orders", err: &pgconn.PgError{Code: "23503"}, expectedError: order.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sink, mock := newMockSink(t)
			exec := mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
				WithArgs(pgxmock.AnyArg(), "order-1", order.OrderEventShipped, "", []byte("{}"), t0)
			if tc.err != nil {
				exec.WillReturnError(tc.err)
			} else {
				exec.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			event, err := sink.CreateOrderEvent(ctx, order.NewOrderEvent{OrderID: "order-1", Kind: order.OrderEventShipped, CreatedAt: t0})

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, event.EventID)
			assert.JSONEq(t, `{}`, string(event.Data))
		})
	}
}

func TestGetOrderEvents(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "order_id", "kind", "provider_event_id", "data", "created_at"}

	t.Run("should page with a cursor", func(t *testing.T) {
		sink, mock := newMockSink(t)

		rows := mock.NewRows(columns).
			AddRow("e3", "order-1", "shipped", "", []byte(`{"tracking_number":"1Z"}`), t0.Add(2*time.Minute)).
			AddRow("e2", "order-1", "payment_succeeded", "evt_1", []byte(`{}`), t0.Add(time.Minute)).
			AddRow("e1", "order-1", "created", "", []byte(`{}`), t0)
		mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` WHERE order_id IN ($1) ORDER BY created_at DESC, id DESC LIMIT 3`)).
			WithArgs("order-1").
			WillReturnRows(rows)

		page, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{OrderIDs: []string{"order-1"}, Limit: 2})

		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
		assert.Equal(t, order.OrderEventShipped, page.Items[0].Kind)

		cursor, err := decodeEventCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, "e2", cursor.EventID)
		assert.True(t, cursor.CreatedAt.Equal(t0.Add(time.Minute)))
	})

	t.Run("should continue after the cursor in ascending order", func(t *testing.T) {
		sink, mock := newMockSink(t)
		cursor := encodeEventCursor(eventCursor{EventID: "e1", CreatedAt: t0})

		mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` WHERE kind IN ($1) AND (created_at, id) > ($2, $3) ORDER BY created_at ASC, id ASC LIMIT 11`)).
			WithArgs(order.OrderEventShipmentAmended, t0, "e1").
			WillReturnRows(mock.NewRows(columns))

		page, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{
			Kinds:   []order.OrderEventKind{order.OrderEventShipmentAmended},
			Cursor:  cursor,
			SortAsc: true,
		})

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("should reject a garbled cursor", func(t *testing.T) {
		sink, _ := newMockSink(t)

		_, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{Cursor: "%%%"})

		assert.ErrorIs(t, err, order.ErrInvalidQuery)
	})
}
