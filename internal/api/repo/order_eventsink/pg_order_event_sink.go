package order_eventsink

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

var eventColumns = []string{"id", "order_id", "kind", "provider_event_id", "data", "created_at"}

// PgOrderEventRepo is the append-only order audit trail.
type PgOrderEventRepo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ order.EventSink = (*PgOrderEventRepo)(nil)

func NewPgOrderEventRepo(db postgres.Executor, builder squirrel.StatementBuilderType) *PgOrderEventRepo {
	return &PgOrderEventRepo{
		db:      db,
		builder: builder,
	}
}

func (r *PgOrderEventRepo) CreateOrderEvent(ctx context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	// v7 ids sort by time, so (created_at, id) stays a stable keyset
	eventID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	id := eventID.String()
	data := event.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	query, args, err := r.builder.Insert("order_events").
		Columns(eventColumns...).
		Values(id, event.OrderID, event.Kind, event.ProviderEventID, []byte(data), event.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return nil, order.ErrEventAlreadyStored
	}
	if postgres.IsPgErrorForeignKeyViolation(err) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create order event: %w", err)
	}

	event.Data = data
	return &order.OrderEvent{
		EventID:       id,
		NewOrderEvent: event,
	}, nil
}

// GetOrderEvents pages with a keyset cursor over (created_at, id).
func (r *PgOrderEventRepo) GetOrderEvents(ctx context.Context, query order.OrderEventQuery) (order.OrderEventPage, error) {
	if query.Limit <= 0 {
		query.Limit = defaultPageSize
	}
	if query.Limit > maxPageSize {
		query.Limit = maxPageSize
	}

	sqlQuery, args, err := r.buildOrderEventPageQuery(query)
	if err != nil {
		return order.OrderEventPage{}, err
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("query order events: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanOrderEvent)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("collect order events: %w", err)
	}

	// one extra row is fetched to detect a following page
	hasMore := len(items) > query.Limit
	if hasMore {
		items = items[:query.Limit]
	}

	page := order.OrderEventPage{Items: items, HasMore: hasMore}
	if hasMore {
		last := items[len(items)-1]
		page.NextCursor = encodeEventCursor(eventCursor{EventID: last.EventID, CreatedAt: last.CreatedAt})
	}
	return page, nil
}

// eventCursor is the keyset position of the last event on a page. It travels
// as opaque base64 so clients cannot depend on its shape.
type eventCursor struct {
	EventID   string    `json:"i"`
	CreatedAt time.Time `json:"t"`
}

func encodeEventCursor(c eventCursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeEventCursor(s string) (eventCursor, error) {
	var c eventCursor
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	if c.EventID == "" || c.CreatedAt.IsZero() {
		return c, errors.New("incomplete cursor")
	}
	return c, nil
}

func (r *PgOrderEventRepo) buildOrderEventPageQuery(q order.OrderEventQuery) (string, []any, error) {
	b := r.builder.Select(eventColumns...).From("order_events")

	if len(q.OrderIDs) > 0 {
		b = b.Where(squirrel.Eq{"order_id": q.OrderIDs})
	}
	if len(q.Kinds) > 0 {
		b = b.Where(squirrel.Eq{"kind": q.Kinds})
	}
	if q.TimeFrom != nil {
		b = b.Where("created_at >= ?", q.TimeFrom.UTC())
	}
	if q.TimeTo != nil {
		b = b.Where("created_at < ?", q.TimeTo.UTC())
	}

	if q.Cursor != "" {
		cursor, err := decodeEventCursor(q.Cursor)
		if err != nil {
			return "", nil, fmt.Errorf("%w: bad cursor: %v", order.ErrInvalidQuery, err)
		}
		if q.SortAsc {
			b = b.Where("(created_at, id) > (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		} else {
			b = b.Where("(created_at, id) < (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		}
	}

	if q.SortAsc {
		b = b.OrderBy("created_at ASC", "id ASC")
	} else {
		b = b.OrderBy("created_at DESC", "id DESC")
	}

	sql, args, err := b.Limit(uint64(q.Limit + 1)).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build order event query: %w", err)
	}
	return sql, args, nil
}

func scanOrderEvent(row pgx.CollectableRow) (order.OrderEvent, error) {
	var (
		e    order.OrderEvent
		kind string
		data []byte
	)
	if err := row.Scan(&e.EventID, &e.OrderID, &kind, &e.ProviderEventID, &data, &e.CreatedAt); err != nil {
		return order.OrderEvent{}, err
	}
	e.Kind = order.OrderEventKind(kind)
	e.Data = data
	return e, nil
}
