package order_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/repo/order_eventsink"
	"ShopFulfillment/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id", "email", "amount", "currency", "items", "shipping_method", "shipping_zone",
	"payment_status", "fulfillment_status", "tracking_number", "shipped_at", "paid_at",
	"download_token", "download_expires_at", "created_at", "updated_at",
}

type txRunner interface {
	InTransaction(ctx context.Context, fn func(tx postgres.Executor) error) error
}

// PgOrderRepo is the Postgres Order Store.
type PgOrderRepo struct {
	tx txRunner
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return newPgOrderRepo(pg, pg.Pool, pg.Builder)
}

func newPgOrderRepo(tx txRunner, db postgres.Executor, builder squirrel.StatementBuilderType) *PgOrderRepo {
	return &PgOrderRepo{
		tx:   tx,
		repo: repo{db: db, builder: builder},
	}
}

func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return r.tx.InTransaction(ctx, func(tx postgres.Executor) error {
		return fn(&repo{db: tx, builder: r.builder})
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) CreateOrder(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	query, args, err := r.builder.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.Email, o.Amount, o.Currency, items, o.ShippingMethod, o.ShippingZone,
			o.PaymentStatus, o.FulfillmentStatus, o.TrackingNumber, o.ShippedAt, o.PaidAt,
			o.DownloadToken, o.DownloadExpiresAt, o.CreatedAt, o.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return order.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	sql, args, err := r.buildOrdersQuery(query)
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return parseOrderRows(rows)
}

func (r *repo) SetPaymentStatusIf(ctx context.Context, orderID string, from, to order.PaymentStatus, at time.Time) (bool, error) {
	update := r.builder.Update("orders").
		Set("payment_status", to).
		Set("updated_at", at)

	if to == order.PaymentSucceeded {
		update = update.
			Set("paid_at", at).
			Set("fulfillment_status", squirrel.Expr(
				"CASE WHEN fulfillment_status = ? THEN ? ELSE fulfillment_status END",
				order.FulfillmentAwaitingPayment, order.FulfillmentPaid,
			))
	}

	return r.conditionalUpdate(ctx, "set payment status", update.
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"payment_status": from}))
}

func (r *repo) AssignTracking(ctx context.Context, orderID, trackingNumber string, at time.Time) (bool, error) {
	return r.conditionalUpdate(ctx, "assign tracking", r.builder.Update("orders").
		Set("fulfillment_status", order.FulfillmentShipped).
		Set("tracking_number", trackingNumber).
		Set("shipped_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"payment_status": order.PaymentSucceeded}).
		Where(squirrel.Eq{"fulfillment_status": order.FulfillmentPaid}))
}

func (r *repo) AmendTracking(ctx context.Context, orderID, trackingNumber string, at time.Time) (bool, error) {
	return r.conditionalUpdate(ctx, "amend tracking", r.builder.Update("orders").
		Set("tracking_number", trackingNumber).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"fulfillment_status": order.FulfillmentShipped}))
}

// conditionalUpdate reports whether the WHERE guard matched a row.
func (r *repo) conditionalUpdate(ctx context.Context, op string, update squirrel.UpdateBuilder) (bool, error) {
	query, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s query: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repo) CreateEvent(ctx context.Context, event order.NewOrderEvent) error {
	_, err := order_eventsink.NewPgOrderEventRepo(r.db, r.builder).CreateOrderEvent(ctx, event)
	return err
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) (string, []any, error) {
	query := r.builder.Select(orderColumns...).From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}
	if len(q.Emails) > 0 {
		query = query.Where(squirrel.Eq{"email": q.Emails})
	}
	if len(q.DownloadTokens) > 0 {
		query = query.Where(squirrel.Eq{"download_token": q.DownloadTokens})
	}
	if len(q.PaymentStatus) > 0 {
		query = query.Where(squirrel.Eq{"payment_status": q.PaymentStatus})
	}

	if q.SortBy != nil && q.SortOrder != nil {
		query = query.OrderBy(fmt.Sprintf("%s %s", *q.SortBy, *q.SortOrder))
	}

	if q.Pagination != nil {
		query = query.Limit(uint64(q.Pagination.Limit)).Offset(uint64(q.Pagination.Offset))
	}

	return query.ToSql()
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		var (
			o                      order.Order
			items                  []byte
			rawPayment, rawFulfill string
		)
		err := rows.Scan(
			&o.ID, &o.Email, &o.Amount, &o.Currency, &items, &o.ShippingMethod, &o.ShippingZone,
			&rawPayment, &rawFulfill, &o.TrackingNumber, &o.ShippedAt, &o.PaidAt,
			&o.DownloadToken, &o.DownloadExpiresAt, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
		if o.PaymentStatus, err = order.NewPaymentStatus(rawPayment); err != nil {
			return nil, fmt.Errorf("invalid payment status in database: %w", err)
		}
		if o.FulfillmentStatus, err = order.NewFulfillmentStatus(rawFulfill); err != nil {
			return nil, fmt.Errorf("invalid fulfillment status in database: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
