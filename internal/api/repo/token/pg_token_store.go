package token_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShopFulfillment/internal/api/domain/token"
	"ShopFulfillment/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var tokenColumns = []string{
	"token", "order_id", "file_paths", "created_at", "expires_at",
	"started", "started_at", "completed", "completed_at",
}

// TxRunner is satisfied by *postgres.Postgres.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(tx postgres.Executor) error) error
}

// PgStore is the durable token store. Order-bound writes keep the denormalized
// pointer on orders in the same transaction.
type PgStore struct {
	tx TxRunner
	store
}

var _ token.Store = (*PgStore)(nil)

func NewPgStore(pg *postgres.Postgres) *PgStore {
	return newPgStore(pg, pg.Pool, pg.Builder)
}

func newPgStore(tx TxRunner, db postgres.Executor, builder squirrel.StatementBuilderType) *PgStore {
	return &PgStore{
		tx:    tx,
		store: store{db: db, builder: builder},
	}
}

type store struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (s *PgStore) Create(ctx context.Context, t token.Token) error {
	return s.tx.InTransaction(ctx, func(tx postgres.Executor) error {
		txStore := &store{db: tx, builder: s.builder}
		if err := txStore.insert(ctx, t); err != nil {
			return err
		}
		if t.OrderID == nil {
			return nil
		}
		return txStore.setOrderPointer(ctx, *t.OrderID, t.Token, t.ExpiresAt)
	})
}

func (s *PgStore) Purge(ctx context.Context, value string) error {
	return s.tx.InTransaction(ctx, func(tx postgres.Executor) error {
		txStore := &store{db: tx, builder: s.builder}

		query, args, err := txStore.builder.Update("download_tokens").
			Set("file_paths", nil).
			Where(squirrel.Eq{"token": value}).
			Where(squirrel.Eq{"completed": false}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build purge query: %w", err)
		}
		if _, err := txStore.db.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("purge token: %w", err)
		}
		return txStore.clearOrderPointers(ctx, squirrel.Eq{"download_token": value})
	})
}

func (s *PgStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := s.tx.InTransaction(ctx, func(tx postgres.Executor) error {
		txStore := &store{db: tx, builder: s.builder}

		expired := squirrel.And{
			squirrel.Lt{"expires_at": now},
			squirrel.Eq{"completed": false},
			squirrel.NotEq{"file_paths": nil},
		}

		// question placeholders so the outer statement numbers them
		subSQL, subArgs, err := squirrel.Select("token").From("download_tokens").Where(expired).ToSql()
		if err != nil {
			return fmt.Errorf("build expired tokens query: %w", err)
		}
		if err := txStore.clearOrderPointers(ctx, squirrel.Expr("download_token IN ("+subSQL+")", subArgs...)); err != nil {
			return err
		}

		query, args, err := txStore.builder.Update("download_tokens").
			Set("file_paths", nil).
			Where(expired).
			ToSql()
		if err != nil {
			return fmt.Errorf("build purge expired query: %w", err)
		}
		tag, err := txStore.db.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}
		purged = tag.RowsAffected()
		return nil
	})
	return purged, err
}

func (s *store) insert(ctx context.Context, t token.Token) error {
	query, args, err := s.builder.Insert("download_tokens").
		Columns(tokenColumns...).
		Values(t.Token, t.OrderID, t.FilePaths, t.CreatedAt, t.ExpiresAt, t.Started, t.StartedAt, t.Completed, t.CompletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = s.db.Exec(ctx, query, args...)
	if postgres.IsPgErrorForeignKeyViolation(err) {
		return token.ErrOrderNotFound
	}
	if postgres.IsPgErrorUniqueViolation(err) {
		return token.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *store) setOrderPointer(ctx context.Context, orderID, value string, expiresAt time.Time) error {
	query, args, err := s.builder.Update("orders").
		Set("download_token", value).
		Set("download_expires_at", expiresAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build order pointer query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set order download pointer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return token.ErrOrderNotFound
	}
	return nil
}

func (s *store) clearOrderPointers(ctx context.Context, where squirrel.Sqlizer) error {
	query, args, err := s.builder.Update("orders").
		Set("download_token", nil).
		Set("download_expires_at", nil).
		Where(where).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear pointer query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear order download pointer: %w", err)
	}
	return nil
}

func (s *store) Get(ctx context.Context, value string) (token.Token, error) {
	query, args, err := s.builder.Select(tokenColumns...).
		From("download_tokens").
		Where(squirrel.Eq{"token": value}).
		ToSql()
	if err != nil {
		return token.Token{}, fmt.Errorf("build get token query: %w", err)
	}

	t, err := parseTokenRow(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return token.Token{}, token.ErrNotFound
	}
	if err != nil {
		return token.Token{}, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (s *store) MarkStarted(ctx context.Context, value string, at time.Time) error {
	query, args, err := s.builder.Update("download_tokens").
		Set("started", true).
		Set("started_at", squirrel.Expr("COALESCE(started_at, ?)", at)).
		Where(squirrel.Eq{"token": value}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark started query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark token started: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return token.ErrNotFound
	}
	return nil
}

// MarkCompleted is a single guarded UPDATE; the row lock makes concurrent callers
// serialize and only the first one matches completed = false.
func (s *store) MarkCompleted(ctx context.Context, value string, at time.Time) (bool, error) {
	query, args, err := s.builder.Update("download_tokens").
		Set("completed", true).
		Set("completed_at", at).
		Where(squirrel.Eq{"token": value}).
		Where(squirrel.Eq{"completed": false}).
		Where(squirrel.NotEq{"file_paths": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark completed query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark token completed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func parseTokenRow(row pgx.Row) (token.Token, error) {
	var t token.Token
	err := row.Scan(&t.Token, &t.OrderID, &t.FilePaths, &t.CreatedAt, &t.ExpiresAt,
		&t.Started, &t.StartedAt, &t.Completed, &t.CompletedAt)
	return t, err
}
