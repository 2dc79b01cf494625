package health

import "github.com/jackc/pgx/v5/pgxpool"

// NewPostgresChecker pings the order and token database.
func NewPostgresChecker(pool *pgxpool.Pool) *PingChecker {
	return NewPingChecker("postgres", pool.Ping)
}
