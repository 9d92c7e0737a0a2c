package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Conn is the subset of *sqlx.DB the stores use. It lets a disabled backend
// stand in for a real one.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	Rebind(query string) string
	DriverName() string
}

var _ Conn = (*sqlx.DB)(nil)
