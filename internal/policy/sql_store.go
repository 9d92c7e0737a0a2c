package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parsera-notifier/db"
)

// SQLStore keeps last-fired instants in notification_last_fired. The same
// statements run on Postgres (pgx) and SQLite (modernc, libsql).
type SQLStore struct {
	conn db.Conn
}

func NewSQLStore(conn db.Conn) *SQLStore {
	return &SQLStore{conn: conn}
}

func (s *SQLStore) Get(ctx context.Context, key string) (*time.Time, error) {
	var ms int64
	q := s.conn.Rebind(`SELECT last_fired_ms FROM notification_last_fired WHERE key = ?`)
	if err := s.conn.GetContext(ctx, &ms, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select notification_last_fired: %w", err)
	}
	t := fromMillis(ms)
	return &t, nil
}

func (s *SQLStore) CompareAndSwap(ctx context.Context, key string, old *time.Time, next time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == nil {
		q := s.conn.Rebind(`
INSERT INTO notification_last_fired (key, last_fired_ms)
VALUES (?, ?)
ON CONFLICT (key) DO NOTHING`)
		res, err = s.conn.ExecContext(ctx, q, key, toMillis(next))
	} else {
		q := s.conn.Rebind(`
UPDATE notification_last_fired
SET last_fired_ms = ?
WHERE key = ? AND last_fired_ms = ?`)
		res, err = s.conn.ExecContext(ctx, q, toMillis(next), key, toMillis(*old))
	}
	if err != nil {
		return false, fmt.Errorf("cas notification_last_fired: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas notification_last_fired rows: %w", err)
	}
	return n == 1, nil
}
