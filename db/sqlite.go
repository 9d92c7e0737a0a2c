package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/config"

	// Remote libsql/Turso DSNs.
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	// Local files and :memory:.
	_ "modernc.org/sqlite"
)

var (
	ErrSQLiteDisabled   = errors.New("sqlite disabled: set SQLITE_DSN (and SQLITE_TOKEN for remote libsql)")
	ErrPostgresDisabled = errors.New("postgres disabled: set DB_HOST and DB_NAME")
)

// --- disabled connection (keeps app booting, but fails fast when used) ---

type errConnector struct{ err error }

func (c errConnector) Connect(context.Context) (driver.Conn, error) { return nil, c.err }
func (c errConnector) Driver() driver.Driver                        { return errDriver(c) }

type errDriver struct{ err error }

func (d errDriver) Open(string) (driver.Conn, error) { return nil, d.err }

type disabledConn struct {
	err error
	x   *sqlx.DB
}

func newDisabledConn(err error, driverName string) disabledConn {
	return disabledConn{err: err, x: sqlx.NewDb(sql.OpenDB(errConnector{err: err}), driverName)}
}

func (c disabledConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, c.err
}
func (c disabledConn) GetContext(context.Context, any, string, ...any) error { return c.err }
func (c disabledConn) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return c.x.QueryRowxContext(ctx, query, args...)
}
func (c disabledConn) Rebind(query string) string { return c.x.Rebind(query) }
func (c disabledConn) DriverName() string         { return c.x.DriverName() }

// Disabled reports whether c is the fail-fast stand-in for a missing backend.
func Disabled(c Conn) bool {
	_, ok := c.(disabledConn)
	return ok
}

// --- Fx output ---

type SQLiteSQLXOut struct {
	fx.Out

	DB   *sqlx.DB `name:"sqlite"`
	Conn Conn     `name:"sqlite"`
}

type NewSQLXSQLiteDBParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

// NewSQLXSQLiteDB opens SQLITE_DSN: libsql://, https:// and wss:// go to the
// remote libsql client, anything else is a local modernc sqlite file.
func NewSQLXSQLiteDB(p NewSQLXSQLiteDBParams) (SQLiteSQLXOut, error) {
	dsn := strings.TrimSpace(p.Cfg.SQLite.DSN)
	if dsn == "" {
		p.Logger.Infow("sqlite_disabled")
		return SQLiteSQLXOut{DB: nil, Conn: newDisabledConn(ErrSQLiteDisabled, "sqlite")}, nil
	}

	driverName, dsn := SQLiteDriver(dsn, p.Cfg.SQLite.Token)
	db, err := OpenSQLite(driverName, dsn)
	if err != nil {
		return SQLiteSQLXOut{}, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping sqlite db: %w", err)
			}
			p.Logger.Infow("sqlite_enabled", "driver", driverName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return SQLiteSQLXOut{DB: db, Conn: db}, nil
}

// SQLiteDriver picks the database/sql driver for dsn and, for remote DSNs,
// attaches the auth token.
func SQLiteDriver(dsn, token string) (driverName, resolved string) {
	u, err := url.Parse(dsn)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "libsql", "http", "https", "ws", "wss":
			return "libsql", ensureAuthTokenQuery(dsn, token)
		}
	}
	return "sqlite", dsn
}

func OpenSQLite(driverName, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if driverName == "sqlite" {
		// modernc serialises writers; one connection also keeps :memory: shared.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func ensureAuthTokenQuery(dsn, token string) string {
	if token == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}

	q := u.Query()
	if q.Get("authToken") != "" {
		return dsn
	}

	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}
