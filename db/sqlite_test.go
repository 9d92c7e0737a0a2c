package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"parsera-notifier/config"
)

func TestSQLiteDisabledByDefault(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop().Sugar()

	out, err := NewSQLXSQLiteDB(NewSQLXSQLiteDBParams{
		Lc:     fxtest.NewLifecycle(t),
		Cfg:    &config.Config{},
		Logger: logger,
	})
	require.NoError(t, err)
	require.Nil(t, out.DB)

	_, err = out.Conn.ExecContext(context.Background(), "select 1")
	require.ErrorIs(t, err, ErrSQLiteDisabled)
}

func TestPostgresDisabledWithoutHost(t *testing.T) {
	t.Parallel()

	out, err := NewSQLXPostgresDB(fxtest.NewLifecycle(t), &config.Config{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Nil(t, out.DB)

	var n int
	err = out.Conn.GetContext(context.Background(), &n, "select 1")
	require.ErrorIs(t, err, ErrPostgresDisabled)
}

func TestSQLiteLocalFileLifecycle(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	out, err := NewSQLXSQLiteDB(NewSQLXSQLiteDBParams{
		Lc:     lc,
		Cfg:    &config.Config{SQLite: config.SQLiteConfig{DSN: "file:" + t.TempDir() + "/notify.db"}},
		Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	require.NotNil(t, out.DB)

	lc.RequireStart()
	defer lc.RequireStop()

	var one int
	require.NoError(t, out.Conn.GetContext(context.Background(), &one, "select 1"))
	require.Equal(t, 1, one)
}

func TestSQLiteDriver(t *testing.T) {
	t.Parallel()

	name, dsn := SQLiteDriver("libsql://db.turso.io", "tok")
	require.Equal(t, "libsql", name)
	require.Equal(t, "libsql://db.turso.io?authToken=tok", dsn)

	name, dsn = SQLiteDriver("file:/tmp/x.db", "tok")
	require.Equal(t, "sqlite", name)
	require.Equal(t, "file:/tmp/x.db", dsn)

	name, _ = SQLiteDriver(":memory:", "")
	require.Equal(t, "sqlite", name)
}
