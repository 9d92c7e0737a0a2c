package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parsera-notifier/config"
)

func TestResolveTarget(t *testing.T) {
	t.Run("sqlite local file", func(t *testing.T) {
		tg, err := resolveTarget(&config.Config{
			Policy: config.PolicyConfig{Store: config.StoreSQLite},
			SQLite: config.SQLiteConfig{DSN: "file:notify.db"},
		})
		require.NoError(t, err)
		require.Equal(t, "sqlite3", tg.dialect)
		require.Equal(t, "sqlite", tg.driver)
	})

	t.Run("remote libsql gets token", func(t *testing.T) {
		tg, err := resolveTarget(&config.Config{
			SQLite: config.SQLiteConfig{DSN: "libsql://notify.turso.io", Token: "tok"},
		})
		require.NoError(t, err)
		require.Equal(t, "libsql", tg.driver)
		require.Contains(t, tg.dsn, "authToken=tok")
	})

	t.Run("postgres", func(t *testing.T) {
		tg, err := resolveTarget(&config.Config{
			Policy: config.PolicyConfig{Store: config.StorePostgres},
			DBHost: "localhost", DBPort: 5432, DBName: "notify",
		})
		require.NoError(t, err)
		require.Equal(t, "postgres", tg.dialect)
		require.Equal(t, "pgx", tg.driver)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := resolveTarget(&config.Config{})
		require.Error(t, err)

		_, err = resolveTarget(&config.Config{Policy: config.PolicyConfig{Store: config.StorePostgres}})
		require.Error(t, err)
	})
}
