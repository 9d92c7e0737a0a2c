package fx

import (
	"parsera-notifier/db"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"sqlx-postgres-db",
	fx.Provide(db.NewSQLXPostgresDB),
)
