package fx

import (
	"parsera-notifier/db"

	"go.uber.org/fx"
)

var SQLiteModule = fx.Module(
	"sqlx-sqlite-db",
	fx.Provide(db.NewSQLXSQLiteDB),
)
