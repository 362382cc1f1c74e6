package data

import (
	"context"
	"database/sql"

	"github.com/lodgeworks/lodge-api/internal/migrate"
)

// RunMigrations brings the lodge schema up to date. It exists so
// callers outside the data layer never import migrate directly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
