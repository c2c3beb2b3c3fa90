// Package migrations provides embedded SQL migration files.
package migrations

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sql/001_initial.sql
var InitialSQL string

// Apply runs all migrations. Statements are idempotent so Apply is safe on
// every startup.
func Apply(db *sql.DB) error {
	if _, err := db.Exec(InitialSQL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
