// Package migrations embeds the goose SQL migrations for every supported
// database dialect. Each dialect lives in its own directory.
package migrations

import (
	"embed"

	"github.com/dmitrijs2005/clipvault/internal/dbx"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// Directories inside Migrations, one per dialect.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

// Dir returns the migrations directory for a dialect.
func Dir(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return PostgresDir
	}
	return SQLiteDir
}

// GooseDialect returns the goose dialect name for d.
func GooseDialect(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return "pgx"
	}
	return "sqlite3"
}
