package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/files"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/owners"
)

// RepositoryManager vends repositories bound to a DBTX so the same code runs
// against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Owners(db dbx.DBTX) owners.Repository
	Dialect() dbx.Dialect
}
