// Package repomanager provides the RepositoryManager for the supported SQL
// dialects, wiring repository constructors and goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/migrations"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/files"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/owners"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends SQL-backed repositories for one dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func (m *SQLRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Owners(db dbx.DBTX) owners.Repository {
	return owners.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(migrations.GooseDialect(m.dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, migrations.Dir(m.dialect)); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for the given
// driver name ("sqlite" or "pgx").
func NewSQLRepositoryManager(driver string) (RepositoryManager, error) {
	d, ok := dbx.ParseDialect(driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLRepositoryManager{dialect: d}, nil
}

// Open opens the database for the manager's dialect and verifies the
// connection.
func Open(ctx context.Context, m RepositoryManager, dsn string) (*sql.DB, error) {
	db, err := sql.Open(m.Dialect().DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
