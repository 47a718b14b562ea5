// Package repotest opens migrated SQLite databases for tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// NewSQLite returns a fresh file-backed SQLite database in t.TempDir with
// all migrations applied. It is closed on test cleanup.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "registry.db") + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open(dbx.DialectSQLite.DriverName(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect(migrations.GooseDialect(dbx.DialectSQLite)))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))

	return db
}
