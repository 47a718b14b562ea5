package dbx

import (
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour a repository talks to.
type Dialect string

const (
	// DialectSQLite is modernc.org/sqlite, registered as "sqlite".
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is pgx's database/sql driver, registered as "pgx".
	DialectPostgres Dialect = "pgx"
)

// ParseDialect maps a configured driver name to a Dialect.
// Unknown names return false.
func ParseDialect(driver string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, true
	case "pgx", "postgres", "postgresql":
		return DialectPostgres, true
	}
	return "", false
}

// DriverName is the database/sql driver name for sql.Open.
func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind rewrites "?" placeholders into the dialect's native form.
// Queries are written once with "?" and rebound for PostgreSQL ($1, $2, ...).
// Placeholders inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
