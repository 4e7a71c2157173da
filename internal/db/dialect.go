package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavor spoken by a driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
)

// ParseDialect maps a driver name to its dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// DriverName returns the database/sql driver name to open.
func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind converts ? placeholders to $1..$n for Postgres.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
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

// VisitLockSQL returns a statement that takes a transaction-scoped lock keyed
// on a visit id, or "" when the dialect needs none. SQLite allows one writer
// at a time, so concurrent submissions are already serialized there.
func (d Dialect) VisitLockSQL() string {
	if d == Postgres {
		return "SELECT pg_advisory_xact_lock(hashtext(?))"
	}
	return ""
}

// AutoIDColumn returns the column definition of an auto-increment integer
// primary key.
func (d Dialect) AutoIDColumn() string {
	if d == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}
