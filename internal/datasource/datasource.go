// Package datasource opens database connections for validation runs.
// It supports postgres, mysql, and sqlite behind a single sqlx handle.
package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// pingTimeout bounds the initial connectivity check.
const pingTimeout = 10 * time.Second

// driverNames maps datasource driver names to database/sql driver names.
var driverNames = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// DB wraps a live database connection together with the datasource
// driver it was opened with.
type DB struct {
	*sqlx.DB
	driver string
}

// Open connects to a datasource and verifies connectivity with a ping.
// driver is one of postgres, mysql, or sqlite.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	sqlDriver, ok := driverNames[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported datasource driver %q (want postgres, mysql, or sqlite)", driver)
	}

	conn, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s datasource: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s datasource: %w", driver, err)
	}

	return &DB{DB: conn, driver: driver}, nil
}

// Driver returns the datasource driver name (postgres, mysql, sqlite).
func (db *DB) Driver() string {
	return db.driver
}

// QuoteIdent quotes a table or column identifier for the underlying
// driver. Identifiers are taken from project configuration files, not
// from query results, but quoting keeps mixed-case and reserved names
// working.
func (db *DB) QuoteIdent(name string) string {
	switch db.driver {
	case "mysql":
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// Rebind converts a query using ? placeholders to the driver's
// placeholder style.
func (db *DB) Rebind(query string) string {
	return db.DB.Rebind(query)
}
