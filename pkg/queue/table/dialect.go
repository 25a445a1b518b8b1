package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shuldan/queues/pkg/database"
	"github.com/shuldan/queues/pkg/queue"
)

// dialect hides the SQL differences between the supported databases.
type dialect interface {
	Name() string
	Quote(ident string) string
	Placeholder(n int) string
	ExistsQuery() string
	CreateStatements(table, index string) []string
	Insert(ctx context.Context, db *sql.DB, table string, args ...any) (int64, error)
	IsMissingTable(err error) bool
}

func lookupDialect(name string) (dialect, error) {
	switch database.NormalizeDriver(name) {
	case "mysql":
		return mysqlDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	case "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, queue.ErrInvalidDriverConfig.
			WithDetail("driver", "table").
			WithDetail("reason", fmt.Sprintf("unsupported dialect %q", name))
	}
}

func insertSQL(d dialect, table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		d.Quote(table), d.Quote("date"), d.Quote("data"), d.Placeholder(1), d.Placeholder(2))
}

func selectEarliestSQL(d dialect, table string) string {
	return fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s ASC, %s ASC LIMIT 1",
		d.Quote("id"), d.Quote("data"), d.Quote(table), d.Quote("date"), d.Quote("id"))
}

func deleteSQL(d dialect, table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s", d.Quote(table), d.Quote("id"), d.Placeholder(1))
}

func dropSQL(d dialect, table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func quoteWith(ident, q string) string {
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

func execInsert(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
