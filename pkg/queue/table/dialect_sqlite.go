package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }

func (sqliteDialect) Quote(ident string) string { return quoteWith(ident, `"`) }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) ExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (d sqliteDialect) CreateStatements(table, index string) []string {
	return []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY AUTOINCREMENT, %s DATETIME NOT NULL, %s TEXT NOT NULL)",
			d.Quote(table), d.Quote("id"), d.Quote("date"), d.Quote("data"),
		),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", d.Quote(index), d.Quote(table), d.Quote("date")),
	}
}

func (d sqliteDialect) Insert(ctx context.Context, db *sql.DB, table string, args ...any) (int64, error) {
	return execInsert(ctx, db, insertSQL(d, table), args...)
}

func (sqliteDialect) IsMissingTable(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrError && strings.Contains(se.Error(), "no such table")
}
