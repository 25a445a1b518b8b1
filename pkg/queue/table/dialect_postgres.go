package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
)

const pgUndefinedTable = "42P01"

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Quote(ident string) string { return pq.QuoteIdentifier(ident) }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) ExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}

func (d postgresDialect) CreateStatements(table, index string) []string {
	return []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (%s BIGSERIAL PRIMARY KEY, %s TIMESTAMP NOT NULL, %s TEXT NOT NULL)",
			d.Quote(table), d.Quote("id"), d.Quote("date"), d.Quote("data"),
		),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", d.Quote(index), d.Quote(table), d.Quote("date")),
	}
}

// Insert relies on RETURNING since lib/pq does not implement LastInsertId.
func (d postgresDialect) Insert(ctx context.Context, db *sql.DB, table string, args ...any) (int64, error) {
	var id int64
	query := insertSQL(d, table) + " RETURNING " + d.Quote("id")
	if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (postgresDialect) IsMissingTable(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == pgUndefinedTable
}
