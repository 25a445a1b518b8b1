package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlErrNoSuchTable = 1146

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Quote(ident string) string { return quoteWith(ident, "`") }

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) ExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (d mysqlDialect) CreateStatements(table, index string) []string {
	return []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s ("+
			"%s BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, "+
			"%s DATETIME(6) NOT NULL, "+
			"%s LONGTEXT NOT NULL, "+
			"INDEX %s (%s)"+
			") DEFAULT CHARSET=utf8mb4",
		d.Quote(table), d.Quote("id"), d.Quote("date"), d.Quote("data"), d.Quote(index), d.Quote("date"),
	)}
}

func (d mysqlDialect) Insert(ctx context.Context, db *sql.DB, table string, args ...any) (int64, error) {
	return execInsert(ctx, db, insertSQL(d, table), args...)
}

func (mysqlDialect) IsMissingTable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrNoSuchTable
}
