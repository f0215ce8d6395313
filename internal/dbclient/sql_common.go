package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// sqlConnector is the shared implementation for SQL Server, MySQL,
// Postgres, and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
	quote      func(string) string
}

// newSQLConnector creates a generic SQL connector. The export holds a
// single connection for the whole run, so the pool is capped at one.
func newSQLConnector(driverName, dsn string, quote func(string) string) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &sqlConnector{driverName: driverName, db: db, quote: quote}, nil
}

func (c *sqlConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqlConnector) Query(ctx context.Context, q TableQuery) (Rows, error) {
	query, err := buildSelect(q, c.quote)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(cols) != len(q.Columns) {
		rows.Close()
		return nil, fmt.Errorf("query %s: expected %d columns, got %d", q.Table, len(q.Columns), len(cols))
	}
	return rows, nil
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}

// buildSelect renders SELECT <columns> FROM <table> [ORDER BY <col>] with
// every identifier quoted for the dialect.
func buildSelect(q TableQuery, quote func(string) string) (string, error) {
	if q.Table == "" {
		return "", fmt.Errorf("table name is required")
	}
	if len(q.Columns) == 0 {
		return "", fmt.Errorf("table %s: explicit column list is required", q.Table)
	}

	cols := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		if col == "" || col == "*" {
			return "", fmt.Errorf("table %s: invalid column %q", q.Table, col)
		}
		cols[i] = quote(col)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quote(q.Table))
	if q.OrderBy != "" {
		query += " ORDER BY " + quote(q.OrderBy)
	}
	return query, nil
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
