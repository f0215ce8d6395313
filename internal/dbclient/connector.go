package dbclient

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"employerexport/internal/domain"
)

// ErrUnknownDriver is returned when no driver is configured and none can be
// inferred from the connection string.
var ErrUnknownDriver = errors.New("cannot determine database driver")

// TableQuery describes a fixed, parameterless read of one table.
type TableQuery struct {
	Table   string
	Columns []string
	OrderBy string // column name; empty keeps the database's order
}

// Rows iterates a query result. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Connector abstracts read access to an external database.
type Connector interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Query selects q.Columns from q.Table. Values are scanned in
	// column order.
	Query(ctx context.Context, q TableQuery) (Rows, error)

	// Close releases the connection.
	Close() error
}

// Open creates a Connector for dsn and verifies it with a ping. When
// drv is empty it is inferred from the connection string.
func Open(ctx context.Context, drv domain.DatabaseDriver, dsn string) (Connector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("connection string is empty")
	}
	if drv == "" {
		var err error
		if drv, err = DetectDriver(dsn); err != nil {
			return nil, err
		}
	}

	var (
		c   Connector
		err error
	)
	switch drv {
	case domain.DatabaseDriverSQLServer:
		var msDSN string
		if msDSN, err = buildSQLServerDSN(dsn); err == nil {
			c, err = newSQLConnector("sqlserver", msDSN, quoteBracket)
		}
	case domain.DatabaseDriverPostgres:
		c, err = newSQLConnector("postgres", buildPostgresDSN(dsn), quoteDouble)
	case domain.DatabaseDriverMySQL:
		var mysqlDSN string
		if mysqlDSN, err = buildMySQLDSN(dsn); err == nil {
			c, err = newSQLConnector("mysql", mysqlDSN, quoteBacktick)
		}
	case domain.DatabaseDriverSQLite:
		c, err = newSQLConnector("sqlite", buildSQLiteDSN(dsn), quoteDouble)
	case domain.DatabaseDriverMongoDB:
		c, err = newMongoConnector(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrUnknownDriver, drv)
	}
	if err != nil {
		return nil, err
	}

	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping %s: %w", drv, err)
	}
	return c, nil
}

// DetectDriver infers the driver from the shape of a connection string.
func DetectDriver(dsn string) (domain.DatabaseDriver, error) {
	s := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(s, "sqlserver://"), strings.HasPrefix(s, "odbc:"):
		return domain.DatabaseDriverSQLServer, nil
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return domain.DatabaseDriverPostgres, nil
	case strings.HasPrefix(s, "mongodb://"), strings.HasPrefix(s, "mongodb+srv://"):
		return domain.DatabaseDriverMongoDB, nil
	case strings.HasPrefix(s, "mysql://"), strings.Contains(s, "@tcp("), strings.Contains(s, "@unix("):
		return domain.DatabaseDriverMySQL, nil
	case strings.HasPrefix(s, "sqlite://"), strings.HasPrefix(s, "file:"):
		return domain.DatabaseDriverSQLite, nil
	}

	// Key/value forms.
	if strings.Contains(s, "=") {
		for _, k := range []string{"server=", "data source=", "driver={"} {
			if strings.Contains(s, k) {
				return domain.DatabaseDriverSQLServer, nil
			}
		}
		if strings.Contains(s, "host=") || strings.Contains(s, "dbname=") {
			return domain.DatabaseDriverPostgres, nil
		}
	}

	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(s, ext) {
			return domain.DatabaseDriverSQLite, nil
		}
	}
	return "", ErrUnknownDriver
}

// IsConnectionLost reports whether err means the connection dropped, as
// opposed to the query itself being rejected.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return mongo.IsNetworkError(err)
}
