package dbclient

import (
	"strings"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN turns a file path or file: URI into a read-only URI so a
// missing database file fails to open instead of being created empty.
func buildSQLiteDSN(dsn string) string {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), "sqlite://")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "mode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&mode=ro"
	}
	return dsn + "?mode=ro"
}
