package dbclient

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// buildMySQLDSN normalizes a MySQL DSN. A mysql:// prefix is dropped and
// parseTime is forced on so DATE columns scan as time.Time.
func buildMySQLDSN(dsn string) (string, error) {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), "mysql://")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
