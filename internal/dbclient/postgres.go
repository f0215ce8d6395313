package dbclient

import (
	"strings"

	_ "github.com/lib/pq"
)

// buildPostgresDSN accepts either a postgres:// URL or a key=value string.
// lib/pq defaults to sslmode=require; keep whatever the caller set.
func buildPostgresDSN(dsn string) string {
	return strings.TrimSpace(dsn)
}
