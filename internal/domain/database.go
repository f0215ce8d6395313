package domain

import "time"

// DatabaseDriver represents the type of database engine the export reads from.
type DatabaseDriver string

const (
	DatabaseDriverSQLServer DatabaseDriver = "sqlserver"
	DatabaseDriverMySQL     DatabaseDriver = "mysql"
	DatabaseDriverPostgres  DatabaseDriver = "postgres"
	DatabaseDriverMongoDB   DatabaseDriver = "mongodb"
	DatabaseDriverSQLite    DatabaseDriver = "sqlite"
)

// Valid reports whether d names a supported driver.
func (d DatabaseDriver) Valid() bool {
	switch d {
	case DatabaseDriverSQLServer, DatabaseDriverMySQL, DatabaseDriverPostgres,
		DatabaseDriverMongoDB, DatabaseDriverSQLite:
		return true
	}
	return false
}

// RunStatus is the terminal state of an export run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// RunLog is a historical record of one export run.
type RunLog struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Status     RunStatus `json:"status"`
	Regions    int       `json:"regions"`
	Industries int       `json:"industries"`
	DatePosted int       `json:"datePosted"`
	Error      string    `json:"error,omitempty"`
}

// RunLogStore persists export run history.
type RunLogStore interface {
	CreateRunLog(l *RunLog) error
	ListRunLogs(limit int) ([]RunLog, error)
}
