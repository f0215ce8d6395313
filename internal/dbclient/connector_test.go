package dbclient

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/microsoft/go-mssqldb/msdsn"

	"employerexport/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Driver detection and DSN handling
// ─────────────────────────────────────────────────────────────

func TestDetectDriver(t *testing.T) {
	cases := map[string]domain.DatabaseDriver{
		"sqlserver://app:pw@db:1433?database=Jobs":                                 domain.DatabaseDriverSQLServer,
		"Server=tcp:jobs.database.windows.net,1433;Database=Jobs;Uid=app;Pwd=pw;": domain.DatabaseDriverSQLServer,
		"Driver={ODBC Driver 18 for SQL Server};Server=db;Database=Jobs":           domain.DatabaseDriverSQLServer,
		"Data Source=db;Initial Catalog=Jobs;User ID=app;Password=pw":              domain.DatabaseDriverSQLServer,
		"postgres://app:pw@db:5432/jobs":                                           domain.DatabaseDriverPostgres,
		"postgresql://db/jobs":                                                     domain.DatabaseDriverPostgres,
		"host=db user=app dbname=jobs sslmode=disable":                             domain.DatabaseDriverPostgres,
		"app:pw@tcp(db:3306)/jobs":                                                 domain.DatabaseDriverMySQL,
		"mysql://app:pw@tcp(db:3306)/jobs":                                         domain.DatabaseDriverMySQL,
		"mongodb+srv://app:pw@cluster0.example.net/jobs":                           domain.DatabaseDriverMongoDB,
		"mongodb://localhost:27017/jobs":                                           domain.DatabaseDriverMongoDB,
		"file:/data/jobs.db":                                                       domain.DatabaseDriverSQLite,
		"sqlite:///data/jobs.db":                                                   domain.DatabaseDriverSQLite,
		"/data/jobs.sqlite3":                                                       domain.DatabaseDriverSQLite,
	}
	for dsn, want := range cases {
		got, err := DetectDriver(dsn)
		if err != nil {
			t.Errorf("DetectDriver(%q): %v", dsn, err)
			continue
		}
		if got != want {
			t.Errorf("DetectDriver(%q) = %q, want %q", dsn, got, want)
		}
	}

	if _, err := DetectDriver("not a connection string"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestBuildSelect(t *testing.T) {
	q := TableQuery{Table: "Regions", Columns: []string{"ID", "City_Town_Other"}}

	cases := []struct {
		name  string
		quote func(string) string
		order string
		want  string
	}{
		{"double", quoteDouble, "", `SELECT "ID", "City_Town_Other" FROM "Regions"`},
		{"backtick", quoteBacktick, "", "SELECT `ID`, `City_Town_Other` FROM `Regions`"},
		{"bracket", quoteBracket, "ID", "SELECT [ID], [City_Town_Other] FROM [Regions] ORDER BY [ID]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q.OrderBy = tc.order
			got, err := buildSelect(q, tc.quote)
			if err != nil {
				t.Fatalf("buildSelect: %v", err)
			}
			if got != tc.want {
				t.Errorf("got  %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestBuildSelect_RejectsStar(t *testing.T) {
	if _, err := buildSelect(TableQuery{Table: "Regions", Columns: []string{"*"}}, quoteDouble); err == nil {
		t.Error("expected error for SELECT *")
	}
	if _, err := buildSelect(TableQuery{Table: "Regions"}, quoteDouble); err == nil {
		t.Error("expected error for empty column list")
	}
	if _, err := buildSelect(TableQuery{Columns: []string{"ID"}}, quoteDouble); err == nil {
		t.Error("expected error for empty table")
	}
}

func TestQuoteEscapes(t *testing.T) {
	if got := quoteBracket("a]b"); got != "[a]]b]" {
		t.Errorf("quoteBracket = %s", got)
	}
	if got := quoteDouble(`a"b`); got != `"a""b"` {
		t.Errorf("quoteDouble = %s", got)
	}
	if got := quoteBacktick("a`b"); got != "`a``b`" {
		t.Errorf("quoteBacktick = %s", got)
	}
}

func TestBuildSQLServerDSN(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		host     string
		port     uint64
		instance string
		user     string
		password string
		database string
	}{
		{
			name:     "odbc connection string",
			in:       "Driver={ODBC Driver 18 for SQL Server};Server=tcp:jobs.database.windows.net,1433;Database=Jobs;Uid=app;Pwd=s3cret;Encrypt=yes;TrustServerCertificate=no;Connection Timeout=30;",
			host:     "jobs.database.windows.net",
			port:     1433,
			user:     "app",
			password: "s3cret",
			database: "Jobs",
		},
		{
			name:     "odbc prefix with braced password",
			in:       "odbc:server=db;database=Jobs;uid=app;password={a;b}}c}",
			host:     "db",
			user:     "app",
			password: "a;b}c",
			database: "Jobs",
		},
		{
			name:     "ado keywords and named instance",
			in:       `Data Source=db\SQLEXPRESS;Initial Catalog=Jobs;User ID=app;Password=p@ss word;TrustServerCertificate=yes`,
			host:     "db",
			instance: "SQLEXPRESS",
			user:     "app",
			password: "p@ss word",
			database: "Jobs",
		},
		{
			name:     "url passes through",
			in:       "sqlserver://app:pw@db:1434?database=Jobs",
			host:     "db",
			port:     1434,
			user:     "app",
			password: "pw",
			database: "Jobs",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := buildSQLServerDSN(tc.in)
			if err != nil {
				t.Fatalf("buildSQLServerDSN: %v", err)
			}
			cfg, err := msdsn.Parse(dsn)
			if err != nil {
				t.Fatalf("msdsn.Parse(%q): %v", dsn, err)
			}
			if cfg.Host != tc.host || cfg.Instance != tc.instance || cfg.User != tc.user ||
				cfg.Password != tc.password || cfg.Database != tc.database {
				t.Errorf("parsed host=%q instance=%q user=%q password=%q database=%q from %q",
					cfg.Host, cfg.Instance, cfg.User, cfg.Password, cfg.Database, dsn)
			}
			if tc.port != 0 && cfg.Port != tc.port {
				t.Errorf("port = %d, want %d", cfg.Port, tc.port)
			}
		})
	}
}

func TestBuildSQLServerDSN_ODBCFlags(t *testing.T) {
	dsn, err := buildSQLServerDSN("Server=db;Uid=app;Pwd=pw;Encrypt=yes;TrustServerCertificate=no")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := msdsn.Parse(dsn)
	if err != nil {
		t.Fatalf("msdsn.Parse(%q): %v", dsn, err)
	}
	if cfg.Encryption != msdsn.EncryptionRequired {
		t.Errorf("Encryption = %v, want required", cfg.Encryption)
	}
	if cfg.TLSConfig == nil || cfg.TLSConfig.InsecureSkipVerify {
		t.Error("TrustServerCertificate=no must keep certificate verification on")
	}
}

func TestBuildSQLServerDSN_RequiresServer(t *testing.T) {
	if _, err := buildSQLServerDSN("Database=Jobs;Uid=app"); err == nil {
		t.Fatal("expected error without Server")
	}
}

func TestBuildMySQLDSN_ForcesParseTime(t *testing.T) {
	got, err := buildMySQLDSN("mysql://app:pw@tcp(db:3306)/jobs")
	if err != nil {
		t.Fatalf("buildMySQLDSN: %v", err)
	}
	want := "app:pw@tcp(db:3306)/jobs?parseTime=true"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"/data/jobs.db":              "file:/data/jobs.db?mode=ro",
		"sqlite:///data/jobs.db":     "file:/data/jobs.db?mode=ro",
		"file:jobs.db?cache=shared":  "file:jobs.db?cache=shared&mode=ro",
		"file:jobs.db?mode=rw":       "file:jobs.db?mode=rw",
	}
	for in, want := range cases {
		if got := buildSQLiteDSN(in); got != want {
			t.Errorf("buildSQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMongoDatabaseName(t *testing.T) {
	cases := map[string]string{
		"mongodb://localhost:27017/jobs":                          "jobs",
		"mongodb+srv://app:p@ss@cluster0.example.net/jobs?w=majority": "jobs",
		"mongodb://localhost:27017":                               "",
		"mongodb://localhost:27017/?replicaSet=rs0":               "",
	}
	for in, want := range cases {
		if got := mongoDatabaseName(in); got != want {
			t.Errorf("mongoDatabaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsConnectionLost(t *testing.T) {
	lost := []error{
		driver.ErrBadConn,
		fmt.Errorf("iterate: %w", sql.ErrConnDone),
		fmt.Errorf("read: %w", errors.New("unrelated")),
	}
	if !IsConnectionLost(lost[0]) || !IsConnectionLost(lost[1]) {
		t.Error("expected bad conn / conn done to count as lost")
	}
	if IsConnectionLost(lost[2]) {
		t.Error("plain errors should not count as lost")
	}
	if IsConnectionLost(nil) {
		t.Error("nil is not lost")
	}
}

// ─────────────────────────────────────────────────────────────
// Scan target assignment (mongo rows)
// ─────────────────────────────────────────────────────────────

func TestAssignValue(t *testing.T) {
	var rec domain.DatePostedRecord
	targets := rec.ScanTargets()
	values := []any{
		int32(42),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"https://acme.example/careers",
		nil,
		"Large",
		42.0,
	}
	for i, v := range values {
		if err := assignValue(targets[i], v); err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
	}

	if rec.ID != 42 {
		t.Errorf("ID = %d", rec.ID)
	}
	if rec.DatePosted.String() != "2024-03-01" {
		t.Errorf("DatePosted = %q", rec.DatePosted.String())
	}
	if rec.EmployerLink == nil || *rec.EmployerLink != "https://acme.example/careers" {
		t.Errorf("EmployerLink = %v", rec.EmployerLink)
	}
	if rec.EmployerName != nil {
		t.Errorf("EmployerName should be nil, got %q", *rec.EmployerName)
	}
	if rec.Type == nil || *rec.Type != "42" {
		t.Errorf("Type = %v", rec.Type)
	}
}

func TestAssignValue_Errors(t *testing.T) {
	var id int64
	if err := assignValue(&id, nil); err == nil {
		t.Error("expected error storing NULL in int64")
	}
	if err := assignValue(&id, 1.5); err == nil {
		t.Error("expected error for fractional id")
	}
	var f float64
	if err := assignValue(&f, 1.0); err == nil {
		t.Error("expected error for unsupported destination")
	}

	var pop *int64
	if err := assignValue(&pop, "1200"); err != nil || pop == nil || *pop != 1200 {
		t.Errorf("string population: %v %v", pop, err)
	}
}

// ─────────────────────────────────────────────────────────────
// SQLite connector (real database file)
// ─────────────────────────────────────────────────────────────

func newSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE Industries (ID INTEGER PRIMARY KEY, Industry TEXT, Subindustry TEXT,
			EmployerLink TEXT, EmployerName TEXT, Scale TEXT, Type TEXT)`,
		`INSERT INTO Industries VALUES (2, 'Health', 'Hospitals', 'https://b.example', 'Beta', 'Small', 'Private')`,
		`INSERT INTO Industries VALUES (1, 'Tech', NULL, 'https://a.example', 'Alpha', 'Large', 'Public')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	return path
}

func TestOpen_SQLiteQuery(t *testing.T) {
	path := newSQLiteFixture(t)
	ctx := context.Background()

	conn, err := Open(ctx, "", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, TableQuery{Table: "Industries", Columns: domain.IndustryColumns, OrderBy: "ID"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rows.Close()

	var ids []int64
	var subs []*string
	for rows.Next() {
		var r domain.IndustryRecord
		if err := rows.Scan(r.ScanTargets()...); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		ids = append(ids, r.ID)
		subs = append(subs, r.Subindustry)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	if diff := cmp.Diff([]int64{1, 2}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if subs[0] != nil {
		t.Errorf("expected NULL subindustry for ID 1")
	}
}

func TestOpen_SQLiteUnknownColumn(t *testing.T) {
	path := newSQLiteFixture(t)
	ctx := context.Background()

	conn, err := Open(ctx, domain.DatabaseDriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Query(ctx, TableQuery{Table: "Industries", Columns: []string{"ID", "Nope"}}); err == nil {
		t.Fatal("expected error for unknown column")
	}
	if _, err := conn.Query(ctx, TableQuery{Table: "Regions", Columns: []string{"ID"}}); err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestOpen_SQLiteMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "jobs.db")
	if _, err := Open(context.Background(), domain.DatabaseDriverSQLite, missing); err == nil {
		t.Fatal("expected error opening a missing database")
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), domain.DatabaseDriverPostgres, "  "); err == nil {
		t.Fatal("expected error for empty connection string")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "", "definitely not a dsn")
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
