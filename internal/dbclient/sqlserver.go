package dbclient

import (
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"employerexport/internal/connstr"
)

// sqlServerParams maps ODBC and ADO connection-string keywords (lowercase)
// to go-mssqldb URL parameters. An empty target drops the key.
var sqlServerParams = map[string]string{
	"driver":                   "",
	"database":                 "database",
	"initial catalog":          "database",
	"encrypt":                  "encrypt",
	"trustservercertificate":   "trustservercertificate",
	"trust server certificate": "trustservercertificate",
	"hostnameincertificate":    "hostnameincertificate",
	"connection timeout":       "connection timeout",
	"connect timeout":          "connection timeout",
	"login timeout":            "connection timeout",
	"timeout":                  "connection timeout",
	"app":                      "app name",
	"app name":                 "app name",
	"application name":         "app name",
	"applicationintent":        "applicationintent",
	"application intent":       "applicationintent",
	"multisubnetfailover":      "multisubnetfailover",
	"multi subnet failover":    "multisubnetfailover",
	"workstation id":           "workstation id",
	"wsid":                     "workstation id",
}

// buildSQLServerDSN accepts sqlserver:// URLs as-is and translates ODBC
// ("Driver={...};Server=tcp:host,1433;Uid=...;Pwd=...", optionally with an
// odbc: prefix) and ADO ("Data Source=...;User ID=...") strings into a
// sqlserver:// URL. ODBC yes/no flags become true/false.
func buildSQLServerDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(strings.ToLower(dsn), "sqlserver://") {
		return dsn, nil
	}
	if len(dsn) >= 5 && strings.EqualFold(dsn[:5], "odbc:") {
		dsn = dsn[5:]
	}

	var server, user, password string
	var hasPassword bool
	query := url.Values{}
	for _, p := range connstr.Parse(dsn) {
		key := strings.ToLower(p.Key)
		switch key {
		case "server", "address", "addr", "data source", "network address":
			server = p.Value
			continue
		case "uid", "user id", "user", "username":
			user = p.Value
			continue
		case "pwd", "password":
			password, hasPassword = p.Value, true
			continue
		}
		target, known := sqlServerParams[key]
		if !known {
			target = key
		}
		if target == "" {
			continue
		}
		query.Set(target, odbcBool(p.Value))
	}

	host, port, instance := splitSQLServerAddress(server)
	if host == "" {
		return "", fmt.Errorf("sql server connection string has no Server")
	}

	u := &url.URL{Scheme: "sqlserver", Host: host, RawQuery: query.Encode()}
	if port != "" {
		u.Host = host + ":" + port
	}
	if instance != "" {
		u.Path = "/" + instance
	}
	switch {
	case user != "" && hasPassword:
		u.User = url.UserPassword(user, password)
	case user != "":
		u.User = url.User(user)
	}
	return u.String(), nil
}

// splitSQLServerAddress parses "tcp:host\instance,port".
func splitSQLServerAddress(server string) (host, port, instance string) {
	s := strings.TrimSpace(server)
	if len(s) >= 4 && strings.EqualFold(s[:4], "tcp:") {
		s = s[4:]
	}
	if h, p, ok := strings.Cut(s, ","); ok {
		s, port = strings.TrimSpace(h), strings.TrimSpace(p)
	}
	if h, inst, ok := strings.Cut(s, `\`); ok {
		s, instance = h, inst
	}
	switch strings.ToLower(s) {
	case ".", "(local)":
		s = "localhost"
	}
	return s, port, instance
}

func odbcBool(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes":
		return "true"
	case "no":
		return "false"
	}
	return v
}
