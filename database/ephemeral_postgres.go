package database

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/stapelberg/postgrestest"
	"github.com/uptrace/bun/driver/pgdriver"
)

// SetupEphemeralPostgres starts a throwaway PostgreSQL instance for
// development and tests. The caller owns the returned server and must
// Cleanup when done with it.
func SetupEphemeralPostgres(ctx context.Context) (*postgrestest.Server, *pgdriver.Connector, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	Logger.Info("Ephemeral PostgreSQL server started", "dsn", pgt.DefaultDatabase())

	// Create a new database for the application
	dsn, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, nil, fmt.Errorf("failed to create ephemeral database: %w", err)
	}

	Logger.Info("Created ephemeral database", "dsn", dsn)

	connector, err := ephemeralConnector(dsn)
	if err != nil {
		pgt.Cleanup()
		return nil, nil, err
	}

	return pgt, connector, nil
}

// ephemeralConnector builds a pgdriver connector from the DSN postgrestest
// hands out. pgdriver only parses URL-form DSNs, while postgrestest uses
// lib/pq style key=value pairs, usually pointing at a unix socket directory.
func ephemeralConnector(dsn string) (*pgdriver.Connector, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithInsecure(true)), nil
	}

	params := make(map[string]string)
	for _, field := range strings.Fields(dsn) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return nil, fmt.Errorf("unable to parse DSN field %q", field)
		}
		params[key] = strings.Trim(value, "'")
	}

	host := params["host"]
	if host == "" {
		host = "localhost"
	}
	port := params["port"]
	if port == "" {
		port = "5432"
	}
	dbname := params["dbname"]
	if dbname == "" {
		dbname = "postgres"
	}
	user := params["user"]
	if user == "" {
		// initdb makes the invoking OS user the superuser
		user = os.Getenv("USER")
		if user == "" {
			user = "postgres"
		}
	}

	opts := []pgdriver.Option{
		pgdriver.WithUser(user),
		pgdriver.WithDatabase(dbname),
		pgdriver.WithInsecure(true),
	}
	if params["password"] != "" {
		opts = append(opts, pgdriver.WithPassword(params["password"]))
	}
	if strings.HasPrefix(host, "/") {
		// Unix socket directory
		opts = append(opts,
			pgdriver.WithNetwork("unix"),
			pgdriver.WithAddr(filepath.Join(host, ".s.PGSQL."+port)))
	} else {
		opts = append(opts, pgdriver.WithAddr(net.JoinHostPort(host, port)))
	}

	return pgdriver.NewConnector(opts...), nil
}
