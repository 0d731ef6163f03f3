package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Supported drivers. The names are the database/sql driver names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
	MySQL    = "mysql"
)

// Connection holds the database connection
type Connection struct {
	DB     *sql.DB
	Driver string
}

// Open connects to a database and checks it answers. An empty postgres DSN
// is built from the PG* environment variables.
func Open(ctx context.Context, driver, dsn string) (*Connection, error) {
	switch driver {
	case Postgres:
		if dsn == "" {
			dsn = postgresDSN()
		}
	case SQLite, MySQL:
		if dsn == "" {
			return nil, eris.Errorf("db: %s needs a DSN", driver)
		}
	default:
		return nil, eris.Errorf("db: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "db: open %s", driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "db: ping %s", driver)
	}

	// Lookups only read whole tables at load time.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	return &Connection{DB: db, Driver: driver}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

func postgresDSN() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "ust")
	password := getEnvOrDefault("PGPASSWORD", "")
	dbname := getEnvOrDefault("PGDATABASE", "ust")
	sslmode := getEnvOrDefault("PGSSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
