package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/teknatem/mpbackoffice/internal/config"
	"github.com/teknatem/mpbackoffice/pkg/query"
)

// Supported drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const tlsConfigName = "mpb"

// Ensure TLS config is registered only once
var tlsOnce sync.Once

// Connection represents the back office database.
// Note: sql.DB is already thread-safe and manages its own connection pool.
type Connection struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and verifies it with a ping
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverMySQL:
		db, err = sql.Open(DriverMySQL, mysqlDSN(cfg))
	case DriverSQLite:
		db, err = sql.Open(DriverSQLite, sqliteDSN(cfg.Path))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite && isMemory(cfg.Path) {
		// every pool connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		// MaxIdleConns matches MaxOpenConns to keep connections alive
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, driver: cfg.Driver}, nil
}

// NewConnection wraps an already opened pool
func NewConnection(db *sql.DB, driver string) *Connection {
	return &Connection{db: db, driver: driver}
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}

	// Remote hosts (e.g. managed TiDB/MySQL) require TLS with a ServerName
	if cfg.Host != "" && cfg.Host != "127.0.0.1" && cfg.Host != "localhost" {
		tlsOnce.Do(func() {
			_ = mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.Host,
			})
		})
		dsn.TLSConfig = tlsConfigName
	}
	return dsn.FormatDSN()
}

func sqliteDSN(path string) string {
	if isMemory(path) {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Driver returns the driver name the connection was opened with
func (c *Connection) Driver() string {
	return c.driver
}

// QueryAll runs a SELECT and returns every row keyed by column name
func (c *Connection) QueryAll(ctx context.Context, statement string, args ...interface{}) ([]query.Row, error) {
	rows, err := c.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return query.ScanRows(rows)
}

// PingContext checks the database is reachable
func (c *Connection) PingContext(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
