package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/wuwenbin0122/sqlassist/internal/models"
	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

var ErrEmptyQuery = errors.New("db: query is empty")

// Database is the shared handle to the database the assistant queries.
type Database struct {
	DB *sqlx.DB

	dialect       string
	queryTimeout  time.Duration
	maxRows       int
	sampleRows    int
	includeTables []string

	schemaMu sync.Mutex
	schema   string
}

func Open(ctx context.Context, cfg utils.DatabaseConfig) (*Database, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.BuildDSN()
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("db: connection string is empty")
	}

	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	database := &Database{
		DB:            conn,
		dialect:       cfg.Driver,
		queryTimeout:  cfg.QueryTimeout,
		maxRows:       cfg.MaxRows,
		sampleRows:    cfg.SampleRows,
		includeTables: cfg.IncludeTables,
	}
	if database.maxRows <= 0 {
		database.maxRows = 1000
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout, 5*time.Second))
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db: ping %s: %w", cfg.Driver, err)
	}

	return database, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case utils.DriverSQLServer:
		return "sqlserver", nil
	case utils.DriverPostgres:
		return "pgx", nil
	case utils.DriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("db: unsupported driver %q", driver)
}

// Dialect reports the configured driver, which also selects the SQL dialect.
func (d *Database) Dialect() string {
	return d.dialect
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("db: connection not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.DB.PingContext(ctx)
}

// Run executes query and collects at most maxRows rows.
func (d *Database) Run(ctx context.Context, query string) (*models.ResultTable, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(d.queryTimeout, 30*time.Second))
	defer cancel()

	rows, err := d.DB.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db: execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db: read columns: %w", err)
	}

	table := &models.ResultTable{
		Columns: columns,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		if len(table.Rows) >= d.maxRows {
			table.Truncated = true
			break
		}

		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("db: scan row: %w", err)
		}
		table.Rows = append(table.Rows, normalizeRow(values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate rows: %w", err)
	}

	return table, nil
}

func normalizeRow(values []any) []any {
	for i, value := range values {
		values[i] = normalizeValue(value)
	}
	return values
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

func timeoutOrDefault(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
