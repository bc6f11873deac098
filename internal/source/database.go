package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// DriverName is the database/sql driver used by database sources.
const DriverName = "sqlite"

// Database runs a query against a SQLite database on every poll. Each row
// becomes one record with the columns as keys, in select order.
type Database struct {
	cfg    mapping.DataSourceConfig
	logger *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewDatabase creates a database connector.
func NewDatabase(cfg mapping.DataSourceConfig, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	return &Database{cfg: cfg, logger: logger}
}

// Type returns mapping.SourceDatabase.
func (d *Database) Type() string { return mapping.SourceDatabase }

// Connect opens and pings the database.
func (d *Database) Connect(ctx context.Context) error {
	conn := d.cfg.Connection
	if conn.ConnectionString == "" {
		return errors.New("database source has no connection string")
	}

	if conn.Query == "" {
		return errors.New("database source has no query")
	}

	db, err := sql.Open(DriverName, conn.ConnectionString)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	d.mu.Lock()
	d.db = db
	d.mu.Unlock()

	d.logger.Info("source.database.connected")

	return nil
}

// Poll runs the configured query.
func (d *Database) Poll(ctx context.Context) ([]any, error) {
	d.mu.Lock()
	db := d.db
	d.mu.Unlock()

	if db == nil {
		return nil, errors.New("database source is not connected")
	}

	rows, err := db.QueryContext(ctx, d.cfg.Connection.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	limit := batchSize(d.cfg)

	var out []any

	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}

		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		record := analyze.NewObject()
		for i, col := range cols {
			record.Set(col, columnValue(values[i]))
		}

		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return out, nil
}

// columnValue maps driver values onto document kinds.
func columnValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool:
		return v
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}

	if n, ok := analyze.NormalizeNumber(v); ok {
		return n
	}

	return fmt.Sprint(v)
}

// Close closes the database handle.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	return err
}
