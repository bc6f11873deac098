package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// IsPostgres reports whether a connection string names a PostgreSQL server.
func IsPostgres(connectionString string) bool {
	s := strings.ToLower(connectionString)
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// Postgres runs a query against a PostgreSQL database on every poll, like
// Database does for SQLite.
type Postgres struct {
	cfg    mapping.DataSourceConfig
	logger *slog.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL connector.
func NewPostgres(cfg mapping.DataSourceConfig, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}

	return &Postgres{cfg: cfg, logger: logger}
}

// Type returns mapping.SourceDatabase.
func (p *Postgres) Type() string { return mapping.SourceDatabase }

// Connect establishes the pool and verifies it with a ping.
func (p *Postgres) Connect(ctx context.Context) error {
	if p.cfg.Connection.Query == "" {
		return errors.New("database source has no query")
	}

	pool, err := pgxpool.New(ctx, p.cfg.Connection.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	p.mu.Lock()
	p.pool = pool
	p.mu.Unlock()

	p.logger.Info("source.postgres.connected")

	return nil
}

// Poll runs the configured query.
func (p *Postgres) Poll(ctx context.Context) ([]any, error) {
	p.mu.Lock()
	pool := p.pool
	p.mu.Unlock()

	if pool == nil {
		return nil, errors.New("database source is not connected")
	}

	rows, err := pool.Query(ctx, p.cfg.Connection.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	limit := batchSize(p.cfg)

	var out []any

	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		record := analyze.NewObject()
		for i, fd := range fields {
			record.Set(fd.Name, columnValue(values[i]))
		}

		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return out, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}

	return nil
}
