// Package repository persists pipeline configs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("pipeline config not found")

const pipelineTable = `
CREATE TABLE IF NOT EXISTS pipelines (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	config TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// SQLite stores each config as a JSON document in one row.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed creates) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, pipelineTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create pipelines table: %w", err)
	}

	logger.Info("repository.sqlite.open", "dsn", dsn)

	return &SQLite{db: db, logger: logger}, nil
}

// Save inserts or replaces cfg.
func (r *SQLite) Save(ctx context.Context, cfg *mapping.PipelineConfig) error {
	doc, err := mapping.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, version, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		cfg.ID, cfg.Name, cfg.Version, string(doc), cfg.CreatedAt.UTC(), cfg.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save pipeline %s: %w", cfg.ID, err)
	}

	r.logger.Debug("repository.sqlite.save", "id", cfg.ID, "version", cfg.Version)

	return nil
}

// Get loads one config.
func (r *SQLite) Get(ctx context.Context, id string) (*mapping.PipelineConfig, error) {
	var doc string

	err := r.db.QueryRowContext(ctx, `SELECT config FROM pipelines WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("get pipeline %s: %w", id, err)
	}

	return mapping.Parse([]byte(doc))
}

// Delete removes a config. Unknown ids are not an error.
func (r *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pipeline %s: %w", id, err)
	}

	return nil
}

// List returns every config, oldest first.
func (r *SQLite) List(ctx context.Context) ([]*mapping.PipelineConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, config FROM pipelines ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var out []*mapping.PipelineConfig

	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}

		cfg, err := mapping.Parse([]byte(doc))
		if err != nil {
			r.logger.Warn("repository.sqlite.bad_config", "id", id, "error", err)
			continue
		}

		out = append(out, cfg)
	}

	return out, rows.Err()
}

// Close closes the database.
func (r *SQLite) Close() error {
	return r.db.Close()
}
