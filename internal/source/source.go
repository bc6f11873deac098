// Package source reads records for a pipeline from external data sources.
//
// Every source type named by a DataSourceConfig has a Connector. The
// rest-api, file-system and database connectors are implemented; the
// streaming types (kafka, mqtt, websocket, iot-hub) report
// ErrUnsupportedSource. A database source talks to PostgreSQL when its
// connection string is a postgres:// URL and to SQLite otherwise.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// DefaultPollInterval is used when a source config sets no interval.
const DefaultPollInterval = 5 * time.Second

// ErrUnsupportedSource is matched by every UnsupportedSourceError.
var ErrUnsupportedSource = errors.New("unsupported data source")

// UnsupportedSourceError reports a source type without a connector.
type UnsupportedSourceError struct {
	Type string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported data source type %q", e.Type)
}

// Is matches ErrUnsupportedSource.
func (e *UnsupportedSourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}

// Connector pulls records from one data source.
type Connector interface {
	// Type returns the source type, for example "rest-api".
	Type() string
	// Connect checks the source is reachable.
	Connect(ctx context.Context) error
	// Poll returns the records currently available.
	Poll(ctx context.Context) ([]any, error)
	Close() error
}

// New returns the connector for cfg.
func New(cfg mapping.DataSourceConfig, logger *slog.Logger) (Connector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case mapping.SourceRESTAPI:
		return NewREST(cfg, nil, logger), nil
	case mapping.SourceFileSystem:
		return NewFile(cfg, logger), nil
	case mapping.SourceDatabase:
		if IsPostgres(cfg.Connection.ConnectionString) {
			return NewPostgres(cfg, logger), nil
		}

		return NewDatabase(cfg, logger), nil
	case mapping.SourceKafka, mapping.SourceMQTT, mapping.SourceWebSocket, mapping.SourceIoTHub:
		return nil, &UnsupportedSourceError{Type: cfg.Type}
	default:
		return nil, &UnsupportedSourceError{Type: cfg.Type}
	}
}

// Open builds and connects one connector per config, concurrently. On error
// every connector already opened is closed.
func Open(ctx context.Context, configs []mapping.DataSourceConfig, logger *slog.Logger) ([]Connector, error) {
	connectors := make([]Connector, len(configs))

	for i, cfg := range configs {
		c, err := New(cfg, logger)
		if err != nil {
			return nil, err
		}

		connectors[i] = c
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range connectors {
		g.Go(func() error {
			if err := c.Connect(gctx); err != nil {
				return fmt.Errorf("connecting %s source: %w", c.Type(), err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		CloseAll(connectors, logger)
		return nil, err
	}

	return connectors, nil
}

// CloseAll closes every connector, logging failures.
func CloseAll(connectors []Connector, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, c := range connectors {
		if err := c.Close(); err != nil {
			logger.Warn("source.close_error", "type", c.Type(), "error", err)
		}
	}
}

// records flattens a decoded document into records: arrays yield their
// elements, null yields nothing, anything else is one record.
func records(doc any, limit int) []any {
	var out []any

	switch t := doc.(type) {
	case nil:
		return nil
	case []any:
		out = t
	default:
		out = []any{doc}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

func batchSize(cfg mapping.DataSourceConfig) int {
	if cfg.Polling == nil {
		return 0
	}

	return cfg.Polling.BatchSize
}
