package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/config"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/observability"
	"github.com/workflow-builder/nodeq-mindmap/internal/pipeline"
	"github.com/workflow-builder/nodeq-mindmap/internal/repository"
)

// app bundles what every pipeline command needs.
type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	store  *pipeline.Store
	close  func() error
}

// loadConfig reads the configuration file and applies the root flags.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return nil, err
	}

	if rootStorage != "" {
		cfg.Storage.Type = rootStorage
	}

	if rootDSN != "" {
		cfg.Storage.DSN = rootDSN
	}

	if rootDir != "" {
		cfg.Storage.Dir = rootDir
	}

	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openApp loads the configuration, opens the repository and restores the
// persisted pipelines into a fresh store.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	opts := cfg.StoreOptions()
	closeRepo := func() error { return nil }

	switch cfg.Storage.Type {
	case config.StorageSQLite:
		repo, err := repository.OpenSQLite(ctx, cfg.Storage.DSN, logger)
		if err != nil {
			return nil, err
		}

		opts.Repository = repo
		closeRepo = repo.Close
	case config.StorageFile:
		repo, err := repository.OpenFiles(cfg.Storage.Dir, logger)
		if err != nil {
			return nil, err
		}

		opts.Repository = repo
	}

	store := pipeline.NewStore(opts, logger)

	if opts.Repository != nil {
		n, err := store.Load(ctx)
		if err != nil {
			_ = closeRepo()
			return nil, fmt.Errorf("restoring pipelines: %w", err)
		}

		logger.Debug("cli.restored", "count", n, "storage", cfg.Storage.Type)
	}

	return &app{cfg: cfg, logger: logger, store: store, close: closeRepo}, nil
}

// readDocument decodes a JSON file, or stdin when path is "-".
func readDocument(path string) (any, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := analyze.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return doc, nil
}

// readSample loads a JSON sample document.
func readSample(path string) (mapping.DataSample, error) {
	doc, err := readDocument(path)
	if err != nil {
		return mapping.DataSample{}, err
	}

	return mapping.NewJSONSample(doc), nil
}

// readSources loads a JSON array of data source configs.
func readSources(path string) ([]mapping.DataSourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var sources []mapping.DataSourceConfig
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	return sources, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
