package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// FileSuffix ends the name of every config file.
const FileSuffix = "-pipeline.json"

const dirPerm = 0o755

// Files stores each config as <slug of name>-pipeline.json in one directory.
// When two pipelines share a name the later one gets the id in its file name.
type Files struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// OpenFiles creates the directory if needed.
func OpenFiles(dir string, logger *slog.Logger) (*Files, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create pipeline dir: %w", err)
	}

	return &Files{dir: dir, logger: logger}, nil
}

// FileName returns the preferred file name of cfg.
func FileName(cfg *mapping.PipelineConfig) string {
	slug := common.Slug(cfg.Name)
	if slug == "" {
		slug = common.Slug(cfg.ID)
	}

	return slug + FileSuffix
}

// Save writes cfg, replacing the file that already holds its id.
func (r *Files) Save(_ context.Context, cfg *mapping.PipelineConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.index()
	if err != nil {
		return err
	}

	path, ok := index[cfg.ID]
	if !ok {
		path = filepath.Join(r.dir, FileName(cfg))
		if owner := ownerOf(index, path); owner != "" && owner != cfg.ID {
			path = filepath.Join(r.dir, strings.TrimSuffix(FileName(cfg), FileSuffix)+"-"+common.Slug(cfg.ID)+FileSuffix)
		}
	}

	if err := mapping.WriteFile(cfg, path); err != nil {
		return err
	}

	r.logger.Debug("repository.files.save", "id", cfg.ID, "path", path)

	return nil
}

// Delete removes the file holding id. Unknown ids are not an error.
func (r *Files) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.index()
	if err != nil {
		return err
	}

	path, ok := index[id]
	if !ok {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete pipeline %s: %w", id, err)
	}

	return nil
}

// List loads every config file, oldest first. Unreadable files are logged
// and skipped.
func (r *Files) List(_ context.Context) ([]*mapping.PipelineConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	configs, _, err := r.load()

	return configs, err
}

// Path returns the file holding id.
func (r *Files) Path(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.index()
	if err != nil {
		return "", false
	}

	path, ok := index[id]

	return path, ok
}

func (r *Files) index() (map[string]string, error) {
	_, index, err := r.load()
	return index, err
}

func (r *Files) load() ([]*mapping.PipelineConfig, map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*"+FileSuffix))
	if err != nil {
		return nil, nil, err
	}

	slices.Sort(paths)

	index := make(map[string]string, len(paths))

	var configs []*mapping.PipelineConfig

	for _, path := range paths {
		cfg, err := mapping.LoadFile(path)
		if err != nil {
			r.logger.Warn("repository.files.bad_config", "path", path, "error", err)
			continue
		}

		index[cfg.ID] = path
		configs = append(configs, cfg)
	}

	slices.SortStableFunc(configs, func(a, b *mapping.PipelineConfig) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return configs, index, nil
}

func ownerOf(index map[string]string, path string) string {
	for id, p := range index {
		if p == path {
			return id
		}
	}

	return ""
}
