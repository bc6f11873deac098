package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/gen"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodeq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  confidence_floor: 0.4
  error_handling: skip
storage:
  type: sqlite
  dsn: pipelines.db
log:
  format: json
`), 0o644))

	t.Setenv("NODEQ_LOG_LEVEL", "debug")
	t.Setenv("NODEQ_COMPARISON_THRESHOLD", "21")
	t.Setenv("NODEQ_MODEL_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.Engine.ConfidenceFloor)
	assert.Equal(t, 21.0, cfg.Engine.ComparisonThreshold)
	assert.Equal(t, mapping.ErrorPolicySkip, cfg.Engine.ErrorHandling)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2000, cfg.Model.TimeoutMS)

	opts := cfg.StoreOptions()
	assert.Equal(t, 0.4, opts.Resolution.Floor)
	assert.Equal(t, 21.0, opts.Compile.ComparisonThreshold)
	assert.Equal(t, mapping.ErrorPolicySkip, opts.ErrorHandling)
	assert.Equal(t, 2000, opts.Model.TimeoutMillis)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad policy", yaml: "engine:\n  error_handling: panic\n"},
		{name: "sqlite without dsn", yaml: "storage:\n  type: sqlite\n"},
		{name: "http without endpoint", yaml: "model:\n  type: http\n"},
		{name: "unknown storage", env: map[string]string{"NODEQ_STORAGE": "s3"}},
		{name: "bad float", env: map[string]string{"NODEQ_CONFIDENCE_FLOOR": "high"}},
		{name: "floor out of range", env: map[string]string{"NODEQ_CONFIDENCE_FLOOR": "1.5"}},
		{name: "bad yaml", yaml: "engine: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nodeq.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nodeq.yaml")

	cfg := Default()
	cfg.Storage = StorageConfig{Type: StorageFile, Dir: "/var/lib/nodeq"}
	cfg.Export.Format = "js"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	export, err := loaded.ExportOptions()
	require.NoError(t, err)
	assert.Equal(t, gen.FormatJS, export.Format)
}
