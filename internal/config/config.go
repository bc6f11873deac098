// Package config loads the application configuration: a YAML file,
// defaults, then NODEQ_* environment overrides, validated as a whole.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/workflow-builder/nodeq-mindmap/internal/gen"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/pipeline"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
	"github.com/workflow-builder/nodeq-mindmap/internal/predict"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "NODEQ_"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// EngineConfig tunes rule inference.
type EngineConfig struct {
	ConfidenceFloor     float64             `yaml:"confidence_floor" validate:"gte=0,lt=1"`
	ComparisonThreshold float64             `yaml:"comparison_threshold"`
	ErrorHandling       mapping.ErrorPolicy `yaml:"error_handling" validate:"oneof=log skip stop"`
	MaxSuggestions      int                 `yaml:"max_suggestions" validate:"gte=0"`
}

// ModelConfig selects the scoring backend.
type ModelConfig struct {
	Type        string `yaml:"type" validate:"oneof=built-in rule-based linear http"`
	Endpoint    string `yaml:"endpoint,omitempty" validate:"required_if=Type http"`
	APIKey      string `yaml:"api_key,omitempty"`
	WeightsPath string `yaml:"weights_path,omitempty" validate:"required_if=Type linear"`
	TimeoutMS   int    `yaml:"timeout_ms,omitempty" validate:"gte=0"`
}

// StorageConfig selects where pipeline configs are persisted.
type StorageConfig struct {
	Type string `yaml:"type" validate:"oneof=memory sqlite file"`
	DSN  string `yaml:"dsn,omitempty" validate:"required_if=Type sqlite"`
	Dir  string `yaml:"dir,omitempty" validate:"required_if=Type file"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ExportConfig holds code export defaults.
type ExportConfig struct {
	Format      string `yaml:"format" validate:"oneof=go js"`
	PackageName string `yaml:"package_name" validate:"required"`
	OutputDir   string `yaml:"output_dir"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Engine  EngineConfig  `yaml:"engine"`
	Model   ModelConfig   `yaml:"model"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Export  ExportConfig  `yaml:"export"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Engine: EngineConfig{
			ConfidenceFloor:     plan.DefaultFloor,
			ComparisonThreshold: gen.DefaultComparisonThreshold,
			ErrorHandling:       mapping.ErrorPolicyLog,
			MaxSuggestions:      plan.DefaultConfig().MaxSuggestions,
		},
		Model:   ModelConfig{Type: predict.TypeBuiltIn},
		Storage: StorageConfig{Type: StorageFile, Dir: "."},
		Log:     LogConfig{Level: "info", Format: "text"},
		Export:  ExportConfig{Format: string(gen.FormatGo), PackageName: gen.DefaultExportConfig().PackageName},
	}
}

// Load reads path (a missing file means defaults), applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyDefaults(cfg)

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg as YAML, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func applyDefaults(cfg *AppConfig) {
	def := Default()

	if cfg.Engine.ConfidenceFloor == 0 {
		cfg.Engine.ConfidenceFloor = def.Engine.ConfidenceFloor
	}

	if cfg.Engine.ComparisonThreshold == 0 {
		cfg.Engine.ComparisonThreshold = def.Engine.ComparisonThreshold
	}

	if cfg.Engine.ErrorHandling == "" {
		cfg.Engine.ErrorHandling = def.Engine.ErrorHandling
	}

	if cfg.Model.Type == "" {
		cfg.Model.Type = def.Model.Type
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = def.Storage.Type
	}

	if cfg.Storage.Type == StorageFile && cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}

	if cfg.Export.Format == "" {
		cfg.Export.Format = def.Export.Format
	}

	if cfg.Export.PackageName == "" {
		cfg.Export.PackageName = def.Export.PackageName
	}
}

func applyEnv(cfg *AppConfig) error {
	cfg.Model.Type = getEnv("MODEL_TYPE", cfg.Model.Type)
	cfg.Model.Endpoint = getEnv("MODEL_ENDPOINT", cfg.Model.Endpoint)
	cfg.Model.APIKey = getEnv("MODEL_API_KEY", cfg.Model.APIKey)
	cfg.Model.WeightsPath = getEnv("MODEL_WEIGHTS", cfg.Model.WeightsPath)
	cfg.Storage.Type = getEnv("STORAGE", cfg.Storage.Type)
	cfg.Storage.DSN = getEnv("DSN", cfg.Storage.DSN)
	cfg.Storage.Dir = getEnv("DIR", cfg.Storage.Dir)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Engine.ErrorHandling = mapping.ErrorPolicy(getEnv("ERROR_HANDLING", string(cfg.Engine.ErrorHandling)))

	var err error

	if cfg.Engine.ConfidenceFloor, err = getEnvAsFloat("CONFIDENCE_FLOOR", cfg.Engine.ConfidenceFloor); err != nil {
		return err
	}

	if cfg.Engine.ComparisonThreshold, err = getEnvAsFloat("COMPARISON_THRESHOLD", cfg.Engine.ComparisonThreshold); err != nil {
		return err
	}

	timeout, err := getEnvAsDuration("MODEL_TIMEOUT", time.Duration(cfg.Model.TimeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}

	cfg.Model.TimeoutMS = int(timeout / time.Millisecond)

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}

	return f, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}

	return d, nil
}

// PipelineModel converts the model section into a pipeline model config.
func (c *AppConfig) PipelineModel() mapping.ModelConfig {
	return mapping.ModelConfig{
		Type:          c.Model.Type,
		Endpoint:      c.Model.Endpoint,
		APIKey:        c.Model.APIKey,
		WeightsPath:   c.Model.WeightsPath,
		TimeoutMillis: c.Model.TimeoutMS,
	}
}

// StoreOptions builds pipeline store options from the engine and model
// sections. The repository is left for the caller to set.
func (c *AppConfig) StoreOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Resolution.Floor = c.Engine.ConfidenceFloor

	if c.Engine.MaxSuggestions > 0 {
		opts.Resolution.MaxSuggestions = c.Engine.MaxSuggestions
	}

	opts.Compile.ComparisonThreshold = c.Engine.ComparisonThreshold
	opts.Model = c.PipelineModel()
	opts.ErrorHandling = c.Engine.ErrorHandling

	return opts
}

// ExportOptions converts the export section.
func (c *AppConfig) ExportOptions() (gen.ExportConfig, error) {
	format, err := gen.ParseFormat(c.Export.Format)
	if err != nil {
		return gen.ExportConfig{}, err
	}

	return gen.ExportConfig{Format: format, PackageName: c.Export.PackageName, OutputDir: c.Export.OutputDir}, nil
}
