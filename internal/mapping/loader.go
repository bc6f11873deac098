package mapping

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const filePerm = 0o644

// LoadFile loads, validates and parses a pipeline config from a JSON file.
func LoadFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline file %s: %w", path, err)
	}

	return cfg, nil
}

// Parse validates a JSON document against the pipeline schema and decodes it.
func Parse(data []byte) (*PipelineConfig, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var cfg PipelineConfig

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline JSON: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *PipelineConfig) {
	if cfg.Version == "" {
		cfg.Version = InitialVersion
	}

	if cfg.ModelConfig.Type == "" {
		cfg.ModelConfig.Type = "built-in"
	}

	if cfg.InputSample.Format == "" {
		cfg.InputSample.Format = "json"
	}

	if cfg.OutputSample.Format == "" {
		cfg.OutputSample.Format = "json"
	}

	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = cfg.CreatedAt
	}

	if cfg.ETLConfig != nil && cfg.ETLConfig.ErrorHandling == "" {
		cfg.ETLConfig.ErrorHandling = ErrorPolicyLog
	}
}

// Marshal serializes a pipeline config to indented JSON.
func Marshal(cfg *PipelineConfig) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// WriteFile writes a pipeline config to the given path.
func WriteFile(cfg *PipelineConfig, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline: %w", err)
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write pipeline file %s: %w", path, err)
	}

	return nil
}

// RulesFile is the YAML review document of a pipeline's rules.
type RulesFile struct {
	Pipeline string               `yaml:"pipeline"`
	Name     string               `yaml:"name"`
	Version  string               `yaml:"version"`
	Accuracy float64              `yaml:"accuracy"`
	Rules    []TransformationRule `yaml:"rules"`
}

// MarshalRulesYAML renders the rules of a pipeline for human review.
func MarshalRulesYAML(cfg *PipelineConfig) ([]byte, error) {
	return yaml.Marshal(RulesFile{
		Pipeline: cfg.ID,
		Name:     cfg.Name,
		Version:  cfg.Version,
		Accuracy: cfg.Accuracy,
		Rules:    cfg.TransformationRules,
	})
}

// ParseRulesYAML reads a rules review document.
func ParseRulesYAML(data []byte) (*RulesFile, error) {
	var rf RulesFile

	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	return &rf, nil
}
