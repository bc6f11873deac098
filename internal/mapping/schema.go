package mapping

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

// InitialVersion is the version of a freshly created pipeline.
const InitialVersion = "1.0.0"

// DefaultAccuracy is reported for pipelines without rules.
const DefaultAccuracy = 0.5

// PipelineConfig is the persisted description of one pipeline.
type PipelineConfig struct {
	ID                  string               `json:"id" yaml:"id"`
	Name                string               `json:"name" yaml:"name"`
	InputSample         DataSample           `json:"inputSample" yaml:"input_sample"`
	OutputSample        DataSample           `json:"outputSample" yaml:"output_sample"`
	TransformationRules []TransformationRule `json:"transformationRules" yaml:"transformation_rules"`
	Accuracy            float64              `json:"accuracy" yaml:"accuracy"`
	Version             string               `json:"version" yaml:"version"`
	CreatedAt           time.Time            `json:"createdAt" yaml:"created_at"`
	UpdatedAt           time.Time            `json:"updatedAt" yaml:"updated_at"`
	ModelConfig         ModelConfig          `json:"modelConfig" yaml:"model_config"`
	DataSources         []DataSourceConfig   `json:"dataSources,omitempty" yaml:"data_sources,omitempty"`
	ETLConfig           *ETLConfig           `json:"etlConfig,omitempty" yaml:"etl_config,omitempty"`
}

// Clone returns a deep copy that shares no mutable state with c.
func (c PipelineConfig) Clone() PipelineConfig {
	out := c
	out.InputSample = c.InputSample.Clone()
	out.OutputSample = c.OutputSample.Clone()
	out.TransformationRules = make([]TransformationRule, len(c.TransformationRules))

	for i := range c.TransformationRules {
		out.TransformationRules[i] = c.TransformationRules[i].Clone()
	}

	out.DataSources = slices.Clone(c.DataSources)

	if c.ETLConfig != nil {
		etl := *c.ETLConfig
		etl.ExtractionRules = slices.Clone(c.ETLConfig.ExtractionRules)
		etl.ValidationRules = slices.Clone(c.ETLConfig.ValidationRules)
		out.ETLConfig = &etl
	}

	return out
}

// TargetFields lists the target field of every rule, in rule order.
func (c PipelineConfig) TargetFields() []string {
	out := make([]string, 0, len(c.TransformationRules))
	for _, r := range c.TransformationRules {
		out = append(out, r.TargetField)
	}

	return out
}

// DataSample is an example document plus what was derived from it.
type DataSample struct {
	Format   string            `json:"format" yaml:"format"`
	Schema   analyze.Schema    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Data     any               `json:"data" yaml:"data"`
	Source   *DataSourceConfig `json:"source,omitempty" yaml:"source,omitempty"`
	Metadata *analyze.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewJSONSample wraps a decoded JSON document.
func NewJSONSample(data any) DataSample {
	return DataSample{Format: "json", Data: data}
}

// Clone copies the sample. Decoded documents are deep-copied.
func (s DataSample) Clone() DataSample {
	out := s
	out.Data = cloneDocument(s.Data)

	if s.Schema != nil {
		out.Schema = make(analyze.Schema, len(s.Schema))
		for k, v := range s.Schema {
			out.Schema[k] = v
		}
	}

	if s.Source != nil {
		src := *s.Source
		out.Source = &src
	}

	if s.Metadata != nil {
		md := *s.Metadata
		md.Fields = slices.Clone(s.Metadata.Fields)
		md.Types = make(map[string]string, len(s.Metadata.Types))

		for k, v := range s.Metadata.Types {
			md.Types[k] = v
		}

		out.Metadata = &md
	}

	return out
}

func cloneDocument(v any) any {
	switch t := v.(type) {
	case *analyze.Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneDocument(t[i])
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneDocument(val)
		}

		return out
	default:
		return v
	}
}

// UnmarshalJSON decodes the sample, keeping object key order in Data.
func (s *DataSample) UnmarshalJSON(data []byte) error {
	type plain DataSample

	var raw struct {
		plain
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = DataSample(raw.plain)
	s.Data = nil

	if len(raw.Data) > 0 {
		doc, err := analyze.DecodeJSON(raw.Data)
		if err != nil {
			return fmt.Errorf("sample data: %w", err)
		}

		s.Data = doc
	}

	return nil
}

// ModelConfig selects the scoring backend consulted while inferring rules.
type ModelConfig struct {
	// Type is one of built-in, rule-based, linear or http.
	Type string `json:"type" yaml:"type"`
	// Endpoint is the URL of an http backend.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// APIKey is sent as a bearer token to an http backend.
	APIKey string `json:"-" yaml:"api_key,omitempty"`
	// ModelName labels the model for display.
	ModelName string `json:"modelName,omitempty" yaml:"model_name,omitempty"`
	// WeightsPath points to the YAML weights of a linear backend.
	WeightsPath string `json:"localPath,omitempty" yaml:"weights_path,omitempty"`
	// TimeoutMillis bounds a single backend call.
	TimeoutMillis int `json:"timeoutMillis,omitempty" yaml:"timeout_millis,omitempty"`
}

// DataSource types.
const (
	SourceIoTHub     = "iot-hub"
	SourceKafka      = "kafka"
	SourceRESTAPI    = "rest-api"
	SourceWebSocket  = "websocket"
	SourceDatabase   = "database"
	SourceFileSystem = "file-system"
	SourceMQTT       = "mqtt"
)

// DataSourceConfig describes an external feed of records for a pipeline.
type DataSourceConfig struct {
	Type       string           `json:"type" yaml:"type"`
	Connection SourceConnection `json:"connection" yaml:"connection"`
	Polling    *SourcePolling   `json:"polling,omitempty" yaml:"polling,omitempty"`
}

// SourceConnection holds the connection parameters of a data source.
type SourceConnection struct {
	Host             string             `json:"host,omitempty" yaml:"host,omitempty"`
	Port             int                `json:"port,omitempty" yaml:"port,omitempty"`
	Topic            string             `json:"topic,omitempty" yaml:"topic,omitempty"`
	ConnectionString string             `json:"connectionString,omitempty" yaml:"connection_string,omitempty"`
	APIEndpoint      string             `json:"apiEndpoint,omitempty" yaml:"api_endpoint,omitempty"`
	Query            string             `json:"query,omitempty" yaml:"query,omitempty"`
	Path             string             `json:"path,omitempty" yaml:"path,omitempty"`
	Credentials      *SourceCredentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// SourceCredentials are optional authentication values.
type SourceCredentials struct {
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
}

// SourcePolling configures how often a source is read.
type SourcePolling struct {
	// IntervalMillis is the delay between two polls.
	IntervalMillis int `json:"interval" yaml:"interval"`
	BatchSize      int `json:"batchSize,omitempty" yaml:"batch_size,omitempty"`
}

// Interval returns the polling interval, or def when unset.
func (p *SourcePolling) Interval(def time.Duration) time.Duration {
	if p == nil || p.IntervalMillis <= 0 {
		return def
	}

	return time.Duration(p.IntervalMillis) * time.Millisecond
}

// ErrorPolicy decides what happens when a rule cannot be applied to a record.
type ErrorPolicy string

const (
	// ErrorPolicyLog logs the problem and keeps the partial result.
	ErrorPolicyLog ErrorPolicy = "log"
	// ErrorPolicySkip keeps the partial result silently.
	ErrorPolicySkip ErrorPolicy = "skip"
	// ErrorPolicyStop fails the whole call.
	ErrorPolicyStop ErrorPolicy = "stop"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means ErrorPolicyLog.
func (p ErrorPolicy) Valid() bool {
	switch p {
	case "", ErrorPolicyLog, ErrorPolicySkip, ErrorPolicyStop:
		return true
	default:
		return false
	}
}

// OrDefault returns p, or ErrorPolicyLog when p is empty.
func (p ErrorPolicy) OrDefault() ErrorPolicy {
	if p == "" {
		return ErrorPolicyLog
	}

	return p
}

// DefaultCheckpointInterval is the checkpoint interval of new ETL configs.
const DefaultCheckpointInterval = 1000

// ETLConfig captures the extract/validate/load settings of a pipeline.
type ETLConfig struct {
	ExtractionRules    []ExtractionRule `json:"extractionRules" yaml:"extraction_rules"`
	ValidationRules    []ValidationRule `json:"validationRules" yaml:"validation_rules"`
	ErrorHandling      ErrorPolicy      `json:"errorHandling" yaml:"error_handling"`
	ParallelProcessing bool             `json:"parallelProcessing" yaml:"parallel_processing"`
	CheckpointInterval int              `json:"checkpointInterval" yaml:"checkpoint_interval"`
}

// ExtractionRule describes one input field expected by the pipeline.
type ExtractionRule struct {
	Field      string          `json:"field" yaml:"field"`
	Type       string          `json:"type" yaml:"type"`
	Required   bool            `json:"required" yaml:"required"`
	Validation FieldValidation `json:"validation" yaml:"validation"`
}

// FieldValidation bounds the values of an extracted field.
type FieldValidation struct {
	MinLength *int   `json:"minLength,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"max_length,omitempty"`
	MinItems  *int   `json:"minItems,omitempty" yaml:"min_items,omitempty"`
	MaxItems  *int   `json:"maxItems,omitempty" yaml:"max_items,omitempty"`
	Values    []bool `json:"values,omitempty" yaml:"values,omitempty"`
}

// Validation rule types.
const (
	ValidationCompleteness  = "completeness"
	ValidationConsistency   = "consistency"
	ValidationTemporalOrder = "temporal_order"
)

// ValidationRule is a data-quality check applied to incoming records.
type ValidationRule struct {
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Threshold   *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Field       string   `json:"field,omitempty" yaml:"field,omitempty"`
}
