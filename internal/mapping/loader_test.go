package mapping

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

const sampleDoc = `{
  "id": "pipeline_1",
  "name": "profile",
  "inputSample": {"format": "json", "data": {"lastName": "Doe", "firstName": "Jane"}},
  "outputSample": {"data": {"fullName": "Jane Doe"}},
  "transformationRules": [
    {
      "id": "rule_1",
      "type": "concat",
      "sourceField": "firstName",
      "targetField": "fullName",
      "logic": "data.firstName + \" \" + data.lastName",
      "confidence": 0.85,
      "parts": [{"field": "firstName"}, {"literal": " "}, {"field": "lastName"}]
    }
  ],
  "accuracy": 0.85,
  "version": "1.0.2",
  "createdAt": "2024-05-01T10:00:00Z"
}`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "pipeline_1", cfg.ID)
	assert.Equal(t, "1.0.2", cfg.Version)
	assert.Equal(t, "built-in", cfg.ModelConfig.Type)
	assert.Equal(t, "json", cfg.OutputSample.Format)
	assert.Equal(t, cfg.CreatedAt, cfg.UpdatedAt)

	// Sample data keeps document key order.
	obj, ok := cfg.InputSample.Data.(*analyze.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"lastName", "firstName"}, obj.Keys())

	require.Len(t, cfg.TransformationRules, 1)
	rule := cfg.TransformationRules[0]
	assert.Equal(t, TransformConcat, rule.Type)
	assert.Equal(t, []string{"firstName", "lastName"}, rule.SourceFields())
	assert.Equal(t, "firstName+lastName -> fullName (concat)", rule.Describe())
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		fields []string
	}{
		{"bad version", `{"id":"p","name":"n","inputSample":{"data":{}},"outputSample":{"data":{}},"transformationRules":[],"accuracy":0.5,"version":"v1"}`, []string{"version"}},
		{"accuracy range", `{"id":"p","name":"n","inputSample":{"data":{}},"outputSample":{"data":{}},"transformationRules":[],"accuracy":1.5,"version":"1.0.0"}`, []string{"accuracy"}},
		{"missing samples", `{"id":"p","name":"n","transformationRules":[],"accuracy":0.5,"version":"1.0.0"}`, []string{"(root)", "inputSample"}},
		{"unknown rule type", `{"id":"p","name":"n","inputSample":{"data":{}},"outputSample":{"data":{}},"transformationRules":[{"id":"r","type":"window","sourceField":"a","targetField":"b","logic":"","confidence":0.5}],"accuracy":0.5,"version":"1.0.0"}`, []string{"transformationRules.0.type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var docErr *DocumentError
			require.ErrorAs(t, err, &docErr)

			fields := make([]string, 0, len(docErr.Errors))
			for _, fe := range docErr.Errors {
				fields = append(fields, fe.Field)
			}

			assert.True(t, slices.ContainsFunc(tt.fields, func(f string) bool {
				return slices.Contains(fields, f)
			}), "got fields %v", fields)
		})
	}

	_, err := Parse([]byte(`{not json`))
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestWriteAndLoadFile(t *testing.T) {
	threshold := 18.0
	cfg := &PipelineConfig{
		ID:           "pipeline_2",
		Name:         "adult check",
		InputSample:  NewJSONSample(map[string]any{"age": 25.0}),
		OutputSample: NewJSONSample(map[string]any{"isAdult": true}),
		TransformationRules: []TransformationRule{{
			ID: "rule_2", Type: TransformComparison, SourceField: "age", TargetField: "isAdult",
			Logic: "data.age >= 18", Confidence: 0.6, Operator: OpGreaterOrEqual, Threshold: &threshold,
		}},
		Accuracy:    0.6,
		Version:     InitialVersion,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ModelConfig: ModelConfig{Type: "built-in"},
		ETLConfig:   &ETLConfig{ErrorHandling: ErrorPolicySkip, CheckpointInterval: DefaultCheckpointInterval},
	}

	path := filepath.Join(t.TempDir(), "adult-check-pipeline.json")
	require.NoError(t, WriteFile(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.TransformationRules, loaded.TransformationRules)
	assert.Equal(t, cfg.CreatedAt, loaded.UpdatedAt)
	assert.Equal(t, ErrorPolicySkip, loaded.ETLConfig.ErrorHandling)

	age, ok := analyze.Lookup(loaded.InputSample.Data, "age")
	require.True(t, ok)
	assert.Equal(t, 25.0, age)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRulesYAML(t *testing.T) {
	cfg, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	out, err := MarshalRulesYAML(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "type: concat")
	assert.Contains(t, string(out), "target_field: fullName")

	rf, err := ParseRulesYAML(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.TransformationRules, rf.Rules)
	assert.Equal(t, "pipeline_1", rf.Pipeline)
}

func TestClone(t *testing.T) {
	cfg, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.TransformationRules[0].Parts[0].Field = "changed"
	clone.InputSample.Data.(*analyze.Object).Set("extra", 1.0)

	assert.Equal(t, "firstName", cfg.TransformationRules[0].Parts[0].Field)
	assert.Equal(t, 2, cfg.InputSample.Data.(*analyze.Object).Len())

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "apiKey")
}
