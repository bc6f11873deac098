package mindmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

func TestFromJSON(t *testing.T) {
	doc, err := analyze.DecodeJSON([]byte(`{
		"title": "Backend",
		"description": "Server side",
		"tags": ["go", 3, "sql"],
		"items": [
			{"name": "API", "children": [{"label": "REST"}]},
			{"zeta": 1, "alpha": 2},
			"not an object"
		]
	}`))
	require.NoError(t, err)

	got := FromJSON(doc)

	want := Node{
		Topic:   "Backend",
		Summary: "Server side",
		Skills:  []string{"go", "sql"},
		Children: []Node{
			{Topic: "API", Children: []Node{{Topic: "REST"}}},
			{Topic: "zeta"},
			{Topic: InvalidTopic, Summary: InvalidSummary},
		},
	}

	assert.Equal(t, want, got)
	assert.Equal(t, 5, got.Count())
}

func TestFromJSONEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		want Node
	}{
		{"nil", nil, Node{Topic: InvalidTopic, Summary: InvalidSummary}},
		{"scalar", "text", Node{Topic: InvalidTopic, Summary: InvalidSummary}},
		{"empty object", map[string]any{}, Node{Topic: UnnamedTopic}},
		{"non-string topic", map[string]any{"name": 1, "id": "x"}, Node{Topic: "x"}},
		{"map keys sorted", map[string]any{"b": 1, "a": 2}, Node{Topic: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromJSON(tt.doc))
		})
	}
}

func TestFromPipeline(t *testing.T) {
	cfg := mapping.PipelineConfig{
		ID:      "pipeline_1",
		Name:    "people",
		Version: "1.0.2",
		InputSample: mapping.NewJSONSample(map[string]any{
			"firstName": "Jane", "lastName": "Doe",
		}),
		OutputSample: mapping.NewJSONSample(map[string]any{"fullName": "Jane Doe"}),
		TransformationRules: []mapping.TransformationRule{{
			ID: "rule_1", Type: mapping.TransformConcat, SourceField: "firstName", TargetField: "fullName",
			Logic: `data.firstName + " " + data.lastName`, Confidence: 0.89,
			Parts: []mapping.ConcatPart{{Field: "firstName"}, {Literal: " "}, {Field: "lastName"}},
		}},
		Accuracy:    0.89,
		ModelConfig: mapping.ModelConfig{Type: "built-in"},
		DataSources: []mapping.DataSourceConfig{
			{Type: mapping.SourceRESTAPI, Connection: mapping.SourceConnection{APIEndpoint: "https://api.example.com/people"}},
		},
		ETLConfig: &mapping.ETLConfig{ErrorHandling: mapping.ErrorPolicySkip},
	}

	root := FromPipeline(cfg)

	assert.Equal(t, "people", root.Topic)
	assert.Equal(t, "version 1.0.2, accuracy 89%", root.Summary)
	assert.Equal(t, []string{"built-in", "errors: skip"}, root.Skills)
	require.Len(t, root.Children, 4)

	sources, ok := root.Find(TopicSources)
	require.True(t, ok)
	assert.Equal(t, "1 source", sources.Summary)
	assert.Equal(t, "https://api.example.com/people", sources.Children[0].Summary)

	input, ok := root.Find(TopicInputSchema)
	require.True(t, ok)
	assert.Equal(t, "2 fields", input.Summary)
	assert.Equal(t, Node{Topic: "firstName", Skills: []string{"string"}}, input.Children[0])

	rules, ok := root.Find(TopicRules)
	require.True(t, ok)
	assert.Equal(t, "firstName+lastName -> fullName (concat)", rules.Children[0].Topic)
	assert.Equal(t, []string{"concat", "confidence 89%"}, rules.Children[0].Skills)

	_, ok = root.Find(TopicOutputSchema)
	assert.True(t, ok)

	cfg.DataSources = nil
	sources, _ = FromPipeline(cfg).Find(TopicSources)
	assert.Equal(t, "samples only", sources.Summary)
}

func TestWriteOutline(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteOutline(&buf, Node{
		Topic:    "root",
		Summary:  "top",
		Children: []Node{{Topic: "leaf", Skills: []string{"a", "b"}}},
	}))

	assert.Equal(t, "- root: top\n  - leaf [a, b]\n", buf.String())
}

func TestWriteStyledOutlineWithoutTerminal(t *testing.T) {
	tree := Node{Topic: "root", Summary: "top", Children: []Node{{Topic: "leaf", Skills: []string{"a"}}}}

	var plain, styled bytes.Buffer

	require.NoError(t, WriteOutline(&plain, tree))
	require.NoError(t, WriteStyledOutline(&styled, tree, NewStyles(&styled)))

	assert.Equal(t, plain.String(), styled.String())
}
