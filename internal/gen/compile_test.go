package gen

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
)

func leaf(path string, value any) analyze.LeafRecord {
	kind, _ := analyze.KindOf(value)
	if f, ok := analyze.NormalizeNumber(value); ok {
		value = f
	}

	return analyze.LeafRecord{Path: path, Value: value, Kind: kind}
}

func counterIDs() func() string {
	n := 0

	return func() string {
		n++
		return fmt.Sprintf("rule_%d", n)
	}
}

// compile runs the resolver and compiler over two samples.
func compile(t *testing.T, in, out any) []mapping.TransformationRule {
	t.Helper()

	inputs := analyze.ExtractFields(in)

	res, err := plan.NewResolver(nil, plan.DefaultConfig(), nil).
		Resolve(context.Background(), inputs, analyze.ExtractFields(out))
	require.NoError(t, err)

	opts := DefaultCompileOptions()
	opts.NewID = counterIDs()

	return CompileRules(res.Mappings, inputs, opts)
}

func TestInferConcatParts(t *testing.T) {
	inputs := []analyze.LeafRecord{leaf("firstName", "Jane"), leaf("lastName", "Doe"), leaf("age", 30)}

	tests := []struct {
		name   string
		source analyze.LeafRecord
		output string
		want   []mapping.ConcatPart
	}{
		{
			name:   "two fields",
			source: inputs[0],
			output: "Jane Doe",
			want:   []mapping.ConcatPart{{Field: "firstName"}, {Literal: " "}, {Field: "lastName"}},
		},
		{
			name:   "prefix and suffix literals",
			source: inputs[0],
			output: "Dr. Jane Doe!",
			want: []mapping.ConcatPart{
				{Literal: "Dr. "}, {Field: "firstName"}, {Literal: " "}, {Field: "lastName"}, {Literal: "!"},
			},
		},
		{
			name:   "reversed order",
			source: inputs[0],
			output: "Doe, Jane",
			want:   []mapping.ConcatPart{{Field: "lastName"}, {Literal: ", "}, {Field: "firstName"}},
		},
		{
			name:   "source not found",
			source: leaf("nick", "JJ"),
			output: "Jane",
			want:   []mapping.ConcatPart{{Field: "nick"}},
		},
		{
			name:   "root source",
			source: leaf("", "Jane"),
			output: "Jane Doe",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferConcatParts(tt.source, tt.output, inputs))
		})
	}
}

func TestCompileRules(t *testing.T) {
	mappings := []plan.FieldMapping{
		{Input: leaf("firstName", "Jane"), Output: leaf("fullName", "Jane Doe"), Kind: mapping.TransformConcat, Prediction: 0.9},
		{Input: leaf("age", 25), Output: leaf("isAdult", true), Kind: mapping.TransformComparison, Prediction: 0.5},
		{Input: leaf("age", 10), Output: leaf("isMinor", true), Kind: mapping.TransformComparison, Prediction: 0.5},
		{Input: leaf("id", 1), Output: leaf("key", "1"), Kind: mapping.TransformTypecast, Prediction: 0.67},
		{Input: leaf("user.email", "a@b.c"), Output: leaf("email", 3), Kind: mapping.TransformCustom, Prediction: 0.4},
	}
	inputs := []analyze.LeafRecord{leaf("firstName", "Jane"), leaf("lastName", "Doe")}

	rules := CompileRules(mappings, inputs, DefaultCompileOptions())
	require.Len(t, rules, len(mappings))

	want := []string{
		`data.firstName + " " + data.lastName`,
		`data.age >= 18`,
		`data.age < 18`,
		`String(data.id)`,
		`data.user.email`,
	}

	ids := map[string]bool{}

	for i, rule := range rules {
		assert.Equal(t, want[i], rule.Logic, rule.TargetField)
		assert.Equal(t, mappings[i].Prediction, rule.Confidence)
		assert.True(t, strings.HasPrefix(rule.ID, RuleIDPrefix), rule.ID)
		assert.False(t, ids[rule.ID], "duplicate id %s", rule.ID)
		ids[rule.ID] = true
	}

	require.NotNil(t, rules[1].Threshold)
	assert.Equal(t, 18.0, *rules[1].Threshold)
	assert.Equal(t, mapping.OpLess, rules[2].Operator)
	assert.Equal(t, "string", rules[3].TargetKind)
}

func TestLogicDefaults(t *testing.T) {
	assert.Equal(t, "data.age >= 18", Logic(mapping.TransformationRule{Type: mapping.TransformComparison, SourceField: "age"}))
	assert.Equal(t, "data", Logic(mapping.TransformationRule{Type: mapping.TransformConcat}))
	assert.Equal(t, "Boolean(data.flag)", Logic(mapping.TransformationRule{
		Type: mapping.TransformTypecast, SourceField: "flag", TargetKind: "boolean",
	}))
	assert.Equal(t, "data.tags", Logic(mapping.TransformationRule{
		Type: mapping.TransformTypecast, SourceField: "tags", TargetKind: "array",
	}))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		in   any
		kind string
		want any
		ok   bool
	}{
		{1.0, "string", "1", true},
		{2.5, "string", "2.5", true},
		{true, "string", "true", true},
		{nil, "string", "", false},
		{" 7 ", "number", 7.0, true},
		{"seven", "number", 0.0, false},
		{true, "number", 1.0, true},
		{"false", "boolean", false, true},
		{"yes", "boolean", true, true},
		{0.0, "boolean", false, true},
		{[]any{1}, "array", []any{1}, true},
	}

	for _, tt := range tests {
		got, ok := Convert(tt.in, tt.kind)
		assert.Equal(t, tt.ok, ok, "%v -> %s", tt.in, tt.kind)

		if tt.ok {
			assert.Equal(t, tt.want, got, "%v -> %s", tt.in, tt.kind)
		}
	}
}
