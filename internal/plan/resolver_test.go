package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

func resolve(t *testing.T, in, out map[string]any) *Resolution {
	t.Helper()

	r := NewResolver(nil, DefaultConfig(), nil)

	res, err := r.Resolve(context.Background(), analyze.ExtractFields(in), analyze.ExtractFields(out))
	require.NoError(t, err)

	return res
}

func TestResolveConcat(t *testing.T) {
	res := resolve(t,
		map[string]any{"firstName": "Jane", "lastName": "Doe"},
		map[string]any{"fullName": "Jane Doe"},
	)

	require.Len(t, res.Mappings, 1)
	m := res.Mappings[0]

	assert.Equal(t, "firstName", m.InputPath())
	assert.Equal(t, "fullName", m.OutputPath())
	assert.Equal(t, mapping.TransformConcat, m.Kind)
	assert.InDelta(t, 0.7922, m.Similarity.Combined, 1e-3)
	assert.InDelta(t, 0.8922, m.Confidence(), 1e-3)
	assert.InDelta(t, 0.8522, m.Score, 1e-3)
	assert.Empty(t, res.Unmapped)
}

func TestResolveComparison(t *testing.T) {
	res := resolve(t, map[string]any{"age": 25}, map[string]any{"isAdult": true})

	require.Len(t, res.Mappings, 1)
	assert.Equal(t, mapping.TransformComparison, res.Mappings[0].Kind)
	assert.InDelta(t, 0.4771, res.Mappings[0].Score, 1e-3)
}

func TestResolveTypecast(t *testing.T) {
	res := resolve(t, map[string]any{"id": 1}, map[string]any{"id": "1"})

	require.Len(t, res.Mappings, 1)
	assert.Equal(t, mapping.TransformTypecast, res.Mappings[0].Kind)
	assert.InDelta(t, 0.67, res.Mappings[0].Score, 1e-9)
}

func TestResolveFloor(t *testing.T) {
	res := resolve(t, map[string]any{"zzz": true}, map[string]any{"abcdefg": 12})

	assert.Empty(t, res.Mappings)
	require.Len(t, res.Unmapped, 1)
	assert.Equal(t, "abcdefg", res.Unmapped[0].Output.Path)
	assert.Equal(t, []string{"zzz"}, res.Unmapped[0].Candidates.Paths())
	assert.LessOrEqual(t, res.Unmapped[0].BestScore, DefaultFloor)

	diags := res.Diagnostics.WithCode(CodeUnmappedField)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"zzz"}, diags[0].Suggestions)
}

func TestResolveTiesKeepFirstInput(t *testing.T) {
	in := analyze.NewObject()
	in.Set("b", "x")
	in.Set("a", "x")

	r := NewResolver(nil, DefaultConfig(), nil)
	res, err := r.Resolve(context.Background(), analyze.ExtractFields(in), analyze.ExtractFields(map[string]any{"c": "x"}))
	require.NoError(t, err)

	require.Len(t, res.Mappings, 1)
	assert.Equal(t, "b", res.Mappings[0].InputPath())
	assert.Len(t, res.Diagnostics.WithCode(CodeAmbiguous), 1)
}

func TestResolveIsGreedyPerOutput(t *testing.T) {
	res := resolve(t,
		map[string]any{"name": "Jane"},
		map[string]any{"alias": "Jane", "name": "Jane"},
	)

	require.Len(t, res.Mappings, 2)
	assert.Equal(t, []string{"alias", "name"}, res.TargetPaths())

	for _, m := range res.Mappings {
		assert.Equal(t, "name", m.InputPath())
	}
}

func TestResolveScoresAboveFloor(t *testing.T) {
	res := resolve(t,
		map[string]any{"user": map[string]any{"first": "Ann", "age": 41}, "active": true, "code": "X1"},
		map[string]any{"name": "Ann", "isAdult": true, "enabled": true, "ref": 9.5},
	)

	for _, m := range res.Mappings {
		assert.Greater(t, m.Score, DefaultFloor, m.OutputPath())
	}

	seen := map[string]bool{}
	for _, p := range res.TargetPaths() {
		assert.False(t, seen[p], "duplicate target %s", p)
		seen[p] = true
	}

	assert.Equal(t, len(res.Mappings)+len(res.Unmapped), 4)
}

func TestResolveRootOutput(t *testing.T) {
	res := resolve(t, map[string]any{"a": "x"}, nil)
	assert.Empty(t, res.Mappings)

	r := NewResolver(nil, DefaultConfig(), nil)
	res, err := r.Resolve(context.Background(), analyze.ExtractFields(map[string]any{"a": "x"}), analyze.ExtractFields("x"))
	require.NoError(t, err)

	assert.Empty(t, res.Mappings)
	require.Len(t, res.Unmapped, 1)
	assert.Len(t, res.Diagnostics.WithCode(CodeRootOutput), 1)
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(nil, DefaultConfig(), nil)
	_, err := r.Resolve(ctx, analyze.ExtractFields(map[string]any{"a": 1}), analyze.ExtractFields(map[string]any{"a": 1}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveDeterministic(t *testing.T) {
	in := map[string]any{"first": "Ann", "last": "Lee", "age": 30, "id": 7}
	out := map[string]any{"full": "Ann Lee", "adult": true, "key": "7"}

	a := resolve(t, in, out)
	b := resolve(t, in, out)

	assert.Equal(t, a.Mappings, b.Mappings)
}

func TestReport(t *testing.T) {
	res := resolve(t,
		map[string]any{"firstName": "Jane", "flag": true},
		map[string]any{"fullName": "Jane Doe", "zzzzzzzzzz": 3},
	)

	report := GenerateReport(res)
	assert.True(t, report.NeedsReview)
	require.Len(t, report.Matched, 1)
	assert.Equal(t, "concat", report.Matched[0].Kind)

	text := FormatReport(report)
	assert.Contains(t, text, "✓ firstName -> fullName")
	assert.Contains(t, text, "✗ zzzzzzzzzz")
	assert.Contains(t, text, "needs manual review")
}
