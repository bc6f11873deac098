package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

func leaf(path string, value any) analyze.LeafRecord {
	kind, _ := analyze.KindOf(value)
	if f, ok := analyze.NormalizeNumber(value); ok {
		value = f
	}

	return analyze.LeafRecord{Path: path, Value: value, Kind: kind}
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type stubBackend struct {
	score float64
	err   error
	delay time.Duration
}

func (s stubBackend) Name() string { return "stub" }

func (s stubBackend) Predict(ctx context.Context, _ Features) (float64, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	return s.score, s.err
}

func TestRuleEstimate(t *testing.T) {
	tests := []struct {
		name string
		in   analyze.LeafRecord
		out  analyze.LeafRecord
		kind mapping.TransformKind
		want func(sim float64) float64
	}{
		{"map boost above 0.8", leaf("id", 1), leaf("id", 1), mapping.TransformMap,
			func(sim float64) float64 { return min(sim+0.2, 1) }},
		{"map without boost", leaf("x", 1), leaf("yy", 1), mapping.TransformMap,
			func(sim float64) float64 { return sim }},
		{"concat", leaf("firstName", "Jane"), leaf("fullName", "Jane Doe"), mapping.TransformConcat,
			func(sim float64) float64 { return sim + 0.1 }},
		{"comparison", leaf("age", 25), leaf("isAdult", true), mapping.TransformComparison,
			func(sim float64) float64 { return sim + 0.05 }},
		{"typecast", leaf("id", 1), leaf("id", "1"), mapping.TransformTypecast,
			func(sim float64) float64 { return sim }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFeatures(tt.in, tt.out, tt.kind)
			got := RuleEstimate(f)

			assert.InDelta(t, tt.want(f.Similarity.Combined), got, 1e-9)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestFeaturesVector(t *testing.T) {
	f := NewFeatures(leaf("user.age", 25), leaf("isAdult", true), mapping.TransformComparison)
	v := f.Vector()

	require.Len(t, v, FeatureCount)
	assert.InDelta(t, 0.08, v[1], 1e-9)
	assert.Equal(t, 1.0, v[4])
	assert.Equal(t, 1.0, v[8])
	assert.Equal(t, 0.7, v[9])
	assert.Equal(t, 1.0, v[17])
	assert.Equal(t, 1.0, v[18])
	assert.Equal(t, 0.0, v[19])

	again := NewFeatures(leaf("user.age", 25), leaf("isAdult", true), mapping.TransformComparison).Vector()
	assert.Equal(t, v, again)

	cased := NewFeatures(leaf("Name", "x"), leaf("name", "x"), mapping.TransformMap)
	assert.Equal(t, 1.0, cased.Similarity.Name)
	assert.InDelta(t, 0.75, cased.Vector()[0], 1e-9)
}

func TestScorerFallsBack(t *testing.T) {
	f := NewFeatures(leaf("age", 25), leaf("isAdult", true), mapping.TransformComparison)
	expected := RuleEstimate(f)

	tests := []struct {
		name    string
		backend Backend
	}{
		{"error", stubBackend{err: errors.New("boom")}},
		{"out of range", stubBackend{score: 1.7}},
		{"timeout", stubBackend{score: 0.9, delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer

			s := NewScorer(tt.backend, 20*time.Millisecond, testLogger(&logs))

			assert.InDelta(t, expected, s.Predict(context.Background(), f), 1e-9)
			assert.Equal(t, int64(1), s.Failures())
			assert.Contains(t, logs.String(), "predict.backend_unavailable")
			assert.False(t, s.Deterministic())
		})
	}
}

func TestScorerUsesBackend(t *testing.T) {
	s := NewScorer(stubBackend{score: 0.42}, time.Second, nil)
	f := NewFeatures(leaf("a", 1), leaf("b", 2), mapping.TransformCustom)

	assert.InDelta(t, 0.42, s.Predict(context.Background(), f), 1e-9)
	assert.Equal(t, "stub", s.Name())
	assert.Zero(t, s.Failures())
}

func TestNewSelectsBackend(t *testing.T) {
	var logs bytes.Buffer

	s := New(mapping.ModelConfig{Type: TypeBuiltIn}, testLogger(&logs))
	assert.True(t, s.Deterministic())
	assert.Equal(t, TypeRuleBased, s.Name())

	s = New(mapping.ModelConfig{Type: "tensorflow"}, testLogger(&logs))
	assert.True(t, s.Deterministic())
	assert.Contains(t, logs.String(), "stage=init")

	s = New(mapping.ModelConfig{Type: TypeLinear, WeightsPath: filepath.Join(t.TempDir(), "absent.yaml")}, testLogger(&logs))
	assert.Equal(t, TypeRuleBased, s.Name())

	s = New(mapping.ModelConfig{Type: TypeHTTP, Endpoint: "not a url"}, testLogger(&logs))
	assert.Equal(t, TypeRuleBased, s.Name())

	var unavailable *BackendUnavailable
	err := error(&BackendUnavailable{Backend: "http", Cause: errors.New("down")})
	assert.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestLinearBackend(t *testing.T) {
	weights := make([]float64, FeatureCount)
	weights[0] = 4 // path similarity

	path := filepath.Join(t.TempDir(), "weights.yaml")

	doc := "bias: -2\nweights: ["
	for i, w := range weights {
		if i > 0 {
			doc += ", "
		}

		b, _ := json.Marshal(w)
		doc += string(b)
	}

	doc += "]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := New(mapping.ModelConfig{Type: TypeLinear, WeightsPath: path}, nil)
	require.Equal(t, TypeLinear, s.Name())

	same := s.Predict(context.Background(), NewFeatures(leaf("id", 1), leaf("id", 1), mapping.TransformMap))
	diff := s.Predict(context.Background(), NewFeatures(leaf("x", 1), leaf("yyy", 1), mapping.TransformMap))

	// sigmoid(-2 + 4) and sigmoid(-2)
	assert.InDelta(t, 0.8808, same, 1e-4)
	assert.InDelta(t, 0.1192, diff, 1e-4)

	_, err := NewLinear(LinearWeights{Weights: []float64{1}})
	assert.Error(t, err)
}

func TestHTTPBackend(t *testing.T) {
	var got scoreRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"score": 0.77}`))
	}))
	defer srv.Close()

	s := New(mapping.ModelConfig{Type: TypeHTTP, Endpoint: srv.URL, APIKey: "secret"}, nil)
	f := NewFeatures(leaf("age", 25), leaf("isAdult", true), mapping.TransformComparison)

	assert.InDelta(t, 0.77, s.Predict(context.Background(), f), 1e-9)
	assert.Equal(t, "comparison", got.Transform)
	assert.Equal(t, "age", got.Input)
	assert.Len(t, got.Features, FeatureCount)
}

func TestHTTPBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	f := NewFeatures(leaf("a", "x"), leaf("b", "x"), mapping.TransformMap)

	for _, p := range []string{"/down", "/empty", "/garbage"} {
		backend, err := NewHTTPBackend(srv.URL+p, "", nil, nil)
		require.NoError(t, err)

		_, err = backend.Predict(context.Background(), f)
		assert.Error(t, err, p)
	}

	_, err := NewHTTPBackend("", "", nil, nil)
	assert.Error(t, err)
}
