package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// Backend types accepted in mapping.ModelConfig.Type.
const (
	TypeBuiltIn   = "built-in"
	TypeRuleBased = "rule-based"
	TypeLinear    = "linear"
	TypeHTTP      = "http"
)

// DefaultTimeout bounds a single backend call when the config sets none.
const DefaultTimeout = 2 * time.Second

// Rule-based boosts.
const (
	mapBoost           = 0.2
	mapBoostMinSim     = 0.8
	concatBoost        = 0.1
	comparisonBoost    = 0.05
	maxPredictionScore = 1.0
)

// ErrBackendUnavailable is matched by every BackendUnavailable.
var ErrBackendUnavailable = errors.New("scoring backend unavailable")

// BackendUnavailable reports that an optional backend could not answer.
// It is logged and never returned from Scorer.Predict.
type BackendUnavailable struct {
	Backend string
	Cause   error
}

func (e *BackendUnavailable) Error() string {
	return fmt.Sprintf("scoring backend %s unavailable: %v", e.Backend, e.Cause)
}

func (e *BackendUnavailable) Unwrap() error {
	return e.Cause
}

// Is matches ErrBackendUnavailable.
func (e *BackendUnavailable) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// Backend estimates the probability that a mapping is correct.
type Backend interface {
	Name() string
	Predict(ctx context.Context, f Features) (float64, error)
}

// RuleBased is the deterministic built-in estimate.
type RuleBased struct{}

// Name implements Backend.
func (RuleBased) Name() string { return TypeRuleBased }

// Predict implements Backend. It never fails.
func (RuleBased) Predict(_ context.Context, f Features) (float64, error) {
	return RuleEstimate(f), nil
}

// RuleEstimate starts from the combined similarity and boosts well-known
// transformation patterns, capped at 1.
func RuleEstimate(f Features) float64 {
	score := f.Similarity.Combined

	switch f.Transform {
	case mapping.TransformMap:
		if f.Similarity.Combined > mapBoostMinSim {
			score += mapBoost
		}
	case mapping.TransformConcat:
		score += concatBoost
	case mapping.TransformComparison:
		score += comparisonBoost
	case mapping.TransformTypecast, mapping.TransformCustom:
	}

	return min(score, maxPredictionScore)
}

// Scorer consults an optional backend and falls back to RuleEstimate.
// It is safe for concurrent use.
type Scorer struct {
	backend  Backend
	timeout  time.Duration
	logger   *slog.Logger
	failures atomic.Int64
}

// NewScorer wraps backend. A nil backend means rule-based only.
func NewScorer(backend Backend, timeout time.Duration, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if _, ok := backend.(RuleBased); ok {
		backend = nil
	}

	return &Scorer{backend: backend, timeout: timeout, logger: logger}
}

// New builds a Scorer from a model config. Backends that fail to initialise
// are logged as unavailable and the Scorer runs rule-based.
func New(cfg mapping.ModelConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		logger.Warn("predict.backend_unavailable",
			"backend", cfg.Type,
			"stage", "init",
			"error", &BackendUnavailable{Backend: cfg.Type, Cause: err},
		)

		return NewScorer(nil, timeout, logger)
	}

	return NewScorer(backend, timeout, logger)
}

// NewBackend selects a backend by cfg.Type.
func NewBackend(cfg mapping.ModelConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "", TypeBuiltIn, TypeRuleBased:
		return RuleBased{}, nil
	case TypeLinear:
		linear, err := LoadLinear(cfg.WeightsPath)
		if err != nil {
			return nil, err
		}

		return linear, nil
	case TypeHTTP:
		remote, err := NewHTTPBackend(cfg.Endpoint, cfg.APIKey, nil, logger)
		if err != nil {
			return nil, err
		}

		return remote, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", cfg.Type)
	}
}

// Name returns the name of the active backend.
func (s *Scorer) Name() string {
	if s.backend == nil {
		return TypeRuleBased
	}

	return s.backend.Name()
}

// Deterministic reports whether Predict depends only on its features.
func (s *Scorer) Deterministic() bool {
	return s.backend == nil
}

// Failures counts backend calls that fell back to the rule-based estimate.
func (s *Scorer) Failures() int64 {
	return s.failures.Load()
}

// Predict returns a score in [0,1]. It never fails.
func (s *Scorer) Predict(ctx context.Context, f Features) float64 {
	fallback := RuleEstimate(f)
	if s.backend == nil {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	score, err := s.backend.Predict(callCtx, f)
	if err == nil && (math.IsNaN(score) || score < 0 || score > 1) {
		err = fmt.Errorf("score %v outside [0,1]", score)
	}

	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("predict.backend_unavailable",
			"backend", s.backend.Name(),
			"input", f.Input.Path,
			"output", f.Output.Path,
			"error", &BackendUnavailable{Backend: s.backend.Name(), Cause: err},
		)

		return fallback
	}

	return score
}
