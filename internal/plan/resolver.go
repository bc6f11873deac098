package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/match"
	"github.com/workflow-builder/nodeq-mindmap/internal/predict"
)

// Selection blend weights.
const (
	SimilarityWeight = 0.4
	PredictionWeight = 0.6
)

// DefaultFloor is the score a candidate must exceed to be mapped.
const DefaultFloor = 0.3

// ResolutionConfig holds configuration for the resolution process.
type ResolutionConfig struct {
	// Floor is the exclusive minimum selection score.
	Floor float64
	// MaxSuggestions is the number of candidates listed for an unmapped output.
	MaxSuggestions int
	// AmbiguityThreshold marks a mapping as ambiguous when the runner-up is
	// within this score difference.
	AmbiguityThreshold float64
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		Floor:              DefaultFloor,
		MaxSuggestions:     match.DefaultSuggestionCount,
		AmbiguityThreshold: match.DefaultAmbiguityThreshold,
	}
}

// Resolver performs greedy per-output matching.
type Resolver struct {
	scorer *predict.Scorer
	config ResolutionConfig
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil scorer means rule-based prediction.
func NewResolver(scorer *predict.Scorer, config ResolutionConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	if scorer == nil {
		scorer = predict.NewScorer(nil, 0, logger)
	}

	if config.MaxSuggestions <= 0 {
		config.MaxSuggestions = match.DefaultSuggestionCount
	}

	return &Resolver{scorer: scorer, config: config, logger: logger}
}

// Floor returns the configured confidence floor.
func (r *Resolver) Floor() float64 {
	return r.config.Floor
}

// Blend combines raw similarity and prediction into the selection score.
func Blend(similarity, prediction float64) float64 {
	return SimilarityWeight*similarity + PredictionWeight*prediction
}

// Evaluate scores a single input/output pair.
func (r *Resolver) Evaluate(ctx context.Context, in, out analyze.LeafRecord) FieldMapping {
	kind := Classify(in, out)
	features := predict.NewFeatures(in, out, kind)
	prediction := r.scorer.Predict(ctx, features)

	return FieldMapping{
		Input:      in,
		Output:     out,
		Similarity: features.Similarity,
		Kind:       kind,
		Prediction: prediction,
		Score:      Blend(features.Similarity.Combined, prediction),
	}
}

// Resolve picks at most one input leaf for every output leaf.
//
// For each output the input with the strictly highest score wins, provided
// the score exceeds the floor. Ties keep the earlier input. The only error
// is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, inputs, outputs []analyze.LeafRecord) (*Resolution, error) {
	res := &Resolution{}

	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if out.Path == "" {
			res.Unmapped = append(res.Unmapped, UnmappedField{
				Output: out,
				Reason: "output sample is not an object",
			})
			res.Diagnostics.AddWarning(CodeRootOutput,
				"output sample root is a bare value; a record needs a field name", "", out.Path)

			continue
		}

		var (
			best      *FieldMapping
			runnerUp  float64
			bestScore float64
		)

		for _, in := range inputs {
			candidate := r.Evaluate(ctx, in, out)

			switch {
			case candidate.Score > bestScore:
				runnerUp = bestScore
				bestScore = candidate.Score
			case candidate.Score > runnerUp:
				runnerUp = candidate.Score
			}

			if candidate.Score > r.config.Floor && (best == nil || candidate.Score > best.Score) {
				best = &candidate
			}
		}

		if best == nil {
			r.addUnmapped(res, out, inputs, bestScore)
			continue
		}

		if runnerUp > r.config.Floor && best.Score-runnerUp < r.config.AmbiguityThreshold {
			res.Diagnostics.AddInfo(CodeAmbiguous,
				fmt.Sprintf("runner-up scored within %.2f of %s", r.config.AmbiguityThreshold, best.InputPath()),
				"", out.Path)
		}

		r.logger.Debug("plan.mapping",
			"input", best.InputPath(),
			"output", best.OutputPath(),
			"kind", best.Kind,
			"similarity", best.Similarity.Combined,
			"prediction", best.Prediction,
			"score", best.Score,
		)

		res.Mappings = append(res.Mappings, *best)
	}

	return res, nil
}

func (r *Resolver) addUnmapped(res *Resolution, out analyze.LeafRecord, inputs []analyze.LeafRecord, bestScore float64) {
	candidates := match.RankCandidates(out, inputs).Top(r.config.MaxSuggestions)

	reason := "no input fields"
	if len(inputs) > 0 {
		reason = fmt.Sprintf("best score %.2f is not above %.2f", bestScore, r.config.Floor)
	}

	res.Unmapped = append(res.Unmapped, UnmappedField{
		Output:     out,
		Candidates: candidates,
		BestScore:  bestScore,
		Reason:     reason,
	})

	res.Diagnostics.AddWarningWithSuggestions(CodeUnmappedField,
		fmt.Sprintf("no input field maps to %s: %s", out.Path, reason),
		"", out.Path, candidates.Paths())

	r.logger.Debug("plan.unmapped", "output", out.Path, "best_score", bestScore)
}
