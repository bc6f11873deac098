package plan

import (
	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/diagnostic"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/match"
)

// Diagnostic codes emitted by the resolver.
const (
	CodeUnmappedField = "unmapped_field"
	CodeRootOutput    = "root_output"
	CodeAmbiguous     = "ambiguous_mapping"
)

// FieldMapping is one resolved input-to-output correspondence.
type FieldMapping struct {
	Input  analyze.LeafRecord
	Output analyze.LeafRecord

	// Similarity is the raw leaf similarity, kept for diagnostics.
	Similarity match.Similarity
	// Kind is the classified transformation.
	Kind mapping.TransformKind
	// Prediction is the scorer estimate in [0,1].
	Prediction float64
	// Score is the selection blend of similarity and prediction.
	Score float64
}

// InputPath returns the dotted path of the source leaf.
func (m FieldMapping) InputPath() string { return m.Input.Path }

// OutputPath returns the dotted path of the target leaf.
func (m FieldMapping) OutputPath() string { return m.Output.Path }

// Confidence is the value recorded on the compiled rule.
func (m FieldMapping) Confidence() float64 { return m.Prediction }

// UnmappedField is an output leaf that received no mapping.
type UnmappedField struct {
	Output analyze.LeafRecord
	// Candidates are the ranked potential matches (for suggestions).
	Candidates match.CandidateList
	// BestScore is the highest selection score seen, if any input existed.
	BestScore float64
	// Reason explains why it wasn't mapped.
	Reason string
}

// Resolution is the outcome of resolving one sample pair.
type Resolution struct {
	// Mappings follow output extraction order.
	Mappings []FieldMapping
	Unmapped []UnmappedField
	// Diagnostics records unmapped and ambiguous outputs.
	Diagnostics diagnostic.Diagnostics
}

// TargetPaths returns the output paths of the mappings in order.
func (r *Resolution) TargetPaths() []string {
	out := make([]string, 0, len(r.Mappings))
	for _, m := range r.Mappings {
		out = append(out, m.OutputPath())
	}

	return out
}

// Mapping returns the mapping for an output path.
func (r *Resolution) Mapping(outputPath string) (FieldMapping, bool) {
	for _, m := range r.Mappings {
		if m.OutputPath() == outputPath {
			return m, true
		}
	}

	return FieldMapping{}, false
}
