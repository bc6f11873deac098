package mapping

import (
	"fmt"
	"regexp"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/diagnostic"
	"github.com/workflow-builder/nodeq-mindmap/utils"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the structural invariants of a pipeline config: semantic
// version, accuracy range, rule parameters and one rule per target field.
func Validate(cfg *PipelineConfig) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if cfg == nil {
		res.AddError("config_is_nil", "pipeline config is nil", "", "")
		return res
	}

	if cfg.ID == "" {
		res.AddError("missing_id", "pipeline id is empty", "", "")
	}

	if !versionPattern.MatchString(cfg.Version) {
		res.AddError("invalid_version", fmt.Sprintf("version %q is not major.minor.patch", cfg.Version), cfg.ID, "")
	}

	if !utils.IsInRange(0, cfg.Accuracy, 1) {
		res.AddError("invalid_accuracy", fmt.Sprintf("accuracy %v outside [0,1]", cfg.Accuracy), cfg.ID, "")
	}

	if cfg.ETLConfig != nil && !cfg.ETLConfig.ErrorHandling.Valid() {
		res.AddError("invalid_error_policy",
			fmt.Sprintf("unknown error handling %q", cfg.ETLConfig.ErrorHandling), cfg.ID, "")
	}

	targets := make([]FieldPath, 0, len(cfg.TransformationRules))
	seenTargets := map[string]struct{}{}

	for i := range cfg.TransformationRules {
		r := &cfg.TransformationRules[i]

		tp, err := ParsePath(r.TargetField)
		if err != nil {
			res.AddError("invalid_target_path", err.Error(), cfg.ID, r.TargetField)
			continue
		}

		if _, ok := seenTargets[r.TargetField]; ok {
			res.AddError("duplicate_target", fmt.Sprintf("target %q written by more than one rule", r.TargetField), cfg.ID, r.TargetField)
			continue
		}

		seenTargets[r.TargetField] = struct{}{}

		for _, other := range targets {
			if other.IsPrefixOf(tp) || tp.IsPrefixOf(other) {
				res.AddError("overlapping_target",
					fmt.Sprintf("target %q overlaps %q", r.TargetField, other.String()), cfg.ID, r.TargetField)
			}
		}

		targets = append(targets, tp)

		validateRule(res, cfg.ID, r)
	}

	return res
}

func validateRule(res *diagnostic.Diagnostics, pipelineID string, r *TransformationRule) {
	if !r.Type.Valid() {
		res.AddError("invalid_rule_type", fmt.Sprintf("unknown rule type %q", r.Type), pipelineID, r.TargetField)
		return
	}

	if !utils.IsInRange(0, r.Confidence, 1) {
		res.AddError("invalid_confidence", fmt.Sprintf("confidence %v outside [0,1]", r.Confidence), pipelineID, r.TargetField)
	}

	for _, src := range r.SourceFields() {
		if _, err := ParsePath(src); err != nil {
			res.AddError("invalid_source_path", err.Error(), pipelineID, r.TargetField)
		}
	}

	switch r.Type {
	case TransformComparison:
		if r.Operator != "" && !ValidOperator(r.Operator) {
			res.AddError("invalid_operator", fmt.Sprintf("unknown operator %q", r.Operator), pipelineID, r.TargetField)
		}

		if r.Threshold == nil {
			res.AddWarning("missing_threshold", "comparison without threshold uses the engine default", pipelineID, r.TargetField)
		}
	case TransformTypecast:
		if r.TargetKind != "" {
			if _, err := analyze.ParseKind(r.TargetKind); err != nil {
				res.AddError("invalid_target_kind", err.Error(), pipelineID, r.TargetField)
			}
		}
	case TransformConcat:
		if len(r.Parts) == 0 {
			res.AddInfo("implicit_template", "concat without template copies the source field", pipelineID, r.TargetField)
		}
	case TransformMap, TransformCustom:
	}
}
