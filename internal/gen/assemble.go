package gen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// Reasons carried by FieldTransformWarning.
const (
	ReasonMissing    = "source field missing"
	ReasonConversion = "value cannot be converted"
)

// ErrFieldTransform is matched by every FieldTransformWarning.
var ErrFieldTransform = errors.New("field transform failed")

// FieldTransformWarning reports a rule that could not read or convert its
// source. Only the rule's own target field is affected.
type FieldTransformWarning struct {
	RuleID      string
	SourceField string
	TargetField string
	Reason      string
}

func (w *FieldTransformWarning) Error() string {
	return fmt.Sprintf("rule %s: %s -> %s: %s", w.RuleID, w.SourceField, w.TargetField, w.Reason)
}

// Is matches ErrFieldTransform.
func (w *FieldTransformWarning) Is(target error) bool {
	return target == ErrFieldTransform
}

// TransformFunc executes compiled rules against one record. The record may
// be an *analyze.Object or a map[string]any. Warnings are returned for every
// affected field; err is non-nil only under the stop policy.
type TransformFunc func(record any) (out map[string]any, warnings []FieldTransformWarning, err error)

// step is one compiled rule. apply reports whether the target is written.
type step struct {
	rule  mapping.TransformationRule
	apply func(record any) (value any, set bool, warn *FieldTransformWarning)
}

// Assemble compiles rules into a TransformFunc once. The returned function
// performs no I/O and is safe for concurrent use.
func Assemble(rules []mapping.TransformationRule, policy mapping.ErrorPolicy, logger *slog.Logger) (TransformFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy = policy.OrDefault()

	steps := make([]step, 0, len(rules))
	targets := make(map[string]string, len(rules))

	for _, rule := range rules {
		if rule.TargetField == "" {
			return nil, fmt.Errorf("rule %s has no target field", rule.ID)
		}

		if prev, dup := targets[rule.TargetField]; dup {
			return nil, fmt.Errorf("rules %s and %s both target %s", prev, rule.ID, rule.TargetField)
		}

		targets[rule.TargetField] = rule.ID

		apply, err := compileStep(rule.Clone())
		if err != nil {
			return nil, err
		}

		steps = append(steps, step{rule: rule.Clone(), apply: apply})
	}

	return func(record any) (map[string]any, []FieldTransformWarning, error) {
		out := make(map[string]any, len(steps))

		var warnings []FieldTransformWarning

		for _, s := range steps {
			value, set, warn := s.apply(record)

			if warn != nil {
				switch policy {
				case mapping.ErrorPolicyStop:
					return nil, append(warnings, *warn), warn
				case mapping.ErrorPolicyLog:
					logger.Warn("gen.field_transform_warning",
						"rule_id", warn.RuleID,
						"source", warn.SourceField,
						"target", warn.TargetField,
						"reason", warn.Reason,
					)
				case mapping.ErrorPolicySkip:
				}

				warnings = append(warnings, *warn)
			}

			if set {
				analyze.SetPath(out, s.rule.TargetField, value)
			}
		}

		return out, warnings, nil
	}, nil
}

func compileStep(rule mapping.TransformationRule) (func(any) (any, bool, *FieldTransformWarning), error) {
	warn := func(field, reason string) *FieldTransformWarning {
		return &FieldTransformWarning{
			RuleID:      rule.ID,
			SourceField: field,
			TargetField: rule.TargetField,
			Reason:      reason,
		}
	}

	src := rule.SourceField

	switch rule.Type {
	case mapping.TransformMap, mapping.TransformCustom:
		return func(record any) (any, bool, *FieldTransformWarning) {
			v, ok := analyze.Lookup(record, src)
			if !ok {
				return nil, false, warn(src, ReasonMissing)
			}

			return v, true, nil
		}, nil

	case mapping.TransformConcat:
		if len(rule.Parts) == 0 {
			return func(record any) (any, bool, *FieldTransformWarning) {
				v, ok := analyze.Lookup(record, src)
				if !ok {
					return "", true, warn(src, ReasonMissing)
				}

				str, _ := ToString(v)

				return str, true, nil
			}, nil
		}

		parts := rule.Parts

		return func(record any) (any, bool, *FieldTransformWarning) {
			var (
				sb      strings.Builder
				missing *FieldTransformWarning
			)

			for _, p := range parts {
				if !p.IsField() {
					sb.WriteString(p.Literal)
					continue
				}

				v, ok := analyze.Lookup(record, p.Field)
				if !ok {
					if missing == nil {
						missing = warn(p.Field, ReasonMissing)
					}

					continue
				}

				str, _ := ToString(v)
				sb.WriteString(str)
			}

			return sb.String(), true, missing
		}, nil

	case mapping.TransformComparison:
		op, threshold := comparisonParams(rule)

		return func(record any) (any, bool, *FieldTransformWarning) {
			v, ok := analyze.Lookup(record, src)
			if !ok {
				return false, true, warn(src, ReasonMissing)
			}

			n, ok := ToNumber(v)
			if !ok {
				return false, true, warn(src, ReasonConversion)
			}

			return Compare(n, op, threshold), true, nil
		}, nil

	case mapping.TransformTypecast:
		kind := rule.TargetKind

		return func(record any) (any, bool, *FieldTransformWarning) {
			v, ok := analyze.Lookup(record, src)
			if !ok {
				return nil, false, warn(src, ReasonMissing)
			}

			converted, ok := Convert(v, kind)
			if !ok {
				return nil, false, warn(src, ReasonConversion)
			}

			return converted, true, nil
		}, nil

	default:
		return nil, fmt.Errorf("rule %s: unknown transform type %q", rule.ID, rule.Type)
	}
}
