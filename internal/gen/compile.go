package gen

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
)

// DefaultComparisonThreshold is the threshold of inferred comparison rules.
const DefaultComparisonThreshold = 18.0

// RuleIDPrefix starts every generated rule id.
const RuleIDPrefix = "rule_"

// CompileOptions tune rule compilation.
type CompileOptions struct {
	// ComparisonThreshold is used for every comparison rule.
	ComparisonThreshold float64
	// NewID generates rule ids. Defaults to RuleIDPrefix + UUID.
	NewID func() string
}

// DefaultCompileOptions returns the default compile options.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{ComparisonThreshold: DefaultComparisonThreshold}
}

// NewRuleID returns a fresh rule id.
func NewRuleID() string {
	return RuleIDPrefix + uuid.NewString()
}

// CompileRules turns each mapping into exactly one rule, in mapping order.
// inputs are the leaves of the input sample, used to infer concat templates.
func CompileRules(mappings []plan.FieldMapping, inputs []analyze.LeafRecord, opts CompileOptions) []mapping.TransformationRule {
	if opts.NewID == nil {
		opts.NewID = NewRuleID
	}

	rules := make([]mapping.TransformationRule, 0, len(mappings))

	for _, m := range mappings {
		rule := mapping.TransformationRule{
			ID:          opts.NewID(),
			Type:        m.Kind,
			SourceField: m.InputPath(),
			TargetField: m.OutputPath(),
			Confidence:  m.Confidence(),
			Similarity:  m.Similarity.Combined,
			Prediction:  m.Prediction,
		}

		switch m.Kind {
		case mapping.TransformConcat:
			outStr, _ := m.Output.Value.(string)
			rule.Parts = InferConcatParts(m.Input, outStr, inputs)
		case mapping.TransformComparison:
			threshold := opts.ComparisonThreshold
			rule.Threshold = &threshold
			rule.Operator = inferOperator(m, threshold)
		case mapping.TransformTypecast:
			rule.TargetKind = m.Output.Kind.String()
		case mapping.TransformMap, mapping.TransformCustom:
		}

		rule.Logic = Logic(rule)
		rules = append(rules, rule)
	}

	return rules
}

// inferOperator keeps ">=" unless the sample pair contradicts it.
func inferOperator(m plan.FieldMapping, threshold float64) string {
	n, okNum := ToNumber(m.Input.Value)
	want, okBool := m.Output.Value.(bool)

	if okNum && okBool && Compare(n, mapping.OpGreaterOrEqual, threshold) != want {
		return mapping.OpLess
	}

	return mapping.OpGreaterOrEqual
}

type span struct {
	start, end int
	field      string
}

// InferConcatParts explains output as input string values joined by
// literals. The source leaf is placed first, then the other string leaves
// longest first, each at its first occurrence that does not overlap a
// placed value. Gaps become literals.
//
// Returns nil for a root source leaf, which has no field name.
func InferConcatParts(source analyze.LeafRecord, output string, inputs []analyze.LeafRecord) []mapping.ConcatPart {
	if source.Path == "" {
		return nil
	}

	var spans []span

	place := func(leaf analyze.LeafRecord) {
		value, ok := leaf.Value.(string)
		if !ok || value == "" || leaf.Path == "" {
			return
		}

		for off := 0; off+len(value) <= len(output); {
			i := strings.Index(output[off:], value)
			if i < 0 {
				return
			}

			start := off + i
			end := start + len(value)

			if !slices.ContainsFunc(spans, func(s span) bool { return start < s.end && s.start < end }) {
				spans = append(spans, span{start: start, end: end, field: leaf.Path})
				return
			}

			off = start + 1
		}
	}

	place(source)

	if len(spans) == 0 {
		return []mapping.ConcatPart{{Field: source.Path}}
	}

	others := slices.DeleteFunc(slices.Clone(inputs), func(l analyze.LeafRecord) bool {
		return l.Path == source.Path || l.Kind != analyze.KindString
	})
	slices.SortStableFunc(others, func(a, b analyze.LeafRecord) int {
		return cmp.Compare(len(b.Value.(string)), len(a.Value.(string)))
	})

	for _, leaf := range others {
		place(leaf)
	}

	slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })

	var (
		parts []mapping.ConcatPart
		pos   int
	)

	for _, s := range spans {
		if s.start > pos {
			parts = append(parts, mapping.ConcatPart{Literal: output[pos:s.start]})
		}

		parts = append(parts, mapping.ConcatPart{Field: s.field})
		pos = s.end
	}

	if pos < len(output) {
		parts = append(parts, mapping.ConcatPart{Literal: output[pos:]})
	}

	return parts
}

// Logic renders the readable expression of a rule.
func Logic(rule mapping.TransformationRule) string {
	src := dataRef(rule.SourceField)

	switch rule.Type {
	case mapping.TransformConcat:
		if len(rule.Parts) == 0 {
			return src
		}

		exprs := make([]string, 0, len(rule.Parts))

		for _, p := range rule.Parts {
			if p.IsField() {
				exprs = append(exprs, dataRef(p.Field))
			} else {
				exprs = append(exprs, strconv.Quote(p.Literal))
			}
		}

		return strings.Join(exprs, " + ")
	case mapping.TransformComparison:
		op, threshold := comparisonParams(rule)
		return fmt.Sprintf("%s %s %s", src, op, strconv.FormatFloat(threshold, 'f', -1, 64))
	case mapping.TransformTypecast:
		switch rule.TargetKind {
		case analyze.KindString.String():
			return "String(" + src + ")"
		case analyze.KindNumber.String():
			return "Number(" + src + ")"
		case analyze.KindBoolean.String():
			return "Boolean(" + src + ")"
		}
	case mapping.TransformMap, mapping.TransformCustom:
	}

	return src
}

func dataRef(path string) string {
	if path == "" {
		return "data"
	}

	return "data." + path
}

// comparisonParams returns the operator and threshold, with defaults.
func comparisonParams(rule mapping.TransformationRule) (string, float64) {
	op := rule.Operator
	if !mapping.ValidOperator(op) {
		op = mapping.OpGreaterOrEqual
	}

	threshold := DefaultComparisonThreshold
	if rule.Threshold != nil {
		threshold = *rule.Threshold
	}

	return op, threshold
}
