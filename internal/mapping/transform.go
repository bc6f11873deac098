package mapping

import (
	"slices"
	"strings"
)

// TransformKind classifies how an output value is derived from an input value.
type TransformKind string

const (
	// TransformMap copies the value unchanged.
	TransformMap TransformKind = "map"
	// TransformConcat joins string fields and literals.
	TransformConcat TransformKind = "concat"
	// TransformComparison compares a number against a threshold.
	TransformComparison TransformKind = "comparison"
	// TransformTypecast converts the value to another JSON kind.
	TransformTypecast TransformKind = "typecast"
	// TransformCustom copies the value; the relationship was not recognised.
	TransformCustom TransformKind = "custom"
)

// TransformKinds lists every kind in classification order.
var TransformKinds = []TransformKind{
	TransformConcat, TransformComparison, TransformTypecast, TransformMap, TransformCustom,
}

// Valid reports whether k is a known kind.
func (k TransformKind) Valid() bool {
	return slices.Contains(TransformKinds, k)
}

// String implements fmt.Stringer.
func (k TransformKind) String() string {
	return string(k)
}

// Comparison operators.
const (
	OpGreaterOrEqual = ">="
	OpGreater        = ">"
	OpLess           = "<"
	OpLessOrEqual    = "<="
)

// ValidOperator reports whether op is a supported comparison operator.
func ValidOperator(op string) bool {
	switch op {
	case OpGreaterOrEqual, OpGreater, OpLess, OpLessOrEqual:
		return true
	default:
		return false
	}
}

// ConcatPart is one piece of a concat template: either an input field or a literal.
type ConcatPart struct {
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// IsField reports whether the part reads an input field.
func (p ConcatPart) IsField() bool {
	return p.Field != ""
}

// TransformationRule is one inferred field-to-field transformation.
type TransformationRule struct {
	ID          string        `json:"id" yaml:"id"`
	Type        TransformKind `json:"type" yaml:"type"`
	SourceField string        `json:"sourceField" yaml:"source_field"`
	TargetField string        `json:"targetField" yaml:"target_field"`
	// Logic is a readable expression of the transform, kept for audit and export.
	Logic      string  `json:"logic" yaml:"logic"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Similarity is the raw similarity of the two fields.
	Similarity float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	// Prediction is the auxiliary scorer's estimate.
	Prediction float64 `json:"mlScore,omitempty" yaml:"ml_score,omitempty"`

	// Parts is the template of a concat rule.
	Parts []ConcatPart `json:"parts,omitempty" yaml:"parts,omitempty"`
	// Operator and Threshold parameterise a comparison rule.
	Operator  string   `json:"operator,omitempty" yaml:"operator,omitempty"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// TargetKind is the kind a typecast rule converts to.
	TargetKind string `json:"targetKind,omitempty" yaml:"target_kind,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with r.
func (r TransformationRule) Clone() TransformationRule {
	out := r
	out.Parts = slices.Clone(r.Parts)

	if r.Threshold != nil {
		th := *r.Threshold
		out.Threshold = &th
	}

	return out
}

// SourceFields lists every input field the rule reads.
func (r TransformationRule) SourceFields() []string {
	if r.Type != TransformConcat || len(r.Parts) == 0 {
		return []string{r.SourceField}
	}

	var out []string

	for _, p := range r.Parts {
		if p.IsField() && !slices.Contains(out, p.Field) {
			out = append(out, p.Field)
		}
	}

	return out
}

// Describe returns "source -> target (kind)".
func (r TransformationRule) Describe() string {
	var sb strings.Builder

	sb.WriteString(strings.Join(r.SourceFields(), "+"))
	sb.WriteString(" -> ")
	sb.WriteString(r.TargetField)
	sb.WriteString(" (")
	sb.WriteString(string(r.Type))
	sb.WriteString(")")

	return sb.String()
}
