package match

import (
	"math"
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

// Weights of the standalone similarity blend.
const (
	NameWeight  = 0.4
	KindWeight  = 0.3
	ValueWeight = 0.3
)

// Value-pattern scores.
const (
	valueContained      = 0.9
	valueContains       = 0.7
	valueCloseNumber    = 0.8
	valueDistantNumber  = 0.3
	valueNumberToBool   = 0.7
	valueNoPattern      = 0.1
	closeNumberMinRatio = 0.5
)

// Similarity is the breakdown of a leaf-to-leaf comparison.
type Similarity struct {
	Name     float64 `json:"name" yaml:"name"`
	Kind     float64 `json:"kind" yaml:"kind"`
	Value    float64 `json:"value" yaml:"value"`
	Combined float64 `json:"combined" yaml:"combined"`
}

// Score compares an input leaf with an output leaf.
func Score(in, out analyze.LeafRecord) Similarity {
	s := Similarity{
		Name:  NameSimilarity(in.Path, out.Path),
		Kind:  KindCompatibility(in.Kind, out.Kind),
		Value: ValueSimilarity(in, out),
	}
	s.Combined = clamp01(NameWeight*s.Name + KindWeight*s.Kind + ValueWeight*s.Value)

	return s
}

// ValueSimilarity scores how the output value could derive from the input value.
func ValueSimilarity(in, out analyze.LeafRecord) float64 {
	switch {
	case in.Kind == analyze.KindString && out.Kind == analyze.KindString:
		inStr, _ := in.Value.(string)
		outStr, _ := out.Value.(string)
		if strings.Contains(outStr, inStr) {
			return valueContained
		}

		if strings.Contains(inStr, outStr) {
			return valueContains
		}
	case in.Kind == analyze.KindNumber && out.Kind == analyze.KindNumber:
		if NumericRatio(toFloat(in.Value), toFloat(out.Value)) > closeNumberMinRatio {
			return valueCloseNumber
		}

		return valueDistantNumber
	case in.Kind == analyze.KindNumber && out.Kind == analyze.KindBoolean:
		return valueNumberToBool
	}

	return valueNoPattern
}

// NumericRatio returns min(|a|,|b|)/max(|a|,|b|), or 1 when both are zero.
func NumericRatio(a, b float64) float64 {
	a, b = math.Abs(a), math.Abs(b)

	hi := max(a, b)
	if hi == 0 {
		return 1
	}

	return min(a, b) / hi
}

func toFloat(v any) float64 {
	f, _ := analyze.NormalizeNumber(v)
	return f
}
