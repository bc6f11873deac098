package plan

import (
	"reflect"
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// Classify decides how the output value derives from the input value.
// The first matching check wins:
//  1. both strings and the output contains the input: concat
//  2. number to boolean: comparison
//  3. kinds differ: typecast
//  4. identical values: map
//  5. anything else: custom
func Classify(in, out analyze.LeafRecord) mapping.TransformKind {
	if in.Kind == analyze.KindString && out.Kind == analyze.KindString {
		inStr, _ := in.Value.(string)
		outStr, _ := out.Value.(string)

		if strings.Contains(outStr, inStr) {
			return mapping.TransformConcat
		}
	}

	switch {
	case in.Kind == analyze.KindNumber && out.Kind == analyze.KindBoolean:
		return mapping.TransformComparison
	case in.Kind != out.Kind:
		return mapping.TransformTypecast
	case sameValue(in.Value, out.Value):
		return mapping.TransformMap
	default:
		return mapping.TransformCustom
	}
}

func sameValue(a, b any) bool {
	if fa, ok := analyze.NormalizeNumber(a); ok {
		fb, ok := analyze.NormalizeNumber(b)
		return ok && fa == fb
	}

	return reflect.DeepEqual(a, b)
}
