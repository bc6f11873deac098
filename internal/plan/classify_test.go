package plan

import (
	"testing"

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

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   analyze.LeafRecord
		out  analyze.LeafRecord
		want mapping.TransformKind
	}{
		{"substring", leaf("firstName", "Jane"), leaf("fullName", "Jane Doe"), mapping.TransformConcat},
		{"equal strings", leaf("email", "a@b.c"), leaf("email", "a@b.c"), mapping.TransformConcat},
		{"number to boolean", leaf("age", 25), leaf("isAdult", true), mapping.TransformComparison},
		{"number to string", leaf("id", 1), leaf("id", "1"), mapping.TransformTypecast},
		{"string to number", leaf("count", "7"), leaf("count", 7), mapping.TransformTypecast},
		{"boolean to string", leaf("ok", true), leaf("ok", "yes"), mapping.TransformTypecast},
		{"same number", leaf("total", 5), leaf("sum", 5), mapping.TransformMap},
		{"same boolean", leaf("active", true), leaf("enabled", true), mapping.TransformMap},
		{"same array", leaf("tags", []any{"a"}), leaf("labels", []any{"a"}), mapping.TransformMap},
		{"different number", leaf("total", 5), leaf("sum", 6), mapping.TransformCustom},
		{"unrelated strings", leaf("city", "Oslo"), leaf("country", "Norway"), mapping.TransformCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in, tt.out); got != tt.want {
				t.Errorf("Classify(%v, %v) = %s, want %s", tt.in, tt.out, got, tt.want)
			}
		})
	}
}
