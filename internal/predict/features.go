package predict

import (
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/match"
)

// FeatureCount is the length of a feature vector.
const FeatureCount = 20

// pathLengthScale normalises path lengths into roughly [0,1].
const pathLengthScale = 100.0

// Features describes one input/output leaf pair.
type Features struct {
	Input      analyze.LeafRecord
	Output     analyze.LeafRecord
	Similarity match.Similarity
	Transform  mapping.TransformKind
}

// NewFeatures scores a leaf pair and records its classification.
func NewFeatures(in, out analyze.LeafRecord, kind mapping.TransformKind) Features {
	return Features{
		Input:      in,
		Output:     out,
		Similarity: match.Score(in, out),
		Transform:  kind,
	}
}

// Vector encodes the pair as a fixed-length numeric vector:
//
//	0      case-sensitive path similarity
//	1-2    input/output path length / 100
//	3-8    input/output kind one-hot (string, number, boolean)
//	9      value similarity
//	10     output string contains input string
//	11-18  name/id/date/age/adult hints in the paths
//	19     reserved, always 0
func (f Features) Vector() []float64 {
	v := make([]float64, FeatureCount)

	inPath, outPath := strings.ToLower(f.Input.Path), strings.ToLower(f.Output.Path)

	v[0] = match.LevenshteinNormalized(f.Input.Path, f.Output.Path)
	v[1] = float64(len(f.Input.Path)) / pathLengthScale
	v[2] = float64(len(f.Output.Path)) / pathLengthScale

	v[3] = flag(f.Input.Kind == analyze.KindString)
	v[4] = flag(f.Input.Kind == analyze.KindNumber)
	v[5] = flag(f.Input.Kind == analyze.KindBoolean)
	v[6] = flag(f.Output.Kind == analyze.KindString)
	v[7] = flag(f.Output.Kind == analyze.KindNumber)
	v[8] = flag(f.Output.Kind == analyze.KindBoolean)

	v[9] = f.Similarity.Value
	v[10] = flag(containsString(f.Output.Value, f.Input.Value))

	v[11] = flag(strings.Contains(inPath, "name"))
	v[12] = flag(strings.Contains(outPath, "name"))
	v[13] = flag(strings.Contains(inPath, "id"))
	v[14] = flag(strings.Contains(outPath, "id"))
	v[15] = flag(strings.Contains(inPath, "date"))
	v[16] = flag(strings.Contains(outPath, "date"))
	v[17] = flag(strings.Contains(inPath, "age"))
	v[18] = flag(strings.Contains(outPath, "adult"))

	return v
}

func containsString(outer, inner any) bool {
	o, ok1 := outer.(string)
	i, ok2 := inner.(string)

	return ok1 && ok2 && strings.Contains(o, i)
}

func flag(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
