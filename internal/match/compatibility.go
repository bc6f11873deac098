package match

import "github.com/workflow-builder/nodeq-mindmap/internal/analyze"

// defaultCompatibility scores kind pairs missing from the table.
const defaultCompatibility = 0.2

type kindPair struct {
	in, out analyze.Kind
}

// compatibility scores how readily an input kind converts to an output kind.
var compatibility = map[kindPair]float64{
	{analyze.KindString, analyze.KindNumber}:  0.7,
	{analyze.KindString, analyze.KindBoolean}: 0.5,
	{analyze.KindNumber, analyze.KindString}:  0.8,
	{analyze.KindNumber, analyze.KindBoolean}: 0.6,
	{analyze.KindBoolean, analyze.KindString}: 0.6,
	{analyze.KindBoolean, analyze.KindNumber}: 0.4,
}

// KindCompatibility scores the conversion from an input kind to an output kind.
// Identical kinds score 1.
func KindCompatibility(in, out analyze.Kind) float64 {
	if in == out {
		return 1.0
	}

	if score, ok := compatibility[kindPair{in, out}]; ok {
		return score
	}

	return defaultCompatibility
}
