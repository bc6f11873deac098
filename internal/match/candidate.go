package match

import (
	"sort"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

// Candidate represents a potential mapping from an input leaf to an output leaf.
type Candidate struct {
	Input  analyze.LeafRecord
	Output analyze.LeafRecord

	// Order is the position of Input in extraction order.
	Order int

	// Scoring components
	Similarity Similarity
	// IdentScore is the Levenshtein similarity of the normalized identifiers,
	// which ignores case, separators and camel-case boundaries. The better of
	// the full paths and their last segments counts.
	IdentScore float64
	// SharesToken is set when the input path contains a token of the
	// output's last segment.
	SharesToken bool

	// CombinedScore is used for ranking (higher is better).
	CombinedScore float64
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// RankCandidates scores every input leaf against an output leaf.
// Returns candidates sorted by combined score (descending). Ties go to
// inputs sharing a token with the output, then to input order.
func RankCandidates(output analyze.LeafRecord, inputs []analyze.LeafRecord) CandidateList {
	candidates := make(CandidateList, 0, len(inputs))

	for i, input := range inputs {
		sim := Score(input, output)
		ident := max(
			NormalizedLevenshteinScore(input.Path, output.Path),
			NormalizedLevenshteinScore(LastSegment(input.Path), LastSegment(output.Path)),
		)

		candidates = append(candidates, Candidate{
			Input:         input,
			Output:        output,
			Order:         i,
			Similarity:    sim,
			IdentScore:    ident,
			SharesToken:   HasToken(input.Path, TokenizeIdent(LastSegment(output.Path))...),
			CombinedScore: max(sim.Combined, NameWeight*ident+KindWeight*sim.Kind+ValueWeight*sim.Value),
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by combined score descending, then shared tokens, then input order.
func (c CandidateList) Less(i, j int) bool {
	if c[i].CombinedScore != c[j].CombinedScore {
		return c[i].CombinedScore > c[j].CombinedScore
	}

	if c[i].SharesToken != c[j].SharesToken {
		return c[i].SharesToken
	}

	return c[i].Order < c[j].Order
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Best returns the best candidate, or nil if no candidates.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// IsAmbiguous returns true if the top two candidates are within the threshold.
func (c CandidateList) IsAmbiguous(threshold float64) bool {
	if len(c) < 2 {
		return false
	}

	return c[0].CombinedScore-c[1].CombinedScore < threshold
}

// AboveThreshold returns candidates with combined score at or above the threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.CombinedScore >= threshold {
			result = append(result, cand)
		}
	}

	return result
}

// Paths returns the input paths of the candidates.
func (c CandidateList) Paths() []string {
	out := make([]string, 0, len(c))
	for _, cand := range c {
		out = append(out, cand.Input.Path)
	}

	return out
}

// Ranking thresholds for suggestions.
const (
	// DefaultSuggestionCount is how many candidates are reported for an unmapped field.
	DefaultSuggestionCount = 3
	// DefaultAmbiguityThreshold is the score difference that marks ambiguity.
	DefaultAmbiguityThreshold = 0.05
)
