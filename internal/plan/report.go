package plan

import (
	"fmt"
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/match"
)

// Report summarises a resolution for human review.
type Report struct {
	Matched     []MatchReport    `json:"matched" yaml:"matched"`
	Unmapped    []UnmappedReport `json:"unmapped" yaml:"unmapped"`
	NeedsReview bool             `json:"needsReview" yaml:"needs_review"`
}

// MatchReport describes a mapped output.
type MatchReport struct {
	SourceField string  `json:"sourceField" yaml:"source_field"`
	TargetField string  `json:"targetField" yaml:"target_field"`
	Kind        string  `json:"kind" yaml:"kind"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
	Score       float64 `json:"score" yaml:"score"`
}

// UnmappedReport describes an unmapped output with suggestions.
type UnmappedReport struct {
	TargetField string            `json:"targetField" yaml:"target_field"`
	Reason      string            `json:"reason" yaml:"reason"`
	Candidates  []CandidateReport `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// CandidateReport describes a potential match candidate.
type CandidateReport struct {
	SourceField string  `json:"sourceField" yaml:"source_field"`
	Score       float64 `json:"score" yaml:"score"`
	KindCompat  float64 `json:"kindCompat" yaml:"kind_compat"`
}

// GenerateReport creates a review report from a resolution.
func GenerateReport(res *Resolution) *Report {
	report := &Report{
		Matched:  []MatchReport{},
		Unmapped: []UnmappedReport{},
	}

	for _, m := range res.Mappings {
		report.Matched = append(report.Matched, MatchReport{
			SourceField: m.InputPath(),
			TargetField: m.OutputPath(),
			Kind:        m.Kind.String(),
			Similarity:  m.Similarity.Combined,
			Confidence:  m.Confidence(),
			Score:       m.Score,
		})
	}

	for _, um := range res.Unmapped {
		report.Unmapped = append(report.Unmapped, UnmappedReport{
			TargetField: um.Output.Path,
			Reason:      um.Reason,
			Candidates:  candidateReports(um.Candidates),
		})
	}

	report.NeedsReview = len(report.Unmapped) > 0

	return report
}

func candidateReports(list match.CandidateList) []CandidateReport {
	out := make([]CandidateReport, 0, len(list))
	for _, c := range list {
		out = append(out, CandidateReport{
			SourceField: c.Input.Path,
			Score:       c.CombinedScore,
			KindCompat:  c.Similarity.Kind,
		})
	}

	return out
}

// FormatReport formats a report as human-readable text.
func FormatReport(report *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Mapped: %d, Unmapped: %d\n", len(report.Matched), len(report.Unmapped))

	if len(report.Matched) > 0 {
		sb.WriteString("\nMapped fields:\n")

		for _, m := range report.Matched {
			fmt.Fprintf(&sb, "  ✓ %s -> %s (%.0f%%, %s)\n",
				m.SourceField, m.TargetField, m.Confidence*100, m.Kind)
		}
	}

	if len(report.Unmapped) > 0 {
		sb.WriteString("\nUnmapped output fields (need review):\n")

		for _, um := range report.Unmapped {
			fmt.Fprintf(&sb, "  ✗ %s: %s\n", um.TargetField, um.Reason)

			if len(um.Candidates) == 0 {
				continue
			}

			sb.WriteString("    Suggestions:\n")

			for i, c := range um.Candidates {
				fmt.Fprintf(&sb, "      %d. %s (%.0f%%)\n", i+1, c.SourceField, c.Score*100)
			}
		}
	}

	if report.NeedsReview {
		sb.WriteString("\n⚠ This pipeline needs manual review.\n")
	} else {
		sb.WriteString("\n✓ All output fields mapped.\n")
	}

	return sb.String()
}
