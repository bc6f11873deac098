package match

import (
	"sort"
	"testing"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

func leaf(path string, value any) analyze.LeafRecord {
	kind, _ := analyze.KindOf(value)
	if f, ok := analyze.NormalizeNumber(value); ok {
		value = f
	}

	return analyze.LeafRecord{Path: path, Value: value, Kind: kind}
}

func TestRankCandidates(t *testing.T) {
	output := leaf("customerId", 7)
	inputs := []analyze.LeafRecord{
		leaf("customerName", "Ann"),
		leaf("customer_id", 7),
		leaf("customerId", 7),
		leaf("id", 7),
	}

	candidates := RankCandidates(output, inputs)

	if len(candidates) != 4 {
		t.Fatalf("Expected 4 candidates, got %d", len(candidates))
	}

	// customer_id and customerId tie on the normalized identifier;
	// the earlier input wins.
	want := []string{"customer_id", "customerId", "id", "customerName"}
	for i, path := range candidates.Paths() {
		if path != want[i] {
			t.Errorf("position %d: got %q, want %q", i, path, want[i])
		}
	}

	if candidates[0].CombinedScore < 0.9 {
		t.Errorf("Expected high score for exact match, got %f", candidates[0].CombinedScore)
	}

	if candidates[0].Order != 1 {
		t.Errorf("Expected Order 1, got %d", candidates[0].Order)
	}
}

func TestRankCandidates_LastSegment(t *testing.T) {
	output := leaf("name", "Ann")
	inputs := []analyze.LeafRecord{
		leaf("nme", "Bob"),
		leaf("profile.contact.name", "Bob"),
	}

	candidates := RankCandidates(output, inputs)

	best := candidates.Best()
	if best == nil || best.Input.Path != "profile.contact.name" {
		t.Fatalf("Expected profile.contact.name first, got %v", candidates.Paths())
	}

	if best.IdentScore != 1.0 {
		t.Errorf("Expected segment IdentScore 1.0, got %f", best.IdentScore)
	}

	if !best.SharesToken {
		t.Error("Expected profile.contact.name to share the name token")
	}

	if candidates[1].SharesToken {
		t.Error("Expected nme to share no token with name")
	}
}

func TestCandidateList_SharedTokenBreaksTies(t *testing.T) {
	candidates := CandidateList{
		{Input: leaf("x", 1), Order: 0, CombinedScore: 0.5},
		{Input: leaf("y", 1), Order: 1, CombinedScore: 0.5, SharesToken: true},
	}

	sort.Sort(candidates)

	if candidates[0].Input.Path != "y" {
		t.Errorf("Expected the token-sharing candidate first, got %v", candidates.Paths())
	}
}

func TestCandidateList_Sorting(t *testing.T) {
	candidates := CandidateList{
		{Input: leaf("a", 1), Order: 0, CombinedScore: 0.5},
		{Input: leaf("c", 1), Order: 1, CombinedScore: 0.9},
		{Input: leaf("b", 1), Order: 2, CombinedScore: 0.9},
		{Input: leaf("d", 1), Order: 3, CombinedScore: 0.7},
	}

	sort.Sort(candidates)

	want := []string{"c", "b", "d", "a"}
	for i, path := range candidates.Paths() {
		if path != want[i] {
			t.Errorf("position %d: got %q, want %q", i, path, want[i])
		}
	}
}

func TestCandidateList_Top(t *testing.T) {
	candidates := CandidateList{
		{CombinedScore: 0.9},
		{CombinedScore: 0.8},
		{CombinedScore: 0.7},
	}

	if got := len(candidates.Top(2)); got != 2 {
		t.Errorf("Top(2) returned %d candidates", got)
	}

	if got := len(candidates.Top(10)); got != 3 {
		t.Errorf("Top(10) returned %d candidates", got)
	}

	if (CandidateList{}).Best() != nil {
		t.Error("Best() of empty list should be nil")
	}
}

func TestCandidateList_IsAmbiguous(t *testing.T) {
	tests := []struct {
		name       string
		candidates CandidateList
		want       bool
	}{
		{"empty", CandidateList{}, false},
		{"single", CandidateList{{CombinedScore: 0.9}}, false},
		{"clear winner", CandidateList{{CombinedScore: 0.9}, {CombinedScore: 0.5}}, false},
		{"close", CandidateList{{CombinedScore: 0.9}, {CombinedScore: 0.88}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.candidates.IsAmbiguous(DefaultAmbiguityThreshold); got != tt.want {
				t.Errorf("IsAmbiguous() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidateList_AboveThreshold(t *testing.T) {
	candidates := CandidateList{
		{CombinedScore: 0.9},
		{CombinedScore: 0.3},
		{CombinedScore: 0.29},
	}

	if got := len(candidates.AboveThreshold(0.3)); got != 2 {
		t.Errorf("AboveThreshold(0.3) returned %d candidates, want 2", got)
	}
}

func TestRankCandidates_Determinism(t *testing.T) {
	output := leaf("value", 1)
	inputs := []analyze.LeafRecord{
		leaf("valueB", 1),
		leaf("valueA", 1),
		leaf("valueC", 1),
	}

	firstRun := RankCandidates(output, inputs)
	for i := 0; i < 10; i++ {
		nextRun := RankCandidates(output, inputs)
		for j := range firstRun {
			if firstRun[j].Input.Path != nextRun[j].Input.Path {
				t.Errorf("Run %d: position %d has '%s', expected '%s'",
					i, j, nextRun[j].Input.Path, firstRun[j].Input.Path)
			}
		}
	}

	// Equal scores keep input order.
	if firstRun[0].Input.Path != "valueB" {
		t.Errorf("Expected valueB first, got %s", firstRun[0].Input.Path)
	}
}
