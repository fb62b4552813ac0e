package citecheck

import (
	"testing"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

func TestScanMarkdown_InRangeAndOutOfRange(t *testing.T) {
	c := ScanMarkdown("第一點[1]，第二點[2]，第三點[9]。", 3)
	if len(c.InRange) != 2 || c.InRange[0] != 1 || c.InRange[1] != 2 {
		t.Fatalf("unexpected in-range: %v", c.InRange)
	}
	if len(c.OutOfRange) != 1 || c.OutOfRange[0] != 9 {
		t.Fatalf("unexpected out-of-range: %v", c.OutOfRange)
	}
	if c.MissingReferences {
		t.Fatalf("did not expect MissingReferences")
	}
}

func TestScanMarkdown_FullWidthMarkers_AreNormalized(t *testing.T) {
	c := ScanMarkdown("結論如下［１］［２］。", 2)
	if len(c.InRange) != 2 {
		t.Fatalf("expected full-width [1][2] to be recognized, got %v", c)
	}
}

func TestScanMarkdown_MissingReferences(t *testing.T) {
	c := ScanMarkdown("無來源的陳述[1]。", 0)
	if !c.MissingReferences {
		t.Fatalf("expected MissingReferences when numSources is 0 but citations exist")
	}
}

func TestReconcileSourcesUsed_DropsExtraAndForcesLowConfidence(t *testing.T) {
	out := &domain.WriterOutput{
		SourcesUsed:     []int{1, 2, 3},
		ConfidenceLevel: domain.ConfidenceHigh,
	}
	violated := ReconcileSourcesUsed(out, []int{1, 2})
	if !violated {
		t.Fatalf("expected a violation to be reported")
	}
	if len(out.SourcesUsed) != 2 || out.SourcesUsed[0] != 1 || out.SourcesUsed[1] != 2 {
		t.Fatalf("expected sources_used trimmed to the citations_used intersection, got %v", out.SourcesUsed)
	}
	if out.ConfidenceLevel != domain.ConfidenceLow {
		t.Fatalf("expected confidence forced to Low, got %v", out.ConfidenceLevel)
	}
}

func TestReconcileSourcesUsed_NoViolation(t *testing.T) {
	out := &domain.WriterOutput{
		SourcesUsed:     []int{1, 2},
		ConfidenceLevel: domain.ConfidenceHigh,
	}
	if ReconcileSourcesUsed(out, []int{1, 2, 3}) {
		t.Fatalf("did not expect a violation")
	}
	if out.ConfidenceLevel != domain.ConfidenceHigh {
		t.Fatalf("confidence should be untouched when no violation occurs")
	}
}

func TestEnforceSubset(t *testing.T) {
	if err := EnforceSubset([]int{1, 2}, []int{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := EnforceSubset([]int{1, 4}, []int{1, 2, 3}); err == nil {
		t.Fatalf("expected an error for a source outside citations_used")
	}
}

func TestEnforceWithinSourceMap(t *testing.T) {
	sm := domain.NewSourceMap()
	sm.Append(domain.TieredSource{CandidateSource: domain.CandidateSource{ID: "a"}, Tier: domain.TierNews})
	if err := EnforceWithinSourceMap([]int{1}, sm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := EnforceWithinSourceMap([]int{2}, sm); err == nil {
		t.Fatalf("expected an error for an index outside the source map")
	}
}

func TestEnforceTierCompliance(t *testing.T) {
	sm := domain.NewSourceMap()
	sm.Append(domain.TieredSource{CandidateSource: domain.CandidateSource{ID: "a"}, Tier: domain.TierNews})
	sm.Append(domain.TieredSource{CandidateSource: domain.CandidateSource{ID: "b"}, Tier: domain.TierSocial, FallbackWarning: "discovery fallback"})

	violations := EnforceTierCompliance([]int{1, 2}, sm, domain.ModeStrict, domain.TierGovernment)
	if len(violations) != 1 {
		t.Fatalf("expected exactly one violation (index 2 is fallback-admitted and exempt), got %v", violations)
	}

	if got := EnforceTierCompliance([]int{1}, sm, domain.Mode("discovery"), domain.TierGovernment); got != nil {
		t.Fatalf("expected no violations outside strict mode, got %v", got)
	}
}
