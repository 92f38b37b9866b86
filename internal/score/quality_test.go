package score

import (
	"testing"

	"github.com/ppiankov/claimflow/internal/model"
)

func newTestQuality() *QualityScorer {
	return NewQualityScorer(model.DefaultScoringConfig().Quality)
}

func TestQualityScorer_WellFormedClaimPasses(t *testing.T) {
	report := newTestQuality().Check(wellFormedClaim(), 0)

	if report.Score != 100 {
		t.Errorf("expected 100, got %.1f", report.Score)
	}
	if !report.Passed {
		t.Error("expected pass")
	}
	if report.Minimum != 70 {
		t.Errorf("expected default minimum 70, got %.1f", report.Minimum)
	}
}

func TestQualityScorer_ReversedDatesAreInconsistent(t *testing.T) {
	claim := wellFormedClaim()
	claim.IncidentDate = daysAgo(0)
	claim.ReportDate = daysAgo(5)

	report := newTestQuality().Check(claim, 0)
	if report.Consistency != 0 {
		t.Errorf("expected consistency 0, got %.1f", report.Consistency)
	}
	// 0.4*100 + 0.3*0 + 0.3*100
	if report.Score != 70 {
		t.Errorf("expected 70, got %.1f", report.Score)
	}
}

func TestQualityScorer_MissingDateIsNeutral(t *testing.T) {
	claim := wellFormedClaim()
	claim.ReportDate = ""

	report := newTestQuality().Check(claim, 0)
	if report.Consistency != 50 {
		t.Errorf("expected consistency 50, got %.1f", report.Consistency)
	}
}

func TestQualityScorer_ExplicitMinimum(t *testing.T) {
	report := newTestQuality().Check(wellFormedClaim(), 101)
	if report.Passed {
		t.Error("expected failure against minimum 101")
	}
}

func TestQualityScorer_MonotonicInRequiredFields(t *testing.T) {
	scorer := newTestQuality()

	claim := model.ClaimData{ReportDate: daysAgo(0), Amount: "100"}
	fill := []func(c *model.ClaimData){
		func(c *model.ClaimData) { c.ClaimantName = "Ana" },
		func(c *model.ClaimData) { c.ClaimType = "auto" },
		func(c *model.ClaimData) { c.IncidentDate = daysAgo(3) },
		func(c *model.ClaimData) { c.Description = "Rear-ended at a stop light" },
	}

	prev := scorer.Check(claim, 0).Score
	for i, f := range fill {
		f(&claim)
		got := scorer.Check(claim, 0).Score
		if got < prev {
			t.Errorf("step %d: score decreased from %.1f to %.1f", i, prev, got)
		}
		prev = got
	}
	if prev != 100 {
		t.Errorf("expected full score once complete, got %.1f", prev)
	}
}
