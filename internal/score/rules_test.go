package score

import (
	"errors"
	"testing"

	"github.com/ppiankov/claimflow/internal/model"
)

func newTestEngine() *RulesEngine {
	return NewRulesEngine(model.DefaultScoringConfig().Rules, clock)
}

func TestRulesEngine_WellFormedClaimPasses(t *testing.T) {
	eval, err := newTestEngine().Evaluate(BasicFraudRules, wellFormedClaim())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if !eval.Passed {
		t.Errorf("expected pass, flagged %v", eval.FlaggedRules)
	}
	if eval.Severity != model.LevelLow {
		t.Errorf("expected LOW, got %s", eval.Severity)
	}
	if len(eval.Results) != 5 {
		t.Errorf("expected 5 rules evaluated, got %d", len(eval.Results))
	}
}

func TestRulesEngine_SuspectClaimIsHigh(t *testing.T) {
	eval, err := newTestEngine().Evaluate(BasicFraudRules, suspectClaim())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	want := []string{"unusual_claim_amount", "claim_date_validity", "valid_contact_info"}
	if len(eval.FlaggedRules) != len(want) {
		t.Fatalf("expected flagged %v, got %v", want, eval.FlaggedRules)
	}
	for i, name := range want {
		if eval.FlaggedRules[i] != name {
			t.Errorf("flagged[%d]: expected %s, got %s", i, name, eval.FlaggedRules[i])
		}
	}
	if eval.Severity != model.LevelHigh {
		t.Errorf("expected HIGH, got %s", eval.Severity)
	}
	if eval.Passed {
		t.Error("expected evaluation to fail")
	}
}

func TestRulesEngine_SeverityDependsOnlyOnFailedCount(t *testing.T) {
	engine := newTestEngine()
	base := wellFormedClaim()

	// Each variant fails a distinct set of rules with the same count
	oneA := base
	oneA.Amount = "250000"
	oneB := base
	oneB.ClaimDate = daysAgo(500)

	twoA := oneA
	twoA.ClaimDate = daysAgo(500)
	twoB := base
	twoB.Email, twoB.Phone, twoB.Address = "", "", ""
	twoB.Amount = "250000"

	tests := []struct {
		name   string
		claims []model.ClaimData
		want   model.Level
	}{
		{"zero", []model.ClaimData{base}, model.LevelLow},
		{"one", []model.ClaimData{oneA, oneB}, model.LevelMedium},
		{"two", []model.ClaimData{twoA, twoB}, model.LevelMedium},
	}

	for _, tt := range tests {
		for _, claim := range tt.claims {
			eval, err := engine.Evaluate(BasicFraudRules, claim)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if eval.Severity != tt.want {
				t.Errorf("%s: expected %s, got %s (flagged %v)", tt.name, tt.want, eval.Severity, eval.FlaggedRules)
			}
		}
	}
}

func TestRulesEngine_MissingCriticalInfo(t *testing.T) {
	claim := wellFormedClaim()
	claim.ClaimantName, claim.IncidentDate, claim.Description = "", "", ""

	eval, err := newTestEngine().Evaluate("", claim)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.RuleSet != BasicFraudRules {
		t.Errorf("expected default rule set, got %s", eval.RuleSet)
	}
	if len(eval.FlaggedRules) != 1 || eval.FlaggedRules[0] != "missing_critical_info" {
		t.Errorf("expected missing_critical_info only, got %v", eval.FlaggedRules)
	}
}

func TestRulesEngine_UnknownRuleSet(t *testing.T) {
	_, err := newTestEngine().Evaluate("exotic_rules", wellFormedClaim())
	if !errors.Is(err, ErrUnknownRuleSet) {
		t.Errorf("expected ErrUnknownRuleSet, got %v", err)
	}
}
