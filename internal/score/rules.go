package score

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// BasicFraudRules is the only rule set the engine ships with
const BasicFraudRules = "basic_fraud_rules"

// ErrUnknownRuleSet is returned for rule sets the engine does not define
var ErrUnknownRuleSet = errors.New("unknown rule set")

// rule is one ordered boolean check; it returns details when the rule fails
type rule struct {
	name        string
	description string
	riskFactor  string
	check       func(claim model.ClaimData, now time.Time) (failed bool, details string)
}

// RulesEngine evaluates ordered fraud rules against a claim
type RulesEngine struct {
	cfg   model.RulesConfig
	now   func() time.Time
	rules map[string][]rule
}

// NewRulesEngine creates a rules engine; now defaults to time.Now
func NewRulesEngine(cfg model.RulesConfig, now func() time.Time) *RulesEngine {
	if now == nil {
		now = time.Now
	}
	e := &RulesEngine{cfg: cfg, now: now}
	e.rules = map[string][]rule{
		BasicFraudRules: e.basicRules(),
	}
	return e
}

// Evaluate runs every rule of the named set; severity depends only on the failed count
func (e *RulesEngine) Evaluate(ruleSet string, claim model.ClaimData) (model.RuleEvaluation, error) {
	if ruleSet == "" {
		ruleSet = BasicFraudRules
	}
	rules, ok := e.rules[ruleSet]
	if !ok {
		return model.RuleEvaluation{}, fmt.Errorf("%w: %s", ErrUnknownRuleSet, ruleSet)
	}

	now := e.now()
	eval := model.RuleEvaluation{
		RuleSet:          ruleSet,
		FlaggedRules:     []string{},
		FraudRiskFactors: []string{},
	}

	for _, r := range rules {
		failed, details := r.check(claim, now)
		eval.Results = append(eval.Results, model.RuleResult{
			Rule:        r.name,
			Description: r.description,
			Passed:      !failed,
			Details:     details,
		})
		if failed {
			eval.FlaggedRules = append(eval.FlaggedRules, r.name)
			eval.FraudRiskFactors = append(eval.FraudRiskFactors, r.riskFactor)
		}
	}

	eval.Severity = e.severityFor(len(eval.FlaggedRules))
	eval.Passed = len(eval.FlaggedRules) == 0
	return eval, nil
}

// severityFor maps a failed rule count to a severity
func (e *RulesEngine) severityFor(failed int) model.Level {
	switch {
	case failed >= e.cfg.HighSeverityAt:
		return model.LevelHigh
	case failed >= 1:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

func (e *RulesEngine) basicRules() []rule {
	return []rule{
		{
			name:        "unusual_claim_amount",
			description: "Check for unusually high claim amounts",
			riskFactor:  "Unusually high claim amount",
			check: func(claim model.ClaimData, _ time.Time) (bool, string) {
				amount, _ := claim.AmountValue()
				if amount > e.cfg.UnusualAmount {
					return true, fmt.Sprintf("Claim amount %.2f exceeds threshold of %.0f", amount, e.cfg.UnusualAmount)
				}
				return false, ""
			},
		},
		{
			name:        "missing_critical_info",
			description: "Check for missing critical claim information",
			riskFactor:  "Missing critical information",
			check: func(claim model.ClaimData, _ time.Time) (bool, string) {
				missing := MissingFields(claim, e.cfg.CriticalFields)
				if len(missing) > e.cfg.MaxMissingCritical {
					return true, "Critical fields missing: " + strings.Join(missing, ", ")
				}
				return false, ""
			},
		},
		{
			// No cross-submission state is consulted, so this rule always passes
			name:        "duplicate_claims",
			description: "Check for potential duplicate claims",
			riskFactor:  "Potential duplicate claim",
			check: func(model.ClaimData, time.Time) (bool, string) {
				return false, "No duplicate detected in current session"
			},
		},
		{
			name:        "claim_date_validity",
			description: "Check if claim date is within valid range",
			riskFactor:  "Claim filed too long after incident",
			check: func(claim model.ClaimData, now time.Time) (bool, string) {
				filed, ok := model.ParseDate(claim.ClaimDate)
				if !ok {
					return false, ""
				}
				days := model.DaysBetween(filed, now)
				if days > e.cfg.MaxClaimAgeDays {
					return true, fmt.Sprintf("Claim date is %d days old, exceeds %d day threshold", days, e.cfg.MaxClaimAgeDays)
				}
				return false, ""
			},
		},
		{
			name:        "valid_contact_info",
			description: "Check if valid contact information is provided",
			riskFactor:  "No valid contact information",
			check: func(claim model.ClaimData, _ time.Time) (bool, string) {
				if ValidContacts(claim) == 0 {
					return true, "No valid contact information provided"
				}
				return false, ""
			},
		},
	}
}
