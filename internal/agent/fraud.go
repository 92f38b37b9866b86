package agent

import (
	"context"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/score"
	"github.com/ppiankov/claimflow/internal/tools"
)

const fraudAnalysisSchema = `{
  "fraudRiskLevel": "LOW/MEDIUM/HIGH/CRITICAL",
  "fraudIndicators": [{"indicator": "name", "severity": "low/medium/high", "confidence": 0-1, "description": "details"}],
  "overallFraudProbability": 0-1,
  "suspiciousPatterns": ["patterns"],
  "recommendedAction": "APPROVE/FLAG_FOR_REVIEW/DENY",
  "reasoning": "detailed analysis",
  "needsInvestigation": true/false,
  "investigationPriority": "low/medium/high"
}`

// Defaults applied when the fraud analysis omits a field
const (
	defaultFraudAction   = "FLAG_FOR_REVIEW"
	defaultInvestigation = "low"
)

// FraudScreeningAgent screens a claim for fraud signals
type FraudScreeningAgent struct {
	deps Deps
}

// NewFraudScreeningAgent creates the fraud screening agent
func NewFraudScreeningAgent(d Deps) *FraudScreeningAgent {
	return &FraudScreeningAgent{deps: d.withDefaults()}
}

// Run evaluates fraud rules and the risk score, then asks the oracle for a
// fraud verdict. The result never gates routing.
func (a *FraudScreeningAgent) Run(ctx context.Context, claim model.ClaimData) model.StageResult {
	r := newRun(ctx, a.deps, "FraudScreeningAgent", model.StageFraudScreening)
	fields := claim.Fields()

	// 1. Business rules
	var rules *model.RuleEvaluation
	out, ok := r.invoke(ctx, "rules_engine", tools.RulesEngine, map[string]any{
		"claimData": fields,
		"ruleSet":   score.BasicFraudRules,
	})
	if eval, isEval := out.Data.(model.RuleEvaluation); ok && isEval {
		rules = &eval
	}

	// 2. Risk score
	var risk *model.RiskAssessment
	out, ok = r.invoke(ctx, "risk_calculation", tools.RiskCalculator, map[string]any{
		"claimData": fields,
	})
	if assessment, isRisk := out.Data.(model.RiskAssessment); ok && isRisk {
		risk = &assessment
	}

	// 3. Fraud analysis
	var analysis FraudAnalysis
	prompt := BuildPrompt(
		"As a fraud detection expert, analyze this claim. Consider patterns and anomalies in the claim, the risk factors, the rules engine flags and common fraud indicators.",
		[]Section{
			{"Claim data", fields},
			{"Rules engine", rules},
			{"Risk assessment", risk},
		},
		fraudAnalysisSchema,
	)
	if err := r.consult(ctx, "fraud_analysis", "FraudScreeningAgent-Analysis", prompt, &analysis); err != nil {
		return r.fail(err)
	}

	summary := &model.FraudScreeningSummary{
		RiskLevel:             model.Level(analysis.RiskLevel),
		Indicators:            make([]model.FraudIndicator, 0, len(analysis.Indicators)),
		SuspiciousPatterns:    nonNil(analysis.SuspiciousPatterns),
		RecommendedAction:     analysis.RecommendedAction,
		Reasoning:             analysis.Reasoning,
		NeedsInvestigation:    analysis.NeedsInvestigation,
		InvestigationPriority: analysis.InvestigationPriority,
		Rules:                 rules,
		Risk:                  risk,
	}

	// The level follows the probability whenever one is given
	if analysis.Probability != nil {
		summary.Probability = float64(*analysis.Probability)
		summary.RiskLevel = a.deps.Scoring.Levels.LevelForProbability(summary.Probability)
	} else {
		summary.Probability = probabilityFor(a.deps.Scoring.Levels, summary.RiskLevel)
	}

	for _, ind := range analysis.Indicators {
		summary.Indicators = append(summary.Indicators, model.FraudIndicator{
			Indicator:   ind.Indicator,
			Severity:    model.Level(ind.Severity),
			Confidence:  float64(ind.Confidence),
			Description: ind.Description,
		})
	}
	if summary.RecommendedAction == "" {
		summary.RecommendedAction = defaultFraudAction
	}
	if summary.InvestigationPriority == "" {
		summary.InvestigationPriority = defaultInvestigation
	}
	summary.FlaggedForReview = summary.RiskLevel.Elevated()

	return r.done(model.StageOutcome{
		ReadyForNextStage: true,
		FraudScreening:    summary,
	})
}

// probabilityFor returns the midpoint probability of a level's band
func probabilityFor(t model.LevelThresholds, level model.Level) float64 {
	switch level {
	case model.LevelLow:
		return t.Medium / 200
	case model.LevelMedium:
		return (t.Medium + t.High) / 200
	case model.LevelHigh:
		return (t.High + t.Critical) / 200
	case model.LevelCritical:
		return (t.Critical + 100) / 200
	}
	return 0.5
}
