package agent

import (
	"context"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

const routingDecisionSchema = `{
  "routingDecision": "APPROVE/DENY/PENDING_ADDITIONAL_INFO/FLAG_FOR_SPECIAL_REVIEW",
  "assignedQueue": "standard_processing/special_review/fraud_investigation/manual_review",
  "processingPriority": "expedited/standard/delayed",
  "requiresAdditionalInfo": true/false,
  "additionalInfoNeeded": ["fields"],
  "shouldBeFlagged": true/false,
  "flagReason": "reason when flagged",
  "estimatedProcessingTime": "in days",
  "summary": "concise summary of the decision",
  "reasoning": "detailed reasoning"
}`

// RoutingInput is everything the earlier stages produced
type RoutingInput struct {
	Submission model.ClaimSubmission
	Claim      model.ClaimData
	Extraction *model.ExtractionOutput
	Validation *model.ValidationSummary
	Enrichment *model.EnrichmentOutput      // Nil when enrichment failed
	Fraud      *model.FraudScreeningSummary // Nil when fraud screening failed
	Timestamps map[model.Stage]time.Time
}

// assessment is the compiled view of the earlier stages
type assessment struct {
	ValidationPassed  bool        `json:"validationStatus"`
	EnrichmentQuality string      `json:"enrichmentQuality"`
	FraudRiskLevel    model.Level `json:"fraudRiskLevel"`
	FraudProbability  float64     `json:"fraudProbability"`
}

// RoutingAgent makes the final decision and builds the claim record
type RoutingAgent struct {
	deps Deps
}

// NewRoutingAgent creates the routing agent
func NewRoutingAgent(d Deps) *RoutingAgent {
	return &RoutingAgent{deps: d.withDefaults()}
}

// Run decides where the claim goes. The returned record has no claim id;
// one is assigned when it is appended to the store.
func (a *RoutingAgent) Run(ctx context.Context, in RoutingInput) model.StageResult {
	r := newRun(ctx, a.deps, "ClaimRoutingAgent", model.StageRouting)

	// 1. Compile the assessment
	compiled := assessment{
		EnrichmentQuality: "0%",
		FraudRiskLevel:    model.LevelMedium,
		FraudProbability:  0.5,
	}
	if in.Validation != nil {
		compiled.ValidationPassed = in.Validation.Passed
	}
	if in.Enrichment != nil {
		compiled.EnrichmentQuality = in.Enrichment.QualityImprovement
	}
	if in.Fraud != nil {
		compiled.FraudRiskLevel = in.Fraud.RiskLevel
		compiled.FraudProbability = in.Fraud.Probability
	}
	r.note("assessment_compilation", compiled)

	// 2. Quality check
	var quality *model.QualityReport
	out, ok := r.invoke(ctx, "quality_check", tools.QualityChecker, map[string]any{
		"claimData": in.Claim.Fields(),
		"minimum":   a.deps.Scoring.Quality.Minimum,
	})
	if report, isReport := out.Data.(model.QualityReport); ok && isReport {
		quality = &report
	}

	// 3. Routing decision
	var verdict RoutingVerdict
	prompt := BuildPrompt(
		"As a claim routing expert, make the final routing decision for this claim considering the validation results, the enrichment improvements, the fraud screening findings and the overall risk.",
		[]Section{
			{"Assessment", compiled},
			{"Validation results", in.Validation},
			{"Enrichment", in.Enrichment},
			{"Fraud screening", in.Fraud},
			{"Data quality", quality},
		},
		routingDecisionSchema,
	)
	if err := r.consult(ctx, "routing_decision", "RoutingAgent-Decision", prompt, &verdict); err != nil {
		return r.fail(err)
	}
	decision := verdict.toModel()

	// 4. Build the claim record
	record := model.NewClaimRecord(in.Submission, model.ModeFixed)
	record.Complete(in.Claim)
	for stage, ts := range in.Timestamps {
		record.Timestamps[string(stage)] = ts
	}
	record.Timestamps[string(model.StageRouting)] = r.result.Timestamp

	if in.Extraction != nil {
		record.StageSummaries.Extraction = ExtractionLine(in.Extraction)
	}
	if in.Validation != nil {
		record.StageSummaries.Validation = ValidationLine(in.Validation)
	}
	if in.Enrichment != nil {
		record.StageSummaries.Enrichment = EnrichmentLine(in.Enrichment)
	}
	if in.Fraud != nil {
		record.StageSummaries.FraudScreening = FraudLine(in.Fraud)
	}
	record.StageSummaries.Routing = RoutingLine(decision)
	record.Summary = BuildSummary(decision, in.Validation, in.Enrichment, in.Fraud)
	r.note("result_compilation", record)

	return r.done(model.StageOutcome{
		ReadyForNextStage: true,
		Routing: &model.RoutingOutput{
			Decision: decision,
			Quality:  quality,
			Record:   record,
		},
	})
}
