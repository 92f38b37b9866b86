package agent

import (
	"context"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
	"github.com/ppiankov/claimflow/internal/validate"
)

const validationVerdictSchema = `{
  "isValid": true/false,
  "validationScore": 0-100,
  "validationErrors": ["errors"],
  "validationWarnings": ["warnings"],
  "requiresManualReview": true/false,
  "reasoning": "explanation",
  "recommendedAction": "PASS_VALIDATION/FLAG_FOR_REVIEW/REJECT"
}`

// NextActionPending is reported when the oracle recommends no action
const NextActionPending = "PENDING"

// ValidationAgent checks extracted claim data
type ValidationAgent struct {
	deps Deps
}

// NewValidationAgent creates the validation agent
func NewValidationAgent(d Deps) *ValidationAgent {
	return &ValidationAgent{deps: d.withDefaults()}
}

// Run classifies and schema-checks the claim, then asks the oracle for a verdict.
// The verdict is advisory: the pipeline continues whenever the consultation succeeds.
func (a *ValidationAgent) Run(ctx context.Context, claim model.ClaimData) model.StageResult {
	r := newRun(ctx, a.deps, "ValidationAgent", model.StageValidation)
	fields := claim.Fields()

	// 1. Classify the claim
	var classification *model.Classification
	out, ok := r.invoke(ctx, "document_classification", tools.DocumentClassifier, map[string]any{
		"claimData": fields,
	})
	if c, isClass := out.Data.(model.Classification); ok && isClass {
		classification = &c
	}

	// 2. Validate against the intake schema
	var schema *model.SchemaValidation
	out, ok = r.invoke(ctx, "schema_validation", tools.SchemaValidator, map[string]any{
		"data":   fields,
		"schema": validate.SchemaClaimIntake,
	})
	if v, isValidation := out.Data.(model.SchemaValidation); ok && isValidation {
		schema = &v
	}

	// 3. Ask for a verdict
	var verdict ValidationVerdict
	prompt := BuildPrompt(
		"You are validating an insurance claim. Decide whether the claim data is valid using the tool results below.",
		[]Section{
			{"Claim data", fields},
			{"Classification", classification},
			{"Schema validation", schema},
		},
		validationVerdictSchema,
	)
	if err := r.consult(ctx, "validation_decision", "ValidationAgent-Decision", prompt, &verdict); err != nil {
		return r.fail(err)
	}

	summary := &model.ValidationSummary{
		Passed:             *verdict.IsValid,
		Score:              float64(*verdict.ValidationScore),
		CriticalErrors:     nonNil(verdict.ValidationErrors),
		Warnings:           nonNil(verdict.ValidationWarnings),
		ManualReviewNeeded: verdict.RequiresManualReview,
		NextAction:         verdict.RecommendedAction,
		Reasoning:          verdict.Reasoning,
		Classification:     classification,
		Schema:             schema,
	}
	if summary.NextAction == "" {
		summary.NextAction = NextActionPending
	}

	return r.done(model.StageOutcome{
		ReadyForNextStage: summary.Passed && !summary.ManualReviewNeeded,
		Validation:        summary,
	})
}
