package agent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimflow/internal/model"
)

// BuildSummary renders the human-readable outcome stored with a claim record
func BuildSummary(decision model.RoutingDecision, validation *model.ValidationSummary, enrichment *model.EnrichmentOutput, fraud *model.FraudScreeningSummary) string {
	var parts []string
	add := func(format string, args ...any) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	if decision.Summary != "" {
		parts = append(parts, decision.Summary)
	}
	if decision.Reasoning != "" {
		add("Reasoning: %s", decision.Reasoning)
	}

	if validation != nil {
		parts = append(parts, ValidationLine(validation))
		if len(validation.CriticalErrors) > 0 {
			add("Validation Errors: %s", strings.Join(validation.CriticalErrors, ", "))
		}
	}

	if fraud != nil {
		parts = append(parts, FraudLine(fraud))
		if len(fraud.Indicators) > 0 {
			names := make([]string, 0, len(fraud.Indicators))
			for _, ind := range fraud.Indicators {
				names = append(names, ind.Indicator)
			}
			add("Fraud Indicators: %s", strings.Join(names, ", "))
		}
	}

	if enrichment != nil {
		if len(enrichment.NewFields) > 0 {
			add("Fields Added During Enrichment: %s", strings.Join(enrichment.NewFields, ", "))
		}
		if enrichment.QualityImprovement != "" {
			add("Data Quality Improvement: %s", enrichment.QualityImprovement)
		}
	}

	if decision.Decision != "" {
		add("Final Decision: %s", decision.Decision)
	}
	if decision.AssignedQueue != "" {
		add("Assigned Queue: %s", decision.AssignedQueue)
	}
	if decision.ProcessingPriority != "" {
		add("Processing Priority: %s", decision.ProcessingPriority)
	}
	if decision.EstimatedProcessingTime != "" {
		add("Estimated Processing Time: %s", decision.EstimatedProcessingTime)
	}
	if decision.RequiresAdditionalInfo && len(decision.AdditionalInfoNeeded) > 0 {
		add("Additional Information Required: %s", strings.Join(decision.AdditionalInfoNeeded, ", "))
	}
	if decision.ShouldBeFlagged {
		reason := decision.FlagReason
		if reason == "" {
			reason = "Requires special review"
		}
		add("FLAGGED FOR REVIEW: %s", reason)
	}

	return strings.Join(parts, model.SummarySeparator)
}

// ExtractionLine summarizes the extraction stage
func ExtractionLine(out *model.ExtractionOutput) string {
	line := fmt.Sprintf("Extraction: %s (Completeness: %.0f/100)", orUnknown(out.Quality.Quality), out.Quality.CompletenessScore)
	if len(out.Quality.MissingCriticalFields) > 0 {
		line += ", missing " + strings.Join(out.Quality.MissingCriticalFields, ", ")
	}
	return line
}

// ValidationLine summarizes the validation stage
func ValidationLine(v *model.ValidationSummary) string {
	status := "FAILED"
	if v.Passed {
		status = "PASSED"
	}
	return fmt.Sprintf("Validation: %s (Score: %.0f/100)", status, v.Score)
}

// EnrichmentLine summarizes the enrichment stage
func EnrichmentLine(e *model.EnrichmentOutput) string {
	return fmt.Sprintf("Enrichment: %d fields added, %d corrected (Confidence: %.2f)", len(e.NewFields), len(e.CorrectedFields), e.Confidence)
}

// FraudLine summarizes the fraud screening stage
func FraudLine(f *model.FraudScreeningSummary) string {
	return fmt.Sprintf("Fraud Risk: %s (Probability: %.1f%%)", f.RiskLevel, f.Probability*100)
}

// RoutingLine summarizes the routing stage
func RoutingLine(d model.RoutingDecision) string {
	line := "Final Decision: " + d.Decision
	if d.AssignedQueue != "" {
		line += " -> " + d.AssignedQueue
	}
	return line
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
