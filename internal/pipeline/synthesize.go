package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

// toolStage maps each built-in tool to the summary slot its output belongs to
var toolStage = map[tools.Name]model.Stage{
	tools.DocumentParser:     model.StageExtraction,
	tools.DataConverter:      model.StageExtraction,
	tools.SchemaValidator:    model.StageValidation,
	tools.DocumentClassifier: model.StageValidation,
	tools.RulesEngine:        model.StageFraudScreening,
	tools.RiskCalculator:     model.StageFraudScreening,
	tools.QualityChecker:     model.StageRouting,
}

// synthesize builds the record of a planner run from the tool outputs.
// Stages no tool contributed to keep an empty summary.
func synthesize(sub model.ClaimSubmission, claim model.ClaimData, runs []model.ToolRun) model.ClaimRecord {
	record := model.NewClaimRecord(sub, model.ModeDynamic)
	record.Complete(claim)

	parts := make(map[model.Stage][]string)
	for _, run := range runs {
		record.Timestamps[run.Tool] = run.Timestamp

		stage, ok := toolStage[tools.Name(run.Tool)]
		if !ok {
			stage = model.StageRouting
		}
		parts[stage] = append(parts[stage], describe(run))
	}

	join := func(stage model.Stage) string {
		return strings.Join(parts[stage], "; ")
	}
	record.StageSummaries = model.StageSummaries{
		Extraction:     join(model.StageExtraction),
		Validation:     join(model.StageValidation),
		Enrichment:     join(model.StageEnrichment),
		FraudScreening: join(model.StageFraudScreening),
		Routing:        join(model.StageRouting),
	}
	record.Summary = record.StageSummaries.Joined()
	return record
}

// describe renders one tool outcome as a summary fragment
func describe(run model.ToolRun) string {
	if !run.Output.Success {
		return fmt.Sprintf("%s failed: %s", run.Tool, run.Output.Error)
	}

	switch data := run.Output.Data.(type) {
	case *extract.ParsedDocument:
		return fmt.Sprintf("Parsed %s document (%d claim fields)", data.DocumentType, len(data.Claim.Fields()))
	case map[string]any:
		schema, _ := run.Input["targetSchema"].(string)
		if schema == "" {
			schema = "default"
		}
		return fmt.Sprintf("Converted to %s schema (%d fields)", schema, len(data))
	case model.SchemaValidation:
		verdict := "valid"
		if !data.IsValid {
			verdict = fmt.Sprintf("invalid, %d errors", len(data.Errors))
		}
		return fmt.Sprintf("Schema %s: %s", data.Schema, verdict)
	case model.Classification:
		return fmt.Sprintf("Classified as %s (Severity: %s, %s)", data.Category, data.Severity, data.Completeness)
	case model.RuleEvaluation:
		return fmt.Sprintf("Fraud rules: %d flagged (Severity: %s)", len(data.FlaggedRules), data.Severity)
	case model.RiskAssessment:
		return fmt.Sprintf("Risk: %s (Score: %d/100)", data.Level, data.Score)
	case model.QualityReport:
		verdict := "PASSED"
		if !data.Passed {
			verdict = "FAILED"
		}
		return fmt.Sprintf("Quality: %s (Score: %.0f/100)", verdict, data.Score)
	default:
		return fmt.Sprintf("%s completed", run.Tool)
	}
}
