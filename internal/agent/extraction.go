package agent

import (
	"context"
	"strings"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

const extractionStrategySchema = `{
  "strategy": "how the claim data should be extracted",
  "toolsToUse": ["documentParser", "dataConverter"],
  "parameters": {},
  "reasoning": "why"
}`

const extractionQualitySchema = `{
  "extractionQuality": "excellent/good/fair/poor",
  "completenessScore": 0-100,
  "missingCriticalFields": ["field names"],
  "confidenceLevel": 0-1,
  "summary": "short assessment"
}`

// ExtractionAgent turns a submission into normalized claim data
type ExtractionAgent struct {
	deps Deps
}

// NewExtractionAgent creates the extraction agent
func NewExtractionAgent(d Deps) *ExtractionAgent {
	return &ExtractionAgent{deps: d.withDefaults()}
}

// Run extracts claim data from the submission.
// The stage is ready for validation when the oracle's completeness score
// reaches the configured minimum.
func (a *ExtractionAgent) Run(ctx context.Context, sub model.ClaimSubmission) model.StageResult {
	r := newRun(ctx, a.deps, "ExtractionAgent", model.StageExtraction)
	form := sub.Form()

	// 1. Ask for an extraction strategy
	var strategy ExtractionStrategy
	prompt := BuildPrompt(
		"You are extracting insurance claim data. Decide which extraction tools to use on this submission.",
		[]Section{
			{"Claim form", form},
			{"Incident narrative", sub.Text},
		},
		extractionStrategySchema,
	)
	if err := r.consult(ctx, "extraction_strategy", "ExtractionAgent-Strategy", prompt, &strategy); err != nil {
		return r.fail(err)
	}

	use := make(map[tools.Name]bool)
	for _, name := range strategy.ToolsToUse {
		use[tools.Name(name)] = true
	}
	if len(use) == 0 {
		use[tools.DocumentParser] = true
		use[tools.DataConverter] = true
	}

	// 2. Run the chosen tools over the form data
	data := model.FromForm(form)
	if data.Description == "" {
		data.Description = extract.PlainText(sub.Text)
	}

	if use[tools.DocumentParser] {
		out, ok := r.invoke(ctx, "document_parsing", tools.DocumentParser, map[string]any{
			"document":     sub,
			"documentType": "claim_form",
		})
		if parsed, isDoc := out.Data.(*extract.ParsedDocument); ok && isDoc {
			data = data.Merge(parsed.Claim)
		}
	}

	var intake map[string]any
	if use[tools.DataConverter] {
		out, ok := r.invoke(ctx, "data_conversion", tools.DataConverter, map[string]any{
			"data":         data.Fields(),
			"targetSchema": extract.SchemaClaimIntake,
		})
		if converted, isMap := out.Data.(map[string]any); ok && isMap {
			intake = converted
			if claim, err := extract.ClaimDataFromMap(converted); err == nil {
				data = data.Merge(claim)
			}
		}
	}

	// 3. Ask the oracle to assess what was extracted
	var quality ExtractionAssessment
	prompt = BuildPrompt(
		"You are reviewing extracted insurance claim data. Assess its quality and completeness.",
		[]Section{
			{"Extracted data", data.Fields()},
			{"Extraction strategy", strategy.Strategy},
		},
		extractionQualitySchema,
	)
	if err := r.consult(ctx, "quality_assessment", "ExtractionAgent-Quality", prompt, &quality); err != nil {
		return r.fail(err)
	}

	assessment := model.ExtractionQuality{
		Quality:               quality.Quality,
		CompletenessScore:     float64(*quality.CompletenessScore),
		MissingCriticalFields: nonNil(quality.MissingCriticalFields),
		Summary:               strings.TrimSpace(quality.Summary),
	}
	if quality.ConfidenceLevel != nil {
		assessment.ConfidenceLevel = float64(*quality.ConfidenceLevel)
	}

	return r.done(model.StageOutcome{
		ReadyForNextStage: assessment.CompletenessScore >= a.deps.Pipeline.MinExtractionCompleteness,
		Extraction: &model.ExtractionOutput{
			Strategy: strategy.Strategy,
			Data:     data,
			Intake:   intake,
			Quality:  assessment,
		},
	})
}

// nonNil returns an empty slice in place of nil so payloads encode as []
func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
