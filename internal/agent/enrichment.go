package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

const enrichmentPlanSchema = `{
  "missingFields": [{"field": "name", "importance": "critical/important/optional", "reason": "why it is needed"}],
  "suspiciousData": [{"field": "name", "issue": "description", "confidence": 0-1}],
  "ragQueries": ["query for the knowledge base"],
  "enrichmentStrategy": "enrichment plan"
}`

const enrichmentSynthesisSchema = `{
  "enrichedData": {"claim field": "value"},
  "newlyAddedFields": {"field": "value with source"},
  "correctedFields": {"field": "new value with reason"},
  "dataQualityImprovement": "percentage improvement",
  "confidence": 0-1,
  "additionalNotesForReview": "concerns or uncertainty"
}`

// maxKnowledgeQueries bounds the knowledge lookups one enrichment may issue
const maxKnowledgeQueries = 5

// KnowledgeResult pairs a query with the reference text it returned
type KnowledgeResult struct {
	Query  string `json:"query"`
	Result string `json:"result"`
}

// EnrichmentAgent fills gaps in claim data using the knowledge source
type EnrichmentAgent struct {
	deps Deps
}

// NewEnrichmentAgent creates the enrichment agent
func NewEnrichmentAgent(d Deps) *EnrichmentAgent {
	return &EnrichmentAgent{deps: d.withDefaults()}
}

// Run enriches claim data. Fields synthesized by the oracle overlay the
// extracted data; fields it leaves out keep their extracted values.
func (a *EnrichmentAgent) Run(ctx context.Context, claim model.ClaimData, validation *model.ValidationSummary) model.StageResult {
	r := newRun(ctx, a.deps, "DataEnrichmentAgent", model.StageEnrichment)

	// 1. Identify missing or suspicious data
	var plan EnrichmentPlan
	prompt := BuildPrompt(
		"Analyze the claim data and validation results. Identify missing critical information, potentially incorrect data and inconsistencies, and the knowledge base queries that could resolve them.",
		[]Section{
			{"Claim data", claim.Fields()},
			{"Validation results", validation},
		},
		enrichmentPlanSchema,
	)
	if err := r.consult(ctx, "data_identification", "EnrichmentAgent-Identify", prompt, &plan); err != nil {
		return r.fail(err)
	}

	// 2. Look up reference material
	var knowledge []KnowledgeResult
	if a.deps.Knowledge != nil && len(plan.Queries) > 0 {
		for i, q := range plan.Queries {
			if i == maxKnowledgeQueries {
				r.logger.Debug("Knowledge queries truncated", zap.Int("requested", len(plan.Queries)))
				break
			}
			knowledge = append(knowledge, KnowledgeResult{Query: q, Result: a.deps.Knowledge.Query(q)})
		}
		r.note("knowledge_retrieval", knowledge)
	}

	// 3. Synthesize the enriched claim
	var synthesis EnrichmentSynthesis
	prompt = BuildPrompt(
		"Based on the original claim data, the identified gaps and the knowledge base results, synthesize an enriched version of the claim data. Only add values you can support.",
		[]Section{
			{"Claim data", claim.Fields()},
			{"Identified gaps", plan},
			{"Knowledge base results", knowledge},
		},
		enrichmentSynthesisSchema,
	)
	if err := r.consult(ctx, "data_synthesis", "EnrichmentAgent-Synthesis", prompt, &synthesis); err != nil {
		return r.fail(err)
	}

	enriched := claim
	if len(synthesis.EnrichedData) > 0 {
		if overlay, err := extract.ClaimDataFromMap(synthesis.EnrichedData); err == nil {
			enriched = claim.Merge(overlay)
		} else {
			r.logger.Warn("Ignoring enriched data", zap.Error(err))
		}
	}

	// 4. Convert to the enriched claim schema
	input := enriched.Fields()
	input["correctedFields"] = []string(synthesis.CorrectedFields)
	input["missingFields"] = []string(plan.MissingFields)

	var document map[string]any
	out, ok := r.invoke(ctx, "enriched_conversion", tools.DataConverter, map[string]any{
		"data":         input,
		"targetSchema": extract.SchemaEnrichedClaim,
	})
	if doc, isMap := out.Data.(map[string]any); ok && isMap {
		document = doc
	}

	improvement := strings.TrimSpace(string(synthesis.QualityImprovement))
	if improvement == "" {
		improvement = "0%"
	}
	confidence := float64(*synthesis.Confidence)

	return r.done(model.StageOutcome{
		ReadyForNextStage: confidence > a.deps.Pipeline.MinEnrichmentConfidence,
		Enrichment: &model.EnrichmentOutput{
			Data:               enriched,
			Document:           document,
			NewFields:          nonNil(synthesis.NewlyAddedFields),
			CorrectedFields:    nonNil(synthesis.CorrectedFields),
			QualityImprovement: improvement,
			Confidence:         confidence,
			Notes:              synthesis.Notes,
			KnowledgeQueries:   plan.Queries,
		},
	})
}
