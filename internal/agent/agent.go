// Package agent implements the five stage agents of the claim pipeline.
//
// Every agent runs zero or more deterministic tools from the registry and
// then consults the decision oracle. Tool failures are recorded as steps and
// only degrade the stage output; a failed consultation (transport error or a
// reply rejected by the stage's decoder) marks the stage as unsuccessful.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/llm"
	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

// Oracle answers a prompt with a typed, validated decision
type Oracle interface {
	Consult(ctx context.Context, caller, prompt string, out llm.Decision) error
}

// KnowledgeSource returns best-effort reference text for a query
type KnowledgeSource interface {
	Query(question string) string
}

// Deps holds what every agent needs
type Deps struct {
	Registry  *tools.Registry
	Oracle    Oracle
	Knowledge KnowledgeSource // Optional
	Scoring   model.ScoringConfig
	Pipeline  model.PipelineConfig
	Now       func() time.Time
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Set is the full line-up of stage agents
type Set struct {
	Extraction     *ExtractionAgent
	Validation     *ValidationAgent
	Enrichment     *EnrichmentAgent
	FraudScreening *FraudScreeningAgent
	Routing        *RoutingAgent
}

// NewSet builds all five agents over the same dependencies
func NewSet(d Deps) *Set {
	return &Set{
		Extraction:     NewExtractionAgent(d),
		Validation:     NewValidationAgent(d),
		Enrichment:     NewEnrichmentAgent(d),
		FraudScreening: NewFraudScreeningAgent(d),
		Routing:        NewRoutingAgent(d),
	}
}

// run accumulates the steps of one stage
type run struct {
	deps   Deps
	logger *zap.Logger
	result model.StageResult
}

func newRun(ctx context.Context, d Deps, name string, stage model.Stage) *run {
	logger := logging.FromContextOr(ctx, d.Logger).With(zap.String("agent", name), zap.String("stage", string(stage)))
	logger.Debug("Stage started")

	return &run{
		deps:   d,
		logger: logger,
		result: model.StageResult{
			AgentName: name,
			Stage:     stage,
			Timestamp: d.Now().UTC(),
			Steps:     []model.StepRecord{},
		},
	}
}

// invoke runs a tool and records the step; ok is false when the tool did not succeed
func (r *run) invoke(ctx context.Context, step string, name tools.Name, input map[string]any) (model.ToolResult, bool) {
	rec := model.StepRecord{Step: step, Tool: string(name)}

	out, err := r.deps.Registry.Invoke(ctx, name, input)
	switch {
	case err != nil:
		rec.Error = err.Error()
	case !out.Success:
		rec.Result = out
		rec.Error = out.Error
	default:
		rec.Result = out
	}
	r.result.Steps = append(r.result.Steps, rec)

	if rec.Error != "" {
		r.logger.Warn("Tool failed", zap.String("tool", string(name)), zap.String("error", rec.Error))
		return out, false
	}
	return out, true
}

// consult asks the oracle and records the step
func (r *run) consult(ctx context.Context, step, caller, prompt string, out llm.Decision) error {
	err := r.deps.Oracle.Consult(ctx, caller, prompt, out)
	rec := model.StepRecord{Step: step}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Result = out
	}
	r.result.Steps = append(r.result.Steps, rec)
	return err
}

// note records a step that is neither a tool call nor a consultation
func (r *run) note(step string, result any) {
	r.result.Steps = append(r.result.Steps, model.StepRecord{Step: step, Result: result})
}

// fail ends the stage unsuccessfully
func (r *run) fail(err error) model.StageResult {
	r.logger.Warn("Stage failed", zap.Error(err))
	r.result.Result = model.StageOutcome{Success: false, Error: err.Error()}
	return r.result
}

// done ends the stage successfully
func (r *run) done(outcome model.StageOutcome) model.StageResult {
	outcome.Success = true
	r.logger.Debug("Stage finished", zap.Bool("ready", outcome.ReadyForNextStage))
	r.result.Result = outcome
	return r.result
}
