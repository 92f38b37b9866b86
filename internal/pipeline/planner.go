package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/agent"
	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

// StopTool is the tool name the oracle answers with to end the loop
const StopTool = "STOP"

const plannerCaller = "DynamicPlanner-Step"

const planChoiceSchema = `{
  "tool": "name of the next tool, or STOP",
  "input": {"<key>": "<value>"},
  "reasoning": "why this tool is next"
}`

// PlanChoice is the planner oracle's answer for one step
type PlanChoice struct {
	Tool      string         `json:"tool"`
	Input     map[string]any `json:"input"`
	Reasoning string         `json:"reasoning"`
}

// Validate implements llm.Decision. An empty tool is a valid reply; Run
// treats it like any other unknown tool.
func (c *PlanChoice) Validate() error {
	c.Tool = strings.TrimSpace(c.Tool)
	return nil
}

// Planner lets the oracle pick tools one at a time, each tool at most once,
// until it answers STOP, names an unknown tool, or runs out of steps or tools.
type Planner struct {
	registry  *tools.Registry
	oracle    agent.Oracle
	knowledge agent.KnowledgeSource
	store     Recorder
	maxSteps  int
	options
}

// NewPlanner creates the dynamic planner. knowledge may be nil.
func NewPlanner(registry *tools.Registry, oracle agent.Oracle, knowledge agent.KnowledgeSource, store Recorder, maxSteps int, opts ...Option) *Planner {
	if maxSteps <= 0 {
		maxSteps = model.DefaultConfig().Pipeline.PlannerMaxSteps
	}
	return &Planner{
		registry:  registry,
		oracle:    oracle,
		knowledge: knowledge,
		store:     store,
		maxSteps:  maxSteps,
		options:   buildOptions(opts),
	}
}

// Run processes a submission with oracle-chosen tools. A consultation error
// or a reply that is not JSON aborts the run without a record and without a
// stop reason; every other ending stores the synthesized record.
func (p *Planner) Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) (log *model.OrchestrationLog) {
	log = model.NewOrchestrationLog(submissionID, sub, model.ModeDynamic, p.now().UTC())
	logger := logging.ForSubmission(p.logger, submissionID, log.SubmitterID)
	ctx = logging.WithContext(ctx, logger)

	logger.Info("Orchestration started", zap.String("mode", string(log.Mode)), zap.Int("max_steps", p.maxSteps))
	defer func() {
		if r := recover(); r != nil {
			fatal(log, fmt.Errorf("panic: %v", r), string(debug.Stack()))
		}
		finish(log, p.now(), logger)
	}()

	claim := submissionClaim(sub)
	narrative := p.enrichQuery(sub, claim)

	available := make(map[tools.Name]tools.Descriptor)
	for _, d := range p.registry.Descriptors() {
		available[d.Name] = d
	}

	for step := 1; step <= p.maxSteps; step++ {
		if len(available) == 0 {
			log.StopReason = model.StopExhausted
			break
		}
		if err := ctx.Err(); err != nil {
			fatal(log, fmt.Errorf("planner step %d: %w", step, err), "")
			return log
		}

		// 1. Ask for the next tool
		var choice PlanChoice
		prompt := agent.BuildPrompt(
			"You are orchestrating the processing of an insurance claim. Choose the next tool to run, with its input, or answer STOP when the results so far are sufficient for a routing decision. Each tool can be used once.",
			[]agent.Section{
				{Title: "Claim narrative", Value: narrative},
				{Title: "Claim data", Value: claim.Fields()},
				{Title: "Available tools", Value: remaining(available)},
				{Title: "Results so far", Value: log.ToolRuns},
			},
			planChoiceSchema,
		)
		if err := p.oracle.Consult(ctx, plannerCaller, prompt, &choice); err != nil {
			fatal(log, fmt.Errorf("planner step %d: %w", step, err), "")
			return log
		}

		if strings.EqualFold(choice.Tool, StopTool) {
			log.StopReason = model.StopRequested
			break
		}
		name, ok := p.registry.Lookup(choice.Tool)
		desc, unused := available[name]
		if choice.Tool == "" || !ok || !unused {
			logger.Warn("Planner chose an unavailable tool", zap.Int("step", step), zap.String("tool", choice.Tool))
			log.StopReason = model.StopInvalidTool
			break
		}

		// 2. Run it
		input := completeInput(choice.Input, desc, sub, claim)
		started := p.now().UTC()
		out, err := p.registry.Invoke(ctx, name, input)
		if err != nil {
			out = tools.Failure(err)
		}
		delete(available, name)

		log.ToolRuns = append(log.ToolRuns, model.ToolRun{
			Step:      step,
			Tool:      string(name),
			Input:     input,
			Output:    out,
			Timestamp: started,
		})
		logger.Debug("Planner step complete",
			zap.Int("step", step),
			zap.String("tool", string(name)),
			zap.Bool("success", out.Success))
	}
	if log.StopReason == "" {
		log.StopReason = model.StopMaxSteps
		if len(available) == 0 {
			log.StopReason = model.StopExhausted
		}
	}

	// 3. Synthesize and store the record
	record := synthesize(sub, claim, log.ToolRuns)
	if err := persist(p.store, log, record); err != nil {
		fatal(log, err, "")
		return log
	}
	log.Status = model.StatusComplete
	return log
}

// enrichQuery returns the narrative followed by reference text when a knowledge source is set
func (p *Planner) enrichQuery(sub model.ClaimSubmission, claim model.ClaimData) string {
	var b strings.Builder
	b.WriteString(extract.PlainText(sub.Text))

	if p.knowledge == nil {
		return b.String()
	}
	question := claim.Description
	if question == "" {
		question = sub.Text
	}
	if ref := strings.TrimSpace(p.knowledge.Query(question)); ref != "" {
		b.WriteString("\n\nReference material:\n")
		b.WriteString(ref)
	}
	return b.String()
}

// submissionClaim builds claim data from the form, with the narrative as description fallback
func submissionClaim(sub model.ClaimSubmission) model.ClaimData {
	claim := model.FromForm(sub.Form())
	if claim.Description == "" {
		claim.Description = extract.PlainText(sub.Text)
	}
	return claim
}

// remaining lists the unused descriptors by name
func remaining(available map[tools.Name]tools.Descriptor) []tools.Descriptor {
	out := make([]tools.Descriptor, 0, len(available))
	for _, d := range available {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// completeInput fills required keys the oracle left out from the submission
func completeInput(input map[string]any, desc tools.Descriptor, sub model.ClaimSubmission, claim model.ClaimData) map[string]any {
	out := make(map[string]any, len(input)+1)
	for k, v := range input {
		out[k] = v
	}
	for _, key := range desc.Input.Required {
		if v, ok := out[key]; ok && v != nil {
			continue
		}
		switch key {
		case "document":
			out[key] = sub
		case "claimData", "data":
			out[key] = claim.Fields()
		}
	}
	return out
}
