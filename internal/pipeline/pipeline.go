// Package pipeline runs claim submissions end to end, either through the
// fixed sequence of stage agents or through the oracle-driven planner.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/agent"
	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
)

// Recorder appends finished claim records and returns the assigned claim id
type Recorder interface {
	Append(submitterID string, rec model.ClaimRecord) (string, error)
}

// Runner processes one submission to a terminal orchestration log
type Runner interface {
	Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) *model.OrchestrationLog
}

// Option configures a Pipeline or a Planner
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *zap.Logger
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Pipeline runs the five stage agents in a fixed order
type Pipeline struct {
	agents *agent.Set
	store  Recorder
	options
}

// New creates the fixed pipeline
func New(agents *agent.Set, store Recorder, opts ...Option) *Pipeline {
	return &Pipeline{
		agents:  agents,
		store:   store,
		options: buildOptions(opts),
	}
}

// Run processes a submission. Extraction, validation and routing failures
// end the run; enrichment and fraud screening failures only add a warning.
// A completed run carries the record as stored, with its claim id.
func (p *Pipeline) Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) (log *model.OrchestrationLog) {
	log = model.NewOrchestrationLog(submissionID, sub, model.ModeFixed, p.now().UTC())
	logger := logging.ForSubmission(p.logger, submissionID, log.SubmitterID)
	ctx = logging.WithContext(ctx, logger)

	logger.Info("Orchestration started", zap.String("mode", string(log.Mode)))
	defer func() {
		if r := recover(); r != nil {
			fatal(log, fmt.Errorf("panic: %v", r), string(debug.Stack()))
		}
		finish(log, p.now(), logger)
	}()

	// 1. Extraction
	extraction, err := p.stage(ctx, log, model.StageExtraction, func() model.StageResult {
		return p.agents.Extraction.Run(ctx, sub)
	})
	if err != nil {
		fatal(log, err, "")
		return log
	}
	if !extraction.Result.Success {
		fail(log, model.StatusFailedAtExtraction, extraction)
		return log
	}
	if !extraction.Result.ReadyForNextStage {
		log.Status = model.StatusIncompleteExtraction
		return log
	}
	extracted := extraction.Result.Extraction

	// 2. Validation
	validation, err := p.stage(ctx, log, model.StageValidation, func() model.StageResult {
		return p.agents.Validation.Run(ctx, extracted.Data)
	})
	if err != nil {
		fatal(log, err, "")
		return log
	}
	if !validation.Result.Success {
		fail(log, model.StatusFailedAtValidation, validation)
		return log
	}
	validated := validation.Result.Validation

	// 3. Enrichment
	claim := extracted.Data
	enrichment, err := p.stage(ctx, log, model.StageEnrichment, func() model.StageResult {
		return p.agents.Enrichment.Run(ctx, claim, validated)
	})
	if err != nil {
		fatal(log, err, "")
		return log
	}
	enriched := enrichment.Result.Enrichment
	if enrichment.Result.Success {
		claim = enriched.Data
	} else {
		warn(log, logger, "Data enrichment failed, continuing with extracted data", enrichment)
	}

	// 4. Fraud screening
	screening, err := p.stage(ctx, log, model.StageFraudScreening, func() model.StageResult {
		return p.agents.FraudScreening.Run(ctx, claim)
	})
	if err != nil {
		fatal(log, err, "")
		return log
	}
	if !screening.Result.Success {
		warn(log, logger, "Fraud screening could not be completed", screening)
	}

	// 5. Routing
	timestamps := make(map[model.Stage]time.Time, len(log.StageTimestamps))
	for stage, ts := range log.StageTimestamps {
		timestamps[stage] = ts
	}
	routing, err := p.stage(ctx, log, model.StageRouting, func() model.StageResult {
		return p.agents.Routing.Run(ctx, agent.RoutingInput{
			Submission: sub,
			Claim:      claim,
			Extraction: extracted,
			Validation: validated,
			Enrichment: enriched,
			Fraud:      screening.Result.FraudScreening,
			Timestamps: timestamps,
		})
	})
	if err != nil {
		fatal(log, err, "")
		return log
	}
	if !routing.Result.Success {
		fail(log, model.StatusFailedAtRouting, routing)
		return log
	}

	record := routing.Result.Routing.Record
	if err := persist(p.store, log, record); err != nil {
		fatal(log, err, "")
		return log
	}
	log.Status = model.StatusComplete
	return log
}

// stage runs one agent unless the context is done, recording its start time and result
func (p *Pipeline) stage(ctx context.Context, log *model.OrchestrationLog, stage model.Stage, run func() model.StageResult) (model.StageResult, error) {
	if err := ctx.Err(); err != nil {
		return model.StageResult{}, fmt.Errorf("before %s: %w", stage, err)
	}
	log.StageTimestamps[stage] = p.now().UTC()
	res := run()
	log.Stages = append(log.Stages, res)
	return res, nil
}

// persist appends the record and attaches the stored copy to the log
func persist(store Recorder, log *model.OrchestrationLog, record model.ClaimRecord) error {
	id, err := store.Append(log.SubmitterID, record)
	if err != nil {
		return fmt.Errorf("store claim record: %w", err)
	}
	record.ClaimID = id
	record.SubmitterID = log.SubmitterID
	log.FinalRecord = &record
	return nil
}

func fail(log *model.OrchestrationLog, status model.Status, res model.StageResult) {
	log.Status = status
	log.Error = res.Result.Error
}

func warn(log *model.OrchestrationLog, logger *zap.Logger, msg string, res model.StageResult) {
	log.Warnings = append(log.Warnings, fmt.Sprintf("%s: %s", msg, res.Result.Error))
	logger.Warn(msg, zap.String("stage", string(res.Stage)), zap.String("error", res.Result.Error))
}

func fatal(log *model.OrchestrationLog, err error, stack string) {
	log.Status = model.StatusFatalError
	log.Error = err.Error()
	log.Stack = stack
}

func finish(log *model.OrchestrationLog, now time.Time, logger *zap.Logger) {
	log.EndTime = now.UTC()

	fields := []zap.Field{
		zap.String("status", string(log.Status)),
		zap.Duration("duration", log.Duration()),
	}
	if log.FinalRecord != nil {
		fields = append(fields, zap.String("claim_id", log.FinalRecord.ClaimID))
	}

	switch log.Status {
	case model.StatusComplete:
		logger.Info("Orchestration complete", fields...)
	case model.StatusFatalError:
		logger.Error("Orchestration aborted", append(fields, zap.String("error", log.Error))...)
	default:
		logger.Warn("Orchestration stopped", append(fields, zap.String("error", log.Error))...)
	}
}
