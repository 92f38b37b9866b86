package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/agent"
	"github.com/ppiankov/claimflow/internal/knowledge"
	"github.com/ppiankov/claimflow/internal/llm"
	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/pipeline"
	"github.com/ppiankov/claimflow/internal/store"
	"github.com/ppiankov/claimflow/internal/tools"
	"github.com/ppiankov/claimflow/internal/worker"
)

// runner is implemented by both orchestrators
type runner interface {
	Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) *model.OrchestrationLog
}

// engine is the wired set of components shared by every command
type engine struct {
	cfg       model.Config
	logger    *zap.Logger
	registry  *tools.Registry
	knowledge *knowledge.Index
	store     *store.Store
	runner    runner
}

// newLogger builds the configured logger
func newLogger(cfg model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// newKnowledge builds the reference index; it is empty until rebuilt
func newKnowledge(cfg model.Config, logger *zap.Logger) *knowledge.Index {
	var fetcher *knowledge.Fetcher
	if len(cfg.Knowledge.URLs) > 0 {
		fetcher = knowledge.NewFetcher(cfg.HTTP, cfg.Knowledge)
	}
	return knowledge.NewIndex(cfg.Knowledge, fetcher, logger.Named("knowledge"))
}

// newEngine wires the tools, oracle, knowledge index, store and orchestrator
func newEngine(ctx context.Context, cfg model.Config, logger *zap.Logger) (*engine, error) {
	// 1. Tools
	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry, cfg.Scoring, time.Now); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	registry.Seal()

	// 2. Oracle
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			return nil, fmt.Errorf("no LLM provider configured (set llm.provider or CLAIMFLOW_LLM_PROVIDER): %w", err)
		}
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	oracle := llm.NewOracle(provider,
		llm.WithLimiter(worker.NewLimiter(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)),
		llm.WithTimeout(time.Duration(cfg.LLM.Timeout)*time.Second),
		llm.WithLogger(logger.Named("oracle")),
	)

	// 3. Knowledge
	index := newKnowledge(cfg, logger)
	if _, err := index.Rebuild(ctx); err != nil {
		logger.Warn("Knowledge index unavailable, enrichment runs without reference material", zap.Error(err))
	}

	// 4. Store
	results := store.New(cfg.Store.Path, logger.Named("store"))

	// 5. Orchestrator
	var run runner
	switch cfg.Pipeline.Mode {
	case model.ModeDynamic:
		run = pipeline.NewPlanner(registry, oracle, index, results, cfg.Pipeline.PlannerMaxSteps,
			pipeline.WithLogger(logger.Named("planner")))
	default:
		agents := agent.NewSet(agent.Deps{
			Registry:  registry,
			Oracle:    oracle,
			Knowledge: index,
			Scoring:   cfg.Scoring,
			Pipeline:  cfg.Pipeline,
			Logger:    logger.Named("agent"),
		})
		run = pipeline.New(agents, results, pipeline.WithLogger(logger.Named("pipeline")))
	}

	logger.Debug("Engine ready",
		zap.String("mode", string(cfg.Pipeline.Mode)),
		zap.String("provider", provider.Name()),
		zap.String("model", cfg.LLM.Model),
		zap.Int("tools", len(registry.Names())),
		zap.Int("knowledge_chunks", index.Chunks()),
		zap.String("store", results.Path()))

	return &engine{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		knowledge: index,
		store:     results,
		runner:    run,
	}, nil
}
