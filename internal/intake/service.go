// Package intake accepts claim submissions and runs each one as a detached
// task. Submit returns at once with a submission id; the outcome is read
// from the task or, while it is cached, from the run-log registry.
package intake

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ppiankov/claimflow/internal/cache"
	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
)

// ErrClosed is returned by Submit after Shutdown has started
var ErrClosed = errors.New("intake service is shut down")

// Runner processes one submission to a terminal log
type Runner interface {
	Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) *model.OrchestrationLog
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMode sets the mode reported by placeholder logs
func WithMode(mode model.Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithIDGenerator replaces the uuid submission ids
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// Service runs submissions in the background
type Service struct {
	runner     Runner
	sem        *semaphore.Weighted // nil when unbounded
	runs       cache.Cache[*Task]
	runTimeout time.Duration
	mode       model.Mode
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	active atomic.Int64
}

// New creates the submission service
func New(runner Runner, cfg model.ServerConfig, opts ...Option) *Service {
	ttl := cfg.RunLogTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		runner:     runner,
		runs:       cache.NewMemoryCache[*Task](ttl, ttl),
		runTimeout: cfg.RunTimeout,
		mode:       model.ModeFixed,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.MaxInFlight > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts a detached run and returns its task immediately
func (s *Service) Submit(sub model.ClaimSubmission) (*Task, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.wg.Add(1)
	s.active.Add(1)
	s.mu.Unlock()

	id := s.newID()
	task := newTask(id, model.NewOrchestrationLog(id, sub, s.mode, s.now().UTC()))
	if err := s.runs.Set(id, task, 0); err != nil {
		s.active.Add(-1)
		s.wg.Done()
		return nil, fmt.Errorf("register submission %s: %w", id, err)
	}

	logger := logging.ForSubmission(s.logger, id, sub.SubmitterID())
	logger.Info("Submission accepted")

	go s.run(task, sub, logger)
	return task, nil
}

// Task returns a cached task by submission id
func (s *Service) Task(id string) (*Task, bool) {
	return s.runs.Get(id)
}

// InFlight returns the number of submitted runs that have not finished
func (s *Service) InFlight() int {
	return int(s.active.Load())
}

// Shutdown stops accepting submissions and waits for running ones. When ctx
// ends first, running pipelines are canceled and abort at the next stage.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached, canceling running submissions")
		s.cancel()
		<-finished
		return ctx.Err()
	}
}

func (s *Service) run(task *Task, sub model.ClaimSubmission, logger *zap.Logger) {
	defer s.wg.Done()
	defer s.active.Add(-1)

	var log *model.OrchestrationLog
	defer func() {
		if r := recover(); r != nil {
			log = s.aborted(task, sub, fmt.Errorf("panic: %v", r))
			log.Stack = string(debug.Stack())
		}
		err := runError(log)
		if err != nil {
			logger.Warn("Submission did not complete", zap.Error(err))
		}
		task.finish(log, err)
	}()

	ctx := logging.WithContext(s.ctx, logger)
	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			log = s.aborted(task, sub, fmt.Errorf("wait for run slot: %w", err))
			return
		}
		defer s.sem.Release(1)
	}
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	log = s.runner.Run(ctx, task.ID(), sub)
	if log == nil {
		log = s.aborted(task, sub, errors.New("orchestrator returned no log"))
	}
}

// aborted builds a FATAL_ERROR log for a run that never produced one
func (s *Service) aborted(task *Task, sub model.ClaimSubmission, err error) *model.OrchestrationLog {
	start := s.now().UTC()
	if pending := task.Log(); pending != nil {
		start = pending.StartTime
	}
	log := model.NewOrchestrationLog(task.ID(), sub, s.mode, start)
	log.Status = model.StatusFatalError
	log.Error = err.Error()
	log.EndTime = s.now().UTC()
	return log
}

// runError turns a non-complete run into an error
func runError(log *model.OrchestrationLog) error {
	if log.Status == model.StatusComplete {
		return nil
	}
	if log.Error == "" {
		return errors.New(string(log.Status))
	}
	return fmt.Errorf("%s: %s", log.Status, log.Error)
}
