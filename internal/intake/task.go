package intake

import (
	"context"
	"sync"

	"github.com/ppiankov/claimflow/internal/model"
)

// Task is one detached submission run
type Task struct {
	id   string
	done chan struct{}
	errc chan error

	mu  sync.Mutex
	log *model.OrchestrationLog
	err error
}

func newTask(id string, pending *model.OrchestrationLog) *Task {
	return &Task{
		id:   id,
		done: make(chan struct{}),
		errc: make(chan error, 1),
		log:  pending,
	}
}

// ID returns the submission id
func (t *Task) ID() string {
	return t.id
}

// Done is closed when the run has reached a terminal status
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err delivers the run's error, if any, and is closed when the run ends
func (t *Task) Err() <-chan error {
	return t.errc
}

// Log returns the orchestration log: a PROCESSING placeholder until the run ends
func (t *Task) Log() *model.OrchestrationLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log
}

// Wait blocks until the run ends or ctx is done
func (t *Task) Wait(ctx context.Context) (*model.OrchestrationLog, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.log, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// finish records the outcome exactly once
func (t *Task) finish(log *model.OrchestrationLog, err error) {
	t.mu.Lock()
	t.log = log
	t.err = err
	t.mu.Unlock()

	if err != nil {
		t.errc <- err
	}
	close(t.errc)
	close(t.done)
}
