package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/worker"
)

// stubProvider replies with canned text and records requests
type stubProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	requests []CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResponse{Text: s.reply, Model: "stub-1"}, nil
}

func TestOracle_Consult(t *testing.T) {
	provider := &stubProvider{reply: `{"isValid": false, "validationScore": 20}`}
	oracle := NewOracle(provider, WithLimiter(worker.NewLimiter(100, 10)))

	var v verdict
	require.NoError(t, oracle.Consult(context.Background(), "ValidationAgent", "check this", &v))
	assert.False(t, *v.Valid)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "ValidationAgent", provider.requests[0].Caller)
	assert.Equal(t, "check this", provider.requests[0].Prompt)
	assert.Equal(t, "stub", oracle.Name())
}

func TestOracle_ConsultDecodeError(t *testing.T) {
	oracle := NewOracle(&stubProvider{reply: "not json at all"})

	var v verdict
	err := oracle.Consult(context.Background(), "ValidationAgent", "check", &v)
	assert.ErrorIs(t, err, ErrOracleDecode)
}

func TestOracle_ConsultTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	oracle := NewOracle(&stubProvider{err: boom})

	var v verdict
	err := oracle.Consult(context.Background(), "RoutingAgent", "route", &v)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrOracleDecode)
}

func TestOracle_ConsultTimeout(t *testing.T) {
	oracle := NewOracle(&stubProvider{reply: "{}", delay: time.Second}, WithTimeout(20*time.Millisecond))

	var v verdict
	err := oracle.Consult(context.Background(), "ExtractionAgent", "slow", &v)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOracle_ConsultCancelledWhileRateLimited(t *testing.T) {
	limiter := worker.NewLimiter(0.01, 1)
	limiter.Allow("stub")
	oracle := NewOracle(&stubProvider{reply: "{}"}, WithLimiter(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var v verdict
	assert.Error(t, oracle.Consult(ctx, "FraudScreeningAgent", "wait", &v))
}
