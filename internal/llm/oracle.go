package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/worker"
)

// Oracle consults a provider and decodes its reply into a typed decision.
// Every call is rate limited per provider and bounded by a timeout.
type Oracle struct {
	provider Provider
	limiter  *worker.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// OracleOption configures an Oracle
type OracleOption func(*Oracle)

// WithLimiter sets the rate limiter shared by oracle calls
func WithLimiter(l *worker.Limiter) OracleOption {
	return func(o *Oracle) { o.limiter = l }
}

// WithTimeout bounds each consultation
func WithTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) { o.timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) OracleOption {
	return func(o *Oracle) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOracle wraps a provider
func NewOracle(provider Provider, opts ...OracleOption) *Oracle {
	o := &Oracle{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the provider name
func (o *Oracle) Name() string {
	return o.provider.Name()
}

// Consult sends prompt on behalf of caller and decodes the reply into out.
// Decoding failures wrap ErrOracleDecode; nothing is retried or repaired.
func (o *Oracle) Consult(ctx context.Context, caller, prompt string, out Decision) error {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, o.provider.Name()); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.provider.Complete(ctx, CompletionRequest{Caller: caller, Prompt: prompt})
	if err != nil {
		o.logger.Warn("Oracle call failed",
			zap.String("caller", caller),
			zap.String("provider", o.provider.Name()),
			zap.Error(err))
		return fmt.Errorf("consult %s: %w", caller, err)
	}

	o.logger.Debug("Oracle replied",
		zap.String("caller", caller),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", time.Since(start)))

	if err := Decode(resp.Text, out); err != nil {
		o.logger.Warn("Oracle reply rejected",
			zap.String("caller", caller),
			zap.Error(err))
		return fmt.Errorf("consult %s: %w", caller, err)
	}
	return nil
}
