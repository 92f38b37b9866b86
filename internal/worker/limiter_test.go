package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different key should also work
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("anthropic") {
		t.Errorf("first request should pass")
	}

	// Burst 1, token is consumed
	if limiter.Allow("anthropic") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Different key should be allowed
	if !limiter.Allow("gemini") {
		t.Errorf("expected allow for other key")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 50; i++ {
		if !limiter.Allow("ollama") {
			t.Fatalf("request %d should pass with unlimited rate", i)
		}
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	limiter.Allow("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "slow"); err == nil {
		t.Errorf("expected wait to fail once the context expires")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default

	limiter.SetRate("slow.com", 0.1, 1) // very slow

	// First request passes (burst 1)
	if !limiter.Allow("slow.com") {
		t.Errorf("first request should pass")
	}

	// Second request fails
	if limiter.Allow("slow.com") {
		t.Errorf("second request should fail")
	}

	// Other key still fast
	if !limiter.Allow("fast.com") {
		t.Errorf("other key should pass")
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "http://example.com/policy.html"); err != nil {
		t.Fatalf("WaitURL failed: %v", err)
	}
	// Same host shares the bucket
	if limiter.Allow("example.com") {
		t.Errorf("expected host bucket to be exhausted")
	}

	if err := limiter.WaitURL(ctx, "::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if err := limiter.WaitURL(ctx, "relative/path"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://example.com/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}
}
