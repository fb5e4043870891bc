// Package retry runs an operation until it succeeds, the attempt budget is
// spent, or the context ends, sleeping between attempts per a Backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Func defines a retryable function.
// The function must respect the provided context.
type Func func(ctx context.Context) error

// RetryIf determines whether an error should trigger a retry.
type RetryIf func(error) bool

// OnRetry is called after a failed attempt that will be retried.
// attempt is 1-based; wait is the pause before the next attempt.
type OnRetry func(attempt int, err error, wait time.Duration)

// Backoff defines how long to wait after the given failed attempt (1-based).
type Backoff interface {
	Next(attempt int) time.Duration
}

type fixedBackoff struct {
	interval time.Duration
}

func (b fixedBackoff) Next(int) time.Duration {
	return b.interval
}

// Fixed returns a fixed backoff strategy.
func Fixed(interval time.Duration) Backoff {
	return fixedBackoff{interval: interval}
}

type linearBackoff struct {
	base time.Duration
	max  time.Duration
}

func (b linearBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.base * time.Duration(attempt)
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

// Linear waits base × attempt after each failure.
func Linear(base time.Duration, max ...time.Duration) Backoff {
	var m time.Duration
	if len(max) > 0 {
		m = max[0]
	}
	return linearBackoff{base: base, max: m}
}

type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

func (b exponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.base * time.Duration(1<<(attempt-1))
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

// Exponential waits base × 2^(attempt-1) after each failure.
func Exponential(base time.Duration, max ...time.Duration) Backoff {
	var m time.Duration
	if len(max) > 0 {
		m = max[0]
	}
	return exponentialBackoff{base: base, max: m}
}

// Jitter modifies the backoff duration.
type Jitter func(time.Duration) time.Duration

// NoJitter applies no jitter.
func NoJitter(d time.Duration) time.Duration {
	return d
}

// FullJitter returns a random duration in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

type config struct {
	maxAttempts int
	backoff     Backoff
	jitter      Jitter
	retryIf     RetryIf
	onRetry     OnRetry
}

func defaultConfig() *config {
	return &config{
		maxAttempts: 3,
		backoff:     Fixed(time.Second),
		jitter:      NoJitter,
		retryIf:     IsRetryableError,
	}
}

// Option configures retry behavior.
type Option func(*config)

// WithMaxAttempts sets the maximum number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the backoff strategy.
func WithBackoff(b Backoff) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithJitter sets the jitter strategy.
func WithJitter(j Jitter) Option {
	return func(c *config) {
		if j != nil {
			c.jitter = j
		}
	}
}

// WithRetryIf sets the retry condition.
func WithRetryIf(fn RetryIf) Option {
	return func(c *config) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// WithOnRetry registers a hook invoked before each backoff sleep.
func WithOnRetry(fn OnRetry) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Do executes fn with retry logic and returns the last error.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !cfg.retryIf(err) || attempt == cfg.maxAttempts {
			break
		}

		wait := cfg.jitter(cfg.backoff.Next(attempt))
		if cfg.onRetry != nil {
			cfg.onRetry(attempt, err, wait)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			}
		}
	}

	return unwrapPermanent(lastErr)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

// IsRetryableError retries everything except context errors and errors
// marked Permanent.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
