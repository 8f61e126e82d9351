package providers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/ai-visibility/internal/llm"
)

// Result is the settled outcome of a bounded call. It always carries a usable
// Value: the call's result on success, the fallback otherwise.
type Result[T any] struct {
	Value    T
	Err      error
	TimedOut bool
}

// Settle runs fn under timeout and always resolves. On error or timeout the
// fallback is returned with the cause recorded. fn must honour its context; a
// late result after the deadline is discarded.
func Settle[T any](ctx context.Context, timeout time.Duration, fallback T, fn func(context.Context) (T, error)) Result[T] {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(callCtx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return Result[T]{Value: fallback, Err: o.err, TimedOut: errors.Is(o.err, context.DeadlineExceeded)}
		}
		return Result[T]{Value: o.v}
	case <-callCtx.Done():
		err := callCtx.Err()
		return Result[T]{Value: fallback, Err: err, TimedOut: errors.Is(err, context.DeadlineExceeded)}
	}
}

// CallerFunc is a provider call under the per-call contract: it never fails and
// yields "" when no answer could be obtained.
type CallerFunc func(ctx context.Context, prompt string) string

// Caller retries overloaded providers with exponential backoff and swallows
// every other failure.
type Caller struct {
	// Attempts is the total number of tries for overload errors.
	Attempts int
	// BaseDelay is the wait before the second try; it doubles per attempt.
	BaseDelay time.Duration
	Logger    zerolog.Logger
}

// Wrap returns the contract-conforming call for p.
func (c *Caller) Wrap(p Provider) CallerFunc {
	return func(ctx context.Context, prompt string) string {
		return c.call(ctx, p, prompt)
	}
}

func (c *Caller) call(ctx context.Context, p Provider, prompt string) string {
	attempts := max(c.Attempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := p.Call(ctx, prompt)
		if err == nil {
			return text
		}
		if !llm.IsOverloaded(err) || attempt == attempts-1 {
			c.Logger.Warn().Err(err).Str("provider", string(p.Name())).Int("attempt", attempt+1).Msg("provider call failed")
			return ""
		}

		delay := c.BaseDelay << attempt
		c.Logger.Debug().Str("provider", string(p.Name())).Dur("backoff", delay).Msg("provider overloaded, retrying")
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(delay):
		}
	}
	return ""
}
