package completion

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const retryBaseDelay = 500 * time.Millisecond

// retryClient wraps a Client with bounded retry on retryable failures.
// Non-retryable failures surface immediately.
type retryClient struct {
	inner      Client
	maxRetries int
}

// WithRetry wraps client so transient provider failures are retried up to
// maxRetries times with linear backoff.
func WithRetry(client Client, maxRetries int) Client {
	return &retryClient{
		inner:      client,
		maxRetries: maxRetries,
	}
}

func (c *retryClient) Provider() string {
	return c.inner.Provider()
}

func (c *retryClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(attempt)
			log.Warn().
				Str("provider", c.inner.Provider()).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying completion call")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.inner.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			return nil, err
		}
	}

	return nil, lastErr
}
