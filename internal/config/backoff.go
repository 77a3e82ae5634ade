package config

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// retryBaseDelay is the first wait between DoWithBackoff attempts.
	retryBaseDelay = 200 * time.Millisecond
	// retryJitter is the randomization factor applied to each wait.
	retryJitter = jitterFactor
)

// newRetryPolicy returns the exponential schedule used by DoWithBackoff:
// retryBaseDelay doubling up to maxBackoff, stopped after maxRetries
// retries (never when negative) or when ctx is done.
func newRetryPolicy(ctx context.Context, maxRetries int) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = retryBaseDelay
	exp.Multiplier = backoffFactor
	exp.RandomizationFactor = retryJitter
	exp.MaxInterval = maxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()

	var policy backoff.BackOff = exp
	if maxRetries >= 0 {
		policy = backoff.WithMaxRetries(policy, uint64(maxRetries))
	}
	return backoff.WithContext(policy, ctx)
}

// DoWithBackoff sends req, retrying transport errors and 5xx responses.
// maxRetries == 0 sends once; a negative value retries until ctx is done.
// Non-5xx responses are returned to the caller as is.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	var (
		resp     *http.Response
		lastErr  error
		attempts int
	)

	operation := func() error {
		attempts++
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			return err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			r.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", r.StatusCode)
			return lastErr
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, newRetryPolicy(ctx, maxRetries)); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		}
		return nil, fmt.Errorf("max retries exceeded after %d attempts: %w", attempts, lastErr)
	}
	return resp, nil
}
