// Package query retries reads of primary page content a bounded number of times.
// Mutations must not go through it.
package query

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const DefaultAttempts = 3

type config struct {
	initial time.Duration
	max     time.Duration
}

type Option func(*config)

// WithIntervals sets the first wait and the cap between attempts.
func WithIntervals(initial, ceiling time.Duration) Option {
	return func(c *config) {
		c.initial = initial
		c.max = ceiling
	}
}

// Do runs fn at most attempts times with exponential backoff between tries. Errors
// that Retryable rejects end the loop at once.
func Do[T any](ctx context.Context, attempts int, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	cfg := config{initial: 300 * time.Millisecond, max: 3 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.initial
	b.MaxInterval = cfg.max

	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(attempts)))
}

// Retryable reports whether a failed read is worth repeating: transport failures and
// 5xx answers are, rate limiting, auth, not-found and other 4xx answers are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gateway.ErrAuthenticationRequired) || errors.Is(err, gateway.ErrNotFound) {
		return false
	}
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		return false
	}

	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status >= http.StatusInternalServerError
	}
	var netErr *gateway.NetworkError
	return errors.As(err, &netErr)
}
