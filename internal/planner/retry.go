package planner

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/colonyops/sysmedic/internal/core/logging"
)

const (
	retryAttempts = 3
	retryInterval = time.Second
)

// withRetry reissues the call on connection and timeout class failures.
// Responses the service actually produced, even error statuses, are
// permanent: retrying a 401 or a 400 yields the same answer.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	log := logging.Component("planner")

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newRetryBackoff(), retryAttempts-1),
		ctx,
	)

	var out T
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		v, err := fn()
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("transient planning service failure")
			return err
		}

		out = v
		return nil
	}, policy)

	return out, err
}

func newRetryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return b
}

// isPermanent reports whether the error came back as an API status
// rather than a transport failure.
func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// RequestError carries an HTTP status the service produced.
		return reqErr.HTTPStatusCode != 0
	}
	return false
}
