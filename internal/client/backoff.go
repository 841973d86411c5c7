package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff configures reconnect delays: exponential growth from Initial,
// capped around Max, randomized by half in either direction. Retries is the
// number of reconnect attempts after a failure; zero disables reconnecting.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Retries int
}

// DefaultBackoff is used when no policy is configured.
var DefaultBackoff = Backoff{
	Initial: 500 * time.Millisecond,
	Max:     30 * time.Second,
	Retries: 5,
}

const (
	backoffMultiplier    = 2
	backoffRandomization = 0.5
)

// policy returns a fresh retry schedule. NextBackOff yields backoff.Stop once
// Retries delays have been handed out or ctx is done.
func (b Backoff) policy(ctx context.Context) backoff.BackOffContext {
	initial := b.Initial
	if initial <= 0 {
		initial = DefaultBackoff.Initial
	}
	maxInterval := b.Max
	if maxInterval < initial {
		maxInterval = initial
	}
	retries := b.Retries
	if retries < 0 {
		retries = 0
	}
	eb := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initial),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMultiplier(backoffMultiplier),
		backoff.WithRandomizationFactor(backoffRandomization),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
