package medic

import (
	"context"
	"fmt"
	"sync"

	"github.com/colonyops/sysmedic/internal/core/logging"
	"github.com/colonyops/sysmedic/internal/core/plan"
)

// ErrFetchInFlight is returned when a plan request is submitted while
// another is still outstanding.
var ErrFetchInFlight = fmt.Errorf("a plan request is already running")

// FetchResult is the outcome of one background planning request. Raw
// carries the unparsed response text even when Err is set, so failed
// responses can still be inspected.
type FetchResult struct {
	Plan *plan.Plan
	Raw  string
	Err  error
}

// Fetch runs at most one planning request on a background goroutine and
// hands the outcome across a single-item channel. The control loop polls
// it each tick; a result is consumed exactly once. The worker never
// touches shared state beyond the channel.
type Fetch struct {
	mu       sync.Mutex
	results  chan FetchResult
	inFlight bool
}

func NewFetch() *Fetch {
	return &Fetch{}
}

// Submit dispatches fn on a background goroutine. It fails with
// ErrFetchInFlight if a prior request has not been polled off yet.
func (f *Fetch) Submit(ctx context.Context, fn func(ctx context.Context) FetchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return ErrFetchInFlight
	}

	ch := make(chan FetchResult, 1)
	f.results = ch
	f.inFlight = true

	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				log := logging.Component("fetch")
				log.Error().Any("panic", r).Msg("plan request worker panicked")
			}
		}()
		ch <- fn(ctx)
	}()

	return nil
}

// Poll performs a non-blocking check for a finished request. The second
// return is false when nothing has completed. A channel closed without a
// result is reported as a hard failure of that request.
func (f *Fetch) Poll() (FetchResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inFlight {
		return FetchResult{}, false
	}

	select {
	case res, open := <-f.results:
		f.inFlight = false
		f.results = nil
		if !open {
			return FetchResult{Err: fmt.Errorf("plan request worker exited without a result")}, true
		}
		return res, true
	default:
		return FetchResult{}, false
	}
}

// InFlight reports whether a request is outstanding.
func (f *Fetch) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}
