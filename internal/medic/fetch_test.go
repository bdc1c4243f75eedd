package medic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/sysmedic/internal/core/plan"
)

func TestFetchPollEmptyIsNoOp(t *testing.T) {
	f := NewFetch()

	_, ok := f.Poll()
	assert.False(t, ok)
	assert.False(t, f.InFlight())
}

func TestFetchResultConsumedExactlyOnce(t *testing.T) {
	f := NewFetch()

	err := f.Submit(context.Background(), func(context.Context) FetchResult {
		return FetchResult{Plan: &plan.Plan{Summary: "s"}, Raw: "raw"}
	})
	require.NoError(t, err)

	var res FetchResult
	require.Eventually(t, func() bool {
		r, ok := f.Poll()
		if ok {
			res = r
		}
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, res.Err)
	assert.Equal(t, "s", res.Plan.Summary)

	// Consumed; subsequent polls are empty.
	_, ok := f.Poll()
	assert.False(t, ok)
	assert.False(t, f.InFlight())
}

func TestFetchRejectsSecondSubmitWhileInFlight(t *testing.T) {
	f := NewFetch()
	release := make(chan struct{})

	require.NoError(t, f.Submit(context.Background(), func(context.Context) FetchResult {
		<-release
		return FetchResult{}
	}))

	err := f.Submit(context.Background(), func(context.Context) FetchResult {
		return FetchResult{}
	})
	require.ErrorIs(t, err, ErrFetchInFlight)

	close(release)
	require.Eventually(t, func() bool {
		_, ok := f.Poll()
		return ok
	}, time.Second, 5*time.Millisecond)

	// Slot free again after consumption.
	require.NoError(t, f.Submit(context.Background(), func(context.Context) FetchResult {
		return FetchResult{Err: errors.New("x")}
	}))
}

func TestFetchWorkerPanicIsHardFailure(t *testing.T) {
	f := NewFetch()

	require.NoError(t, f.Submit(context.Background(), func(context.Context) FetchResult {
		panic("boom")
	}))

	var res FetchResult
	require.Eventually(t, func() bool {
		r, ok := f.Poll()
		if ok {
			res = r
		}
		return ok
	}, time.Second, 5*time.Millisecond)

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "without a result")
}
