package poller_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforceai/taskforce-go/pkg/poller"
	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

// scriptedFetch yields a fixed sequence of statuses, repeating the last one
// once the script runs out
func scriptedFetch(states ...*task.Status) (poller.FetchFunc, *int) {
	calls := new(int)
	return func(ctx context.Context) (*task.Status, error) {
		*calls++
		idx := *calls - 1
		if idx >= len(states) {
			idx = len(states) - 1
		}
		return states[idx], nil
	}, calls
}

func fastOptions() poller.Options {
	return poller.Options{Interval: time.Millisecond, MaxAttempts: 10}
}

func TestPoller_TerminatesOnCompleted(t *testing.T) {
	fetch, calls := scriptedFetch(
		&task.Status{TaskID: "t1", State: task.StateProcessing},
		&task.Status{TaskID: "t1", State: task.StateCompleted, Result: "done"},
	)

	var observed []task.State
	opts := fastOptions()
	opts.OnStatus = func(status *task.Status) {
		observed = append(observed, status.State)
	}
	p := poller.New(fetch, opts)

	first, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.StateProcessing, first.State)

	second, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.StateCompleted, second.State)
	assert.Equal(t, "done", second.Result)

	// Sequence ends right after the terminal status, no further fetch
	_, err = p.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, *calls)

	// Observer fired once per fetch, in order, before each yield
	assert.Equal(t, []task.State{task.StateProcessing, task.StateCompleted}, observed)
}

func TestPoller_TerminatesOnFailed(t *testing.T) {
	fetch, calls := scriptedFetch(
		&task.Status{TaskID: "t1", State: task.StateFailed, Error: "boom"},
	)
	p := poller.New(fetch, fastOptions())

	status, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.StateFailed, status.State)

	_, err = p.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, *calls)
}

func TestPoller_DeadlineAfterMaxAttempts(t *testing.T) {
	fetch, calls := scriptedFetch(&task.Status{TaskID: "t1", State: task.StateProcessing})
	p := poller.New(fetch, poller.Options{Interval: time.Millisecond, MaxAttempts: 3})

	for i := 0; i < 3; i++ {
		status, err := p.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.StateProcessing, status.State)
	}

	_, err := p.Next(context.Background())
	require.Error(t, err)
	te, ok := transport.AsError(err)
	require.True(t, ok)
	assert.Equal(t, transport.MessagePollDeadline, te.Message)

	// Exactly MaxAttempts fetches, the deadline never interrupts one
	assert.Equal(t, 3, *calls)

	// The failure is sticky
	_, err = p.Next(context.Background())
	assert.Equal(t, transport.MessagePollDeadline, err.(*transport.Error).Message)
}

func TestPoller_CancelledBeforeFetch(t *testing.T) {
	fetch, calls := scriptedFetch(&task.Status{TaskID: "t1", State: task.StateProcessing})
	p := poller.New(fetch, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Next(ctx)
	require.Error(t, err)
	te, ok := transport.AsError(err)
	require.True(t, ok)
	assert.Equal(t, transport.MessagePollingCancelled, te.Message)
	assert.ErrorIs(t, err, context.Canceled)

	// No fetch is attempted once cancellation is observed
	assert.Equal(t, 0, *calls)
}

func TestPoller_FetchErrorPropagates(t *testing.T) {
	wantErr := transport.NewError("upstream down", 502)
	p := poller.New(func(ctx context.Context) (*task.Status, error) {
		return nil, wantErr
	}, fastOptions())

	_, err := p.Next(context.Background())
	assert.Equal(t, wantErr, err)

	_, err = p.Next(context.Background())
	assert.Equal(t, wantErr, err)
}

func TestPoller_DefaultOptions(t *testing.T) {
	fetch, _ := scriptedFetch(&task.Status{State: task.StateCompleted, Result: "r"})
	p := poller.New(fetch, poller.Options{})

	// First fetch happens immediately even with the default 2s interval
	start := time.Now()
	_, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
