package poller_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforceai/taskforce-go/pkg/poller"
	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

func TestStream_TaskID(t *testing.T) {
	fetch, _ := scriptedFetch(&task.Status{State: task.StateProcessing})
	s := poller.NewStream("task-9", poller.New(fetch, fastOptions()))
	assert.Equal(t, "task-9", s.TaskID())
}

func TestStream_CancelStopsNextPull(t *testing.T) {
	// The fetch would return a terminal status, but a cancelled stream must
	// not reach it
	fetch, calls := scriptedFetch(&task.Status{State: task.StateCompleted, Result: "done"})
	s := poller.NewStream("task-9", poller.New(fetch, fastOptions()))

	s.Cancel()
	_, err := s.Next(context.Background())
	require.Error(t, err)
	te, ok := transport.AsError(err)
	require.True(t, ok)
	assert.Equal(t, transport.MessageStreamCancelled, te.Message)
	assert.Equal(t, 0, *calls)
}

func TestStream_CancelIsIdempotent(t *testing.T) {
	fetch, _ := scriptedFetch(&task.Status{State: task.StateProcessing})
	s := poller.NewStream("task-9", poller.New(fetch, fastOptions()))

	s.Cancel()
	s.Cancel()
	assert.True(t, s.Cancelled())

	_, err := s.Next(context.Background())
	assert.Equal(t, transport.MessageStreamCancelled, err.(*transport.Error).Message)
}

func TestStream_YieldedValueSurvivesCancel(t *testing.T) {
	fetch, _ := scriptedFetch(
		&task.Status{State: task.StateProcessing},
		&task.Status{State: task.StateCompleted, Result: "done"},
	)
	s := poller.NewStream("task-9", poller.New(fetch, poller.Options{Interval: time.Millisecond, MaxAttempts: 5}))

	status, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.StateProcessing, status.State)

	// Cancel takes effect on the next pull only
	s.Cancel()
	_, err = s.Next(context.Background())
	assert.Equal(t, transport.MessageStreamCancelled, err.(*transport.Error).Message)
}
