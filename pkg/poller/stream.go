package poller

import (
	"context"
	"sync/atomic"

	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

// Stream exposes one poll sequence as an externally cancellable pull-based
// handle. Polling only advances when the consumer pulls; discarding the
// handle leaves no background work running.
type Stream struct {
	taskID    string
	poller    *Poller
	cancelled atomic.Bool
}

// NewStream wraps a poller for a task
func NewStream(taskID string, p *Poller) *Stream {
	return &Stream{taskID: taskID, poller: p}
}

// TaskID returns the identifier of the task being observed
func (s *Stream) TaskID() string {
	return s.taskID
}

// Cancel marks the stream cancelled. It is idempotent; the flag is
// write-once. It takes effect on the next pull: a value already yielded is
// never invalidated.
func (s *Stream) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called
func (s *Stream) Cancelled() bool {
	return s.cancelled.Load()
}

// Next pulls the next status from the underlying poller. After Cancel it
// returns the stream-cancelled error instead of fetching.
func (s *Stream) Next(ctx context.Context) (*task.Status, error) {
	if s.cancelled.Load() {
		return nil, transport.NewError(transport.MessageStreamCancelled, 0)
	}
	return s.poller.Next(ctx)
}
