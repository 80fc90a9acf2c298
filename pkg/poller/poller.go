// Package poller drives repeated task-status fetches as an explicit
// pull-based state machine. Each Next call advances the machine by at most
// one fetch; nothing runs in the background between pulls.
package poller

import (
	"context"
	"io"
	"time"

	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

const (
	// DefaultInterval is the default delay between status fetches
	DefaultInterval = 2 * time.Second

	// DefaultMaxAttempts is the default fetch budget for one poll sequence
	DefaultMaxAttempts = 150
)

// FetchFunc performs one status lookup
type FetchFunc func(ctx context.Context) (*task.Status, error)

// Options configures one poll sequence
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	OnStatus    task.StatusCallback
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

type pollState int

const (
	stateIdle pollState = iota
	statePolling
	stateDone
)

// Poller yields task statuses in strict fetch order, one fetch per Next
// call, until a terminal status, an error, a cancellation, or the attempt
// budget ends the sequence. It is not restartable and not safe for
// concurrent pulls.
type Poller struct {
	fetch    FetchFunc
	opts     Options
	state    pollState
	attempts int
	finalErr error
}

// New creates a Poller over a fetch function
func New(fetch FetchFunc, opts Options) *Poller {
	return &Poller{
		fetch: fetch,
		opts:  opts.withDefaults(),
	}
}

// Next advances the sequence by one fetch and returns the observed status.
// After a terminal status has been yielded, Next returns io.EOF. After any
// error, Next keeps returning that error.
func (p *Poller) Next(ctx context.Context) (*task.Status, error) {
	if p.state == stateDone {
		return nil, p.finalErr
	}

	if p.attempts >= p.opts.MaxAttempts {
		return nil, p.fail(transport.NewError(transport.MessagePollDeadline, 0))
	}

	// Interval sleep between fetches; the first fetch happens immediately
	if p.state == statePolling {
		select {
		case <-ctx.Done():
			return nil, p.fail(transport.WrapError(transport.MessagePollingCancelled, 0, ctx.Err()))
		case <-time.After(p.opts.Interval):
		}
	}
	p.state = statePolling

	// Cancellation is checked before each fetch, never during one
	if err := ctx.Err(); err != nil {
		return nil, p.fail(transport.WrapError(transport.MessagePollingCancelled, 0, err))
	}

	status, err := p.fetch(ctx)
	if err != nil {
		p.fail(err)
		return nil, err
	}
	p.attempts++

	if p.opts.OnStatus != nil {
		p.opts.OnStatus(status)
	}

	if status.State.Terminal() {
		p.fail(io.EOF)
	}
	return status, nil
}

// Attempts returns the number of completed fetches so far
func (p *Poller) Attempts() int {
	return p.attempts
}

func (p *Poller) fail(err error) error {
	p.state = stateDone
	p.finalErr = err
	return err
}
