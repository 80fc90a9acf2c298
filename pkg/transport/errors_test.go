package transport_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/taskforceai/taskforce-go/pkg/transport"
)

func TestError_Message(t *testing.T) {
	err := transport.NewError("Not found", 404)
	assert.Equal(t, "Not found (HTTP 404)", err.Error())
	assert.Equal(t, 404, err.StatusCode)

	plain := transport.NewError(transport.MessageRequestTimeout, 0)
	assert.Equal(t, "request timeout", plain.Error())
}

func TestError_Unwrap(t *testing.T) {
	err := transport.WrapError(transport.MessageRequestTimeout, 0, context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsError_ThroughWrapping(t *testing.T) {
	inner := transport.NewError("upstream down", 502)
	wrapped := errors.Wrap(inner, "fetch status")

	te, ok := transport.AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "upstream down", te.Message)
	assert.Equal(t, 502, te.StatusCode)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, transport.IsTimeout(transport.NewError(transport.MessageRequestTimeout, 0)))
	assert.False(t, transport.IsTimeout(transport.NewError("network error: refused", 0)))
	assert.False(t, transport.IsTimeout(errors.New("request timeout")))
}
