package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskforceai/taskforce-go/pkg/transport"
)

// Thread is a backend conversation record
type Thread struct {
	ThreadID  string          `json:"threadId"`
	Title     string          `json:"title,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Messages  []ThreadMessage `json:"messages,omitempty"`
}

// ThreadMessage is one message inside a thread
type ThreadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type threadListResponse struct {
	Threads []Thread `json:"threads"`
}

// CreateThread creates a conversation thread
func (c *Client) CreateThread(ctx context.Context, title string) (*Thread, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var thread Thread
	err := c.exec.Execute(ctx, "/threads", transport.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"title": title},
	}, false, c.maxRetries, &thread)
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// GetThread fetches a thread by ID
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}
	var thread Thread
	err := c.exec.Execute(ctx, "/threads/"+url.PathEscape(threadID), transport.RequestOptions{
		Method: http.MethodGet,
	}, true, c.maxRetries, &thread)
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// ListThreads lists all threads
func (c *Client) ListThreads(ctx context.Context) ([]Thread, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var resp threadListResponse
	err := c.exec.Execute(ctx, "/threads", transport.RequestOptions{
		Method: http.MethodGet,
	}, true, c.maxRetries, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

// AddThreadMessage appends a message to a thread
func (c *Client) AddThreadMessage(ctx context.Context, threadID string, message ThreadMessage) (*Thread, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}
	var thread Thread
	err := c.exec.Execute(ctx, "/threads/"+url.PathEscape(threadID)+"/messages", transport.RequestOptions{
		Method: http.MethodPost,
		Body:   message,
	}, false, c.maxRetries, &thread)
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread deletes a thread by ID
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	if err := validateThreadID(threadID); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	return c.exec.Execute(ctx, "/threads/"+url.PathEscape(threadID), transport.RequestOptions{
		Method: http.MethodDelete,
	}, false, c.maxRetries, nil)
}

func validateThreadID(threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return transport.NewError("thread id must not be empty", 0)
	}
	return nil
}
