package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/taskforceai/taskforce-go/pkg/poller"
	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

type submitResponse struct {
	TaskID string `json:"taskId"`
}

// SubmitTask submits a prompt for asynchronous processing and returns the
// server-assigned task identifier. The call is not retried.
func (c *Client) SubmitTask(ctx context.Context, prompt string, opts *task.SubmitOptions) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", transport.NewError("prompt must not be empty", 0)
	}
	if err := c.ready(); err != nil {
		return "", err
	}

	var resp submitResponse
	err := c.exec.Execute(ctx, "/run", transport.RequestOptions{
		Method: http.MethodPost,
		Body:   buildSubmitBody(prompt, opts),
	}, false, c.maxRetries, &resp)
	if err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", errors.New("server response missing task id")
	}
	return resp.TaskID, nil
}

// buildSubmitBody assembles the submission envelope. The options object
// always carries silent and mock; vercelAiKey is promoted to the top level
// whether it arrives as the struct field or as an Extra key.
func buildSubmitBody(prompt string, opts *task.SubmitOptions) map[string]any {
	if opts == nil {
		opts = &task.SubmitOptions{}
	}

	options := make(map[string]any, len(opts.Extra)+2)
	for key, value := range opts.Extra {
		options[key] = value
	}
	options["silent"] = opts.Silent
	options["mock"] = opts.Mock

	vercelAIKey := opts.VercelAIKey
	if raw, ok := options["vercelAiKey"]; ok {
		delete(options, "vercelAiKey")
		if vercelAIKey == "" {
			if s, ok := raw.(string); ok {
				vercelAIKey = s
			}
		}
	}

	body := map[string]any{
		"prompt":  prompt,
		"options": options,
	}
	if vercelAIKey != "" {
		body["vercelAiKey"] = vercelAIKey
	}
	return body
}

// GetTaskStatus fetches the current status of a task. The call is retried
// on transient failures.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*task.Status, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	var status task.Status
	err := c.exec.Execute(ctx, "/status/"+url.PathEscape(taskID), transport.RequestOptions{
		Method: http.MethodGet,
	}, true, c.maxRetries, &status)
	if err != nil {
		return nil, err
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return &status, nil
}

// GetTaskResult fetches the final result of a task. The call is not
// retried. A backend-reported failure surfaces as an error carrying the
// backend's message.
func (c *Client) GetTaskResult(ctx context.Context, taskID string) (*task.Result, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	var status task.Status
	err := c.exec.Execute(ctx, "/results/"+url.PathEscape(taskID), transport.RequestOptions{
		Method: http.MethodGet,
	}, false, c.maxRetries, &status)
	if err != nil {
		return nil, err
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return narrowResult(&status)
}

// StreamTaskStatus returns a cancellable pull-based status stream for a
// task. The identifier is validated before any polling begins; each Next
// pull advances the underlying poller by at most one fetch.
func (c *Client) StreamTaskStatus(taskID string, opts *poller.Options) (*poller.Stream, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	var pollOpts poller.Options
	if opts != nil {
		pollOpts = *opts
	}
	fetch := func(ctx context.Context) (*task.Status, error) {
		return c.GetTaskStatus(ctx, taskID)
	}
	return poller.NewStream(taskID, poller.New(fetch, pollOpts)), nil
}

// WaitForCompletion polls a task until it reaches a terminal state and
// returns the completed result. A backend-reported failure surfaces as an
// error with the backend's message or the default failure literal; poller
// failures propagate unchanged.
func (c *Client) WaitForCompletion(ctx context.Context, taskID string, opts *poller.Options) (*task.Result, error) {
	stream, err := c.StreamTaskStatus(taskID, opts)
	if err != nil {
		return nil, err
	}

	for {
		status, err := stream.Next(ctx)
		if err == io.EOF {
			// Terminal status lacked a usable result
			return nil, transport.NewError(transport.MessagePollDeadline, 0)
		}
		if err != nil {
			return nil, err
		}
		if status.State.Terminal() {
			return narrowResult(status)
		}
	}
}

// RunTask submits a prompt and blocks until the task completes
func (c *Client) RunTask(ctx context.Context, prompt string, opts *task.SubmitOptions, pollOpts *poller.Options) (*task.Result, error) {
	taskID, err := c.SubmitTask(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return c.WaitForCompletion(ctx, taskID, pollOpts)
}

// RunTaskStream submits a prompt and returns a status stream for the new task
func (c *Client) RunTaskStream(ctx context.Context, prompt string, opts *task.SubmitOptions, pollOpts *poller.Options) (*poller.Stream, error) {
	taskID, err := c.SubmitTask(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return c.StreamTaskStatus(taskID, pollOpts)
}

// narrowResult refines a terminal status to the completed case
func narrowResult(status *task.Status) (*task.Result, error) {
	if status.IsFailed() {
		message := status.Error
		if message == "" {
			message = transport.MessageTaskFailed
		}
		return nil, transport.NewError(message, 0)
	}
	if status.IsCompleted() && status.Result != "" {
		return &task.Result{Status: *status}, nil
	}
	return nil, transport.NewError(transport.MessagePollDeadline, 0)
}

func validateTaskID(taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return transport.NewError("task id must not be empty", 0)
	}
	return nil
}
