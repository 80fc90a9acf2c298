package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/taskforceai/taskforce-go/pkg/task"
	"github.com/taskforceai/taskforce-go/pkg/transport"
)

// MockResultText is the fixed result every mock-mode task completes with
const MockResultText = "Mock task completed successfully"

// mockExecutor fabricates backend responses without any network I/O. The
// first status fetch for a task reports processing; every later fetch for
// the same identifier reports completion with the fixed mock result.
type mockExecutor struct {
	mu      sync.Mutex
	polls   map[string]int
	threads map[string]*Thread
	log     *logrus.Logger
}

func newMockExecutor(log *logrus.Logger) *mockExecutor {
	return &mockExecutor{
		polls:   make(map[string]int),
		threads: make(map[string]*Thread),
		log:     log,
	}
}

func (m *mockExecutor) Execute(ctx context.Context, endpoint string, opts transport.RequestOptions, retryable bool, maxRetries int, out any) error {
	if err := ctx.Err(); err != nil {
		return transport.WrapError(transport.MessageRequestTimeout, 0, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"method":   opts.Method,
	}).Debug("mock request")

	switch {
	case endpoint == "/run" && opts.Method == http.MethodPost:
		taskID := uuid.NewString()
		m.polls[taskID] = 0
		return respond(out, submitResponse{TaskID: taskID})

	case strings.HasPrefix(endpoint, "/status/"):
		taskID := strings.TrimPrefix(endpoint, "/status/")
		m.polls[taskID]++
		if m.polls[taskID] == 1 {
			return respond(out, task.Status{TaskID: taskID, State: task.StateProcessing})
		}
		return respond(out, completedStatus(taskID))

	case strings.HasPrefix(endpoint, "/results/"):
		taskID := strings.TrimPrefix(endpoint, "/results/")
		return respond(out, completedStatus(taskID))

	case endpoint == "/threads" && opts.Method == http.MethodPost:
		thread := &Thread{ThreadID: uuid.NewString(), CreatedAt: time.Now()}
		if body, ok := opts.Body.(map[string]any); ok {
			thread.Title, _ = body["title"].(string)
		}
		m.threads[thread.ThreadID] = thread
		return respond(out, thread)

	case endpoint == "/threads" && opts.Method == http.MethodGet:
		list := threadListResponse{Threads: make([]Thread, 0, len(m.threads))}
		for _, thread := range m.threads {
			list.Threads = append(list.Threads, *thread)
		}
		return respond(out, list)

	case strings.HasPrefix(endpoint, "/threads/") && strings.HasSuffix(endpoint, "/messages"):
		threadID := strings.TrimSuffix(strings.TrimPrefix(endpoint, "/threads/"), "/messages")
		thread, ok := m.threads[threadID]
		if !ok {
			return transport.NewError("thread not found", http.StatusNotFound)
		}
		if message, ok := opts.Body.(ThreadMessage); ok {
			thread.Messages = append(thread.Messages, message)
		}
		return respond(out, thread)

	case strings.HasPrefix(endpoint, "/threads/") && opts.Method == http.MethodGet:
		threadID := strings.TrimPrefix(endpoint, "/threads/")
		thread, ok := m.threads[threadID]
		if !ok {
			return transport.NewError("thread not found", http.StatusNotFound)
		}
		return respond(out, thread)

	case strings.HasPrefix(endpoint, "/threads/") && opts.Method == http.MethodDelete:
		threadID := strings.TrimPrefix(endpoint, "/threads/")
		if _, ok := m.threads[threadID]; !ok {
			return transport.NewError("thread not found", http.StatusNotFound)
		}
		delete(m.threads, threadID)
		return nil
	}

	return errors.Errorf("mock mode does not support %s %s", opts.Method, endpoint)
}

func completedStatus(taskID string) task.Status {
	return task.Status{TaskID: taskID, State: task.StateCompleted, Result: MockResultText}
}

// respond round-trips a fabricated payload through JSON so the caller's out
// value is filled exactly as it would be from a live response
func respond(out, payload any) error {
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "mock response marshal")
	}
	return json.Unmarshal(raw, out)
}
