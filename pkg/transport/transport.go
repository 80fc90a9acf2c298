package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const networkErrorPrefix = "network error: "

// RequestOptions carries the caller-supplied parts of a request. The
// cancellation signal travels on the context passed to Execute.
type RequestOptions struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Engine performs one logical HTTP call against {BaseURL}{endpoint},
// applying the uniform request envelope and, for retryable calls, the
// retry policy. It is safe for concurrent use: all mutable state is
// per-call.
type Engine struct {
	cfg         *Config
	client      *http.Client
	log         *logrus.Logger
	backoffBase time.Duration
}

// NewEngine creates an Engine for a config. A nil httpClient or logger
// falls back to a default client and a discarding logger.
func NewEngine(cfg *Config, httpClient *http.Client, log *logrus.Logger) *Engine {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Engine{
		cfg:         cfg,
		client:      httpClient,
		log:         log,
		backoffBase: DefaultBackoffBase,
	}
}

// WithBackoffBase overrides the linear backoff base delay
func (e *Engine) WithBackoffBase(d time.Duration) *Engine {
	e.backoffBase = d
	return e
}

// Execute performs one logical call, retrying per policy, and unmarshals a
// 2xx response body into out (out may be nil to discard the body).
//
// A failure is retried only when retryable is true, the failure is an HTTP
// 5xx or a network-level one, and fewer than maxRetries retries have been
// spent. Retry delay is linear: backoffBase * (n + 1) after failed attempt
// n. Cancellation and timeout bypass the retry policy entirely.
func (e *Engine) Execute(ctx context.Context, endpoint string, opts RequestOptions, retryable bool, maxRetries int, out any) error {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr *Error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait with linear backoff before every retry attempt
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return WrapError(MessageRequestTimeout, 0, ctx.Err())
			case <-time.After(e.backoffBase * time.Duration(attempt)):
			}
			e.log.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
			}).Debug("retrying request")
		}

		err := e.executeOnce(ctx, endpoint, opts, out)
		if err == nil {
			return nil
		}

		// Cancellation is classified distinctly and never retried
		if IsTimeout(err) {
			return err
		}

		te, ok := AsError(err)
		if !ok {
			te = NewError(err.Error(), 0)
		}
		lastErr = te

		if !retryable || !isRetryableFailure(te) {
			return te
		}
	}

	return WrapError(
		fmt.Sprintf("exceeded maximum retry attempts (%d): %s", maxRetries, lastErr.Message),
		lastErr.StatusCode,
		lastErr,
	)
}

// executeOnce attempts the exchange once, under the composite cancellation
// condition of the caller's context and the configured timeout.
func (e *Engine) executeOnce(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return NewError(fmt.Sprintf("failed to marshal request: %v", err), 0)
		}
		bodyReader = bytes.NewReader(payload)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	request, err := http.NewRequestWithContext(attemptCtx, method, e.cfg.BaseURL+endpoint, bodyReader)
	if err != nil {
		return NewError(fmt.Sprintf("failed to create request: %v", err), 0)
	}

	// Injected headers first; explicit caller values win
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-api-key", e.cfg.APIKey)
	for key, value := range opts.Headers {
		request.Header.Set(key, value)
	}

	response, err := e.client.Do(request)
	if err != nil {
		if attemptCtx.Err() != nil {
			return WrapError(MessageRequestTimeout, 0, attemptCtx.Err())
		}
		return WrapError(networkErrorPrefix+err.Error(), 0, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		if attemptCtx.Err() != nil {
			return WrapError(MessageRequestTimeout, 0, attemptCtx.Err())
		}
		return WrapError(networkErrorPrefix+err.Error(), 0, err)
	}

	e.observeResponse(response, body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return NewError(extractErrorMessage(body, response.StatusCode), response.StatusCode)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return NewError(fmt.Sprintf("failed to decode response: %v", err), 0)
		}
	}
	return nil
}

// observeResponse hands the hook a copy of the response. Hook panics are
// swallowed and logged, they never abort the request.
func (e *Engine) observeResponse(response *http.Response, body []byte) {
	if e.cfg.ResponseHook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Warn("response hook failed")
		}
	}()
	bodyCopy := make([]byte, len(body))
	copy(bodyCopy, body)
	e.cfg.ResponseHook(response.StatusCode, response.Header.Clone(), bodyCopy)
}

// extractErrorMessage picks the most specific failure message available:
// the body's "error" field, then its "message" field, then the raw trimmed
// body text, then an "HTTP {status}" literal.
func extractErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// isRetryableFailure reports whether a failure is transient: an HTTP 5xx
// response or a network-level failure
func isRetryableFailure(err *Error) bool {
	if err.StatusCode >= 500 && err.StatusCode < 600 {
		return true
	}
	return err.StatusCode == 0 && strings.HasPrefix(err.Message, networkErrorPrefix)
}
