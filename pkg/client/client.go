// Package client is the public surface of the TaskForce SDK: task
// submission, status polling, completion waiting, status streaming, and the
// thread pass-through endpoints.
package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taskforceai/taskforce-go/pkg/transport"
)

// executor issues one logical request. The real implementation is the
// transport Engine; mock mode swaps in a local fabrication.
type executor interface {
	Execute(ctx context.Context, endpoint string, opts transport.RequestOptions, retryable bool, maxRetries int, out any) error
}

// Client talks to the TaskForce API. Configuration is read-only once
// requests start flowing; concurrent calls on one Client are safe.
type Client struct {
	cfg        *transport.Config
	httpClient *http.Client
	log        *logrus.Logger
	maxRetries int
	mockMode   bool
	exec       executor
}

// New creates a Client with default settings. The API key may be empty only
// when mock mode is enabled before the first request.
func New(apiKey string) *Client {
	c := &Client{
		cfg:        transport.NewConfig(apiKey),
		maxRetries: transport.DefaultMaxRetries,
		log:        newDiscardLogger(),
	}
	c.rebuild()
	return c
}

// WithBaseURL sets the API base URL
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.cfg.BaseURL = strings.TrimRight(baseURL, "/")
	c.rebuild()
	return c
}

// WithTimeout sets the per-attempt request timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.cfg.Timeout = timeout
	c.rebuild()
	return c
}

// WithResponseHook sets an observer for every received response
func (c *Client) WithResponseHook(hook transport.ResponseHook) *Client {
	c.cfg.ResponseHook = hook
	c.rebuild()
	return c
}

// WithHTTPClient sets the HTTP client used for all requests
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	c.rebuild()
	return c
}

// WithLogger sets the logger; the default discards everything
func (c *Client) WithLogger(log *logrus.Logger) *Client {
	c.log = log
	c.rebuild()
	return c
}

// WithMaxRetries sets the retry budget for retryable requests
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithMockMode toggles the local simulation path: no network calls occur
// and all responses are fabricated in-process
func (c *Client) WithMockMode(enabled bool) *Client {
	c.mockMode = enabled
	c.rebuild()
	return c
}

// MockMode reports whether the client fabricates responses locally
func (c *Client) MockMode() bool {
	return c.mockMode
}

func (c *Client) rebuild() {
	if c.mockMode {
		c.exec = newMockExecutor(c.log)
		return
	}
	c.exec = transport.NewEngine(c.cfg, c.httpClient, c.log)
}

// ready rejects live requests that cannot carry an API key
func (c *Client) ready() error {
	if !c.mockMode && c.cfg.APIKey == "" {
		return transport.NewError("api key must not be empty", 0)
	}
	return nil
}

func newDiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
