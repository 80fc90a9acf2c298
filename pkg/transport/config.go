package transport

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default base URL for the TaskForce API
	DefaultBaseURL = "https://api.taskforceai.com/v1"

	// DefaultTimeout is the default per-attempt request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries for retryable requests
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the base delay for linear retry backoff:
	// attempt n waits DefaultBackoffBase * (n + 1)
	DefaultBackoffBase = 500 * time.Millisecond
)

// ResponseHook observes every received response, success or failure, before
// the body is consumed for parsing. The body slice is a copy; the hook may
// inspect it freely. Hook panics are swallowed and logged, they never abort
// the request.
type ResponseHook func(statusCode int, header http.Header, body []byte)

// Config is the immutable per-client transport bundle. It is shared
// read-only by every request the client issues.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	ResponseHook ResponseHook
}

// NewConfig creates a Config with default settings
func NewConfig(apiKey string) *Config {
	return &Config{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}
