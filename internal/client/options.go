package client

import (
	"net/http"

	"go.uber.org/zap"

	"textpilot/internal/core"
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for upstream calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryPolicy replaces the retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger; the client names it "client"
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log.Named("client")
		}
	}
}

// WithPipeline sets the processors run around every attempt
func WithPipeline(p *core.Pipeline) Option {
	return func(c *Client) { c.pipeline = p }
}

// WithSleeper replaces the backoff wait
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithJitter replaces the jitter source
func WithJitter(j Jitter) Option {
	return func(c *Client) {
		if j != nil {
			c.jitter = j
		}
	}
}
