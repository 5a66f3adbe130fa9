// Package client sends prompts to a text generation endpoint, retrying
// transient failures with exponential backoff and jitter.
package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"textpilot/internal/core"
	"textpilot/internal/core/providers"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 8 << 20

// Client is the request client. It is safe for concurrent use; every call
// carries its own cancellation through ctx.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	log        *zap.Logger
	pipeline   *core.Pipeline
	sleep      Sleeper
	jitter     Jitter
}

// New creates a Client with DefaultRetryPolicy and a default HTTP client
func New(opts ...Option) *Client {
	c := &Client{
		policy: DefaultRetryPolicy(),
		log:    zap.NewNop(),
		sleep:  sleep,
		jitter: defaultJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(0)
	}
	return c
}

// Policy returns the retry policy in use
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Budget returns the longest a Send can take: every attempt running into the
// HTTP client timeout plus the largest possible backoff between attempts.
// It returns 0 when the HTTP client has no timeout.
func (c *Client) Budget() time.Duration {
	if c.httpClient.Timeout <= 0 {
		return 0
	}
	n := c.policy.attempts()
	total := time.Duration(n) * c.httpClient.Timeout
	for attempt := 0; attempt < n-1; attempt++ {
		total += c.policy.Delay(attempt, 0) + c.policy.MaxJitter
	}
	return total
}

// Do sends prompt and folds the result into an Outcome
func (c *Client) Do(ctx context.Context, prompt string, ep core.Endpoint) core.Outcome {
	return core.OutcomeOf(c.Send(ctx, prompt, ep))
}

// Send posts prompt to the endpoint and returns the generated text.
//
// Configuration and input errors are returned before any network activity.
// Rate limits, transport errors and non-2xx statuses are retried until the
// policy's attempt cap is reached. Protocol errors are returned at once.
// A cancelled ctx yields an error for which core.IsCancelled is true.
func (c *Client) Send(ctx context.Context, prompt string, ep core.Endpoint) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", core.NewInvalidInputError("prompt is empty")
	}
	if err := ep.Validate(); err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", contextError(ctx.Err())
	}

	provider := providers.For(ep)
	target, body, err := provider.BuildRequest(prompt, ep)
	if err != nil {
		return "", core.NewConfigurationError("failed to build request", err)
	}

	cc := core.NewCallContext(ctx, ep, c.log)
	text, err := c.execute(cc, provider, target, body)
	c.pipeline.ExecuteComplete(cc, core.OutcomeOf(text, err))
	return text, err
}

// execute runs the retry loop. At most one HTTP call is in flight per iteration.
func (c *Client) execute(cc *core.CallContext, provider core.Provider, target string, body []byte) (string, error) {
	maxAttempts := c.policy.attempts()
	var lastErr *core.Error
	var backoff time.Duration

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := cc.Err(); err != nil {
			return "", contextError(err)
		}

		cc.SetMetadata(core.MetadataAttempts, attempt+1)
		call := &core.Call{Attempt: attempt, URL: target, Body: body}
		if err := c.pipeline.ExecuteRequest(cc, call); err != nil {
			return "", err
		}

		respBody, err := c.roundTrip(cc, call)
		call.Err = err
		if perr := c.pipeline.ExecuteResponse(cc, call); perr != nil {
			cc.Log.Warn("response processor failed", zap.Error(perr))
		}

		if err == nil {
			return provider.ParseResponse(respBody)
		}
		if cc.Err() != nil {
			return "", contextError(cc.Err())
		}

		ce, ok := core.AsError(err)
		if !ok || !ce.Retryable() {
			return "", err
		}
		ce.Attempts = attempt + 1
		lastErr = ce

		if attempt == maxAttempts-1 {
			break
		}

		delay := c.policy.Delay(attempt, c.jitter())
		cc.Log.Info("Retrying after backoff",
			zap.Int("attempt", attempt),
			zap.String("reason", string(ce.Type)),
			zap.Int("status", ce.StatusCode),
			zap.Duration("delay", delay),
		)
		backoff += delay
		cc.SetMetadata(core.MetadataBackoff, backoff)
		if err := c.sleep(cc, delay); err != nil {
			return "", contextError(err)
		}
	}

	return "", lastErr
}

// roundTrip performs one HTTP call and classifies its failure
func (c *Client) roundTrip(cc *core.CallContext, call *core.Call) ([]byte, error) {
	start := time.Now()
	defer func() { call.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(cc, http.MethodPost, call.URL, bytes.NewReader(call.Body))
	if err != nil {
		return nil, core.NewConfigurationError("invalid endpoint URL", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if cc.Err() != nil {
			return nil, contextError(cc.Err())
		}
		return nil, core.NewTransportError("failed to send request", err)
	}
	defer resp.Body.Close()
	call.StatusCode = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if cc.Err() != nil {
			return nil, contextError(cc.Err())
		}
		return nil, core.NewTransportError("failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		msg := providers.UpstreamMessage(respBody)
		if msg == "" {
			msg = "rate limit exceeded"
		}
		return nil, core.NewRateLimitedError(msg)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := providers.UpstreamMessage(respBody)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, core.NewHTTPStatusError(resp.StatusCode, msg)
	}

	return respBody, nil
}

// contextError maps a context error to a cancellation or a terminal deadline failure
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTransportError("request deadline exceeded", err)
	}
	return core.Cancelled(err)
}
