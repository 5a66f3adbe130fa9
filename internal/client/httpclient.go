package client

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// TimeoutEnv overrides the per-attempt HTTP timeout. Accepts seconds or a Go duration string.
const TimeoutEnv = "TEXTPILOT_HTTP_TIMEOUT"

// DefaultTimeout bounds a single attempt. Local models can be slow to answer.
const DefaultTimeout = 120 * time.Second

// envDuration reads a duration from an environment variable, returning def if unset or invalid
func envDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return def
}

// NewHTTPClient creates the HTTP client used for upstream calls.
// A zero timeout falls back to TEXTPILOT_HTTP_TIMEOUT, then DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = envDuration(TimeoutEnv, DefaultTimeout)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
