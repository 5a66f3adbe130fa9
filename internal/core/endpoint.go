package core

import (
	"strings"
)

// PlaceholderCredential is the value the settings carry until the user configures a real key.
const PlaceholderCredential = "YOUR_API_KEY_HERE"

// BackendKind identifies which request/response shape an endpoint speaks
type BackendKind string

// BackendKind constants
const (
	BackendRemote BackendKind = "remote" // generateContent style API, key appended to the URL
	BackendLocal  BackendKind = "local"  // chat completion server on the loopback interface
)

// loopbackMarkers are matched as plain substrings of the endpoint URL
var loopbackMarkers = []string{"localhost", "127.0.0.1"}

// Endpoint is the configuration a call is made against
type Endpoint struct {
	// URL is the target URL, or a template the credential is appended to for remote backends
	URL string `json:"url" mapstructure:"url"`
	// Credential is the API key for remote backends, or the model identifier for local ones
	Credential string `json:"credential" mapstructure:"credential"`
}

// Kind infers the backend kind from the URL
func (e Endpoint) Kind() BackendKind {
	for _, marker := range loopbackMarkers {
		if strings.Contains(e.URL, marker) {
			return BackendLocal
		}
	}
	return BackendRemote
}

// Validate fails fast on configurations that can never produce a request
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.URL) == "" {
		return NewConfigurationError("endpoint URL is not set", nil)
	}
	if e.Credential == PlaceholderCredential {
		return NewConfigurationError("You need to configure the AI API you want to use", nil)
	}
	return nil
}
