package core

// Provider builds requests for one backend kind and parses its responses
type Provider interface {
	// Kind returns the backend kind this provider speaks
	Kind() BackendKind
	// BuildRequest returns the target URL and JSON body for prompt
	BuildRequest(prompt string, ep Endpoint) (url string, body []byte, err error)
	// ParseResponse extracts the generated text from a 2xx response body.
	// Any shape mismatch is reported as a protocol error.
	ParseResponse(body []byte) (string, error)
}
