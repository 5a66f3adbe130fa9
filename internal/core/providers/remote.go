package providers

import (
	"fmt"

	"github.com/tidwall/sjson"

	"textpilot/internal/core"
)

// RemoteProvider speaks the generateContent shape: the credential is appended
// to the configured URL template and the text is read from the first candidate.
type RemoteProvider struct{}

// NewRemoteProvider creates a remote provider
func NewRemoteProvider() *RemoteProvider {
	return &RemoteProvider{}
}

// Kind returns core.BackendRemote
func (p *RemoteProvider) Kind() core.BackendKind {
	return core.BackendRemote
}

// BuildRequest builds {"contents":[{"role":"user","parts":[{"text":prompt}]}]}
func (p *RemoteProvider) BuildRequest(prompt string, ep core.Endpoint) (string, []byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "contents.0.role", "user")
	if err != nil {
		return "", nil, fmt.Errorf("failed to set role: %w", err)
	}
	body, err = sjson.SetBytes(body, "contents.0.parts.0.text", prompt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to set text: %w", err)
	}
	return ep.URL + ep.Credential, body, nil
}

// ParseResponse reads candidates[0].content.parts[0].text
func (p *RemoteProvider) ParseResponse(body []byte) (string, error) {
	return extractText(body, "candidates.0.content.parts.0.text")
}
