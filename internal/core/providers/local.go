package providers

import (
	"fmt"

	"github.com/bytedance/sonic"

	"textpilot/internal/core"
)

const (
	localTemperature = 0.7
	// -1 lets the local server decide
	localMaxTokens = -1
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// LocalProvider speaks the chat completion shape used by local model servers.
// The credential carries the model identifier.
type LocalProvider struct{}

// NewLocalProvider creates a local provider
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Kind returns core.BackendLocal
func (p *LocalProvider) Kind() core.BackendKind {
	return core.BackendLocal
}

// BuildRequest builds a non-streaming single message chat completion request
func (p *LocalProvider) BuildRequest(prompt string, ep core.Endpoint) (string, []byte, error) {
	req := chatCompletionRequest{
		Model:       ep.Credential,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: localTemperature,
		MaxTokens:   localMaxTokens,
		Stream:      false,
	}
	body, err := sonic.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return ep.URL, body, nil
}

// ParseResponse reads choices[0].message.content
func (p *LocalProvider) ParseResponse(body []byte) (string, error) {
	return extractText(body, "choices.0.message.content")
}
