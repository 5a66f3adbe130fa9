// Package settings persists the two user settings: the endpoint URL and the
// credential. File and Redis backends are available.
package settings

import (
	"context"
	"strings"

	"textpilot/internal/core"
)

// DefaultAPIURL is the remote content-generation template; the credential is appended to it
const DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-preview-05-20:generateContent?key="

// Settings is the persisted endpoint configuration
type Settings struct {
	APIURL string `json:"api_url_value"`
	APIKey string `json:"api_key_value"`
}

// Defaults returns the settings used when nothing has been saved yet
func Defaults() Settings {
	return Settings{
		APIURL: DefaultAPIURL,
		APIKey: core.PlaceholderCredential,
	}
}

// Endpoint converts s into the endpoint used by the request client
func (s Settings) Endpoint() core.Endpoint {
	return core.Endpoint{URL: s.APIURL, Credential: s.APIKey}
}

// withDefaults fills blank fields from Defaults
func (s Settings) withDefaults() Settings {
	d := Defaults()
	if strings.TrimSpace(s.APIURL) == "" {
		s.APIURL = d.APIURL
	}
	if strings.TrimSpace(s.APIKey) == "" {
		s.APIKey = d.APIKey
	}
	return s
}

// Store loads and saves Settings. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the saved settings, or Defaults when none exist.
	// Blank fields fall back to their default.
	Load(ctx context.Context) (Settings, error)

	// Save replaces the stored settings.
	Save(ctx context.Context, s Settings) error

	// Close releases any resources held by the store.
	Close() error
}
