package providers

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"textpilot/internal/core"
)

// maxMessageBytes caps a raw upstream body used as an error message
const maxMessageBytes = 512

// invalidStructure is the message every shape mismatch is reported with
const invalidStructure = "invalid response structure"

// For resolves the provider for an endpoint's backend kind
func For(ep core.Endpoint) core.Provider {
	switch ep.Kind() {
	case core.BackendLocal:
		return NewLocalProvider()
	default:
		return NewRemoteProvider()
	}
}

// extractText reads a string at path, failing with a protocol error on any mismatch
func extractText(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", core.NewProtocolError(invalidStructure+": body is not valid JSON", nil)
	}
	value := gjson.GetBytes(body, path)
	if !value.Exists() {
		return "", core.NewProtocolError(invalidStructure+": missing "+path, nil)
	}
	if value.Type != gjson.String {
		return "", core.NewProtocolError(invalidStructure+": "+path+" is not a string", nil)
	}
	return value.String(), nil
}

// UpstreamMessage pulls a human readable message out of an error response body
func UpstreamMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		// Try the common {"error":{"message":...}} shape first
		for _, path := range []string{"error.message", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageBytes {
		cut := maxMessageBytes
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}
