package providers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"textpilot/internal/core"
)

func TestForSelectsBackendByHost(t *testing.T) {
	tests := []struct {
		url  string
		want core.BackendKind
	}{
		{"http://localhost:1234/v1/chat/completions", core.BackendLocal},
		{"http://127.0.0.1:11434/v1/chat/completions", core.BackendLocal},
		{"https://generativelanguage.googleapis.com/v1beta/models/m:generateContent?key=", core.BackendRemote},
		{"https://api.example.com/generate?key=", core.BackendRemote},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p := For(core.Endpoint{URL: tt.url, Credential: "x"})
			if p.Kind() != tt.want {
				t.Errorf("Kind() = %q, want %q", p.Kind(), tt.want)
			}
		})
	}
}

func TestRemoteBuildRequest(t *testing.T) {
	prompts := []string{
		"hello",
		"",
		`quotes " and \ backslashes`,
		"multi\nline\ttext with ünïcödé",
		"contents.0.role looks like a path",
	}
	ep := core.Endpoint{URL: "https://api.example.com/models/m:generateContent?key=", Credential: "secret"}

	for _, prompt := range prompts {
		url, body, err := NewRemoteProvider().BuildRequest(prompt, ep)
		if err != nil {
			t.Fatalf("BuildRequest(%q) error: %v", prompt, err)
		}
		if url != "https://api.example.com/models/m:generateContent?key=secret" {
			t.Errorf("url = %q", url)
		}
		root := gjson.ParseBytes(body)
		if n := len(root.Map()); n != 1 {
			t.Errorf("top-level keys = %d, want 1: %s", n, body)
		}
		contents := root.Get("contents").Array()
		if len(contents) != 1 {
			t.Fatalf("len(contents) = %d, want 1: %s", len(contents), body)
		}
		if got := contents[0].Get("role").String(); got != "user" {
			t.Errorf("role = %q, want user", got)
		}
		parts := contents[0].Get("parts").Array()
		if len(parts) != 1 {
			t.Fatalf("len(parts) = %d, want 1: %s", len(parts), body)
		}
		if got := parts[0].Get("text").String(); got != prompt {
			t.Errorf("text = %q, want %q", got, prompt)
		}
	}
}

func TestLocalBuildRequest(t *testing.T) {
	ep := core.Endpoint{URL: "http://localhost:1234/v1/chat/completions", Credential: "llama-3.2-3b"}

	for _, prompt := range []string{"hello", `with "quotes"`, "line\nbreak"} {
		url, body, err := NewLocalProvider().BuildRequest(prompt, ep)
		if err != nil {
			t.Fatalf("BuildRequest(%q) error: %v", prompt, err)
		}
		if url != ep.URL {
			t.Errorf("url = %q, want %q", url, ep.URL)
		}
		root := gjson.ParseBytes(body)
		if got := root.Get("model").String(); got != "llama-3.2-3b" {
			t.Errorf("model = %q", got)
		}
		msgs := root.Get("messages").Array()
		if len(msgs) != 1 {
			t.Fatalf("len(messages) = %d, want 1", len(msgs))
		}
		if msgs[0].Get("role").String() != "user" || msgs[0].Get("content").String() != prompt {
			t.Errorf("message = %s", msgs[0].Raw)
		}
		if got := root.Get("temperature").Float(); got != 0.7 {
			t.Errorf("temperature = %v, want 0.7", got)
		}
		if got := root.Get("max_tokens").Int(); got != -1 {
			t.Errorf("max_tokens = %v, want -1", got)
		}
		stream := root.Get("stream")
		if !stream.Exists() || stream.Type != gjson.False {
			t.Errorf("stream = %s, want false", stream.Raw)
		}
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		provider core.Provider
		body     string
		want     string
		wantErr  bool
	}{
		{
			name:     "remote success",
			provider: NewRemoteProvider(),
			body:     `{"candidates":[{"content":{"parts":[{"text":"Bonjour"}],"role":"model"}}]}`,
			want:     "Bonjour",
		},
		{
			name:     "remote empty text is still text",
			provider: NewRemoteProvider(),
			body:     `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
			want:     "",
		},
		{name: "remote missing candidates", provider: NewRemoteProvider(), body: `{"promptFeedback":{}}`, wantErr: true},
		{name: "remote empty candidates", provider: NewRemoteProvider(), body: `{"candidates":[]}`, wantErr: true},
		{name: "remote empty parts", provider: NewRemoteProvider(), body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: true},
		{name: "remote non-string text", provider: NewRemoteProvider(), body: `{"candidates":[{"content":{"parts":[{"text":42}]}}]}`, wantErr: true},
		{name: "remote chat shape rejected", provider: NewRemoteProvider(), body: `{"choices":[{"message":{"content":"hi"}}]}`, wantErr: true},
		{
			name:     "local success",
			provider: NewLocalProvider(),
			body:     `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"Hello!"}}]}`,
			want:     "Hello!",
		},
		{name: "local missing choices", provider: NewLocalProvider(), body: `{"id":"x"}`, wantErr: true},
		{name: "local missing message", provider: NewLocalProvider(), body: `{"choices":[{"index":0}]}`, wantErr: true},
		{name: "local null content", provider: NewLocalProvider(), body: `{"choices":[{"message":{"content":null}}]}`, wantErr: true},
		{name: "invalid json", provider: NewLocalProvider(), body: `<html>oops</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.provider.ParseResponse([]byte(tt.body))
			if tt.wantErr {
				if !core.IsType(err, core.ErrorTypeProtocol) {
					t.Fatalf("err = %v, want protocol error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"code":429,"message":"Resource exhausted"}}`, "Resource exhausted"},
		{`{"message":"model not loaded"}`, "model not loaded"},
		{`{"error":"bad model"}`, "bad model"},
		{"  plain text failure \n", "plain text failure"},
	}
	for _, tt := range tests {
		if got := UpstreamMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("UpstreamMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestUpstreamMessageTruncatesOnRuneBoundary(t *testing.T) {
	// 511 ASCII bytes followed by 3-byte runes: byte 512 falls inside a rune
	body := strings.Repeat("x", 511) + strings.Repeat("错", 10)

	got := UpstreamMessage([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got[500:])
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got[500:])
	}
	if want := strings.Repeat("x", 511) + "..."; got != want {
		t.Errorf("got %q, want %q", got[500:], want[500:])
	}

	short := "服务暂时不可用"
	if got := UpstreamMessage([]byte(short)); got != short {
		t.Errorf("short message = %q", got)
	}
}
