package security

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// CredentialPlaceholder replaces a configured credential in diagnostic output
const CredentialPlaceholder = "[CREDENTIAL_REDACTED]"

// Rule 定义了敏感信息检测规则
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// minLiteralSecret is the shortest credential replaced as a literal substring.
// Shorter values would match unrelated text; query parameters still mask them in URLs.
const minLiteralSecret = 6

// secretQueryParams are query parameters whose values never reach the logs
var secretQueryParams = []string{"key", "api_key", "apikey", "access_token", "token"}

// Scanner 扫描并清理诊断日志中的凭据
type Scanner struct {
	rules []Rule
}

// NewScanner 创建一个新的 Scanner 实例，内置凭据检测规则
func NewScanner() *Scanner {
	s := &Scanner{}

	// 按照优先级顺序（先匹配更具体的模式）
	builtin := []struct {
		name, pattern, replacement string
	}{
		{"Private Key", `-----BEGIN [A-Z ]+ PRIVATE KEY-----`, "[PRIVATE_KEY_REDACTED]"},
		{"Google API Key", `\bAIza[0-9A-Za-z\-_]{35}\b`, "[GOOGLE_KEY_REDACTED]"},
		{"OpenAI API Key", `\bsk-(?:proj-)?[a-zA-Z0-9]{20,}\b`, "[OPENAI_KEY_REDACTED]"},
		{"AWS Access Key", `\bAKIA[0-9A-Z]{16}\b`, "[AWS_AK_REDACTED]"},
		{"GitHub Token", `\b(ghp|gho|ghu|ghs|ghr)_[a-zA-Z0-9]{36}\b`, "[GITHUB_TOKEN_REDACTED]"},
		{"Bearer Token", `(?i)\bbearer\s+[a-zA-Z0-9\-._~+/]{16,}=*`, "Bearer [TOKEN_REDACTED]"},
	}
	for _, b := range builtin {
		s.rules = append(s.rules, Rule{
			Name:        b.name,
			Pattern:     regexp.MustCompile(b.pattern),
			Replacement: b.replacement,
		})
	}

	return s
}

// Sanitize applies every rule in order
func (s *Scanner) Sanitize(input string) string {
	result := input
	for _, rule := range s.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// Redact removes the given literal secrets, then applies the pattern rules.
// Secrets shorter than minLiteralSecret are ignored.
func (s *Scanner) Redact(input string, secrets ...string) string {
	result := input
	for _, secret := range secrets {
		if len(strings.TrimSpace(secret)) < minLiteralSecret {
			continue
		}
		result = strings.ReplaceAll(result, secret, CredentialPlaceholder)
		// The same secret may appear query-escaped inside a URL
		if escaped := url.QueryEscape(secret); escaped != secret {
			result = strings.ReplaceAll(result, escaped, CredentialPlaceholder)
		}
	}
	return s.Sanitize(result)
}

// RedactURL masks secret query parameters of a URL in addition to Redact.
// Unparseable input falls back to Redact.
func (s *Scanner) RedactURL(raw string, secrets ...string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return s.Redact(raw, secrets...)
	}
	q := u.Query()
	changed := false
	for _, name := range secretQueryParams {
		if v := q.Get(name); v != "" {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return s.Redact(u.String(), secrets...)
}

// AddRule 动态添加自定义规则
func (s *Scanner) AddRule(name string, pattern string, replacement string) error {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, Rule{
		Name:        name,
		Pattern:     compiled,
		Replacement: replacement,
	})
	return nil
}

// AddPatterns 批量添加配置中的自定义规则，命中内容替换为 CredentialPlaceholder
func (s *Scanner) AddPatterns(patterns ...string) error {
	for i, pattern := range patterns {
		if err := s.AddRule(fmt.Sprintf("custom-%d", i+1), pattern, CredentialPlaceholder); err != nil {
			return fmt.Errorf("invalid redaction pattern %q: %w", pattern, err)
		}
	}
	return nil
}
