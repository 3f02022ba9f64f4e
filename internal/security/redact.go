// Package security masks credentials before they reach logs or output.
package security

import (
	"regexp"
	"strings"
)

var sensitivePatterns = []*regexp.Regexp{
	// Telegram bot tokens appear in request URLs: /bot123456:AA.../sendMessage
	regexp.MustCompile(`bot(\d{5,}:[A-Za-z0-9_-]{20,})`),
	// Kite sends "Authorization: token api_key:access_token"
	regexp.MustCompile(`(?i)token\s+([A-Za-z0-9]+:[A-Za-z0-9]+)`),
	regexp.MustCompile(`(?i)(?:api[_-]?key|access[_-]?token|bot[_-]?token|password)["']?\s*[=:]\s*["']?([^\s"'&,}]+)`),
}

// MaskCredential keeps at most the first and last four characters of a secret.
func MaskCredential(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// Redact masks every credential found in s.
func Redact(s string) string {
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			sub := pattern.FindStringSubmatchIndex(match)
			if len(sub) < 4 || sub[2] < 0 {
				return MaskCredential(match)
			}
			return match[:sub[2]] + MaskCredential(match[sub[2]:sub[3]]) + match[sub[3]:]
		})
	}
	return s
}

// RedactError returns err with credentials masked from its message.
// The original error stays reachable through errors.Is and errors.As.
func RedactError(err error) error {
	if err == nil {
		return nil
	}
	msg := Redact(err.Error())
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
