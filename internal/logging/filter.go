// Package logging keeps credentials out of log and audit files.
//
// User requests are free text and sometimes carry passwords, tokens or
// connection strings. Every file-backed writer (the CLI log and the audit
// log) is wrapped in a FilteringWriter, and audit details pass through
// RedactMap before they are serialized.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue replaces sensitive data.
const RedactedValue = "[REDACTED]"

type redaction struct {
	re   *regexp.Regexp
	repl string
}

//nolint:gochecknoglobals // Compiled once
var redactions = []redaction{
	// key=value and key: value assignments of secret-named keys
	{regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|access[_-]?key|auth[_-]?token|access[_-]?token|token|credentials?)(\s*[:=]\s*)["']?[^\s"',;]{6,}["']?`), "${1}${2}" + RedactedValue},
	// userinfo password in URLs: redis://user:pw@host
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://[^:/\s@]*:)[^@/\s]+@`), "${1}" + RedactedValue + "@"},
	{regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/-]{16,}=*`), "Bearer " + RedactedValue},
	{regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----[\s\S]*?(?:-----END[A-Z ]*PRIVATE KEY-----|$)`), RedactedValue},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), RedactedValue},
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`), RedactedValue},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`), RedactedValue},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\b`), RedactedValue},
}

// sensitiveKeys are map keys whose values are always redacted.
//
//nolint:gochecknoglobals // Read-only lookup table
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey",
	"private_key", "credential", "authorization",
}

// ContainsSecret reports whether s matches any secret pattern.
func ContainsSecret(s string) bool {
	for _, r := range redactions {
		if r.re.MatchString(s) {
			return true
		}
	}
	return false
}

// RedactString replaces every secret in s.
func RedactString(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// IsSensitiveKey reports whether a field name denotes a secret.
func IsSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// RedactMap returns a deep copy of m with sensitive keys blanked and
// secrets removed from string values. m is not modified.
func RedactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case string:
		return RedactString(t)
	case map[string]any:
		return RedactMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = RedactString(e)
		}
		return out
	default:
		return v
	}
}

// SecretHook flags events whose message carries a secret. zerolog hooks
// cannot rewrite the message, so the FilteringWriter does the redaction;
// the flag makes such events easy to find.
type SecretHook struct{}

// Run implements zerolog.Hook.
func (SecretHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSecret(msg) {
		e.Bool("redacted", true)
	}
}

// FilteringWriter redacts secrets from everything written through it.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write redacts p and writes it. It reports len(p) on success so callers
// never see a short write caused by the redaction changing the length.
func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := fw.w.Write([]byte(RedactString(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
