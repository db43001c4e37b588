package logging

import (
	"fmt"
	"strings"

	"github.com/fredericcarre/xcprobe/pkg/redact"
)

// Redactor redacts secret-shaped values from log fields. It delegates the
// actual matching to pkg/redact, the same engine used over evidence content,
// so a pattern added for one surface is never missed on the other.
type Redactor struct {
	mode    redact.Mode
	enabled bool
}

// NewRedactor creates a Redactor using redact.ModeStandard.
func NewRedactor() *Redactor {
	return &Redactor{mode: redact.ModeStandard, enabled: true}
}

// RedactString runs the redaction engine over value.
func (r *Redactor) RedactString(value string) string {
	if !r.enabled || value == "" {
		return value
	}
	out, _ := redact.Redact(value, r.mode)
	return out
}

// RedactArgs redacts secret-shaped data from variadic slog-style log
// arguments. Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if !r.enabled || len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		key, ok := redacted[i-1].(string)
		if ok && r.isSensitiveKey(key) {
			redacted[i] = r.redactValue(redacted[i])
			continue
		}

		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates sensitive data, regardless
// of whether its value would otherwise match the pattern or entropy pass.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"auth", "authorization",
		"private_key", "privatekey",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// redactValue masks a value known to come from a sensitive key. A string
// longer than 4 characters keeps its first 4 characters, followed by "***",
// to help a reader correlate log lines; shorter strings and non-string
// values become "***", and an empty string stays empty.
func (r *Redactor) redactValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}
