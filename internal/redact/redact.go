// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or returned in error responses. It keeps credentials,
// bearer tokens, connection strings, file paths and user emails out of logs.
package redact

import (
	"log/slog"
	"net/url"
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules are applied in order. Connection strings and bearer headers go first so
// that the narrower patterns below never see their secrets.
var rules = []rule{
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb)://[^@\s/]+@`),
		"${1}://" + RedactedCredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]+`),
		"Bearer " + RedactedTokenPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*)['"]?[^'"&\s,]+['"]?`),
		"${1}${2}" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token)(\s*[=:]\s*)['"]?[A-Za-z0-9_\-.~+/]{8,}['"]?`),
		"${1}${2}" + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		RedactedStackPlaceholder,
	},
	{
		regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()."]+\b(FROM|INTO|SET)\b[^;]*`,
		),
		RedactedSQLPlaceholder,
	},
	{
		regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// ErrorAttr returns the redacted error as a slog attribute under the "error" key.
func ErrorAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}

// DatabaseURL masks the password of a connection URL. Inputs that are not
// URLs, such as key=value DSNs, fall back to String.
func DatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return String(raw)
	}
	return u.Redacted()
}
