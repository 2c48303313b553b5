// Package redact strips sensitive information from strings before they are
// logged or returned in API error responses. Error text from the database
// driver or the auth layer can carry connection strings, credentials, tokens,
// or raw SQL; redacting at the logging boundary keeps those out of the wire.
package redact

import "regexp"

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var rules = []rule{
	// Connection strings with embedded credentials.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`), "[REDACTED_DSN]"},

	// Passwords and secrets in key=value or key: value form.
	{regexp.MustCompile(`(?i)(password|passwd|secret)([=:\s]['"]?)[^'"&\s]{3,}`), "[REDACTED_CREDENTIAL]"},

	// Bearer tokens in the standard three-part JWT shape.
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "[REDACTED_TOKEN]"},

	// SQL fragments leaked through driver errors.
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)[\s\w,*()]+(FROM|INTO|SET)[\s\w,*()='"$]*`), "[REDACTED_SQL]"},

	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},

	// Filesystem paths.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), "[REDACTED_PATH]"},
}

// String returns the input with all sensitive fragments replaced by
// placeholders.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts an error's message. A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
