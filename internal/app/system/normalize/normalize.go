// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims whitespace and lowercases for case-insensitive matching.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod trims and lowercases ("internal", "google").
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims whitespace from a request parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
