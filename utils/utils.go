// Package utils holds small string helpers shared by the web search
// providers.
package utils

import (
	"fmt"
	"strings"
)

// UrlQuery makes a phrase safe for a provider query string by replacing
// spaces with plus signs.
func UrlQuery(s string) string { return strings.ReplaceAll(s, " ", "+") }

// Str renders an arbitrary JSON-decoded value as a string; nil becomes the
// empty string rather than "<nil>".
func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
