package parser

import (
	"regexp"
	"strings"
)

// Patterns a model could interpret as conversation control. The user's
// input is embedded verbatim in the chat, so role markers and fence
// delimiters are stripped before it ever reaches a backend.
var (
	rolePrefixPattern = regexp.MustCompile(`(?i)\b(system|assistant|user)\s*:`)
	codeFencePattern  = regexp.MustCompile("`{3,}")
)

// SanitizeInput removes prompt-injection markers from raw user text.
// Legitimate financial phrasing passes through unchanged. Total and
// deterministic, never fails.
func SanitizeInput(input string) string {
	s := rolePrefixPattern.ReplaceAllString(input, "")
	s = codeFencePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
