package telemetry

import "regexp"

// patterns match the sensitive field shapes spec.md §7 requires redacted
// from any log line or status string: hub usernames/client keys, bridge
// ids, UUIDs, long bearer-style tokens, and IPv4 addresses.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), // UUID
	regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`),                                                        // long hex tokens/keys
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),                                                 // IPv4
}

var replacements = []string{"[uuid]", "[token]", "[ip]"}

// Redact replaces sensitive substrings in s with bracketed markers. It is a
// standalone helper: no Bridge method, log call or transport in this module
// passes its strings through Redact.
func Redact(s string) string {
	for i, p := range patterns {
		s = p.ReplaceAllString(s, replacements[i])
	}
	return s
}
