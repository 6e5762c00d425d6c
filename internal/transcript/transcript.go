// Package transcript post-processes raw recognition hypotheses.
package transcript

import "strings"

// Normalize collapses runs of whitespace into single spaces and trims the
// result. Decoder output occasionally carries stray padding around tokens.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Surname extracts the surname from a hypothesis: the last whitespace
// token. Users are told to embed the name in a carrier sentence ("I was
// playing with ..."), so everything before the final token is discarded.
// Returns "" for an empty hypothesis.
func Surname(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
