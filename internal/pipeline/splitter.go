package pipeline

import "strings"

// Split returns the whitespace-delimited words of message in order.
// Empty or all-whitespace input yields an empty, non-nil slice.
func Split(message string) []string {
	words := strings.Fields(message)
	if words == nil {
		return []string{}
	}
	return words
}
