package pipeline

// Count returns the number of words.
func Count(words []string) int {
	return len(words)
}
