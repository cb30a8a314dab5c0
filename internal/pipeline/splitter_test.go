package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected []string
	}{
		{"greeting", "Hello World!", []string{"Hello", "World!"}},
		{"empty", "", []string{}},
		{"only whitespace", " \t\n  ", []string{}},
		{"repeated separators", "  Hello   World!  ", []string{"Hello", "World!"}},
		{"mixed whitespace", "one\ttwo\nthree", []string{"one", "two", "three"}},
		{"duplicates kept in order", "go go gopher go", []string{"go", "go", "gopher", "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.message)
			require.NotNil(t, got)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestCount(t *testing.T) {
	require.Equal(t, 0, Count(nil))
	require.Equal(t, 0, Count([]string{}))
	require.Equal(t, 2, Count([]string{"Hello", "World!"}))
}

func TestCountMatchesSplitLength(t *testing.T) {
	for _, s := range []string{"", "a", "Hello World!", " a  b\tc\n", "x x x x x"} {
		words := Split(s)
		require.Equal(t, len(words), Count(words), "input %q", s)
	}
}
