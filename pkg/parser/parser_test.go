package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		expected    []string
	}{
		{
			name:        "Simple HTML",
			content:     "<html><body>Hello World!</body></html>",
			contentType: "text/html; charset=utf-8",
			expected:    []string{"Hello", "World!"},
		},
		{
			name:        "HTML with Script and Style",
			content:     "<html><script>var x = 'test';</script><style>.test{color:red;}</style><body>Hello World!</body></html>",
			contentType: "text/html",
			expected:    []string{"Hello", "World!"},
		},
		{
			name:        "Adjacent Elements",
			content:     "<p>Hello</p><p>World!</p>",
			contentType: "text/html",
			expected:    []string{"Hello", "World!"},
		},
		{
			name:        "Invalid HTML",
			content:     "<html><body>Hello World</body>",
			contentType: "text/html",
			expected:    []string{"Hello", "World"},
		},
		{
			name:        "Plain Text Untouched",
			content:     "<p>Hello</p>",
			contentType: "text/plain",
			expected:    []string{"<p>Hello</p>"},
		},
		{
			name:        "Empty HTML",
			content:     "",
			contentType: "text/html",
			expected:    []string{},
		},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ExtractText([]byte(tt.content), tt.contentType)
			require.NoError(t, err)

			words := strings.Fields(got)
			if words == nil {
				words = []string{}
			}
			require.Equal(t, tt.expected, words)
		})
	}
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			require.Equal(t, tt.expected, IsHTML(tt.contentType))
		})
	}
}
