package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "paragraphs become lines",
			input:    "<p>First paragraph</p><p>Second paragraph</p>",
			expected: "First paragraph\nSecond paragraph",
		},
		{
			name:     "line breaks",
			input:    "one<br>two<BR/>three",
			expected: "one\ntwo\nthree",
		},
		{
			name:     "inline tags removed",
			input:    "I <b>really</b> liked <a href=\"https://example.com\">this</a>",
			expected: "I really liked this",
		},
		{
			name:     "entities decoded",
			input:    "Tom &amp; Jerry &lt;3&nbsp;&nbsp;cartoons",
			expected: "Tom & Jerry <3 cartoons",
		},
		{
			name:     "scripts dropped",
			input:    "Hi<script>alert('x')</script> there<style>p{}</style>",
			expected: "Hi there",
		},
		{
			name:     "whitespace collapsed",
			input:    "  lots   of\t\tspace \n\n\n and lines  ",
			expected: "lots of space\nand lines",
		},
		{
			name:     "list items",
			input:    "<ul><li>a</li><li>b</li></ul>",
			expected: "a\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, StripTags(tt.input))
		})
	}
}
