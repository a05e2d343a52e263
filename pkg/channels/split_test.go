package channels

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "single line",
			text:  "pong!",
			limit: 100,
			want:  []string{"pong!"},
		},
		{
			name:  "newlines split",
			text:  "cookiezi - 12,345.6pp (#1) (KR#1)\nRanked Score: 1,000",
			limit: 100,
			want:  []string{"cookiezi - 12,345.6pp (#1) (KR#1)", "Ranked Score: 1,000"},
		},
		{
			name:  "blank lines and CR dropped",
			text:  "a\r\n\r\n  \nb",
			limit: 100,
			want:  []string{"a", "b"},
		},
		{
			name:  "long line breaks at space",
			text:  "aaaa bbbb cccc",
			limit: 10,
			want:  []string{"aaaa bbbb", "cccc"},
		},
		{
			name:  "no space forces hard break",
			text:  "abcdefghij",
			limit: 4,
			want:  []string{"abcd", "efgh", "ij"},
		},
		{
			name:  "trailing spaces trimmed",
			text:  "word word ",
			limit: 100,
			want:  []string{"word word"},
		},
		{
			name:  "empty",
			text:  "",
			limit: 10,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLines(tt.text, tt.limit))
		})
	}
}

func TestSplitLines_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("★", 10)
	for _, line := range splitLines(text, 7) {
		assert.True(t, utf8.ValidString(line), "%q", line)
		assert.LessOrEqual(t, len(line), 7)
	}
	assert.Equal(t, text, strings.Join(splitLines(text, 7), ""))
}
