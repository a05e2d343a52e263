package channels

import (
	"strings"
	"unicode/utf8"
)

// splitLines breaks text into lines no longer than limit bytes. Newlines
// always split; long lines break at the last space in the final 100 bytes
// of the window, or mid-word (on a rune boundary) when there is none. Blank
// lines are dropped.
func splitLines(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for len(line) > limit {
			end := findLastSpace(line[:limit], 100)
			if end <= 0 {
				end = limit
				for end > 0 && !utf8.RuneStart(line[end]) {
					end--
				}
				if end == 0 {
					end = limit
				}
			}
			if chunk := strings.TrimSpace(line[:end]); chunk != "" {
				out = append(out, chunk)
			}
			line = strings.TrimLeft(line[end:], " ")
		}
		if line = strings.TrimRight(line, " \t"); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// findLastSpace finds the last space within the last searchWindow bytes of s.
// Returns -1 if not found.
func findLastSpace(s string, searchWindow int) int {
	searchStart := max(len(s)-searchWindow, 0)
	for i := len(s) - 1; i >= searchStart; i-- {
		if s[i] == ' ' || s[i] == '\t' {
			return i
		}
	}
	return -1
}
