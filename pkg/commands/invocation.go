package commands

import (
	"strconv"
	"strings"
)

// Prefix marks a chat message as a bot command.
const Prefix = "!"

// Invocation is a single command request parsed out of one chat message.
type Invocation struct {
	// Command is the name or alias to look up, e.g. "recent" for "!recent2 foo".
	Command string
	// Index is the number glued to the end of the command, e.g. 2 for "!recent2".
	Index *uint32
	// Rest is everything after the first space, verbatim.
	Rest string
}

// Parse extracts an Invocation from text. It reports false when text does
// not start with Prefix; that is the common case for ordinary chatter and
// not an error.
//
// A trailing run of non-letters on the first word is split off as Index only
// when some letters precede it and the run parses as an unsigned integer.
// Otherwise the whole word is the command: "!123" and "!rs1x" do not split.
func Parse(text string) (Invocation, bool) {
	body, ok := strings.CutPrefix(text, Prefix)
	if !ok {
		return Invocation{}, false
	}

	word, rest, _ := strings.Cut(body, " ")
	inv := Invocation{Command: word, Rest: rest}

	split := len(word)
	for split > 0 && !isASCIILetter(word[split-1]) {
		split--
	}

	if split > 0 && split < len(word) {
		if n, err := strconv.ParseUint(word[split:], 10, 32); err == nil {
			idx := uint32(n)
			inv.Command = word[:split]
			inv.Index = &idx
		}
	}

	return inv, true
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
