package command

import (
	"strings"
	"unicode"
)

// ParseResult is one console line split into a command word and arguments.
type ParseResult struct {
	// Command is the first word, lowercased.
	Command string
	// Args are the remaining whitespace-separated words.
	Args []string
	// RawArgs is the text after the command with inner spacing preserved.
	RawArgs string
}

// Parse splits line on any whitespace. Text from a '#' to the end of the
// line is a comment, so scripted input files can annotate their commands.
//
// Postcondition: Command is empty iff the line holds no words outside a comment.
func Parse(line string) ParseResult {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	end := strings.IndexFunc(line, unicode.IsSpace)
	if end < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	rest := strings.TrimSpace(line[end:])
	res := ParseResult{Command: strings.ToLower(line[:end]), RawArgs: rest}
	if rest != "" {
		res.Args = strings.Fields(rest)
	}
	return res
}
