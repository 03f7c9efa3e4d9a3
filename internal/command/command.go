// Package command turns raw chat text and postback payloads into a command
// name and its arguments.
package command

import (
	"regexp"
	"strings"
)

// DefaultPrefix marks text that should be routed as a command.
const DefaultPrefix = "!"

var tokenPattern = regexp.MustCompile(`"[^"]+"|'[^']+'|\S+`)

type Command struct {
	Name string
	Args []string
}

// Tokenize splits s into whitespace-delimited tokens. A double- or
// single-quoted span is one token with its quotes stripped and its inner
// whitespace kept.
func Tokenize(s string) []string {
	matches := tokenPattern.FindAllString(s, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) >= 2 && (m[0] == '"' || m[0] == '\'') && m[len(m)-1] == m[0] {
			m = m[1 : len(m)-1]
		}
		tokens = append(tokens, m)
	}
	return tokens
}

// Parse trims and lower-cases raw and tokenizes it. It reports false when
// there are no tokens or the first token lacks prefix.
func Parse(raw, prefix string) (Command, bool) {
	tokens := Tokenize(strings.ToLower(strings.TrimSpace(raw)))
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], prefix) {
		return Command{}, false
	}
	return Command{Name: tokens[0], Args: tokens[1:]}, true
}

// Quotable reports whether Quote can round-trip s, which fails when s holds
// both quote kinds.
func Quotable(s string) bool {
	return !strings.Contains(s, `"`) || !strings.Contains(s, "'")
}

// Quote wraps s so that Tokenize returns it as a single token.
func Quote(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
