package protocol

import (
	"errors"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrUnknownCommand and ErrInvalidFormat are the two protocol-level parse
// failures; internal/server turns these into ERROR replies without touching
// the map or the WAL.
var (
	ErrUnknownCommand = errors.New("Unknown command")
	ErrInvalidFormat  = errors.New("Invalid command format")
)

// Parse tokenizes a single protocol line (without its trailing newline): a
// whitespace-delimited verb, an optional quote-aware key, and a value that
// is the rest of the line with matching outer quotes stripped.
func Parse(line string) (Command, error) {
	verb, rest, ok := cutToken(line)
	if !ok {
		return Command{}, ErrInvalidFormat
	}

	v := Verb(verb)
	if !slices.Contains(knownVerbs, v) {
		return Command{}, ErrUnknownCommand
	}

	cmd := Command{Verb: v}

	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return cmd, nil
	}

	key, remainder := parseQuotedOrBareToken(rest)
	cmd.Key = []byte(key)

	remainder = strings.TrimLeft(remainder, " \t")
	if remainder == "" {
		return cmd, nil
	}
	cmd.Value = []byte(unquoteValue(remainder))

	return cmd, nil
}

// cutToken splits off the first whitespace-delimited token from s, returning
// it, the remainder (unstripped of leading whitespace), and whether a
// non-empty token was found at all.
func cutToken(s string) (token, rest string, ok bool) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", "", false
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", true
	}
	return s[:i], s[i:], true
}

// parseQuotedOrBareToken reads one key token from s: a quote-delimited run
// if s begins with `"` or `'`, otherwise a whitespace-delimited run. Escape
// sequences inside quotes are not interpreted.
func parseQuotedOrBareToken(s string) (token, rest string) {
	if len(s) == 0 {
		return "", ""
	}
	quote := s[0]
	if quote == '"' || quote == '\'' {
		if end := strings.IndexByte(s[1:], quote); end >= 0 {
			return s[1 : 1+end], s[1+end+1:]
		}
		// No matching close quote: treat the opening quote as ordinary text.
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// unquoteValue strips matching outer quotes from s if both ends carry the
// same quote character; otherwise s is returned verbatim.
func unquoteValue(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
