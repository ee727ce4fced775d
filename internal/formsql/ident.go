package formsql

import (
	"strings"

	"github.com/google/uuid"
)

// IsFieldID reports whether s is a UUID-shaped identifier. Field ids and
// form ids share this shape; anything else is a label or column name.
func IsFieldID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// SplitStatements splits a raw block body into individual statements on
// semicolons, respecting quotes, parentheses, and BEGIN/END nesting so
// that semicolons inside nested blocks or string literals do not split.
// Empty segments are dropped.
func SplitStatements(body string) []string {
	var (
		stmts   []string
		current strings.Builder
		depth   int
		blocks  int
		quote   byte
	)

	tokenEnds := func(i int) bool {
		if i >= len(body) {
			return true
		}
		c := body[i]
		return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
	}
	wordAt := func(i int, word string) bool {
		if i+len(word) > len(body) {
			return false
		}
		if !strings.EqualFold(body[i:i+len(word)], word) {
			return false
		}
		if i > 0 && !tokenEnds(i-1) {
			return false
		}
		return tokenEnds(i + len(word))
	}

	for i := 0; i < len(body); i++ {
		c := body[i]

		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				// Doubled quote is an escape, not a terminator.
				if i+1 < len(body) && body[i+1] == quote {
					current.WriteByte(body[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == '(':
			depth++
			current.WriteByte(c)
		case c == ')':
			depth--
			current.WriteByte(c)
		case wordAt(i, "BEGIN"):
			blocks++
			current.WriteString(body[i : i+5])
			i += 4
		case wordAt(i, "CASE"):
			blocks++
			current.WriteString(body[i : i+4])
			i += 3
		case wordAt(i, "END"):
			blocks--
			current.WriteString(body[i : i+3])
			i += 2
		case c == ';' && depth == 0 && blocks == 0:
			if s := strings.TrimSpace(current.String()); s != "" {
				stmts = append(stmts, s)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
