package formsql

import (
	"strings"
	"unicode"
)

// Lexer tokenizes statement input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case 0:
		tok.Type = TOKEN_EOF
		tok.Literal = ""
		return tok
	case '+':
		tok.Type, tok.Literal = TOKEN_PLUS, "+"
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			if l.peekChar() == '>' {
				l.readChar()
				tok.Type, tok.Literal = TOKEN_DARROW, "->>"
			} else {
				tok.Type, tok.Literal = TOKEN_ARROW, "->"
			}
		} else {
			tok.Type, tok.Literal = TOKEN_MINUS, "-"
		}
	case '*':
		tok.Type, tok.Literal = TOKEN_STAR, "*"
	case '/':
		tok.Type, tok.Literal = TOKEN_SLASH, "/"
	case '%':
		tok.Type, tok.Literal = TOKEN_MOD, "%"
	case '=':
		tok.Type, tok.Literal = TOKEN_EQ, "="
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type, tok.Literal = TOKEN_LE, "<="
		case '>':
			l.readChar()
			tok.Type, tok.Literal = TOKEN_NE, "<>"
		default:
			tok.Type, tok.Literal = TOKEN_LT, "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = TOKEN_GE, ">="
		} else {
			tok.Type, tok.Literal = TOKEN_GT, ">"
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = TOKEN_NE, "!="
		} else {
			tok.Type, tok.Literal = TOKEN_ILLEGAL, string(l.ch)
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok.Type, tok.Literal = TOKEN_DPIPE, "||"
		} else {
			tok.Type, tok.Literal = TOKEN_ILLEGAL, string(l.ch)
		}
	case '.':
		tok.Type, tok.Literal = TOKEN_DOT, "."
	case ',':
		tok.Type, tok.Literal = TOKEN_COMMA, ","
	case ';':
		tok.Type, tok.Literal = TOKEN_SEMICOLON, ";"
	case '(':
		tok.Type, tok.Literal = TOKEN_LPAREN, "("
	case ')':
		tok.Type, tok.Literal = TOKEN_RPAREN, ")"
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok.Type, tok.Literal = TOKEN_DCOLON, "::"
		} else {
			tok.Type, tok.Literal = TOKEN_ILLEGAL, string(l.ch)
		}
	case '@':
		l.readChar() // advance past @
		start := l.pos
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		tok.Type = TOKEN_VAR
		tok.Literal = l.input[start:l.pos]
		return tok
	case '\'':
		tok.Type = TOKEN_STRING
		tok.Literal = l.readString('\'')
		return tok
	case '"':
		tok.Type = TOKEN_STRING
		tok.Literal = l.readString('"')
		return tok
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			// A bare field id may start with a hex letter; check the
			// UUID shape before reading a plain identifier.
			if id, ok := l.readUUID(); ok {
				tok.Type = TOKEN_IDENT
				tok.Literal = id
				return tok
			}
			literal := l.readIdentifier()
			tok.Literal = literal
			tok.Type = lookupKeyword(strings.ToLower(literal))
			return tok
		case isDigit(l.ch):
			// Same for ids starting with a digit: UUID first, else number.
			if id, ok := l.readUUID(); ok {
				tok.Type = TOKEN_IDENT
				tok.Literal = id
				return tok
			}
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok.Type, tok.Literal = TOKEN_ILLEGAL, string(l.ch)
		}
	}

	l.readChar()
	return tok
}

// skipWhitespaceAndComments skips whitespace and line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		// Line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		break
	}
}

// readString reads a quoted string literal delimited by quote.
// Handles doubled quotes for embedded delimiters.
func (l *Lexer) readString(quote byte) string {
	l.readChar() // skip opening quote
	var result strings.Builder
	for l.ch != 0 {
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
			} else {
				l.readChar() // skip closing quote
				break
			}
		} else {
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readUUID consumes a bare UUID token if the input at the current
// position matches the 8-4-4-4-12 hex shape and the character after it
// cannot extend an identifier. Returns false without consuming anything
// otherwise.
func (l *Lexer) readUUID() (string, bool) {
	if l.pos+36 > len(l.input) {
		return "", false
	}
	candidate := l.input[l.pos : l.pos+36]
	if !uuidShaped(candidate) {
		return "", false
	}
	if l.pos+36 < len(l.input) {
		next := l.input[l.pos+36]
		if isLetter(next) || isDigit(next) || next == '_' {
			return "", false
		}
	}
	for i := 0; i < 36; i++ {
		l.readChar()
	}
	return candidate, true
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip .
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// uuidShaped reports whether s matches the 8-4-4-4-12 lowercase-or-upper
// hex UUID layout. This is the cheap lexer-level check; full validation
// happens in IsFieldID.
func uuidShaped(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < 36; i++ {
		switch i {
		case 8, 13, 18, 23:
			if s[i] != '-' {
				return false
			}
		default:
			if !isHexDigit(s[i]) {
				return false
			}
		}
	}
	return true
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
