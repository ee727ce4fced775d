// Package formsql provides the lexer, parser, and AST for the form
// submission query language.
//
// The language is a small SQL dialect: SELECT with the usual clauses,
// UPDATE FORM, INSERT, plus a procedural extension (DECLARE, SET, IF,
// WHILE, CREATE FUNCTION). Field access is written FIELD("uuid") or
// VALUE_OF("uuid"); both parse to the same canonical FieldRef node.
package formsql

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // identifier (includes bare UUID field ids)
	TOKEN_NUMBER // 123, 45.67, 1e10
	TOKEN_STRING // 'hello' or "hello"
	TOKEN_VAR    // @name

	TOKEN_PLUS      // +
	TOKEN_MINUS     // -
	TOKEN_STAR      // *
	TOKEN_SLASH     // /
	TOKEN_MOD       // %
	TOKEN_DPIPE     // || (string concatenation)
	TOKEN_EQ        // =
	TOKEN_NE        // != or <>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LE        // <=
	TOKEN_GE        // >=
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_DCOLON    // :: (jsonb cast)
	TOKEN_ARROW     // -> (json index/key step)
	TOKEN_DARROW    // ->> (json text extraction step)

	// TOKEN_AND and below are keywords (alphabetical).
	TOKEN_AND
	TOKEN_AS
	TOKEN_ASC
	TOKEN_BEGIN
	TOKEN_BETWEEN
	TOKEN_BY
	TOKEN_CASE
	TOKEN_CREATE
	TOKEN_DECLARE
	TOKEN_DESC
	TOKEN_DISTINCT
	TOKEN_ELSE
	TOKEN_END
	TOKEN_FALSE
	TOKEN_FORM
	TOKEN_FROM
	TOKEN_FUNCTION
	TOKEN_GROUP
	TOKEN_HAVING
	TOKEN_IF
	TOKEN_ILIKE
	TOKEN_IN
	TOKEN_INSERT
	TOKEN_INTO
	TOKEN_IS
	TOKEN_LIKE
	TOKEN_LIMIT
	TOKEN_NOT
	TOKEN_NULL
	TOKEN_OFFSET
	TOKEN_OR
	TOKEN_ORDER
	TOKEN_RETURN
	TOKEN_RETURNS
	TOKEN_SELECT
	TOKEN_SET
	TOKEN_THEN
	TOKEN_TRUE
	TOKEN_UPDATE
	TOKEN_VALUES
	TOKEN_WHEN
	TOKEN_WHERE
	TOKEN_WHILE
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	TOKEN_EOF:     "EOF",
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_IDENT:   "IDENT",
	TOKEN_NUMBER:  "NUMBER",
	TOKEN_STRING:  "STRING",
	TOKEN_VAR:     "VAR",

	TOKEN_PLUS:      "+",
	TOKEN_MINUS:     "-",
	TOKEN_STAR:      "*",
	TOKEN_SLASH:     "/",
	TOKEN_MOD:       "%",
	TOKEN_DPIPE:     "||",
	TOKEN_EQ:        "=",
	TOKEN_NE:        "!=",
	TOKEN_LT:        "<",
	TOKEN_GT:        ">",
	TOKEN_LE:        "<=",
	TOKEN_GE:        ">=",
	TOKEN_DOT:       ".",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_DCOLON:    "::",
	TOKEN_ARROW:     "->",
	TOKEN_DARROW:    "->>",

	TOKEN_AND:      "AND",
	TOKEN_AS:       "AS",
	TOKEN_ASC:      "ASC",
	TOKEN_BEGIN:    "BEGIN",
	TOKEN_BETWEEN:  "BETWEEN",
	TOKEN_BY:       "BY",
	TOKEN_CASE:     "CASE",
	TOKEN_CREATE:   "CREATE",
	TOKEN_DECLARE:  "DECLARE",
	TOKEN_DESC:     "DESC",
	TOKEN_DISTINCT: "DISTINCT",
	TOKEN_ELSE:     "ELSE",
	TOKEN_END:      "END",
	TOKEN_FALSE:    "FALSE",
	TOKEN_FORM:     "FORM",
	TOKEN_FROM:     "FROM",
	TOKEN_FUNCTION: "FUNCTION",
	TOKEN_GROUP:    "GROUP",
	TOKEN_HAVING:   "HAVING",
	TOKEN_IF:       "IF",
	TOKEN_ILIKE:    "ILIKE",
	TOKEN_IN:       "IN",
	TOKEN_INSERT:   "INSERT",
	TOKEN_INTO:     "INTO",
	TOKEN_IS:       "IS",
	TOKEN_LIKE:     "LIKE",
	TOKEN_LIMIT:    "LIMIT",
	TOKEN_NOT:      "NOT",
	TOKEN_NULL:     "NULL",
	TOKEN_OFFSET:   "OFFSET",
	TOKEN_OR:       "OR",
	TOKEN_ORDER:    "ORDER",
	TOKEN_RETURN:   "RETURN",
	TOKEN_RETURNS:  "RETURNS",
	TOKEN_SELECT:   "SELECT",
	TOKEN_SET:      "SET",
	TOKEN_THEN:     "THEN",
	TOKEN_TRUE:     "TRUE",
	TOKEN_UPDATE:   "UPDATE",
	TOKEN_VALUES:   "VALUES",
	TOKEN_WHEN:     "WHEN",
	TOKEN_WHERE:    "WHERE",
	TOKEN_WHILE:    "WHILE",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"and":      TOKEN_AND,
	"as":       TOKEN_AS,
	"asc":      TOKEN_ASC,
	"begin":    TOKEN_BEGIN,
	"between":  TOKEN_BETWEEN,
	"by":       TOKEN_BY,
	"case":     TOKEN_CASE,
	"create":   TOKEN_CREATE,
	"declare":  TOKEN_DECLARE,
	"desc":     TOKEN_DESC,
	"distinct": TOKEN_DISTINCT,
	"else":     TOKEN_ELSE,
	"end":      TOKEN_END,
	"false":    TOKEN_FALSE,
	"form":     TOKEN_FORM,
	"from":     TOKEN_FROM,
	"function": TOKEN_FUNCTION,
	"group":    TOKEN_GROUP,
	"having":   TOKEN_HAVING,
	"if":       TOKEN_IF,
	"ilike":    TOKEN_ILIKE,
	"in":       TOKEN_IN,
	"insert":   TOKEN_INSERT,
	"into":     TOKEN_INTO,
	"is":       TOKEN_IS,
	"like":     TOKEN_LIKE,
	"limit":    TOKEN_LIMIT,
	"not":      TOKEN_NOT,
	"null":     TOKEN_NULL,
	"offset":   TOKEN_OFFSET,
	"or":       TOKEN_OR,
	"order":    TOKEN_ORDER,
	"return":   TOKEN_RETURN,
	"returns":  TOKEN_RETURNS,
	"select":   TOKEN_SELECT,
	"set":      TOKEN_SET,
	"then":     TOKEN_THEN,
	"true":     TOKEN_TRUE,
	"update":   TOKEN_UPDATE,
	"values":   TOKEN_VALUES,
	"when":     TOKEN_WHEN,
	"where":    TOKEN_WHERE,
	"while":    TOKEN_WHILE,
}

// lookupKeyword returns the token type for the given lowercase identifier.
// Returns TOKEN_IDENT if it's not a keyword.
func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// Token represents a lexical token with its literal value and the byte
// offset of its first character in the input. Offsets let the parser
// extract raw BEGIN ... END block bodies verbatim.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Precedence constants for operator precedence parsing (Pratt parser).
const (
	PrecedenceNone       = 0
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4 // =, !=, <, >, <=, >=, LIKE, ILIKE, IN, BETWEEN, IS
	PrecedenceAddition   = 5 // +, -, ||
	PrecedenceMultiply   = 6 // *, /, %
	PrecedenceUnary      = 7 // -, +, NOT (prefix)
	PrecedencePostfix    = 8 // ::, ->, ->>
)
