package formsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return toks
		}
		require.NotEqual(t, TOKEN_ILLEGAL, tok.Type, "illegal token %q", tok.Literal)
		toks = append(toks, tok)
	}
}

func TestLexer_Operators(t *testing.T) {
	toks := lexAll(t, "+ - * / % || = != <> < > <= >= :: -> ->> ( ) , ;")
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD,
		TOKEN_DPIPE, TOKEN_EQ, TOKEN_NE, TOKEN_NE, TOKEN_LT, TOKEN_GT,
		TOKEN_LE, TOKEN_GE, TOKEN_DCOLON, TOKEN_ARROW, TOKEN_DARROW,
		TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_COMMA, TOKEN_SEMICOLON,
	}, types)
}

func TestLexer_KeywordsCaseInsensitive(t *testing.T) {
	toks := lexAll(t, "select SELECT SeLeCt")
	require.Len(t, toks, 3)
	for _, tok := range toks {
		assert.Equal(t, TOKEN_SELECT, tok.Type)
	}
}

func TestLexer_Strings(t *testing.T) {
	toks := lexAll(t, `'hello' "world" 'it''s'`)
	require.Len(t, toks, 3)
	assert.Equal(t, "hello", toks[0].Literal)
	assert.Equal(t, "world", toks[1].Literal)
	assert.Equal(t, "it's", toks[2].Literal)
	for _, tok := range toks {
		assert.Equal(t, TOKEN_STRING, tok.Type)
	}
}

func TestLexer_Numbers(t *testing.T) {
	toks := lexAll(t, "1 42.5 1e10 3.14E-2")
	require.Len(t, toks, 4)
	assert.Equal(t, "1", toks[0].Literal)
	assert.Equal(t, "42.5", toks[1].Literal)
	assert.Equal(t, "1e10", toks[2].Literal)
	assert.Equal(t, "3.14E-2", toks[3].Literal)
}

func TestLexer_Variables(t *testing.T) {
	toks := lexAll(t, "@counter @total_score")
	require.Len(t, toks, 2)
	assert.Equal(t, TOKEN_VAR, toks[0].Type)
	assert.Equal(t, "counter", toks[0].Literal)
	assert.Equal(t, "total_score", toks[1].Literal)
}

func TestLexer_BareUUID(t *testing.T) {
	toks := lexAll(t, "0f3a1c2e-9b7d-4f6a-8e2b-1d5c7a9e3f01")
	require.Len(t, toks, 1)
	assert.Equal(t, TOKEN_IDENT, toks[0].Type)
	assert.Equal(t, "0f3a1c2e-9b7d-4f6a-8e2b-1d5c7a9e3f01", toks[0].Literal)
}

func TestLexer_UUIDStartingWithDigitIsNotANumber(t *testing.T) {
	// Without lookahead "7b..." would lex as number 7 then garbage.
	toks := lexAll(t, "7b3a1c2e-9b7d-4f6a-8e2b-1d5c7a9e3f01")
	require.Len(t, toks, 1)
	assert.Equal(t, TOKEN_IDENT, toks[0].Type)
}

func TestLexer_HyphenatedIdentifiersStayShort(t *testing.T) {
	// abc-def is subtraction, not one identifier.
	toks := lexAll(t, "abc-def")
	require.Len(t, toks, 3)
	assert.Equal(t, TOKEN_IDENT, toks[0].Type)
	assert.Equal(t, TOKEN_MINUS, toks[1].Type)
	assert.Equal(t, TOKEN_IDENT, toks[2].Type)
}

func TestLexer_LineComments(t *testing.T) {
	toks := lexAll(t, "SELECT -- comment here\n 1")
	require.Len(t, toks, 2)
	assert.Equal(t, TOKEN_SELECT, toks[0].Type)
	assert.Equal(t, TOKEN_NUMBER, toks[1].Type)
}

func TestLexer_ArrowVsMinus(t *testing.T) {
	toks := lexAll(t, "a - b -> 1 ->> 'k'")
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TOKEN_IDENT, TOKEN_MINUS, TOKEN_IDENT,
		TOKEN_ARROW, TOKEN_NUMBER, TOKEN_DARROW, TOKEN_STRING,
	}, types)
}

func TestLexer_TokenPositions(t *testing.T) {
	l := NewLexer("SELECT a")
	tok := l.NextToken()
	assert.Equal(t, 0, tok.Pos)
	tok = l.NextToken()
	assert.Equal(t, 7, tok.Pos)
}
