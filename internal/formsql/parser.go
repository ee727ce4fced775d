package formsql

import (
	"fmt"
	"strings"
)

// Parser parses a statement into an AST.
type Parser struct {
	lexer  *Lexer
	input  string // original input for raw block extraction
	token  Token  // current token
	peek   Token  // lookahead token
	peek2  Token  // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given statement input.
func NewParser(statement string) *Parser {
	p := &Parser{
		lexer: NewLexer(statement),
		input: statement,
	}
	// Initialize three-token lookahead
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse classifies and parses a single statement.
// A trailing semicolon is tolerated; multi-statement input is rejected.
func Parse(statement string) (Stmt, error) {
	statement = strings.TrimSpace(statement)
	statement = strings.TrimSuffix(statement, ";")
	if statement == "" {
		return nil, fmt.Errorf("empty statement")
	}

	p := NewParser(statement)
	stmt := p.parseTopLevel()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected input after statement: %q", p.token.Literal)
	}

	return stmt, nil
}

// ParseExpr parses a standalone expression. Used for compiling function
// bodies and evaluating procedural conditions.
func ParseExpr(input string) (Expr, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty expression")
	}

	p := NewParser(input)
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.token.Literal)
	}

	return expr, nil
}

// supportedForms lists the recognized statement shapes, used in the
// unsupported-statement error message.
const supportedForms = "SELECT, UPDATE FORM, INSERT, DECLARE, SET, IF, WHILE, CREATE FUNCTION"

// parseTopLevel dispatches to the appropriate statement parser.
// Keyword priority is fixed: CREATE FUNCTION, DECLARE, SET, IF, WHILE,
// UPDATE FORM, INSERT, SELECT.
func (p *Parser) parseTopLevel() Stmt {
	switch p.token.Type {
	case TOKEN_CREATE:
		return p.parseCreateFunctionStatement()
	case TOKEN_DECLARE:
		return p.parseDeclareStatement()
	case TOKEN_SET:
		return p.parseSetStatement()
	case TOKEN_IF:
		return p.parseIfStatement()
	case TOKEN_WHILE:
		return p.parseWhileStatement()
	case TOKEN_UPDATE:
		return p.parseUpdateStatement()
	case TOKEN_INSERT:
		return p.parseInsertStatement()
	case TOKEN_SELECT:
		return p.parseSelectStatement()
	default:
		p.addError(fmt.Sprintf("unsupported statement %q: expected one of %s", p.token.Literal, supportedForms))
		return nil
	}
}

// Classify reports the statement kind of an input by its leading
// keywords, without a full parse. Used for history records and metrics.
func Classify(input string) string {
	words := strings.Fields(strings.ToUpper(strings.TrimSpace(input)))
	if len(words) == 0 {
		return "EMPTY"
	}
	switch words[0] {
	case "SELECT":
		return "SELECT"
	case "UPDATE":
		return "UPDATE_FORM"
	case "INSERT":
		return "INSERT"
	case "DECLARE":
		return "DECLARE"
	case "SET":
		return "SET"
	case "IF":
		return "IF"
	case "WHILE":
		return "WHILE"
	case "CREATE":
		return "CREATE_FUNCTION"
	default:
		return "UNKNOWN"
	}
}

// === Token Helpers ===

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchSoftKeyword consumes the current token if it's an identifier
// matching the given soft keyword (case-insensitive).
func (p *Parser) matchSoftKeyword(keyword string) bool {
	if p.check(TOKEN_IDENT) && strings.EqualFold(p.token.Literal, keyword) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected token %s, expected %s", p.token.Type, t))
	return false
}

// addError adds a parse error.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Errorf("syntax error: %s", msg))
}
