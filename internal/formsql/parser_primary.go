package formsql

import (
	"fmt"
	"strings"
)

// Primary expression parsing: literals, field references, variables,
// function calls, CASE, and subqueries.

// systemColumns maps recognized system column names to themselves.
var systemColumns = map[string]bool{
	"submission_id": true,
	"submitted_by":  true,
	"submitted_at":  true,
}

// aggregateFuncs is the set of recognized aggregate function names.
var aggregateFuncs = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// IsAggregateFunc reports whether name is an aggregate function name,
// matched case-insensitively.
func IsAggregateFunc(name string) bool {
	return aggregateFuncs[strings.ToUpper(name)]
}

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		// A quoted UUID outside FIELD() is still a plain string; only
		// FIELD()/VALUE_OF() arguments become field references.
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "true"}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "false"}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_VAR:
		ref := &VarRef{Name: p.token.Literal}
		p.nextToken()
		return ref

	case TOKEN_IDENT:
		return p.parseIdentifierExpr()

	case TOKEN_LPAREN:
		return p.parseParenExpr()

	default:
		p.addError(fmt.Sprintf("unexpected token in expression: %s (%q)", p.token.Type, p.token.Literal))
		p.nextToken()
		return nil
	}
}

// parseIdentifierExpr parses an identifier: a FIELD()/VALUE_OF() wrapper,
// a bare UUID field id, a system column, a function call, or a plain
// column reference.
func (p *Parser) parseIdentifierExpr() Expr {
	name := p.token.Literal

	// FIELD("uuid") and VALUE_OF("uuid") are treated identically.
	if isFieldWrapper(name) && p.checkPeek(TOKEN_LPAREN) {
		return p.parseFieldWrapper(name)
	}

	if IsFieldID(name) {
		p.nextToken()
		return &FieldRef{FieldID: strings.ToLower(name)}
	}

	if systemColumns[strings.ToLower(name)] {
		p.nextToken()
		return &SystemColumn{Name: strings.ToLower(name)}
	}

	p.nextToken()

	// Function call: name(...)
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(name)
	}

	// Plain column reference (field label or system-table column).
	return &ColumnRef{Name: name}
}

// isFieldWrapper reports whether name is one of the field access wrappers.
func isFieldWrapper(name string) bool {
	return strings.EqualFold(name, "FIELD") || strings.EqualFold(name, "VALUE_OF")
}

// parseFieldWrapper parses FIELD("uuid") or VALUE_OF("uuid") into the
// canonical FieldRef node.
func (p *Parser) parseFieldWrapper(wrapper string) Expr {
	p.nextToken() // consume FIELD / VALUE_OF
	p.expect(TOKEN_LPAREN)

	var id string
	switch p.token.Type {
	case TOKEN_STRING, TOKEN_IDENT:
		id = p.token.Literal
	default:
		p.addError(fmt.Sprintf("expected field id in %s(), got %q", strings.ToUpper(wrapper), p.token.Literal))
		return nil
	}
	p.nextToken()
	p.expect(TOKEN_RPAREN)

	if !IsFieldID(id) {
		p.addError(fmt.Sprintf("invalid field id %q: field ids must be UUID-shaped", id))
		return nil
	}
	return &FieldRef{FieldID: strings.ToLower(id)}
}

// parseFuncCall parses a function call: name([args]) or COUNT(*).
func (p *Parser) parseFuncCall(name string) Expr {
	fn := &FuncCall{Name: name}

	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(TOKEN_RPAREN) {
		fn.Args = p.parseExpressionList()
	}

	p.expect(TOKEN_RPAREN)
	return fn
}

// parseCaseExpr parses a searched CASE expression:
// CASE WHEN cond THEN val [WHEN ...]* [ELSE val] END.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	for p.check(TOKEN_WHEN) {
		p.nextToken()
		when := WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}

	if len(caseExpr.Whens) == 0 {
		p.addError("CASE requires at least one WHEN clause")
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseParenExpr parses a parenthesized expression or a scalar subquery.
func (p *Parser) parseParenExpr() Expr {
	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_SELECT) {
		sub := &SubqueryExpr{Select: p.parseSelectStatement()}
		p.expect(TOKEN_RPAREN)
		return sub
	}

	expr := p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return &ParenExpr{Expr: expr}
}
