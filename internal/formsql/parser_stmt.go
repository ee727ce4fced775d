package formsql

import (
	"fmt"
	"strconv"
	"strings"
)

// === SELECT ===

// parseSelectStatement parses a full SELECT statement. Clause keywords
// may appear across multiple lines; the lexer already ignores newlines.
func (p *Parser) parseSelectStatement() *SelectStmt {
	stmt := &SelectStmt{}

	p.expect(TOKEN_SELECT)
	stmt.Distinct = p.match(TOKEN_DISTINCT)

	stmt.Items = p.parseSelectItems()

	if !p.check(TOKEN_FROM) {
		p.addError("expected SELECT <items> FROM '<form-id>'")
		return stmt
	}
	p.nextToken()
	stmt.Target = p.parseTarget()

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		stmt.GroupBy = p.parseExpressionList()
	}

	if p.match(TOKEN_HAVING) {
		stmt.Having = p.parseExpression()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		stmt.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		stmt.Limit = p.parseBoundedInt("LIMIT")
	}

	if p.match(TOKEN_OFFSET) {
		stmt.Offset = p.parseBoundedInt("OFFSET")
	}

	return stmt
}

// parseSelectItems parses the comma-separated select list.
func (p *Parser) parseSelectItems() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses one select item, tagging aggregates so the
// pipeline sees the wrapped reference rather than a pre-evaluated value.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}

	if p.check(TOKEN_STAR) {
		p.nextToken()
		item.Star = true
		return item
	}

	item.Expr = p.parseExpression()

	if fn, ok := item.Expr.(*FuncCall); ok {
		upper := strings.ToUpper(fn.Name)
		if aggregateFuncs[upper] {
			agg := &AggregateRef{Func: upper, Star: fn.Star}
			if !fn.Star {
				if len(fn.Args) != 1 {
					p.addError(fmt.Sprintf("%s expects exactly one argument", upper))
				} else {
					agg.Arg = fn.Args[0]
				}
			}
			item.Aggregate = agg
		}
	}

	if p.match(TOKEN_AS) {
		item.Alias = p.parseAlias()
	} else if p.check(TOKEN_IDENT) && !IsFieldID(p.token.Literal) {
		item.Alias = p.parseAlias()
	}

	return item
}

// parseAlias reads an alias identifier or quoted string.
func (p *Parser) parseAlias() string {
	switch p.token.Type {
	case TOKEN_IDENT, TOKEN_STRING:
		alias := p.token.Literal
		p.nextToken()
		return alias
	default:
		p.addError(fmt.Sprintf("expected alias, got %q", p.token.Literal))
		return ""
	}
}

// parseTarget parses the FROM target: a quoted form id, or a system
// table name from the fixed allow-list.
func (p *Parser) parseTarget() Target {
	switch p.token.Type {
	case TOKEN_STRING:
		lit := p.token.Literal
		p.nextToken()
		if IsFieldID(lit) {
			return Target{FormID: strings.ToLower(lit)}
		}
		if SystemTables[strings.ToLower(lit)] {
			return Target{System: strings.ToLower(lit)}
		}
		p.addError(fmt.Sprintf("invalid FROM target %q: expected a form id or a system table", lit))
	case TOKEN_IDENT:
		name := p.token.Literal
		p.nextToken()
		if IsFieldID(name) {
			return Target{FormID: strings.ToLower(name)}
		}
		if SystemTables[strings.ToLower(name)] {
			return Target{System: strings.ToLower(name)}
		}
		p.addError(fmt.Sprintf("invalid FROM target %q: expected a form id or a system table", name))
	default:
		p.addError("expected SELECT ... FROM '<form-id>'")
	}
	return Target{}
}

// parseOrderByList parses a comma-separated ORDER BY list.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpression()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseBoundedInt parses a non-negative integer for LIMIT/OFFSET.
func (p *Parser) parseBoundedInt(clause string) *int {
	if !p.check(TOKEN_NUMBER) {
		p.addError(fmt.Sprintf("expected integer after %s", clause))
		return nil
	}
	n, err := strconv.Atoi(p.token.Literal)
	if err != nil || n < 0 {
		p.addError(fmt.Sprintf("invalid %s value %q", clause, p.token.Literal))
		return nil
	}
	p.nextToken()
	return &n
}

// === UPDATE FORM ===

// parseUpdateStatement parses
// UPDATE FORM '<formId>' SET FIELD('<fieldId>') = <value> WHERE <cond>.
func (p *Parser) parseUpdateStatement() Stmt {
	stmt := &UpdateFormStmt{}

	p.expect(TOKEN_UPDATE)
	if !p.expect(TOKEN_FORM) {
		return stmt
	}

	stmt.FormID = p.parseFormID()

	if !p.expect(TOKEN_SET) {
		return stmt
	}

	target := p.parsePrimary()
	ref, ok := target.(*FieldRef)
	if !ok {
		p.addError("UPDATE FORM target must be FIELD('<field-id>')")
		return stmt
	}
	stmt.FieldID = ref.FieldID

	p.expect(TOKEN_EQ)

	stmt.Value = p.parseUpdateValue()

	if !p.expect(TOKEN_WHERE) {
		return stmt
	}
	stmt.Where = p.parseExpression()

	return stmt
}

// parseUpdateValue parses and classifies the SET value expression.
func (p *Parser) parseUpdateValue() UpdateValue {
	// Parenthesized SELECT is a subquery, resolved once before the batch.
	if p.check(TOKEN_LPAREN) && p.checkPeek(TOKEN_SELECT) {
		p.nextToken() // consume (
		sub := p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
		return UpdateValue{Kind: UpdateSubquery, Subquery: sub}
	}

	expr := p.parseExpressionWithPrecedence(PrecedenceComparison + 1)
	switch e := expr.(type) {
	case *FieldRef:
		return UpdateValue{Kind: UpdateFieldCopy, Field: e}
	case *Literal:
		return UpdateValue{Kind: UpdateLiteral, Literal: e}
	default:
		return UpdateValue{Kind: UpdateComputed, Expr: expr}
	}
}

// parseFormID reads a quoted or bare form id and validates its shape.
func (p *Parser) parseFormID() string {
	switch p.token.Type {
	case TOKEN_STRING, TOKEN_IDENT:
		id := p.token.Literal
		p.nextToken()
		if !IsFieldID(id) {
			p.addError(fmt.Sprintf("invalid form id %q: form ids must be UUID-shaped", id))
			return ""
		}
		return strings.ToLower(id)
	default:
		p.addError("expected form id")
		return ""
	}
}

// === INSERT ===

// parseInsertStatement parses
// INSERT [INTO] [FORM] '<formId>' (<cols>) VALUES (<vals>)[, ...] | SELECT ...
func (p *Parser) parseInsertStatement() Stmt {
	stmt := &InsertFormStmt{}

	p.expect(TOKEN_INSERT)
	p.match(TOKEN_INTO)
	p.match(TOKEN_FORM)

	stmt.FormID = p.parseFormID()

	if !p.expect(TOKEN_LPAREN) {
		return stmt
	}
	stmt.Columns = p.parseInsertColumns()
	p.expect(TOKEN_RPAREN)

	switch {
	case p.check(TOKEN_VALUES):
		p.nextToken()
		for {
			if !p.expect(TOKEN_LPAREN) {
				return stmt
			}
			stmt.Rows = append(stmt.Rows, p.parseExpressionList())
			p.expect(TOKEN_RPAREN)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	case p.check(TOKEN_SELECT):
		stmt.Query = p.parseSelectStatement()
	default:
		p.addError("expected VALUES (...) or SELECT after column list")
	}

	return stmt
}

// parseInsertColumns parses the insert column list. Columns may be
// labels, field ids, or FIELD("id") wrappers; wrappers are unwrapped to
// the bare id here and everything else is resolved against form
// metadata at execution time.
func (p *Parser) parseInsertColumns() []string {
	var cols []string
	for {
		switch {
		case p.check(TOKEN_IDENT) && isFieldWrapper(p.token.Literal) && p.checkPeek(TOKEN_LPAREN):
			ref := p.parseFieldWrapper(p.token.Literal)
			if fr, ok := ref.(*FieldRef); ok {
				cols = append(cols, fr.FieldID)
			}
		case p.check(TOKEN_IDENT) || p.check(TOKEN_STRING):
			cols = append(cols, p.token.Literal)
			p.nextToken()
		default:
			p.addError(fmt.Sprintf("expected column reference, got %q", p.token.Literal))
			return cols
		}
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return cols
}

// === DECLARE / SET ===

// parseDeclareStatement parses DECLARE @name TYPE [= expr].
func (p *Parser) parseDeclareStatement() Stmt {
	stmt := &DeclareStmt{}

	p.expect(TOKEN_DECLARE)
	if !p.check(TOKEN_VAR) {
		p.addError("expected @name after DECLARE")
		return stmt
	}
	stmt.Name = p.token.Literal
	p.nextToken()

	if !p.check(TOKEN_IDENT) {
		p.addError("expected type after variable name")
		return stmt
	}
	stmt.Type = strings.ToUpper(p.token.Literal)
	p.nextToken()

	// VARCHAR(50)-style length suffix is tolerated and ignored.
	if p.check(TOKEN_LPAREN) {
		p.nextToken()
		p.match(TOKEN_NUMBER)
		p.expect(TOKEN_RPAREN)
	}

	if p.match(TOKEN_EQ) {
		stmt.Init = p.parseExpression()
	}

	return stmt
}

// parseSetStatement parses SET @name = expr.
func (p *Parser) parseSetStatement() Stmt {
	stmt := &SetStmt{}

	p.expect(TOKEN_SET)
	if !p.check(TOKEN_VAR) {
		p.addError("expected @name after SET")
		return stmt
	}
	stmt.Name = p.token.Literal
	p.nextToken()

	p.expect(TOKEN_EQ)
	stmt.Expr = p.parseExpression()

	return stmt
}

// === IF / WHILE ===

// parseIfStatement parses
// IF <cond> BEGIN ... END [ELSE IF <cond> BEGIN ... END]* [ELSE BEGIN ... END].
func (p *Parser) parseIfStatement() Stmt {
	stmt := &IfStmt{}

	p.expect(TOKEN_IF)
	for {
		branch := IfBranch{}
		branch.Condition = p.parseExpression()
		branch.Body = p.parseBlock()
		stmt.Branches = append(stmt.Branches, branch)

		if !p.match(TOKEN_ELSE) {
			break
		}
		if p.match(TOKEN_IF) {
			continue // ELSE IF: next loop iteration parses cond + block
		}
		stmt.HasElse = true
		stmt.Else = p.parseBlock()
		break
	}

	return stmt
}

// parseWhileStatement parses WHILE <cond> BEGIN ... END.
func (p *Parser) parseWhileStatement() Stmt {
	stmt := &WhileStmt{}

	p.expect(TOKEN_WHILE)
	stmt.Condition = p.parseExpression()
	stmt.Body = p.parseBlock()

	return stmt
}

// parseBlock captures the raw text between BEGIN and its matching END.
// CASE expressions inside the block also terminate with END, so nesting
// depth counts both BEGIN and CASE as openers.
func (p *Parser) parseBlock() string {
	if !p.expect(TOKEN_BEGIN) {
		return ""
	}

	start := p.token.Pos
	depth := 1
	for {
		switch p.token.Type {
		case TOKEN_EOF:
			p.addError("missing END for BEGIN block")
			return ""
		case TOKEN_BEGIN, TOKEN_CASE:
			depth++
		case TOKEN_END:
			depth--
			if depth == 0 {
				body := strings.TrimSpace(p.input[start:p.token.Pos])
				p.nextToken() // consume END
				return body
			}
		}
		p.nextToken()
	}
}

// === CREATE FUNCTION ===

// parseCreateFunctionStatement parses
// CREATE FUNCTION name(@p TYPE, ...) RETURNS TYPE AS BEGIN ... END.
func (p *Parser) parseCreateFunctionStatement() Stmt {
	stmt := &CreateFunctionStmt{}

	p.expect(TOKEN_CREATE)
	if !p.expect(TOKEN_FUNCTION) {
		p.addError(fmt.Sprintf("unsupported CREATE statement: expected one of %s", supportedForms))
		return stmt
	}

	if !p.check(TOKEN_IDENT) {
		p.addError("expected function name")
		return stmt
	}
	stmt.Name = p.token.Literal
	p.nextToken()

	if !p.expect(TOKEN_LPAREN) {
		return stmt
	}
	if !p.check(TOKEN_RPAREN) {
		for {
			if !p.check(TOKEN_VAR) {
				p.addError("expected @parameter name")
				return stmt
			}
			param := Param{Name: p.token.Literal}
			p.nextToken()

			if !p.check(TOKEN_IDENT) {
				p.addError(fmt.Sprintf("expected type for parameter @%s", param.Name))
				return stmt
			}
			param.Type = strings.ToUpper(p.token.Literal)
			p.nextToken()

			if p.check(TOKEN_LPAREN) { // VARCHAR(50)
				p.nextToken()
				p.match(TOKEN_NUMBER)
				p.expect(TOKEN_RPAREN)
			}

			stmt.Params = append(stmt.Params, param)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}
	p.expect(TOKEN_RPAREN)

	if !p.expect(TOKEN_RETURNS) {
		return stmt
	}
	if !p.check(TOKEN_IDENT) {
		p.addError("expected return type after RETURNS")
		return stmt
	}
	stmt.ReturnType = strings.ToUpper(p.token.Literal)
	p.nextToken()

	if p.check(TOKEN_LPAREN) { // VARCHAR(100)
		p.nextToken()
		p.match(TOKEN_NUMBER)
		p.expect(TOKEN_RPAREN)
	}

	if !p.expect(TOKEN_AS) {
		return stmt
	}
	stmt.Body = p.parseBlock()

	return stmt
}
