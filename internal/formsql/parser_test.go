package formsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFormID  = "11111111-2222-3333-4444-555555555555"
	testFieldID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	testField2  = "99999999-8888-7777-6666-555555555555"
)

func parseSelect(t *testing.T, input string) *SelectStmt {
	t.Helper()
	stmt, err := Parse(input)
	require.NoError(t, err)
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok, "expected *SelectStmt, got %T", stmt)
	return sel
}

// === Parse entry point ===

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParse_TrailingSemicolon(t *testing.T) {
	_, err := Parse("SELECT COUNT(*) FROM '" + testFormID + "';")
	require.NoError(t, err)
}

func TestParse_UnsupportedStatement(t *testing.T) {
	_, err := Parse("DROP TABLE users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported statement")
}

func TestParse_TrailingGarbage(t *testing.T) {
	_, err := Parse("SELECT 1 FROM '" + testFormID + "' EXTRA")
	require.Error(t, err)
}

// === SELECT ===

func TestParse_SelectStar(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM '"+testFormID+"'")
	require.Len(t, sel.Items, 1)
	assert.True(t, sel.Items[0].Star)
	assert.Equal(t, testFormID, sel.Target.FormID)
	assert.False(t, sel.Target.IsSystem())
}

func TestParse_SelectFieldWrappers(t *testing.T) {
	sel := parseSelect(t, `SELECT FIELD("`+testFieldID+`"), VALUE_OF('`+testField2+`') FROM '`+testFormID+`'`)
	require.Len(t, sel.Items, 2)

	ref, ok := sel.Items[0].Expr.(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, testFieldID, ref.FieldID)

	// VALUE_OF parses to the same node shape as FIELD.
	ref2, ok := sel.Items[1].Expr.(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, testField2, ref2.FieldID)
}

func TestParse_SelectBareUUIDField(t *testing.T) {
	sel := parseSelect(t, "SELECT "+testFieldID+" FROM '"+testFormID+"'")
	ref, ok := sel.Items[0].Expr.(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, testFieldID, ref.FieldID)
}

func TestParse_QuotedUUIDOutsideWrapperIsString(t *testing.T) {
	sel := parseSelect(t, "SELECT '"+testFieldID+"' FROM '"+testFormID+"'")
	lit, ok := sel.Items[0].Expr.(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralString, lit.Type)
}

func TestParse_SelectAliases(t *testing.T) {
	sel := parseSelect(t, `SELECT FIELD("`+testFieldID+`") AS score, submitted_at ts FROM '`+testFormID+`'`)
	require.Len(t, sel.Items, 2)
	assert.Equal(t, "score", sel.Items[0].Alias)
	assert.Equal(t, "ts", sel.Items[1].Alias)
	_, ok := sel.Items[1].Expr.(*SystemColumn)
	assert.True(t, ok)
}

func TestParse_SystemColumns(t *testing.T) {
	sel := parseSelect(t, "SELECT submission_id, submitted_by, submitted_at FROM '"+testFormID+"'")
	for i, name := range []string{"submission_id", "submitted_by", "submitted_at"} {
		col, ok := sel.Items[i].Expr.(*SystemColumn)
		require.True(t, ok)
		assert.Equal(t, name, col.Name)
	}
}

func TestParse_SystemTableTarget(t *testing.T) {
	sel := parseSelect(t, "SELECT name FROM users")
	assert.Equal(t, "users", sel.Target.System)
	assert.True(t, sel.Target.IsSystem())

	_, err := Parse("SELECT name FROM accounts")
	require.Error(t, err)
}

func TestParse_Distinct(t *testing.T) {
	sel := parseSelect(t, "SELECT DISTINCT FIELD('"+testFieldID+"') FROM '"+testFormID+"'")
	assert.True(t, sel.Distinct)
}

func TestParse_FullClauseSet(t *testing.T) {
	sel := parseSelect(t, `
		SELECT FIELD("`+testFieldID+`") AS dept, COUNT(*) AS n
		FROM '`+testFormID+`'
		WHERE FIELD("`+testField2+`") > 10
		GROUP BY FIELD("`+testFieldID+`")
		HAVING COUNT(*) > 2
		ORDER BY n DESC, dept
		LIMIT 10 OFFSET 5`)

	require.NotNil(t, sel.Where)
	require.Len(t, sel.GroupBy, 1)
	require.NotNil(t, sel.Having)
	require.Len(t, sel.OrderBy, 2)
	assert.True(t, sel.OrderBy[0].Desc)
	assert.False(t, sel.OrderBy[1].Desc)
	require.NotNil(t, sel.Limit)
	assert.Equal(t, 10, *sel.Limit)
	require.NotNil(t, sel.Offset)
	assert.Equal(t, 5, *sel.Offset)
}

func TestParse_AggregateTagging(t *testing.T) {
	sel := parseSelect(t, "SELECT COUNT(*), SUM(FIELD('"+testFieldID+"')), UPPER(submitted_by) FROM '"+testFormID+"'")
	require.Len(t, sel.Items, 3)

	require.True(t, sel.Items[0].IsAggregate())
	assert.Equal(t, "COUNT", sel.Items[0].Aggregate.Func)
	assert.True(t, sel.Items[0].Aggregate.Star)

	require.True(t, sel.Items[1].IsAggregate())
	assert.Equal(t, "SUM", sel.Items[1].Aggregate.Func)
	_, ok := sel.Items[1].Aggregate.Arg.(*FieldRef)
	assert.True(t, ok)

	assert.False(t, sel.Items[2].IsAggregate())
}

func TestParse_InvalidFieldID(t *testing.T) {
	_, err := Parse("SELECT FIELD('not-a-uuid') FROM '" + testFormID + "'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UUID-shaped")
}

func TestParse_NegativeLimit(t *testing.T) {
	_, err := Parse("SELECT * FROM '" + testFormID + "' LIMIT -1")
	require.Error(t, err)
}

// === Expression forms ===

func TestParseExpr_Precedence(t *testing.T) {
	expr, err := ParseExpr("1 + 2 * 3")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_PLUS, bin.Op)
	right := bin.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_STAR, right.Op)
}

func TestParseExpr_AndOrPrecedence(t *testing.T) {
	expr, err := ParseExpr("a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_OR, bin.Op)
	right := bin.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_AND, right.Op)
}

func TestParseExpr_Case(t *testing.T) {
	expr, err := ParseExpr("CASE WHEN a > 1 THEN 'hi' WHEN a > 0 THEN 'mid' ELSE 'lo' END")
	require.NoError(t, err)
	ce := expr.(*CaseExpr)
	assert.Len(t, ce.Whens, 2)
	require.NotNil(t, ce.Else)
}

func TestParseExpr_CaseRequiresWhen(t *testing.T) {
	_, err := ParseExpr("CASE ELSE 1 END")
	require.Error(t, err)
}

func TestParseExpr_InList(t *testing.T) {
	expr, err := ParseExpr("a IN ('x', 'y', 'z')")
	require.NoError(t, err)
	in := expr.(*InExpr)
	assert.False(t, in.Not)
	assert.Len(t, in.Values, 3)
	assert.Nil(t, in.Query)
}

func TestParseExpr_NotInSubquery(t *testing.T) {
	expr, err := ParseExpr("a NOT IN (SELECT name FROM users)")
	require.NoError(t, err)
	in := expr.(*InExpr)
	assert.True(t, in.Not)
	require.NotNil(t, in.Query)
	assert.Equal(t, "users", in.Query.Target.System)
}

func TestParseExpr_Between(t *testing.T) {
	expr, err := ParseExpr("a BETWEEN 1 AND 10")
	require.NoError(t, err)
	bt := expr.(*BetweenExpr)
	assert.False(t, bt.Not)
	require.NotNil(t, bt.Low)
	require.NotNil(t, bt.High)
}

func TestParseExpr_BetweenInsideAnd(t *testing.T) {
	// The AND that closes BETWEEN must not swallow the outer AND.
	expr, err := ParseExpr("a BETWEEN 1 AND 10 AND b = 2")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_AND, bin.Op)
	_, ok := bin.Left.(*BetweenExpr)
	assert.True(t, ok)
}

func TestParseExpr_LikeVariants(t *testing.T) {
	for _, tc := range []struct {
		input string
		not   bool
		ilike bool
	}{
		{"a LIKE 'x%'", false, false},
		{"a NOT LIKE 'x%'", true, false},
		{"a ILIKE '%y'", false, true},
		{"a NOT ILIKE '%y'", true, true},
	} {
		expr, err := ParseExpr(tc.input)
		require.NoError(t, err, tc.input)
		like := expr.(*LikeExpr)
		assert.Equal(t, tc.not, like.Not, tc.input)
		assert.Equal(t, tc.ilike, like.ILike, tc.input)
	}
}

func TestParseExpr_IsNull(t *testing.T) {
	expr, err := ParseExpr("FIELD('" + testFieldID + "') IS NOT NULL")
	require.NoError(t, err)
	isn := expr.(*IsNullExpr)
	assert.True(t, isn.Not)
}

func TestParseExpr_JSONPath(t *testing.T) {
	expr, err := ParseExpr(`FIELD("` + testFieldID + `")::jsonb -> 0 ->> 'name'`)
	require.NoError(t, err)
	jp := expr.(*JSONPathExpr)
	require.Len(t, jp.Steps, 2)
	assert.False(t, jp.Steps[0].IsKey)
	assert.Equal(t, 0, jp.Steps[0].Index)
	assert.False(t, jp.Steps[0].Text)
	assert.True(t, jp.Steps[1].IsKey)
	assert.Equal(t, "name", jp.Steps[1].Key)
	assert.True(t, jp.Steps[1].Text)
}

func TestParseExpr_Concat(t *testing.T) {
	expr, err := ParseExpr("'a' || 'b' || 'c'")
	require.NoError(t, err)
	bin := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_DPIPE, bin.Op)
}

func TestParseExpr_ScalarSubquery(t *testing.T) {
	expr, err := ParseExpr("(SELECT COUNT(*) FROM '" + testFormID + "')")
	require.NoError(t, err)
	_, ok := expr.(*SubqueryExpr)
	assert.True(t, ok)
}

// === UPDATE FORM ===

func TestParse_UpdateLiteral(t *testing.T) {
	stmt, err := Parse(`UPDATE FORM '` + testFormID + `' SET FIELD("` + testFieldID + `") = 'approved' WHERE FIELD("` + testField2 + `") > 50`)
	require.NoError(t, err)
	upd := stmt.(*UpdateFormStmt)
	assert.Equal(t, testFormID, upd.FormID)
	assert.Equal(t, testFieldID, upd.FieldID)
	assert.Equal(t, UpdateLiteral, upd.Value.Kind)
	assert.Equal(t, "approved", upd.Value.Literal.Value)
	require.NotNil(t, upd.Where)
}

func TestParse_UpdateFieldCopy(t *testing.T) {
	stmt, err := Parse(`UPDATE FORM '` + testFormID + `' SET FIELD("` + testFieldID + `") = FIELD("` + testField2 + `") WHERE submitted_by = 'u1'`)
	require.NoError(t, err)
	upd := stmt.(*UpdateFormStmt)
	assert.Equal(t, UpdateFieldCopy, upd.Value.Kind)
	assert.Equal(t, testField2, upd.Value.Field.FieldID)
}

func TestParse_UpdateComputed(t *testing.T) {
	stmt, err := Parse(`UPDATE FORM '` + testFormID + `' SET FIELD("` + testFieldID + `") = FIELD("` + testField2 + `") * 2 WHERE TRUE`)
	require.NoError(t, err)
	upd := stmt.(*UpdateFormStmt)
	assert.Equal(t, UpdateComputed, upd.Value.Kind)
	require.NotNil(t, upd.Value.Expr)
}

func TestParse_UpdateSubquery(t *testing.T) {
	stmt, err := Parse(`UPDATE FORM '` + testFormID + `' SET FIELD("` + testFieldID + `") = (SELECT AVG(FIELD("` + testField2 + `")) FROM '` + testFormID + `') WHERE TRUE`)
	require.NoError(t, err)
	upd := stmt.(*UpdateFormStmt)
	assert.Equal(t, UpdateSubquery, upd.Value.Kind)
	require.NotNil(t, upd.Value.Subquery)
}

func TestParse_UpdateRequiresWhere(t *testing.T) {
	_, err := Parse(`UPDATE FORM '` + testFormID + `' SET FIELD("` + testFieldID + `") = 1`)
	require.Error(t, err)
}

func TestParse_UpdateRequiresFieldTarget(t *testing.T) {
	_, err := Parse(`UPDATE FORM '` + testFormID + `' SET status = 1 WHERE TRUE`)
	require.Error(t, err)
}

// === INSERT ===

func TestParse_InsertValues(t *testing.T) {
	stmt, err := Parse(`INSERT INTO FORM '` + testFormID + `' (FIELD("` + testFieldID + `"), score) VALUES ('Alice', 10), ('Bob', 20)`)
	require.NoError(t, err)
	ins := stmt.(*InsertFormStmt)
	assert.Equal(t, testFormID, ins.FormID)
	assert.Equal(t, []string{testFieldID, "score"}, ins.Columns)
	require.Len(t, ins.Rows, 2)
	assert.Len(t, ins.Rows[0], 2)
	assert.Nil(t, ins.Query)
}

func TestParse_InsertOptionalKeywords(t *testing.T) {
	for _, input := range []string{
		`INSERT INTO FORM '` + testFormID + `' (a) VALUES (1)`,
		`INSERT INTO '` + testFormID + `' (a) VALUES (1)`,
		`INSERT FORM '` + testFormID + `' (a) VALUES (1)`,
		`INSERT '` + testFormID + `' (a) VALUES (1)`,
	} {
		_, err := Parse(input)
		require.NoError(t, err, input)
	}
}

func TestParse_InsertSelect(t *testing.T) {
	stmt, err := Parse(`INSERT INTO FORM '` + testFormID + `' (a, b) SELECT FIELD("` + testFieldID + `"), FIELD("` + testField2 + `") FROM '` + testFormID + `' WHERE TRUE`)
	require.NoError(t, err)
	ins := stmt.(*InsertFormStmt)
	assert.Nil(t, ins.Rows)
	require.NotNil(t, ins.Query)
}

// === Procedural statements ===

func TestParse_Declare(t *testing.T) {
	stmt, err := Parse("DECLARE @count INT = 0")
	require.NoError(t, err)
	dec := stmt.(*DeclareStmt)
	assert.Equal(t, "count", dec.Name)
	assert.Equal(t, "INT", dec.Type)
	require.NotNil(t, dec.Init)
}

func TestParse_DeclareNoInit(t *testing.T) {
	stmt, err := Parse("DECLARE @name VARCHAR(50)")
	require.NoError(t, err)
	dec := stmt.(*DeclareStmt)
	assert.Equal(t, "VARCHAR", dec.Type)
	assert.Nil(t, dec.Init)
}

func TestParse_Set(t *testing.T) {
	stmt, err := Parse("SET @count = @count + 1")
	require.NoError(t, err)
	set := stmt.(*SetStmt)
	assert.Equal(t, "count", set.Name)
	require.NotNil(t, set.Expr)
}

func TestParse_IfElse(t *testing.T) {
	stmt, err := Parse(`IF @x > 10 BEGIN SET @y = 1; END ELSE BEGIN SET @y = 2; END`)
	require.NoError(t, err)
	ifStmt := stmt.(*IfStmt)
	require.Len(t, ifStmt.Branches, 1)
	assert.Equal(t, "SET @y = 1;", ifStmt.Branches[0].Body)
	assert.True(t, ifStmt.HasElse)
	assert.Equal(t, "SET @y = 2;", ifStmt.Else)
}

func TestParse_IfElseIfChain(t *testing.T) {
	stmt, err := Parse(`IF @x > 10 BEGIN SET @y = 1; END ELSE IF @x > 5 BEGIN SET @y = 2; END ELSE BEGIN SET @y = 3; END`)
	require.NoError(t, err)
	ifStmt := stmt.(*IfStmt)
	require.Len(t, ifStmt.Branches, 2)
	assert.True(t, ifStmt.HasElse)
}

func TestParse_While(t *testing.T) {
	stmt, err := Parse(`WHILE @i < 5 BEGIN SET @i = @i + 1; END`)
	require.NoError(t, err)
	w := stmt.(*WhileStmt)
	require.NotNil(t, w.Condition)
	assert.Equal(t, "SET @i = @i + 1;", w.Body)
}

func TestParse_NestedBlocks(t *testing.T) {
	stmt, err := Parse(`WHILE @i < 5 BEGIN IF @i = 2 BEGIN SET @j = 1; END SET @i = @i + 1; END`)
	require.NoError(t, err)
	w := stmt.(*WhileStmt)
	assert.Contains(t, w.Body, "IF @i = 2 BEGIN SET @j = 1; END")
}

func TestParse_BlockWithCaseEnd(t *testing.T) {
	// END of CASE must not close the BEGIN block.
	stmt, err := Parse(`IF @x > 0 BEGIN SET @y = CASE WHEN @x > 1 THEN 1 ELSE 0 END; END`)
	require.NoError(t, err)
	ifStmt := stmt.(*IfStmt)
	assert.Contains(t, ifStmt.Branches[0].Body, "CASE WHEN @x > 1 THEN 1 ELSE 0 END")
}

func TestParse_MissingEnd(t *testing.T) {
	_, err := Parse(`WHILE @i < 5 BEGIN SET @i = @i + 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing END")
}

func TestParse_CreateFunction(t *testing.T) {
	stmt, err := Parse(`CREATE FUNCTION grade(@score FLOAT, @max FLOAT) RETURNS VARCHAR(10) AS BEGIN RETURN CASE WHEN @score / @max > 0.9 THEN 'A' ELSE 'B' END; END`)
	require.NoError(t, err)
	fn := stmt.(*CreateFunctionStmt)
	assert.Equal(t, "grade", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, Param{Name: "score", Type: "FLOAT"}, fn.Params[0])
	assert.Equal(t, "VARCHAR", fn.ReturnType)
	assert.Contains(t, fn.Body, "RETURN CASE")
}

func TestParse_CreateFunctionNoParams(t *testing.T) {
	stmt, err := Parse(`CREATE FUNCTION answer() RETURNS INT AS BEGIN RETURN 42; END`)
	require.NoError(t, err)
	fn := stmt.(*CreateFunctionStmt)
	assert.Empty(t, fn.Params)
}

// === SplitStatements ===

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements(`SET @a = 1; SET @b = 'x;y'; IF @a > 0 BEGIN SET @c = 1; SET @d = 2; END`)
	require.Len(t, stmts, 3)
	assert.Equal(t, "SET @a = 1", stmts[0])
	assert.Equal(t, "SET @b = 'x;y'", stmts[1])
	assert.Contains(t, stmts[2], "BEGIN SET @c = 1; SET @d = 2; END")
}

func TestSplitStatements_Empty(t *testing.T) {
	assert.Empty(t, SplitStatements("  ;  ; "))
}

// === ExprString ===

func TestExprString_RoundTrip(t *testing.T) {
	for _, input := range []string{
		`FIELD("` + testFieldID + `") + 1`,
		"submitted_by",
		"@counter * 2",
		"UPPER(name)",
	} {
		expr, err := ParseExpr(input)
		require.NoError(t, err)
		rendered := ExprString(expr)
		reparsed, err := ParseExpr(rendered)
		require.NoError(t, err, rendered)
		assert.Equal(t, rendered, ExprString(reparsed))
	}
}

func TestColumnName(t *testing.T) {
	sel := parseSelect(t, `SELECT FIELD("`+testFieldID+`") AS score, COUNT(*) FROM '`+testFormID+`'`)
	assert.Equal(t, "score", ColumnName(sel.Items[0]))
	assert.Equal(t, "COUNT(*)", ColumnName(sel.Items[1]))
}
