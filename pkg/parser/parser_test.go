package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Paul-111129/Glassy-Compiler/pkg/ast"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/lexer"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

func parse(src string, cfg *config.Config) (*ast.Program, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	toks, err := lexer.Tokenize([]rune(src), 0, cfg)
	if err != nil {
		return nil, err
	}
	return NewParser(toks, cfg).Parse()
}

func mustParse(t *testing.T, src string, cfg *config.Config) *ast.Program {
	t.Helper()
	prog, err := parse(src, cfg)
	require.NoError(t, err)
	return prog
}

func precedenceConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatPrecedence, true)
	return cfg
}

func TestParseScenario(t *testing.T) {
	prog := mustParse(t, "let x = 5; let y = 10; exit x + y;", nil)
	stmts := prog.Statements()
	require.Len(t, stmts, 3)

	let, ok := stmts[0].(ast.LetStmt)
	require.True(t, ok)
	require.Equal(t, "x", let.Name)
	require.Equal(t, "5", prog.ExprString(let.Expr))

	_, ok = stmts[1].(ast.LetStmt)
	require.True(t, ok)

	exit, ok := stmts[2].(ast.ExitStmt)
	require.True(t, ok)
	bin, ok := prog.Arena.Expr(exit.Expr).(ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.Plus, bin.Op)
	require.Equal(t, "x", prog.ExprString(bin.Left))
	require.Equal(t, "y", prog.ExprString(bin.Right))
}

func TestParseEmptyProgram(t *testing.T) {
	prog := mustParse(t, "  \n ", nil)
	require.Empty(t, prog.Stmts)
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		flat string
		prec string
	}{
		{"left assoc", "exit 1 + 2 + 3;", "((1 + 2) + 3)", "((1 + 2) + 3)"},
		{"mixed tiers", "exit 1 + 2 * 3;", "((1 + 2) * 3)", "(1 + (2 * 3))"},
		{"mul first", "exit 2 * 3 + 1;", "((2 * 3) + 1)", "((2 * 3) + 1)"},
		{"parens", "exit 1 * (2 + 3);", "(1 * (2 + 3))", "(1 * (2 + 3))"},
		{"power right assoc", "exit 2 ^ 3 ^ 2;", "((2 ^ 3) ^ 2)", "(2 ^ (3 ^ 2))"},
		{"power binds tightest", "exit 2 * 3 ^ 2 - 1;", "(((2 * 3) ^ 2) - 1)", "((2 * (3 ^ 2)) - 1)"},
		{"subtraction chain", "exit 10 - 4 - 3;", "((10 - 4) - 3)", "((10 - 4) - 3)"},
		{"all operators", "exit 1 % 2 / 3;", "((1 % 2) / 3)", "((1 % 2) / 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := mustParse(t, tt.src, nil)
			require.Equal(t, "exit "+tt.flat+";\n", flat.String())

			prec := mustParse(t, tt.src, precedenceConfig())
			require.Equal(t, "exit "+tt.prec+";\n", prec.String())
		})
	}
}

func TestUnimplementedOperatorsParse(t *testing.T) {
	for _, src := range []string{"exit 2 * 3;", "exit 6 / 3;", "exit 7 % 4;", "exit 2 ^ 5;"} {
		_, err := parse(src, nil)
		require.NoError(t, err, src)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected token.Type
		line     int
		col      int
		message  string
	}{
		{"missing operator", "exit 1 2;", token.Semi, 1, 8, "expected ';', found integer literal '2'"},
		{"missing semicolon at eof", "exit 1", token.Semi, 1, 7, "expected ';', found end of file"},
		{"missing equals", "let x 5;", token.Eq, 1, 7, "expected '=', found integer literal '5'"},
		{"missing close paren", "exit (1 + 2;", token.RParen, 1, 12, "expected ')', found ';'"},
		{"let without name", "let = 3;", token.Ident, 1, 5, "expected identifier, found '='"},
		{"keyword as name", "let exit = 3;", token.Ident, 1, 5, "expected identifier, found 'exit'"},
		{"dangling operator", "exit 1 +;", token.EOF, 1, 9, "expected an expression, found ';'"},
		{"stray token", "let x = 1;\n;", token.EOF, 2, 1, "expected a statement, found ';'"},
		{"brace statement", "{ exit 0; }", token.EOF, 1, 1, "expected a statement, found '{'"},
		{"assignment needs equals", "let x = 1; x 2;", token.Eq, 1, 14, "expected '=', found integer literal '2'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.src, nil)
			var parseErr *util.ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, tt.expected, parseErr.Expected)
			require.Equal(t, tt.line, parseErr.Tok.Line)
			require.Equal(t, tt.col, parseErr.Tok.Column)
			require.Equal(t, tt.message, parseErr.Message)
		})
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	_, err := parse("let a = 1;\nlet a = 2;", nil)
	var dup *util.DuplicateDeclarationError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "a", dup.Name)
	require.Equal(t, 2, dup.Tok.Line)
	require.Equal(t, 5, dup.Tok.Column)
	require.Equal(t, 1, dup.Prev.Line)
}

func TestUndeclaredVariable(t *testing.T) {
	tests := []struct {
		name string
		src  string
		col  int
	}{
		{"assignment target", "x = 1;", 1},
		{"exit operand", "exit y;", 6},
		{"nested in parens", "let a = 1; exit a + (b);", 22},
		{"self reference in let", "let x = x;", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.src, nil)
			var undecl *util.UndeclaredVariableError
			require.ErrorAs(t, err, &undecl)
			require.Equal(t, tt.col, undecl.Tok.Column)
		})
	}

	_, err := parse("x = 1;", nil)
	var undecl *util.UndeclaredVariableError
	require.ErrorAs(t, err, &undecl)
	require.Equal(t, "x", undecl.Name)
}

func TestAssignmentAfterDeclaration(t *testing.T) {
	prog := mustParse(t, "let x = 1; x = x + 2; exit x;", nil)
	require.Equal(t, "let x = 1;\nx = (x + 2);\nexit x;\n", prog.String())
	assign, ok := prog.Statements()[1].(ast.AssignStmt)
	require.True(t, ok)
	require.Equal(t, 12, assign.Tok.Column)
}

func TestParserWithoutEOFSentinel(t *testing.T) {
	toks := []token.Token{
		{Type: token.Exit, Line: 1, Column: 1, Len: 4},
		{Type: token.Number, Value: "3", Line: 1, Column: 6, Len: 1},
	}
	_, err := NewParser(toks, config.NewConfig()).Parse()
	var parseErr *util.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, token.Semi, parseErr.Expected)
	require.Equal(t, 7, parseErr.Tok.Column)
}
