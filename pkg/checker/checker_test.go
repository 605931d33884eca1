package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/lexer"
	"github.com/Paul-111129/Glassy-Compiler/pkg/parser"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

func check(t *testing.T, src string, cfg *config.Config) []util.Diagnostic {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	toks, err := lexer.Tokenize([]rune(src), 0, cfg)
	require.NoError(t, err)
	prog, err := parser.NewParser(toks, cfg).Parse()
	require.NoError(t, err)
	return NewChecker(cfg).Check(prog)
}

func kinds(diags []util.Diagnostic) []config.Warning {
	var out []config.Warning
	for _, d := range diags {
		out = append(out, d.Warning)
	}
	return out
}

func TestCleanProgram(t *testing.T) {
	require.Empty(t, check(t, "let x = 5; let y = 10; exit x + y;", nil))
}

func TestUnreachableCode(t *testing.T) {
	diags := check(t, "exit 0;\nexit 1;\nexit 2;", nil)
	require.Equal(t, []config.Warning{config.WarnUnreachableCode}, kinds(diags))
	require.Equal(t, 2, diags[0].Tok.Line)
}

func TestUnusedVariable(t *testing.T) {
	diags := check(t, "let a = 1;\nlet b = 2;\nb = 3;\nexit a;", nil)
	require.Equal(t, []config.Warning{config.WarnUnusedVar}, kinds(diags))
	require.Equal(t, "variable 'b' is declared but never read", diags[0].Message)
	require.Equal(t, 2, diags[0].Tok.Line)
}

func TestExitRange(t *testing.T) {
	diags := check(t, "exit (300);", nil)
	require.Equal(t, []config.Warning{config.WarnExitRange}, kinds(diags))
	require.Equal(t, "exit status 300 is outside 0..255 and will be truncated to 44", diags[0].Message)

	require.Empty(t, check(t, "exit 255;", nil))
}

func TestOverflow(t *testing.T) {
	diags := check(t, "let big = 9223372036854775808; exit big;", nil)
	require.Equal(t, []config.Warning{config.WarnOverflow}, kinds(diags))
	require.Equal(t, 11, diags[0].Tok.Column)

	require.Empty(t, check(t, "let max = 9223372036854775807; exit max;", nil))
}

func TestUnsupportedOperator(t *testing.T) {
	diags := check(t, "exit 2 * 3 + 1;", nil)
	require.Equal(t, []config.Warning{config.WarnUnsupportedOp}, kinds(diags))
	require.Equal(t, 8, diags[0].Tok.Column)

	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyStd("Gx"))
	require.Empty(t, check(t, "exit 2 * 3 + 1;", cfg))
}

func TestCheckerIsReusable(t *testing.T) {
	cfg := config.NewConfig()
	toks, err := lexer.Tokenize([]rune("let a = 1; exit 0;"), 0, cfg)
	require.NoError(t, err)
	prog, err := parser.NewParser(toks, cfg).Parse()
	require.NoError(t, err)

	c := NewChecker(cfg)
	require.Len(t, c.Check(prog), 1)
	require.Len(t, c.Check(prog), 1)
}
