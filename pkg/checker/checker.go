// Package checker runs lint passes over a parsed program. It never rejects a
// program; everything it finds is reported as a warning diagnostic.
package checker

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Paul-111129/Glassy-Compiler/pkg/ast"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

type symbol struct {
	Name  string
	Decl  token.Token
	Reads int
}

type Checker struct {
	cfg     *config.Config
	prog    *ast.Program
	symbols map[string]*symbol
	order   []*symbol
	diags   []util.Diagnostic
}

func NewChecker(cfg *config.Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check walks prog once and returns its diagnostics in source order, with
// unused variables reported last.
func (c *Checker) Check(prog *ast.Program) []util.Diagnostic {
	c.prog = prog
	c.symbols = make(map[string]*symbol)
	c.order = nil
	c.diags = nil

	exited, reported := false, false
	for _, id := range prog.Stmts {
		stmt := prog.Arena.Stmt(id)
		// Only the first dead statement is reported.
		if exited && !reported {
			c.warn(config.WarnUnreachableCode, stmt.Pos(), "unreachable code after 'exit'")
			reported = true
		}
		c.checkStmt(stmt)
		if _, ok := stmt.(ast.ExitStmt); ok {
			exited = true
		}
	}

	for _, sym := range c.order {
		if sym.Reads == 0 {
			c.warn(config.WarnUnusedVar, sym.Decl, fmt.Sprintf("variable '%s' is declared but never read", sym.Name))
		}
	}
	return c.diags
}

func (c *Checker) warn(w config.Warning, tok token.Token, msg string) {
	c.diags = append(c.diags, util.Diagnostic{Warning: w, Tok: tok, Message: msg})
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case ast.ExitStmt:
		c.checkExpr(s.Expr)
		if v, ok := c.literalValue(s.Expr); ok && v > 255 {
			c.warn(config.WarnExitRange, c.prog.Arena.Expr(s.Expr).Pos(),
				fmt.Sprintf("exit status %d is outside 0..255 and will be truncated to %d", v, v%256))
		}
	case ast.LetStmt:
		c.checkExpr(s.Expr)
		if _, exists := c.symbols[s.Name]; !exists {
			sym := &symbol{Name: s.Name, Decl: s.Tok}
			c.symbols[s.Name] = sym
			c.order = append(c.order, sym)
		}
	case ast.AssignStmt:
		c.checkExpr(s.Expr)
	}
}

func (c *Checker) checkExpr(id ast.ExprID) {
	switch e := c.prog.Arena.Expr(id).(type) {
	case ast.TermExpr:
		c.checkTerm(e.Term)
	case ast.BinaryExpr:
		if e.Op != token.Plus && !c.cfg.IsFeatureEnabled(config.FeatArith) {
			c.warn(config.WarnUnsupportedOp, e.Tok, fmt.Sprintf("operator %v is parsed but not generated without -Farith", e.Op))
		}
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	}
}

func (c *Checker) checkTerm(id ast.TermID) {
	switch t := c.prog.Arena.Term(id).(type) {
	case ast.LiteralTerm:
		// Literals too wide for 64 bits are rejected by code generation.
		if v, err := strconv.ParseUint(t.Text, 10, 64); err == nil && v > math.MaxInt64 {
			c.warn(config.WarnOverflow, t.Tok, fmt.Sprintf("integer literal %s overflows a signed 64-bit value", t.Text))
		}
	case ast.IdentTerm:
		if sym, ok := c.symbols[t.Name]; ok {
			sym.Reads++
		}
	case ast.ParenTerm:
		c.checkExpr(t.Expr)
	}
}

// literalValue reports the value of an expression that is a lone literal,
// looking through parentheses.
func (c *Checker) literalValue(id ast.ExprID) (uint64, bool) {
	te, ok := c.prog.Arena.Expr(id).(ast.TermExpr)
	if !ok {
		return 0, false
	}
	switch t := c.prog.Arena.Term(te.Term).(type) {
	case ast.LiteralTerm:
		v, err := strconv.ParseUint(t.Text, 10, 64)
		return v, err == nil
	case ast.ParenTerm:
		return c.literalValue(t.Expr)
	}
	return 0, false
}
