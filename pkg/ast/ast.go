// Package ast defines the Abstract Syntax Tree of a Glassy program.
//
// Every node of one compilation lives in an Arena and nodes refer to each
// other through typed indices into it. A node is appended once and never
// modified; the whole tree is released together with its Program.
package ast

import (
	"fmt"

	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
)

type (
	TermID int
	ExprID int
	StmtID int
)

// Term is one of LiteralTerm, IdentTerm or ParenTerm.
type Term interface {
	termNode()
	Pos() token.Token
}

// Expr is one of TermExpr or BinaryExpr.
type Expr interface {
	exprNode()
	Pos() token.Token
}

// Stmt is one of ExitStmt, LetStmt or AssignStmt.
type Stmt interface {
	stmtNode()
	Pos() token.Token
}

// --- Node Data Structs ---
type LiteralTerm struct {
	Tok  token.Token
	Text string
}
type IdentTerm struct {
	Tok  token.Token
	Name string
}
type ParenTerm struct {
	Tok  token.Token
	Expr ExprID
}

type TermExpr struct {
	Tok  token.Token
	Term TermID
}
type BinaryExpr struct {
	Tok         token.Token // the operator
	Op          token.Type
	Left, Right ExprID
}

type ExitStmt struct {
	Tok  token.Token
	Expr ExprID
}
type LetStmt struct {
	Tok  token.Token // the declared identifier
	Name string
	Expr ExprID
}
type AssignStmt struct {
	Tok  token.Token // the assigned identifier
	Name string
	Expr ExprID
}

func (LiteralTerm) termNode() {}
func (IdentTerm) termNode()   {}
func (ParenTerm) termNode()   {}
func (TermExpr) exprNode()    {}
func (BinaryExpr) exprNode()  {}
func (ExitStmt) stmtNode()    {}
func (LetStmt) stmtNode()     {}
func (AssignStmt) stmtNode()  {}

func (n LiteralTerm) Pos() token.Token { return n.Tok }
func (n IdentTerm) Pos() token.Token   { return n.Tok }
func (n ParenTerm) Pos() token.Token   { return n.Tok }
func (n TermExpr) Pos() token.Token    { return n.Tok }
func (n BinaryExpr) Pos() token.Token  { return n.Tok }
func (n ExitStmt) Pos() token.Token    { return n.Tok }
func (n LetStmt) Pos() token.Token     { return n.Tok }
func (n AssignStmt) Pos() token.Token  { return n.Tok }

// Arena owns the nodes of one compilation unit.
type Arena struct {
	terms []Term
	exprs []Expr
	stmts []Stmt
}

func NewArena() *Arena { return &Arena{} }

// --- Node Constructors ---

func (a *Arena) NewLiteral(tok token.Token) TermID {
	return a.addTerm(LiteralTerm{Tok: tok, Text: tok.Value})
}
func (a *Arena) NewIdent(tok token.Token) TermID {
	return a.addTerm(IdentTerm{Tok: tok, Name: tok.Value})
}
func (a *Arena) NewParen(tok token.Token, expr ExprID) TermID {
	return a.addTerm(ParenTerm{Tok: tok, Expr: expr})
}
func (a *Arena) NewTermExpr(term TermID) ExprID {
	return a.addExpr(TermExpr{Tok: a.Term(term).Pos(), Term: term})
}
func (a *Arena) NewBinary(tok token.Token, left, right ExprID) ExprID {
	return a.addExpr(BinaryExpr{Tok: tok, Op: tok.Type, Left: left, Right: right})
}
func (a *Arena) NewExit(tok token.Token, expr ExprID) StmtID {
	return a.addStmt(ExitStmt{Tok: tok, Expr: expr})
}
func (a *Arena) NewLet(name token.Token, expr ExprID) StmtID {
	return a.addStmt(LetStmt{Tok: name, Name: name.Value, Expr: expr})
}
func (a *Arena) NewAssign(name token.Token, expr ExprID) StmtID {
	return a.addStmt(AssignStmt{Tok: name, Name: name.Value, Expr: expr})
}

func (a *Arena) addTerm(n Term) TermID {
	a.terms = append(a.terms, n)
	return TermID(len(a.terms) - 1)
}
func (a *Arena) addExpr(n Expr) ExprID {
	a.exprs = append(a.exprs, n)
	return ExprID(len(a.exprs) - 1)
}
func (a *Arena) addStmt(n Stmt) StmtID {
	a.stmts = append(a.stmts, n)
	return StmtID(len(a.stmts) - 1)
}

func (a *Arena) Term(id TermID) Term { return a.terms[id] }
func (a *Arena) Expr(id ExprID) Expr { return a.exprs[id] }
func (a *Arena) Stmt(id StmtID) Stmt { return a.stmts[id] }

// Len returns the number of terms, expressions and statements allocated.
func (a *Arena) Len() (terms, exprs, stmts int) {
	return len(a.terms), len(a.exprs), len(a.stmts)
}

// Program is the root of the tree: statements in source order.
type Program struct {
	Arena *Arena
	Stmts []StmtID
}

// Statements returns the program's statements in order.
func (p *Program) Statements() []Stmt {
	out := make([]Stmt, len(p.Stmts))
	for i, id := range p.Stmts {
		out[i] = p.Arena.Stmt(id)
	}
	return out
}

// ExprString renders an expression fully parenthesized, e.g. "((1 + x) * 2)".
func (p *Program) ExprString(id ExprID) string {
	switch e := p.Arena.Expr(id).(type) {
	case TermExpr:
		return p.TermString(e.Term)
	case BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", p.ExprString(e.Left), token.TypeStrings[e.Op], p.ExprString(e.Right))
	default:
		panic(fmt.Sprintf("ast: unhandled expression %T", e))
	}
}

func (p *Program) TermString(id TermID) string {
	switch t := p.Arena.Term(id).(type) {
	case LiteralTerm:
		return t.Text
	case IdentTerm:
		return t.Name
	case ParenTerm:
		return p.ExprString(t.Expr)
	default:
		panic(fmt.Sprintf("ast: unhandled term %T", t))
	}
}

// String renders the program back to source form, one statement per line.
func (p *Program) String() string {
	var out []byte
	for _, stmt := range p.Statements() {
		switch s := stmt.(type) {
		case ExitStmt:
			out = fmt.Appendf(out, "exit %s;\n", p.ExprString(s.Expr))
		case LetStmt:
			out = fmt.Appendf(out, "let %s = %s;\n", s.Name, p.ExprString(s.Expr))
		case AssignStmt:
			out = fmt.Appendf(out, "%s = %s;\n", s.Name, p.ExprString(s.Expr))
		default:
			panic(fmt.Sprintf("ast: unhandled statement %T", s))
		}
	}
	return string(out)
}

// Node is a resolved view of one tree node with its children inlined, used
// for dumps. Expression wrappers around a single term are collapsed.
type Node struct {
	Kind     string
	Text     string
	Children []Node
}

// Tree resolves every statement of the program into a Node.
func (p *Program) Tree() []Node {
	out := make([]Node, len(p.Stmts))
	for i, stmt := range p.Statements() {
		switch s := stmt.(type) {
		case ExitStmt:
			out[i] = Node{Kind: "exit", Children: []Node{p.exprNode(s.Expr)}}
		case LetStmt:
			out[i] = Node{Kind: "let", Text: s.Name, Children: []Node{p.exprNode(s.Expr)}}
		case AssignStmt:
			out[i] = Node{Kind: "assign", Text: s.Name, Children: []Node{p.exprNode(s.Expr)}}
		default:
			panic(fmt.Sprintf("ast: unhandled statement %T", s))
		}
	}
	return out
}

func (p *Program) exprNode(id ExprID) Node {
	switch e := p.Arena.Expr(id).(type) {
	case TermExpr:
		return p.termNode(e.Term)
	case BinaryExpr:
		return Node{Kind: "binary", Text: token.TypeStrings[e.Op], Children: []Node{p.exprNode(e.Left), p.exprNode(e.Right)}}
	default:
		panic(fmt.Sprintf("ast: unhandled expression %T", e))
	}
}

func (p *Program) termNode(id TermID) Node {
	switch t := p.Arena.Term(id).(type) {
	case LiteralTerm:
		return Node{Kind: "literal", Text: t.Text}
	case IdentTerm:
		return Node{Kind: "ident", Text: t.Name}
	case ParenTerm:
		return Node{Kind: "paren", Children: []Node{p.exprNode(t.Expr)}}
	default:
		panic(fmt.Sprintf("ast: unhandled term %T", t))
	}
}
