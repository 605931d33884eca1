package parser

import (
	"fmt"

	"github.com/Paul-111129/Glassy-Compiler/pkg/ast"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	cfg      *config.Config
	arena    *ast.Arena
	// declared maps every name introduced by 'let' to its declaring token.
	declared map[string]token.Token
}

// NewParser creates and initializes a new Parser from a token stream. The
// stream is expected to end with an EOF token, as produced by lexer.Tokenize.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		eof := token.Token{Type: token.EOF, Line: 1, Column: 1}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof = token.Token{Type: token.EOF, FileIndex: last.FileIndex, Line: last.Line, Column: last.Column + last.Len}
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	return &Parser{
		tokens:   tokens,
		current:  tokens[0],
		cfg:      cfg,
		arena:    ast.NewArena(),
		declared: make(map[string]token.Token),
	}
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.previous = p.current
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type) (token.Token, error) {
	if p.check(tokType) {
		tok := p.current
		p.advance()
		return tok, nil
	}
	return token.Token{}, p.errorAtCurrent(tokType, fmt.Sprintf("expected %v", tokType))
}

func (p *Parser) errorAtCurrent(expected token.Type, message string) error {
	return &util.ParseError{Tok: p.current, Expected: expected, Message: fmt.Sprintf("%s, found %s", message, describe(p.current))}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.Ident, token.Number:
		return fmt.Sprintf("%v '%s'", tok.Type, tok.Value)
	default:
		return tok.Type.String()
	}
}

// Parse consumes the whole token stream. The first error aborts parsing and
// no partial program is returned.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Arena: p.arena}
	for !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

// Statement Parsing
func (p *Parser) parseStmt() (ast.StmtID, error) {
	switch {
	case p.check(token.Exit):
		tok := p.current
		p.advance()
		expr, err := p.parseExprThenSemi()
		if err != nil {
			return 0, err
		}
		return p.arena.NewExit(tok, expr), nil

	case p.match(token.Let):
		name, err := p.expect(token.Ident)
		if err != nil {
			return 0, err
		}
		if prev, exists := p.declared[name.Value]; exists {
			return 0, &util.DuplicateDeclarationError{Tok: name, Name: name.Value, Prev: prev}
		}
		if _, err := p.expect(token.Eq); err != nil {
			return 0, err
		}
		expr, err := p.parseExprThenSemi()
		if err != nil {
			return 0, err
		}
		p.declared[name.Value] = name
		return p.arena.NewLet(name, expr), nil

	case p.check(token.Ident):
		name := p.current
		p.advance()
		if _, err := p.expect(token.Eq); err != nil {
			return 0, err
		}
		if _, exists := p.declared[name.Value]; !exists {
			return 0, &util.UndeclaredVariableError{Tok: name, Name: name.Value}
		}
		expr, err := p.parseExprThenSemi()
		if err != nil {
			return 0, err
		}
		return p.arena.NewAssign(name, expr), nil
	}
	return 0, p.errorAtCurrent(token.EOF, "expected a statement")
}

func (p *Parser) parseExprThenSemi() (ast.ExprID, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return 0, err
	}
	return expr, nil
}

// Expression Parsing
func (p *Parser) parseExpr() (ast.ExprID, error) {
	if p.cfg.IsFeatureEnabled(config.FeatPrecedence) {
		return p.parseBinaryExpr(precAdditive)
	}
	return p.parseFlatExpr()
}

// parseFlatExpr is the reference grammar: every binary operator shares one
// tier and chains associate strictly left to right.
func (p *Parser) parseFlatExpr() (ast.ExprID, error) {
	left, err := p.parseTermExpr()
	if err != nil {
		return 0, err
	}
	for p.current.Type.IsBinaryOp() {
		opTok := p.current
		p.advance()
		right, err := p.parseTermExpr()
		if err != nil {
			return 0, err
		}
		left = p.arena.NewBinary(opTok, left, right)
	}
	return left, nil
}

const (
	precAdditive = iota + 1
	precMultiplicative
	precPower
)

func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Caret:
		return precPower
	case token.Star, token.Slash, token.Rem:
		return precMultiplicative
	case token.Plus, token.Minus:
		return precAdditive
	default:
		return -1
	}
}

// parseBinaryExpr climbs the additive < multiplicative < power tiers. Power
// is right-associative, the other tiers are left-associative.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, error) {
	left, err := p.parseTermExpr()
	if err != nil {
		return 0, err
	}
	for {
		prec := getBinaryOpPrecedence(p.current.Type)
		if prec < minPrec {
			return left, nil
		}
		opTok := p.current
		p.advance()
		next := prec + 1
		if opTok.Type == token.Caret {
			next = prec
		}
		right, err := p.parseBinaryExpr(next)
		if err != nil {
			return 0, err
		}
		left = p.arena.NewBinary(opTok, left, right)
	}
}

func (p *Parser) parseTermExpr() (ast.ExprID, error) {
	term, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	return p.arena.NewTermExpr(term), nil
}

func (p *Parser) parseTerm() (ast.TermID, error) {
	tok := p.current
	switch {
	case p.match(token.Number):
		return p.arena.NewLiteral(tok), nil
	case p.match(token.Ident):
		if _, exists := p.declared[tok.Value]; !exists {
			return 0, &util.UndeclaredVariableError{Tok: tok, Name: tok.Value}
		}
		return p.arena.NewIdent(tok), nil
	case p.match(token.LParen):
		expr, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return 0, err
		}
		return p.arena.NewParen(tok, expr), nil
	}
	return 0, p.errorAtCurrent(token.EOF, "expected an expression")
}
