package util

import (
	"fmt"

	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
)

// Located is implemented by every compilation error. Token gives the source
// position the diagnostic points at.
type Located interface {
	error
	Token() token.Token
}

// LexError reports a character that starts no token.
type LexError struct {
	Tok  token.Token
	Char rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected character '%c'", e.Char)
}
func (e *LexError) Token() token.Token { return e.Tok }

// ParseError reports a grammar violation at Tok. Expected is the token kind
// the parser was looking for, or EOF when a whole construct was expected.
type ParseError struct {
	Tok      token.Token
	Expected token.Type
	Message  string
}

func (e *ParseError) Error() string { return e.Message }
func (e *ParseError) Token() token.Token { return e.Tok }

type DuplicateDeclarationError struct {
	Tok  token.Token
	Name string
	Prev token.Token
}

func (e *DuplicateDeclarationError) Error() string {
	if e.Prev.Line > 0 {
		return fmt.Sprintf("identifier '%s' is already declared (previous declaration at %s)", e.Name, e.Prev.Pos())
	}
	return fmt.Sprintf("identifier '%s' is already declared", e.Name)
}
func (e *DuplicateDeclarationError) Token() token.Token { return e.Tok }

type UndeclaredVariableError struct {
	Tok  token.Token
	Name string
}

func (e *UndeclaredVariableError) Error() string {
	return fmt.Sprintf("undeclared variable '%s'", e.Name)
}
func (e *UndeclaredVariableError) Token() token.Token { return e.Tok }

// UnsupportedOperatorError is raised by code generation for an operator the
// grammar accepts but the enabled feature set cannot translate.
type UnsupportedOperatorError struct {
	Tok token.Token
	Op  token.Type
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %v is not supported by code generation (enable it with -Farith)", e.Op)
}
func (e *UnsupportedOperatorError) Token() token.Token { return e.Tok }

// RangeError reports an integer literal that does not fit in 64 bits.
type RangeError struct {
	Tok  token.Token
	Text string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("integer literal %s does not fit in 64 bits", e.Text)
}
func (e *RangeError) Token() token.Token { return e.Tok }
