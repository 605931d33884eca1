package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Ident
	Number
	Exit
	Let
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Semi
	Plus
	Minus
	Star
	Slash
	Rem
	Caret
	Eq
)

var KeywordMap = map[string]Type{
	"exit": Exit,
	"let":  Let,
}

// Single-character tokens. Every entry maps to exactly one kind.
var PunctMap = map[rune]Type{
	'(': LParen,
	')': RParen,
	'[': LBracket,
	']': RBracket,
	'{': LBrace,
	'}': RBrace,
	';': Semi,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'%': Rem,
	'^': Caret,
	'=': Eq,
}

// Reverse mapping from Type to the keyword or punctuation spelling
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for ch, typ := range PunctMap {
		TypeStrings[typ] = string(ch)
	}
}

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of file"
	case Ident:
		return "identifier"
	case Number:
		return "integer literal"
	}
	if s, ok := TypeStrings[t]; ok {
		return "'" + s + "'"
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Name is the short column label used by the token dump.
func (t Type) Name() string {
	switch t {
	case EOF:
		return "EOF"
	case Ident:
		return "IDENTIFIER"
	case Number:
		return "LITERAL"
	case Exit, Let:
		return "KEYWORD"
	case LParen, RParen, LBracket, RBracket, LBrace, RBrace, Semi:
		return "SEPARATOR"
	default:
		return "OPERATOR"
	}
}

// IsBinaryOp reports whether t may appear between two terms.
func (t Type) IsBinaryOp() bool {
	switch t {
	case Plus, Minus, Star, Slash, Rem, Caret:
		return true
	}
	return false
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

// Text returns the lexeme: Value for identifiers and literals, the fixed
// spelling for everything else.
func (t Token) Text() string {
	if t.Value != "" {
		return t.Value
	}
	return TypeStrings[t.Type]
}

func (t Token) Pos() string { return fmt.Sprintf("%d:%d", t.Line, t.Column) }
