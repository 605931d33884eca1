package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Paul-111129/Glassy-Compiler/pkg/cli"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Sources resolves token file indices for diagnostics.
type Sources []SourceFileRecord

// Diagnostic is a rendered-later warning produced by an analysis pass.
type Diagnostic struct {
	Warning config.Warning
	Tok     token.Token
	Message string
}

const (
	cRed   = "\033[31m"
	cGreen = "\033[32m"
	cYell  = "\033[33m"
	cNone  = "\033[0m"
)

func (s Sources) location(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(s) {
		return "unknown", tok.Line, tok.Column
	}
	return s[tok.FileIndex].Name, tok.Line, tok.Column
}

// writeSourceLine prints the offending source line and a caret under tok.
func (s Sources) writeSourceLine(w io.Writer, tok token.Token, color bool) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(s) || tok.Line == 0 {
		return
	}
	content := s[tok.FileIndex].Content

	lineStart, lineNum := 0, tok.Line
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	if color {
		caret = cGreen + caret + cNone
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", max(tok.Column-1, 0)), caret)
}

// Report renders err to w. Errors carrying a source position are printed as
// "file:line:col: error: msg" followed by the source line; anything else is
// printed as a plain error line.
func (s Sources) Report(w io.Writer, err error) {
	color := cli.IsTerminal(w)
	label := "error:"
	if color {
		label = cRed + label + cNone
	}

	var located Located
	if !errors.As(err, &located) {
		fmt.Fprintf(w, "glassy: %s %v\n", label, err)
		return
	}
	filename, line, col := s.location(located.Token())
	fmt.Fprintf(w, "%s:%d:%d: %s %s\n", filename, line, col, label, located.Error())
	s.writeSourceLine(w, located.Token(), color)
}

// Warn prints a warning if the corresponding warning is enabled in cfg.
func (s Sources) Warn(cfg *config.Config, d Diagnostic) {
	if !cfg.IsWarningEnabled(d.Warning) {
		return
	}
	w := cfg.DiagOut
	color := cli.IsTerminal(w)
	label := "warning:"
	if color {
		label = cYell + label + cNone
	}
	filename, line, col := s.location(d.Tok)
	fmt.Fprintf(w, "%s:%d:%d: %s %s [-W%s]\n", filename, line, col, label, d.Message, cfg.Warnings[d.Warning].Name)
	s.writeSourceLine(w, d.Tok, color)
}
