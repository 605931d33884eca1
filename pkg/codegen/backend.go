package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Paul-111129/Glassy-Compiler/pkg/ast"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/ir"
)

// Backend renders an instruction list as target assembly.
type Backend interface {
	Generate(prog *ir.Program) (*bytes.Buffer, error)
}

type nasmBackend struct {
	out *strings.Builder
}

// NewNASMBackend returns a backend that writes Intel-syntax x86-64 assembly
// for NASM, one instruction per line.
func NewNASMBackend() Backend { return &nasmBackend{} }

func (b *nasmBackend) Generate(prog *ir.Program) (*bytes.Buffer, error) {
	var sb strings.Builder
	b.out = &sb

	fmt.Fprintf(b.out, "global %s\n", prog.Entry)
	b.out.WriteString("section .text\n")
	fmt.Fprintf(b.out, "%s:\n", prog.Entry)

	for _, in := range prog.Instrs {
		if err := b.genInstr(in); err != nil {
			return nil, err
		}
	}
	return bytes.NewBufferString(sb.String()), nil
}

func (b *nasmBackend) genInstr(in ir.Instr) error {
	if in.Op == ir.OpLabel {
		if len(in.Args) != 1 {
			return fmt.Errorf("nasm: label with %d operands", len(in.Args))
		}
		fmt.Fprintf(b.out, "%s:\n", in.Args[0])
		return nil
	}

	b.out.WriteString(in.Op.String())
	for i, arg := range in.Args {
		if i == 0 {
			b.out.WriteByte(' ')
		} else {
			b.out.WriteString(", ")
		}
		b.out.WriteString(b.formatOperand(in.Op, arg))
	}
	b.out.WriteByte('\n')
	return nil
}

// formatOperand sizes memory operands where NASM cannot infer the width.
// A register on the other side of a mov already implies a quadword.
func (b *nasmBackend) formatOperand(op ir.Op, v ir.Value) string {
	if m, ok := v.(ir.Mem); ok && op == ir.OpPush {
		return "QWORD " + m.String()
	}
	return v.String()
}

// Generate compiles prog to NASM text in one step.
func Generate(prog *ast.Program, cfg *config.Config) (string, error) {
	irProg, err := NewContext(cfg).Generate(prog)
	if err != nil {
		return "", err
	}
	buf, err := NewNASMBackend().Generate(irProg)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
