// Package ir holds the x86-64 instruction list produced by code generation
// before a backend renders it as assembly text.
package ir

import (
	"fmt"
	"strconv"
)

type Op int

const (
	OpMov Op = iota
	OpPush
	OpPop
	OpAdd
	OpSub
	OpIMul
	OpCqo
	OpIDiv
	OpTest
	OpDec
	OpJmp
	OpJle
	OpSyscall
	OpLabel
)

var opNames = [...]string{
	OpMov:     "mov",
	OpPush:    "push",
	OpPop:     "pop",
	OpAdd:     "add",
	OpSub:     "sub",
	OpIMul:    "imul",
	OpCqo:     "cqo",
	OpIDiv:    "idiv",
	OpTest:    "test",
	OpDec:     "dec",
	OpJmp:     "jmp",
	OpJle:     "jle",
	OpSyscall: "syscall",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

type Value interface {
	isValue()
	String() string
}

// Reg is a 64-bit general purpose register.
type Reg string

const (
	RAX Reg = "rax"
	RBX Reg = "rbx"
	RCX Reg = "rcx"
	RDX Reg = "rdx"
	RDI Reg = "rdi"
	RSP Reg = "rsp"
)

// Imm is an unsigned 64-bit immediate.
type Imm struct{ Value uint64 }

// Mem is the quadword at Base+Offset.
type Mem struct {
	Base   Reg
	Offset int64
}

type Label struct{ Name string }

func (Reg) isValue()   {}
func (Imm) isValue()   {}
func (Mem) isValue()   {}
func (Label) isValue() {}

func (r Reg) String() string   { return string(r) }
func (i Imm) String() string   { return strconv.FormatUint(i.Value, 10) }
func (l Label) String() string { return l.Name }
func (m Mem) String() string {
	if m.Offset < 0 {
		return fmt.Sprintf("[%s - %d]", m.Base, -m.Offset)
	}
	return fmt.Sprintf("[%s + %d]", m.Base, m.Offset)
}

// Instr is one instruction. Args are in Intel order: destination first.
type Instr struct {
	Op   Op
	Args []Value
}

func (in Instr) String() string {
	s := in.Op.String()
	for i, a := range in.Args {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}
		s += a.String()
	}
	return s
}

// Program is a single straight-line entry function.
type Program struct {
	Entry  string
	Instrs []Instr
	// MaxDepth is the deepest symbolic stack reached, in 8-byte slots.
	MaxDepth int
}

func (p *Program) Emit(op Op, args ...Value) {
	p.Instrs = append(p.Instrs, Instr{Op: op, Args: args})
}

// Dump renders the program in a backend-neutral form, one numbered
// instruction per line.
func (p *Program) Dump() string {
	var out []byte
	out = fmt.Appendf(out, "func %s (max stack %d slots)\n", p.Entry, p.MaxDepth)
	for i, in := range p.Instrs {
		if in.Op == OpLabel {
			out = fmt.Appendf(out, "%s:\n", in.Args[0])
			continue
		}
		out = fmt.Appendf(out, "%4d  %s\n", i, in)
	}
	return string(out)
}
