package codegen

import (
	"fmt"
	"strconv"

	"github.com/Paul-111129/Glassy-Compiler/pkg/ast"
	"github.com/Paul-111129/Glassy-Compiler/pkg/config"
	"github.com/Paul-111129/Glassy-Compiler/pkg/ir"
	"github.com/Paul-111129/Glassy-Compiler/pkg/token"
	"github.com/Paul-111129/Glassy-Compiler/pkg/util"
)

const (
	sysExit  = 60
	slotSize = 8
)

type variable struct {
	Name string
	Slot int // stackDepth - 1 at the point of declaration
	Decl token.Token
}

// Context generates code for one program at a time. Every value lives on
// the machine stack; stackDepth mirrors the number of 8-byte slots the
// generated code has pushed so far, so variable addresses are recomputed
// relative to rsp at each use.
type Context struct {
	cfg        *config.Config
	prog       *ast.Program
	out        *ir.Program
	stackDepth int
	variables  map[string]*variable
	labelCount int
}

func NewContext(cfg *config.Config) *Context {
	return &Context{cfg: cfg}
}

// Generate walks prog once and returns the instruction list. Generation
// state is reset on every call.
func (ctx *Context) Generate(prog *ast.Program) (*ir.Program, error) {
	ctx.prog = prog
	ctx.out = &ir.Program{Entry: "_start"}
	ctx.stackDepth = 0
	ctx.variables = make(map[string]*variable)
	ctx.labelCount = 0

	for _, id := range prog.Stmts {
		if err := ctx.genStmt(prog.Arena.Stmt(id)); err != nil {
			return nil, err
		}
	}

	// Fallback exit(0) when no exit statement ran.
	ctx.out.Emit(ir.OpMov, ir.RAX, ir.Imm{Value: sysExit})
	ctx.out.Emit(ir.OpMov, ir.RDI, ir.Imm{Value: 0})
	ctx.out.Emit(ir.OpSyscall)
	return ctx.out, nil
}

func (ctx *Context) push(v ir.Value) {
	ctx.out.Emit(ir.OpPush, v)
	ctx.stackDepth++
	if ctx.stackDepth > ctx.out.MaxDepth {
		ctx.out.MaxDepth = ctx.stackDepth
	}
}

func (ctx *Context) pop(r ir.Reg) {
	ctx.out.Emit(ir.OpPop, r)
	ctx.stackDepth--
}

// slot returns the live address of v relative to the current stack top.
func (ctx *Context) slot(v *variable) ir.Mem {
	return ir.Mem{Base: ir.RSP, Offset: int64(ctx.stackDepth-v.Slot-1) * slotSize}
}

func (ctx *Context) lookup(tok token.Token, name string) (*variable, error) {
	v, ok := ctx.variables[name]
	if !ok {
		return nil, &util.UndeclaredVariableError{Tok: tok, Name: name}
	}
	return v, nil
}

func (ctx *Context) newLabel(prefix string) ir.Label {
	l := ir.Label{Name: fmt.Sprintf(".%s_%d", prefix, ctx.labelCount)}
	return l
}

func (ctx *Context) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.ExitStmt:
		if err := ctx.genExpr(s.Expr); err != nil {
			return err
		}
		ctx.out.Emit(ir.OpMov, ir.RAX, ir.Imm{Value: sysExit})
		ctx.pop(ir.RDI)
		ctx.out.Emit(ir.OpSyscall)
		return nil

	case ast.LetStmt:
		if prev, exists := ctx.variables[s.Name]; exists {
			return &util.DuplicateDeclarationError{Tok: s.Tok, Name: s.Name, Prev: prev.Decl}
		}
		if err := ctx.genExpr(s.Expr); err != nil {
			return err
		}
		// The initializer's slot becomes the variable's storage.
		ctx.variables[s.Name] = &variable{Name: s.Name, Slot: ctx.stackDepth - 1, Decl: s.Tok}
		return nil

	case ast.AssignStmt:
		if err := ctx.genExpr(s.Expr); err != nil {
			return err
		}
		ctx.pop(ir.RAX)
		v, err := ctx.lookup(s.Tok, s.Name)
		if err != nil {
			return err
		}
		ctx.out.Emit(ir.OpMov, ctx.slot(v), ir.RAX)
		return nil

	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", s))
	}
}

func (ctx *Context) genExpr(id ast.ExprID) error {
	switch e := ctx.prog.Arena.Expr(id).(type) {
	case ast.TermExpr:
		return ctx.genTerm(e.Term)

	case ast.BinaryExpr:
		// Right first, so the left operand ends on top and pops into rax.
		if err := ctx.genExpr(e.Right); err != nil {
			return err
		}
		if err := ctx.genExpr(e.Left); err != nil {
			return err
		}
		ctx.pop(ir.RAX)
		ctx.pop(ir.RBX)
		if err := ctx.genBinaryOp(e); err != nil {
			return err
		}
		ctx.push(ir.RAX)
		return nil

	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", e))
	}
}

// genBinaryOp combines rax (left) and rbx (right) into rax.
func (ctx *Context) genBinaryOp(e ast.BinaryExpr) error {
	if e.Op == token.Plus {
		ctx.out.Emit(ir.OpAdd, ir.RAX, ir.RBX)
		return nil
	}
	if !ctx.cfg.IsFeatureEnabled(config.FeatArith) {
		return &util.UnsupportedOperatorError{Tok: e.Tok, Op: e.Op}
	}

	switch e.Op {
	case token.Minus:
		ctx.out.Emit(ir.OpSub, ir.RAX, ir.RBX)
	case token.Star:
		ctx.out.Emit(ir.OpIMul, ir.RAX, ir.RBX)
	case token.Slash:
		ctx.out.Emit(ir.OpCqo)
		ctx.out.Emit(ir.OpIDiv, ir.RBX)
	case token.Rem:
		ctx.out.Emit(ir.OpCqo)
		ctx.out.Emit(ir.OpIDiv, ir.RBX)
		ctx.out.Emit(ir.OpMov, ir.RAX, ir.RDX)
	case token.Caret:
		ctx.genPower()
	default:
		return &util.UnsupportedOperatorError{Tok: e.Tok, Op: e.Op}
	}
	return nil
}

// genPower raises rax to the rbx-th power by repeated multiplication. A
// non-positive exponent yields 1.
func (ctx *Context) genPower() {
	loop, done := ctx.newLabel("pow_loop"), ctx.newLabel("pow_done")
	ctx.labelCount++

	ctx.out.Emit(ir.OpMov, ir.RCX, ir.RBX)
	ctx.out.Emit(ir.OpMov, ir.RBX, ir.RAX)
	ctx.out.Emit(ir.OpMov, ir.RAX, ir.Imm{Value: 1})
	ctx.out.Emit(ir.OpLabel, loop)
	ctx.out.Emit(ir.OpTest, ir.RCX, ir.RCX)
	ctx.out.Emit(ir.OpJle, done)
	ctx.out.Emit(ir.OpIMul, ir.RAX, ir.RBX)
	ctx.out.Emit(ir.OpDec, ir.RCX)
	ctx.out.Emit(ir.OpJmp, loop)
	ctx.out.Emit(ir.OpLabel, done)
}

func (ctx *Context) genTerm(id ast.TermID) error {
	switch t := ctx.prog.Arena.Term(id).(type) {
	case ast.LiteralTerm:
		val, err := strconv.ParseUint(t.Text, 10, 64)
		if err != nil {
			return &util.RangeError{Tok: t.Tok, Text: t.Text}
		}
		ctx.out.Emit(ir.OpMov, ir.RAX, ir.Imm{Value: val})
		ctx.push(ir.RAX)
		return nil

	case ast.IdentTerm:
		v, err := ctx.lookup(t.Tok, t.Name)
		if err != nil {
			return err
		}
		ctx.push(ctx.slot(v))
		return nil

	case ast.ParenTerm:
		return ctx.genExpr(t.Expr)

	default:
		panic(fmt.Sprintf("codegen: unhandled term %T", t))
	}
}
