package compiler

import (
	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/unit"
)

// compileBlockBody compiles every statement in b, then the tail
// expression if present. It reports whether a tail value was left on
// the stack — callers that need a block to always produce exactly one
// value (e.g. as a sub-expression) should use compileBlockExpr instead.
func (c *Compiler) compileBlockBody(b *ast.Block) bool {
	c.fn.pushScope()
	defer c.fn.popScope()
	for _, s := range b.Stmts {
		c.compileStmt(s)
	}
	if b.Tail != nil {
		c.compileExpr(b.Tail)
		return true
	}
	return false
}

// compileBlockExpr compiles b as a value-producing expression: exactly
// one value is left on the stack, Unit if b has no tail.
func (c *Compiler) compileBlockExpr(b *ast.Block) {
	if !c.compileBlockBody(b) {
		c.b.Push(unit.Inst{Op: unit.OpPushUnit}, b.Span)
	}
}

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		c.compileLet(st)
	case *ast.ExprStmt:
		c.compileExpr(st.X)
		c.b.Push(unit.Inst{Op: unit.OpPop}, st.Span)
	case *ast.ReturnStmt:
		if st.Value != nil {
			c.compileExpr(st.Value)
			c.b.Push(unit.Inst{Op: unit.OpReturn}, st.Span)
		} else {
			c.b.Push(unit.Inst{Op: unit.OpReturnUnit}, st.Span)
		}
	case *ast.BreakStmt:
		c.compileBreak(st)
	case *ast.ContinueStmt:
		c.compileContinue(st)
	default:
		c.errorf(s.Pos(), "unsupported statement")
	}
}

// compileLet binds Value to Pattern. An irrefutable pattern (plain
// identifier or wildcard) just binds; anything else also emits the
// pattern's match test and panics at runtime if it fails, since `let`
// offers no fallback arm.
func (c *Compiler) compileLet(l *ast.LetStmt) {
	c.compileExpr(l.Value)
	c.compilePatternBind(l.Pattern, true)
}

func (c *Compiler) compileBreak(b *ast.BreakStmt) {
	loop := c.fn.loopFor(b.Label)
	if loop == nil {
		c.errorf(b.Span, "break outside of a loop")
		return
	}
	if b.Value != nil {
		c.compileExpr(b.Value)
	} else {
		c.b.Push(unit.Inst{Op: unit.OpPushUnit}, b.Span)
	}
	addr := c.b.Push(unit.Inst{Op: unit.OpJump}, b.Span)
	loop.breakJumps = append(loop.breakJumps, addr)
}

func (c *Compiler) compileContinue(ct *ast.ContinueStmt) {
	loop := c.fn.loopFor(ct.Label)
	if loop == nil {
		c.errorf(ct.Span, "continue outside of a loop")
		return
	}
	c.b.Push(unit.Inst{Op: unit.OpJump, A: int64(loop.continueTo)}, ct.Span)
}
