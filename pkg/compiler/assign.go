package compiler

import (
	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/unit"
)

var compoundLocalOp = map[ast.AssignOp]unit.Op{
	ast.AssignAdd: unit.OpAddAssignLocal,
	ast.AssignSub: unit.OpSubAssignLocal,
	ast.AssignMul: unit.OpMulAssignLocal,
	ast.AssignDiv: unit.OpDivAssignLocal,
}

var binopForAssign = map[ast.AssignOp]unit.Op{
	ast.AssignAdd: unit.OpAdd,
	ast.AssignSub: unit.OpSub,
	ast.AssignMul: unit.OpMul,
	ast.AssignDiv: unit.OpDiv,
}

// compileAssign lowers `target = value` / `target op= value`. The
// result is always Unit: assignment is a statement dressed as an
// expression, matching how it is used in this language (never chained).
func (c *Compiler) compileAssign(a *ast.Assign) {
	switch t := a.Target.(type) {
	case *ast.Ident:
		slot, ok := c.fn.lookup(t.Name)
		if !ok {
			c.errorf(t.Span, "undefined variable %q", t.Name)
			break
		}
		c.compileExpr(a.Value)
		if a.Op == ast.AssignPlain {
			c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(slot)}, a.Span)
		} else {
			c.b.Push(unit.Inst{Op: compoundLocalOp[a.Op], A: int64(slot)}, a.Span)
		}
	case *ast.FieldAccess:
		id := int64(c.b.InternString(t.Field))
		if a.Op == ast.AssignPlain {
			c.compileExpr(a.Value)
			c.compileExpr(t.X)
			c.b.Push(unit.Inst{Op: unit.OpFieldSet, A: id}, a.Span)
		} else {
			tmp := c.fn.declare(tempName(c.fn))
			c.compileExpr(t.X)
			c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpFieldGet, A: id}, t.Span)
			c.compileExpr(a.Value)
			c.b.Push(unit.Inst{Op: binopForAssign[a.Op]}, a.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpFieldSet, A: id}, a.Span)
		}
	case *ast.Index:
		if a.Op == ast.AssignPlain {
			c.compileExpr(a.Value)
			c.compileExpr(t.Idx)
			c.compileExpr(t.X)
			c.b.Push(unit.Inst{Op: unit.OpIndexSet}, a.Span)
		} else {
			tmpX := c.fn.declare(tempName(c.fn))
			tmpIdx := c.fn.declare(tempName(c.fn))
			c.compileExpr(t.X)
			c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmpX)}, t.Span)
			c.compileExpr(t.Idx)
			c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmpIdx)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmpX)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmpIdx)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpIndexGet}, t.Span)
			c.compileExpr(a.Value)
			c.b.Push(unit.Inst{Op: binopForAssign[a.Op]}, a.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmpIdx)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmpX)}, t.Span)
			c.b.Push(unit.Inst{Op: unit.OpIndexSet}, a.Span)
		}
	default:
		c.errorf(a.Span, "invalid assignment target")
	}
	c.b.Push(unit.Inst{Op: unit.OpPushUnit}, a.Span)
}

// tempName returns a synthetic local-slot name. Reusing the same string
// across multiple declare() calls is harmless — each call still
// allocates a fresh slot; the name only matters for scope-map lookup by
// source identifiers, which never collide with the "$" prefix.
func tempName(f *fnScope) string { return "$tmp" }
