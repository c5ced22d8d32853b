package compiler

import (
	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/unit"
)

// compilePatternBind consumes the value already on the stack (the
// scrutinee) and binds it against pat. If requirePanic is set (the
// `let` case, which has no fallback arm), a failed match panics at
// runtime rather than leaving a bool on the stack.
func (c *Compiler) compilePatternBind(pat ast.Pattern, requirePanic bool) {
	if !requirePanic {
		c.compilePatternTestBool(pat)
		return
	}
	var fails []int
	c.emitPatternTest(pat, &fails)
	if len(fails) == 0 {
		return
	}
	jend := c.b.Push(unit.Inst{Op: unit.OpJump}, pat.Pos())
	failAddr := c.b.Len()
	for _, f := range fails {
		c.b.Patch(f, int64(failAddr))
	}
	reason := c.b.InternString("pattern did not match")
	c.b.Push(unit.Inst{Op: unit.OpPanic, A: int64(reason)}, pat.Pos())
	c.b.Patch(jend, int64(c.b.Len()))
}

// compilePatternTestBool consumes the scrutinee and leaves a bool
// reporting whether pat matched (and binds along the way), used by
// match arms to pick which arm fires.
func (c *Compiler) compilePatternTestBool(pat ast.Pattern) {
	var fails []int
	c.emitPatternTest(pat, &fails)
	c.b.Push(unit.Inst{Op: unit.OpPushBool, A: 1}, pat.Pos())
	jend := c.b.Push(unit.Inst{Op: unit.OpJump}, pat.Pos())
	failAddr := c.b.Len()
	for _, f := range fails {
		c.b.Patch(f, int64(failAddr))
	}
	c.b.Push(unit.Inst{Op: unit.OpPushBool, A: 0}, pat.Pos())
	c.b.Patch(jend, int64(c.b.Len()))
}

func packSeqLen(n int, open bool) int64 {
	a := int64(n) << 1
	if open {
		a |= 1
	}
	return a
}

// emitPatternTest consumes the scrutinee value on top of the stack and
// recursively tests/binds pat, appending the address of every
// OpJumpIfNot placeholder that should branch to the caller's shared
// failure label into fails. Every helper stores its working value into
// a local before testing it, so the operand stack depth at every fail
// site equals the depth at entry less the consumed scrutinee — the one
// invariant that lets all of them share a single failure target.
func (c *Compiler) emitPatternTest(pat ast.Pattern, fails *[]int) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		c.b.Push(unit.Inst{Op: unit.OpPop}, p.Span)
	case *ast.IdentPattern:
		slot := c.fn.declare(p.Name)
		c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(slot)}, p.Span)
	case *ast.LiteralPattern:
		tmp := c.fn.declare(tempName(c.fn))
		c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, p.Span)
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, p.Span)
		c.compileExpr(p.Value)
		c.b.Push(unit.Inst{Op: unit.OpEq}, p.Span)
		*fails = append(*fails, c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, p.Span))
	case *ast.SeqPattern:
		tmp := c.fn.declare(tempName(c.fn))
		c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, p.Span)
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, p.Span)
		c.b.Push(unit.Inst{Op: unit.OpMatchSeqLen, A: packSeqLen(len(p.Elems), p.Open)}, p.Span)
		*fails = append(*fails, c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, p.Span))
		for i, sub := range p.Elems {
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, p.Span)
			c.b.Push(unit.Inst{Op: unit.OpPushInt, A: int64(i)}, p.Span)
			c.b.Push(unit.Inst{Op: unit.OpIndexGet}, p.Span)
			c.emitPatternTest(sub, fails)
		}
	case *ast.ObjectPattern:
		tmp := c.fn.declare(tempName(c.fn))
		c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, p.Span)
		keys := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			keys[i] = f.Key
		}
		keysID := c.b.InternObject(keys)
		open := int64(0)
		if p.Open {
			open = 1
		}
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, p.Span)
		c.b.Push(unit.Inst{Op: unit.OpMatchObjectKeys, A: int64(keysID), B: open}, p.Span)
		*fails = append(*fails, c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, p.Span))
		for _, f := range p.Fields {
			keyID := c.b.InternString(f.Key)
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, p.Span)
			c.b.Push(unit.Inst{Op: unit.OpPushString, A: int64(keyID)}, p.Span)
			c.b.Push(unit.Inst{Op: unit.OpIndexGet}, p.Span)
			if f.Pattern != nil {
				c.emitPatternTest(f.Pattern, fails)
			} else {
				slot := c.fn.declare(f.Key)
				c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(slot)}, p.Span)
			}
		}
	case *ast.TypedTuplePattern:
		c.emitTypedOrVariantTuple(joinPath(p.Path), p.Elems, p.Span, fails)
	case *ast.StructObjectPattern:
		c.emitTypedOrVariantObject(joinPath(p.Path), p.Fields, p.Open, p.Span, fails)
	default:
		c.errorf(pat.Pos(), "unsupported pattern")
	}
}

func (c *Compiler) emitTypedOrVariantTuple(key string, elems []ast.Pattern, span ast.Span, fails *[]int) {
	ctor, ok := c.ctor[key]
	if !ok {
		c.errorf(span, "unknown type %q in pattern", key)
		return
	}
	tmp := c.fn.declare(tempName(c.fn))
	c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, span)
	c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, span)
	if ctor.kind == ctorVariant {
		c.b.Push(unit.Inst{
			Op: unit.OpMatchVariantTuple, Hash: ctor.typeHash,
			A: int64(ctor.variantHash), B: int64(len(elems)),
		}, span)
	} else {
		c.b.Push(unit.Inst{Op: unit.OpMatchTypedTuple, Hash: ctor.typeHash, B: int64(len(elems))}, span)
	}
	*fails = append(*fails, c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, span))
	for i, sub := range elems {
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, span)
		c.b.Push(unit.Inst{Op: unit.OpTupleIndexGet, A: int64(i)}, span)
		c.emitPatternTest(sub, fails)
	}
}

// packFieldCount folds the requested field count and the open (`..`) flag
// into one operand slot, mirroring packSeqLen: the VM rejects an object
// whose actual field count differs from len(fields) unless open is set.
func packFieldCount(n int, open bool) int64 {
	a := int64(n) << 1
	if open {
		a |= 1
	}
	return a
}

func (c *Compiler) emitTypedOrVariantObject(key string, fields []ast.StructObjectPatternField, open bool, span ast.Span, fails *[]int) {
	ctor, ok := c.ctor[key]
	if !ok {
		c.errorf(span, "unknown type %q in pattern", key)
		return
	}
	tmp := c.fn.declare(tempName(c.fn))
	c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmp)}, span)
	c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, span)
	if ctor.kind == ctorVariant {
		c.b.Push(unit.Inst{Op: unit.OpMatchVariantObject, Hash: ctor.typeHash, A: int64(ctor.variantHash), B: packFieldCount(len(fields), open)}, span)
	} else {
		c.b.Push(unit.Inst{Op: unit.OpMatchStructObject, Hash: ctor.typeHash, B: packFieldCount(len(fields), open)}, span)
	}
	*fails = append(*fails, c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, span))
	for _, f := range fields {
		nameID := c.b.InternString(f.Key)
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmp)}, span)
		c.b.Push(unit.Inst{Op: unit.OpFieldGet, A: int64(nameID)}, span)
		if f.Pattern != nil {
			c.emitPatternTest(f.Pattern, fails)
		} else {
			slot := c.fn.declare(f.Key)
			c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(slot)}, span)
		}
	}
}

// compileMatch evaluates X once, then tests each arm's pattern in
// source order, taking the first that matches (and whose guard, if any,
// is true).
func (c *Compiler) compileMatch(x *ast.Match) {
	c.fn.pushScope()
	scrutinee := c.fn.declare(tempName(c.fn))
	c.compileExpr(x.X)
	c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(scrutinee)}, x.Span)

	var armEndJumps []int
	var nextArmJump = -1
	for _, arm := range x.Arms {
		if nextArmJump >= 0 {
			c.b.Patch(nextArmJump, int64(c.b.Len()))
		}
		c.fn.pushScope()
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(scrutinee)}, x.Span)
		c.compilePatternTestBool(arm.Pattern)
		nextArmJump = c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, x.Span)
		if arm.Guard != nil {
			c.compileExpr(arm.Guard)
			guardFail := c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, x.Span)
			c.compileExpr(arm.Body)
			armEndJumps = append(armEndJumps, c.b.Push(unit.Inst{Op: unit.OpJump}, x.Span))
			c.b.Patch(guardFail, int64(c.b.Len()))
			c.b.Patch(nextArmJump, int64(c.b.Len()))
			nextArmJump = -1
		} else {
			c.compileExpr(arm.Body)
			armEndJumps = append(armEndJumps, c.b.Push(unit.Inst{Op: unit.OpJump}, x.Span))
		}
		c.fn.popScope()
	}
	if nextArmJump >= 0 {
		c.b.Patch(nextArmJump, int64(c.b.Len()))
	}
	reason := c.b.InternString("no match arm matched")
	c.b.Push(unit.Inst{Op: unit.OpPanic, A: int64(reason)}, x.Span)
	for _, j := range armEndJumps {
		c.b.Patch(j, int64(c.b.Len()))
	}
	c.fn.popScope()
}
