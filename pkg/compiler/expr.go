package compiler

import (
	"math"

	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
)

// compileExpr lowers e, leaving exactly one value on the operand stack.
func (c *Compiler) compileExpr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.Block:
		c.compileBlockExpr(x)
	case *ast.Ident:
		c.compileIdent(x)
	case *ast.Path:
		c.compilePath(x)
	case *ast.IntLit:
		c.b.Push(unit.Inst{Op: unit.OpPushInt, A: x.Value}, x.Span)
	case *ast.FloatLit:
		c.b.Push(unit.Inst{Op: unit.OpPushFloat, A: int64(math.Float64bits(x.Value))}, x.Span)
	case *ast.BoolLit:
		a := int64(0)
		if x.Value {
			a = 1
		}
		c.b.Push(unit.Inst{Op: unit.OpPushBool, A: a}, x.Span)
	case *ast.CharLit:
		c.b.Push(unit.Inst{Op: unit.OpPushChar, A: int64(x.Value)}, x.Span)
	case *ast.StringLit:
		id := c.b.InternString(x.Value)
		c.b.Push(unit.Inst{Op: unit.OpPushString, A: int64(id)}, x.Span)
	case *ast.TemplateLit:
		c.compileTemplate(x)
	case *ast.VecLit:
		for _, el := range x.Elems {
			c.compileExpr(el)
		}
		c.b.Push(unit.Inst{Op: unit.OpVec, B: int64(len(x.Elems))}, x.Span)
	case *ast.TupleLit:
		for _, el := range x.Elems {
			c.compileExpr(el)
		}
		c.b.Push(unit.Inst{Op: unit.OpTuple, B: int64(len(x.Elems))}, x.Span)
	case *ast.ObjectLit:
		c.compileObjectLit(x)
	case *ast.StructLit:
		c.compileStructLit(x)
	case *ast.Unary:
		c.compileExpr(x.X)
		switch x.Op {
		case ast.UnaryNot:
			c.b.Push(unit.Inst{Op: unit.OpNot}, x.Span)
		case ast.UnaryNeg:
			c.b.Push(unit.Inst{Op: unit.OpNeg}, x.Span)
		}
	case *ast.Binary:
		c.compileBinary(x)
	case *ast.Assign:
		c.compileAssign(x)
	case *ast.Index:
		c.compileExpr(x.X)
		c.compileExpr(x.Idx)
		c.b.Push(unit.Inst{Op: unit.OpIndexGet}, x.Span)
	case *ast.TupleIndex:
		c.compileExpr(x.X)
		c.b.Push(unit.Inst{Op: unit.OpTupleIndexGet, A: int64(x.Index)}, x.Span)
	case *ast.FieldAccess:
		c.compileExpr(x.X)
		id := c.b.InternString(x.Field)
		c.b.Push(unit.Inst{Op: unit.OpFieldGet, A: int64(id)}, x.Span)
	case *ast.Call:
		c.compileCall(x)
	case *ast.If:
		c.compileIf(x)
	case *ast.Match:
		c.compileMatch(x)
	case *ast.While:
		c.compileWhile(x)
	case *ast.Loop:
		c.compileLoop(x)
	case *ast.For:
		c.compileFor(x)
	case *ast.Await:
		c.compileExpr(x.X)
		c.b.Push(unit.Inst{Op: unit.OpAwait}, x.Span)
	case *ast.Try:
		c.compileTry(x)
	case *ast.Is:
		c.compileIs(x)
	default:
		c.errorf(e.Pos(), "unsupported expression")
	}
}

func (c *Compiler) compileIdent(x *ast.Ident) {
	if slot, ok := c.fn.lookup(x.Name); ok {
		c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(slot)}, x.Span)
		return
	}
	if ctor, ok := c.ctor[x.Name]; ok {
		c.pushCtorRef(ctor, x.Span)
		return
	}
	it := unit.Item{x.Name}
	c.b.Push(unit.Inst{Op: unit.OpPushFunction, Hash: unit.HashItem(it), B: 0}, x.Span)
}

func (c *Compiler) compilePath(x *ast.Path) {
	key := joinPath(x.Components)
	if ctor, ok := c.ctor[key]; ok {
		c.pushCtorRef(ctor, x.Span)
		return
	}
	it := unit.Item(x.Components)
	c.b.Push(unit.Inst{Op: unit.OpPushFunction, Hash: unit.HashItem(it)}, x.Span)
}

func joinPath(comps []string) string {
	s := comps[0]
	for _, p := range comps[1:] {
		s += "::" + p
	}
	return s
}

// pushCtorRef either constructs a zero-field value immediately (unit
// struct / unit variant referenced bare, e.g. `None`) or pushes a
// first-class Function value wrapping the constructor (tuple struct or
// enum tuple variant referenced bare, e.g. `Some`).
func (c *Compiler) pushCtorRef(ctor *ctorInfo, span ast.Span) {
	switch ctor.shape {
	case unit.TypeStructUnit:
		if ctor.kind == ctorVariant {
			c.b.Push(unit.Inst{Op: unit.OpVariantTuple, Hash: ctor.typeHash, A: int64(ctor.variantHash), B: 0}, span)
		} else {
			c.b.Push(unit.Inst{Op: unit.OpTypedTuple, Hash: ctor.typeHash, B: 0}, span)
		}
	case unit.TypeStructTuple:
		// A carries the variant hash for an enum tuple variant (e.g.
		// `Some`), or 0 for a plain tuple struct — the VM tells the two
		// apart by checking whether the type at Hash is an enum.
		a := int64(0)
		if ctor.kind == ctorVariant {
			a = int64(ctor.variantHash)
		}
		c.b.Push(unit.Inst{Op: unit.OpPushFunction, Hash: ctor.typeHash, A: a, B: int64(ctor.arity)}, span)
	default:
		c.errorf(span, "%q cannot be referenced as a value", ctor.typeName)
	}
}

func (c *Compiler) compileTemplate(t *ast.TemplateLit) {
	n := 0
	for _, part := range t.Parts {
		if part.Expr != nil {
			c.compileExpr(part.Expr)
			c.b.Push(unit.Inst{Op: unit.OpFmtDisplay}, t.Span)
		} else {
			id := c.b.InternString(part.Text)
			c.b.Push(unit.Inst{Op: unit.OpPushString, A: int64(id)}, t.Span)
		}
		n++
	}
	if n == 0 {
		id := c.b.InternString("")
		c.b.Push(unit.Inst{Op: unit.OpPushString, A: int64(id)}, t.Span)
		n = 1
	}
	for i := 1; i < n; i++ {
		c.b.Push(unit.Inst{Op: unit.OpAdd}, t.Span)
	}
}

func (c *Compiler) compileObjectLit(x *ast.ObjectLit) {
	keys := make([]string, 0, len(x.Entries))
	for _, e := range x.Entries {
		keys = append(keys, e.Key)
		if e.Value != nil {
			c.compileExpr(e.Value)
		} else {
			c.compileIdent(&ast.Ident{Name: e.Key, Span: x.Span})
		}
	}
	keysID := c.b.InternObject(keys)
	c.b.Push(unit.Inst{Op: unit.OpObject, A: int64(keysID), B: int64(len(keys))}, x.Span)
}

// compileStructLit lowers `Path { k: v, k2 }`, constructing a
// declared object-shaped struct or enum variant. OpTypedObject and
// OpVariantObject carry no key-list operand: the VM pops values in the
// type's own declared field order, so entries are reordered here to
// match ctor.fields before any value is pushed, not emitted in source
// order.
func (c *Compiler) compileStructLit(x *ast.StructLit) {
	key := joinPath(x.Path)
	ctor, ok := c.ctor[key]
	if !ok {
		c.errorf(x.Span, "unknown type %q", key)
		return
	}
	if ctor.shape != unit.TypeStructObject {
		c.errorf(x.Span, "%q is not an object-shaped struct or variant", key)
		return
	}
	byName := make(map[string]ast.Expr, len(x.Entries))
	for _, e := range x.Entries {
		if e.Value != nil {
			byName[e.Key] = e.Value
		} else {
			byName[e.Key] = &ast.Ident{Name: e.Key, Span: x.Span}
		}
	}
	for _, name := range ctor.fields {
		v, ok := byName[name]
		if !ok {
			c.errorf(x.Span, "missing field %q in %q literal", name, key)
			c.b.Push(unit.Inst{Op: unit.OpPushUnit}, x.Span)
			continue
		}
		c.compileExpr(v)
	}
	switch ctor.kind {
	case ctorVariant:
		c.b.Push(unit.Inst{Op: unit.OpVariantObject, Hash: ctor.typeHash, A: int64(ctor.variantHash), B: int64(len(ctor.fields))}, x.Span)
	default:
		c.b.Push(unit.Inst{Op: unit.OpTypedObject, Hash: ctor.typeHash, B: int64(len(ctor.fields))}, x.Span)
	}
}

func (c *Compiler) compileBinary(x *ast.Binary) {
	switch x.Op {
	case ast.BinAnd:
		c.compileShortCircuit(x, false)
		return
	case ast.BinOr:
		c.compileShortCircuit(x, true)
		return
	}
	c.compileExpr(x.Left)
	c.compileExpr(x.Right)
	op := map[ast.BinaryOp]unit.Op{
		ast.BinAdd: unit.OpAdd, ast.BinSub: unit.OpSub, ast.BinMul: unit.OpMul,
		ast.BinDiv: unit.OpDiv, ast.BinRem: unit.OpRem,
		ast.BinEq: unit.OpEq, ast.BinNeq: unit.OpNeq,
		ast.BinLt: unit.OpLt, ast.BinGt: unit.OpGt, ast.BinLte: unit.OpLte, ast.BinGte: unit.OpGte,
	}[x.Op]
	c.b.Push(unit.Inst{Op: op}, x.Span)
}

// compileShortCircuit lowers && and || without calling the right-hand
// side unless its value is needed, using a dup + conditional jump rather
// than a function call.
func (c *Compiler) compileShortCircuit(x *ast.Binary, isOr bool) {
	c.compileExpr(x.Left)
	c.b.Push(unit.Inst{Op: unit.OpDup}, x.Span)
	var skip int
	if isOr {
		skip = c.b.Push(unit.Inst{Op: unit.OpJumpIf}, x.Span)
	} else {
		skip = c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, x.Span)
	}
	c.b.Push(unit.Inst{Op: unit.OpPop}, x.Span)
	c.compileExpr(x.Right)
	c.b.Patch(skip, int64(c.b.Len()))
}

func (c *Compiler) compileIf(x *ast.If) {
	c.compileExpr(x.Cond)
	jf := c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, x.Span)
	c.compileBlockExpr(x.Then)
	jend := c.b.Push(unit.Inst{Op: unit.OpJump}, x.Span)
	c.b.Patch(jf, int64(c.b.Len()))
	if x.Else != nil {
		c.compileExpr(x.Else)
	} else {
		c.b.Push(unit.Inst{Op: unit.OpPushUnit}, x.Span)
	}
	c.b.Patch(jend, int64(c.b.Len()))
}

func (c *Compiler) compileWhile(x *ast.While) {
	loop := &loopCtx{label: x.Label}
	start := c.b.Len()
	loop.continueTo = start
	c.compileExpr(x.Cond)
	jend := c.b.Push(unit.Inst{Op: unit.OpJumpIfNot}, x.Span)
	c.fn.loops = append(c.fn.loops, loop)
	c.fn.pushScope()
	for _, s := range x.Body.Stmts {
		c.compileStmt(s)
	}
	if x.Body.Tail != nil {
		c.compileExpr(x.Body.Tail)
		c.b.Push(unit.Inst{Op: unit.OpPop}, x.Span)
	}
	c.fn.popScope()
	c.fn.loops = c.fn.loops[:len(c.fn.loops)-1]
	c.b.Push(unit.Inst{Op: unit.OpJump, A: int64(start)}, x.Span)
	end := c.b.Len()
	c.b.Patch(jend, int64(end))
	c.b.Push(unit.Inst{Op: unit.OpPushUnit}, x.Span)
	for _, addr := range loop.breakJumps {
		c.b.Patch(addr, int64(end+1))
	}
}

func (c *Compiler) compileLoop(x *ast.Loop) {
	loop := &loopCtx{label: x.Label}
	start := c.b.Len()
	loop.continueTo = start
	c.fn.loops = append(c.fn.loops, loop)
	c.fn.pushScope()
	for _, s := range x.Body.Stmts {
		c.compileStmt(s)
	}
	if x.Body.Tail != nil {
		c.compileExpr(x.Body.Tail)
		c.b.Push(unit.Inst{Op: unit.OpPop}, x.Span)
	}
	c.fn.popScope()
	c.fn.loops = c.fn.loops[:len(c.fn.loops)-1]
	c.b.Push(unit.Inst{Op: unit.OpJump, A: int64(start)}, x.Span)
	end := c.b.Len()
	for _, addr := range loop.breakJumps {
		c.b.Patch(addr, int64(end))
	}
}

// compileFor desugars `for pat in iter { body }` into an INTO_ITER call
// followed by a NEXT-driven loop, matching the iteration protocol the
// context registry exposes to user types.
func (c *Compiler) compileFor(x *ast.For) {
	c.fn.pushScope()
	tmpIter := c.fn.declare("$iter")
	c.compileExpr(x.Iter)
	intoIter := c.b.InternString(string(context.INTO_ITER))
	c.b.Push(unit.Inst{Op: unit.OpCallInstance, A: int64(intoIter), B: 0}, x.Span)
	c.b.Push(unit.Inst{Op: unit.OpStoreLocal, A: int64(tmpIter)}, x.Span)

	loop := &loopCtx{label: x.Label}
	start := c.b.Len()
	loop.continueTo = start
	c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(tmpIter)}, x.Span)
	c.b.Push(unit.Inst{Op: unit.OpIterNext}, x.Span)
	jend := c.b.Push(unit.Inst{Op: unit.OpJumpIf}, x.Span)

	c.fn.loops = append(c.fn.loops, loop)
	c.fn.pushScope()
	c.compilePatternBind(x.Pattern, true)
	for _, s := range x.Body.Stmts {
		c.compileStmt(s)
	}
	if x.Body.Tail != nil {
		c.compileExpr(x.Body.Tail)
		c.b.Push(unit.Inst{Op: unit.OpPop}, x.Span)
	}
	c.fn.popScope()
	c.fn.loops = c.fn.loops[:len(c.fn.loops)-1]
	c.b.Push(unit.Inst{Op: unit.OpJump, A: int64(start)}, x.Span)

	end := c.b.Len()
	c.b.Patch(jend, int64(end))
	c.b.Push(unit.Inst{Op: unit.OpPop}, x.Span) // discard the exhausted-path placeholder
	c.b.Push(unit.Inst{Op: unit.OpPushUnit}, x.Span)
	for _, addr := range loop.breakJumps {
		c.b.Patch(addr, int64(c.b.Len()))
	}
	c.fn.popScope()
}

func (c *Compiler) compileCall(x *ast.Call) {
	for _, a := range x.Args {
		c.compileExpr(a)
	}
	switch callee := x.Callee.(type) {
	case *ast.Ident:
		if slot, ok := c.fn.lookup(callee.Name); ok {
			c.b.Push(unit.Inst{Op: unit.OpLoadLocal, A: int64(slot)}, x.Span)
			c.b.Push(unit.Inst{Op: unit.OpCallFn, B: int64(len(x.Args))}, x.Span)
			return
		}
		if ctor, ok := c.ctor[callee.Name]; ok {
			c.emitCtorCall(ctor, x.Span)
			return
		}
		it := unit.Item{callee.Name}
		c.b.Push(unit.Inst{Op: unit.OpCall, Hash: unit.HashItem(it), B: int64(len(x.Args))}, x.Span)
	case *ast.Path:
		key := joinPath(callee.Components)
		if ctor, ok := c.ctor[key]; ok {
			c.emitCtorCall(ctor, x.Span)
			return
		}
		it := unit.Item(callee.Components)
		c.b.Push(unit.Inst{Op: unit.OpCall, Hash: unit.HashItem(it), B: int64(len(x.Args))}, x.Span)
	default:
		c.compileExpr(x.Callee)
		c.b.Push(unit.Inst{Op: unit.OpCallFn, B: int64(len(x.Args))}, x.Span)
	}
}

func (c *Compiler) emitCtorCall(ctor *ctorInfo, span ast.Span) {
	switch ctor.kind {
	case ctorStruct:
		switch ctor.shape {
		case unit.TypeStructTuple:
			c.b.Push(unit.Inst{Op: unit.OpTypedTuple, Hash: ctor.typeHash, B: int64(ctor.arity)}, span)
		default:
			c.errorf(span, "%q is not callable", ctor.typeName)
		}
	case ctorVariant:
		switch ctor.shape {
		case unit.TypeStructTuple:
			c.b.Push(unit.Inst{Op: unit.OpVariantTuple, Hash: ctor.typeHash, A: int64(ctor.variantHash), B: int64(ctor.arity)}, span)
		default:
			c.errorf(span, "%s::%s is not callable", ctor.typeName, ctor.variantName)
		}
	}
}

func (c *Compiler) compileIs(x *ast.Is) {
	c.compileExpr(x.X)
	desc, ok := c.ctx.TypeByName(x.Type)
	if !ok {
		c.errorf(x.Span, "unknown type %q", x.Type)
		c.b.Push(unit.Inst{Op: unit.OpPushBool}, x.Span)
		return
	}
	op := unit.OpIs
	if x.Kind == ast.IsNegative {
		op = unit.OpIsNot
	}
	userFlag := int64(0)
	if desc.IsUser {
		userFlag = 1
	}
	c.b.Push(unit.Inst{Op: op, A: int64(desc.Kind), B: userFlag, Hash: desc.Hash}, x.Span)
}

// compileTry lowers the `?` suffix against either Result or Option,
// matching spec.md §4.4's "if the value is Ok(x) or Some(x), substitute
// x; otherwise, return the same-variant value". Neither match consumes
// the scrutinee on failure, so the final OpReturn on the fallthrough
// path returns the original Err(e) or None exactly as it stood.
func (c *Compiler) compileTry(x *ast.Try) {
	c.compileExpr(x.X)
	c.b.Push(unit.Inst{Op: unit.OpDup}, x.Span)
	c.b.Push(unit.Inst{
		Op: unit.OpMatchVariantTuple, Hash: context.ResultHash,
		A: int64(context.OkHash), B: 1,
	}, x.Span)
	jok := c.b.Push(unit.Inst{Op: unit.OpJumpIf}, x.Span)
	c.b.Push(unit.Inst{Op: unit.OpDup}, x.Span)
	c.b.Push(unit.Inst{
		Op: unit.OpMatchVariantTuple, Hash: context.OptionHash,
		A: int64(context.SomeHash), B: 1,
	}, x.Span)
	jsome := c.b.Push(unit.Inst{Op: unit.OpJumpIf}, x.Span)
	c.b.Push(unit.Inst{Op: unit.OpReturn}, x.Span)
	unwrap := c.b.Len()
	c.b.Patch(jok, int64(unwrap))
	c.b.Patch(jsome, int64(unwrap))
	c.b.Push(unit.Inst{Op: unit.OpTupleIndexGet, A: 0}, x.Span)
}
