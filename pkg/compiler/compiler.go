// Package compiler lowers an ast.Program into a unit.CompilationUnit,
// resolving names against a context.Context along the way. Lowering is
// single-pass over function bodies: struct/enum declarations are
// processed first so their type metadata and constructors exist before
// any expression that might reference them, but functions may call each
// other regardless of declaration order, since OpCall addresses its
// callee by Hash (resolved once, against the frozen unit, not against
// emission order).
package compiler

import (
	"fmt"

	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
)

// ctorKind distinguishes the two shapes a callable constructor can take.
type ctorKind byte

const (
	ctorStruct ctorKind = iota
	ctorVariant
)

// ctorInfo records how to construct a declared struct or enum variant,
// keyed by its fully-qualified name ("Point" or "Option::Some").
type ctorInfo struct {
	kind        ctorKind
	shape       unit.TypeKind // TypeStructUnit, TypeStructTuple, TypeStructObject
	typeHash    unit.Hash     // struct hash, or enum hash for variants
	variantHash unit.Hash     // variants only
	typeName    string
	variantName string
	arity       int
	fields      []string
}

// loopCtx tracks one enclosing loop's break/continue targets so labeled
// and unlabeled break/continue can find the right frame.
type loopCtx struct {
	label      string
	breakJumps []int // addresses of OpJump placeholders to patch to the loop's exit
	continueTo int    // address to jump to on continue (loop's condition re-check)
}

// fnScope holds the per-function compilation state: local slot
// allocation (innermost shadows outer, matching plain lexical scoping)
// and the enclosing-loop stack for break/continue/labeled forms.
type fnScope struct {
	scopes   []map[string]int // stack of block scopes, name -> slot
	nextSlot int
	loops    []*loopCtx
}

func newFnScope() *fnScope {
	return &fnScope{scopes: []map[string]int{{}}}
}

func (f *fnScope) pushScope() { f.scopes = append(f.scopes, map[string]int{}) }
func (f *fnScope) popScope()  { f.scopes = f.scopes[:len(f.scopes)-1] }

func (f *fnScope) declare(name string) int {
	slot := f.nextSlot
	f.nextSlot++
	f.scopes[len(f.scopes)-1][name] = slot
	return slot
}

func (f *fnScope) lookup(name string) (int, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if slot, ok := f.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (f *fnScope) loopFor(label string) *loopCtx {
	if label == "" {
		if len(f.loops) == 0 {
			return nil
		}
		return f.loops[len(f.loops)-1]
	}
	for i := len(f.loops) - 1; i >= 0; i-- {
		if f.loops[i].label == label {
			return f.loops[i]
		}
	}
	return nil
}

// Compiler lowers one ast.Program at a time into a unit.Builder,
// resolving identifiers, calls, type tests and constructors against a
// shared context.Context.
type Compiler struct {
	b    *unit.Builder
	ctx  *context.Context
	fn   *fnScope
	ctor map[string]*ctorInfo
	errs []string
}

// New creates a Compiler targeting a fresh Builder seeded with the
// prelude's Option/Result type metadata (see prelude.go).
func New(ctx *context.Context) *Compiler {
	c := &Compiler{
		b:    unit.NewBuilder(),
		ctx:  ctx,
		ctor: map[string]*ctorInfo{},
	}
	c.declarePrelude()
	return c
}

func (c *Compiler) errorf(sp ast.Span, format string, args ...interface{}) {
	c.errs = append(c.errs, fmt.Sprintf("line %d: %s", sp.Line, fmt.Sprintf(format, args...)))
}

// Errors reports every compile error accumulated during Compile.
func (c *Compiler) Errors() []string { return c.errs }

// Compile lowers prog into a frozen CompilationUnit. Errors accumulated
// along the way are also returned, joined into one error.
func Compile(prog *ast.Program, ctx *context.Context) (*unit.CompilationUnit, error) {
	c := New(ctx)
	c.compileProgram(prog)
	if len(c.errs) > 0 {
		msg := "compile errors:"
		for _, e := range c.errs {
			msg += "\n" + e
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return c.b.Finish(), nil
}

func (c *Compiler) compileProgram(prog *ast.Program) {
	// Pass 0: types, so constructors and `is` targets exist before any
	// function body that might reference them compiles.
	for _, item := range prog.Items {
		switch d := item.(type) {
		case *ast.StructDecl:
			c.declareStruct(d)
		case *ast.EnumDecl:
			c.declareEnum(d)
		}
	}
	// Pass 1: function bodies. Declaration order doesn't matter for call
	// resolution (OpCall addresses by Hash), only for the address each
	// function ends up declared at, which is recorded as it is compiled.
	for _, item := range prog.Items {
		if f, ok := item.(*ast.FnDecl); ok {
			c.compileFn(f)
		}
	}
}

func (c *Compiler) declareStruct(d *ast.StructDecl) {
	it := unit.Item{d.Name}
	meta := unit.TypeMeta{FieldNames: d.Fields}
	switch d.Kind {
	case ast.StructUnit:
		meta.Kind = unit.TypeStructUnit
	case ast.StructTuple:
		meta.Kind = unit.TypeStructTuple
		meta.Arity = len(d.Fields)
	case ast.StructObject:
		meta.Kind = unit.TypeStructObject
	}
	h, err := c.b.DeclareType(it, meta)
	if err != nil {
		c.errorf(d.Span, "duplicate type %q", d.Name)
		return
	}
	if err := c.ctx.RegisterType(d.Name, h); err != nil {
		c.errorf(d.Span, "%s", err)
	}
	c.ctor[d.Name] = &ctorInfo{
		kind: ctorStruct, shape: meta.Kind, typeHash: h,
		typeName: d.Name, arity: meta.Arity, fields: d.Fields,
	}
}

func (c *Compiler) declareEnum(d *ast.EnumDecl) {
	it := unit.Item{d.Name}
	meta := unit.TypeMeta{Kind: unit.TypeEnum}
	for _, v := range d.Variants {
		vh := unit.HashVariant(it, v.Name)
		vm := unit.VariantMeta{Name: v.Name, Hash: vh, FieldNames: v.Fields}
		switch v.Kind {
		case ast.StructUnit:
			vm.Kind = unit.TypeStructUnit
		case ast.StructTuple:
			vm.Kind = unit.TypeStructTuple
			vm.Arity = v.Arity
		case ast.StructObject:
			vm.Kind = unit.TypeStructObject
		}
		meta.Variants = append(meta.Variants, vm)
	}
	h, err := c.b.DeclareType(it, meta)
	if err != nil {
		c.errorf(d.Span, "duplicate type %q", d.Name)
		return
	}
	if err := c.ctx.RegisterType(d.Name, h); err != nil {
		c.errorf(d.Span, "%s", err)
	}
	for _, vm := range meta.Variants {
		key := d.Name + "::" + vm.Name
		c.ctor[key] = &ctorInfo{
			kind: ctorVariant, shape: vm.Kind, typeHash: h, variantHash: vm.Hash,
			typeName: d.Name, variantName: vm.Name, arity: vm.Arity, fields: vm.FieldNames,
		}
	}
}

func (c *Compiler) compileFn(f *ast.FnDecl) {
	c.fn = newFnScope()
	addr := c.b.Len()
	for _, p := range f.Params {
		c.fn.declare(p)
	}
	tail := c.compileBlockBody(f.Body)
	if tail {
		c.b.Push(unit.Inst{Op: unit.OpReturn}, f.Body.Span)
	} else {
		c.b.Push(unit.Inst{Op: unit.OpReturnUnit}, f.Body.Span)
	}
	it := unit.Item(f.Name)
	if err := c.b.DeclareFunction(it, len(f.Params), addr, c.fn.nextSlot, f.Async); err != nil {
		c.errorf(f.Span, "duplicate function %q", it.String())
	}
	c.fn = nil
}
