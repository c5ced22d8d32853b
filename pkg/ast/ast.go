// Package ast defines the abstract syntax tree the parser yields and the
// compiler consumes.
package ast

import "github.com/kristofer/weave/pkg/unit"

// Span is a half-open byte range into the source, plus the starting line,
// carried by every node for compile-error and panic diagnostics. It is
// unit.Span itself, so a node's span goes straight into the unit's span
// table.
type Span = unit.Span

// Node is implemented by every AST node.
type Node interface {
	Pos() Span
}

// Expr is implemented by expression nodes — every one lowers to a
// sequence that leaves exactly one value on the operand stack.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a compilation unit: a flat sequence of
// top-level items (functions, struct/enum declarations, use statements).
type Program struct {
	Items []Stmt
	Span  Span
}

func (p *Program) Pos() Span { return p.Span }

// ---- top-level items ----

// FnDecl declares a function. Async functions set Async; calling one
// directly produces a future rather than running synchronously to
// completion.
type FnDecl struct {
	Name   []string // Item path components; usually a single name
	Params []string
	Body   *Block
	Async  bool
	Span   Span
}

func (f *FnDecl) Pos() Span { return f.Span }
func (f *FnDecl) stmtNode() {}

// UseDecl imports names from a module path into scope. The parser
// records it; the compiler does not resolve it against the Context, and
// it has no runtime effect.
type UseDecl struct {
	Path []string
	Span Span
}

func (u *UseDecl) Pos() Span { return u.Span }
func (u *UseDecl) stmtNode() {}

// StructKind distinguishes the three struct forms.
type StructKind byte

const (
	StructUnit StructKind = iota
	StructTuple
	StructObject
)

// StructDecl declares `struct S;`, `struct S(a, b);`, or
// `struct S { a, b }`.
type StructDecl struct {
	Name   string
	Kind   StructKind
	Fields []string // field names for StructObject; positional names for StructTuple, whose count is the arity
	Span   Span
}

func (s *StructDecl) Pos() Span { return s.Span }
func (s *StructDecl) stmtNode() {}

// EnumVariant is one arm of an enum declaration.
type EnumVariant struct {
	Name   string
	Kind   StructKind
	Fields []string // field names for object variants
	Arity  int      // for tuple variants
}

// EnumDecl declares `enum E { V, V(a), V { a } }`.
type EnumDecl struct {
	Name     string
	Variants []EnumVariant
	Span     Span
}

func (e *EnumDecl) Pos() Span { return e.Span }
func (e *EnumDecl) stmtNode() {}

// ---- statements ----

// LetStmt binds the result of Value to Pattern. A refutable pattern that
// fails panics at runtime with reason "pattern did not match".
type LetStmt struct {
	Pattern Pattern
	Value   Expr
	Span    Span
}

func (l *LetStmt) Pos() Span { return l.Span }
func (l *LetStmt) stmtNode() {}

// ExprStmt is an expression used in statement position; its value is
// popped after evaluation.
type ExprStmt struct {
	X    Expr
	Span Span
}

func (e *ExprStmt) Pos() Span { return e.Span }
func (e *ExprStmt) stmtNode() {}

// ReturnStmt returns Value (or unit, if nil) from the enclosing function.
type ReturnStmt struct {
	Value Expr // nil => unit
	Span  Span
}

func (r *ReturnStmt) Pos() Span { return r.Span }
func (r *ReturnStmt) stmtNode() {}

// BreakStmt exits the nearest enclosing loop, or the loop labeled Label
// if set, optionally carrying Value.
type BreakStmt struct {
	Label string // "" => nearest enclosing loop
	Value Expr   // nil => unit
	Span  Span
}

func (b *BreakStmt) Pos() Span { return b.Span }
func (b *BreakStmt) stmtNode() {}

// ContinueStmt restarts the nearest enclosing loop (or the one labeled
// Label).
type ContinueStmt struct {
	Label string
	Span  Span
}

func (c *ContinueStmt) Pos() Span { return c.Span }
func (c *ContinueStmt) stmtNode() {}

// ---- expressions ----

// Block introduces a lexical scope; its locals are dropped on exit. Its
// value is the Tail expression, or unit if Tail is nil.
type Block struct {
	Stmts []Stmt
	Tail  Expr // nil => unit
	Span  Span
}

func (b *Block) Pos() Span { return b.Span }
func (b *Block) exprNode() {}

// Ident is a name reference resolved at compile time to a local slot, a
// declared constructor, or else a function addressed by its name hash.
type Ident struct {
	Name string
	Span Span
}

func (i *Ident) Pos() Span { return i.Span }
func (i *Ident) exprNode() {}

// Path is a `A::B::C` item reference — a function, enum variant
// constructor, or prelude name (`Option::Some`, …).
type Path struct {
	Components []string
	Span       Span
}

func (p *Path) Pos() Span { return p.Span }
func (p *Path) exprNode() {}

type IntLit struct {
	Value int64
	Span  Span
}

func (x *IntLit) Pos() Span { return x.Span }
func (x *IntLit) exprNode() {}

type FloatLit struct {
	Value float64
	Span  Span
}

func (x *FloatLit) Pos() Span { return x.Span }
func (x *FloatLit) exprNode() {}

type BoolLit struct {
	Value bool
	Span  Span
}

func (x *BoolLit) Pos() Span { return x.Span }
func (x *BoolLit) exprNode() {}

type CharLit struct {
	Value rune
	Span  Span
}

func (x *CharLit) Pos() Span { return x.Span }
func (x *CharLit) exprNode() {}

type StringLit struct {
	Value string
	Span  Span
}

func (x *StringLit) Pos() Span { return x.Span }
func (x *StringLit) exprNode() {}

// TemplatePart is one piece of a backtick template string: either a
// literal run of text (Expr == nil) or a hole (Expr != nil).
type TemplatePart struct {
	Text string
	Expr Expr
}

// TemplateLit is a backtick string with `{expr}` holes.
type TemplateLit struct {
	Parts []TemplatePart
	Span  Span
}

func (x *TemplateLit) Pos() Span { return x.Span }
func (x *TemplateLit) exprNode() {}

type VecLit struct {
	Elems []Expr
	Span  Span
}

func (x *VecLit) Pos() Span { return x.Span }
func (x *VecLit) exprNode() {}

type TupleLit struct {
	Elems []Expr
	Span  Span
}

func (x *TupleLit) Pos() Span { return x.Span }
func (x *TupleLit) exprNode() {}

// ObjectEntry is one `k: v` (or shorthand `k`, Value == nil meaning "use
// the identifier k as both key and value") entry of an object literal.
type ObjectEntry struct {
	Key   string
	Value Expr // nil => shorthand, look up Ident(Key)
}

type ObjectLit struct {
	Entries []ObjectEntry
	Span    Span
}

func (x *ObjectLit) Pos() Span { return x.Span }
func (x *ObjectLit) exprNode() {}

// StructLit is `Path { k: v, k2 }`: construction of a declared
// object-shaped struct or enum variant. Entries reuse ObjectEntry's
// shorthand rule (nil Value => look up Ident(Key)).
type StructLit struct {
	Path    []string
	Entries []ObjectEntry
	Span    Span
}

func (x *StructLit) Pos() Span { return x.Span }
func (x *StructLit) exprNode() {}

// UnaryOp is `!` or `-`.
type UnaryOp byte

const (
	UnaryNot UnaryOp = iota
	UnaryNeg
)

type Unary struct {
	Op   UnaryOp
	X    Expr
	Span Span
}

func (x *Unary) Pos() Span { return x.Span }
func (x *Unary) exprNode() {}

// BinaryOp enumerates the binary operators , including the
// short-circuit logical operators (lowered to jumps, not calls).
type BinaryOp byte

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinEq
	BinNeq
	BinLt
	BinGt
	BinLte
	BinGte
	BinAnd // &&
	BinOr  // ||
)

type Binary struct {
	Op          BinaryOp
	Left, Right Expr
	Span        Span
}

func (x *Binary) Pos() Span { return x.Span }
func (x *Binary) exprNode() {}

// AssignOp enumerates `=` and the compound assignment operators.
type AssignOp byte

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

// Assign is `a = e` or `a op= e`. Target must be an l-value: Ident,
// FieldAccess, or Index.
type Assign struct {
	Op     AssignOp
	Target Expr
	Value  Expr
	Span   Span
}

func (x *Assign) Pos() Span { return x.Span }
func (x *Assign) exprNode() {}

// Index is `a[i]`.
type Index struct {
	X, Idx Expr
	Span   Span
}

func (x *Index) Pos() Span { return x.Span }
func (x *Index) exprNode() {}

// TupleIndex is `a.0`.
type TupleIndex struct {
	X     Expr
	Index int
	Span  Span
}

func (x *TupleIndex) Pos() Span { return x.Span }
func (x *TupleIndex) exprNode() {}

// FieldAccess is `a.b`.
type FieldAccess struct {
	X     Expr
	Field string
	Span  Span
}

func (x *FieldAccess) Pos() Span { return x.Span }
func (x *FieldAccess) exprNode() {}

// Call is a function/constructor call: `callee(args...)`.
type Call struct {
	Callee Expr
	Args   []Expr
	Span   Span
}

func (x *Call) Pos() Span { return x.Span }
func (x *Call) exprNode() {}

// If produces a value when both arms do, unit otherwise.
type If struct {
	Cond Expr
	Then *Block
	Else Expr // *Block or *If, nil if no else
	Span Span
}

func (x *If) Pos() Span { return x.Span }
func (x *If) exprNode() {}

// MatchArm is one `pattern [if guard] => body` arm.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if no guard
	Body    Expr
}

// Match evaluates X, then tests each arm's pattern top-down.
type Match struct {
	X    Expr
	Arms []MatchArm
	Span Span
}

func (x *Match) Pos() Span { return x.Span }
func (x *Match) exprNode() {}

// While loops while Cond is true; produces unit, or break's value.
type While struct {
	Label string
	Cond  Expr
	Body  *Block
	Span  Span
}

func (x *While) Pos() Span { return x.Span }
func (x *While) exprNode() {}

// Loop is `loop { ... }`: unconditional, exited only via break/return.
type Loop struct {
	Label string
	Body  *Block
	Span  Span
}

func (x *Loop) Pos() Span { return x.Span }
func (x *Loop) exprNode() {}

// For desugars (at compile time) to INTO_ITER + repeated NEXT, per spec
// §4.4; it is kept as its own node so the compiler can implement that
// desugaring once in one place.
type For struct {
	Label   string
	Pattern Pattern
	Iter    Expr
	Body    *Block
	Span    Span
}

func (x *For) Pos() Span { return x.Span }
func (x *For) exprNode() {}

// Await suspends the current task until X's future completes.
type Await struct {
	X    Expr
	Span Span
}

func (x *Await) Pos() Span { return x.Span }
func (x *Await) exprNode() {}

// Try is the `?` suffix operator.
type Try struct {
	X    Expr
	Span Span
}

func (x *Try) Pos() Span { return x.Span }
func (x *Try) exprNode() {}

// IsKind distinguishes `is` from `is not`.
type IsKind byte

const (
	IsPositive IsKind = iota
	IsNegative
)

// Is is `value is Type` / `value is not Type`.
type Is struct {
	Kind IsKind
	X    Expr
	Type string
	Span Span
}

func (x *Is) Pos() Span { return x.Span }
func (x *Is) exprNode() {}
