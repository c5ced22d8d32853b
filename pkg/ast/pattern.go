package ast

// Pattern is implemented by every pattern node the compiler lowers into
// a predicate + binding emission.
type Pattern interface {
	Node
	patternNode()
}

// WildcardPattern is `_`: matches without binding.
type WildcardPattern struct{ Span Span }

func (p *WildcardPattern) Pos() Span    { return p.Span }
func (p *WildcardPattern) patternNode() {}

// IdentPattern binds unconditionally — the irrefutable case `let x = …`.
type IdentPattern struct {
	Name string
	Span Span
}

func (p *IdentPattern) Pos() Span    { return p.Span }
func (p *IdentPattern) patternNode() {}

// LiteralPattern tests equality against a literal value.
type LiteralPattern struct {
	Value Expr // one of IntLit, FloatLit, BoolLit, CharLit, StringLit
	Span  Span
}

func (p *LiteralPattern) Pos() Span    { return p.Span }
func (p *LiteralPattern) patternNode() {}

// SeqPattern is `[p0, p1, ...]`, optionally open (trailing `..`).
type SeqPattern struct {
	Elems []Pattern
	Open  bool // trailing ".." => length >= len(Elems); else exact
	Span  Span
}

func (p *SeqPattern) Pos() Span    { return p.Span }
func (p *SeqPattern) patternNode() {}

// ObjectPatternField is one `k` (shorthand bind) or `k: pattern` entry.
type ObjectPatternField struct {
	Key     string
	Pattern Pattern // nil for shorthand; binds Key directly
}

// ObjectPattern is `#{ k: p, .. }`.
type ObjectPattern struct {
	Fields []ObjectPatternField
	Open   bool // trailing ".." permits extra keys
	Span   Span
}

func (p *ObjectPattern) Pos() Span    { return p.Span }
func (p *ObjectPattern) patternNode() {}

// TypedTuplePattern is `Path(p0, p1)`: requires a typed tuple (struct or
// enum variant) of the matching type and arity.
type TypedTuplePattern struct {
	Path  []string
	Elems []Pattern
	Span  Span
}

func (p *TypedTuplePattern) Pos() Span    { return p.Span }
func (p *TypedTuplePattern) patternNode() {}

// StructObjectPatternField is one `k` (shorthand) or `k: pattern` field.
type StructObjectPatternField struct {
	Key     string
	Pattern Pattern
}

// StructObjectPattern is `Path { k, k2: p, .. }`.
type StructObjectPattern struct {
	Path   []string
	Fields []StructObjectPatternField
	Open   bool
	Span   Span
}

func (p *StructObjectPattern) Pos() Span    { return p.Span }
func (p *StructObjectPattern) patternNode() {}
