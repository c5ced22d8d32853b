package unit

// Builder assembles a CompilationUnit. It is exposed to the compiler
// only; once Finish is called, the resulting CompilationUnit is frozen
// and read-only for the VM. A mutable builder accumulating instructions
// and constants before handing off an immutable artifact, generalized
// with the function and type tables the surface language needs.
type Builder struct {
	instructions []Inst
	spans        []Span
	strings      []string
	stringIndex  map[string]int
	objects      []interface{}
	functions    map[string]FuncEntry
	funcOrder    []Item
	types        map[Hash]*TypeMeta
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		stringIndex: map[string]int{},
		functions:   map[string]FuncEntry{},
		types:       map[Hash]*TypeMeta{},
	}
}

// Push appends an instruction, aligning its Span with it.
func (b *Builder) Push(inst Inst, span Span) int {
	addr := len(b.instructions)
	b.instructions = append(b.instructions, inst)
	b.spans = append(b.spans, span)
	return addr
}

// Patch rewrites the operand of an already-pushed instruction — used by
// the compiler to back-patch forward jump targets once a block's end
// address is known.
func (b *Builder) Patch(addr int, a int64) {
	b.instructions[addr].A = a
}

// Len reports the next address Push will use.
func (b *Builder) Len() int { return len(b.instructions) }

// InternString returns a stable id for s; equal strings share ids.
func (b *Builder) InternString(s string) int {
	if id, ok := b.stringIndex[s]; ok {
		return id
	}
	id := len(b.strings)
	b.strings = append(b.strings, s)
	b.stringIndex[s] = id
	return id
}

// InternObject records a static aggregate key (e.g. an object literal's
// ordered key list) and returns its id.
func (b *Builder) InternObject(o interface{}) int {
	id := len(b.objects)
	b.objects = append(b.objects, o)
	return id
}

// DeclareFunction binds it to an entry address, arity, and frame size.
// Fails ErrDuplicateFunction if it is already bound. async marks a
// function whose return value the VM wraps in an already-ready future
// when the function returns (OpReturn/OpReturnUnit), rather than leaving
// a raw value.
func (b *Builder) DeclareFunction(it Item, arity, address, numLocals int, async bool) error {
	k := it.key()
	if _, ok := b.functions[k]; ok {
		return ErrDuplicateFunction
	}
	b.functions[k] = FuncEntry{Item: it, Arity: arity, Address: address, NumLocals: numLocals, Async: async}
	b.funcOrder = append(b.funcOrder, it)
	return nil
}

// DeclareType registers type metadata under it, computing its Hash.
// Fails ErrDuplicateType on redefinition.
func (b *Builder) DeclareType(it Item, meta TypeMeta) (Hash, error) {
	h := HashItem(it)
	if _, ok := b.types[h]; ok {
		return 0, ErrDuplicateType
	}
	meta.Item = it
	meta.Hash = h
	b.types[h] = &meta
	return h, nil
}

// Type looks up a type already declared on this builder — the compiler
// needs this mid-compilation to resolve pattern-matching arity/field
// checks against a struct/enum declared earlier in the same unit.
func (b *Builder) Type(h Hash) (*TypeMeta, bool) {
	m, ok := b.types[h]
	return m, ok
}

// Function looks up a function already declared on this builder.
func (b *Builder) Function(it Item) (FuncEntry, bool) {
	e, ok := b.functions[it.key()]
	return e, ok
}

// Finish freezes all tables and returns the immutable CompilationUnit.
func (b *Builder) Finish() *CompilationUnit {
	byHash := make(map[Hash]FuncEntry, len(b.functions))
	for _, e := range b.functions {
		byHash[HashItem(e.Item)] = e
	}
	return &CompilationUnit{
		instructions: b.instructions,
		spans:        b.spans,
		strings:      b.strings,
		objects:      b.objects,
		functions:    b.functions,
		funcByHash:   byHash,
		funcOrder:    b.funcOrder,
		types:        b.types,
	}
}
