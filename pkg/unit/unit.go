package unit

// TypeKind classifies a declared type's shape.
type TypeKind byte

const (
	TypeStructUnit TypeKind = iota
	TypeStructTuple
	TypeStructObject
	TypeEnum
)

// VariantMeta describes one enum variant.
type VariantMeta struct {
	Name        string
	Hash        Hash
	Kind        TypeKind // TypeStructUnit, TypeStructTuple, or TypeStructObject
	Arity       int      // for tuple variants
	FieldNames  []string // for object variants
}

// TypeMeta is the metadata the compiler records for every declared struct
// or enum, consulted by the VM for pattern matching and by `is`.
type TypeMeta struct {
	Item       Item
	Hash       Hash
	Kind       TypeKind
	Arity      int      // TypeStructTuple
	FieldNames []string // TypeStructObject
	Variants   []VariantMeta
}

// FuncEntry records a declared function's entry address, arity, and the
// number of local slots its frame needs (parameters plus every `let` and
// synthetic temp the compiler allocated in its body).
type FuncEntry struct {
	Item      Item
	Arity     int
	Address   int
	NumLocals int
	Async     bool
}

// CompilationUnit is the immutable artifact a Compiler produces and a VM
// executes: instructions, constant pools, the function and type tables,
// and source spans aligned with instructions.
type CompilationUnit struct {
	instructions []Inst
	spans        []Span
	strings      []string
	objects      []interface{} // static aggregate keys, e.g. object-literal key lists
	functions    map[string]FuncEntry
	funcByHash   map[Hash]FuncEntry
	funcOrder    []Item
	types        map[Hash]*TypeMeta
}

// Instruction fetches the instruction at addr. The VM trusts every
// address it dispatches on; out-of-range access is a programmer error in
// the compiler, not a VM error, so this panics rather than returning ok.
func (u *CompilationUnit) Instruction(addr int) Inst { return u.instructions[addr] }

// Len reports the instruction count, used by the VM to detect falling off
// the end of a function body.
func (u *CompilationUnit) Len() int { return len(u.instructions) }

// Span returns the source span aligned with the instruction at addr.
func (u *CompilationUnit) Span(addr int) Span { return u.spans[addr] }

// ConstString fetches an interned string constant.
func (u *CompilationUnit) ConstString(id int) string { return u.strings[id] }

// ConstObject fetches a static aggregate key, such as an object literal's
// ordered key list.
func (u *CompilationUnit) ConstObject(id int) interface{} { return u.objects[id] }

// Function looks up a declared function by its Item.
func (u *CompilationUnit) Function(it Item) (FuncEntry, bool) {
	e, ok := u.functions[it.key()]
	return e, ok
}

// FunctionByHash looks up a declared function by its Item's Hash. Call
// instructions carry a Hash rather than an Item so the compiler can emit
// a call before the callee's entry address is known — resolution happens
// once, here, against the frozen unit.
func (u *CompilationUnit) FunctionByHash(h Hash) (FuncEntry, bool) {
	e, ok := u.funcByHash[h]
	return e, ok
}

// Functions returns every declared function, in declaration order — used
// by the disassembler to list entry points.
func (u *CompilationUnit) Functions() []FuncEntry {
	out := make([]FuncEntry, 0, len(u.funcOrder))
	for _, it := range u.funcOrder {
		out = append(out, u.functions[it.key()])
	}
	return out
}

// Type looks up type metadata by hash.
func (u *CompilationUnit) Type(h Hash) (*TypeMeta, bool) {
	m, ok := u.types[h]
	return m, ok
}
