package value

// This file exposes the typed payload behind every heap-backed Value to
// callers outside the package (the VM, the host bridge). Reads mirror
// AsCallable/AsFuture: direct, unguarded access, since every read the VM
// performs is already transient (one opcode's duration) and containers
// are never mutated out from under a concurrent reader within a single
// task. Mutations go through the cell's Mut borrow, so a conflicting
// borrow held across a host callback surfaces as ErrNotAccessibleMut
// rather than silently corrupting state.

// AsString reads the backing string; strings are immutable once
// constructed.
func (v Value) AsString() string { return v.cell.data.(string) }

func (v Value) AsVec() []Value { return v.cell.data.([]Value) }

func (v Value) AsTuple() []Value { return v.cell.data.([]Value) }

func (v Value) AsBytes() []byte { return v.cell.data.([]byte) }

func (v Value) AsObject() *ObjectData { return v.cell.data.(*ObjectData) }

func (v Value) AsTypedTuple() *TypedTupleData { return v.cell.data.(*TypedTupleData) }

func (v Value) AsTypedObject() *TypedObjectData { return v.cell.data.(*TypedObjectData) }

func (v Value) AsVariantTuple() *VariantTupleData { return v.cell.data.(*VariantTupleData) }

func (v Value) AsVariantObject() *VariantObjectData { return v.cell.data.(*VariantObjectData) }

func (v Value) AsHostData() *HostData { return v.cell.data.(*HostData) }

// SetVec replaces the backing slice under a mutable borrow. The VM's
// index-assignment mutates the slice in place and does not call it.
func (v Value) SetVec(items []Value) error {
	g, err := v.cell.Mut()
	if err != nil {
		return err
	}
	defer g.Release()
	g.Set(items)
	return nil
}

func (v Value) SetBytes(b []byte) error {
	g, err := v.cell.Mut()
	if err != nil {
		return err
	}
	defer g.Release()
	g.Set(b)
	return nil
}

// MutObject acquires a mutable borrow over the cell backing an Object (or
// a typed/variant object's field map) for the duration of fn, so a
// conflicting outstanding borrow surfaces as ErrNotAccessibleMut instead
// of racing a reader. The VM's FieldSet and IndexSet take the cell's Mut
// borrow directly rather than calling it.
func (v Value) MutObject(fn func(*ObjectData)) error {
	g, err := v.cell.Mut()
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Data().(*ObjectData))
	return nil
}

// TypeHash reports the declared-type hash backing a typed/variant value,
// and whether v carries one at all (built-in kinds don't).
func (v Value) TypeHash() (uint64, bool) {
	switch v.kind {
	case KindTypedTuple:
		return v.AsTypedTuple().TypeHash, true
	case KindTypedObject:
		return v.AsTypedObject().TypeHash, true
	case KindVariantTuple:
		return v.AsVariantTuple().EnumHash, true
	case KindVariantObject:
		return v.AsVariantObject().EnumHash, true
	default:
		return 0, false
	}
}

// VariantHash reports the variant hash of a VariantTuple/VariantObject
// value, and whether v is one at all.
func (v Value) VariantHash() (uint64, bool) {
	switch v.kind {
	case KindVariantTuple:
		return v.AsVariantTuple().VariantHash, true
	case KindVariantObject:
		return v.AsVariantObject().VariantHash, true
	default:
		return 0, false
	}
}
