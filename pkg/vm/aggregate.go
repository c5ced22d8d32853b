package vm

import (
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// execObject builds an anonymous Object literal: inst.A names the
// interned ordered key list, inst.B the number of values pushed in the
// same order.
func (t *Task) execObject(inst unit.Inst) error {
	keys := t.cu.ConstObject(int(inst.A)).([]string)
	vals := t.popN(int(inst.B))
	data := value.NewObjectData()
	for i, k := range keys {
		data.Set(k, vals[i])
	}
	t.push(value.Object(data))
	return nil
}

// execTypedTuple constructs a declared tuple struct (or, when it carries
// no fields, a bare unit-struct reference with B == 0).
func (t *Task) execTypedTuple(inst unit.Inst) error {
	meta, ok := t.cu.Type(inst.Hash)
	if !ok {
		return t.kindError(ErrBadArgument, "unknown type (hash %d)", inst.Hash)
	}
	fields := t.popN(int(inst.B))
	t.push(value.TypedTuple(uint64(inst.Hash), meta.Item.String(), fields))
	return nil
}

// execTypedObject constructs a declared object-shaped struct. Field
// names come from the type's own metadata, not the instruction, since
// OpTypedObject carries no key-list operand — the values on the stack
// are popped in meta.FieldNames order.
func (t *Task) execTypedObject(inst unit.Inst) error {
	meta, ok := t.cu.Type(inst.Hash)
	if !ok {
		return t.kindError(ErrBadArgument, "unknown type (hash %d)", inst.Hash)
	}
	vals := t.popN(int(inst.B))
	data := value.NewObjectData()
	for i, name := range meta.FieldNames {
		if i < len(vals) {
			data.Set(name, vals[i])
		}
	}
	t.push(value.TypedObject(uint64(inst.Hash), meta.Item.String(), data))
	return nil
}

// execVariantTuple constructs an enum tuple variant (or a bare
// unit-variant reference when B == 0), looking up the variant's name by
// the hash packed into inst.A.
func (t *Task) execVariantTuple(inst unit.Inst) error {
	meta, vm, ok := t.lookupVariant(inst.Hash, unit.Hash(inst.A))
	if !ok {
		return t.kindError(ErrBadArgument, "unknown variant (hash %d)", inst.A)
	}
	fields := t.popN(int(inst.B))
	t.push(value.VariantTuple(uint64(inst.Hash), uint64(inst.A), meta.Item.String(), vm.Name, fields))
	return nil
}

// execVariantObject constructs an enum object variant; like
// OpTypedObject, field names come from the variant's own metadata.
func (t *Task) execVariantObject(inst unit.Inst) error {
	meta, vm, ok := t.lookupVariant(inst.Hash, unit.Hash(inst.A))
	if !ok {
		return t.kindError(ErrBadArgument, "unknown variant (hash %d)", inst.A)
	}
	vals := t.popN(int(inst.B))
	data := value.NewObjectData()
	for i, name := range vm.FieldNames {
		if i < len(vals) {
			data.Set(name, vals[i])
		}
	}
	t.push(value.VariantObject(uint64(inst.Hash), uint64(inst.A), meta.Item.String(), vm.Name, data))
	return nil
}

func (t *Task) lookupVariant(enumHash, variantHash unit.Hash) (*unit.TypeMeta, *unit.VariantMeta, bool) {
	meta, ok := t.cu.Type(enumHash)
	if !ok {
		return nil, nil, false
	}
	for i := range meta.Variants {
		if meta.Variants[i].Hash == variantHash {
			return meta, &meta.Variants[i], true
		}
	}
	return nil, nil, false
}

// execIndexGet implements `container[idx]` for Vec, Bytes, String, every
// object kind (string key) and every tuple kind (int index). A
// registered INDEX_GET protocol is consulted only for kinds none of those
// cases handle, so it never overrides indexing of a declared struct or
// enum variant.
func (t *Task) execIndexGet() error {
	idx := t.pop()
	container := t.pop()
	switch container.Kind() {
	case value.KindVec:
		items := container.AsVec()
		i, err := t.intIndex(idx, len(items))
		if err != nil {
			return err
		}
		t.push(items[i])
		return nil
	case value.KindBytes:
		b := container.AsBytes()
		i, err := t.intIndex(idx, len(b))
		if err != nil {
			return err
		}
		t.push(value.Byte(b[i]))
		return nil
	case value.KindString:
		runes := []rune(container.AsString())
		i, err := t.intIndex(idx, len(runes))
		if err != nil {
			return err
		}
		t.push(value.Char(runes[i]))
		return nil
	case value.KindObject, value.KindTypedObject, value.KindVariantObject:
		data := objectDataOf(container)
		key := idx.AsString()
		v, ok := data.Get(key)
		if !ok {
			return t.kindError(ErrBadArgument, "no such key %q", key)
		}
		t.push(v)
		return nil
	case value.KindTuple, value.KindTypedTuple, value.KindVariantTuple:
		fields := tupleFieldsOf(container)
		i, err := t.intIndex(idx, len(fields))
		if err != nil {
			return err
		}
		t.push(fields[i])
		return nil
	}
	if hash, ok := container.TypeHash(); ok {
		if callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), context.INDEX_GET); ok {
			rv, err := t.invokeCallable(callable, []value.Value{container, idx})
			if err != nil {
				return err
			}
			t.push(rv)
			return nil
		}
	}
	return t.kindError(ErrUnsupportedIndexGet, "cannot index into %s", container.TypeName())
}

// execIndexSet implements `container[idx] = value`, mutating Vec/Bytes/
// Object in place under the cell's exclusive borrow.
func (t *Task) execIndexSet() error {
	container := t.pop()
	idx := t.pop()
	val := t.pop()
	switch container.Kind() {
	case value.KindVec:
		g, err := container.Cell().Mut()
		if err != nil {
			return t.kindError(ErrNotAccessibleMut, "%s", err)
		}
		defer g.Release()
		items := g.Data().([]value.Value)
		i, err := t.intIndex(idx, len(items))
		if err != nil {
			return err
		}
		items[i] = val
		return nil
	case value.KindBytes:
		g, err := container.Cell().Mut()
		if err != nil {
			return t.kindError(ErrNotAccessibleMut, "%s", err)
		}
		defer g.Release()
		b := g.Data().([]byte)
		i, err := t.intIndex(idx, len(b))
		if err != nil {
			return err
		}
		b[i] = val.AsByte()
		return nil
	case value.KindObject, value.KindTypedObject, value.KindVariantObject:
		g, err := container.Cell().Mut()
		if err != nil {
			return t.kindError(ErrNotAccessibleMut, "%s", err)
		}
		defer g.Release()
		objectDataOfGuard(container, g).Set(idx.AsString(), val)
		return nil
	}
	if hash, ok := container.TypeHash(); ok {
		if callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), context.INDEX_SET); ok {
			_, err := t.invokeCallable(callable, []value.Value{container, idx, val})
			return err
		}
	}
	return t.kindError(ErrUnsupportedIndexSet, "cannot assign into %s", container.TypeName())
}

func (t *Task) intIndex(idx value.Value, length int) (int, error) {
	if idx.Kind() != value.KindInt {
		return 0, t.kindError(ErrBadArgument, "index must be int, got %s", idx.TypeName())
	}
	i := int(idx.AsInt())
	if i < 0 || i >= length {
		return 0, t.kindError(ErrBadArgument, "index %d out of bounds (length %d)", i, length)
	}
	return i, nil
}

// objectDataOf extracts the *ObjectData a plain Object/TypedObject/
// VariantObject value wraps, for a read that doesn't need a borrow.
func objectDataOf(v value.Value) *value.ObjectData {
	switch v.Kind() {
	case value.KindObject:
		return v.AsObject()
	case value.KindTypedObject:
		return v.AsTypedObject().Fields
	case value.KindVariantObject:
		return v.AsVariantObject().Fields
	}
	return nil
}

// objectDataOfGuard is objectDataOf for a value already held under a Mut
// guard, so mutation goes through the borrowed payload rather than a
// fresh (possibly stale) read.
func objectDataOfGuard(v value.Value, g interface{ Data() interface{} }) *value.ObjectData {
	switch v.Kind() {
	case value.KindObject:
		return g.Data().(*value.ObjectData)
	case value.KindTypedObject:
		return g.Data().(*value.TypedObjectData).Fields
	case value.KindVariantObject:
		return g.Data().(*value.VariantObjectData).Fields
	}
	return nil
}

// execFieldGet implements `x.field` for declared object-shaped structs
// and enum variants.
func (t *Task) execFieldGet(inst unit.Inst) error {
	container := t.pop()
	name := t.cu.ConstString(int(inst.A))
	data := objectDataOf(container)
	if data == nil {
		return t.kindError(ErrBadArgument, "%s has no fields", container.TypeName())
	}
	v, ok := data.Get(name)
	if !ok {
		return t.kindError(ErrBadArgument, "%s has no field %q", container.TypeName(), name)
	}
	t.push(v)
	return nil
}

// execFieldSet implements `x.field = value`, mutating under the
// container cell's exclusive borrow.
func (t *Task) execFieldSet(inst unit.Inst) error {
	container := t.pop()
	val := t.pop()
	name := t.cu.ConstString(int(inst.A))
	g, err := container.Cell().Mut()
	if err != nil {
		return t.kindError(ErrNotAccessibleMut, "%s", err)
	}
	defer g.Release()
	data := objectDataOfGuard(container, g)
	if data == nil {
		return t.kindError(ErrBadArgument, "%s has no fields", container.TypeName())
	}
	data.Set(name, val)
	return nil
}

// execTupleIndexGet implements `.0`, `.1`, … on vectors, tuples, tuple
// structs and tuple enum variants.
func (t *Task) execTupleIndexGet(inst unit.Inst) error {
	container := t.pop()
	i := int(inst.A)
	fields := tupleFieldsOf(container)
	if fields == nil && container.Kind() != value.KindTuple && container.Kind() != value.KindVec {
		return t.kindError(ErrUnsupportedTupleIndexGet, "%s is not a tuple", container.TypeName())
	}
	if i < 0 || i >= len(fields) {
		return t.kindError(ErrBadArgument, "tuple index %d out of bounds (length %d)", i, len(fields))
	}
	t.push(fields[i])
	return nil
}

// tupleFieldsOf extracts the backing element slice of a Vec, Tuple,
// TypedTuple or VariantTuple, used by both `.N` (execTupleIndexGet) and
// `[N]` (execIndexGet, which reads a Vec directly) so the two forms agree
// on every one of these kinds.
func tupleFieldsOf(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindVec:
		return v.AsVec()
	case value.KindTuple:
		return v.AsTuple()
	case value.KindTypedTuple:
		return v.AsTypedTuple().Fields
	case value.KindVariantTuple:
		return v.AsVariantTuple().Fields
	default:
		return nil
	}
}
