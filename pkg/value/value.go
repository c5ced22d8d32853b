// Package value implements the tagged value model shared by the compiler
// and the virtual machine.
//
// A Value is a small, copyable tagged union. Scalars (unit, bool, char,
// int, float, byte) are held inline. Everything else — strings, byte
// buffers, vectors, objects, tuples, typed tuples/objects, enum variants,
// function pointers, futures and opaque host values — holds a handle to a
// shared Cell on the heap. Copying a Value copies the handle; the
// underlying data is never implicitly deep copied. The Cell's reference
// count changes only through explicit Clone and Drop calls: the VM's own
// Dup and LoadLocal copy the handle without calling either.
//
// Access to a Cell's data goes through a borrow: Ref() for shared,
// read-only access, or Mut() for exclusive, read-write access. The
// discipline mirrors a single-threaded refcell: any number of outstanding
// Refs, or exactly one outstanding Mut, never both. Violating that
// invariant is a runtime error (NotAccessibleRef / NotAccessibleMut), not
// undefined behavior — see cell.go.
package value

import (
	"fmt"
	"math"
)

// Kind tags which variant a Value holds.
type Kind byte

const (
	KindUnit Kind = iota
	KindBool
	KindChar
	KindInt
	KindFloat
	KindByte
	KindString
	KindBytes
	KindVec
	KindObject
	KindTuple
	KindTypedTuple
	KindTypedObject
	KindVariantTuple
	KindVariantObject
	KindFunction
	KindFuture
	KindHost
)

// String names a Kind the way diagnostics and `is` report it.
func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindByte:
		return "byte"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindVec:
		return "Vec"
	case KindObject:
		return "Object"
	case KindTuple:
		return "tuple"
	case KindTypedTuple:
		return "struct"
	case KindTypedObject:
		return "struct"
	case KindVariantTuple:
		return "enum"
	case KindVariantObject:
		return "enum"
	case KindFunction:
		return "Function"
	case KindFuture:
		return "Future"
	case KindHost:
		return "Host"
	default:
		return "unknown"
	}
}

// Value is the tagged union that flows through the compiler's stack
// discipline and the VM's operand stack. The zero Value is Unit.
type Value struct {
	kind Kind
	i    int64   // Int, Byte (low 8 bits), Bool (0/1)
	f    float64 // Float
	ch   rune    // Char
	cell *Cell   // heap-backed kinds
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns a human-readable type name, resolving typed/variant
// values to their declared name when a cell carries one.
func (v Value) TypeName() string {
	switch v.kind {
	case KindTypedTuple, KindTypedObject, KindVariantTuple, KindVariantObject:
		if v.cell != nil {
			switch d := v.cell.data.(type) {
			case *TypedTupleData:
				return d.Name
			case *TypedObjectData:
				return d.Name
			case *VariantTupleData:
				return d.EnumName + "::" + d.VariantName
			case *VariantObjectData:
				return d.EnumName + "::" + d.VariantName
			}
		}
		return v.kind.String()
	default:
		return v.kind.String()
	}
}

// Constructors for scalar variants.

func Unit() Value { return Value{kind: KindUnit} }

func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{kind: KindBool, i: i}
}

func Char(r rune) Value     { return Value{kind: KindChar, ch: r} }
func Int(n int64) Value     { return Value{kind: KindInt, i: n} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Byte(b byte) Value     { return Value{kind: KindByte, i: int64(b)} }

func (v Value) AsBool() bool    { return v.i != 0 }
func (v Value) AsChar() rune    { return v.ch }
func (v Value) AsInt() int64    { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsByte() byte    { return byte(v.i) }

// Cell returns the underlying shared cell for heap-backed kinds, or nil
// for scalars.
func (v Value) Cell() *Cell { return v.cell }

func fromCell(k Kind, c *Cell) Value { return Value{kind: k, cell: c} }

// String constructs an immutable UTF-8 string value.
func String(s string) Value { return fromCell(KindString, newCell(s)) }

// Bytes constructs a mutable byte-buffer value.
func Bytes(b []byte) Value { return fromCell(KindBytes, newCell(append([]byte(nil), b...))) }

// Vec constructs an ordered-sequence value.
func Vec(items []Value) Value { return fromCell(KindVec, newCell(append([]Value(nil), items...))) }

// ObjectData preserves insertion order alongside the key->value map.
type ObjectData struct {
	Keys   []string
	Values map[string]Value
}

func NewObjectData() *ObjectData { return &ObjectData{Values: map[string]Value{}} }

// Set inserts or updates a key, preserving first-insertion order.
func (o *ObjectData) Set(key string, v Value) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = v
}

func (o *ObjectData) Get(key string) (Value, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Object constructs a mapping value from string to Value.
func Object(data *ObjectData) Value { return fromCell(KindObject, newCell(data)) }

// Tuple constructs a fixed-arity anonymous tuple.
func Tuple(items []Value) Value { return fromCell(KindTuple, newCell(append([]Value(nil), items...))) }

// TypedTupleData is the payload of a declared tuple-struct or tuple
// enum-variant value.
type TypedTupleData struct {
	TypeHash uint64
	Name     string // declared struct/variant name, for diagnostics
	Fields   []Value
}

func TypedTuple(typeHash uint64, name string, fields []Value) Value {
	return fromCell(KindTypedTuple, newCell(&TypedTupleData{TypeHash: typeHash, Name: name, Fields: append([]Value(nil), fields...)}))
}

// TypedObjectData is the payload of a declared object-struct value.
type TypedObjectData struct {
	TypeHash uint64
	Name     string
	Fields   *ObjectData
}

func TypedObject(typeHash uint64, name string, fields *ObjectData) Value {
	return fromCell(KindTypedObject, newCell(&TypedObjectData{TypeHash: typeHash, Name: name, Fields: fields}))
}

// VariantTupleData is the payload of an enum variant carrying positional
// fields.
type VariantTupleData struct {
	EnumHash    uint64
	VariantHash uint64
	EnumName    string
	VariantName string
	Fields      []Value
}

func VariantTuple(enumHash, variantHash uint64, enumName, variantName string, fields []Value) Value {
	return fromCell(KindVariantTuple, newCell(&VariantTupleData{
		EnumHash: enumHash, VariantHash: variantHash,
		EnumName: enumName, VariantName: variantName,
		Fields: append([]Value(nil), fields...),
	}))
}

// VariantObjectData is the payload of an enum variant carrying named
// fields.
type VariantObjectData struct {
	EnumHash    uint64
	VariantHash uint64
	EnumName    string
	VariantName string
	Fields      *ObjectData
}

func VariantObject(enumHash, variantHash uint64, enumName, variantName string, fields *ObjectData) Value {
	return fromCell(KindVariantObject, newCell(&VariantObjectData{
		EnumHash: enumHash, VariantHash: variantHash,
		EnumName: enumName, VariantName: variantName,
		Fields: fields,
	}))
}

// CallableKind distinguishes the three ways a function-pointer Value can
// be realized.
type CallableKind byte

const (
	CallableCompiled CallableKind = iota
	CallableHost
	CallableTupleCtor
	CallableVariantCtor
)

// HostFunc is the shape every host-registered function must have. Host
// functions receive and return Values directly; there is no conversion
// layer between host-native Go types and Values.
type HostFunc func(args []Value) (Value, error)

// Callable is the payload of a Function value: either a compiled
// function's entry point, a host callback, or a constructor for a typed
// tuple / variant tuple. Constructors for unit structs and object structs
// are not representable here — they cannot be called indirectly.
type Callable struct {
	Kind  CallableKind
	Name  string
	Arity int
	Hash  uint64   // CallableCompiled: the function's Item hash, resolved against the unit at call time
	Async bool     // CallableCompiled: wrap the call's result with Promote
	Host  HostFunc // CallableHost

	TypeHash    uint64 // CallableTupleCtor / CallableVariantCtor
	VariantHash uint64
	EnumName    string
	VariantName string
}

func Function(c *Callable) Value { return fromCell(KindFunction, newCell(c)) }

func (v Value) AsCallable() *Callable {
	if v.kind != KindFunction || v.cell == nil {
		return nil
	}
	return v.cell.data.(*Callable)
}

// FutureState tracks a future's lifecycle for the Await opcode.
type FutureState byte

const (
	FuturePending FutureState = iota
	FutureReady
)

// FutureData is the payload of a Future value. Poll is supplied by the
// host executor (pkg/host) for futures that wrap external I/O; futures
// created by Promote are immediately ready.
type FutureData struct {
	State  FutureState
	Output Value
	Poll   func() (Value, bool, error) // returns (output, ready, err)
}

func Future(d *FutureData) Value { return fromCell(KindFuture, newCell(d)) }

// Promote wraps an already-available value into a ready future, matching
// the VM's Promote opcode.
func Promote(v Value) Value {
	return Future(&FutureData{State: FutureReady, Output: v})
}

func (v Value) AsFuture() *FutureData {
	if v.kind != KindFuture || v.cell == nil {
		return nil
	}
	return v.cell.data.(*FutureData)
}

// Host constructs an opaque host value addressed by a caller-defined type
// id; the VM never interprets its payload.
func Host(typeID string, payload interface{}) Value {
	return fromCell(KindHost, newCell(&HostData{TypeID: typeID, Payload: payload}))
}

type HostData struct {
	TypeID  string
	Payload interface{}
}

// Display renders a value the way the FMT_DISPLAY protocol does for
// built-in kinds, used by template-string lowering (OpFmtDisplay) and by
// the CLI to print a result. User-declared types may override this through a
// registered FMT_DISPLAY protocol function (see pkg/context); this is the
// built-in fallback consulted when no override is registered.
func (v Value) Display() string {
	switch v.kind {
	case KindUnit:
		return "()"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindChar:
		return string(v.ch)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindByte:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return v.cell.data.(string)
	case KindBytes:
		return fmt.Sprintf("%x", v.cell.data.([]byte))
	case KindVec:
		items := v.cell.data.([]Value)
		return displayList("[", "]", items)
	case KindObject:
		return displayObject(v.cell.data.(*ObjectData))
	case KindTuple:
		items := v.cell.data.([]Value)
		return displayList("(", ")", items)
	case KindTypedTuple:
		d := v.cell.data.(*TypedTupleData)
		return d.Name + displayList("(", ")", d.Fields)
	case KindTypedObject:
		d := v.cell.data.(*TypedObjectData)
		return d.Name + " " + displayObject(d.Fields)
	case KindVariantTuple:
		d := v.cell.data.(*VariantTupleData)
		if len(d.Fields) == 0 {
			return d.VariantName
		}
		return d.VariantName + displayList("(", ")", d.Fields)
	case KindVariantObject:
		d := v.cell.data.(*VariantObjectData)
		return d.VariantName + " " + displayObject(d.Fields)
	case KindFunction:
		return "<function>"
	case KindFuture:
		return "<future>"
	case KindHost:
		return "<host>"
	default:
		return "<unknown>"
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := fmt.Sprintf("%g", f)
	return s
}

func displayList(open, shut string, items []Value) string {
	s := open
	for i, it := range items {
		if i > 0 {
			s += ", "
		}
		s += it.Display()
	}
	return s + shut
}

func displayObject(o *ObjectData) string {
	s := "#{"
	for i, k := range o.Keys {
		if i > 0 {
			s += ", "
		}
		s += k + ": " + o.Values[k].Display()
	}
	return s + "}"
}
