package value

import (
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrUnsupportedCompare is returned by Compare when two values are not of
// the same Kind; the VM surfaces this as UnsupportedBinaryOperation.
var ErrUnsupportedCompare = errors.New("unsupported comparison between differing kinds")

// Equal implements structural equality for containers and bitwise
// equality for scalars. Floats follow IEEE 754: NaN is never equal to
// anything, including itself.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUnit:
		return true
	case KindBool:
		return a.i == b.i
	case KindChar:
		return a.ch == b.ch
	case KindInt:
		return a.i == b.i
	case KindByte:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f // NaN != NaN falls out of Go's float equality
	case KindString:
		return a.cell.data.(string) == b.cell.data.(string)
	case KindBytes:
		return bytesEqual(a.cell.data.([]byte), b.cell.data.([]byte))
	case KindVec:
		return valuesEqual(a.cell.data.([]Value), b.cell.data.([]Value))
	case KindTuple:
		return valuesEqual(a.cell.data.([]Value), b.cell.data.([]Value))
	case KindObject:
		return objectsEqual(a.cell.data.(*ObjectData), b.cell.data.(*ObjectData))
	case KindTypedTuple:
		da, db := a.cell.data.(*TypedTupleData), b.cell.data.(*TypedTupleData)
		return da.TypeHash == db.TypeHash && valuesEqual(da.Fields, db.Fields)
	case KindTypedObject:
		da, db := a.cell.data.(*TypedObjectData), b.cell.data.(*TypedObjectData)
		return da.TypeHash == db.TypeHash && objectsEqual(da.Fields, db.Fields)
	case KindVariantTuple:
		da, db := a.cell.data.(*VariantTupleData), b.cell.data.(*VariantTupleData)
		return da.EnumHash == db.EnumHash && da.VariantHash == db.VariantHash && valuesEqual(da.Fields, db.Fields)
	case KindVariantObject:
		da, db := a.cell.data.(*VariantObjectData), b.cell.data.(*VariantObjectData)
		return da.EnumHash == db.EnumHash && da.VariantHash == db.VariantHash && objectsEqual(da.Fields, db.Fields)
	case KindFunction, KindFuture, KindHost:
		return a.cell == b.cell
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func objectsEqual(a, b *ObjectData) bool {
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for _, k := range a.Keys {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// Compare orders two values of the same Kind: -1, 0, 1. Cross-kind
// comparison, or comparison of a kind with no defined order (containers,
// functions, futures, host values), returns ErrUnsupportedCompare.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, ErrUnsupportedCompare
	}
	switch a.kind {
	case KindInt:
		return compareInt64(a.i, b.i), nil
	case KindByte:
		return compareInt64(a.i, b.i), nil
	case KindFloat:
		return compareFloat(a.f, b.f)
	case KindChar:
		return compareInt64(int64(a.ch), int64(b.ch)), nil
	case KindString:
		sa, sb := a.cell.data.(string), b.cell.data.(string)
		switch {
		case sa < sb:
			return -1, nil
		case sa > sb:
			return 1, nil
		default:
			return 0, nil
		}
	case KindBool:
		return compareInt64(a.i, b.i), nil
	default:
		return 0, ErrUnsupportedCompare
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloat returns ErrUnsupportedCompare when either operand is NaN;
// ordering on NaN is undefined, matching Equal's NaN-follows-IEEE rule.
func compareFloat(a, b float64) (int, error) {
	if a != a || b != b { // NaN check without importing math twice
		return 0, ErrUnsupportedCompare
	}
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	default:
		return 0, nil
	}
}

// Hash produces a content hash for a value, used by Object keys (always
// strings, so unaffected) and by any host collection that wants to key on
// a Value. Container kinds hash their elements recursively; functions,
// futures and host values hash their identity (cell pointer).
func Hash(v Value) uint64 {
	h := fnv.New64a()
	hashInto(h, v)
	return h.Sum64()
}

func hashInto(h interface{ Write([]byte) (int, error) }, v Value) {
	writeByte(h, byte(v.kind))
	switch v.kind {
	case KindUnit:
	case KindBool, KindInt, KindByte:
		writeInt64(h, v.i)
	case KindChar:
		writeInt64(h, int64(v.ch))
	case KindFloat:
		writeInt64(h, int64(v.f))
	case KindString:
		h.Write([]byte(v.cell.data.(string)))
	case KindBytes:
		h.Write(v.cell.data.([]byte))
	case KindVec, KindTuple:
		for _, e := range v.cell.data.([]Value) {
			hashInto(h, e)
		}
	default:
		// Identity hash for kinds with no structural equality (functions,
		// futures, host values, and objects/typed/variant values, which
		// hash their identity rather than walking an unordered map).
		h.Write([]byte(fmt.Sprintf("%p", v.cell)))
	}
}

func writeByte(h interface{ Write([]byte) (int, error) }, b byte) { h.Write([]byte{b}) }

func writeInt64(h interface{ Write([]byte) (int, error) }, n int64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> (8 * i))
	}
	h.Write(buf[:])
}
