package vm

import (
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// execIs implements `x is Type` / `x is not Type`. Unlike the Match*
// family below, `is` consumes its operand outright rather than testing
// a copy — it stands alone as a boolean expression, never feeding a
// pattern-binding sequence.
func (t *Task) execIs(inst unit.Inst) error {
	v := t.pop()
	var matches bool
	if inst.B != 0 {
		hash, ok := v.TypeHash()
		matches = ok && unit.Hash(hash) == inst.Hash
	} else {
		matches = v.Kind() == value.Kind(inst.A)
	}
	if inst.Op == unit.OpIsNot {
		matches = !matches
	}
	t.push(value.Bool(matches))
	return nil
}

func unpackCount(a int64) (n int, open bool) {
	return int(a >> 1), a&1 != 0
}

// execMatchLiteral is kept for instruction-set completeness; the
// compiler lowers literal patterns through OpEq/OpJumpIfNot instead (see
// pkg/compiler/pattern.go), so this path is never exercised by generated
// code. It treats the constant as an interned string, the only literal
// pool the unit carries alongside a general constant.
func (t *Task) execMatchLiteral(inst unit.Inst) error {
	v := t.pop()
	t.push(value.Bool(v.Kind() == value.KindString && v.AsString() == t.cu.ConstString(int(inst.A))))
	return nil
}

func (t *Task) execMatchSeqLen(inst unit.Inst) error {
	v := t.pop()
	n, open := unpackCount(inst.A)
	length, ok := seqLen(v)
	if !ok {
		t.push(value.Bool(false))
		return nil
	}
	t.push(value.Bool(matchCount(length, n, open)))
	return nil
}

func seqLen(v value.Value) (int, bool) {
	switch v.Kind() {
	case value.KindVec:
		return len(v.AsVec()), true
	case value.KindTuple:
		return len(v.AsTuple()), true
	case value.KindBytes:
		return len(v.AsBytes()), true
	case value.KindString:
		return len([]rune(v.AsString())), true
	default:
		return 0, false
	}
}

func matchCount(actual, want int, open bool) bool {
	if open {
		return actual >= want
	}
	return actual == want
}

func (t *Task) execMatchObjectKeys(inst unit.Inst) error {
	v := t.pop()
	data := objectDataOf(v)
	if data == nil {
		t.push(value.Bool(false))
		return nil
	}
	keys := t.cu.ConstObject(int(inst.A)).([]string)
	open := inst.B != 0
	for _, k := range keys {
		if _, ok := data.Get(k); !ok {
			t.push(value.Bool(false))
			return nil
		}
	}
	t.push(value.Bool(matchCount(len(data.Keys), len(keys), open)))
	return nil
}

func (t *Task) execMatchTypedTuple(inst unit.Inst) error {
	v := t.pop()
	if v.Kind() != value.KindTypedTuple {
		t.push(value.Bool(false))
		return nil
	}
	d := v.AsTypedTuple()
	t.push(value.Bool(d.TypeHash == uint64(inst.Hash) && len(d.Fields) == int(inst.B)))
	return nil
}

func (t *Task) execMatchStructObject(inst unit.Inst) error {
	v := t.pop()
	if v.Kind() != value.KindTypedObject {
		t.push(value.Bool(false))
		return nil
	}
	d := v.AsTypedObject()
	n, open := unpackCount(inst.B)
	t.push(value.Bool(d.TypeHash == uint64(inst.Hash) && matchCount(len(d.Fields.Keys), n, open)))
	return nil
}

func (t *Task) execMatchVariantTuple(inst unit.Inst) error {
	v := t.pop()
	if v.Kind() != value.KindVariantTuple {
		t.push(value.Bool(false))
		return nil
	}
	d := v.AsVariantTuple()
	t.push(value.Bool(d.EnumHash == uint64(inst.Hash) && d.VariantHash == uint64(inst.A) && len(d.Fields) == int(inst.B)))
	return nil
}

func (t *Task) execMatchVariantObject(inst unit.Inst) error {
	v := t.pop()
	if v.Kind() != value.KindVariantObject {
		t.push(value.Bool(false))
		return nil
	}
	d := v.AsVariantObject()
	n, open := unpackCount(inst.B)
	t.push(value.Bool(d.EnumHash == uint64(inst.Hash) && d.VariantHash == uint64(inst.A) && matchCount(len(d.Fields.Keys), n, open)))
	return nil
}

// execJumpIfBranch is kept for instruction-set completeness (the
// compiler never emits it, favoring a chain of OpMatch*/OpJumpIfNot
// instead): it pops a variant-tagged scrutinee and jumps to inst.A when
// its variant hash matches inst.Hash, leaving the scrutinee's copy below
// consumed either way.
func (t *Task) execJumpIfBranch(inst unit.Inst) error {
	fr := t.top()
	v := t.pop()
	vh, ok := v.VariantHash()
	if ok && unit.Hash(vh) == inst.Hash {
		fr.ip = int(inst.A)
	}
	return nil
}
