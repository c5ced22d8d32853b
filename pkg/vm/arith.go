package vm

import (
	"math"

	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

var arithProtocol = map[unit.Op]context.Protocol{
	unit.OpAdd: context.ADD,
	unit.OpSub: context.SUB,
	unit.OpMul: context.MUL,
	unit.OpDiv: context.DIV,
}

// execBinaryArith implements Add/Sub/Mul/Div/Rem over Int and Float,
// string concatenation for Add, and falls back to a registered operator
// protocol for user-declared types before failing
// UnsupportedBinaryOperation.
func (t *Task) execBinaryArith(op unit.Op) error {
	rhs := t.pop()
	lhs := t.pop()
	v, err := t.binaryArith(op, lhs, rhs)
	if err != nil {
		return err
	}
	t.push(v)
	return nil
}

func (t *Task) binaryArith(op unit.Op, lhs, rhs value.Value) (value.Value, error) {
	if lhs.Kind() == value.KindInt && rhs.Kind() == value.KindInt {
		return t.intArith(op, lhs.AsInt(), rhs.AsInt())
	}
	if lhs.Kind() == value.KindFloat && rhs.Kind() == value.KindFloat {
		return t.floatArith(op, lhs.AsFloat(), rhs.AsFloat())
	}
	if lhs.Kind() == value.KindByte && rhs.Kind() == value.KindByte {
		v, err := t.intArith(op, int64(lhs.AsByte()), int64(rhs.AsByte()))
		if err != nil {
			return value.Unit(), err
		}
		return value.Byte(byte(v.AsInt())), nil
	}
	if op == unit.OpAdd && lhs.Kind() == value.KindString && rhs.Kind() == value.KindString {
		return value.String(lhs.AsString() + rhs.AsString()), nil
	}
	if op == unit.OpAdd && lhs.Kind() == value.KindVec && rhs.Kind() == value.KindVec {
		items := append(append([]value.Value(nil), lhs.AsVec()...), rhs.AsVec()...)
		return value.Vec(items), nil
	}
	if proto, ok := arithProtocol[op]; ok {
		if hash, ok := lhs.TypeHash(); ok {
			if callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), proto); ok {
				return t.invokeCallable(callable, []value.Value{lhs, rhs})
			}
		}
	}
	return value.Unit(), t.kindError(ErrUnsupportedBinaryOperation, "cannot apply %s to %s and %s", opSymbol(op), lhs.TypeName(), rhs.TypeName())
}

func opSymbol(op unit.Op) string {
	switch op {
	case unit.OpAdd:
		return "+"
	case unit.OpSub:
		return "-"
	case unit.OpMul:
		return "*"
	case unit.OpDiv:
		return "/"
	case unit.OpRem:
		return "%"
	default:
		return "?"
	}
}

func (t *Task) intArith(op unit.Op, a, b int64) (value.Value, error) {
	switch op {
	case unit.OpAdd:
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return value.Unit(), t.kindError(ErrOverflow, "integer overflow: %d + %d", a, b)
		}
		return value.Int(r), nil
	case unit.OpSub:
		r := a - b
		if (b < 0 && r < a) || (b > 0 && r > a) {
			return value.Unit(), t.kindError(ErrUnderflow, "integer underflow: %d - %d", a, b)
		}
		return value.Int(r), nil
	case unit.OpMul:
		if a == 0 || b == 0 {
			return value.Int(0), nil
		}
		r := a * b
		if r/b != a {
			return value.Unit(), t.kindError(ErrOverflow, "integer overflow: %d * %d", a, b)
		}
		return value.Int(r), nil
	case unit.OpDiv:
		if b == 0 {
			return value.Unit(), t.kindError(ErrDivideByZero, "division by zero")
		}
		return value.Int(a / b), nil
	case unit.OpRem:
		if b == 0 {
			return value.Unit(), t.kindError(ErrDivideByZero, "division by zero")
		}
		return value.Int(a % b), nil
	}
	return value.Unit(), t.kindError(ErrUnsupportedBinaryOperation, "unsupported int operation")
}

func (t *Task) floatArith(op unit.Op, a, b float64) (value.Value, error) {
	switch op {
	case unit.OpAdd:
		return value.Float(a + b), nil
	case unit.OpSub:
		return value.Float(a - b), nil
	case unit.OpMul:
		return value.Float(a * b), nil
	case unit.OpDiv:
		return value.Float(a / b), nil
	case unit.OpRem:
		return value.Float(math.Mod(a, b)), nil
	}
	return value.Unit(), t.kindError(ErrUnsupportedBinaryOperation, "unsupported float operation")
}

// execNeg implements unary negation over Int and Float, panicking with
// Overflow on negating math.MinInt64 (its positive counterpart doesn't
// fit in an int64).
func (t *Task) execNeg() error {
	v := t.pop()
	switch v.Kind() {
	case value.KindInt:
		n := v.AsInt()
		if n == math.MinInt64 {
			return t.kindError(ErrOverflow, "integer overflow: -(%d)", n)
		}
		t.push(value.Int(-n))
	case value.KindFloat:
		t.push(value.Float(-v.AsFloat()))
	default:
		return t.kindError(ErrUnsupportedUnaryOperation, "cannot negate %s", v.TypeName())
	}
	return nil
}

var compoundOp = map[unit.Op]unit.Op{
	unit.OpAddAssignLocal: unit.OpAdd,
	unit.OpSubAssignLocal: unit.OpSub,
	unit.OpMulAssignLocal: unit.OpMul,
	unit.OpDivAssignLocal: unit.OpDiv,
}

// execCompoundAssignLocal implements the `local += rhs` family as a
// single opcode: pop rhs, fold it against the current local value, store
// the result back without ever pushing an intermediate onto the stack.
func (t *Task) execCompoundAssignLocal(inst unit.Inst) error {
	fr := t.top()
	rhs := t.pop()
	slot := fr.base + int(inst.A)
	result, err := t.binaryArith(compoundOp[inst.Op], t.locals[slot], rhs)
	if err != nil {
		return err
	}
	t.locals[slot] = result
	return nil
}

// execEquality implements == and !=. Values of differing Kind are never
// equal rather than a type error, matching Equal's contract.
func (t *Task) execEquality(op unit.Op) error {
	rhs := t.pop()
	lhs := t.pop()
	eq := value.Equal(lhs, rhs)
	if op == unit.OpNeq {
		eq = !eq
	}
	t.push(value.Bool(eq))
	return nil
}

// execOrdering implements <, >, <=, >=, failing UnsupportedBinaryOperation
// for kinds with no defined order (differing kinds, containers, NaN).
func (t *Task) execOrdering(op unit.Op) error {
	rhs := t.pop()
	lhs := t.pop()
	c, err := value.Compare(lhs, rhs)
	if err != nil {
		return t.kindError(ErrUnsupportedBinaryOperation, "cannot compare %s and %s", lhs.TypeName(), rhs.TypeName())
	}
	var r bool
	switch op {
	case unit.OpLt:
		r = c < 0
	case unit.OpGt:
		r = c > 0
	case unit.OpLte:
		r = c <= 0
	case unit.OpGte:
		r = c >= 0
	}
	t.push(value.Bool(r))
	return nil
}
