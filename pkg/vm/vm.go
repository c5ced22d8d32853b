package vm

import (
	"math"

	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// frame is one call-stack entry: the function it executes, the next
// instruction to dispatch, and the base index into Task.locals its slots
// start at. fn is *unit.FuncEntry (never a lighter descriptor) so a
// stack trace can always resolve a frame's name through fn.Item,
// regardless of whether the call arrived via OpCall (direct) or
// OpCallFn (indirect through a Function value, which re-resolves its
// Hash against the unit before pushing the frame).
type frame struct {
	fn   *unit.FuncEntry
	ip   int
	base int
}

// VM pairs a frozen CompilationUnit with the Context that resolves host
// functions, type descriptors and operator protocols it references.
// Constructing one is the "(Context-handle, Unit-handle)" step; actual
// execution happens on a Task.
type VM struct {
	cu  *unit.CompilationUnit
	ctx *context.Context
}

// New builds a VM ready to run functions declared in cu, resolving any
// host call or protocol dispatch against ctx.
func New(cu *unit.CompilationUnit, ctx *context.Context) *VM {
	return &VM{cu: cu, ctx: ctx}
}

// CallFunction prepares a Task to run the named function with args,
// without running it yet — the call_function(Item, args) -> Task<T>
// entry point. The caller drives it with Task.RunToCompletion.
func (m *VM) CallFunction(name string, args []value.Value) (*Task, error) {
	return m.Call(unit.Item{name}, args)
}

// Call is CallFunction generalized to a hierarchical Item path.
func (m *VM) Call(item unit.Item, args []value.Value) (*Task, error) {
	t := &Task{cu: m.cu, ctx: m.ctx}
	fe, ok := m.cu.Function(item)
	if !ok {
		return nil, t.kindError(ErrMissingFunction, "missing function %q", item.String())
	}
	if err := t.pushFrame(fe, args); err != nil {
		return nil, err
	}
	return t, nil
}

// Task is one independent strand of execution: its own operand stack,
// its own locals and call frames. Cells are never shared across tasks,
// so none of Task's state needs synchronization.
type Task struct {
	cu     *unit.CompilationUnit
	ctx    *context.Context
	stack  []value.Value
	locals []value.Value
	frames []*frame
}

func (t *Task) push(v value.Value) { t.stack = append(t.stack, v) }

func (t *Task) pop() value.Value {
	n := len(t.stack)
	v := t.stack[n-1]
	t.stack = t.stack[:n-1]
	return v
}

func (t *Task) popN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	start := len(t.stack) - n
	out := append([]value.Value(nil), t.stack[start:]...)
	t.stack = t.stack[:start]
	return out
}

func (t *Task) peek() value.Value { return t.stack[len(t.stack)-1] }

func (t *Task) top() *frame { return t.frames[len(t.frames)-1] }

// pushFrame allocates fe's locals (parameters copied in, the rest zeroed
// to Unit) and pushes its call frame.
func (t *Task) pushFrame(fe unit.FuncEntry, args []value.Value) error {
	if len(args) != fe.Arity {
		return t.kindError(ErrIncorrectNumberOfArguments, "%s expected %d argument(s), got %d", fe.Item.String(), fe.Arity, len(args))
	}
	base := len(t.locals)
	locals := make([]value.Value, fe.NumLocals)
	copy(locals, args)
	for i := len(args); i < len(locals); i++ {
		locals[i] = value.Unit()
	}
	t.locals = append(t.locals, locals...)
	feCopy := fe
	t.frames = append(t.frames, &frame{fn: &feCopy, ip: fe.Address, base: base})
	return nil
}

// RunToCompletion drives the task until every frame has returned (or one
// suspends on a pending future, or a runtime error occurs), matching
// Task::run_to_completion() -> Result<T, VmError>. Calling it again after
// ErrSuspended replays the same OpAwait and continues from exactly where
// execution paused.
func (t *Task) RunToCompletion() (value.Value, error) {
	for len(t.frames) > 0 {
		if err := t.step(); err != nil {
			return value.Unit(), err
		}
	}
	if len(t.stack) == 0 {
		return value.Unit(), nil
	}
	return t.pop(), nil
}

// runFrame pushes fe as a nested synchronous call — used by OpCall,
// OpCallFn and protocol dispatch, all of which need an immediate Value
// result mid-instruction rather than a continuation. Task state (frames,
// locals, stack) is the only thing that matters for correctness: if the
// nested call suspends on a pending future, the error propagates up
// through this Go call unwound, but t.frames is left exactly as it was
// at the point of suspension, so a later top-level RunToCompletion call
// resumes it transparently, however many nested runFrame calls were on
// the Go stack when it suspended.
func (t *Task) runFrame(fe unit.FuncEntry, args []value.Value) (value.Value, error) {
	startLen := len(t.frames)
	if err := t.pushFrame(fe, args); err != nil {
		return value.Unit(), err
	}
	for len(t.frames) > startLen {
		if err := t.step(); err != nil {
			return value.Unit(), err
		}
	}
	return t.pop(), nil
}

// step executes exactly one instruction of the topmost frame.
func (t *Task) step() error {
	fr := t.top()
	if fr.ip >= t.cu.Len() {
		return t.kindError(ErrPanic, "fell off the end of %q without returning", fr.fn.Item.String())
	}
	inst := t.cu.Instruction(fr.ip)
	fr.ip++

	switch inst.Op {
	case unit.OpPushUnit:
		t.push(value.Unit())
	case unit.OpPushBool:
		t.push(value.Bool(inst.A != 0))
	case unit.OpPushInt:
		t.push(value.Int(inst.A))
	case unit.OpPushFloat:
		t.push(value.Float(math.Float64frombits(uint64(inst.A))))
	case unit.OpPushChar:
		t.push(value.Char(rune(inst.A)))
	case unit.OpPushByte:
		t.push(value.Byte(byte(inst.A)))
	case unit.OpPushString:
		t.push(value.String(t.cu.ConstString(int(inst.A))))
	case unit.OpPop:
		t.pop()
	case unit.OpDup:
		t.push(t.peek())
	case unit.OpDrop:
		t.popN(int(inst.A))

	case unit.OpAdd, unit.OpSub, unit.OpMul, unit.OpDiv, unit.OpRem:
		return t.execBinaryArith(inst.Op)
	case unit.OpNeg:
		return t.execNeg()

	case unit.OpAddAssignLocal, unit.OpSubAssignLocal, unit.OpMulAssignLocal, unit.OpDivAssignLocal:
		return t.execCompoundAssignLocal(inst)

	case unit.OpEq, unit.OpNeq:
		return t.execEquality(inst.Op)
	case unit.OpLt, unit.OpGt, unit.OpLte, unit.OpGte:
		return t.execOrdering(inst.Op)

	case unit.OpNot:
		v := t.pop()
		t.push(value.Bool(!v.AsBool()))

	case unit.OpJump:
		fr.ip = int(inst.A)
	case unit.OpJumpIf:
		if t.pop().AsBool() {
			fr.ip = int(inst.A)
		}
	case unit.OpJumpIfNot:
		if !t.pop().AsBool() {
			fr.ip = int(inst.A)
		}
	case unit.OpJumpIfBranch:
		return t.execJumpIfBranch(inst)

	case unit.OpLoadLocal:
		t.push(t.locals[fr.base+int(inst.A)])
	case unit.OpStoreLocal:
		t.locals[fr.base+int(inst.A)] = t.pop()

	case unit.OpCall:
		return t.execCall(inst)
	case unit.OpCallFn:
		return t.execCallFn(inst)
	case unit.OpCallInstance:
		return t.execCallInstance(inst)
	case unit.OpReturn:
		rv := t.pop()
		if fr.fn.Async {
			rv = value.Promote(rv)
		}
		t.locals = t.locals[:fr.base]
		t.frames = t.frames[:len(t.frames)-1]
		t.push(rv)
	case unit.OpReturnUnit:
		rv := value.Unit()
		if fr.fn.Async {
			rv = value.Promote(rv)
		}
		t.locals = t.locals[:fr.base]
		t.frames = t.frames[:len(t.frames)-1]
		t.push(rv)
	case unit.OpPushFunction:
		return t.execPushFunction(inst)

	case unit.OpVec:
		t.push(value.Vec(t.popN(int(inst.B))))
	case unit.OpTuple:
		t.push(value.Tuple(t.popN(int(inst.B))))
	case unit.OpObject:
		return t.execObject(inst)
	case unit.OpTypedTuple:
		return t.execTypedTuple(inst)
	case unit.OpTypedObject:
		return t.execTypedObject(inst)
	case unit.OpVariantTuple:
		return t.execVariantTuple(inst)
	case unit.OpVariantObject:
		return t.execVariantObject(inst)

	case unit.OpIndexGet:
		return t.execIndexGet()
	case unit.OpIndexSet:
		return t.execIndexSet()
	case unit.OpFieldGet:
		return t.execFieldGet(inst)
	case unit.OpFieldSet:
		return t.execFieldSet(inst)
	case unit.OpTupleIndexGet:
		return t.execTupleIndexGet(inst)

	case unit.OpIs, unit.OpIsNot:
		return t.execIs(inst)

	case unit.OpMatchLiteral:
		return t.execMatchLiteral(inst)
	case unit.OpMatchSeqLen:
		return t.execMatchSeqLen(inst)
	case unit.OpMatchObjectKeys:
		return t.execMatchObjectKeys(inst)
	case unit.OpMatchTypedTuple:
		return t.execMatchTypedTuple(inst)
	case unit.OpMatchStructObject:
		return t.execMatchStructObject(inst)
	case unit.OpMatchVariantTuple:
		return t.execMatchVariantTuple(inst)
	case unit.OpMatchVariantObject:
		return t.execMatchVariantObject(inst)

	case unit.OpIterNext:
		return t.execIterNext()

	case unit.OpAwait:
		return t.execAwait()
	case unit.OpPromote:
		t.push(value.Promote(t.pop()))

	case unit.OpPanic:
		reason := t.cu.ConstString(int(inst.A))
		return t.kindError(ErrPanic, "%s", reason)

	case unit.OpFmtDisplay:
		v := t.pop()
		s, err := t.display(v)
		if err != nil {
			return err
		}
		t.push(value.String(s))

	default:
		return t.kindError(ErrPanic, "unimplemented opcode %d", inst.Op)
	}
	return nil
}

// display renders v via FMT_DISPLAY, consulting a registered protocol
// implementation for user types before falling back to the built-in
// Display().
func (t *Task) display(v value.Value) (string, error) {
	if hash, ok := v.TypeHash(); ok {
		if callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), context.FMT_DISPLAY); ok {
			rv, err := t.invokeCallable(callable, []value.Value{v})
			if err != nil {
				return "", err
			}
			return rv.Display(), nil
		}
	}
	return v.Display(), nil
}
