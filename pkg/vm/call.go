package vm

import (
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// execCall dispatches a direct call addressed by Hash: a compiled
// function in this unit, or else a host function the context
// registered. Anything else is MissingFunction — constructors are never
// reached through OpCall, only OpTypedTuple/OpVariantTuple/OpCallFn.
func (t *Task) execCall(inst unit.Inst) error {
	args := t.popN(int(inst.B))
	if fe, ok := t.cu.FunctionByHash(inst.Hash); ok {
		rv, err := t.runFrame(fe, args)
		if err != nil {
			return err
		}
		t.push(rv)
		return nil
	}
	if callable, ok := t.ctx.LookupFunctionByHash(inst.Hash); ok {
		rv, err := t.invokeCallable(callable, args)
		if err != nil {
			return err
		}
		t.push(rv)
		return nil
	}
	return t.kindError(ErrMissingFunction, "missing function (hash %d)", inst.Hash)
}

// execCallFn dispatches an indirect call through a Function value popped
// off the top of the stack, above its arguments.
func (t *Task) execCallFn(inst unit.Inst) error {
	fn := t.pop()
	args := t.popN(int(inst.B))
	callable := fn.AsCallable()
	if callable == nil {
		return t.kindError(ErrBadArgument, "%s is not callable", fn.TypeName())
	}
	rv, err := t.invokeCallable(callable, args)
	if err != nil {
		return err
	}
	t.push(rv)
	return nil
}

// execCallInstance dispatches a protocol method on a receiver value —
// the compiler emits this only for INTO_ITER's desugared `for` loops
// today, but it resolves any registered protocol name generically.
func (t *Task) execCallInstance(inst unit.Inst) error {
	proto := context.Protocol(t.cu.ConstString(int(inst.A)))
	args := t.popN(int(inst.B))
	recv := t.pop()
	if proto == context.INTO_ITER {
		it, err := t.intoIter(recv)
		if err != nil {
			return err
		}
		t.push(it)
		return nil
	}
	hash, ok := recv.TypeHash()
	if !ok {
		return t.kindError(ErrMissingInstanceFunction, "%s has no %s implementation", recv.TypeName(), proto)
	}
	callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), proto)
	if !ok {
		return t.kindError(ErrMissingInstanceFunction, "%s has no %s implementation", recv.TypeName(), proto)
	}
	rv, err := t.invokeCallable(callable, append([]value.Value{recv}, args...))
	if err != nil {
		return err
	}
	t.push(rv)
	return nil
}

// invokeCallable runs any of the four Callable shapes to completion and
// returns its result value, used by direct/indirect call opcodes and by
// every protocol dispatch site (FMT_DISPLAY, arithmetic operator
// fallback, NEXT, INTO_ITER on user types).
func (t *Task) invokeCallable(callable *value.Callable, args []value.Value) (value.Value, error) {
	switch callable.Kind {
	case value.CallableCompiled:
		fe, ok := t.cu.FunctionByHash(unit.Hash(callable.Hash))
		if !ok {
			return value.Unit(), t.kindError(ErrMissingFunction, "missing function %q", callable.Name)
		}
		return t.runFrame(fe, args)
	case value.CallableHost:
		if len(args) != callable.Arity {
			return value.Unit(), t.kindError(ErrIncorrectNumberOfArguments, "%s expected %d argument(s), got %d", callable.Name, callable.Arity, len(args))
		}
		rv, err := callable.Host(args)
		if err != nil {
			return value.Unit(), t.kindError(ErrBadArgument, "%s", err)
		}
		return rv, nil
	case value.CallableTupleCtor:
		if len(args) != callable.Arity {
			return value.Unit(), t.kindError(ErrIncorrectNumberOfArguments, "%s expected %d argument(s), got %d", callable.Name, callable.Arity, len(args))
		}
		return value.TypedTuple(callable.TypeHash, callable.Name, args), nil
	case value.CallableVariantCtor:
		if len(args) != callable.Arity {
			return value.Unit(), t.kindError(ErrIncorrectNumberOfArguments, "%s::%s expected %d argument(s), got %d", callable.EnumName, callable.VariantName, callable.Arity, len(args))
		}
		return value.VariantTuple(callable.TypeHash, callable.VariantHash, callable.EnumName, callable.VariantName, args), nil
	default:
		return value.Unit(), t.kindError(ErrBadArgument, "not callable")
	}
}

// execPushFunction resolves an OpPushFunction instruction into a
// first-class Function value. Resolution order: check whether Hash
// names a declared type first. If it does, this is a bare
// constructor reference (`Some`, `Point`) rather than a plain function —
// an enum type means a tuple-variant ctor (A carries the variant hash),
// anything else means a tuple-struct ctor. Otherwise Hash addresses an
// ordinary function, compiled or host.
func (t *Task) execPushFunction(inst unit.Inst) error {
	if meta, ok := t.cu.Type(inst.Hash); ok {
		if meta.Kind == unit.TypeEnum {
			variantHash := unit.Hash(inst.A)
			for _, vm := range meta.Variants {
				if vm.Hash == variantHash {
					t.push(value.Function(&value.Callable{
						Kind: value.CallableVariantCtor, Name: meta.Item.String() + "::" + vm.Name,
						Arity: vm.Arity, TypeHash: uint64(inst.Hash), VariantHash: uint64(variantHash),
						EnumName: meta.Item.String(), VariantName: vm.Name,
					}))
					return nil
				}
			}
			return t.kindError(ErrBadArgument, "unknown variant in %s", meta.Item.String())
		}
		t.push(value.Function(&value.Callable{
			Kind: value.CallableTupleCtor, Name: meta.Item.String(),
			Arity: meta.Arity, TypeHash: uint64(inst.Hash),
		}))
		return nil
	}
	if fe, ok := t.cu.FunctionByHash(inst.Hash); ok {
		t.push(value.Function(&value.Callable{
			Kind: value.CallableCompiled, Name: fe.Item.String(),
			Arity: fe.Arity, Hash: uint64(inst.Hash), Async: fe.Async,
		}))
		return nil
	}
	if callable, ok := t.ctx.LookupFunctionByHash(inst.Hash); ok {
		t.push(value.Function(callable))
		return nil
	}
	return t.kindError(ErrMissingFunction, "missing function (hash %d)", inst.Hash)
}
