package vm

import (
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// nextFn is the payload every built-in iterator's Host value wraps —
// advance the cursor and report (element, exhausted, error).
type nextFn func() (value.Value, bool, error)

// intoIter converts recv into a Host-wrapped iterator value. Built-in
// containers get a closure-based cursor here directly; a user type
// instead goes through its own registered INTO_ITER implementation,
// whose return value (commonly `self`) is itself polled through NEXT at
// each OpIterNext.
func (t *Task) intoIter(recv value.Value) (value.Value, error) {
	switch recv.Kind() {
	case value.KindVec:
		idx := 0
		return value.Host("iterator", nextFn(func() (value.Value, bool, error) {
			items := recv.AsVec()
			if idx >= len(items) {
				return value.Unit(), true, nil
			}
			v := items[idx]
			idx++
			return v, false, nil
		})), nil
	case value.KindBytes:
		idx := 0
		return value.Host("iterator", nextFn(func() (value.Value, bool, error) {
			b := recv.AsBytes()
			if idx >= len(b) {
				return value.Unit(), true, nil
			}
			v := value.Byte(b[idx])
			idx++
			return v, false, nil
		})), nil
	case value.KindString:
		runes := []rune(recv.AsString())
		idx := 0
		return value.Host("iterator", nextFn(func() (value.Value, bool, error) {
			if idx >= len(runes) {
				return value.Unit(), true, nil
			}
			v := value.Char(runes[idx])
			idx++
			return v, false, nil
		})), nil
	case value.KindObject:
		data := recv.AsObject()
		idx := 0
		return value.Host("iterator", nextFn(func() (value.Value, bool, error) {
			if idx >= len(data.Keys) {
				return value.Unit(), true, nil
			}
			k := data.Keys[idx]
			idx++
			v, _ := data.Get(k)
			return value.Tuple([]value.Value{value.String(k), v}), false, nil
		})), nil
	case value.KindHost:
		// Already an iterator (e.g. one for-loop's INTO_ITER feeding
		// straight into another); pass it through.
		return recv, nil
	}
	if hash, ok := recv.TypeHash(); ok {
		if callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), context.INTO_ITER); ok {
			return t.invokeCallable(callable, []value.Value{recv})
		}
	}
	return value.Unit(), t.kindError(ErrMissingInstanceFunction, "%s is not iterable", recv.TypeName())
}

// execIterNext implements OpIterNext: pop the iterator, advance it, and
// push (element-or-placeholder, exhausted) in that order — the compiler
// reads the bool first (OpJumpIf) and either discards the placeholder on
// the exhausted path or pattern-binds the element otherwise.
func (t *Task) execIterNext() error {
	it := t.pop()
	elem, exhausted, err := t.iterNext(it)
	if err != nil {
		return err
	}
	t.push(elem)
	t.push(value.Bool(exhausted))
	return nil
}

func (t *Task) iterNext(it value.Value) (value.Value, bool, error) {
	if it.Kind() == value.KindHost {
		hd := it.AsHostData()
		fn, ok := hd.Payload.(nextFn)
		if !ok {
			return value.Unit(), false, t.kindError(ErrBadArgument, "value is not an iterator")
		}
		return fn()
	}
	hash, ok := it.TypeHash()
	if !ok {
		return value.Unit(), false, t.kindError(ErrBadArgument, "%s is not an iterator", it.TypeName())
	}
	callable, ok := t.ctx.LookupProtocol(unit.Hash(hash), context.NEXT)
	if !ok {
		return value.Unit(), false, t.kindError(ErrMissingInstanceFunction, "%s has no NEXT implementation", it.TypeName())
	}
	result, err := t.invokeCallable(callable, []value.Value{it})
	if err != nil {
		return value.Unit(), false, err
	}
	return optionToNext(result)
}

// optionToNext interprets a NEXT implementation's Option<T> result:
// Some(x) continues with x, None signals exhaustion.
func optionToNext(result value.Value) (value.Value, bool, error) {
	vh, ok := result.VariantHash()
	if !ok {
		return value.Unit(), true, nil
	}
	if vh == uint64(context.NoneHash) {
		return value.Unit(), true, nil
	}
	if vh == uint64(context.SomeHash) {
		fields := result.AsVariantTuple().Fields
		if len(fields) == 1 {
			return fields[0], false, nil
		}
	}
	return value.Unit(), true, nil
}
