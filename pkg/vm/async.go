package vm

import (
	"errors"

	"github.com/kristofer/weave/pkg/value"
)

// ErrSuspended is returned by RunToCompletion when the task parked on a
// future that is not yet ready. A host executor (pkg/host) polls the
// pending future's source and calls RunToCompletion again once it can
// make progress; execution resumes at the very OpAwait that suspended,
// since its instruction pointer is rewound rather than advanced.
var ErrSuspended = errors.New("task suspended on a pending future")

// execAwait implements OpAwait: a ready future unwraps immediately; a
// pending one is polled once, and if still not ready, the instruction is
// replayed on the next RunToCompletion call rather than being skipped.
func (t *Task) execAwait() error {
	fr := t.top()
	fut := t.peek()
	if fut.Kind() != value.KindFuture {
		return t.kindError(ErrBadArgument, "await requires a Future, got %s", fut.TypeName())
	}
	fd := fut.AsFuture()
	if fd.State == value.FutureReady {
		t.pop()
		t.push(fd.Output)
		return nil
	}
	if fd.Poll == nil {
		return t.kindError(ErrBadArgument, "future never resolves")
	}
	out, ready, err := fd.Poll()
	if err != nil {
		return t.kindError(ErrBadArgument, "%s", err)
	}
	if ready {
		t.pop()
		t.push(out)
		return nil
	}
	fr.ip--
	return ErrSuspended
}
