package host

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/weave/pkg/compiler"
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/parser"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
	"github.com/kristofer/weave/pkg/vm"
)

// pendingAfter returns a host function that, called with no arguments,
// produces a Future that reports not-ready for the first n polls and
// then resolves to out.
func pendingAfter(n int, out value.Value) *value.Callable {
	polls := 0
	return &value.Callable{
		Kind: value.CallableHost, Name: "pending", Arity: 0,
		Host: func(args []value.Value) (value.Value, error) {
			return value.Future(&value.FutureData{
				State: value.FuturePending,
				Poll: func() (value.Value, bool, error) {
					polls++
					if polls <= n {
						return value.Unit(), false, nil
					}
					return out, true, nil
				},
			}), nil
		},
	}
}

func mustCompile(t *testing.T, src string, ctx *context.Context) *vm.VM {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	cu, err := compiler.Compile(prog, ctx)
	require.NoError(t, err)
	return vm.New(cu, ctx)
}

func TestRunDrivesPendingFutureToCompletion(t *testing.T) {
	ctx := context.New()
	require.NoError(t, ctx.RegisterFunction(unit.Item{"wait"}, pendingAfter(3, value.Int(42))))

	m := mustCompile(t, `fn main() { wait().await }`, ctx)
	task, err := m.CallFunction("main", nil)
	require.NoError(t, err)

	e := New(WithPollInterval(0))
	h := Track(task)
	rv, err := e.Run(stdctx.Background(), h)
	require.NoError(t, err)
	require.Equal(t, int64(42), rv.AsInt())
}

func TestRunAllDrivesMultipleTasksConcurrently(t *testing.T) {
	ctx := context.New()
	require.NoError(t, ctx.RegisterFunction(unit.Item{"waitA"}, pendingAfter(2, value.Int(1))))
	require.NoError(t, ctx.RegisterFunction(unit.Item{"waitB"}, pendingAfter(5, value.Int(2))))

	m := mustCompile(t, `fn a() { waitA().await }`, ctx)
	taskA, err := m.CallFunction("a", nil)
	require.NoError(t, err)

	m2 := mustCompile(t, `fn b() { waitB().await }`, ctx)
	taskB, err := m2.CallFunction("b", nil)
	require.NoError(t, err)

	e := New(WithPollInterval(0))
	ha, hb := Track(taskA), Track(taskB)
	results, err := e.RunAll(stdctx.Background(), []TaskHandle{ha, hb})
	require.NoError(t, err)
	require.Equal(t, int64(1), results[ha.ID].AsInt())
	require.Equal(t, int64(2), results[hb.ID].AsInt())
}
