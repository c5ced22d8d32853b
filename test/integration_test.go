// Package test runs whole programs end to end through the
// lexer/parser/compiler/vm pipeline, the way the CLI's run command
// does, rather than unit-testing any one stage in isolation.
package test

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/weave/pkg/compiler"
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/host"
	"github.com/kristofer/weave/pkg/parser"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
	"github.com/kristofer/weave/pkg/vm"
)

// run compiles src against a fresh prelude Context and runs "main" to
// completion, driving any pending futures through the reference host
// executor.
func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	ctx := context.New()
	cu, err := compiler.Compile(prog, ctx)
	require.NoError(t, err)
	m := vm.New(cu, ctx)
	task, err := m.CallFunction("main", nil)
	require.NoError(t, err)
	return host.New(host.WithPollInterval(0)).Run(stdctx.Background(), host.Track(task))
}

func TestArithmeticAndLetBindings(t *testing.T) {
	rv, err := run(t, `fn main() { let a = 1; let b = 2; let c = a + b; let d = c * 2; d / 3 }`)
	require.NoError(t, err)
	require.Equal(t, int64(2), rv.AsInt())
}

func TestLoopBreakWithValue(t *testing.T) {
	rv, err := run(t, `
		fn main() {
			let a = 0;
			let a = while a >= 0 {
				if a >= 10 { break a; }
				a = a + 1;
			};
			a
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(10), rv.AsInt())
}

func TestNestedSeqPatternMatch(t *testing.T) {
	rv, err := run(t, `
		fn main() {
			match [1, [2, 3]] {
				[1, [2, ..]] => true,
				_ => false,
			}
		}`)
	require.NoError(t, err)
	require.True(t, rv.AsBool())
}

func TestIntegerAdditionOverflowPanics(t *testing.T) {
	_, err := run(t, `fn main() { let a = 9223372036854775807; let b = 2; a + b }`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrOverflow, rerr.Kind)
}

func TestDivideByZeroIsARuntimeError(t *testing.T) {
	_, err := run(t, `fn main() { let a = 10; let b = 0; a / b }`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrDivideByZero, rerr.Kind)
}

func TestAsyncFnAwaitResolvesReadyFuture(t *testing.T) {
	prog, err := parser.Parse(`
		async fn addOne(x) {
			x + 1
		}
		fn main() {
			let a = addOne(5).await;
			a
		}`)
	require.NoError(t, err)
	ctx := context.New()
	cu, err := compiler.Compile(prog, ctx)
	require.NoError(t, err)
	m := vm.New(cu, ctx)
	task, err := m.CallFunction("main", nil)
	require.NoError(t, err)
	rv, err := host.New(host.WithPollInterval(0)).Run(stdctx.Background(), host.Track(task))
	require.NoError(t, err)
	require.Equal(t, int64(6), rv.AsInt())
}

func TestAsyncAwaitDrivenThroughAHostPendingFuture(t *testing.T) {
	ctx := context.New()
	polls := 0
	require.NoError(t, ctx.RegisterFunction(unit.Item{"tick"}, &value.Callable{
		Kind: value.CallableHost, Name: "tick", Arity: 0,
		Host: func(args []value.Value) (value.Value, error) {
			return value.Future(&value.FutureData{
				State: value.FuturePending,
				Poll: func() (value.Value, bool, error) {
					polls++
					if polls < 3 {
						return value.Unit(), false, nil
					}
					return value.Int(6), true, nil
				},
			}), nil
		},
	}))
	prog, err := parser.Parse(`fn main() { tick().await }`)
	require.NoError(t, err)
	cu, err := compiler.Compile(prog, ctx)
	require.NoError(t, err)
	m := vm.New(cu, ctx)
	task, err := m.CallFunction("main", nil)
	require.NoError(t, err)
	rv, err := host.New(host.WithPollInterval(0)).Run(stdctx.Background(), host.Track(task))
	require.NoError(t, err)
	require.Equal(t, int64(6), rv.AsInt())
}

func TestTryOperatorShortCircuitsOnErr(t *testing.T) {
	rv, err := run(t, `
		fn fails() {
			Err(3)
		}
		fn main() {
			let a = fails()?;
			Ok(a)
		}`)
	require.NoError(t, err)
	require.Equal(t, "Err(3)", rv.Display())
}

func TestTryOperatorUnwrapsOkAndSome(t *testing.T) {
	rv, err := run(t, `
		fn main() {
			let a = Ok(2)?;
			let b = Some(3)?;
			a + b
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(5), rv.AsInt())
}

func TestRefutableLetPanicsOnMismatch(t *testing.T) {
	_, err := run(t, `fn main() { let [] = [1, 2, 3]; }`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrPanic, rerr.Kind)
	require.Contains(t, rerr.Message, "pattern did not match")
}

func TestBlockExpressionEndingInSemicolonIsUnit(t *testing.T) {
	rv, err := run(t, `fn main() { let a = { 1 + 1; }; a }`)
	require.NoError(t, err)
	require.Equal(t, value.KindUnit, rv.Kind())
}

func TestMatchIsDeterministicFirstArmWins(t *testing.T) {
	rv, err := run(t, `
		fn main() {
			match 1 {
				_ => 1,
				1 => 2,
			}
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(1), rv.AsInt())
}

func TestIsAndIsNotAreComplementary(t *testing.T) {
	rv, err := run(t, `fn main() { (1 is int) == !(1 is not int) }`)
	require.NoError(t, err)
	require.True(t, rv.AsBool())
}

func TestLoopThatNeverRunsProducesUnit(t *testing.T) {
	rv, err := run(t, `fn main() { while false { 1 } }`)
	require.NoError(t, err)
	require.Equal(t, value.KindUnit, rv.Kind())
}

func TestTemplateStringWithNoHolesEqualsRawString(t *testing.T) {
	a, err := run(t, "fn main() { `plain text` }")
	require.NoError(t, err)
	b, err := run(t, `fn main() { "plain text" }`)
	require.NoError(t, err)
	require.Equal(t, b.Display(), a.Display())
}

func TestRunAllDrivesConcurrentTopLevelTasks(t *testing.T) {
	ctx := context.New()
	require.NoError(t, ctx.RegisterFunction(unit.Item{"waitA"}, pendingAfterN(2, value.Int(10))))
	require.NoError(t, ctx.RegisterFunction(unit.Item{"waitB"}, pendingAfterN(5, value.Int(20))))

	progA, err := parser.Parse(`fn main() { waitA().await }`)
	require.NoError(t, err)
	cuA, err := compiler.Compile(progA, ctx)
	require.NoError(t, err)
	taskA, err := vm.New(cuA, ctx).CallFunction("main", nil)
	require.NoError(t, err)

	progB, err := parser.Parse(`fn main() { waitB().await }`)
	require.NoError(t, err)
	cuB, err := compiler.Compile(progB, ctx)
	require.NoError(t, err)
	taskB, err := vm.New(cuB, ctx).CallFunction("main", nil)
	require.NoError(t, err)

	e := host.New(host.WithPollInterval(0))
	ha, hb := host.Track(taskA), host.Track(taskB)
	results, err := e.RunAll(stdctx.Background(), []host.TaskHandle{ha, hb})
	require.NoError(t, err)
	require.Equal(t, int64(10), results[ha.ID].AsInt())
	require.Equal(t, int64(20), results[hb.ID].AsInt())
}

func TestStructLiteralAndPatternMatchingWithShorthandBinding(t *testing.T) {
	rv, err := run(t, `
		struct Foo { a, b }

		fn main() {
			let foo = Foo {
				a: 1,
				b: 2,
			};

			match foo {
				Foo { a, b } => a + b,
				_ => 0,
			}
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.AsInt())

	// The shorthand `b` field entry looks up a local of the same name,
	// rather than requiring `b: b`.
	rv, err = run(t, `
		struct Foo { a, b }

		fn main() {
			let b = 2;

			let foo = Foo {
				a: 1,
				b,
			};

			match foo {
				Foo { a, b } => a + b,
				_ => 0,
			}
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.AsInt())
}

func TestDefinedTupleStructAndEnumMatching(t *testing.T) {
	rv, err := run(t, `
		struct MyType(a, b);

		fn main() { match MyType(1, 2) { MyType(a, b) => a + b, _ => 0 } }`)
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.AsInt())

	rv, err = run(t, `
		enum MyType { A(a, b), C(c) }

		fn main() { match MyType::A(1, 2) { MyType::A(a, b) => a + b, _ => 0 } }`)
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.AsInt())

	rv, err = run(t, `
		enum MyType { A(a, b), C(c) }

		fn main() { match MyType::C(4) { MyType::A(a, b) => a + b, _ => 0 } }`)
	require.NoError(t, err)
	require.Equal(t, int64(0), rv.AsInt())

	rv, err = run(t, `
		enum MyType { A(a, b), C(c) }

		fn main() { match MyType::C(4) { MyType::C(a) => a, _ => 0 } }`)
	require.NoError(t, err)
	require.Equal(t, int64(4), rv.AsInt())
}

func TestEnumVariantConstructorsAreFirstClassFunctions(t *testing.T) {
	rv, err := run(t, `
		enum Foo { A(a), B(b, c) }

		fn construct(tuple) {
			tuple(1, 2)
		}

		fn main() {
			let foo = construct(Foo::B);

			match foo {
				Foo::B(a, b) => a + b,
				_ => 0,
			}
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(3), rv.AsInt())
}

func TestFunctionPointerArityMismatch(t *testing.T) {
	rv, err := run(t, `
		fn foo(a, b) { a + b }
		fn main() { let f = foo; f(1, 3) }`)
	require.NoError(t, err)
	require.Equal(t, int64(4), rv.AsInt())

	_, err = run(t, `
		fn foo(a, b) { a + b }
		fn main() { let f = foo; f(1) }`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrIncorrectNumberOfArguments, rerr.Kind)

	_, err = run(t, `
		struct Custom(a)
		fn main() { let f = Custom; f() }`)
	require.Error(t, err)
	rerr, ok = err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrIncorrectNumberOfArguments, rerr.Kind)

	rv, err = run(t, `
		struct Custom(a)
		fn main() { let f = Custom; f(1) }`)
	require.NoError(t, err)
	require.Equal(t, value.KindTypedTuple, rv.Kind())

	_, err = run(t, `
		enum Custom { A(a) }
		fn main() { let f = Custom::A; f() }`)
	require.Error(t, err)
	rerr, ok = err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Equal(t, vm.ErrIncorrectNumberOfArguments, rerr.Kind)

	rv, err = run(t, `
		enum Custom { A(a) }
		fn main() { let f = Custom::A; f(1) }`)
	require.NoError(t, err)
	require.Equal(t, value.KindVariantTuple, rv.Kind())
}

func TestIndexGetAndTupleIndexAcrossContainerKinds(t *testing.T) {
	rv, err := run(t, `
		struct Named(a, b, c);
		enum Enum { Named(a, b, c) }

		fn a() { [1, 2, 3] }
		fn b() { (2, 3, 4) }
		fn c() { Named(3, 4, 5) }
		fn d() { Enum::Named(4, 5, 6) }

		fn main() {
			(a())[1] + (b())[1] + (c())[1] + (d())[1] + (a()).2 + (b()).2 + (c()).2 + (d()).2
		}`)
	require.NoError(t, err)
	require.Equal(t, int64(32), rv.AsInt())
}

func TestIsNotOnUserDeclaredUnitStruct(t *testing.T) {
	rv, err := run(t, `
		struct Timeout;

		fn main() {
			let timeout = Timeout;
			(
				timeout is Timeout,
				timeout is not Timeout,
				!(timeout is Timeout),
				!(timeout is not Timeout),
			)
		}`)
	require.NoError(t, err)
	elems := rv.AsTuple()
	require.Len(t, elems, 4)
	require.True(t, elems[0].AsBool())
	require.False(t, elems[1].AsBool())
	require.False(t, elems[2].AsBool())
	require.True(t, elems[3].AsBool())
}

func TestTemplateStringNestedScopeDoesNotClobberOuterLocal(t *testing.T) {
	rv, err := run(t, "fn main() { let name = `John Doe`; `Hello {name}, I am {1 - 10} years old!` }")
	require.NoError(t, err)
	require.Equal(t, "Hello John Doe, I am -9 years old!", rv.AsString())

	// A sub-expression hole introduces its own `a`; it must not clobber
	// an outer local of the same name.
	rv, err = run(t, `
		fn main() {
			let a = 1;
			let name = ` + "`John Doe`" + `;
			` + "`" + `Hello {name}, I am {{
				let a = 20;
				a += 2;
				a
			}} years old! a = {a}` + "`" + `
		}`)
	require.NoError(t, err)
	require.Equal(t, "Hello John Doe, I am 22 years old! a = 1", rv.AsString())
}

func TestParenthesizedVariantObjectLiteralAsMatchScrutinee(t *testing.T) {
	rv, err := run(t, `
		enum Custom { A, B { a } }
		fn main() {
			match (Custom::B { a: 0 }) { Custom::B { a: 0 } => true, _ => false }
		}`)
	require.NoError(t, err)
	require.True(t, rv.AsBool())

	rv, err = run(t, `
		enum Custom { A, B { a } }
		fn isZero(a) { a == 0 }

		fn main() {
			match (Custom::B { a: 0 }) { Custom::B { a } if isZero(a) => true, _ => false }
		}`)
	require.NoError(t, err)
	require.True(t, rv.AsBool())
}

func pendingAfterN(n int, out value.Value) *value.Callable {
	polls := 0
	return &value.Callable{
		Kind: value.CallableHost, Name: "wait", Arity: 0,
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
