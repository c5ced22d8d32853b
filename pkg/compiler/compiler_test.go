package compiler

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/parser"
	"github.com/kristofer/weave/pkg/unit"
)

func mustCompile(t *testing.T, src string) *unit.CompilationUnit {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	cu, err := Compile(prog, context.New())
	require.NoError(t, err)
	return cu
}

func byItem(entries []unit.FuncEntry) []unit.FuncEntry {
	out := append([]unit.FuncEntry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Item.String() < out[j].Item.String() })
	return out
}

// TestCompilationIsDeterministic compiles the same source twice against
// independent Contexts and requires the resulting function tables to be
// byte-for-byte identical: same Item, arity, entry address and local
// count for every declared function. A compiler with any source of
// nondeterminism (map iteration order leaking into codegen, for
// instance) would fail this the moment it has more than one function.
func TestCompilationIsDeterministic(t *testing.T) {
	src := `
		fn helper(x) { x * 2 }
		fn other(a, b) { a + b }
		fn main() {
			let a = helper(3);
			let b = other(a, 4);
			b
		}`

	first := byItem(mustCompile(t, src).Functions())
	second := byItem(mustCompile(t, src).Functions())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("compiling the same source twice produced different function tables (-first +second):\n%s", diff)
	}
}
