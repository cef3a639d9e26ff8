package scope_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/scope"
	"github.com/marssaxman/radian/token"
)

func newRoot() (*scope.Scope, *flowgraph.Pool) {
	pool := flowgraph.NewPool("scope_test", nil, nil)
	return scope.NewRoot(pool, diag.NewCollector(), nil, token.Span{}), pool
}

func TestDefineThenResolveSameScope(t *testing.T) {
	root, pool := newRoot()
	val := pool.Number("1")
	root.Define("x", scope.KindVar, val, token.Span{})

	sym, ok := root.Resolve("x", token.Span{})

	require.True(t, ok)
	require.Equal(t, val, sym.Node)
	require.Equal(t, scope.KindVar, sym.Kind)
}

func TestResolveUndefinedNameReports(t *testing.T) {
	pool := flowgraph.NewPool("scope_test", nil, nil)
	report := diag.NewCollector()
	root := scope.NewRoot(pool, report, nil, token.Span{})
	_, ok := root.Resolve("missing", token.Span{})
	require.False(t, ok)
	require.True(t, report.HasReceivedReport())
}

func TestBlockScopeCapturesOuterValueByPassthrough(t *testing.T) {
	root, pool := newRoot()
	val := pool.Number("7")
	root.Define("x", scope.KindVar, val, token.Span{})

	block := root.Enter(scope.KindIfElseScope, "", token.Span{})
	sym, ok := block.Resolve("x", token.Span{})

	require.True(t, ok)
	require.Equal(t, val, sym.Node, "block scopes pass context values through unchanged, no Slot needed")
}

func TestClosureScopeCapturesNonConstantAsSlot(t *testing.T) {
	root, pool := newRoot()
	// A Parameter reference is not constant, so capturing it from a
	// closure must allocate a Slot rather than reuse the node directly.
	param := pool.Parameter(0)
	root.Define("x", scope.KindVar, param, token.Span{})

	fn := root.Enter(scope.KindFunctionScope, "fn_inner", token.Span{})
	sym, ok := fn.Resolve("x", token.Span{})

	require.True(t, ok)
	require.Equal(t, flowgraph.KindSlot, sym.Node.Kind)
}

func TestClosureScopePassesConstantThrough(t *testing.T) {
	root, pool := newRoot()
	lit := pool.Number("42")
	root.Define("answer", scope.KindDef, lit, token.Span{})

	fn := root.Enter(scope.KindFunctionScope, "fn_inner", token.Span{})
	sym, ok := fn.Resolve("answer", token.Span{})

	require.True(t, ok)
	require.Equal(t, lit, sym.Node, "constant values need no Slot")
}

func TestRebindInContextPropagatesLatestValue(t *testing.T) {
	root, pool := newRoot()
	orig := pool.Number("1")
	root.Define("x", scope.KindVar, orig, token.Span{})

	block := root.Enter(scope.KindIfElseScope, "", token.Span{})
	_, _ = block.Resolve("x", token.Span{})
	updated := pool.Number("2")
	block.Assign("x", updated, token.Span{})
	block.RebindInContext(token.Span{})

	sym, ok := root.Resolve("x", token.Span{})
	require.True(t, ok)
	require.Equal(t, updated, sym.Node)
}

func TestRebindNamesDeterministicOrder(t *testing.T) {
	root, pool := newRoot()
	root.Define("a", scope.KindVar, pool.Number("1"), token.Span{})
	root.Define("b", scope.KindVar, pool.Number("2"), token.Span{})

	block := root.Enter(scope.KindIfElseScope, "", token.Span{})
	block.Resolve("b", token.Span{})
	block.Assign("b", pool.Number("20"), token.Span{})
	block.Resolve("a", token.Span{})
	block.Assign("a", pool.Number("10"), token.Span{})

	got := block.RebindNames()
	want := []string{"b", "a"} // first-reassignment order, not alphabetical
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RebindNames() order mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenModuleBindsImplicitSelf(t *testing.T) {
	root, _ := newRoot()
	mod := root.OpenModule("unit", token.Span{})
	_, ok := mod.Resolve("self", token.Span{})
	require.True(t, ok)
}
