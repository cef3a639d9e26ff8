package flowgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

type stubDelegate struct {
	fns     []*flowgraph.Node
	imports []*flowgraph.Node
}

func (d *stubDelegate) EmitFunction(fn *flowgraph.Node)                { d.fns = append(d.fns, fn) }
func (d *stubDelegate) NoticeImport(imp *flowgraph.Node, _ token.Span) { d.imports = append(d.imports, imp) }

func TestEqualLiteralsAreHashConsed(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	require.Same(t, p.Number("5"), p.Number("5"))
	require.Same(t, p.String("hi"), p.String("hi"))
	require.NotSame(t, p.Number("5"), p.Number("6"))
}

func TestFunctionEmittedExactlyOncePerDistinctShape(t *testing.T) {
	d := &stubDelegate{}
	p := flowgraph.NewPool("t", d, nil)
	body := p.Number("1")

	f1 := p.Function(body, 0, "f")
	f2 := p.Function(body, 0, "f")

	require.Same(t, f1, f2)
	require.Len(t, d.fns, 1, "delegate must only be notified on first construction")
}

func TestImportNoticedOncePerDistinctNameDir(t *testing.T) {
	d := &stubDelegate{}
	p := flowgraph.NewPool("t", d, nil)
	span := token.Span{Start: token.Location{Line: 1}}

	i1 := p.Import("core", "radian", span)
	i2 := p.Import("core", "radian", span)

	require.Same(t, i1, i2)
	require.Len(t, d.imports, 1)
}

func TestPropagateInductionTagsPureInductionExpression(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	span := token.Span{}
	prime := p.Inductor(p.Parameter(0))
	derived := p.Call1(prime, p.Symbol("square"), span)

	tagged := p.PropagateInduction(derived, prime)

	require.True(t, tagged.IsInductionVar())
	require.Equal(t, derived, tagged.Wraps)
}

func TestPropagateInductionLeavesNonInductionOperandUntagged(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	span := token.Span{}
	escaped := p.Call1(p.Number("1"), p.Symbol("noop"), span) // not constant, not induction, not a placeholder
	derived := p.Call1(escaped, p.Symbol("square"), span)

	tagged := p.PropagateInduction(derived, escaped)

	require.False(t, tagged.IsInductionVar())
	require.Same(t, derived, tagged)
}

func TestPropagateInductionAcceptsConstantAndPlaceholderOperands(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	span := token.Span{}
	prime := p.Inductor(p.Parameter(0))
	ph := p.Placeholder(0)
	derived := p.Call(prime, []*flowgraph.Node{p.Number("2"), ph}, span)

	tagged := p.PropagateInduction(derived, prime, p.Number("2"), ph)

	require.True(t, tagged.IsInductionVar())
}

func TestCloseWithoutTaintDoesNotPanic(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	require.NotPanics(t, func() { p.Close(false) })
}

func TestCloseTaintedWithoutReportPanics(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	// Force a taint: Function with a nil body taints the pool.
	p.Function(nil, 0, "broken")
	require.Panics(t, func() { p.Close(false) })
}

func TestCloseTaintedWithReportDoesNotPanic(t *testing.T) {
	p := flowgraph.NewPool("t", nil, nil)
	p.Function(nil, 0, "broken")
	require.NotPanics(t, func() { p.Close(true) })
}
