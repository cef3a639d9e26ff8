package linearcode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/linearcode"
	"github.com/marssaxman/radian/token"
)

func newPool() *flowgraph.Pool {
	return flowgraph.NewPool("linearcode_test", nil, nil)
}

func TestLinearizeLiteral(t *testing.T) {
	p := newPool()
	fn := p.Function(p.Number("42"), 0, "answer")

	code := linearcode.Linearize(fn)

	require.Equal(t, "answer", code.Name)
	require.Equal(t, 0, code.Arity)
	require.Len(t, code.Instructions, 1)
	require.Equal(t, linearcode.OpNumberLiteral, code.Instructions[0].Op)
	require.Equal(t, linearcode.AddrData, code.Instructions[0].Args[0].Kind)
	require.Equal(t, "42", code.Instructions[0].Args[0].Data)
	require.Equal(t, linearcode.AddrRegister, code.Result.Kind)
	require.Equal(t, 0, code.Result.Reg)
}

func TestLinearizeVoidBodyEmitsNoInstruction(t *testing.T) {
	p := newPool()
	fn := p.Function(p.Void(), 0, "nothing")

	code := linearcode.Linearize(fn)

	require.Empty(t, code.Instructions)
	require.Equal(t, linearcode.AddrVoid, code.Result.Kind)
}

func TestLinearizeSharedSubexpressionReusesRegister(t *testing.T) {
	p := newPool()
	span := token.Span{}
	// square(x) = x.call(:mul, x) — the parameter node x is reached twice.
	x := p.Parameter(0)
	mul := p.Call1(x, p.Symbol("mul"), span)
	square := p.Call1(mul, x, span)
	fn := p.Function(square, 1, "square")

	code := linearcode.Linearize(fn)

	var paramInstrs int
	for _, inst := range code.Instructions {
		if inst.Op == linearcode.OpParameter {
			paramInstrs++
		}
	}
	require.Equal(t, 1, paramInstrs, "shared parameter reference should be linearized once")
}

func TestLinearizeIntrinsicAndFunctionAreAddressesNotInstructions(t *testing.T) {
	p := newPool()
	span := token.Span{}
	inner := p.Function(p.Parameter(0), 1, "identity")
	body := p.Call1(p.Intrinsic("make_tuple"), inner, span)
	fn := p.Function(body, 0, "wrapsBoth")

	code := linearcode.Linearize(fn)

	// The call instruction's target/arg addresses should be Intrinsic/Link,
	// never a separately-emitted instruction for either operand.
	found := false
	for _, inst := range code.Instructions {
		if inst.Op == linearcode.OpCall {
			found = true
			require.Equal(t, linearcode.AddrIntrinsic, inst.Args[0].Kind)
			require.Equal(t, "make_tuple", inst.Args[0].Data)
			require.Equal(t, linearcode.AddrLink, inst.Args[1].Kind)
			require.Equal(t, "identity", inst.Args[1].Data)
		}
	}
	require.True(t, found)
}

func TestLinearizeInductorIsTransparent(t *testing.T) {
	p := newPool()
	x := p.Parameter(0)
	prime := p.Inductor(x)
	fn := p.Function(prime, 1, "prime")

	code := linearcode.Linearize(fn)

	require.Len(t, code.Instructions, 1)
	require.Equal(t, linearcode.OpParameter, code.Instructions[0].Op)
}

func TestLinearizeLoopCallSpecializesToLoopWhileCallRepeat(t *testing.T) {
	p := newPool()
	span := token.Span{}
	cond := p.Function(p.True(), 1, "cond")
	op := p.Function(p.Parameter(0), 1, "op")
	loop := p.Loop(cond, op, span)
	start := p.Number("0")
	call := p.Call1(loop, start, span)
	fn := p.Function(call, 0, "runLoop")

	code := linearcode.Linearize(fn)

	require.GreaterOrEqual(t, len(code.Instructions), 3)
	var ops []linearcode.Op
	for _, inst := range code.Instructions {
		ops = append(ops, inst.Op)
	}
	require.Contains(t, ops, linearcode.OpLoopWhile)
	require.Contains(t, ops, linearcode.OpCall)
	require.Contains(t, ops, linearcode.OpRepeat)
	// Repeat must be the very last instruction and must be the result.
	last := code.Instructions[len(code.Instructions)-1]
	require.Equal(t, linearcode.OpRepeat, last.Op)
	require.Equal(t, code.Result, last.Dest)
}

func TestLinearizePanicsOnNonFunction(t *testing.T) {
	p := newPool()
	require.Panics(t, func() {
		linearcode.Linearize(p.Number("1"))
	})
}
