package flowgraph

import "github.com/marssaxman/radian/token"

// Booleans are encoded as the two nullary Functions True/False, each arity
// 2, returning parameter 0 / parameter 1 respectively (spec §3.3, "Church
// booleans"). Every Pool interns the same pair, since they close over
// nothing and need no per-compilation-unit uniqueness.

// True returns the Church-encoded boolean true: a 2-arity function
// returning its first argument.
func (p *Pool) True() *Node {
	return p.Function(p.Parameter(0), 2, "true")
}

// False returns the Church-encoded boolean false: a 2-arity function
// returning its second argument.
func (p *Pool) False() *Node {
	return p.Function(p.Parameter(1), 2, "false")
}

// Arg appends value to an argument list, prev being the previous Arg link
// or nil to start a new list (spec §3.3, "Arg nodes form a left-leaning
// linked list").
func (p *Pool) Arg(prev, value *Node, span token.Span) *Node {
	return p.Operation(OpArg, prev, value, span)
}

// Args builds a left-leaning Arg chain from a left-to-right slice of
// values, the shape every Call/Capture operand list expects.
func (p *Pool) Args(values []*Node, span token.Span) *Node {
	var chain *Node
	for _, v := range values {
		chain = p.Arg(chain, v, span)
	}
	return chain
}

// Call constructs a call of target with the given left-to-right argument
// values.
func (p *Pool) Call(target *Node, args []*Node, span token.Span) *Node {
	return p.Operation(OpCall, target, p.Args(args, span), span)
}

// Call1/Call2/Call3 are convenience wrappers for the overwhelmingly common
// fixed-arity calls the analyzer builds (booleans, comparisons, member
// dispatch).
func (p *Pool) Call1(target, a0 *Node, span token.Span) *Node {
	return p.Call(target, []*Node{a0}, span)
}
func (p *Pool) Call2(target, a0, a1 *Node, span token.Span) *Node {
	return p.Call(target, []*Node{a0, a1}, span)
}
func (p *Pool) Call3(target, a0, a1, a2 *Node, span token.Span) *Node {
	return p.Call(target, []*Node{a0, a1, a2}, span)
}

// Capture binds fn to a list of slot values, producing a closure instance;
// with no captured values it returns fn unchanged (no Capture node is
// needed to call a closure-free function).
func (p *Pool) Capture(fn *Node, captured []*Node, span token.Span) *Node {
	if len(captured) == 0 {
		return fn
	}
	return p.Operation(OpCapture, fn, p.Args(captured, span), span)
}

// Assert returns left if it is true, else throws right (spec §3.3,
// "Assert").
func (p *Pool) Assert(left, right *Node, span token.Span) *Node {
	return p.Operation(OpAssert, left, right, span)
}

// Chain returns left if it is exceptional, else right — the operation
// assertion chaining relies on to make the first failed assertion dominate
// (spec §3.3, "Chain"; spec §4.5 "Every Assert statement...").
func (p *Pool) Chain(left, right *Node, span token.Span) *Node {
	return p.Operation(OpChain, left, right, span)
}

// Loop constructs the Loop operation: called with a start tuple, with
// (condition-function, operation-function) as operands (spec §3.3).
// Left holds cond and Right holds op directly; the start tuple is not part
// of this node but is the argument the Loop's Call site supplies. Callers
// build that Call themselves — see Scope.FinishLoop in package scope.
func (p *Pool) Loop(cond, op *Node, span token.Span) *Node {
	return p.Operation(OpLoop, cond, op, span)
}

// Branch implements the Church-encoding branch: a call to condition with
// the two alternatives as arguments (spec §4.2 "Exposed high-level
// builders... Branch").
func (p *Pool) Branch(condition, thenVal, elseVal *Node, span token.Span) *Node {
	return p.Call2(condition, thenVal, elseVal, span)
}

// Compare invokes the left operand's `compare_to` method, returning the
// trinary selector function the result comparison operators (=, !=, <, <=,
// >, >=) all build on (spec §4.2, §4.5).
func (p *Pool) Compare(left, right *Node, span token.Span) *Node {
	m := p.Call1(left, p.Symbol("compare_to"), span)
	return p.Call2(m, left, right, span)
}

// Throw constructs throw_exception(value) — an Operation-level primitive
// built from the `throw_exception` intrinsic rather than a dedicated node
// kind, matching spec's Operation set (Throw is represented as a Call to
// the throw_exception intrinsic, not a distinct Kind).
func (p *Pool) Throw(value *Node, span token.Span) *Node {
	return p.Call1(p.Intrinsic("throw_exception"), value, span)
}

// Catch constructs catch_exception(value, handler).
func (p *Pool) Catch(value, handler *Node, span token.Span) *Node {
	return p.Call2(p.Intrinsic("catch_exception"), value, handler, span)
}

// Tuple constructs make_tuple(values...).
func (p *Pool) Tuple(values []*Node, span token.Span) *Node {
	return p.Call(p.Intrinsic("make_tuple"), values, span)
}

// List constructs list(values...), or list_empty() for zero elements.
func (p *Pool) List(values []*Node, span token.Span) *Node {
	if len(values) == 0 {
		return p.Call(p.Intrinsic("list_empty"), nil, span)
	}
	return p.Call(p.Intrinsic("list"), values, span)
}

// Map constructs a map literal from (key, value) pairs, starting from
// map_blank and invoking its setter once per pair — a map literal is
// sugar for repeated insertion, the same way the member dispatcher builds
// an object's internal map (spec §4.11).
func (p *Pool) Map(keys, values []*Node, span token.Span) *Node {
	m := p.Intrinsic("map_blank")
	acc := p.Call(m, nil, span)
	for i := range keys {
		setter := p.Call1(acc, p.Symbol("set"), span)
		acc = p.Call2(setter, keys[i], values[i], span)
	}
	return acc
}

// PropagateInduction wraps result in Inductor if it was built purely from
// values that are themselves induction-dependent or loop-invariant — the
// mechanism that lets the for loop specializer find more than the bare
// loop variable mappable (spec §4.9 "values depending only on the
// induction variable and loop invariants"). A Placeholder operand is
// treated as provisionally loop-invariant since the While/For scope has
// not yet decided the invariant/update partition when this runs; an
// operand that is neither constant, induction-tagged, nor a placeholder
// (typically a reference that escaped the loop's own capture tracking)
// disqualifies the whole expression.
func (p *Pool) PropagateInduction(result *Node, operands ...*Node) *Node {
	any := false
	for _, o := range operands {
		switch {
		case o.IsInductionVar():
			any = true
		case o.IsConstant():
		case o != nil && o.Kind == KindPlaceholder:
		default:
			return result
		}
	}
	if !any {
		return result
	}
	return p.Inductor(result)
}

// ImportCore returns a reference to the standard-library core module,
// interned under the special "radian" directory (spec §4.2, §6 "Builtins
// may be referenced only from modules imported under the special `radian`
// library directory").
func (p *Pool) ImportCore(span token.Span) *Node {
	return p.Import("core", "radian", span)
}
