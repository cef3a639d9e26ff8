// Package analyzer lowers the parser's AST into the scope-managed data-flow
// graph (spec §4.5, §4.6): it is the only package that calls both
// package ast (to read) and package scope (to mutate), and the only place
// flowgraph.Pool constructors are invoked outside of package scope itself.
package analyzer

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/scope"
	"github.com/marssaxman/radian/token"
)

// Analyzer lowers AST nodes in the context of a *scope.Scope, which owns
// the symbol tables, segment chains, and DFG pool every lowering decision
// reads or mutates.
type Analyzer struct {
	report diag.Reporter
	log    hclog.Logger
}

// New constructs an Analyzer reporting through report.
func New(report diag.Reporter, log hclog.Logger) *Analyzer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Analyzer{report: report, log: log.Named("analyzer")}
}

func (a *Analyzer) errorf(span token.Span, kind diag.Kind, format string, args ...interface{}) {
	a.report.Report(diag.Error{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Expr lowers one expression node in scope s, returning the DFG value it
// evaluates to.
func (a *Analyzer) Expr(s *scope.Scope, e ast.Expression) *flowgraph.Node {
	pool := s.Pool()
	switch n := e.(type) {
	case *ast.Identifier:
		sym, ok := s.Resolve(n.Name, n.Span())
		if !ok {
			return pool.Throw(pool.Symbol("undefined"), n.Span())
		}
		return sym.Node
	case *ast.Literal:
		return a.literal(pool, n)
	case *ast.Unary:
		return a.unary(s, n)
	case *ast.Binary:
		return a.binary(s, n)
	case *ast.IfElse:
		return a.ifElseExpr(s, n)
	case *ast.Call:
		callee := a.Expr(s, n.Callee)
		return pool.Call(callee, a.exprList(s, n.Arguments.Values), n.Span())
	case *ast.Member:
		obj := a.Expr(s, n.Object)
		var args []*flowgraph.Node
		if n.Arguments != nil {
			args = a.exprList(s, n.Arguments.Values)
		}
		return methodCall(pool, obj, n.Name, args, n.Span())
	case *ast.Lookup:
		obj := a.Expr(s, n.Object)
		idx := a.Expr(s, n.Index)
		result := pool.Call1(obj, idx, n.Span())
		return pool.PropagateInduction(result, obj, idx)
	case *ast.List:
		return pool.List(a.exprList(s, n.Elements), n.Span())
	case *ast.Map:
		keys := make([]*flowgraph.Node, len(n.Entries))
		values := make([]*flowgraph.Node, len(n.Entries))
		for i, entry := range n.Entries {
			keys[i] = a.Expr(s, entry.Key)
			values[i] = a.Expr(s, entry.Value)
		}
		return pool.Map(keys, values, n.Span())
	case *ast.Invoke:
		target := a.Expr(s, n.Target)
		if n.Key != nil {
			target = pool.Call1(target, a.Expr(s, n.Key), n.Span())
		}
		return pool.Call(target, nil, n.Span())
	case *ast.LambdaCapture:
		return a.lambdaCapture(s, n)
	case *ast.Comprehension:
		return a.comprehension(s, n)
	case *ast.MutatorTarget:
		// Already reported MutatorInsideExpression at parse time; evaluate
		// the target so later diagnostics (if any) still have a value to
		// work with, and treat the mutator call as a plain member access.
		obj := a.Expr(s, n.Target)
		var args []*flowgraph.Node
		if n.Arguments != nil {
			args = a.exprList(s, n.Arguments.Values)
		}
		return methodCall(pool, obj, n.Method, args, n.Span())
	default:
		a.errorf(e.Span(), diag.InternalInvariantViolation, "analyzer: unhandled expression node")
		return pool.Throw(pool.Symbol("undefined"), e.Span())
	}
}

func (a *Analyzer) exprList(s *scope.Scope, exprs []ast.Expression) []*flowgraph.Node {
	out := make([]*flowgraph.Node, len(exprs))
	for i, e := range exprs {
		out[i] = a.Expr(s, e)
	}
	return out
}

func (a *Analyzer) literal(pool *flowgraph.Pool, n *ast.Literal) *flowgraph.Node {
	switch n.Kind {
	case ast.LitInteger, ast.LitHex, ast.LitOctal, ast.LitBinary:
		return pool.Number(n.Text)
	case ast.LitReal, ast.LitFloat:
		return pool.Float(n.Text)
	case ast.LitString:
		return pool.String(n.Text)
	case ast.LitSymbol:
		return pool.Symbol(n.Text)
	case ast.LitBoolean:
		if n.Bool {
			return pool.True()
		}
		return pool.False()
	default: // LitDummy: the parser already reported the syntax error
		return pool.Throw(pool.Symbol("undefined"), n.Span())
	}
}

func (a *Analyzer) unary(s *scope.Scope, n *ast.Unary) *flowgraph.Node {
	pool := s.Pool()
	span := n.Span()
	switch n.Op {
	case ast.UnaryGroup:
		return a.Expr(s, n.Operand)
	case ast.UnaryNegate:
		return methodCall(pool, a.Expr(s, n.Operand), "negate", nil, span)
	case ast.UnaryNot:
		operand := a.Expr(s, n.Operand)
		return pool.PropagateInduction(pool.Branch(operand, pool.False(), pool.True(), span), operand)
	case ast.UnaryThrow:
		return pool.Throw(a.Expr(s, n.Operand), span)
	case ast.UnarySync:
		value := a.Expr(s, n.Operand)
		s.PushSegment(value, scope.SegmentSync, span)
		return pool.Void()
	default:
		a.errorf(span, diag.InternalInvariantViolation, "analyzer: unhandled unary operator")
		return pool.Throw(pool.Symbol("undefined"), span)
	}
}

// methodCall lowers a message send: fetch the member, then invoke it with
// receiver prepended to args, the same way a resolved method is bound back
// onto its receiver everywhere else in this language (spec.md:270-271 —
// `a+b` lowers to Call2(Call1(Parameter0,:add), Parameter0, Parameter1),
// and a dispatcher-synthesized setter (scope/dispatch.go buildSetter) is
// arity 2, self and the new value). Every value in this language — user
// object, built-in number, string, tuple — answers `.method` the same
// way, so arithmetic, built-in method calls, and user-defined member
// access all funnel through the same two-step
// Call(Call1(receiver, :method), receiver, args...) shape as the member
// dispatcher itself builds (spec §4.5, §4.11).
func methodCall(pool *flowgraph.Pool, receiver *flowgraph.Node, name string, args []*flowgraph.Node, span token.Span) *flowgraph.Node {
	ref := pool.Call1(receiver, pool.Symbol(name), span)
	fullArgs := append([]*flowgraph.Node{receiver}, args...)
	result := pool.Call(ref, fullArgs, span)
	return pool.PropagateInduction(result, fullArgs...)
}

var binaryMethod = map[ast.BinaryOp]string{
	ast.OpAdd:        "add",
	ast.OpSubtract:   "subtract",
	ast.OpConcat:     "concatenate",
	ast.OpMultiply:   "multiply",
	ast.OpDivide:     "divide",
	ast.OpModulus:    "modulus",
	ast.OpExponent:   "exponentiate",
	ast.OpShiftLeft:  "shift_left",
	ast.OpShiftRight: "shift_right",
	ast.OpAs:         "as_type",
}

func (a *Analyzer) binary(s *scope.Scope, n *ast.Binary) *flowgraph.Node {
	pool := s.Pool()
	span := n.Span()
	switch n.Op {
	case ast.OpTuple:
		elems := a.exprList(s, flattenTuple(n))
		return pool.PropagateInduction(pool.Tuple(elems, span), elems...)
	case ast.OpPair:
		left, right := a.Expr(s, n.Left), a.Expr(s, n.Right)
		return pool.PropagateInduction(pool.Tuple([]*flowgraph.Node{left, right}, span), left, right)
	case ast.OpEqual, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual:
		return compareOp(pool, n.Op, a.Expr(s, n.Left), a.Expr(s, n.Right), span)
	case ast.OpAnd:
		left, right := a.Expr(s, n.Left), a.Expr(s, n.Right)
		return pool.PropagateInduction(pool.Branch(left, right, pool.False(), span), left, right)
	case ast.OpOr:
		left, right := a.Expr(s, n.Left), a.Expr(s, n.Right)
		return pool.PropagateInduction(pool.Branch(left, pool.True(), right, span), left, right)
	case ast.OpXor:
		left, right := a.Expr(s, n.Left), a.Expr(s, n.Right)
		notRight := pool.Branch(right, pool.False(), pool.True(), span)
		return pool.PropagateInduction(pool.Branch(left, notRight, right, span), left, right)
	case ast.OpHas:
		// `x has k` is `is_not_exceptional(x(k))` (spec §4.2), not a member
		// method call — there is no user-overridable `has` method.
		left, right := a.Expr(s, n.Left), a.Expr(s, n.Right)
		lookup := pool.Call1(left, right, span)
		return pool.Call1(pool.Intrinsic(flowgraph.IntrinsicIsNotExceptional), lookup, span)
	default:
		if method, ok := binaryMethod[n.Op]; ok {
			return methodCall(pool, a.Expr(s, n.Left), method, []*flowgraph.Node{a.Expr(s, n.Right)}, span)
		}
		a.errorf(span, diag.InternalInvariantViolation, "analyzer: unhandled binary operator")
		return pool.Throw(pool.Symbol("undefined"), span)
	}
}

// flattenTuple unrolls a left-leaning chain of OpTuple Binary nodes («a, b,
// c» parses as ((a, b), c)) into the flat left-to-right element list
// make_tuple expects.
func flattenTuple(e ast.Expression) []ast.Expression {
	if b, ok := e.(*ast.Binary); ok && b.Op == ast.OpTuple {
		return append(flattenTuple(b.Left), flattenTuple(b.Right)...)
	}
	return []ast.Expression{e}
}

// compareOp lowers a comparison operator through the trinary selector
// `compare_to` returns, the same way spec §4.2/§4.5 describe: Compare
// invokes compare_to and the result is a 3-arm Church selector
// (less, equal, greater) that each comparison operator reduces to a
// boolean by picking which arms answer true (spec §4.5 "comparison
// ternary selectors").
func compareOp(pool *flowgraph.Pool, op ast.BinaryOp, left, right *flowgraph.Node, span token.Span) *flowgraph.Node {
	sel := pool.Compare(left, right, span)
	t, f := pool.True(), pool.False()
	var result *flowgraph.Node
	switch op {
	case ast.OpEqual:
		result = pool.Call3(sel, f, t, f, span)
	case ast.OpNotEqual:
		result = pool.Call3(sel, t, f, t, span)
	case ast.OpLess:
		result = pool.Call3(sel, t, f, f, span)
	case ast.OpLessEqual:
		result = pool.Call3(sel, t, t, f, span)
	case ast.OpGreater:
		result = pool.Call3(sel, f, f, t, span)
	case ast.OpGreaterEqual:
		result = pool.Call3(sel, f, t, t, span)
	default:
		result = sel
	}
	return pool.PropagateInduction(result, left, right)
}

func (a *Analyzer) ifElseExpr(s *scope.Scope, n *ast.IfElse) *flowgraph.Node {
	pool := s.Pool()
	span := n.Span()
	cond := a.Expr(s, n.Condition)
	thenFn := pool.Function(a.Expr(s, n.Then), 0, "")
	elseFn := pool.Function(a.Expr(s, n.Else), 0, "")
	return pool.Call(pool.Branch(cond, thenFn, elseFn, span), nil, span)
}

func (a *Analyzer) lambdaCapture(s *scope.Scope, n *ast.LambdaCapture) *flowgraph.Node {
	span := n.Span()
	child := s.OpenLambda(span)
	if n.Param != nil {
		child.DefineParam(n.Param.Name, 0, span)
	}
	body := a.Expr(child, n.Expression)
	return child.Capture(body, span)
}

// comprehension desugars «each out [from var] in seq [where pred]» into
// core.filter/core.map calls over a single lambda scope shared by the
// predicate and the output expression (spec §4.5 "list comprehension
// lowering").
func (a *Analyzer) comprehension(s *scope.Scope, n *ast.Comprehension) *flowgraph.Node {
	pool := s.Pool()
	span := n.Span()
	result := a.Expr(s, n.Source)

	varName := "it"
	if n.From != nil {
		varName = n.From.Name
	}
	child := s.OpenLambda(span)
	child.DefineParam(varName, 0, span)

	if n.Where != nil {
		predBody := a.Expr(child, n.Where)
		predFn := child.Capture(predBody, span)
		result = pool.Call2(pool.Intrinsic(flowgraph.IntrinsicCoreFilter), result, predFn, span)
	}
	if n.Out != nil {
		outBody := a.Expr(child, n.Out)
		mapFn := child.Capture(outBody, span)
		result = pool.Call2(pool.Intrinsic(flowgraph.IntrinsicCoreMap), result, mapFn, span)
	}
	return result
}
