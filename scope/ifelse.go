package scope

import (
	"sort"

	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// IfElseBuilder coordinates the chain of Branch layers an if/else
// statement sequence builds (spec §4.7). The statement analyzer owns one
// per if/else statement: it calls StartBranch for the initial `if`, then
// PartitionElse (via the returned branch Scope) for each `else`/`else if`,
// and Finish once the chain's final `end` is reached.
type IfElseBuilder struct {
	outer    *Scope
	span     token.Span
	branches []*ifBranch
	hasFinal bool
}

type ifBranch struct {
	condition *flowgraph.Node // nil: default/terminal else
	scope     *Scope
}

// NewIfElse starts a new if/else chain rooted at outer.
func NewIfElse(outer *Scope, span token.Span) *IfElseBuilder {
	return &IfElseBuilder{outer: outer, span: span}
}

// StartBranch opens a new Branch layer guarded by condition (nil for the
// terminal else) and returns its independent scope (spec §4.7).
func (b *IfElseBuilder) StartBranch(condition *flowgraph.Node, span token.Span) *Scope {
	child := b.outer.Enter(KindIfElseScope, "", span)
	child.ifElse = b
	b.branches = append(b.branches, &ifBranch{condition: condition, scope: child})
	if condition == nil {
		b.hasFinal = true
	}
	return child
}

// FinishIfElse folds this branch's if/else chain; exposed through Scope so
// the statement analyzer can close a block uniformly without reaching
// into the unexported ifElse field itself.
func (s *Scope) FinishIfElse(span token.Span) *flowgraph.Node {
	return s.ifElse.Finish(span)
}

// PartitionElse forks a new Branch off the current one (spec §4.6 "else
// calls PartitionElse on the current scope"). It is exposed through Scope
// so the statement analyzer can call it uniformly on "the current scope"
// regardless of kind; every scope that isn't part of an if/else chain
// rejects it.
func (s *Scope) PartitionElse(condition *flowgraph.Node, span token.Span) (*Scope, bool) {
	if s.ifElse == nil {
		s.errorf(span, diag.ElseStatementOutsideIfBlock, "'else' outside an 'if' block")
		return s, false
	}
	if s.ifElse.hasFinal {
		s.errorf(span, diag.ElseStatementAfterFinal, "'else' after a final, unconditional 'else'")
		return s, false
	}
	return s.ifElse.StartBranch(condition, span), true
}

// Finish folds the branch chain into a single Church-encoded Branch tree
// and applies its result to the outer scope (spec §4.7 steps 1-5). A
// branch that should contribute a value to an enclosing expression (rather
// than only reassigning outer variables) does so by assigning it to
// ResultVar before Finish is called, exactly like a closure's own
// :result — Finish does not need to know whether the if/else is being used
// as a statement or an expression.
func (b *IfElseBuilder) Finish(span token.Span) *flowgraph.Node {
	pool := b.outer.pool

	// Step 1: union of every name any branch reassigned, in deterministic
	// (alphabetical) order.
	seen := map[string]bool{}
	var names []string
	for _, br := range b.branches {
		for _, n := range br.scope.RebindNames() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names) // canonical order across independently-discovered branches

	// If there is no terminal else, synthesize one that passes the input
	// tuple through unchanged (spec §8 boundary behavior).
	if !b.hasFinal {
		b.StartBranch(nil, span)
	}

	// Step 2: each branch builds an output tuple in canonical `names`
	// order, wrapped in a 1-parameter Function over the original tuple.
	originals := make([]*flowgraph.Node, len(names))
	for i, n := range names {
		sym, ok := b.outer.Resolve(n, span)
		if ok {
			originals[i] = sym.Node
		} else {
			originals[i] = pool.Void()
		}
	}

	var branchFns []*flowgraph.Node
	for _, br := range b.branches {
		out := make([]*flowgraph.Node, len(names))
		for j, n := range names {
			if sym, ok := br.scope.table[n]; ok {
				out[j] = sym.Node
			} else {
				out[j] = pool.Parameter(0) // unchanged: read straight from the input tuple slot
			}
		}
		var body *flowgraph.Node
		if len(names) == 0 {
			body = pool.Void()
		} else {
			body = pool.Tuple(fixupUnchanged(pool, out, span), span)
		}
		branchFns = append(branchFns, pool.Function(body, 1, ""))
	}

	// Step 3: fold right-to-left with Branch(condition, thisFn, elseFn).
	var action *flowgraph.Node = branchFns[len(branchFns)-1]
	for i := len(b.branches) - 2; i >= 0; i-- {
		action = pool.Branch(b.branches[i].condition, branchFns[i], action, span)
	}

	// Step 4: invoke with the initial-value tuple and destructure into
	// outer-scope reassignments.
	inputTuple := pool.Tuple(originals, span)
	invocation := pool.Call1(action, inputTuple, span)
	for i, n := range names {
		val := pool.Call1(invocation, pool.Symbol(indexSymbol(i)), span)
		b.outer.Assign(n, val, span)
	}
	return invocation
}

// fixupUnchanged rewrites a per-field "unchanged" placeholder (a bare
// pool.Parameter(0), meaning "read field i back out of the input tuple")
// into the actual tuple-index expression, now that we know each field's
// position.
func fixupUnchanged(pool *flowgraph.Pool, fields []*flowgraph.Node, span token.Span) []*flowgraph.Node {
	out := make([]*flowgraph.Node, len(fields))
	for i, f := range fields {
		if f == pool.Parameter(0) {
			out[i] = pool.Call1(pool.Parameter(0), pool.Symbol(indexSymbol(i)), span)
		} else {
			out[i] = f
		}
	}
	return out
}

// indexSymbol names the tuple-field accessor symbol for position i
// (core.map and make_tuple's runtime counterpart both dispatch on these).
func indexSymbol(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	// Fall back to a decimal rendering for arities beyond single digits;
	// tuples this wide are vanishingly rare in practice.
	s := ""
	for i > 0 {
		s = string(digits[i%10]) + s
		i /= 10
	}
	return s
}
