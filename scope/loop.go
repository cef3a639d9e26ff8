package scope

import (
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// loopState tracks the free variables a While/For scope's condition and
// body reference, each given a Placeholder on first reference so the
// invariant-vs-update decision can wait until the whole loop body has been
// analyzed (spec §4.8 point 1).
type loopState struct {
	placeholders map[string]*flowgraph.Node
	originals    map[string]*flowgraph.Node
	order        []string // first-reference order, deterministic (spec §5)

	iterName string // non-empty only for For scopes: the outer-scope iterator variable name
	loopVar  string // the bound loop variable's name, for the specializer's DFS
}

func newLoopState() *loopState {
	return &loopState{
		placeholders: map[string]*flowgraph.Node{},
		originals:    map[string]*flowgraph.Node{},
	}
}

func (ls *loopState) placeholderFor(pool *flowgraph.Pool, name string, original *flowgraph.Node) *flowgraph.Node {
	if ph, ok := ls.placeholders[name]; ok {
		return ph
	}
	idx := len(ls.order)
	ph := pool.Placeholder(idx)
	ls.placeholders[name] = ph
	ls.originals[name] = original
	ls.order = append(ls.order, name)
	return ph
}

// OpenWhile enters a new While block scope (spec §4.8).
func (s *Scope) OpenWhile(span token.Span) *Scope {
	child := s.Enter(KindWhileScope, "", span)
	child.loop = newLoopState()
	return child
}

// OpenFor enters a new For block scope, defining the iterator variable in
// the outer scope and the Inductor-marked loop variable in the body (spec
// §4.9 points 1-2). seq is the already-analyzed source-sequence expression.
func (s *Scope) OpenFor(loopVar string, seq *flowgraph.Node, span token.Span) *Scope {
	pool := s.pool
	iterName := pool.UniqueName(":iter")
	iterInit := pool.Call1(seq, pool.Symbol("iterate"), span)
	s.Define(iterName, KindVar, iterInit, span)

	child := s.Enter(KindForScope, "", span)
	child.loop = newLoopState()
	child.loop.iterName = iterName
	child.loop.loopVar = loopVar

	iterSym, _ := child.Resolve(iterName, span) // immediately captured as a placeholder
	current := pool.Call1(iterSym.Node, pool.Symbol("current"), span)
	child.Define(loopVar, KindVar, pool.Inductor(current), span)
	return child
}

// AdvanceIterator reassigns the for loop's iterator variable to its own
// `next()`, which Assign records as a context update (spec §4.9 point 3).
// The statement analyzer calls this once it has analyzed the loop body's
// statements, immediately before FinishLoop.
func (s *Scope) AdvanceIterator(span token.Span) {
	pool := s.pool
	sym, ok := s.Resolve(s.loop.iterName, span)
	if !ok {
		return
	}
	next := pool.Call1(sym.Node, pool.Symbol("next"), span)
	s.Assign(s.loop.iterName, next, span)
}

// IsValidCondition builds `iter.is_valid()`, the implicit condition of a
// for loop (spec §4.9 point 4).
func (s *Scope) IsValidCondition(span token.Span) *flowgraph.Node {
	pool := s.pool
	sym, ok := s.Resolve(s.loop.iterName, span)
	if !ok {
		return pool.False()
	}
	return pool.Call1(sym.Node, pool.Symbol("is_valid"), span)
}

// indexSymbolFor is an unexported alias of ifelse.go's tuple-index symbol
// helper, used within loop.go; loop.go and ifelse.go share the same
// "make_tuple/get positional field" convention.
func indexSymbolFor(i int) string { return indexSymbol(i) }

// FinishLoop folds a While/For scope's analyzed condition and the body
// statements' accumulated reassignments into a single Loop invocation (or
// its segmented equivalent), and destructures the result back into the
// outer scope (spec §4.8 points 2-4). seq, when non-nil, is the for loop's
// original (pre-parallelization) source sequence — passing it triggers the
// loop specializer (spec §4.9); while loops pass nil. condition is the
// already-analyzed loop guard expression (the While statement's condition,
// or the For loop's implicit `iter.is_valid()` from IsValidCondition).
func (s *Scope) FinishLoop(condition, seq *flowgraph.Node, span token.Span) *flowgraph.Node {
	pool := s.pool

	rebound := map[string]bool{}
	for _, n := range s.RebindNames() {
		rebound[n] = true
	}

	var invariantNames, updateNames []string
	for _, n := range s.loop.order {
		if rebound[n] {
			updateNames = append(updateNames, n)
		} else {
			invariantNames = append(invariantNames, n)
		}
	}

	bodyValues := make([]*flowgraph.Node, len(updateNames))
	for i, n := range updateNames {
		if sym, ok := s.table[n]; ok {
			bodyValues[i] = sym.Node
		} else {
			bodyValues[i] = pool.Void()
		}
	}
	var body *flowgraph.Node
	if len(updateNames) == 0 {
		body = pool.Void()
	} else {
		body = pool.Tuple(bodyValues, span)
	}

	if seq != nil {
		var mappedSeq *flowgraph.Node
		condition, body, mappedSeq = s.specializeFor(condition, body, seq, span)
		if mappedSeq != seq {
			// The iterator the body reads through was seeded from the
			// original sequence before specialization ran; repoint it at
			// the parallelized/mapped one before the start tuple is built.
			newIterInit := pool.Call1(mappedSeq, pool.Symbol("iterate"), span)
			s.outer.Assign(s.loop.iterName, newIterInit, span)
		}
	}

	replace := map[*flowgraph.Node]*flowgraph.Node{}
	slotValues := make([]*flowgraph.Node, len(invariantNames))
	for i, n := range invariantNames {
		replace[s.loop.placeholders[n]] = pool.Slot(i)
		slotValues[i] = s.loop.originals[n]
	}
	paramTuple := pool.Parameter(0)
	for i, n := range updateNames {
		replace[s.loop.placeholders[n]] = pool.Call1(paramTuple, pool.Symbol(indexSymbolFor(i)), span)
	}

	cond := pool.Substitute(condition, replace)
	if ph, ok := s.loop.placeholders[AssertVar]; ok {
		// The body mutated :assert (an assert statement ran inside the
		// loop); reading it back the same way an update variable reads the
		// io-tuple makes the first failed assertion terminate the loop
		// (spec §4.8 point 3).
		cond = pool.Chain(replace[ph], cond, span)
	}
	op := pool.Substitute(body, replace)

	condFn := pool.Capture(pool.Function(cond, 1, ""), slotValues, span)
	opFn := pool.Capture(pool.Function(op, 1, ""), slotValues, span)

	startValues := make([]*flowgraph.Node, len(updateNames))
	for i, n := range updateNames {
		if sym, ok := s.outer.Resolve(n, span); ok {
			startValues[i] = sym.Node
		} else {
			startValues[i] = pool.Void()
		}
	}
	startTuple := pool.Tuple(startValues, span)

	var result *flowgraph.Node
	switch {
	case s.Segments.Empty():
		result = pool.Call1(pool.Loop(condFn, opFn, span), startTuple, span)
	case s.kind == KindForScope:
		result = pool.Call3(pool.Intrinsic(flowgraph.IntrinsicLoopSequencer), startTuple, condFn, opFn, span)
	default:
		result = pool.Call3(pool.Intrinsic(flowgraph.IntrinsicLoopTask), startTuple, condFn, opFn, span)
	}

	for i, n := range updateNames {
		val := pool.Call1(result, pool.Symbol(indexSymbolFor(i)), span)
		s.outer.Assign(n, val, span)
	}
	return result
}

// specializeFor implements the loop specializer (spec §4.9, second half): a
// depth-first walk of the analyzed body collecting every node flagged
// IsInductionVar (other than the bare prime inductor itself), hoisting
// those subexpressions into a single mapper Function invoked through
// core.map over a parallelized copy of the source sequence.
func (s *Scope) specializeFor(condition, body, seq *flowgraph.Node, span token.Span) (*flowgraph.Node, *flowgraph.Node, *flowgraph.Node) {
	pool := s.pool
	primeVar := s.table[s.loop.loopVar]
	var prime *flowgraph.Node
	if primeVar != nil {
		prime = primeVar.Node
	}

	var mappable []*flowgraph.Node
	seen := map[*flowgraph.Node]bool{}
	var walk func(n *flowgraph.Node)
	walk = func(n *flowgraph.Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if n.IsInductionVar() && n != prime {
			mappable = append(mappable, n)
			return // don't descend into an already-hoisted subexpression's operands
		}
		switch n.Kind {
		case flowgraph.KindOperation:
			walk(n.Left)
			walk(n.Right)
		case flowgraph.KindFunction:
			walk(n.Body)
		case flowgraph.KindInductor:
			walk(n.Wraps)
		}
	}
	walk(body)

	if len(mappable) == 0 {
		return condition, body, pool.Call1(pool.Intrinsic(flowgraph.IntrinsicParallelize), seq, span)
	}

	// The mapper function reads each hoisted expression from its own
	// parameter (the original per-element value).
	mapperReplace := map[*flowgraph.Node]*flowgraph.Node{}
	// Once mapping runs ahead of time, `iter.current()` yields the
	// precomputed result directly — the body's own references to the
	// hoisted expressions become reads of that same value (spec §4.9,
	// "the body's references to the mappable expressions are rewritten to
	// tuple lookups of iter.current()").
	bodyReplace := map[*flowgraph.Node]*flowgraph.Node{}
	current := prime.Wraps

	var mapperBody *flowgraph.Node
	if len(mappable) == 1 {
		mapperReplace[mappable[0]] = pool.Parameter(0)
		mapperBody = mappable[0]
		bodyReplace[mappable[0]] = current
	} else {
		fields := make([]*flowgraph.Node, len(mappable))
		for i, m := range mappable {
			fields[i] = m
			mapperReplace[m] = pool.Call1(pool.Parameter(0), pool.Symbol(indexSymbolFor(i)), span)
			bodyReplace[m] = pool.Call1(current, pool.Symbol(indexSymbolFor(i)), span)
		}
		mapperBody = pool.Tuple(fields, span)
	}
	mapper := pool.Function(pool.Substitute(mapperBody, mapperReplace), 1, "")

	parallelSeq := pool.Call1(pool.Intrinsic(flowgraph.IntrinsicParallelize), seq, span)
	mappedSeq := pool.Call2(pool.Intrinsic(flowgraph.IntrinsicCoreMap), parallelSeq, mapper, span)

	newBody := pool.Substitute(body, bodyReplace)
	return condition, newBody, mappedSeq
}
