package analyzer

import (
	"strconv"

	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/scope"
	"github.com/marssaxman/radian/token"
)

// blockTag distinguishes the open-block stack frames the statement
// analyzer maintains across a flat statement sequence (spec §4.6): one
// frame per unclosed function/method/object/module/if/while/for, matched
// against the balancer's already-resolved BlockEnd.Name.
type blockTag int

const (
	blockFunction blockTag = iota
	blockMethod
	blockObject
	blockModule
	blockIf
	blockWhile
	blockFor
)

// frame is one entry of the statement analyzer's open-block stack. cond
// and seq hold the While/For loop's already-analyzed guard/source
// expressions, captured once at block entry so FinishLoop can fold them in
// at the matching `end` (spec §4.8, §4.9).
type frame struct {
	tag   blockTag
	name  string
	scope *scope.Scope
	cond  *flowgraph.Node
	seq   *flowgraph.Node
}

// Run lowers a flat, already-balanced statement sequence against root,
// walking the block-opener/BlockEnd pairs the balancer guarantees are
// matched (spec §4.6 "the statement analyzer maintains a stack of open
// blocks"). It returns the scope statements after the last BlockEnd
// execute in — ordinarily root itself, once every block has closed.
func (a *Analyzer) Run(root *scope.Scope, stmts []ast.Statement) *scope.Scope {
	cur := root
	var stack []*frame

	for _, stmt := range stmts {
		switch st := stmt.(type) {
		case *ast.Blank:
			// line-number bookkeeping only
		case *ast.Assertion:
			a.assertStmt(cur, st)
		case *ast.DebugTrace:
			a.debugTrace(cur, st)
		case *ast.Assignment:
			a.assignment(cur, st)
		case *ast.Mutation:
			a.mutation(cur, st)
		case *ast.Sync:
			a.syncStmt(cur, st)
		case *ast.Yield:
			a.yieldStmt(cur, st)
		case *ast.Declaration:
			if next, f := a.declaration(cur, st); f != nil {
				stack = append(stack, f)
				cur = next
			}
		case *ast.IfThen:
			b := scope.NewIfElse(cur, st.Span())
			branch := b.StartBranch(a.Expr(cur, st.Condition), st.Span())
			stack = append(stack, &frame{tag: blockIf, name: "if", scope: branch})
			cur = branch
		case *ast.Else:
			var cond *flowgraph.Node
			if st.Condition != nil {
				cond = a.Expr(cur, st.Condition)
			}
			next, ok := cur.PartitionElse(cond, st.Span())
			if ok {
				stack[len(stack)-1].scope = next
				cur = next
			}
		case *ast.While:
			child := cur.OpenWhile(st.Span())
			cond := a.Expr(child, st.Condition)
			stack = append(stack, &frame{tag: blockWhile, name: "while", scope: child, cond: cond})
			cur = child
		case *ast.For:
			seq := a.Expr(cur, st.Sequence)
			child := cur.OpenFor(st.Variable.Name, seq, st.Span())
			cond := child.IsValidCondition(st.Span())
			stack = append(stack, &frame{tag: blockFor, name: "for", scope: child, cond: cond, seq: seq})
			cur = child
		case *ast.BlockEnd:
			if len(stack) == 0 {
				a.errorf(st.Span(), diag.InternalInvariantViolation, "analyzer: end with no open block")
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cur = a.closeBlock(top, st.Span())
		default:
			a.errorf(stmt.Span(), diag.InternalInvariantViolation, "analyzer: unhandled statement node")
		}
	}
	return cur
}

// closeBlock folds one open block's contribution into its outer scope and
// returns the scope execution continues in.
func (a *Analyzer) closeBlock(f *frame, span token.Span) *scope.Scope {
	switch f.tag {
	case blockIf:
		f.scope.FinishIfElse(span)
		return f.scope.Outer()
	case blockWhile:
		f.scope.FinishLoop(f.cond, nil, span)
		return f.scope.Outer()
	case blockFor:
		f.scope.AdvanceIterator(span)
		f.scope.FinishLoop(f.cond, f.seq, span)
		return f.scope.Outer()
	default:
		return a.closeClosure(f, span)
	}
}

// closeClosure folds a Function/Method/Object/Module scope's body into a
// callable value and binds it in the outer scope under its declared name,
// adding it to the outer object's member dispatcher too when the
// declaration sits directly inside one (spec §4.10, §4.11).
func (a *Analyzer) closeClosure(f *frame, span token.Span) *scope.Scope {
	child := f.scope
	pool := child.Pool()
	outer := child.Outer()

	var value *flowgraph.Node
	switch f.tag {
	case blockFunction:
		value = child.Capture(a.closureResult(child, scope.ResultVar, span), span)
	case blockMethod:
		value = child.Capture(a.closureResult(child, scope.SelfVar, span), span)
	case blockObject, blockModule:
		value = child.BuildDispatcher(span)
	}
	if value == nil {
		value = pool.Void()
	}

	outer.Define(f.name, scope.KindFunction, value, span)
	if outer.Kind().IsMemberDispatch() {
		outer.AddMember(f.name, scope.KindFunction, value, span)
	}
	return outer
}

// closureResult resolves resultVar (":result" for Function, "self" for
// Method), chains the scope's accumulated assertions onto it, and — when
// the body suspended at least once — packages the segment chain into its
// iterator/action constructor shape before the closure captures it (spec
// §4.4 "PackageSegmentedResult", §4.10).
func (a *Analyzer) closureResult(child *scope.Scope, resultVar string, span token.Span) *flowgraph.Node {
	pool := child.Pool()
	result := pool.Void()
	if sym, ok := child.Resolve(resultVar, span); ok {
		result = sym.Node
	}
	result = child.ChainAssertions(result, span)
	if !child.Segments.Empty() {
		result = child.Segments.Package(pool, result, span)
	}
	return result
}

// declaration lowers a var/def/function/method/object/import statement.
// Function/Method/Object declarations open a new block and return the
// frame the caller should push; Var/Def/Import return (cur, nil).
func (a *Analyzer) declaration(s *scope.Scope, n *ast.Declaration) (*scope.Scope, *frame) {
	pool := s.Pool()
	span := n.Span()
	switch n.Kind {
	case ast.DeclVar:
		value := a.Expr(s, n.Value)
		s.Define(n.Name, scope.KindVar, value, span)
		if s.Kind().IsMemberDispatch() {
			s.AddMember(n.Name, scope.KindVar, value, span)
		}
		return s, nil
	case ast.DeclDef:
		value := a.Expr(s, n.Value)
		s.Define(n.Name, scope.KindDef, value, span)
		if s.Kind().IsMemberDispatch() {
			s.AddMember(n.Name, scope.KindDef, value, span)
		}
		return s, nil
	case ast.DeclImport:
		dir := ""
		if lit, ok := n.Value.(*ast.Literal); ok {
			dir = lit.Text
		} else if _, ok := n.Value.(*ast.Identifier); !ok && n.Value != nil {
			a.errorf(span, diag.ImportSourceMustBeIdentifier, "import source must be an identifier")
		}
		value := pool.Import(n.Name, dir, span)
		s.Define(n.Name, scope.KindImport, value, span)
		return s, nil
	case ast.DeclFunction:
		params := paramNames(n.Params)
		child := s.OpenFunction(n.Name, params, span)
		return child, &frame{tag: blockFunction, name: n.Name, scope: child}
	case ast.DeclMethod:
		params := paramNames(n.Params)
		child := s.OpenMethod(n.Name, params, span)
		return child, &frame{tag: blockMethod, name: n.Name, scope: child}
	case ast.DeclObject:
		// There is no separate "module" declaration keyword; a source
		// unit's top-level module scope is opened once by the engine via
		// Scope.OpenModule before Run starts (spec §4.10, §6). Every
		// `object` statement Run itself encounters nests a plain object.
		child := s.OpenObject(n.Name, span)
		return child, &frame{tag: blockObject, name: n.Name, scope: child}
	default:
		a.errorf(span, diag.InternalInvariantViolation, "analyzer: unhandled declaration kind")
		return s, nil
	}
}

func paramNames(params []*ast.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

// assertStmt chains a new Assert(condition, :false_assertion) onto the
// nearest enclosing :assert variable, left-nested so the earliest failing
// assertion in program order is the one Chain surfaces (spec §4.5, last
// paragraph).
func (a *Analyzer) assertStmt(s *scope.Scope, n *ast.Assertion) {
	pool := s.Pool()
	span := n.Span()
	cond := a.Expr(s, n.Condition)
	sym, ok := s.Resolve(scope.AssertVar, span)
	if !ok {
		return
	}
	assertNode := pool.Assert(cond, pool.Symbol("false_assertion"), span)
	s.Assign(scope.AssertVar, pool.Chain(sym.Node, assertNode, span), span)
}

// debugTrace sequences a debug_trace intrinsic call ahead of the
// accumulated assert chain without altering its value, the same Chain
// trick assertStmt relies on to force evaluation order in a pure DFG. The
// intrinsic's second argument is the statement's own "path:line" text so
// the runtime can print it alongside the traced value.
func (a *Analyzer) debugTrace(s *scope.Scope, n *ast.DebugTrace) {
	pool := s.Pool()
	span := n.Span()
	val := a.Expr(s, n.Value)
	loc := pool.String(span.Start.Path + ":" + strconv.Itoa(span.Start.Line))
	traceCall := pool.Call2(pool.Intrinsic(flowgraph.IntrinsicDebugTrace), val, loc, span)
	sym, ok := s.Resolve(scope.AssertVar, span)
	if !ok {
		return
	}
	s.Assign(scope.AssertVar, pool.Chain(traceCall, sym.Node, span), span)
}

func (a *Analyzer) syncStmt(s *scope.Scope, n *ast.Sync) {
	pool := s.Pool()
	span := n.Span()
	val := pool.Void()
	if n.Value != nil {
		val = a.Expr(s, n.Value)
	}
	s.PushSegment(val, scope.SegmentSync, span)
}

func (a *Analyzer) yieldStmt(s *scope.Scope, n *ast.Yield) {
	val := a.Expr(s, n.Value)
	typ := scope.SegmentYield
	if n.From {
		typ = scope.SegmentYieldFrom
	}
	s.PushSegment(val, typ, n.Span())
}

// assignment lowers «targets = value» (spec §4.6). A single target binds
// directly; multiple targets destructure value the same way nested tuple
// targets do, via iterate/current/next (spec §4.5 "comprehension
// lowering" shares this same iteration-protocol idiom).
func (a *Analyzer) assignment(s *scope.Scope, n *ast.Assignment) {
	pool := s.Pool()
	span := n.Span()
	value := a.Expr(s, n.Value)
	if len(n.Targets) == 1 {
		a.assignTarget(s, n.Targets[0], value, span)
		return
	}
	iter := methodCall(pool, value, "iterate", nil, span)
	for _, t := range n.Targets {
		cur := methodCall(pool, iter, "current", nil, span)
		a.assignTarget(s, t, cur, span)
		iter = methodCall(pool, iter, "next", nil, span)
	}
}

func (a *Analyzer) assignTarget(s *scope.Scope, t *ast.AssignTarget, value *flowgraph.Node, span token.Span) {
	pool := s.Pool()
	if len(t.Tuple) > 0 {
		iter := methodCall(pool, value, "iterate", nil, span)
		for _, sub := range t.Tuple {
			cur := methodCall(pool, iter, "current", nil, span)
			a.assignTarget(s, sub, cur, span)
			iter = methodCall(pool, iter, "next", nil, span)
		}
		return
	}
	if len(t.Members) == 0 && t.Subscript == nil {
		s.Assign(t.Name, value, span)
		return
	}
	a.assignPath(s, t, value, span)
}

// assignPath lowers «name->m1->m2[sub] = value»: the same getter/setter
// message-send chain the member dispatcher itself builds (spec §4.11),
// walked down to find the leaf's current value and rebuilt bottom-up with
// value spliced in at the end, finally reassigning the base name.
func (a *Analyzer) assignPath(s *scope.Scope, t *ast.AssignTarget, value *flowgraph.Node, span token.Span) {
	pool := s.Pool()
	sym, ok := s.Resolve(t.Name, span)
	base := pool.Void()
	if ok {
		base = sym.Node
	}
	var build func(depth int, obj *flowgraph.Node) *flowgraph.Node
	build = func(depth int, obj *flowgraph.Node) *flowgraph.Node {
		if depth == len(t.Members) {
			if t.Subscript != nil {
				idx := a.Expr(s, t.Subscript)
				return methodCall(pool, obj, "set", []*flowgraph.Node{idx, value}, span)
			}
			return value
		}
		name := t.Members[depth]
		fieldCur := methodCall(pool, obj, name, nil, span)
		newField := build(depth+1, fieldCur)
		return methodCall(pool, obj, name+"=", []*flowgraph.Node{newField}, span)
	}
	s.Assign(t.Name, build(0, base), span)
}

// mutation lowers «target->method(args)» used as a full statement: compute
// the method's result against the target's current value, then write it
// back through the same getter/setter path assignPath uses (spec §4.6,
// §4.11).
func (a *Analyzer) mutation(s *scope.Scope, n *ast.Mutation) {
	pool := s.Pool()
	span := n.Span()
	var args []*flowgraph.Node
	if n.Arguments != nil {
		args = a.exprList(s, n.Arguments.Values)
	}
	compute := func(cur *flowgraph.Node) *flowgraph.Node {
		return methodCall(pool, cur, n.Method, args, span)
	}
	a.mutatePath(s, n.Target, compute, span)
}

// mutatePath recurses down target, locating the mutable leaf, applies
// compute to its current value, and rewrites the path's setters bottom-up
// (shared by mutation statements; assignPath is its "just overwrite"
// specialization for plain assignment targets).
func (a *Analyzer) mutatePath(s *scope.Scope, target ast.Expression, compute func(*flowgraph.Node) *flowgraph.Node, span token.Span) {
	pool := s.Pool()
	switch t := target.(type) {
	case *ast.Identifier:
		sym, ok := s.Resolve(t.Name, span)
		cur := pool.Void()
		if ok {
			cur = sym.Node
		}
		s.Assign(t.Name, compute(cur), span)
	case *ast.Member:
		a.mutatePath(s, t.Object, func(objCur *flowgraph.Node) *flowgraph.Node {
			fieldCur := methodCall(pool, objCur, t.Name, nil, span)
			return methodCall(pool, objCur, t.Name+"=", []*flowgraph.Node{compute(fieldCur)}, span)
		}, span)
	case *ast.Lookup:
		a.mutatePath(s, t.Object, func(objCur *flowgraph.Node) *flowgraph.Node {
			idx := a.Expr(s, t.Index)
			fieldCur := pool.Call1(objCur, idx, span)
			return methodCall(pool, objCur, "set", []*flowgraph.Node{idx, compute(fieldCur)}, span)
		}, span)
	default:
		a.errorf(target.Span(), diag.InternalInvariantViolation, "analyzer: invalid mutation target")
	}
}
