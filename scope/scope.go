package scope

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// Kind is the closed set of scope kinds (spec §3.4 "Scope kinds").
type Kind int

const (
	KindRootScope Kind = iota
	KindFunctionScope
	KindMethodScope
	KindObjectScope
	KindModuleScope
	KindLambdaScope
	KindIfElseScope
	KindWhileScope
	KindForScope
)

// IsClosure reports whether scopes of this kind produce an independently
// callable Function (spec §3.4 "Closure layers").
func (k Kind) IsClosure() bool {
	switch k {
	case KindFunctionScope, KindMethodScope, KindObjectScope, KindModuleScope, KindLambdaScope:
		return true
	default:
		return false
	}
}

// IsBlock reports whether scopes of this kind inline their result into the
// outer scope instead of producing a Function (spec §3.4 "Block layers").
func (k Kind) IsBlock() bool {
	switch k {
	case KindIfElseScope, KindWhileScope, KindForScope:
		return true
	default:
		return false
	}
}

// IsMemberDispatch reports whether this scope dispatches object members —
// object and module roots forbid all segment emission (spec §4.4,
// "YieldInsideMemberDispatch").
func (k Kind) IsMemberDispatch() bool {
	return k == KindObjectScope || k == KindModuleScope
}

// closureState holds the bookkeeping exclusive to closure-kind scopes: the
// growing capture arg list and parameter counter (spec §4.10).
type closureState struct {
	params       []string // declared parameter names, in order
	captured     []*flowgraph.Node
	capturedFrom []string // parallel to captured: the outer symbol name, for diagnostics
	fqName       string
}

// Scope is one lexical scope: a symbol table, the set of names ever
// defined, the set of names captured from outer context, a segment chain,
// and a reference to the outer (context) scope (spec §3.4).
type Scope struct {
	kind   Kind
	outer  *Scope
	pool   *flowgraph.Pool
	report diag.Reporter
	log    hclog.Logger

	table        map[string]*Symbol
	everDefined  map[string]bool
	fromContext  map[string]bool // names in table that originated as a context capture
	contextRebind map[string]bool // names reassigned that were captured from context
	contextRebindOrder []string   // same set, in first-reassignment order (determinism, spec §5)

	ifElse *IfElseBuilder // non-nil only for branch scopes created by StartBranch

	Segments Chain

	closure    *closureState    // non-nil only for IsClosure() scopes
	dispatcher *memberDispatcher // non-nil only for Object/Module scopes
	loop       *loopState        // non-nil only for While/For scopes

	span token.Span
}

// NewRoot creates the outermost (program or module) scope, which
// terminates lookup (spec §3.4 "Root").
func NewRoot(pool *flowgraph.Pool, report diag.Reporter, log hclog.Logger, span token.Span) *Scope {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Scope{
		kind:        KindRootScope,
		pool:        pool,
		report:      report,
		log:         log.Named("scope"),
		table:       map[string]*Symbol{},
		everDefined: map[string]bool{},
		fromContext: map[string]bool{},
		span:        span,
	}
}

// Enter creates a new child scope of kind, nested under s (spec §3.4
// "Lifecycle: created on Enter(statement)"). fqName is the fully-qualified
// name a closure scope's emitted Function should carry; it is ignored for
// block scopes.
func (s *Scope) Enter(kind Kind, fqName string, span token.Span) *Scope {
	child := &Scope{
		kind:          kind,
		outer:         s,
		pool:          s.pool,
		report:        s.report,
		log:           s.log,
		table:         map[string]*Symbol{},
		everDefined:   map[string]bool{},
		fromContext:   map[string]bool{},
		contextRebind: map[string]bool{},
		span:          span,
	}
	if kind.IsClosure() {
		child.closure = &closureState{fqName: fqName}
	}
	s.log.Trace("scope enter", "kind", kind, "name", fqName)
	return child
}

// Outer returns the context (lexically enclosing) scope, or nil for Root.
func (s *Scope) Outer() *Scope { return s.outer }

// Kind returns this scope's kind.
func (s *Scope) Kind() Kind { return s.kind }

// Pool returns the DFG pool every scope in one compilation unit shares.
func (s *Scope) Pool() *flowgraph.Pool { return s.pool }

func (s *Scope) errorf(span token.Span, kind diag.Kind, message string, args ...interface{}) {
	s.report.Report(diag.Error{Kind: kind, Message: fmt.Sprintf(message, args...), Span: span})
}

// ---- Symbol table ----------------------------------------------------

// Define creates a new binding in this scope's active table. Redefinition
// in the same scope (even across segments, since everDefined tracks the
// scope as a whole) is reported as AlreadyDefined, whatever the symbol's
// kind (spec §4.3 "Scope.define").
func (s *Scope) Define(name string, kind SymbolKind, node *flowgraph.Node, span token.Span) *Symbol {
	mangled := s.pool.MangledPrivateName(name)
	if s.everDefined[name] {
		s.errorf(span, diag.AlreadyDefined, "%q is already defined in this scope", name)
	}
	sym := &Symbol{Name: mangled, Kind: kind, Node: node}
	s.table[name] = sym
	s.everDefined[name] = true
	return sym
}

// Resolve looks up name: first the active table, then — if the name was
// defined in an earlier segment of this scope — pulled forward through the
// segment chain as a fresh Slot reference, then the outer scope's capture
// path (spec §4.3 "Scope.resolve").
func (s *Scope) Resolve(name string, span token.Span) (*Symbol, bool) {
	if sym, ok := s.table[name]; ok {
		return sym, true
	}
	if s.everDefined[name] && !s.Segments.Empty() {
		return s.pullForwardThroughSegments(name, span), true
	}
	if s.outer == nil {
		s.errorf(span, diag.Undefined, "%q is not defined", name)
		return nil, false
	}
	sym, ok := s.captureFromContext(name, span)
	return sym, ok
}

// pullForwardThroughSegments materializes a Slot reference for a name that
// was live in an earlier segment of this same scope, registering it in the
// most recent segment's pending-capture queue (spec §4.3 point 2, §3.5).
func (s *Scope) pullForwardThroughSegments(name string, span token.Span) *Symbol {
	seg := s.Segments.tail
	if prior, ok := seg.snapshot[name]; ok {
		ref := s.createLocalReference(name, prior.Node)
		seg.pending = append(seg.pending, pendingCapture{name: name, ref: ref})
		sym := &Symbol{Name: name, Kind: prior.Kind, Node: ref}
		s.table[name] = sym
		return sym
	}
	// Not actually live across the boundary (defined then never read again);
	// fall back to a void reference rather than asserting, consistent with
	// the parser's "tolerate and continue" discipline.
	sym := &Symbol{Name: name, Kind: KindVar, Node: s.pool.Void()}
	s.table[name] = sym
	return sym
}

// captureFromContext asks the outer scope to resolve name, then binds the
// result locally via createLocalReference — a Slot for closures, or a
// straight pass-through for block scopes, which don't need their own
// capture list since they inline into the same Function as their context
// (spec §4.3 point 3).
func (s *Scope) captureFromContext(name string, span token.Span) (*Symbol, bool) {
	outerSym, ok := s.outer.Resolve(name, span)
	if !ok {
		return nil, false
	}
	ref := s.createLocalReference(name, outerSym.Node)
	sym := &Symbol{Name: name, Kind: outerSym.Kind, Node: ref}
	s.table[name] = sym
	s.everDefined[name] = true
	s.fromContext[name] = true
	return sym, true
}

// createLocalReference is spec §4.10's CreateLocalReference: for a closure
// scope, a context-independent value is returned directly (no capture
// needed); otherwise the value is appended to the closure's capture list
// and a fresh Slot reference is returned. Block scopes have no capture list
// of their own — they are not independently callable — so they pass the
// outer value through unchanged; the nearest enclosing closure is the one
// that actually captures it, the next time that closure's own
// captureFromContext walks past this block scope. While/For scopes are the
// one exception: they compile their condition and body into their own
// separate Functions, so a captured free variable gets a Placeholder
// instead, deferring the invariant-vs-update decision to loop Exit (spec
// §4.8 point 1).
func (s *Scope) createLocalReference(name string, value *flowgraph.Node) *flowgraph.Node {
	if s.loop != nil {
		return s.loop.placeholderFor(s.pool, name, value)
	}
	if !s.kind.IsClosure() {
		return value
	}
	if value.IsConstant() {
		return value
	}
	idx := len(s.closure.captured)
	s.closure.captured = append(s.closure.captured, value)
	s.closure.capturedFrom = append(s.closure.capturedFrom, name)
	return s.pool.Slot(idx)
}

// Assign updates an existing binding. Closures cannot rebind outer
// variables (ContextVarRedefinition); assigning a name captured from
// context records it in the current scope's rebind set so block scopes
// can propagate the new value to the outer scope on Exit (spec §4.3
// "Scope.assign").
func (s *Scope) Assign(name string, value *flowgraph.Node, span token.Span) {
	sym, ok := s.table[name]
	if !ok {
		if s.outer == nil {
			s.errorf(span, diag.Undefined, "%q is not defined", name)
			return
		}
		if s.kind.IsClosure() {
			s.errorf(span, diag.ContextVarRedefinition, "closures cannot rebind the outer variable %q", name)
			return
		}
		if _, ok := s.Resolve(name, span); !ok {
			return
		}
		sym = s.table[name]
	}
	if s.fromContext[name] {
		if s.kind.IsClosure() {
			s.errorf(span, diag.ContextVarRedefinition, "closures cannot rebind the outer variable %q", name)
			return
		}
		s.markRebindOnce(name)
	}
	if !sym.writable() {
		s.errorf(span, sym.Kind.redefinitionKind(), "cannot assign to %s %q", sym.Kind, name)
		return
	}
	sym.Node = value
	s.table[name] = sym
}

// RebindInContext pushes every name in contextRebind up into the outer
// scope with its latest value. The if/else and loop scopes do not call it:
// their Finish and FinishLoop assign the folded results to the outer scope
// directly.
func (s *Scope) RebindInContext(span token.Span) {
	if s.outer == nil {
		return
	}
	for name := range s.contextRebind {
		if sym, ok := s.table[name]; ok {
			s.outer.Assign(name, sym.Node, span)
		}
	}
}

// RebindNames returns the names this scope reassigned that originated in
// an outer context, in first-reassignment order — the phi set a block
// scope's Exit must distribute back into the outer scope (spec §4.7 point
// 1, §4.8, §4.9). Order is deterministic (spec §5) rather than map order.
func (s *Scope) RebindNames() []string {
	out := make([]string, len(s.contextRebindOrder))
	copy(out, s.contextRebindOrder)
	return out
}

// markRebindOnce records that name was reassigned, appending to the
// deterministic discovery order only the first time.
func (s *Scope) markRebindOnce(name string) {
	if s.contextRebind[name] {
		return
	}
	s.contextRebind[name] = true
	s.contextRebindOrder = append(s.contextRebindOrder, name)
}

// MarkRebind records that name (already resolved in this scope) was
// reassigned, without requiring a full Assign call. Nothing in this module
// calls it.
func (s *Scope) MarkRebind(name string) { s.markRebindOnce(name) }

// ---- Segments ---------------------------------------------------------

// PushSegment suspends the current evaluation context: it appends a
// segment carrying the active table and the yielded expression, then
// clears the active table (spec §4.4 "PushSegment"). typ must be
// compatible with every segment already pushed in this scope, and this
// scope must not be a member-dispatch scope.
func (s *Scope) PushSegment(value *flowgraph.Node, typ SegmentType, span token.Span) {
	if s.kind.IsMemberDispatch() {
		s.errorf(span, diag.YieldInsideMemberDispatch, "cannot suspend inside an object/module body")
		return
	}
	if !s.Segments.Compatible(typ) {
		if typ.isSyncLike() {
			s.errorf(span, diag.SyncInsideGenerator, "cannot use 'sync' inside a generator")
		} else {
			s.errorf(span, diag.YieldInsideAsyncTask, "cannot 'yield' inside an async task")
		}
		return
	}
	s.Segments.push(typ, value, s.table, span)
	s.table = map[string]*Symbol{}
}

// ---- Closures -----------------------------------------------------------

// DefineParam binds parameter index as a Var in a closure scope (spec
// §4.10).
func (s *Scope) DefineParam(name string, index int, span token.Span) {
	s.closure.params = append(s.closure.params, name)
	s.Define(name, KindVar, s.pool.Parameter(index), span)
}

// Capture wraps result in a Function node named after this closure's
// fully-qualified name, then in a Capture operation if the capture list is
// non-empty (spec §4.10 "Closure Capture(result)").
func (s *Scope) Capture(result *flowgraph.Node, span token.Span) *flowgraph.Node {
	fn := s.pool.Function(result, len(s.closure.params), s.closure.fqName)
	return s.pool.Capture(fn, s.closure.captured, span)
}

// CapturedValues returns the outer-scope values this closure captured, in
// capture order — the argument list the caller's Capture operation needs.
func (s *Scope) CapturedValues() []*flowgraph.Node {
	return s.closure.captured
}
