package scope

import (
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// member is one entry an object/module scope has queued for its dispatcher.
type member struct {
	name  string
	kind  SymbolKind
	value *flowgraph.Node
}

// memberDispatcher accumulates an object/module's declared members and, on
// Build, synthesizes the DFG object described by spec §4.11: a value
// function that takes a key parameter and returns the matching member.
//
// Wrapping rules (spec §4.11):
//   - Var members get an additional setter bound to the mangled "name="
//     symbol, which rebuilds the internal map with the new value;
//   - Def/Var values are wrapped in a trivial getter so calling the member
//     as a function yields its value;
//   - Function members are inserted directly;
//   - a wildcard symbol returns the raw internal map, which is how setters
//     open the object for rebuild.
type memberDispatcher struct {
	members []member
}

func newDispatcher() *memberDispatcher { return &memberDispatcher{} }

// AddMember queues a declared member for dispatch (spec §4.10 "Objects add
// declared members to a member dispatcher").
func (s *Scope) AddMember(name string, kind SymbolKind, value *flowgraph.Node, span token.Span) {
	if s.dispatcher == nil {
		s.errorf(span, diag.DirectMemberReference, "members can only be declared inside an object or module body")
		return
	}
	for _, m := range s.dispatcher.members {
		if m.name == name {
			s.errorf(span, KindMember.redefinitionKind(), "member %q is already declared", name)
			return
		}
	}
	s.dispatcher.members = append(s.dispatcher.members, member{name: name, kind: kind, value: value})
}

// wildcardKey is the dispatcher's internal "give me the raw map" symbol,
// never reachable from user source (spec §4.11 "a special wildcard symbol
// returns the raw internal map").
const wildcardKey = "\x00wildcard"

// BuildDispatcher synthesizes the member-dispatch object function plus its
// standard getter/setter. Only the finished object is cached in the pool's
// scratch pad, under the scope's fully qualified name, so each object's
// dispatcher is built at most once per compilation unit; the getter and
// setter are not cached on their own, though the pool's hash-consing shares
// identical nodes (spec §4.11, last paragraph). key is a fresh Parameter(0) reference used as the dispatch
// function's own parameter.
func (s *Scope) BuildDispatcher(span token.Span) *flowgraph.Node {
	pool := s.pool
	cacheKey := "dispatcher:" + s.closure.fqName
	if cached, ok := pool.Scratch(cacheKey); ok {
		return cached
	}

	internalMap := pool.Map(nil, nil, span)
	for _, m := range s.dispatcher.members {
		v := m.value
		switch m.kind {
		case KindFunction:
			// inserted directly
		default:
			v = s.wrapGetter(m.value, span)
		}
		internalMap = pool.Call2(pool.Call1(internalMap, pool.Symbol("set"), span), pool.Symbol(m.name), v, span)
		if m.kind == KindVar {
			setterName := m.name + "="
			setter := s.buildSetter(m.name, span)
			internalMap = pool.Call2(pool.Call1(internalMap, pool.Symbol("set"), span), pool.Symbol(setterName), setter, span)
		}
	}
	internalMap = pool.Call2(pool.Call1(internalMap, pool.Symbol("set"), span), pool.Symbol(wildcardKey), internalMap, span)

	dispatchBody := pool.Call2(pool.Call1(internalMap, pool.Symbol("get"), span), pool.Parameter(0), pool.Void(), span)
	fn := pool.Function(dispatchBody, 1, s.closure.fqName)
	out := pool.Capture(fn, s.closure.captured, span)
	pool.SetScratch(cacheKey, out)
	return out
}

// wrapGetter wraps a Def/Var's value in a trivial zero-argument getter so
// calling the member as a function yields its value (spec §4.11).
func (s *Scope) wrapGetter(value *flowgraph.Node, span token.Span) *flowgraph.Node {
	return s.pool.Function(value, 0, "")
}

// buildSetter synthesizes the "name=" setter that rebuilds the object's
// internal map with a new value and wraps it back in the object function
// (spec §4.11 "synthesizes an additional setter... which rebuilds the
// object's internal map with the new value and wraps it back in the object
// function").
func (s *Scope) buildSetter(name string, span token.Span) *flowgraph.Node {
	pool := s.pool
	self := pool.Parameter(0)
	newValue := pool.Parameter(1)
	rawMap := pool.Call1(self, pool.Symbol(wildcardKey), span)
	updated := pool.Call2(pool.Call1(rawMap, pool.Symbol("set"), span), pool.Symbol(name), s.wrapGetter(newValue, span), span)
	dispatchBody := pool.Call2(pool.Call1(updated, pool.Symbol("get"), span), pool.Parameter(0), pool.Void(), span)
	return pool.Function(dispatchBody, 2, name+"=")
}
