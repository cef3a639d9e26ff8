package scope

import (
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// AssertVar and ResultVar are the well-known internal variable names every
// closure/block scope threads its assertion chain and result through
// (spec §4.5 "Every Assert statement chains its assertion onto a
// well-known :assert variable", §4.10 "Functions... define :result and
// :assert vars").
const (
	AssertVar = ":assert"
	ResultVar = ":result"
	SelfVar   = "self"
)

// OpenFunction enters a new Function closure scope, bindings self (for
// recursion), :assert, :result, and the declared parameters (spec §4.10).
func (s *Scope) OpenFunction(name string, params []string, span token.Span) *Scope {
	child := s.Enter(KindFunctionScope, name, span)
	child.bindImplicitSelf(span)
	child.initAssertResult(span)
	for i, p := range params {
		child.DefineParam(p, i, span)
	}
	return child
}

// OpenMethod is like OpenFunction but additionally binds self as a mutable
// Var (rather than the closure's own node) since a method's self is the
// object instance it was dispatched against, and the method implicitly
// returns the (possibly rebound) self at the end (spec §4.10 "Methods bind
// the implicit self as a Var (mutable) and return self as the result").
func (s *Scope) OpenMethod(name string, params []string, span token.Span) *Scope {
	child := s.Enter(KindMethodScope, name, span)
	child.Define(SelfVar, KindVar, s.pool.Parameter(0), span)
	child.initAssertResult(span)
	for i, p := range params {
		child.DefineParam(p, i+1, span) // parameter 0 is self
	}
	return child
}

// OpenObject enters a new Object closure scope. Declared members are added
// to a member dispatcher (scope/dispatch.go) as they're defined (spec
// §4.10, §4.11). A member's own symbol keeps the kind it was declared with;
// it is not rewritten to Member, so later statements in the body still
// reach it by name as well as through self.
func (s *Scope) OpenObject(name string, span token.Span) *Scope {
	child := s.Enter(KindObjectScope, name, span)
	child.bindImplicitSelf(span)
	child.dispatcher = newDispatcher()
	return child
}

// OpenModule is like OpenObject but parameterless; its emitted entry point
// is named "module_<name>" (spec §4.10).
func (s *Scope) OpenModule(name string, span token.Span) *Scope {
	child := s.Enter(KindModuleScope, "module_"+name, span)
	child.bindImplicitSelf(span)
	child.dispatcher = newDispatcher()
	return child
}

// OpenLambda enters a new anonymous, parameterless-until-DefineParam
// closure scope for a `capture(...)` literal or a comprehension's
// predicate/output expression (spec §4.5 "list comprehension lowering").
// Unlike Function/Method, a lambda binds no self, :assert, or :result —
// its body is a single expression, not a statement block.
func (s *Scope) OpenLambda(span token.Span) *Scope {
	return s.Enter(KindLambdaScope, "", span)
}

func (s *Scope) bindImplicitSelf(span token.Span) {
	s.Define(SelfVar, KindFunction, s.pool.Self(), span)
}

func (s *Scope) initAssertResult(span token.Span) {
	s.Define(AssertVar, KindVar, s.pool.True(), span)
	s.Define(ResultVar, KindVar, s.pool.Void(), span)
}

// ChainAssertions prepends this scope's accumulated :assert chain onto
// result, so the first failed assertion dominates (spec §4.5, last
// paragraph).
func (s *Scope) ChainAssertions(result *flowgraph.Node, span token.Span) *flowgraph.Node {
	sym, ok := s.table[AssertVar]
	if !ok || sym.Node == s.pool.True() {
		return result
	}
	return s.pool.Chain(sym.Node, result, span)
}
