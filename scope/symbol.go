// Package scope implements the lexical capture, phi synthesis, segment
// chaining, and closure machinery described in spec §3.4, §3.5, §4.3,
// §4.4, and §4.7–§4.11. It is the one package that mutates as the
// statement/expression analyzers (package analyzer) walk the AST; every
// method here either returns a flowgraph.Node or mutates the Scope's own
// bookkeeping, never the AST.
package scope

import (
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
)

// SymbolKind is the closed set of binding kinds a Scope's symbol table can
// hold (spec §3.4).
type SymbolKind int

const (
	KindVar SymbolKind = iota
	KindDef
	KindFunction
	KindImport
	KindMember
)

func (k SymbolKind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindDef:
		return "def"
	case KindFunction:
		return "function"
	case KindImport:
		return "import"
	case KindMember:
		return "member"
	default:
		return "symbol?"
	}
}

// redefinitionKind is the diag.Kind Assign reports when it rejects an
// assignment to a symbol of this kind, and AddMember reports for a
// duplicate member (spec §4.3 "Scope.assign").
func (k SymbolKind) redefinitionKind() diag.Kind {
	switch k {
	case KindDef:
		return diag.ConstantRedefinition
	case KindFunction:
		return diag.FunctionRedefinition
	case KindImport:
		return diag.ImportRedefinition
	case KindMember:
		return diag.MemberRedefinition
	default:
		return diag.AlreadyDefined
	}
}

// Symbol binds one name to a DFG node and the kind that governs whether it
// may be reassigned.
type Symbol struct {
	Name string
	Kind SymbolKind
	Node *flowgraph.Node
}

// writable reports whether Scope.assign is allowed to replace this
// symbol's Node in place.
func (s *Symbol) writable() bool { return s.Kind == KindVar }
