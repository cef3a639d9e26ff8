// Package ast holds the set of types used in the abstract syntax tree
// representation of the language the analyzer lowers into a data-flow
// graph. The parser (package parser) is the only producer of these types;
// the analyzer (package analyzer) is the only consumer.
package ast

import "github.com/marssaxman/radian/token"

// Node is implemented by every AST node, expression or statement.
type Node interface {
	Span() token.Span
	isNode()
}

// Expression is implemented by every expression-producing AST node.
type Expression interface {
	Node
	isExpression()
}

// Statement is implemented by every statement AST node.
type Statement interface {
	Node
	isStatement()
}

// BlockOpener is implemented by statements that open a block the balancer
// must later match with an `end`: function/method/object declarations, and
// the if/while/for block openers.
type BlockOpener interface {
	Statement
	// BlockName returns the name a later `end` is matched against. If/while/
	// for synthesize a keyword name ("if", "while", "for") since those
	// blocks have no declared identifier.
	BlockName() string
}

// Loc is embedded by every concrete node to carry its source span. It is
// exported (unlike gapil's ast package, which tracks spans out-of-band via
// a CST map) because spec §3.2 requires every node to carry its span
// directly.
type Loc struct{ At token.Span }

func (l Loc) Span() token.Span { return l.At }
func (Loc) isNode()             {}
