// Package diag defines the closed error taxonomy (spec §7) and the
// host-provided Reporter interface every compiler-core package reports
// through. No package in this module ever panics on user input; diag.Error
// values are the only way bad input is surfaced, and every one of them
// carries enough context — kind, message, source span — to produce the
// single stderr line format described by spec §7.
package diag

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/marssaxman/radian/token"
)

// Kind is the closed set of error kinds, grouped by pipeline stage the way
// spec §7 groups them.
type Kind int

const (
	// Loader
	LoadProgramFileFailed Kind = iota
	ImportFailed

	// Lexical (reported by the external scanner; named here so a host can
	// route scanner diagnostics through the same Reporter)
	BadToken
	UnknownToken

	// Syntactic
	UnexpectedEOF
	UnexpectedEOL
	MissingBracket
	MissingParen
	MissingBrace
	UnmatchedBeginBlock
	UnmatchedEndBlock
	InsufficientIndentation
	ExcessiveIndentation
	ForLoopExpectsInKeyword
	MutatorInsideExpression
	IfOperatorWithoutElse
	ExpectedIdentifier
	ExpectedExpression
	UnexpectedToken

	// Semantic
	Undefined
	AlreadyDefined
	ConstantRedefinition
	FunctionRedefinition
	ImportRedefinition
	MemberRedefinition
	SelfConstantRedefinition
	ContextVarRedefinition
	ParamExpectsIdentifier
	ElseStatementOutsideIfBlock
	ElseStatementAfterFinal
	YieldInsideMemberDispatch
	SyncInsideGenerator
	YieldInsideAsyncTask
	DirectMemberReference
	MemberMustBeIdentifier
	MapElementsMustBePairs
	SubscriptNonFunction
	ImportSourceMustBeIdentifier
	BuiltinOutsideCoreLibrary

	// Runtime assertion stubs — never reported through Reporter; these
	// identify the message embedded in a DFG Throw node.
	FalseAssertion
	VoidInvocation
	InvalidTypeAssertion
	MissingMethod

	// Internal
	InternalInvariantViolation
)

// Error is one diagnostic: a kind, a formatted message, and the source span
// it applies to.
type Error struct {
	Kind    Kind
	Message string
	Span    token.Span
}

// Error implements the standard error interface using the
// "<path>, line L(C1-C2): <message>" shape spec §7 requires on stderr.
func (e Error) Error() string {
	s := e.Span
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s, line %d(%d-%d): %s",
			s.Start.Path, s.Start.Line, s.Start.Column, s.End.Column, e.Message)
	}
	return fmt.Sprintf("%s, lines %d-%d: %s",
		s.Start.Path, s.Start.Line, s.End.Line, e.Message)
}

// Reporter is the host-provided error channel (spec §6 "Error channel").
// Report never returns an error of its own — the contract is fire-and-
// forget, mirroring the engine's single-threaded pull model (spec §5).
type Reporter interface {
	Report(err Error)
	HasReceivedReport() bool
}

// Collector is the Reporter implementation every package in this module is
// constructed with by default. It aggregates reports with
// hashicorp/go-multierror so a host that wants a single `error` value (for
// example to return from engine.Compile) can call Drain.
type Collector struct {
	errs *multierror.Error
}

// NewCollector returns an empty Collector ready to use as a diag.Reporter.
func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Report(err Error) {
	c.errs = multierror.Append(c.errs, err)
}

func (c *Collector) HasReceivedReport() bool {
	return c.errs != nil && c.errs.Len() > 0
}

// Drain returns the accumulated errors as a single error value, or nil if
// none were reported.
func (c *Collector) Drain() error {
	return c.errs.ErrorOrNil()
}

// Errors returns the accumulated diag.Error values in report order.
func (c *Collector) Errors() []Error {
	if c.errs == nil {
		return nil
	}
	out := make([]Error, len(c.errs.Errors))
	for i, e := range c.errs.Errors {
		out[i] = e.(Error)
	}
	return out
}
