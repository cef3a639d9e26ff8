// Package parser converts a token.Stream into an ast tree. It is a pair of
// nested recursive-descent parsers — statements drive expressions — sharing
// this Core for cursor tracking, token matching, and error recovery.
package parser

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/token"
)

// Core holds the shared cursor state and recovery machinery used by both
// the statement parser and the expression parser.
type Core struct {
	tokens token.Stream
	report diag.Reporter
	log    hclog.Logger
}

// NewCore wires a token stream and error reporter into a parser Core.
func NewCore(tokens token.Stream, report diag.Reporter, log hclog.Logger) *Core {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Core{tokens: tokens, report: report, log: log}
}

// here returns the current token without consuming it.
func (c *Core) here() token.Token { return c.tokens.Peek() }

// at returns the token `offset` positions ahead without consuming anything.
func (c *Core) at(offset int) token.Token { return c.tokens.PeekAt(offset) }

// take consumes and returns the current token unconditionally.
func (c *Core) take() token.Token { return c.tokens.Advance() }

// match consumes and returns the current token if it has kind k, reporting
// ok=false and leaving the cursor untouched otherwise.
func (c *Core) match(k token.Kind) (token.Token, bool) {
	if c.here().Kind == k {
		return c.take(), true
	}
	return token.Token{}, false
}

// matchText is like match but additionally requires the token's text, used
// for keyword-like operators the scanner reports generically (e.g. "->").
func (c *Core) matchText(k token.Kind, text string) (token.Token, bool) {
	if t := c.here(); t.Kind == k && t.Text == text {
		return c.take(), true
	}
	return token.Token{}, false
}

// expect consumes and returns the current token if it has kind k, else
// reports kind at the current span and returns a zero Token with ok=false.
// Callers that cannot proceed without the token should fall back to a Dummy
// node rather than asserting — spec §4.1 "Failure".
func (c *Core) expect(k token.Kind, kind diag.Kind, message string, args ...interface{}) (token.Token, bool) {
	if t, ok := c.match(k); ok {
		return t, true
	}
	c.errorf(c.here().Span, kind, message, args...)
	return token.Token{}, false
}

// errorf reports a diagnostic at span without altering the cursor.
func (c *Core) errorf(span token.Span, kind diag.Kind, message string, args ...interface{}) {
	c.report.Report(diag.Error{Kind: kind, Message: fmt.Sprintf(message, args...), Span: span})
}

// synchronize advances the cursor past tokens until it consumes the next
// NewLine or reaches EOF (which it leaves unconsumed), the recovery point spec §4.1 specifies
// for any parse mismatch. Returns the span it skipped over, for attaching
// to the Dummy node callers substitute in place of the failed production.
func (c *Core) synchronize() token.Span {
	start := c.here().Span
	span := start
	for {
		t := c.here()
		if t.Kind == token.EOF {
			return span.Join(t.Span)
		}
		span = span.Join(t.Span)
		if t.Kind == token.NewLine {
			c.take()
			return span
		}
		c.take()
	}
}

// dummy builds the Dummy literal expression substituted wherever a
// production could not be completed, so the AST stays structurally well
// formed even after a reported error.
func dummy(span token.Span) ast.Expression {
	return &ast.Literal{Loc: ast.Loc{At: span}, Kind: ast.LitDummy}
}

// location returns the current token's starting location as a zero-width
// span, useful for error spans that don't correspond to a consumed token.
func (c *Core) location() token.Span {
	return token.Span{Start: c.here().Span.Start, End: c.here().Span.Start}
}

// atEOF reports whether the cursor has reached the end of the stream.
func (c *Core) atEOF() bool { return c.here().Kind == token.EOF }

// isKeyword reports whether the current token is the keyword k.
func (c *Core) isKeyword(k token.Kind) bool { return c.here().Kind == k }
