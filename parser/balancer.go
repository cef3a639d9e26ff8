package parser

import (
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/token"
)

// openBlock is one entry on the balancer's stack of unclosed blocks.
type openBlock struct {
	name string
	span token.Span
}

// Balancer is a filter over the statement stream that matches every
// block-opening statement against a later block-end, recovering from three
// mismatch shapes (spec §4.1 "Block balancer"). The statement analyzer
// consumes statements through a Balancer, never directly through a Parser,
// so it never has to reason about unmatched blocks itself.
type Balancer struct {
	p       *Parser
	stack   []openBlock
	pending []ast.Statement
	depth   int // indent depth expected of the next statement
}

// NewBalancer wraps p with block-matching and indentation checking.
func NewBalancer(p *Parser) *Balancer {
	return &Balancer{p: p}
}

// Next returns the next statement in the balanced stream. It may return
// more than one logical statement's worth of diagnostics for a single
// underlying parse (a synthetic block-end plus the real statement), which
// is why callers must call Next in a loop rather than assuming a 1:1
// correspondence with source lines.
func (b *Balancer) Next() ast.Statement {
	if len(b.pending) > 0 {
		s := b.pending[0]
		b.pending = b.pending[1:]
		return s
	}
	indent := b.p.IndentLevel()
	stmt := b.p.RequireStatement()
	b.checkIndentation(stmt, indent)

	if end, ok := stmt.(*ast.BlockEnd); ok {
		return b.resolveEnd(end)
	}
	if ast.IsBlockOpener(stmt) {
		b.stack = append(b.stack, openBlock{name: blockName(stmt), span: stmt.Span()})
	}
	return stmt
}

// AtEOF reports whether the underlying parser has been exhausted and every
// pending synthetic statement has been drained.
func (b *Balancer) AtEOF() bool {
	return len(b.pending) == 0 && b.p.atEOF()
}

// Finish must be called once the statement analyzer has stopped pulling
// from Next (normally at EOF). Any block left open on the stack produces a
// synthetic end and an UnmatchedBeginBlock report, innermost block first
// (the reverse of open order), so the analyzer closes the innermost scope
// first.
func (b *Balancer) Finish() []ast.Statement {
	var out []ast.Statement
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		b.p.errorf(top.span, diag.UnmatchedBeginBlock, "block %q is never closed", top.name)
		out = append(out, &ast.BlockEnd{Loc: ast.Loc{At: top.span}, Name: top.name, Synthetic: true})
	}
	return out
}

// resolveEnd applies the three-way recovery rule for a block-end statement.
func (b *Balancer) resolveEnd(end *ast.BlockEnd) ast.Statement {
	if len(b.stack) == 0 {
		b.p.errorf(end.Span(), diag.UnmatchedEndBlock, "'end' does not match any open block")
		return &ast.Blank{Loc: end.Loc}
	}
	top := b.stack[len(b.stack)-1]
	if end.Name == "" || end.Name == top.name {
		b.stack = b.stack[:len(b.stack)-1]
		end.Name = top.name
		return end
	}
	// Does end name some block further down the stack? If so, synthesize
	// block-ends for everything above it and report each of those blocks as
	// unmatched; deliver the synthetic ends before the real one.
	for i := len(b.stack) - 2; i >= 0; i-- {
		if b.stack[i].name == end.Name {
			for j := len(b.stack) - 1; j > i; j-- {
				unclosed := b.stack[j]
				b.p.errorf(unclosed.span, diag.UnmatchedBeginBlock, "block %q is never closed", unclosed.name)
				b.pending = append(b.pending, &ast.BlockEnd{Loc: ast.Loc{At: unclosed.span}, Name: unclosed.name, Synthetic: true})
			}
			b.stack = b.stack[:i]
			b.pending = append(b.pending, end)
			first := b.pending[0]
			b.pending = b.pending[1:]
			return first
		}
	}
	b.p.errorf(end.Span(), diag.UnmatchedEndBlock, "'end %s' does not match the open block %q", end.Name, top.name)
	return &ast.Blank{Loc: end.Loc}
}

// checkIndentation validates that a statement's indent level matches the
// balancer's stack depth (one less if the statement is itself a block-end,
// since the end dedents before the block it closes).
func (b *Balancer) checkIndentation(stmt ast.Statement, indent int) {
	want := len(b.stack)
	if _, ok := stmt.(*ast.BlockEnd); ok {
		want--
		if want < 0 {
			want = 0
		}
	}
	if _, ok := stmt.(*ast.Else); ok {
		want--
		if want < 0 {
			want = 0
		}
	}
	switch {
	case indent < want:
		b.p.errorf(stmt.Span(), diag.InsufficientIndentation,
			"expected %d levels of indentation, found %d", want, indent)
	case indent > want:
		b.p.errorf(stmt.Span(), diag.ExcessiveIndentation,
			"expected %d levels of indentation, found %d", want, indent)
	}
}

// blockName returns the name the balancer should stack for a block-opening
// statement, synthesizing a keyword name for if/while/for.
func blockName(stmt ast.Statement) string {
	if o, ok := stmt.(ast.BlockOpener); ok {
		return o.BlockName()
	}
	return ""
}
