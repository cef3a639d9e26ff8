package parser

import (
	"github.com/hashicorp/go-hclog"
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/token"
)

// Parser is the statement parser; it owns a Core and drives the expression
// parser (same struct, sharing its Core) to resolve expression-statements.
type Parser struct {
	*Core
}

// New builds a Parser over a token stream, reporting diagnostics to report.
func New(tokens token.Stream, report diag.Reporter, log hclog.Logger) *Parser {
	return &Parser{Core: NewCore(tokens, report, log)}
}

// IndentLevel counts the indent tokens leading the current statement
// without consuming anything else.
func (p *Parser) IndentLevel() int {
	n := 0
	for p.at(n).Kind == token.Indent {
		n++
	}
	return n
}

// RequireStatement parses exactly one statement, consuming its leading
// indent tokens first. It never returns nil: a malformed statement is
// replaced by a Dummy-valued expression statement and the cursor is
// resynchronized on the next newline (spec §4.1 "Failure").
func (p *Parser) RequireStatement() ast.Statement {
	for p.here().Kind == token.Indent {
		p.take()
	}
	t := p.here()
	switch t.Kind {
	case token.NewLine:
		p.take()
		return &ast.Blank{Loc: ast.Loc{At: t.Span}}
	case token.EOF:
		return &ast.Blank{Loc: ast.Loc{At: t.Span}}
	case token.KeywordAssert:
		return p.requireAssertion()
	case token.KeywordDebugTrace:
		return p.requireDebugTrace()
	case token.KeywordDef:
		return p.requireVarOrDef(ast.DeclDef)
	case token.KeywordVar:
		return p.requireVarOrDef(ast.DeclVar)
	case token.KeywordElse:
		return p.requireElse()
	case token.KeywordEnd:
		return p.requireBlockEnd()
	case token.KeywordFor:
		return p.requireFor()
	case token.KeywordFunction:
		return p.requireFunction()
	case token.KeywordMethod:
		return p.requireMethod()
	case token.KeywordObject:
		return p.requireObject()
	case token.KeywordIf:
		return p.requireIfThen()
	case token.KeywordImport:
		return p.requireImport()
	case token.KeywordSync:
		return p.requireSyncStatement()
	case token.KeywordWhile:
		return p.requireWhile()
	case token.KeywordYield:
		return p.requireYield()
	default:
		return p.requireExpressionStatement()
	}
}

func (p *Parser) endOfStatement(span token.Span) token.Span {
	if _, ok := p.match(token.NewLine); ok {
		return span
	}
	if p.atEOF() {
		return span
	}
	p.errorf(p.here().Span, diag.UnexpectedToken, "expected end of line, found %q", p.here().Text)
	return span.Join(p.synchronize())
}

func (p *Parser) requireAssertion() ast.Statement {
	start, _ := p.match(token.KeywordAssert)
	cond := p.requireExpression()
	span := p.endOfStatement(start.Span.Join(cond.Span()))
	return &ast.Assertion{Loc: ast.Loc{At: span}, Condition: cond}
}

func (p *Parser) requireDebugTrace() ast.Statement {
	start, _ := p.match(token.KeywordDebugTrace)
	val := p.requireExpression()
	span := p.endOfStatement(start.Span.Join(val.Span()))
	return &ast.DebugTrace{Loc: ast.Loc{At: span}, Value: val}
}

func (p *Parser) requireVarOrDef(kind ast.DeclKind) ast.Statement {
	start := p.take() // 'var' or 'def'
	name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a name after '%s'", start.Text)
	var value ast.Expression
	if _, ok := p.matchText(token.Operator, "="); ok {
		value = p.requireExpression()
	}
	span := start.Span.Join(name.Span)
	if value != nil {
		span = span.Join(value.Span())
	}
	span = p.endOfStatement(span)
	return &ast.Declaration{Loc: ast.Loc{At: span}, Kind: kind, Name: name.Text, Value: value}
}

func (p *Parser) requireElse() ast.Statement {
	start, _ := p.match(token.KeywordElse)
	var cond ast.Expression
	if _, ok := p.match(token.KeywordIf); ok {
		cond = p.requireExpression()
	}
	p.expect(token.Punctuation, diag.UnexpectedToken, "expected ':' after 'else'")
	span := p.endOfStatement(start.Span)
	return &ast.Else{Loc: ast.Loc{At: span}, Condition: cond}
}

func (p *Parser) requireBlockEnd() ast.Statement {
	start, _ := p.match(token.KeywordEnd)
	name := ""
	span := start.Span
	if t, ok := p.match(token.Identifier); ok {
		name = t.Text
		span = span.Join(t.Span)
	}
	span = p.endOfStatement(span)
	return &ast.BlockEnd{Loc: ast.Loc{At: span}, Name: name}
}

func (p *Parser) requireIfThen() ast.Statement {
	start, _ := p.match(token.KeywordIf)
	cond := p.requireExpression()
	p.matchText(token.Punctuation, ":")
	span := p.endOfStatement(start.Span.Join(cond.Span()))
	return &ast.IfThen{Loc: ast.Loc{At: span}, Condition: cond}
}

func (p *Parser) requireWhile() ast.Statement {
	start, _ := p.match(token.KeywordWhile)
	cond := p.requireExpression()
	p.matchText(token.Punctuation, ":")
	span := p.endOfStatement(start.Span.Join(cond.Span()))
	return &ast.While{Loc: ast.Loc{At: span}, Condition: cond}
}

func (p *Parser) requireFor() ast.Statement {
	start, _ := p.match(token.KeywordFor)
	name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a loop variable name after 'for'")
	p.expect(token.KeywordIn, diag.ForLoopExpectsInKeyword, "expected 'in' after for-loop variable")
	seq := p.requireExpression()
	p.matchText(token.Punctuation, ":")
	span := p.endOfStatement(start.Span.Join(seq.Span()))
	return &ast.For{
		Loc:      ast.Loc{At: span},
		Variable: &ast.Identifier{Loc: ast.Loc{At: name.Span}, Name: name.Text},
		Sequence: seq,
	}
}

func (p *Parser) requireParams() []*ast.Param {
	var params []*ast.Param
	if _, ok := p.match(token.LeftParen); !ok {
		return params
	}
	if _, ok := p.match(token.RightParen); ok {
		return params
	}
	for {
		name, ok := p.expect(token.Identifier, diag.ParamExpectsIdentifier, "parameter must be an identifier")
		if ok {
			params = append(params, &ast.Param{Loc: ast.Loc{At: name.Span}, Name: name.Text})
		}
		if _, ok := p.matchText(token.Punctuation, ","); ok {
			continue
		}
		break
	}
	p.expect(token.RightParen, diag.MissingParen, "expected ')' to close parameter list")
	return params
}

func (p *Parser) requireFunction() ast.Statement {
	start, _ := p.match(token.KeywordFunction)
	name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a name after 'function'")
	params := p.requireParams()
	span := p.endOfStatement(start.Span.Join(name.Span))
	return &ast.Declaration{Loc: ast.Loc{At: span}, Kind: ast.DeclFunction, Name: name.Text, Params: params}
}

func (p *Parser) requireMethod() ast.Statement {
	start, _ := p.match(token.KeywordMethod)
	name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a name after 'method'")
	params := p.requireParams()
	span := p.endOfStatement(start.Span.Join(name.Span))
	return &ast.Declaration{Loc: ast.Loc{At: span}, Kind: ast.DeclMethod, Name: name.Text, Params: params}
}

func (p *Parser) requireObject() ast.Statement {
	start, _ := p.match(token.KeywordObject)
	name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a name after 'object'")
	span := p.endOfStatement(start.Span.Join(name.Span))
	return &ast.Declaration{Loc: ast.Loc{At: span}, Kind: ast.DeclObject, Name: name.Text}
}

func (p *Parser) requireImport() ast.Statement {
	start, _ := p.match(token.KeywordImport)
	name, ok := p.expect(token.Identifier, diag.ImportSourceMustBeIdentifier, "import source must be an identifier")
	var value ast.Expression
	if ok {
		value = &ast.Identifier{Loc: ast.Loc{At: name.Span}, Name: name.Text}
	}
	span := p.endOfStatement(start.Span.Join(name.Span))
	return &ast.Declaration{Loc: ast.Loc{At: span}, Kind: ast.DeclImport, Name: name.Text, Value: value}
}

func (p *Parser) requireSyncStatement() ast.Statement {
	start, _ := p.match(token.KeywordSync)
	var val ast.Expression
	if _, ok := p.match(token.LeftParen); ok {
		val = p.requireExpression()
		p.expect(token.RightParen, diag.MissingParen, "expected ')' to close 'sync('")
	}
	span := p.endOfStatement(start.Span)
	return &ast.Sync{Loc: ast.Loc{At: span}, Value: val}
}

func (p *Parser) requireYield() ast.Statement {
	start, _ := p.match(token.KeywordYield)
	from := false
	if _, ok := p.match(token.KeywordFrom); ok {
		from = true
	}
	val := p.requireExpression()
	span := p.endOfStatement(start.Span.Join(val.Span()))
	return &ast.Yield{Loc: ast.Loc{At: span}, Value: val, From: from}
}

// requireExpressionStatement parses an assignment or a mutation statement.
// Targets are either a bare identifier with optional `->member` chain and
// optional `[expr]` subscript, or a parenthesized/bracketed/braced tuple of
// such targets for destructuring.
func (p *Parser) requireExpressionStatement() ast.Statement {
	start := p.here().Span
	targets, isAssign := p.tryAssignTargets()
	if isAssign {
		if _, ok := p.matchText(token.Operator, "="); ok {
			value := p.requireExpression()
			span := p.endOfStatement(start.Join(value.Span()))
			return &ast.Assignment{Loc: ast.Loc{At: span}, Targets: targets, Value: value}
		}
	}
	// Not an assignment: parse as a plain expression statement, which may
	// itself be a `target->method(args)` mutation.
	expr := p.requireExpression()
	if m, ok := expr.(*ast.MutatorTarget); ok {
		span := p.endOfStatement(m.Span())
		return &ast.Mutation{Loc: ast.Loc{At: span}, Target: m.Target, Method: m.Method, Arguments: m.Arguments}
	}
	if _, ok := p.matchText(token.Operator, "->"); ok {
		method, _ := p.expect(token.Identifier, diag.MemberMustBeIdentifier, "mutator method must be an identifier")
		p.expect(token.LeftParen, diag.MissingParen, "expected '(' after mutator method name")
		args := p.requireArguments()
		span := p.endOfStatement(expr.Span().Join(args.Span()))
		return &ast.Mutation{Loc: ast.Loc{At: span}, Target: expr, Method: method.Text, Arguments: args}
	}
	span := p.endOfStatement(expr.Span())
	return &ast.Assignment{Loc: ast.Loc{At: span}, Targets: nil, Value: expr}
}

// tryAssignTargets speculatively parses the left-hand side of an
// assignment. It only commits to having found one if the next token after
// the parse is '='; callers check isAssign and fall back to
// requireExpression otherwise. Because this grammar has no unbounded
// lookahead operator distinct from a plain expression parse, the simplest
// faithful-to-spec approach is: parse a single identifier-based target (the
// common case) eagerly, and leave destructuring tuples to be recognized by
// their leading grouping token.
func (p *Parser) tryAssignTargets() ([]*ast.AssignTarget, bool) {
	switch p.here().Kind {
	case token.Identifier:
		if !p.identifierStartsAssignment() {
			return nil, false
		}
		return []*ast.AssignTarget{p.requireAssignTarget()}, true
	case token.LeftParen, token.LeftBracket, token.LeftBrace:
		return p.tryDestructureTargets()
	default:
		return nil, false
	}
}

// identifierStartsAssignment looks ahead from an Identifier token to decide
// whether it begins an assignment target (identifier, `->member` chain,
// optional `[idx]`, then '=') rather than a plain expression.
func (p *Parser) identifierStartsAssignment() bool {
	n := 1
	for {
		t := p.at(n)
		if t.Kind == token.Operator && t.Text == "->" {
			n += 2 // '->' and the member name
			continue
		}
		if t.Kind == token.LeftBracket {
			depth := 1
			n++
			for depth > 0 {
				switch p.at(n).Kind {
				case token.LeftBracket:
					depth++
				case token.RightBracket:
					depth--
				case token.EOF, token.NewLine:
					return false
				}
				n++
			}
			continue
		}
		return t.Kind == token.Operator && t.Text == "="
	}
}

func (p *Parser) requireAssignTarget() *ast.AssignTarget {
	name, _ := p.match(token.Identifier)
	tgt := &ast.AssignTarget{Loc: ast.Loc{At: name.Span}, Name: name.Text}
	for {
		if _, ok := p.matchText(token.Operator, "->"); ok {
			m, _ := p.expect(token.Identifier, diag.MemberMustBeIdentifier, "mutator member must be an identifier")
			tgt.Members = append(tgt.Members, m.Text)
			continue
		}
		break
	}
	if _, ok := p.match(token.LeftBracket); ok {
		tgt.Subscript = p.requireExpression()
		end, _ := p.expect(token.RightBracket, diag.MissingBracket, "expected ']' to close subscript target")
		tgt.Loc = ast.Loc{At: tgt.Span().Join(end.Span)}
	}
	return tgt
}

// tryDestructureTargets parses a parenthesized/bracketed/braced tuple of
// assignment targets. It is only called when the opening token could begin
// one; if the parse does not end in '=' immediately after the closing
// token, the caller treats the whole thing as a plain expression instead.
func (p *Parser) tryDestructureTargets() ([]*ast.AssignTarget, bool) {
	var close token.Kind
	switch p.here().Kind {
	case token.LeftParen:
		close = token.RightParen
	case token.LeftBracket:
		close = token.RightBracket
	case token.LeftBrace:
		close = token.RightBrace
	}
	savedStart := p.here().Span
	p.take() // opening bracket
	var targets []*ast.AssignTarget
	for p.here().Kind != close {
		if p.here().Kind != token.Identifier {
			return nil, false
		}
		targets = append(targets, p.requireAssignTarget())
		if _, ok := p.matchText(token.Punctuation, ","); ok {
			continue
		}
		break
	}
	if _, ok := p.match(close); !ok {
		p.errorf(savedStart, diag.UnexpectedToken, "unterminated destructuring target")
		return nil, false
	}
	if p.here().Kind == token.Operator && p.here().Text == "=" {
		return targets, true
	}
	return nil, false
}
