package parser

import (
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/token"
)

// binaryOpsByText maps the operator tokens the scanner produces to their AST
// BinaryOp, keyed by text alone since most binary operators share
// token.Operator and are distinguished only by text.
var binaryOpsByText = map[string]ast.BinaryOp{
	",":  ast.OpTuple,
	"=>": ast.OpPair,
	"=":  ast.OpEqual,
	"!=": ast.OpNotEqual,
	"<":  ast.OpLess,
	"<=": ast.OpLessEqual,
	">":  ast.OpGreater,
	">=": ast.OpGreaterEqual,
	"+":  ast.OpAdd,
	"-":  ast.OpSubtract,
	"~":  ast.OpConcat,
	"*":  ast.OpMultiply,
	"/":  ast.OpDivide,
	"%":  ast.OpModulus,
	"^":  ast.OpExponent,
	"<<": ast.OpShiftLeft,
	">>": ast.OpShiftRight,
}

var keywordBinaryOps = map[token.Kind]ast.BinaryOp{
	token.KeywordAnd:  ast.OpAnd,
	token.KeywordOr:   ast.OpOr,
	token.KeywordXor:  ast.OpXor,
	token.KeywordHas:  ast.OpHas,
	token.KeywordAs:   ast.OpAs,
}

// peekBinaryOp reports the BinaryOp the current token represents, if any,
// without consuming it.
func (p *Parser) peekBinaryOp() (ast.BinaryOp, bool) {
	t := p.here()
	if t.Kind == token.Operator || t.Kind == token.Punctuation {
		if op, ok := binaryOpsByText[t.Text]; ok {
			return op, true
		}
	}
	if op, ok := keywordBinaryOps[t.Kind]; ok {
		return op, true
	}
	return 0, false
}

// requireExpression parses `term {binop term}*` ignoring precedence, then
// reassociates after each right operand is attached (spec §4.1 "Expression
// parser"). `if`/`else` are handled as a separate production (IfElse) since
// they are right-associative and require a matching else rather than
// behaving like an ordinary left-to-right operator chain.
func (p *Parser) requireExpression() ast.Expression {
	left := p.requireUnary()
	for {
		p.skipContinuationBreaks()
		if p.isKeyword(token.KeywordIf) {
			left = p.requireIfElse(left)
			continue
		}
		op, ok := p.peekBinaryOp()
		if !ok {
			break
		}
		opTok := p.take()
		p.skipContinuationBreaks()
		right := p.requireUnary()
		node := &ast.Binary{
			Loc:   ast.Loc{At: left.Span().Join(opTok.Span).Join(right.Span())},
			Op:    op,
			Left:  left,
			Right: right,
		}
		left = node.Reassociate()
	}
	return left
}

// requireIfElse parses the right-associative `then if cond else other`
// ternary once its leading `then` operand (parsed as an ordinary term by
// the caller) and the `if` keyword have been recognized.
func (p *Parser) requireIfElse(then ast.Expression) ast.Expression {
	ifTok, _ := p.match(token.KeywordIf)
	cond := p.requireExpression()
	if _, ok := p.match(token.KeywordElse); !ok {
		p.errorf(p.here().Span, diag.IfOperatorWithoutElse,
			"'if' expression requires a matching 'else'")
		return &ast.IfElse{
			Loc:       ast.Loc{At: then.Span().Join(ifTok.Span).Join(cond.Span())},
			Condition: cond, Then: then, Else: dummy(p.location()),
		}
	}
	other := p.requireExpression()
	return &ast.IfElse{
		Loc:       ast.Loc{At: then.Span().Join(other.Span())},
		Condition: cond,
		Then:      then,
		Else:      other,
	}
}

// skipContinuationBreaks consumes NewLine/Indent tokens that follow a binop
// or an opening grouping token, per spec's "optional line breaks" rule.
func (p *Parser) skipContinuationBreaks() {
	for {
		switch p.here().Kind {
		case token.NewLine, token.Indent:
			p.take()
		default:
			return
		}
	}
}

// requireUnary parses the prefix unary operators, which bind tighter than
// any binop, then falls through to postfix chains over a primary.
func (p *Parser) requireUnary() ast.Expression {
	t := p.here()
	switch {
	case t.Kind == token.Operator && t.Text == "-":
		p.take()
		operand := p.requireUnary()
		return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(operand.Span())}, Op: ast.UnaryNegate, Operand: operand}
	case t.Kind == token.KeywordNot:
		p.take()
		operand := p.requireUnary()
		return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(operand.Span())}, Op: ast.UnaryNot, Operand: operand}
	case t.Kind == token.KeywordThrow:
		p.take()
		operand := p.requireUnary()
		return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(operand.Span())}, Op: ast.UnaryThrow, Operand: operand}
	case t.Kind == token.KeywordSync:
		p.take()
		if _, ok := p.match(token.LeftParen); ok {
			operand := p.requireExpression()
			end, _ := p.expect(token.RightParen, diag.MissingParen, "expected ')' to close 'sync('")
			return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(end.Span)}, Op: ast.UnarySync, Operand: operand}
		}
		return &ast.Unary{Loc: ast.Loc{At: t.Span}, Op: ast.UnarySync}
	default:
		return p.requirePostfix()
	}
}

// requirePostfix parses a primary expression followed by zero or more `[]`
// lookups and `.name[(...)]` member accesses.
func (p *Parser) requirePostfix() ast.Expression {
	e := p.requirePrimary()
	for {
		switch {
		case p.here().Kind == token.LeftBracket:
			p.take()
			idx := p.requireExpression()
			end, _ := p.expect(token.RightBracket, diag.MissingBracket, "expected ']' to close subscript")
			e = &ast.Lookup{Loc: ast.Loc{At: e.Span().Join(end.Span)}, Object: e, Index: idx}
		case p.here().Kind == token.Operator && p.here().Text == ".":
			p.take()
			name, ok := p.expect(token.Identifier, diag.MemberMustBeIdentifier, "member name must be an identifier")
			if !ok {
				return e
			}
			m := &ast.Member{Loc: ast.Loc{At: e.Span().Join(name.Span)}, Object: e, Name: name.Text}
			if _, ok := p.match(token.LeftParen); ok {
				args := p.requireArguments()
				m.Arguments = args
				m.Loc = ast.Loc{At: e.Span().Join(args.Span())}
			}
			e = m
		case p.here().Kind == token.Operator && p.here().Text == "->":
			arrow := p.take()
			method, _ := p.expect(token.Identifier, diag.MemberMustBeIdentifier, "mutator method must be an identifier")
			p.errorf(arrow.Span, diag.MutatorInsideExpression,
				"'->%s' mutator syntax is not allowed inside an expression", method.Text)
			var args *ast.Arguments
			if _, ok := p.match(token.LeftParen); ok {
				args = p.requireArguments()
			}
			span := e.Span().Join(method.Span)
			if args != nil {
				span = span.Join(args.Span())
			}
			e = &ast.MutatorTarget{Loc: ast.Loc{At: span}, Target: e, Method: method.Text, Arguments: args}
		default:
			return e
		}
	}
}

// requireArguments parses a parenthesized argument list once the opening
// '(' has already been consumed by the caller.
func (p *Parser) requireArguments() *ast.Arguments {
	start := p.location()
	args := &ast.Arguments{Loc: ast.Loc{At: start}}
	if _, ok := p.match(token.RightParen); ok {
		return args
	}
	for {
		args.Values = append(args.Values, p.requireExpression())
		if _, ok := p.matchText(token.Punctuation, ","); ok {
			continue
		}
		break
	}
	end, _ := p.expect(token.RightParen, diag.MissingParen, "expected ')' to close argument list")
	args.Loc = ast.Loc{At: start.Join(end.Span)}
	return args
}

// requirePrimary parses identifiers (with optional call), literals,
// grouping, list/map literals, invoke, capture, sync, throw, and the each
// comprehension.
func (p *Parser) requirePrimary() ast.Expression {
	t := p.here()
	switch t.Kind {
	case token.Identifier:
		p.take()
		id := &ast.Identifier{Loc: ast.Loc{At: t.Span}, Name: t.Text}
		if _, ok := p.match(token.LeftParen); ok {
			args := p.requireArguments()
			return &ast.Call{Loc: ast.Loc{At: t.Span.Join(args.Span())}, Callee: id, Arguments: args}
		}
		return id
	case token.IntegerNumber, token.HexNumber, token.OctalNumber, token.BinaryNumber, token.RealNumber, token.FloatNumber:
		p.take()
		return &ast.Literal{Loc: ast.Loc{At: t.Span}, Kind: literalKindOf(t.Kind), Text: t.Text}
	case token.String:
		p.take()
		return &ast.Literal{Loc: ast.Loc{At: t.Span}, Kind: ast.LitString, Text: t.Text}
	case token.Symbol:
		p.take()
		return &ast.Literal{Loc: ast.Loc{At: t.Span}, Kind: ast.LitSymbol, Text: t.Text}
	case token.KeywordTrue:
		p.take()
		return &ast.Literal{Loc: ast.Loc{At: t.Span}, Kind: ast.LitBoolean, Bool: true}
	case token.KeywordFalse:
		p.take()
		return &ast.Literal{Loc: ast.Loc{At: t.Span}, Kind: ast.LitBoolean, Bool: false}
	case token.LeftParen:
		p.take()
		inner := p.requireExpression()
		end, _ := p.expect(token.RightParen, diag.MissingParen, "expected ')' to close grouped expression")
		return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(end.Span)}, Op: ast.UnaryGroup, Operand: inner}
	case token.LeftBracket:
		return p.requireList()
	case token.LeftBrace:
		return p.requireMap()
	case token.KeywordInvoke:
		return p.requireInvoke()
	case token.KeywordCapture:
		return p.requireLambdaCapture()
	case token.KeywordThrow:
		p.take()
		inner := p.requireExpression()
		return &ast.Unary{Loc: ast.Loc{At: t.Span.Join(inner.Span())}, Op: ast.UnaryThrow, Operand: inner}
	case token.KeywordEach:
		return p.requireComprehension()
	default:
		p.errorf(t.Span, diag.ExpectedExpression, "expected an expression, found %q", t.Text)
		span := p.synchronize()
		return dummy(span)
	}
}

func literalKindOf(k token.Kind) ast.LiteralKind {
	switch k {
	case token.HexNumber:
		return ast.LitHex
	case token.OctalNumber:
		return ast.LitOctal
	case token.BinaryNumber:
		return ast.LitBinary
	case token.RealNumber:
		return ast.LitReal
	case token.FloatNumber:
		return ast.LitFloat
	default:
		return ast.LitInteger
	}
}

// requireList parses `[e1, e2, ...]`.
func (p *Parser) requireList() ast.Expression {
	start, _ := p.match(token.LeftBracket)
	l := &ast.List{Loc: ast.Loc{At: start.Span}}
	if end, ok := p.match(token.RightBracket); ok {
		l.Loc = ast.Loc{At: start.Span.Join(end.Span)}
		return l
	}
	for {
		l.Elements = append(l.Elements, p.requireExpression())
		if _, ok := p.matchText(token.Punctuation, ","); ok {
			p.skipContinuationBreaks()
			continue
		}
		break
	}
	end, _ := p.expect(token.RightBracket, diag.MissingBracket, "expected ']' to close list literal")
	l.Loc = ast.Loc{At: start.Span.Join(end.Span)}
	return l
}

// requireMap parses `{k1 => v1, k2 => v2}`.
func (p *Parser) requireMap() ast.Expression {
	start, _ := p.match(token.LeftBrace)
	m := &ast.Map{Loc: ast.Loc{At: start.Span}}
	if end, ok := p.match(token.RightBrace); ok {
		m.Loc = ast.Loc{At: start.Span.Join(end.Span)}
		return m
	}
	for {
		entryStart := p.here().Span
		key := p.requireExpression()
		pair, ok := key.(*ast.Binary)
		if !ok || pair.Op != ast.OpPair {
			p.errorf(entryStart, diag.MapElementsMustBePairs, "map elements must be 'key => value' pairs")
			m.Entries = append(m.Entries, &ast.MapEntry{Loc: ast.Loc{At: entryStart}, Key: key, Value: dummy(entryStart)})
		} else {
			m.Entries = append(m.Entries, &ast.MapEntry{Loc: pair.Loc, Key: pair.Left, Value: pair.Right})
		}
		if _, ok := p.matchText(token.Punctuation, ","); ok {
			p.skipContinuationBreaks()
			continue
		}
		break
	}
	end, _ := p.expect(token.RightBrace, diag.MissingBrace, "expected '}' to close map literal")
	m.Loc = ast.Loc{At: start.Span.Join(end.Span)}
	return m
}

// requireInvoke parses `invoke(expr[:expr])`.
func (p *Parser) requireInvoke() ast.Expression {
	start, _ := p.match(token.KeywordInvoke)
	p.expect(token.LeftParen, diag.MissingParen, "expected '(' after 'invoke'")
	target := p.requireExpression()
	inv := &ast.Invoke{Loc: ast.Loc{At: start.Span}, Target: target}
	if _, ok := p.matchText(token.Punctuation, ":"); ok {
		inv.Key = p.requireExpression()
	}
	end, _ := p.expect(token.RightParen, diag.MissingParen, "expected ')' to close 'invoke('")
	inv.Loc = ast.Loc{At: start.Span.Join(end.Span)}
	return inv
}

// requireLambdaCapture parses `capture([param:] expr)`.
func (p *Parser) requireLambdaCapture() ast.Expression {
	start, _ := p.match(token.KeywordCapture)
	p.expect(token.LeftParen, diag.MissingParen, "expected '(' after 'capture'")
	lc := &ast.LambdaCapture{Loc: ast.Loc{At: start.Span}}
	if p.here().Kind == token.Identifier && p.at(1).Kind == token.Punctuation && p.at(1).Text == ":" {
		name := p.take()
		p.take() // ':'
		lc.Param = &ast.Identifier{Loc: ast.Loc{At: name.Span}, Name: name.Text}
	}
	lc.Expression = p.requireExpression()
	end, _ := p.expect(token.RightParen, diag.MissingParen, "expected ')' to close 'capture('")
	lc.Loc = ast.Loc{At: start.Span.Join(end.Span)}
	return lc
}

// requireComprehension parses `each out [from var] in seq [where pred]`.
func (p *Parser) requireComprehension() ast.Expression {
	start, _ := p.match(token.KeywordEach)
	c := &ast.Comprehension{Loc: ast.Loc{At: start.Span}}
	if !p.isKeyword(token.KeywordIn) && !p.isKeyword(token.KeywordFrom) {
		c.Out = p.requireExpression()
	}
	if _, ok := p.match(token.KeywordFrom); ok {
		name, _ := p.expect(token.Identifier, diag.ExpectedIdentifier, "expected a variable name after 'from'")
		c.From = &ast.Identifier{Loc: ast.Loc{At: name.Span}, Name: name.Text}
	}
	p.expect(token.KeywordIn, diag.ForLoopExpectsInKeyword, "expected 'in' in comprehension")
	c.Source = p.requireExpression()
	if _, ok := p.match(token.KeywordWhere); ok {
		c.Where = p.requireExpression()
	}
	return c
}
