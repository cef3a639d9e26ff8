// Package token defines the boundary contract between the scanner and the
// parser. The scanner itself — turning source characters into tokens,
// filtering whitespace and comments, folding case, combining two-character
// operators — is an external collaborator (spec §6) and is not implemented
// here; this package only fixes the shape of the data that crosses that
// boundary so the parser can be written against an interface rather than a
// concrete lexer.
package token

// Kind identifies which production in the closed token enumeration a Token
// belongs to.
type Kind int

// The closed set of token kinds the scanner is expected to produce. Two
// tokens compare as the same statement-balancer "block name" by text value,
// not by kind, so identifier-like kinds share comparison semantics.
const (
	Invalid Kind = iota
	EOF

	Identifier
	IntegerNumber
	HexNumber
	OctalNumber
	BinaryNumber
	RealNumber
	FloatNumber
	String
	Symbol // a `:name` literal

	Operator // +, -, *, /, =, <, <=, ->, =>, ... (pre-combined by the scanner)
	Punctuation

	KeywordAssert
	KeywordDebugTrace
	KeywordDef
	KeywordElse
	KeywordEnd
	KeywordFor
	KeywordFunction
	KeywordIf
	KeywordImport
	KeywordIn
	KeywordMethod
	KeywordObject
	KeywordSync
	KeywordVar
	KeywordWhile
	KeywordYield

	KeywordAnd
	KeywordOr
	KeywordXor
	KeywordNot
	KeywordAs
	KeywordHas
	KeywordThrow
	KeywordTrue
	KeywordFalse
	KeywordFrom
	KeywordWhere
	KeywordEach
	KeywordOut
	KeywordInvoke
	KeywordCapture

	NewLine
	Indent

	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace

	Comment
	Error
)

// Location is a single point in a source file.
type Location struct {
	Path   string
	Line   int
	Column int
}

// Span covers a half-open range of source text, start inclusive, end
// exclusive, used to annotate every AST node and every reported error.
type Span struct {
	Start Location
	End   Location
}

// Join returns the smallest span covering both a and b. Either span may be
// the zero value, in which case the other is returned unchanged — this
// makes it convenient to fold spans across an optionally-empty list.
func (a Span) Join(b Span) Span {
	if a == (Span{}) {
		return b
	}
	if b == (Span{}) {
		return a
	}
	out := a
	out.End = b.End
	return out
}

// Token is one lexeme with its kind, literal text, and source span. Text is
// already case-folded for Identifier and Symbol kinds by the scanner;
// Token equality by Text is how the block balancer matches a block-end
// name against its block-begin name.
type Token struct {
	Kind Kind
	Text string
	Span Span
}

// SameName reports whether two tokens carry the same block name, the rule
// the balancer (parser §"Block balancer") uses to match `end foo` against
// `function foo`.
func (t Token) SameName(o Token) bool { return t.Text == o.Text }

// Stream is a pull iterator over tokens, the single contract the parser is
// written against. Peek returns the token at the read position without
// consuming it (PeekAt looks further ahead); Advance moves the read
// position forward one token.
// Implementations must produce exactly one EOF token as the final token and
// then keep returning it forever.
type Stream interface {
	Peek() Token
	PeekAt(offset int) Token
	Advance() Token
}
