package ast

// Blank represents an empty line; kept as a statement (rather than
// filtered out) so line numbers in later error messages stay accurate.
type Blank struct{ Loc }

func (*Blank) isStatement() {}

// BlockEnd represents an «end [name]» statement. Name is empty when the
// source omitted it ("any block end"); the balancer fills in the matched
// name before the statement analyzer ever sees it, so by the time
// exec_stmt runs, Name always names the block actually being closed.
type BlockEnd struct {
	Loc
	Name      string
	Synthetic bool // true when the balancer inserted this to recover from an error
}

func (*BlockEnd) isStatement() {}

// Assertion represents an «assert expr» statement.
type Assertion struct {
	Loc
	Condition Expression
}

func (*Assertion) isStatement() {}

// DebugTrace represents a «debug_trace expr» statement.
type DebugTrace struct {
	Loc
	Value Expression
}

func (*DebugTrace) isStatement() {}

// AssignTarget is one left-hand side of an Assignment: a plain identifier,
// optionally followed by member-mutation arrows and an optional subscript,
// or — when destructuring — a nested tuple/list/map of further targets.
type AssignTarget struct {
	Loc
	Name     string   // set when this target is a simple identifier
	Members  []string // `->member` chain, applied in order after Name
	Subscript Expression // optional trailing `[expr]`, nil if absent
	Tuple    []*AssignTarget // set instead of Name when destructuring a tuple/list/map
}

// Assignment represents «targets = value», where targets may be a single
// AssignTarget or a destructuring list of them.
type Assignment struct {
	Loc
	Targets []*AssignTarget
	Value   Expression
}

func (*Assignment) isStatement() {}

// Mutation represents «target->method(args)» used as a full statement (as
// opposed to MutatorTarget, which is the same syntax rejected inside an
// expression context).
type Mutation struct {
	Loc
	Target    Expression
	Method    string
	Arguments *Arguments
}

func (*Mutation) isStatement() {}

// DeclKind distinguishes the declaration-statement variants, all of which
// are BlockOpeners except Var/Def/Import which never open a block.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclDef
	DeclFunction
	DeclMethod
	DeclObject
	DeclImport
)

// Param is one formal parameter of a Function/Method declaration.
type Param struct {
	Loc
	Name string
}

// Declaration represents `var`, `def`, `function`, `method`, `object`, and
// `import` statements. Function/Method/Object declarations are
// BlockOpeners; Var/Def/Import are not.
type Declaration struct {
	Loc
	Kind   DeclKind
	Name   string
	Params []*Param  // Function/Method only
	Value  Expression // Var/Def initializer, or Import's source identifier
}

func (*Declaration) isStatement() {}

// BlockName implements ast.BlockOpener for Function/Method/Object.
func (d *Declaration) BlockName() string { return d.Name }

// IsBlockOpener reports whether this declaration opens a block that the
// balancer must match with an `end`.
func (d *Declaration) IsBlockOpener() bool {
	switch d.Kind {
	case DeclFunction, DeclMethod, DeclObject:
		return true
	default:
		return false
	}
}

// IfThen represents the «if cond: ...» block opener. Else is attached by a
// later Else statement consumed by the statement analyzer's block scope,
// not stored here.
type IfThen struct {
	Loc
	Condition Expression
}

func (*IfThen) isStatement()        {}
func (*IfThen) BlockName() string   { return "if" }

// Else represents the «else [if cond]:» statement that continues an
// If/Else chain. Condition is nil for a terminal, unconditional else.
type Else struct {
	Loc
	Condition Expression // nil: terminal else
}

func (*Else) isStatement() {}

// While represents the «while cond:» block opener.
type While struct {
	Loc
	Condition Expression
}

func (*While) isStatement()      {}
func (*While) BlockName() string { return "while" }

// For represents the «for var in seq:» block opener.
type For struct {
	Loc
	Variable *Identifier
	Sequence Expression
}

func (*For) isStatement()      {}
func (*For) BlockName() string { return "for" }

// Sync represents a «sync [(expr)]» statement used as a full statement
// (the sync(expr) expression form is ast.Unary with UnarySync).
type Sync struct {
	Loc
	Value Expression // nil: bare `sync` with no payload
}

func (*Sync) isStatement() {}

// Yield represents «yield expr» or, when From is true, «yield from expr».
type Yield struct {
	Loc
	Value Expression
	From  bool
}

func (*Yield) isStatement() {}

// IsBlockOpener reports whether stmt opens a block the balancer must match
// with a later `end`. Declaration only opens a block for its
// Function/Method/Object variants; IfThen/While/For always do.
func IsBlockOpener(stmt Statement) bool {
	switch s := stmt.(type) {
	case *Declaration:
		return s.IsBlockOpener()
	case *IfThen, *While, *For:
		return true
	default:
		return false
	}
}

