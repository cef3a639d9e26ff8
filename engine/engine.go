package engine

import (
	"github.com/hashicorp/go-hclog"

	"github.com/marssaxman/radian/analyzer"
	"github.com/marssaxman/radian/ast"
	"github.com/marssaxman/radian/diag"
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/parser"
	"github.com/marssaxman/radian/scope"
	"github.com/marssaxman/radian/token"
)

// Importer is the host-provided module loader (spec §6 "Module loader").
// The engine calls Import exactly once per distinct Import node, in
// creation order, and never waits for or inspects a return value — module
// resolution happens out of band, on the host's own schedule.
type Importer interface {
	Import(name, dir string, span token.Span)
}

// nopImporter is used when the caller doesn't need import resolution
// (e.g. compiling a single self-contained unit in a test).
type nopImporter struct{}

func (nopImporter) Import(name, dir string, span token.Span) {}

// Engine drives one compilation unit end to end: token stream → parser →
// statement analyzer → DFG pool, collecting the Functions the pool emits
// in creation order (spec §5 "Determinism is required: given identical
// input, the engine must emit Functions in identical order").
type Engine struct {
	opts     Options
	report   diag.Reporter
	log      hclog.Logger
	importer Importer
	pool     *flowgraph.Pool
	funcs    []*flowgraph.Node
}

// EmitFunction implements flowgraph.Delegate.
func (e *Engine) EmitFunction(fn *flowgraph.Node) {
	e.funcs = append(e.funcs, fn)
}

// NoticeImport implements flowgraph.Delegate.
func (e *Engine) NoticeImport(imp *flowgraph.Node, span token.Span) {
	e.importer.Import(imp.ImportName, imp.ImportDir, span)
}

// Compile lowers one token stream into a DFG under unitName (typically the
// source file path, used to seed private-identifier mangling). report and
// importer may be nil; a nil report gets a fresh diag.Collector, a nil
// importer is a no-op. log defaults to opts.Logger() when nil.
func Compile(unitName string, tokens token.Stream, opts Options, report diag.Reporter, importer Importer, log hclog.Logger) *Engine {
	if report == nil {
		report = diag.NewCollector()
	}
	if importer == nil {
		importer = nopImporter{}
	}
	if log == nil {
		log = opts.Logger()
	}
	e := &Engine{opts: opts, report: report, log: log, importer: importer}
	e.pool = flowgraph.NewPool(unitName, e, log.Named("pool"))

	root := scope.NewRoot(e.pool, report, log.Named("scope"), token.Span{})
	moduleScope := root.OpenModule(unitName, token.Span{})

	p := parser.New(tokens, report, log.Named("parser"))
	bal := parser.NewBalancer(p)
	var stmts []ast.Statement
	for !bal.AtEOF() {
		stmts = append(stmts, bal.Next())
	}
	stmts = append(stmts, bal.Finish()...)

	az := analyzer.New(report, log.Named("analyzer"))
	az.Run(moduleScope, stmts)

	e.pool.Close(report.HasReceivedReport())
	return e
}

// Functions returns a pull iterator over every Function this compilation
// unit emitted, in creation order (spec §6 "DFG stream").
func (e *Engine) Functions() *FunctionStream {
	return &FunctionStream{funcs: e.funcs}
}

// Reporter returns the Reporter this Engine was built with, so a host that
// passed nil can still retrieve the diag.Collector Compile created.
func (e *Engine) Reporter() diag.Reporter { return e.report }

// FunctionStream is a pull iterator of DFG Function nodes (spec §6 "DFG
// stream (output)... a pull iterator of Function nodes").
type FunctionStream struct {
	funcs []*flowgraph.Node
	pos   int
}

// Next returns the next Function and true, or (nil, false) once exhausted.
func (s *FunctionStream) Next() (*flowgraph.Node, bool) {
	if s.pos >= len(s.funcs) {
		return nil, false
	}
	fn := s.funcs[s.pos]
	s.pos++
	return fn, true
}
