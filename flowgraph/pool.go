package flowgraph

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/marssaxman/radian/token"
)

// Delegate is the driver callback a Pool notifies as it constructs new
// Functions and Imports (spec §3.3 invariants 3 and 4). The engine package
// is the real implementation; tests may use a slice-backed stub.
type Delegate interface {
	// EmitFunction is called exactly once per distinct Function, in
	// creation order.
	EmitFunction(fn *Node)
	// NoticeImport is called exactly once per distinct Import, with the
	// source location of its first construction.
	NoticeImport(imp *Node, span token.Span)
}

// Pool is the hash-consing arena. One Pool exists per compilation unit; it
// must not outlive the scopes that borrow its node references (spec §5).
type Pool struct {
	log      hclog.Logger
	delegate Delegate
	cache    map[string]*Node

	parameters  []*Node
	slots       []*Node
	placeholders []*Node

	tainted     bool
	taintReason string
	taintSpan   token.Span

	privacyPrefix string
	privateSeq    int

	scratch map[string]*Node // member-dispatcher synthesis cache, spec §4.11
}

// NewPool constructs an empty Pool for one compilation unit. unitName
// (typically the source file path) seeds the private-identifier mangling
// prefix, which is the djb2 hash of unitName alone; there is no uniqueness
// counter, so two pools with the same unitName share a prefix.
func NewPool(unitName string, delegate Delegate, log hclog.Logger) *Pool {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Pool{
		log:           log.Named("pool"),
		delegate:      delegate,
		cache:         map[string]*Node{},
		scratch:       map[string]*Node{},
		privacyPrefix: fmt.Sprintf("_%08x", djb2(unitName)),
	}
}

// UniqueName returns a fresh, stable-within-this-pool name built from
// prefix, used for synthetic bindings that must not collide across sibling
// constructs in the same outer scope (the for loop's iterator variable,
// spec §4.9 point 1, chief among them).
func (p *Pool) UniqueName(prefix string) string {
	p.privateSeq++
	return fmt.Sprintf("%s#%d", prefix, p.privateSeq)
}

func djb2(s string) uint32 {
	var hash uint32 = 5381
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint32(s[i])
	}
	return hash
}

// MangledPrivateName rewrites a private identifier (one beginning with
// `_`) into a per-compilation-unit mangled form so it cannot collide with
// the same-spelled private identifier in another module (spec §3.3
// invariant 5). Each distinct source name gets a stable mangled form within
// one Pool (calling this twice with the same name returns the same result)
// but two different Pools never produce the same mangled name for the same
// source spelling.
func (p *Pool) MangledPrivateName(name string) string {
	if !strings.HasPrefix(name, "_") {
		return name
	}
	key := "private:" + name
	if n, ok := p.cache[key]; ok {
		return n.Text
	}
	mangled := p.privacyPrefix + name
	p.cache[key] = &Node{Kind: KindValue, Text: mangled}
	return mangled
}

// taint records the first invalid-construction condition. Once tainted,
// the pool's constructors keep returning sentinels instead of panicking;
// Close asserts that a matching error was reported (spec §3.3 invariant 6).
func (p *Pool) taint(reason string, span token.Span) {
	if p.tainted {
		return
	}
	p.tainted = true
	p.taintReason = reason
	p.taintSpan = span
	p.log.Debug("pool tainted", "reason", reason)
}

// Tainted reports whether any constructor has ever detected an invalid
// operand shape.
func (p *Pool) Tainted() bool { return p.tainted }

// intern looks up key in the cache, storing and returning build() on a
// miss. This is the single chokepoint that gives every DFG node pointer
// equality ⇔ structural equality (spec §3.3 invariant 1).
func (p *Pool) intern(key string, build func() *Node) *Node {
	if n, ok := p.cache[key]; ok {
		return n
	}
	n := build()
	n.key = key
	p.cache[key] = n
	return n
}

func keyOf(n *Node) string {
	if n == nil {
		return "nil"
	}
	return n.key
}

// sentinel is returned by a tainted construction: a Throw of :undefined,
// matching the original's "Nil()" fallback but giving the rest of the
// pipeline something non-nil to keep operating on.
func (p *Pool) sentinel(span token.Span) *Node {
	return p.Throw(p.Symbol("undefined"), span)
}

// Void returns the interned void constant.
func (p *Pool) Void() *Node {
	return p.intern("value:void", func() *Node { return &Node{Kind: KindValue, ValueKind: ValueVoid} })
}

// Number returns the interned exact-number constant for the given literal
// text (base 10, hex, octal, or binary — the radix is a parse-time detail
// the pool doesn't need to retain beyond the literal text itself).
func (p *Pool) Number(text string) *Node {
	key := "num:" + text
	return p.intern(key, func() *Node { return &Node{Kind: KindValue, ValueKind: ValueExactNumber, Text: text} })
}

// Float returns the interned float constant for the given literal text.
func (p *Pool) Float(text string) *Node {
	key := "float:" + text
	return p.intern(key, func() *Node { return &Node{Kind: KindValue, ValueKind: ValueFloat, Text: text} })
}

// String returns the interned string constant.
func (p *Pool) String(text string) *Node {
	key := "str:" + text
	return p.intern(key, func() *Node { return &Node{Kind: KindValue, ValueKind: ValueString, Text: text} })
}

// Symbol returns the interned symbol constant (a `:name` literal).
func (p *Pool) Symbol(name string) *Node {
	key := "sym:" + name
	return p.intern(key, func() *Node { return &Node{Kind: KindValue, ValueKind: ValueSymbol, Text: name} })
}

// Self returns the interned reference to the enclosing function's own
// closure.
func (p *Pool) Self() *Node {
	return p.intern("self", func() *Node { return &Node{Kind: KindSelf} })
}

// Parameter returns the interned positional-parameter reference for index.
func (p *Pool) Parameter(index int) *Node {
	for len(p.parameters) <= index {
		i := len(p.parameters)
		p.parameters = append(p.parameters, &Node{Kind: KindParameter, Index: i, key: fmt.Sprintf("param:%d", i)})
	}
	return p.parameters[index]
}

// Slot returns the interned captured-free-variable reference for index.
func (p *Pool) Slot(index int) *Node {
	for len(p.slots) <= index {
		i := len(p.slots)
		p.slots = append(p.slots, &Node{Kind: KindSlot, Index: i, key: fmt.Sprintf("slot:%d", i)})
	}
	return p.slots[index]
}

// Placeholder returns the interned loop-analyzer temporary for index.
// Every Placeholder returned by a Pool must be rewritten to a Slot or a
// parameter-tuple access before the pool is closed (spec §3.3, Placeholder).
func (p *Pool) Placeholder(index int) *Node {
	for len(p.placeholders) <= index {
		i := len(p.placeholders)
		p.placeholders = append(p.placeholders, &Node{Kind: KindPlaceholder, Index: i, key: fmt.Sprintf("placeholder:%d", i)})
	}
	return p.placeholders[index]
}

// Function interns a named, arity-fixed function whose result is body. New
// Functions are pushed to the Delegate in creation order exactly once
// (spec §3.3 invariant 3).
func (p *Pool) Function(body *Node, arity int, name string) *Node {
	if body == nil {
		p.taint("Function body is nil", token.Span{})
		return p.sentinel(token.Span{})
	}
	key := fmt.Sprintf("fn:%s:%d:%s", name, arity, keyOf(body))
	isNew := false
	n := p.intern(key, func() *Node {
		isNew = true
		return &Node{Kind: KindFunction, Body: body, Arity: arity, Name: name}
	})
	if isNew && p.delegate != nil {
		p.delegate.EmitFunction(n)
	}
	return n
}

// Import interns an unresolved module reference and notifies the delegate
// with the source location of its first construction (spec §3.3 invariant
// 4).
func (p *Pool) Import(name, dir string, span token.Span) *Node {
	key := fmt.Sprintf("import:%s:%s", dir, name)
	isNew := false
	n := p.intern(key, func() *Node {
		isNew = true
		return &Node{Kind: KindImport, ImportName: name, ImportDir: dir}
	})
	if isNew && p.delegate != nil {
		p.delegate.NoticeImport(n, span)
	}
	return n
}

// Intrinsic interns a reference to a fixed runtime primitive by name. See
// package intrinsics-equivalent list in flowgraph/intrinsics.go.
func (p *Pool) Intrinsic(id string) *Node {
	key := "intrinsic:" + id
	return p.intern(key, func() *Node { return &Node{Kind: KindIntrinsic, IntrinsicID: id} })
}

// Operation interns a non-terminal node of the given kind over (left,
// right). Every shape check for a specific Operation kind lives in the
// higher-level builders in builders.go; this is the raw constructor they
// all funnel through, so taint accounting stays in one place.
func (p *Pool) Operation(op OpKind, left, right *Node, span token.Span) *Node {
	if left == nil && op != OpArg {
		p.taint(fmt.Sprintf("%s: left operand is nil", op), span)
		return p.sentinel(span)
	}
	key := fmt.Sprintf("op:%s:%s:%s", op, keyOf(left), keyOf(right))
	return p.intern(key, func() *Node { return &Node{Kind: KindOperation, Op: op, Left: left, Right: right} })
}

// Inductor wraps op, marking it as depending only on the enclosing loop's
// prime induction variable (spec §4.9).
func (p *Pool) Inductor(op *Node) *Node {
	if op == nil {
		p.taint("Inductor: wrapped operation is nil", token.Span{})
		return p.sentinel(token.Span{})
	}
	key := "inductor:" + keyOf(op)
	return p.intern(key, func() *Node { return &Node{Kind: KindInductor, Wraps: op} })
}

// Scratch retrieves a cached value from the pool's scratch pad, the
// mechanism the member dispatcher (package scope) uses to synthesize its
// object function, getter, and setter at most once per compilation unit
// (spec §4.11, final paragraph).
func (p *Pool) Scratch(key string) (*Node, bool) {
	n, ok := p.scratch[key]
	return n, ok
}

// SetScratch stores a value in the pool's scratch pad under key.
func (p *Pool) SetScratch(key string, n *Node) {
	p.scratch[key] = n
}

// Close finalizes the pool. didReportError must be true if the host's
// Reporter received at least one diagnostic during this compilation unit.
// If the pool was tainted without a matching report, that is a compiler
// bug (spec §3.3 invariant 6) and Close panics rather than silently
// emitting a broken program.
func (p *Pool) Close(didReportError bool) {
	if p.tainted && !didReportError {
		err := errors.Errorf("flowgraph: pool tainted (%s) but no error was ever reported", p.taintReason)
		panic(errors.Wrapf(err, "at %s line %d", p.taintSpan.Start.Path, p.taintSpan.Start.Line))
	}
}
