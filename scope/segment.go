package scope

import (
	"github.com/marssaxman/radian/flowgraph"
	"github.com/marssaxman/radian/token"
)

// SegmentType is the closed set of ways a Segment can suspend (spec §3.5).
type SegmentType int

const (
	SegmentSync SegmentType = iota
	SegmentSyncFrom
	SegmentYield
	SegmentYieldFrom
)

func (t SegmentType) isYieldLike() bool { return t == SegmentYield || t == SegmentYieldFrom }
func (t SegmentType) isSyncLike() bool  { return t == SegmentSync || t == SegmentSyncFrom }

// pendingCapture is one (name -> slot reference) entry queued for the next
// segment, the mechanism spec §3.5 describes as "a queue of captured
// values (plus symbol→slot-ref map) for the *next* segment".
type pendingCapture struct {
	name string
	ref  *flowgraph.Node
}

// Segment is one asynchronous fragment of a scope (spec §3.5). Segments
// form a singly-linked chain anchored at the owning Scope; the chain is
// owned by the Scope (spec §9, "Cyclic pointer graphs") and must be fully
// packaged by Chain.Package before the scope exits.
type Segment struct {
	prev     *Segment
	typ      SegmentType
	snapshot map[string]*Symbol // symbol table at the moment of suspension
	yielded  *flowgraph.Node
	span     token.Span

	pending []pendingCapture
}

// Chain is the per-scope ordered list of segments plus the bookkeeping
// needed to keep them homogeneous (spec §3.5, "all segments in one scope
// must be homogeneously either sync-type or yield-type").
type Chain struct {
	tail *Segment
}

// Empty reports whether no segment has ever been pushed in this scope.
func (c *Chain) Empty() bool { return c.tail == nil }

// anchorType reports the type of the first segment ever pushed, which fixes the
// type every subsequent segment in this chain must match.
func (c *Chain) anchorType() (SegmentType, bool) {
	s := c.tail
	if s == nil {
		return 0, false
	}
	for s.prev != nil {
		s = s.prev
	}
	return s.typ, true
}

// Compatible reports whether pushing a segment of typ would keep the chain
// homogeneous.
func (c *Chain) Compatible(typ SegmentType) bool {
	anchor, ok := c.anchorType()
	if !ok {
		return true
	}
	if anchor.isSyncLike() {
		return typ.isSyncLike()
	}
	return typ.isYieldLike()
}

// push appends a new segment, snapshotting the current table and clearing
// it so following statements evaluate in a fresh segment context (spec
// §4.4 "PushSegment").
func (c *Chain) push(typ SegmentType, value *flowgraph.Node, table map[string]*Symbol, span token.Span) *Segment {
	snap := make(map[string]*Symbol, len(table))
	for k, v := range table {
		snap[k] = v
	}
	seg := &Segment{prev: c.tail, typ: typ, snapshot: snap, yielded: value, span: span}
	c.tail = seg
	return seg
}

// Segments returns the chain from first-pushed to last-pushed.
func (c *Chain) Segments() []*Segment {
	var out []*Segment
	for s := c.tail; s != nil; s = s.prev {
		out = append([]*Segment{s}, out...)
	}
	return out
}

// Package builds the iterator/action chain the segment machinery promises
// at scope exit (spec §4.4 "PackageSegmentedResult"): each segment's call
// to make_iterator/make_action wraps a thunk of the next segment, innermost
// (last-pushed) first, so the final fold produces the first segment's
// constructor call applied to a thunk of the rest.
//
// result is the terminal value produced once every segment has run; it is
// wrapped in make_terminator and becomes the base of the fold.
func (c *Chain) Package(pool *flowgraph.Pool, result *flowgraph.Node, span token.Span) *flowgraph.Node {
	segs := c.Segments()
	acc := pool.Call1(pool.Intrinsic(flowgraph.IntrinsicMakeTerminator), result, span)
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		thunk := pool.Function(acc, 0, "")
		switch s.typ {
		case SegmentSync:
			acc = pool.Call(pool.Intrinsic(flowgraph.IntrinsicMakeAction), []*flowgraph.Node{s.yielded, thunk}, s.span)
		case SegmentSyncFrom:
			acc = pool.Call(pool.Intrinsic(flowgraph.IntrinsicMakeSubtask), []*flowgraph.Node{s.yielded, thunk}, s.span)
		case SegmentYield:
			acc = pool.Call(pool.Intrinsic(flowgraph.IntrinsicMakeIterator), []*flowgraph.Node{s.yielded, thunk}, s.span)
		case SegmentYieldFrom:
			acc = pool.Call(pool.Intrinsic(flowgraph.IntrinsicMakeSubsequence), []*flowgraph.Node{s.yielded, thunk}, s.span)
		}
	}
	return acc
}
