package flowgraph

import "github.com/marssaxman/radian/token"

// Substitute walks root and rebuilds it with every node in repl replaced by
// its mapped value, reusing the pool's own constructors so the rewritten
// tree is re-interned exactly like anything else the pool builds. This is
// how While/For loop bodies resolve their Placeholder references once the
// invariant/update partition is known (spec §4.8 point 2, §4.9): a
// Placeholder is never mutated in place, since every Node is immutable once
// constructed, so the only way to "rewrite" one is to rebuild everything
// that transitively contains it.
func (p *Pool) Substitute(root *Node, repl map[*Node]*Node) *Node {
	if root == nil {
		return nil
	}
	memo := map[*Node]*Node{}
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		if r, ok := repl[n]; ok {
			return r
		}
		if m, ok := memo[n]; ok {
			return m
		}
		var out *Node
		switch n.Kind {
		case KindValue, KindSelf, KindParameter, KindSlot, KindIntrinsic, KindImport:
			out = n
		case KindPlaceholder:
			// Unresolved placeholder: leave as-is. The caller (loop Exit)
			// is expected to have supplied a replacement for every
			// placeholder this scope ever allocated.
			out = n
		case KindFunction:
			out = p.Function(walk(n.Body), n.Arity, n.Name)
		case KindOperation:
			out = p.Operation(n.Op, walk(n.Left), walk(n.Right), token.Span{})
		case KindInductor:
			out = p.Inductor(walk(n.Wraps))
		default:
			out = n
		}
		memo[n] = out
		return out
	}
	return walk(root)
}
