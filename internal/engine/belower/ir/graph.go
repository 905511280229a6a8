// Package ir is the instruction graph consumed by the backend passes: blocks
// of scheduled nodes, operand edges with def-use tracking, value modes and
// allocator exclusion edges. It is free of any ISA specific thing; the
// architecture data of a node is carried opaquely as an Attr.
package ir

import (
	"fmt"
	"strings"

	"github.com/faddat/belower/internal/engine/belower/beapi"
)

// Graph is the instruction graph of one function. A Graph is not safe for
// concurrent use; independent functions use independent graphs.
type Graph struct {
	name       string
	nodes      beapi.Pool[Node]
	blocks     []*Block
	exclusions []Exclusion
}

// NewGraph returns an empty Graph for the function called name.
func NewGraph(name string) *Graph {
	return &Graph{name: name, nodes: beapi.NewPool[Node]()}
}

// Name returns the name of the function.
func (g *Graph) Name() string { return g.name }

// Reset clears the graph so it can be reused for another function.
func (g *Graph) Reset(name string) {
	g.name = name
	g.nodes.Reset()
	g.blocks = g.blocks[:0]
	g.exclusions = g.exclusions[:0]
}

// AllocateBlock appends a new Block to the layout.
func (g *Graph) AllocateBlock() *Block {
	b := &Block{id: BlockID(len(g.blocks)), g: g}
	g.blocks = append(g.blocks, b)
	return b
}

// Blocks returns the blocks in layout order.
func (g *Graph) Blocks() []*Block { return g.blocks }

// NewNode allocates an unscheduled node owning attr, defining one value per
// entry of results and reading ins.
func (g *Graph) NewNode(attr Attr, results []Mode, ins ...Value) *Node {
	if attr == nil {
		panic("BUG: node without attributes")
	}
	id := NodeID(g.nodes.Allocated())
	n := g.nodes.Allocate()
	n.id, n.g, n.attr = id, g, attr
	n.results = append(n.results[:0], results...)
	n.uses = make([][]Use, len(results))
	n.ins = make([]Value, len(ins))
	for i, v := range ins {
		if !v.Valid() {
			panic(fmt.Sprintf("BUG: operand %d of %s is invalid", i, n))
		}
		n.SetIn(i, v)
	}
	return n
}

// NewKeep allocates an unscheduled Keep node which only reads ins. Keep nodes
// model consumers outside of the backend, e.g. the function end.
func (g *Graph) NewKeep(ins ...Value) *Node {
	return g.NewNode(keepAttr{}, nil, ins...)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes.View(int(id))
}

// NodeCount returns the number of nodes ever allocated, scheduled or not.
func (g *Graph) NodeCount() int { return g.nodes.Allocated() }

// Nodes returns a snapshot of the scheduled nodes in layout order. Mutating
// the schedule while iterating over the snapshot is allowed.
func (g *Graph) Nodes() []*Node {
	var ret []*Node
	for _, b := range g.blocks {
		for cur := b.root; cur != nil; cur = cur.next {
			ret = append(ret, cur)
		}
	}
	return ret
}

// ReplaceAllUses redirects every operand edge reading old to read v instead.
func (g *Graph) ReplaceAllUses(old, v Value) {
	if old == v {
		return
	}
	for len(old.node.uses[old.n]) > 0 {
		u := old.node.uses[old.n][0]
		u.User.SetIn(u.Pos, v)
	}
	for i := range g.exclusions {
		e := &g.exclusions[i]
		if e.A == old {
			e.A = v
		}
		if e.B == old {
			e.B = v
		}
	}
}

// AddExclusion records that a and b must be assigned different registers.
func (g *Graph) AddExclusion(a, b Value) {
	g.exclusions = append(g.exclusions, Exclusion{A: a, B: b})
}

// Exclusions returns the exclusion edges added so far.
func (g *Graph) Exclusions() []Exclusion { return g.exclusions }

// Format returns the textual form of the graph.
func (g *Graph) Format() string {
	return g.FormatWith(func(n *Node) string { return n.Format() })
}

// FormatWith formats the graph using f for each node.
func (g *Graph) FormatWith(f func(*Node) string) string {
	var sb strings.Builder
	for _, b := range g.blocks {
		sb.WriteString(b.Name())
		sb.WriteString(":\n")
		for cur := b.root; cur != nil; cur = cur.next {
			sb.WriteByte('\t')
			sb.WriteString(f(cur))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
