package ir

import (
	"fmt"
	"strings"
)

// NodeID is the unique identifier of a Node within a Graph.
type NodeID uint32

// Attr is the architecture data owned by a Node. Exactly one Node owns an
// Attr, and the Attr is only reached through that Node.
type Attr interface {
	// OpName returns the mnemonic of the node.
	OpName() string
}

// Node is an instruction in the graph. Operand edges point from a node to
// the values it reads, and each value tracks its uses so that edges can be
// redirected in constant time per use.
type Node struct {
	id         NodeID
	g          *Graph
	blk        *Block
	prev, next *Node
	ins        []Value
	results    []Mode
	uses       [][]Use
	attr       Attr
}

// ID returns the NodeID of this node.
func (n *Node) ID() NodeID { return n.id }

// Graph returns the Graph this node belongs to.
func (n *Node) Graph() *Graph { return n.g }

// Block returns the block this node is scheduled in, or nil if the node is not scheduled.
func (n *Node) Block() *Block { return n.blk }

// Prev returns the previous node in the schedule.
func (n *Node) Prev() *Node { return n.prev }

// Next returns the next node in the schedule.
func (n *Node) Next() *Node { return n.next }

// Attr returns the architecture data of this node.
func (n *Node) Attr() Attr { return n.attr }

// OpName returns the mnemonic of this node.
func (n *Node) OpName() string { return n.attr.OpName() }

// NumIns returns the number of operands.
func (n *Node) NumIns() int { return len(n.ins) }

// In returns the i-th operand.
func (n *Node) In(i int) Value { return n.ins[i] }

// Ins returns the operands. The returned slice must not be modified.
func (n *Node) Ins() []Value { return n.ins }

// SetIn redirects the i-th operand edge to v.
func (n *Node) SetIn(i int, v Value) {
	old := n.ins[i]
	if old == v {
		return
	}
	if old.Valid() {
		old.node.removeUse(old.n, n, i)
	}
	n.ins[i] = v
	if v.Valid() {
		v.node.uses[v.n] = append(v.node.uses[v.n], Use{User: n, Pos: i})
	}
}

// SwapIns exchanges the operands at positions i and j.
func (n *Node) SwapIns(i, j int) {
	a, b := n.ins[i], n.ins[j]
	n.SetIn(i, ValueInvalid)
	n.SetIn(j, a)
	n.SetIn(i, b)
}

// NumResults returns the number of values this node defines.
func (n *Node) NumResults() int { return len(n.results) }

// Result returns the i-th value defined by this node.
func (n *Node) Result(i int) Value {
	if i >= len(n.results) {
		panic(fmt.Sprintf("BUG: %s has no result %d", n, i))
	}
	return Value{node: n, n: i}
}

// HasUses returns true if any result of this node is read.
func (n *Node) HasUses() bool {
	for _, us := range n.uses {
		if len(us) > 0 {
			return true
		}
	}
	return false
}

// Before returns true if n is scheduled strictly before other in the same block.
func (n *Node) Before(other *Node) bool {
	if n.blk == nil || n.blk != other.blk {
		return false
	}
	for cur := n.next; cur != nil; cur = cur.next {
		if cur == other {
			return true
		}
	}
	return false
}

func (n *Node) removeUse(result int, user *Node, pos int) {
	us := n.uses[result]
	for i := range us {
		if us[i].User == user && us[i].Pos == pos {
			n.uses[result] = append(us[:i], us[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("BUG: %s does not use %s at %d", user, Value{node: n, n: result}, pos))
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.OpName(), n.id)
}

// Format returns the textual form of this node, e.g. "v3 = Add v1, v2".
func (n *Node) Format() string {
	var sb strings.Builder
	if len(n.results) > 0 {
		for i := range n.results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(n.Result(i).String())
		}
		sb.WriteString(" = ")
	}
	sb.WriteString(n.OpName())
	for i, in := range n.ins {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(in.String())
	}
	return sb.String()
}

type keepAttr struct{}

// OpName implements Attr.
func (keepAttr) OpName() string { return "Keep" }

// IsKeep returns true if n is a Keep node created by Graph.NewKeep.
func (n *Node) IsKeep() bool {
	_, ok := n.attr.(keepAttr)
	return ok
}
