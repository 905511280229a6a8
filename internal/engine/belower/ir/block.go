package ir

import "fmt"

// BlockID is the unique identifier of a Block within a Graph.
type BlockID uint32

// Block is a basic block holding a scheduled, doubly linked list of nodes.
type Block struct {
	id         BlockID
	g          *Graph
	root, tail *Node
}

// ID returns the BlockID of this block.
func (b *Block) ID() BlockID { return b.id }

// Name returns the name of this block, e.g. "blk0".
func (b *Block) Name() string {
	return fmt.Sprintf("blk%d", b.id)
}

// String implements fmt.Stringer.
func (b *Block) String() string { return b.Name() }

// Root returns the first node of this block.
func (b *Block) Root() *Node { return b.root }

// Tail returns the last node of this block.
func (b *Block) Tail() *Node { return b.tail }

// Len returns the number of scheduled nodes.
func (b *Block) Len() (ret int) {
	for cur := b.root; cur != nil; cur = cur.next {
		ret++
	}
	return
}

// Append schedules n at the end of this block.
func (b *Block) Append(n *Node) {
	b.checkUnscheduled(n)
	n.blk = b
	if b.tail == nil {
		b.root, b.tail = n, n
		return
	}
	b.tail.next = n
	n.prev = b.tail
	b.tail = n
}

// InsertBefore schedules n immediately before at.
func (b *Block) InsertBefore(n, at *Node) {
	b.checkUnscheduled(n)
	if at.blk != b {
		panic(fmt.Sprintf("BUG: %s is not scheduled in %s", at, b))
	}
	n.blk = b
	n.prev, n.next = at.prev, at
	if at.prev != nil {
		at.prev.next = n
	} else {
		b.root = n
	}
	at.prev = n
}

// InsertAfter schedules n immediately after at.
func (b *Block) InsertAfter(n, at *Node) {
	b.checkUnscheduled(n)
	if at.blk != b {
		panic(fmt.Sprintf("BUG: %s is not scheduled in %s", at, b))
	}
	n.blk = b
	n.prev, n.next = at, at.next
	if at.next != nil {
		at.next.prev = n
	} else {
		b.tail = n
	}
	at.next = n
}

// Remove unschedules n and drops its operand edges. n must not have uses left.
func (b *Block) Remove(n *Node) {
	if n.blk != b {
		panic(fmt.Sprintf("BUG: %s is not scheduled in %s", n, b))
	}
	if n.HasUses() {
		panic(fmt.Sprintf("BUG: removing %s which still has uses", n))
	}
	for i := range n.ins {
		n.SetIn(i, ValueInvalid)
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		b.root = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		b.tail = n.prev
	}
	n.prev, n.next, n.blk = nil, nil, nil
}

func (b *Block) checkUnscheduled(n *Node) {
	if n.blk != nil {
		panic(fmt.Sprintf("BUG: %s is already scheduled in %s", n, n.blk))
	}
}
