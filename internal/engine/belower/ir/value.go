package ir

import "fmt"

// Value is one result of a Node. The zero Value is invalid.
type Value struct {
	node *Node
	n    int
}

// ValueInvalid is the invalid Value.
var ValueInvalid = Value{}

// Node returns the Node defining this value.
func (v Value) Node() *Node {
	return v.node
}

// Index returns the result index of this value on its defining Node.
func (v Value) Index() int {
	return v.n
}

// Valid returns true if this value is defined by a node.
func (v Value) Valid() bool {
	return v.node != nil
}

// Mode returns the Mode of this value.
func (v Value) Mode() Mode {
	return v.node.results[v.n]
}

// Uses returns the uses of this value. The returned slice must not be modified.
func (v Value) Uses() []Use {
	return v.node.uses[v.n]
}

// UseCount returns the number of operand edges reading this value.
func (v Value) UseCount() int {
	return len(v.node.uses[v.n])
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.Valid() {
		return "invalid"
	}
	if len(v.node.results) == 1 {
		return fmt.Sprintf("v%d", v.node.id)
	}
	return fmt.Sprintf("v%d.%d", v.node.id, v.n)
}

// Use is an operand edge: input Pos of User reads the value.
type Use struct {
	User *Node
	Pos  int
}

// Exclusion records that two values must not share a register even when
// their live ranges alone would not make them interfere.
type Exclusion struct {
	A, B Value
}
