package backend

import "github.com/faddat/belower/internal/engine/belower/ir"

type (
	// Constraints exposes the register data of nodes to a register allocator.
	Constraints interface {
		// Allocatable returns true if n carries register requirements. Other
		// nodes only read values.
		Allocatable(n *ir.Node) bool

		// InReq returns the requirement of the operand at pos.
		InReq(n *ir.Node, pos int) Requirement

		// OutReq returns the requirement of the result at pos.
		OutReq(n *ir.Node, pos int) Requirement

		// Flags returns the allocator hints of n.
		Flags(n *ir.Node) Flags

		// OutReg returns the register assigned to the result at pos, or nil.
		OutReg(n *ir.Node, pos int) *Register

		// SetOutReg assigns r to the result at pos. Each result is assigned once.
		SetOutReg(n *ir.Node, pos int, r *Register)
	}

	// Allocator assigns registers to a graph prepared by Machine.AssureConstraints.
	Allocator interface {
		Allocate(g *ir.Graph, c Constraints) error
	}

	// Machine is a backend for a specific machine.
	Machine interface {
		Constraints

		// RegisterClasses returns the register classes of the machine.
		RegisterClasses() []*RegClass

		// AssureConstraints rewrites g so that every requirement can be met by the allocator.
		AssureConstraints(g *ir.Graph) Stats

		// LowerAfterRA rewrites the colored g into its final form.
		LowerAfterRA(g *ir.Graph, layout FrameLayout, opts LowerOptions) Stats

		// Format returns the textual form of g with machine specific details.
		Format(g *ir.Graph) string

		// Reset resets the machine state for the next compilation.
		Reset()
	}

	// LowerOptions are the policy switches of Machine.LowerAfterRA.
	LowerOptions struct {
		// DoCopy materializes copies repairing unhonored ties; otherwise they are only flagged.
		DoCopy bool
		// DoStat counts the rewrites.
		DoStat bool
	}
)

// Ensures that compiler[T] implements Compiler.
var _ Compiler = (*compiler[nopMachine])(nil)

// nopMachine is a Machine that does nothing.
// Defined here to do the type assertion above.
type nopMachine struct{}

// Allocatable implements Constraints.Allocatable.
func (nopMachine) Allocatable(*ir.Node) bool { return false }

// InReq implements Constraints.InReq.
func (nopMachine) InReq(*ir.Node, int) Requirement { return NoReq() }

// OutReq implements Constraints.OutReq.
func (nopMachine) OutReq(*ir.Node, int) Requirement { return NoReq() }

// Flags implements Constraints.Flags.
func (nopMachine) Flags(*ir.Node) Flags { return FlagsNone }

// OutReg implements Constraints.OutReg.
func (nopMachine) OutReg(*ir.Node, int) *Register { return nil }

// SetOutReg implements Constraints.SetOutReg.
func (nopMachine) SetOutReg(*ir.Node, int, *Register) {}

// RegisterClasses implements Machine.RegisterClasses.
func (nopMachine) RegisterClasses() []*RegClass { return nil }

// AssureConstraints implements Machine.AssureConstraints.
func (nopMachine) AssureConstraints(*ir.Graph) Stats { return Stats{} }

// LowerAfterRA implements Machine.LowerAfterRA.
func (nopMachine) LowerAfterRA(*ir.Graph, FrameLayout, LowerOptions) Stats { return Stats{} }

// Format implements Machine.Format.
func (nopMachine) Format(g *ir.Graph) string { return g.Format() }

// Reset implements Machine.Reset.
func (nopMachine) Reset() {}
