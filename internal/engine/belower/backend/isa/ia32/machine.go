package ia32

import (
	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

// NewBackend returns a new backend for ia32.
func NewBackend(log logr.Logger) backend.Machine {
	return &machine{log: log}
}

// machine implements backend.Machine for ia32.
type machine struct {
	log logr.Logger
}

var _ backend.Machine = (*machine)(nil)

// Allocatable implements backend.Constraints.
func (m *machine) Allocatable(n *ir.Node) bool {
	_, ok := attrOf(n)
	return ok
}

// InReq implements backend.Constraints.
func (m *machine) InReq(n *ir.Node, pos int) backend.Requirement { return AttrOf(n).InReq(pos) }

// OutReq implements backend.Constraints.
func (m *machine) OutReq(n *ir.Node, pos int) backend.Requirement { return AttrOf(n).OutReq(pos) }

// Flags implements backend.Constraints.
func (m *machine) Flags(n *ir.Node) backend.Flags { return AttrOf(n).Flags() }

// OutReg implements backend.Constraints.
func (m *machine) OutReg(n *ir.Node, pos int) *backend.Register {
	a := AttrOf(n)
	if !a.HasOutReg(pos) {
		return nil
	}
	return a.regs[pos]
}

// SetOutReg implements backend.Constraints.
func (m *machine) SetOutReg(n *ir.Node, pos int, r *backend.Register) { AttrOf(n).SetOutReg(pos, r) }

// RegisterClasses implements backend.Machine.
func (m *machine) RegisterClasses() []*backend.RegClass { return classes }

// AssureConstraints implements backend.Machine.
func (m *machine) AssureConstraints(g *ir.Graph) backend.Stats {
	return AssureConstraints(g, m.log)
}

// LowerAfterRA implements backend.Machine.
func (m *machine) LowerAfterRA(g *ir.Graph, layout backend.FrameLayout, opts backend.LowerOptions) backend.Stats {
	return LowerAfterRA(g, layout, opts, m.log)
}

// Format implements backend.Machine.
func (m *machine) Format(g *ir.Graph) string { return g.FormatWith(FormatNode) }

// Reset implements backend.Machine.
func (m *machine) Reset() {}

// regOf returns the register holding v, or nil.
func regOf(v ir.Value) *backend.Register {
	a, ok := attrOf(v.Node())
	if !ok || !a.HasOutReg(v.Index()) {
		return nil
	}
	return a.regs[v.Index()]
}
