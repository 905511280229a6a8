package ia32

import (
	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

// LowerAfterRA rewrites the colored graph g into its final form. Every result
// with a register requirement must have a register assigned.
//
// Ties the allocator did not honor are repaired by swapping commutative
// operands or, with opts.DoCopy, by a copy into the result register. Copies
// within one register are removed. Nodes using the frame are bound to slots
// of layout, and permutations are lowered to moves and exchanges.
//
// The rewrites are counted only with opts.DoStat.
func LowerAfterRA(g *ir.Graph, layout backend.FrameLayout, opts backend.LowerOptions, log logr.Logger) backend.Stats {
	l := lowerer{g: g, log: log}

	nodes := g.Nodes()
	for _, n := range nodes {
		if a, ok := attrOf(n); ok {
			checkColored(n, a)
		}
	}
	for _, n := range nodes {
		if a, ok := attrOf(n); ok {
			l.repairTies(n, a, opts.DoCopy)
		}
	}
	l.stats.Add(backend.StatSelfCopy, EliminateSelfCopies(g))
	l.bindFrame(layout)
	for _, n := range g.Nodes() {
		if a, ok := attrOf(n); ok && a.op == OpPerm {
			l.lowerPerm(n, a)
		}
	}

	if !opts.DoStat {
		return backend.Stats{}
	}
	return l.stats
}

type lowerer struct {
	g     *ir.Graph
	log   logr.Logger
	stats backend.Stats
}

func checkColored(n *ir.Node, a *Attr) {
	for i, req := range a.outReqs {
		if req.IsNone() {
			continue
		}
		r := a.regs[i]
		if r == nil {
			backend.Fatalf(n, "assigned_registers", "result %d has no register", i)
		}
		if !req.Allows(r) {
			backend.Fatalf(n, "assigned_registers", "result %d assigned %s violating %s", i, r, req)
		}
	}
}

// inReg returns the register of operand pos of n. Panics if there is none.
func inReg(n *ir.Node, pos int) *backend.Register {
	r := regOf(n.In(pos))
	if r == nil {
		backend.Fatalf(n, "assigned_registers", "operand %d (%s) has no register", pos, n.In(pos))
	}
	return r
}

// newCopyTo allocates an unscheduled copy of v into r.
func newCopyTo(g *ir.Graph, v ir.Value, r *backend.Register) *ir.Node {
	c, a := newCopy(g, v)
	a.SetOutReg(0, r)
	return c
}

func (l *lowerer) repairTies(n *ir.Node, a *Attr, doCopy bool) {
	for i, out := range a.outReqs {
		t, ok := out.Same()
		if !ok {
			continue
		}
		ro := a.OutReg(i)
		if inReg(n, t) == ro {
			continue
		}

		if a.commutative && t < 2 {
			o := 1 - t
			if inReg(n, o) == ro && a.inReqs[0].Allows(inReg(n, 1)) && a.inReqs[1].Allows(inReg(n, 0)) {
				n.SwapIns(0, 1)
				l.stats.Add(backend.StatRepairSwap, 1)
				l.log.V(1).Info("swapped operands to honor tie", "node", n.String(), "result", i)
				continue
			}
		}

		for j := 0; j < n.NumIns(); j++ {
			if j != t && regOf(n.In(j)) == ro {
				backend.Fatalf(n, "assigned_registers", "result %d tied to operand %d but %s also holds operand %d", i, t, ro, j)
			}
		}

		if !doCopy {
			l.stats.Add(backend.StatRepairFlagged, 1)
			l.log.V(1).Info("unhonored tie", "node", n.String(), "result", i, "register", ro.Name(), "operand", inReg(n, t).Name())
			continue
		}
		c := newCopyTo(l.g, n.In(t), ro)
		n.Block().InsertBefore(c, n)
		n.SetIn(t, c.Result(0))
		l.stats.Add(backend.StatRepairCopy, 1)
		l.log.V(1).Info("inserted repair copy", "node", n.String(), "result", i, "copy", c.String())
	}
}

// EliminateSelfCopies removes the copies whose source and destination
// registers are the same and returns how many were removed.
func EliminateSelfCopies(g *ir.Graph) (removed int) {
	for _, n := range g.Nodes() {
		a, ok := attrOf(n)
		if !ok || a.op != OpCopy || !a.HasOutReg(0) {
			continue
		}
		src := n.In(0)
		if regOf(src) != a.regs[0] {
			continue
		}
		g.ReplaceAllUses(n.Result(0), src)
		n.Block().Remove(n)
		removed++
	}
	return
}

// frameKey returns the node identifying the frame slot n accesses. A reload
// reads the slot of the spill defining its memory operand.
func frameKey(n *ir.Node, a *Attr) *ir.Node {
	if a.op == OpReload {
		if sa, ok := attrOf(n.In(0).Node()); ok && sa.op == OpSpill {
			return n.In(0).Node()
		}
	}
	return n
}

func (l *lowerer) bindFrame(layout backend.FrameLayout) {
	var bound []*Attr
	for _, n := range l.g.Nodes() {
		a, ok := attrOf(n)
		if !ok || !a.useFrame {
			continue
		}
		if a.frameEnt != nil {
			backend.Fatalf(n, "frame_entity", "already bound to %s", a.frameEnt)
		}
		size := int64(a.lsMode.Bits()) / 8
		a.frameEnt = layout.Slot(frameKey(n, a), size)
		bound = append(bound, a)
	}
	// Offsets are only final once every slot is requested.
	for _, a := range bound {
		a.ExtendOffset(layout.Offset(a.frameEnt).String(), '+')
		a.amFlavour |= AMFlavourB
		l.stats.Add(backend.StatFrameBinding, 1)
		l.log.V(1).Info("bound frame entity", "node", a.owner.String(), "entity", a.frameEnt.String())
	}
}
