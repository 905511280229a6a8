package ia32

import (
	"fmt"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

// AssureConstraints rewrites g so that a register allocator can honor every
// requirement of its ia32 nodes without splitting live ranges:
//
//   - a result tied to an input which is still needed after the node either
//     gets the operands of a commutative node swapped, or reads a fresh copy;
//   - a result that must differ from a dying input gets an exclusion edge, and
//     reads a copy for its tied input when both inputs are the same value;
//   - an operand pinned to one register gets a copy when its value is shared.
//
// Contradictory requirements panic with *backend.InvariantError.
func AssureConstraints(g *ir.Graph, log logr.Logger) backend.Stats {
	as := assurer{g: g, log: log}
	for _, n := range g.Nodes() {
		a, ok := attrOf(n)
		if !ok || a.op == OpPerm || a.op == OpXchg {
			continue
		}
		checkContradictions(n, a)
		as.ties(n, a)
		as.pinnedInputs(n, a)
		as.exclusions(n, a)
		as.pinnedResults(n, a)
		if beapi.AssureLoggingEnabled {
			fmt.Printf("assured %s\n%s", n, Dump(n))
		}
	}
	return as.stats
}

type assurer struct {
	g     *ir.Graph
	log   logr.Logger
	stats backend.Stats
}

func checkContradictions(n *ir.Node, a *Attr) {
	for i, out := range a.outReqs {
		if t, ok := out.Same(); ok {
			in := a.inReqs[t]
			switch {
			case in.IsNone():
				backend.Fatalf(n, "out_requirements", "result %d tied to input %d without register", i, t)
			case in.Class() != out.Class():
				backend.Fatalf(n, "out_requirements", "result %d of class %s tied to input %d of class %s",
					i, out.Class(), t, in.Class())
			case out.Limited() != 0 && in.Limited() != 0 && out.Limited()&in.Limited() == 0:
				backend.Fatalf(n, "out_requirements", "result %d limited to %s tied to input %d limited to %s",
					i, out.Limited().Format(out.Class()), t, in.Limited().Format(in.Class()))
			}
		}
		if d, ok := out.Different(); ok {
			in := a.inReqs[d]
			if in.IsNone() {
				backend.Fatalf(n, "out_requirements", "result %d must differ from input %d without register", i, d)
			}
			ro, ok1 := out.Single()
			ri, ok2 := in.Single()
			if ok1 && ok2 && ro == ri {
				backend.Fatalf(n, "out_requirements", "result %d must differ from input %d but both are pinned to %s", i, d, ro)
			}
		}
	}
}

// livesPast returns true if v is read after n.
func livesPast(v ir.Value, n *ir.Node) bool {
	for _, u := range v.Uses() {
		if u.User == n {
			continue
		}
		if u.User.Block() != n.Block() || n.Before(u.User) {
			return true
		}
	}
	return false
}

// copyCost estimates the cost of copying v. Values which can be recomputed
// are cheaper to duplicate.
func copyCost(v ir.Value) int {
	if a, ok := attrOf(v.Node()); ok && a.flags.Has(backend.FlagRematerializable) {
		return 1
	}
	return 2
}

// copyBefore makes operand pos of n read a fresh copy of its value.
func (as *assurer) copyBefore(n *ir.Node, pos int) *ir.Node {
	c, _ := newCopy(as.g, n.In(pos))
	n.Block().InsertBefore(c, n)
	n.SetIn(pos, c.Result(0))
	return c
}

func (as *assurer) ties(n *ir.Node, a *Attr) {
	for i, out := range a.outReqs {
		t, ok := out.Same()
		if !ok || !livesPast(n.In(t), n) {
			continue
		}

		if a.commutative && t < 2 && a.inReqs[0].Class() == a.inReqs[1].Class() {
			v, w := n.In(t), n.In(1-t)
			if w != v {
				if !livesPast(w, n) {
					n.SwapIns(0, 1)
					as.stats.Add(backend.StatOperandSwap, 1)
					as.log.V(1).Info("swapped operands", "node", n.String(), "result", i)
					continue
				}
				// Both operands are needed later: copy the cheaper one.
				if copyCost(w) < copyCost(v) {
					n.SwapIns(0, 1)
					as.stats.Add(backend.StatOperandSwap, 1)
				}
			}
		}

		c := as.copyBefore(n, t)
		as.stats.Add(backend.StatTieCopy, 1)
		as.log.V(1).Info("inserted tie copy", "node", n.String(), "result", i, "copy", c.String())
	}
}

func (as *assurer) exclusions(n *ir.Node, a *Attr) {
	for i, out := range a.outReqs {
		d, ok := out.Different()
		if !ok {
			continue
		}
		if t, ok := out.Same(); ok && n.In(t) == n.In(d) {
			// The result cannot share a register with its tied input and
			// differ from it at once.
			c := as.copyBefore(n, t)
			as.stats.Add(backend.StatTieCopy, 1)
			as.log.V(1).Info("inserted tie copy", "node", n.String(), "result", i, "copy", c.String())
		}
		v := n.In(d)
		if livesPast(v, n) {
			// v interferes with the result anyway.
			continue
		}
		as.g.AddExclusion(n.Result(i), v)
		as.stats.Add(backend.StatExclusion, 1)
		as.log.V(1).Info("added exclusion", "node", n.String(), "result", i, "input", d)
	}
}

// conflictsWithPin returns true if pinning operand pos of n to r could force
// a wrong value into r for another reader or for the producer of the operand.
func conflictsWithPin(n *ir.Node, pos int, r *backend.Register) bool {
	v := n.In(pos)
	if pa, ok := attrOf(v.Node()); ok && !pa.outReqs[v.Index()].Allows(r) {
		return true
	}
	a := AttrOf(n)
	for _, u := range v.Uses() {
		if u.User != n {
			return true
		}
		if u.Pos != pos && (!a.inReqs[u.Pos].Allows(r) || tiedApart(a, u.Pos, pos)) {
			return true
		}
	}
	return false
}

// tiedApart returns true if a result is tied to input t and must differ from input d.
func tiedApart(a *Attr, t, d int) bool {
	for _, out := range a.outReqs {
		st, ok1 := out.Same()
		sd, ok2 := out.Different()
		if ok1 && ok2 && st == t && sd == d {
			return true
		}
	}
	return false
}

func (as *assurer) pinnedInputs(n *ir.Node, a *Attr) {
	for pos, req := range a.inReqs {
		r, ok := req.Single()
		if !ok || !conflictsWithPin(n, pos, r) {
			continue
		}
		c := as.copyBefore(n, pos)
		as.stats.Add(backend.StatPinCopy, 1)
		as.log.V(1).Info("inserted pin copy", "node", n.String(), "input", pos, "register", r.Name(), "copy", c.String())
	}
}

func (as *assurer) pinnedResults(n *ir.Node, a *Attr) {
	for i, req := range a.outReqs {
		r, ok := req.Single()
		if !ok {
			continue
		}
		v := n.Result(i)
		if v.UseCount() < 2 {
			continue
		}
		uses := append([]ir.Use(nil), v.Uses()...)
		c, _ := newCopy(as.g, v)
		n.Block().InsertAfter(c, n)
		for _, u := range uses {
			u.User.SetIn(u.Pos, c.Result(0))
		}
		as.stats.Add(backend.StatPinCopy, 1)
		as.log.V(1).Info("inserted pin copy", "node", n.String(), "result", i, "register", r.Name(), "copy", c.String())
	}
}
