package ia32

import (
	"fmt"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
)

// permMove moves an operand of a Perm from src to dst.
type permMove struct {
	src, dst *backend.Register
}

// permLowering lowers one Perm node. cur tracks the value each register holds
// at the current insertion point, right before the Perm.
type permLowering struct {
	l    *lowerer
	perm *ir.Node
	cur  map[*backend.Register]ir.Value
	busy map[*backend.Register]bool
}

// lowerPerm replaces perm by moves, in order, such that no register is
// overwritten before its value was read. Cycles go through a spare register
// or, without one, through exchanges.
func (l *lowerer) lowerPerm(perm *ir.Node, a *Attr) {
	pl := permLowering{l: l, perm: perm, cur: make(map[*backend.Register]ir.Value, perm.NumIns())}

	dsts := make([]*backend.Register, perm.NumIns())
	seen := make(map[*backend.Register]bool, perm.NumIns())
	var pending []permMove
	for i := range dsts {
		src, dst := inReg(perm, i), a.OutReg(i)
		if src.Class() != dst.Class() {
			backend.Fatalf(perm, "assigned_registers", "operand %d moves from %s to %s across classes", i, src, dst)
		}
		if _, dup := pl.cur[src]; dup {
			backend.Fatalf(perm, "assigned_registers", "%s holds more than one operand", src)
		}
		if seen[dst] {
			backend.Fatalf(perm, "assigned_registers", "%s assigned to more than one result", dst)
		}
		seen[dst] = true
		pl.cur[src] = perm.In(i)
		dsts[i] = dst
		if src != dst {
			pending = append(pending, permMove{src: src, dst: dst})
		}
	}

	for len(pending) > 0 {
		progress := false
		for i := 0; i < len(pending); {
			p := pending[i]
			if readBy(pending, p.dst) {
				i++
				continue
			}
			pl.move(p.src, p.dst)
			pending = append(pending[:i], pending[i+1:]...)
			progress = true
		}
		if !progress {
			var cycle []permMove
			cycle, pending = extractCycle(pending)
			pl.lowerCycle(cycle)
		}
	}

	finals := make([]ir.Value, len(dsts))
	for i, dst := range dsts {
		finals[i] = pl.cur[dst]
	}
	for i, v := range finals {
		l.g.ReplaceAllUses(perm.Result(i), v)
	}
	if beapi.LoweringLoggingEnabled {
		fmt.Printf("lowered %s of %s\n", perm, l.g.Name())
		for cur := perm.Prev(); cur != nil; cur = cur.Prev() {
			fmt.Printf("\t%s\n", FormatNode(cur))
		}
	}
	perm.Block().Remove(perm)
}

// readBy returns true if a pending move still reads r.
func readBy(pending []permMove, r *backend.Register) bool {
	for _, p := range pending {
		if p.src == r {
			return true
		}
	}
	return false
}

// extractCycle removes from pending the cycle containing pending[0], which
// must consist of cycles only. The cycle is returned in order: the
// destination of each move is the source of the next.
func extractCycle(pending []permMove) (cycle, rest []permMove) {
	cycle = append(cycle, pending[0])
	rest = append(rest, pending[1:]...)
	for {
		last := cycle[len(cycle)-1]
		if last.dst == cycle[0].src {
			return
		}
		for i, p := range rest {
			if p.src == last.dst {
				cycle = append(cycle, p)
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}
}

func (pl *permLowering) insert(n *ir.Node) {
	pl.perm.Block().InsertBefore(n, pl.perm)
}

func (pl *permLowering) move(src, dst *backend.Register) {
	c := newCopyTo(pl.l.g, pl.cur[src], dst)
	pl.insert(c)
	pl.cur[dst] = c.Result(0)
	pl.l.stats.Add(backend.StatPermMove, 1)
}

func (pl *permLowering) lowerCycle(cycle []permMove) {
	k := len(cycle)
	cls := cycle[0].src.Class()
	if spare := pl.spare(cls); spare != nil {
		last := cycle[k-1]
		tmp := newCopyTo(pl.l.g, pl.cur[last.src], spare)
		pl.insert(tmp)
		for j := k - 2; j >= 0; j-- {
			pl.move(cycle[j].src, cycle[j].dst)
		}
		pl.cur[spare] = tmp.Result(0)
		pl.move(spare, last.dst)
		pl.l.stats.Add(backend.StatPermMove, 1)
		pl.l.stats.Add(backend.StatPermSpare, 1)
		pl.l.log.V(1).Info("lowered cycle through spare register", "node", pl.perm.String(), "length", k, "spare", spare.Name())
		return
	}

	var exchange func(r1, r2 *backend.Register)
	switch cls {
	case ClassGP:
		exchange = pl.xchg
	case ClassXMM:
		exchange = pl.xorSwap
	default:
		backend.Fatalf(pl.perm, "assigned_registers", "cannot resolve %d-cycle of class %s without a spare register", k, cls)
	}
	r1 := cycle[0].src
	for j := 1; j < k; j++ {
		exchange(r1, cycle[j].src)
		pl.l.stats.Add(backend.StatPermExchange, 1)
	}
	pl.l.log.V(1).Info("lowered cycle by exchanges", "node", pl.perm.String(), "length", k)
}

// spare returns a register of cls which neither the Perm nor any value live
// across it occupies, or nil.
func (pl *permLowering) spare(cls *backend.RegClass) *backend.Register {
	if pl.busy == nil {
		pl.busy = busyAcross(pl.perm)
	}
	for _, r := range cls.Allocatable() {
		if !pl.busy[r] {
			return r
		}
	}
	return nil
}

// busyAcross returns the registers read or written by perm and those holding
// values which are live across it.
func busyAcross(perm *ir.Node) map[*backend.Register]bool {
	ret := make(map[*backend.Register]bool)
	pa := AttrOf(perm)
	for i := 0; i < perm.NumIns(); i++ {
		ret[inReg(perm, i)] = true
		ret[pa.OutReg(i)] = true
	}
	for _, n := range perm.Graph().Nodes() {
		a, ok := attrOf(n)
		if !ok || n == perm || (n.Block() == perm.Block() && !n.Before(perm)) {
			continue
		}
		for i := 0; i < n.NumResults(); i++ {
			if a.HasOutReg(i) && usedAfter(n.Result(i), perm) {
				ret[a.regs[i]] = true
			}
		}
	}
	return ret
}

// usedAfter returns true if v is read by a node other than at, which is not
// known to be scheduled before at.
func usedAfter(v ir.Value, at *ir.Node) bool {
	for _, u := range v.Uses() {
		if u.User == at {
			continue
		}
		if u.User.Block() != at.Block() || at.Before(u.User) {
			return true
		}
	}
	return false
}

// xchg exchanges the contents of r1 and r2.
func (pl *permLowering) xchg(r1, r2 *backend.Register) {
	x, a := newNode(pl.l.g, OpXchg, modes(pl.cur[r1].Mode(), pl.cur[r2].Mode()), reqs(reqGP, reqGP),
		reqs(reqGP.WithSame(1), reqGP.WithSame(0)), pl.cur[r1], pl.cur[r2])
	a.SetOutReg(0, r2)
	a.SetOutReg(1, r1)
	pl.insert(x)
	pl.cur[r2], pl.cur[r1] = x.Result(0), x.Result(1)
}

// xorSwap exchanges the contents of the xmm registers r1 and r2 with three xors.
func (pl *permLowering) xorSwap(r1, r2 *backend.Register) {
	xor := func(src, dst ir.Value, r *backend.Register) ir.Value {
		x, a := newNode(pl.l.g, OpXorp, modes(dst.Mode()), reqs(reqXMM, reqXMM), reqs(reqXMM.WithSame(1)), src, dst)
		a.SetOutReg(0, r)
		pl.insert(x)
		return x.Result(0)
	}
	v1, v2 := pl.cur[r1], pl.cur[r2]
	x1 := xor(v2, v1, r1)
	x2 := xor(x1, v2, r2)
	x3 := xor(x2, x1, r1)
	pl.cur[r1], pl.cur[r2] = x3, x2
}
