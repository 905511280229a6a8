// Package regalloc implements a linear-scan register allocator over the
// layout order of an ir.Graph.
//
// The whole function is treated as a single long block. Each value occupies
// one register from its definition to its last use, values are never split or
// spilled, so running out of registers is an error. Graphs must be prepared by
// backend.Machine.AssureConstraints so that every pinned operand can be met
// without splitting.
//
// Registers are picked greedily. Among the legal registers not held by a live
// value or an exclusion partner, the allocator prefers, in order:
//
//   - registers no other value is pinned to while this value is live;
//   - the pinned register of its single consumer;
//   - registers no other value wants while this value is live;
//   - the register wanted by the result this value is tied to;
//   - the register of the input this value is tied to;
//   - the lowest register in class order.
package regalloc

import (
	"fmt"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

// NewAllocator returns a new Allocator.
func NewAllocator(log logr.Logger) *Allocator {
	return &Allocator{log: log}
}

// Allocator is the register allocator. An Allocator can be reused for
// subsequent functions but must not be used concurrently.
type Allocator struct {
	log logr.Logger
	s   state
}

var _ backend.Allocator = (*Allocator)(nil)

type (
	// liveRange is the live range of one value in layout positions. end is
	// the position of the last use, or past the last node if the value is
	// read by a node scheduled before its definition.
	liveRange struct {
		v        ir.Value
		def, end int
		reg      *backend.Register
	}

	// hint is the register a value should get. direct hints come from
	// the pinned operand reading the value, the others are propagated
	// backwards through ties.
	hint struct {
		reg    *backend.Register
		direct bool
	}

	// pin records an operand constrained to a single register.
	pin struct {
		pos   int
		reg   *backend.Register
		v     ir.Value
		input bool
	}

	state struct {
		c      backend.Constraints
		nodes  []*ir.Node
		pos    map[*ir.Node]int
		ranges map[ir.Value]*liveRange
		active map[*backend.Register]*liveRange
		excl   map[ir.Value][]ir.Value
		hints  map[ir.Value]hint
		pins   []pin
	}
)

func (s *state) reset(c backend.Constraints) {
	s.c = c
	s.nodes = s.nodes[:0]
	s.pins = s.pins[:0]
	s.pos = make(map[*ir.Node]int)
	s.ranges = make(map[ir.Value]*liveRange)
	s.active = make(map[*backend.Register]*liveRange)
	s.excl = make(map[ir.Value][]ir.Value)
	s.hints = make(map[ir.Value]hint)
}

// Allocate implements backend.Allocator.
func (a *Allocator) Allocate(g *ir.Graph, c backend.Constraints) error {
	s := &a.s
	s.reset(c)
	s.init(g)
	s.computeHints()

	for p, n := range s.nodes {
		s.expire(p)
		if !c.Allocatable(n) {
			continue
		}
		if err := s.checkInputs(n); err != nil {
			return err
		}
		for i := 0; i < n.NumResults(); i++ {
			lr, ok := s.ranges[n.Result(i)]
			if !ok {
				continue
			}
			r, err := s.pick(n, i, lr)
			if err != nil {
				return err
			}
			c.SetOutReg(n, i, r)
			lr.reg = r
			s.active[r] = lr
			if beapi.RegAllocLoggingEnabled {
				fmt.Printf("%s: assigned %s to %s\n", g.Name(), r, lr.v)
			}
		}
	}
	a.log.V(1).Info("allocated registers", "function", g.Name(), "values", len(s.ranges))
	return nil
}

func (s *state) init(g *ir.Graph) {
	s.nodes = append(s.nodes, g.Nodes()...)
	for i, n := range s.nodes {
		s.pos[n] = i
	}

	for p, n := range s.nodes {
		if !s.c.Allocatable(n) {
			continue
		}
		for j, in := range n.Ins() {
			if r, ok := s.c.InReq(n, j).Single(); ok {
				s.pins = append(s.pins, pin{pos: p, reg: r, v: in, input: true})
			}
		}
		for i := 0; i < n.NumResults(); i++ {
			req := s.c.OutReq(n, i)
			if req.IsNone() {
				continue
			}
			v := n.Result(i)
			lr := &liveRange{v: v, def: p, end: p}
			for _, u := range v.Uses() {
				up, ok := s.pos[u.User]
				if !ok {
					continue
				}
				if up <= p {
					lr.end = len(s.nodes)
					break
				}
				if up > lr.end {
					lr.end = up
				}
			}
			s.ranges[v] = lr
			if r, ok := req.Single(); ok {
				s.pins = append(s.pins, pin{pos: p, reg: r, v: v})
			}
		}
	}

	for _, e := range g.Exclusions() {
		s.excl[e.A] = append(s.excl[e.A], e.B)
		s.excl[e.B] = append(s.excl[e.B], e.A)
	}
}

// computeHints walks the nodes backwards and records, for values with a
// single consumer, the register that consumer wants.
func (s *state) computeHints() {
	for p := len(s.nodes) - 1; p >= 0; p-- {
		n := s.nodes[p]
		if !s.c.Allocatable(n) {
			continue
		}
		for j, in := range n.Ins() {
			if r, ok := s.c.InReq(n, j).Single(); ok && in.UseCount() == 1 {
				s.hints[in] = hint{reg: r, direct: true}
			}
		}
		for i := 0; i < n.NumResults(); i++ {
			req := s.c.OutReq(n, i)
			h, ok := req.Single()
			if !ok {
				h = s.hints[n.Result(i)].reg
			}
			t, tied := req.Same()
			if h == nil || !tied {
				continue
			}
			if in := n.In(t); in.UseCount() == 1 && s.hints[in].reg == nil {
				s.hints[in] = hint{reg: h}
			}
		}
	}
}

// expire releases the registers of values not read at or after p.
func (s *state) expire(p int) {
	for r, lr := range s.active {
		if lr.end <= p {
			delete(s.active, r)
		}
	}
}

func (s *state) checkInputs(n *ir.Node) error {
	for j, in := range n.Ins() {
		req := s.c.InReq(n, j)
		if req.IsNone() {
			continue
		}
		lr, ok := s.ranges[in]
		if !ok || lr.reg == nil {
			return fmt.Errorf("operand %d (%s) of %s has no register", j, in, n)
		}
		if !req.Allows(lr.reg) {
			return fmt.Errorf("operand %d (%s) of %s is in %s, want %s", j, in, n, lr.reg, req)
		}
	}
	return nil
}

// pinConflict returns true if another value is pinned to r while lr is live.
// Results may reuse the registers of inputs dying at their node.
func (s *state) pinConflict(lr *liveRange, r *backend.Register) bool {
	for _, p := range s.pins {
		if p.reg != r || p.v == lr.v {
			continue
		}
		if p.input && lr.def < p.pos && p.pos <= lr.end {
			return true
		}
		if !p.input && lr.def < p.pos && p.pos < lr.end {
			return true
		}
	}
	return false
}

// hintConflict returns true if another value wanting r is defined while lr is live.
func (s *state) hintConflict(lr *liveRange, r *backend.Register) bool {
	for v, h := range s.hints {
		if h.reg != r || v == lr.v {
			continue
		}
		if o, ok := s.ranges[v]; ok && lr.def < o.def && o.def < lr.end {
			return true
		}
	}
	return false
}

func (s *state) excluded(lr *liveRange, r *backend.Register) bool {
	for _, w := range s.excl[lr.v] {
		if o, ok := s.ranges[w]; ok && o.reg == r {
			return true
		}
	}
	return false
}

func (s *state) pick(n *ir.Node, i int, lr *liveRange) (*backend.Register, error) {
	req := s.c.OutReq(n, i)
	var tied *backend.Register
	if t, ok := req.Same(); ok {
		if o, ok := s.ranges[n.In(t)]; ok {
			tied = o.reg
		}
	}

	var best *backend.Register
	bestScore := -1
	for _, r := range req.LimitedRegisters() {
		if r.Ignore() || s.active[r] != nil || s.excluded(lr, r) {
			continue
		}
		score := 0
		if !s.pinConflict(lr, r) {
			score += 32
		}
		if h := s.hints[lr.v]; h.reg == r && h.direct {
			score += 16
		} else if h.reg == r {
			score += 4
		}
		if !s.hintConflict(lr, r) {
			score += 8
		}
		if tied == r {
			score += 2
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no register left for %s of %s (%s)", lr.v, n, req)
	}
	return best, nil
}
