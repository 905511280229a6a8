package testcases

import (
	"fmt"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/backend/isa/ia32"
	"github.com/faddat/belower/internal/engine/belower/ir"
)

var (
	AddSwap = TestCase{
		Name: "add_swap",
		// The tied operand y is read again later while x dies: the operands are swapped.
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			y := b.Arg(ir.ModeI32, nil)
			add := b.Add(x.Result(0), y.Result(0))
			sub := b.Sub(y.Result(0), add.Result(0))
			b.Return(sub.Result(0))
		},
	}
	AddCopy = TestCase{
		Name: "add_copy",
		// Both operands are read again later: one tie copy.
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			y := b.Arg(ir.ModeI32, nil)
			add := b.Add(x.Result(0), y.Result(0))
			sub := b.Sub(x.Result(0), add.Result(0))
			xor := b.Xor(y.Result(0), sub.Result(0))
			b.Return(xor.Result(0))
		},
	}
	MulPinnedResult = TestCase{
		Name: "mul_pinned_result",
		// The low half of the product is pinned to EAX and read twice.
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			y := b.Arg(ir.ModeI32, nil)
			z := b.Arg(ir.ModeI32, nil)
			mul := b.Mul(x.Result(0), y.Result(0))
			add := b.Add(mul.Result(0), z.Result(0))
			sub := b.Sub(mul.Result(0), add.Result(0))
			b.Return(sub.Result(0))
		},
	}
	ShiftCount = TestCase{
		Name: "shift_count",
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			n := b.Arg(ir.ModeI32, nil)
			shl := b.Shl(n.Result(0), x.Result(0))
			b.Return(shl.Result(0))
		},
	}
	ShiftSameOperand = TestCase{
		Name: "shift_same_operand",
		// x is shifted by itself: the count needs its own register.
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			shl := b.Shl(x.Result(0), x.Result(0))
			b.Return(shl.Result(0))
		},
	}
	DivMod = TestCase{
		Name: "div_mod",
		Build: func(b *ia32.Builder) {
			lo := b.Arg(ir.ModeU32, nil)
			hi := b.Arg(ir.ModeU32, nil)
			d := b.Arg(ir.ModeU32, nil)
			div := b.Div(lo.Result(0), hi.Result(0), d.Result(0))
			add := b.Add(div.Result(0), div.Result(1))
			b.Return(add.Result(0))
		},
	}
	SpillReload = TestCase{
		Name: "spill_reload",
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			mem := b.Arg(ir.ModeM, nil)
			spill := b.Spill(x.Result(0), mem.Result(0))
			reload := b.Reload(spill.Result(0), ir.ModeI32)
			b.Return(reload.Result(0))
		},
	}
	FloatAdd = TestCase{
		Name: "float_add",
		Build: func(b *ia32.Builder) {
			f := b.Arg(ir.ModeF64, nil)
			g := b.Arg(ir.ModeF64, nil)
			add := b.FAdd(f.Result(0), g.Result(0))
			b.Return(add.Result(0))
		},
	}
	Compare = TestCase{
		Name: "compare",
		Build: func(b *ia32.Builder) {
			x := b.Arg(ir.ModeI32, nil)
			y := b.Arg(ir.ModeI32, nil)
			cmp := b.Cmp(x.Result(0), y.Result(0), ia32.CondL)
			set := b.Setcc(cmp.Result(0), ia32.CondL)
			b.Return(set.Result(0))
		},
	}
	// TooManyLive keeps more integer values live than there are registers.
	TooManyLive = TestCase{
		Name: "too_many_live",
		Build: func(b *ia32.Builder) {
			var vals []ir.Value
			for i := 0; i < 7; i++ {
				vals = append(vals, b.Arg(ir.ModeI32, nil).Result(0))
			}
			b.Keep(vals...)
		},
	}
)

// All are the test cases compiling without error.
var All = []TestCase{AddSwap, AddCopy, MulPinnedResult, ShiftCount, ShiftSameOperand, DivMod, SpillReload, FloatAdd, Compare}

type TestCase struct {
	Name  string
	Build func(b *ia32.Builder)
}

// Graph builds the test case into a new single block graph.
func (tc TestCase) Graph(debug bool) *ir.Graph {
	g := ir.NewGraph(tc.Name)
	b := ia32.NewBuilder(g, debug)
	b.SetBlock(g.AllocateBlock())
	tc.Build(b)
	return g
}

// CheckAllocation returns an error for the first operand or result of g whose
// register violates its requirement, its tie or its exclusion from an operand.
func CheckAllocation(g *ir.Graph, c backend.Constraints) error {
	for _, n := range g.Nodes() {
		if !c.Allocatable(n) {
			continue
		}
		for i := 0; i < n.NumResults(); i++ {
			req := c.OutReq(n, i)
			if req.IsNone() {
				continue
			}
			r := c.OutReg(n, i)
			if r == nil {
				return fmt.Errorf("%s: result %d has no register", n, i)
			}
			if !req.Allows(r) {
				return fmt.Errorf("%s: result %d in %s violates %s", n, i, r, req)
			}
			if t, ok := req.Same(); ok && regOf(c, n.In(t)) != r {
				return fmt.Errorf("%s: result %d in %s but operand %d is not", n, i, r, t)
			}
			if d, ok := req.Different(); ok && regOf(c, n.In(d)) == r {
				return fmt.Errorf("%s: result %d in %s like operand %d", n, i, r, d)
			}
		}
		for j, in := range n.Ins() {
			req := c.InReq(n, j)
			if req.IsNone() {
				continue
			}
			r := regOf(c, in)
			if r == nil {
				return fmt.Errorf("%s: operand %d has no register", n, j)
			}
			if !req.Allows(r) {
				return fmt.Errorf("%s: operand %d in %s violates %s", n, j, r, req)
			}
		}
	}
	return nil
}

func regOf(c backend.Constraints, v ir.Value) *backend.Register {
	if !c.Allocatable(v.Node()) {
		return nil
	}
	return c.OutReg(v.Node(), v.Index())
}
