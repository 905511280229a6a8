package backend

import (
	"errors"
	"testing"

	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/faddat/belower/internal/testing/require"
	"github.com/go-logr/logr"
)

type allocatorFunc func(g *ir.Graph, c Constraints) error

func (f allocatorFunc) Allocate(g *ir.Graph, c Constraints) error { return f(g, c) }

// panickyMachine breaks an invariant while lowering.
type panickyMachine struct{ nopMachine }

func (panickyMachine) LowerAfterRA(g *ir.Graph, _ FrameLayout, _ LowerOptions) Stats {
	Fatalf(g.Nodes()[0], "assigned_registers", "no register assigned")
	return Stats{}
}

func TestCompiler_Compile(t *testing.T) {
	newGraph := func() *ir.Graph {
		g := ir.NewGraph("f")
		blk := g.AllocateBlock()
		blk.Append(g.NewNode(testAttr("Nop"), nil))
		return g
	}

	t.Run("ok", func(t *testing.T) {
		var called bool
		c := NewCompiler(nopMachine{}, allocatorFunc(func(*ir.Graph, Constraints) error {
			called = true
			return nil
		}), logr.Discard())
		stats, err := c.Compile(newGraph(), NewFrame(), LowerOptions{DoCopy: true})
		require.NoError(t, err)
		require.True(t, called)
		require.Equal(t, 0, stats.Total())
		c.Reset()
	})

	t.Run("allocator error", func(t *testing.T) {
		boom := errors.New("out of registers")
		c := NewCompiler(nopMachine{}, allocatorFunc(func(*ir.Graph, Constraints) error { return boom }), logr.Discard())
		_, err := c.Compile(newGraph(), NewFrame(), LowerOptions{})
		require.ErrorIs(t, err, boom)
		require.EqualError(t, err, "regalloc: out of registers")
	})

	t.Run("invariant", func(t *testing.T) {
		c := NewCompiler(panickyMachine{}, allocatorFunc(func(*ir.Graph, Constraints) error { return nil }), logr.Discard())
		_, err := c.Compile(newGraph(), NewFrame(), LowerOptions{})
		var ie *InvariantError
		require.ErrorAs(t, err, &ie)
		require.Equal(t, "Nop#0", ie.Node)
	})
}
