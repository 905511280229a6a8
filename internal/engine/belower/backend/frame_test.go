package backend

import (
	"testing"

	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/faddat/belower/internal/testing/require"
)

type testAttr string

func (a testAttr) OpName() string { return string(a) }

func TestFrame(t *testing.T) {
	g := ir.NewGraph("f")
	spill1 := g.NewNode(testAttr("Spill"), []ir.Mode{ir.ModeM})
	spill2 := g.NewNode(testAttr("Spill"), []ir.Mode{ir.ModeM})
	spill3 := g.NewNode(testAttr("Spill"), []ir.Mode{ir.ModeM})

	f := NewFrame()
	e1 := f.Slot(spill1, 4)
	e2 := f.Slot(spill2, 8)
	e3 := f.Slot(spill3, 0)
	require.Equal(t, e1, f.Slot(spill1, 4))
	require.Equal(t, "frame_ent0", e1.String())
	require.Equal(t, "Spill#0", e1.Owner())
	require.Equal(t, int64(4), e3.Size())
	require.Equal(t, []*FrameEntity{e1, e2, e3}, f.Entities())

	// The 8-byte slot goes first, the 4-byte slots follow in request order.
	require.Equal(t, beapi.Offset(0), f.Offset(e2))
	require.Equal(t, beapi.Offset(8), f.Offset(e1))
	require.Equal(t, beapi.Offset(12), f.Offset(e3))
	require.Equal(t, int64(16), f.Size())

	t.Run("fixed layout", func(t *testing.T) {
		late := g.NewNode(testAttr("Spill"), []ir.Mode{ir.ModeM})
		err := require.CapturePanic(func() { f.Slot(late, 4) })
		require.EqualError(t, err, "BUG: Spill#3: frame_entity: slot requested after the frame layout was fixed")
	})

	t.Run("reset", func(t *testing.T) {
		f.Reset()
		require.Equal(t, 0, len(f.Entities()))
		e := f.Slot(spill3, 4)
		require.Equal(t, 0, e.ID())
		require.Equal(t, beapi.Offset(0), f.Offset(e))
	})
}

func TestInvariantError(t *testing.T) {
	g := ir.NewGraph("f")
	n := g.NewNode(testAttr("Perm"), nil)

	var err error
	func() {
		defer RecoverInvariant(&err)
		Fatalf(n, "assigned_registers", "slot %d unassigned", 1)
	}()
	require.EqualError(t, err, "BUG: Perm#0: assigned_registers: slot 1 unassigned")

	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "assigned_registers", ie.Field)

	other := require.CapturePanic(func() {
		var err error
		defer RecoverInvariant(&err)
		panic("unrelated")
	})
	require.EqualError(t, other, "unrelated")
}

func TestStats(t *testing.T) {
	var s Stats
	s.Add(StatOperandSwap, 2)
	s.Add(StatPermExchange, 1)

	var o Stats
	o.Add(StatOperandSwap, 1)
	s.Merge(o)

	require.Equal(t, 3, s.Get(StatOperandSwap))
	require.Equal(t, 0, s.Get(StatTieCopy))
	require.Equal(t, 4, s.Total())

	out := s.Table("f")
	require.Contains(t, out, "operand swaps")
	require.Contains(t, out, "perm exchanges")
	require.NotContains(t, out, "tie copies")
}
