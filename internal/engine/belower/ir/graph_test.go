package ir

import (
	"testing"

	"github.com/faddat/belower/internal/testing/require"
)

type testAttr string

func (a testAttr) OpName() string { return string(a) }

func newConst(g *Graph) *Node {
	return g.NewNode(testAttr("Const"), []Mode{ModeI32})
}

func TestGraph_Format(t *testing.T) {
	g := NewGraph("f")
	blk := g.AllocateBlock()
	a, b := newConst(g), newConst(g)
	blk.Append(a)
	blk.Append(b)
	add := g.NewNode(testAttr("Add"), []Mode{ModeI32}, a.Result(0), b.Result(0))
	blk.Append(add)
	div := g.NewNode(testAttr("Div"), []Mode{ModeI32, ModeI32}, add.Result(0), b.Result(0))
	blk.Append(div)
	blk.Append(g.NewKeep(div.Result(0), div.Result(1)))

	require.Equal(t, `blk0:
	v0 = Const
	v1 = Const
	v2 = Add v0, v1
	v3.0, v3.1 = Div v2, v1
	Keep v3.0, v3.1
`, g.Format())
	require.Equal(t, "Add#2", add.String())
	require.Equal(t, 5, g.NodeCount())
	require.Len(t, g.Nodes(), 5)
}

func TestNode_SetIn(t *testing.T) {
	g := NewGraph("f")
	a, b := newConst(g), newConst(g)
	add := g.NewNode(testAttr("Add"), []Mode{ModeI32}, a.Result(0), a.Result(0))
	require.Equal(t, 2, a.Result(0).UseCount())
	require.Equal(t, 0, b.Result(0).UseCount())

	add.SetIn(1, b.Result(0))
	require.Equal(t, []Use{{User: add, Pos: 0}}, a.Result(0).Uses())
	require.Equal(t, []Use{{User: add, Pos: 1}}, b.Result(0).Uses())

	add.SwapIns(0, 1)
	require.Equal(t, b.Result(0), add.In(0))
	require.Equal(t, a.Result(0), add.In(1))
	require.Equal(t, []Use{{User: add, Pos: 1}}, a.Result(0).Uses())
	require.Equal(t, []Use{{User: add, Pos: 0}}, b.Result(0).Uses())
}

func TestGraph_ReplaceAllUses(t *testing.T) {
	g := NewGraph("f")
	a, b := newConst(g), newConst(g)
	x := g.NewNode(testAttr("Neg"), []Mode{ModeI32}, a.Result(0))
	y := g.NewNode(testAttr("Add"), []Mode{ModeI32}, a.Result(0), x.Result(0))
	g.AddExclusion(a.Result(0), x.Result(0))

	g.ReplaceAllUses(a.Result(0), b.Result(0))
	require.Equal(t, 0, a.Result(0).UseCount())
	require.Equal(t, 2, b.Result(0).UseCount())
	require.Equal(t, b.Result(0), x.In(0))
	require.Equal(t, b.Result(0), y.In(0))
	require.Equal(t, []Exclusion{{A: b.Result(0), B: x.Result(0)}}, g.Exclusions())
}

func TestBlock_Insert(t *testing.T) {
	g := NewGraph("f")
	blk := g.AllocateBlock()
	a, b, c := newConst(g), newConst(g), newConst(g)

	t.Run("append", func(t *testing.T) {
		blk.Append(a)
		require.Equal(t, a, blk.Root())
		require.Equal(t, a, blk.Tail())
		require.Equal(t, blk, a.Block())
	})
	t.Run("insert before root", func(t *testing.T) {
		blk.InsertBefore(b, a)
		require.Equal(t, b, blk.Root())
		require.Equal(t, a, b.Next())
		require.Equal(t, b, a.Prev())
		require.True(t, b.Before(a))
		require.False(t, a.Before(b))
	})
	t.Run("insert after tail", func(t *testing.T) {
		blk.InsertAfter(c, a)
		require.Equal(t, c, blk.Tail())
		require.Equal(t, 3, blk.Len())
		require.True(t, b.Before(c))
	})
	t.Run("remove", func(t *testing.T) {
		blk.Remove(a)
		require.Equal(t, c, b.Next())
		require.Equal(t, b, c.Prev())
		require.Nil(t, a.Block())
		require.Equal(t, 2, blk.Len())
	})
	t.Run("double schedule", func(t *testing.T) {
		err := require.CapturePanic(func() { blk.Append(b) })
		require.EqualError(t, err, "BUG: Const#1 is already scheduled in blk0")
	})
	t.Run("remove used", func(t *testing.T) {
		blk.Append(g.NewKeep(c.Result(0)))
		err := require.CapturePanic(func() { blk.Remove(c) })
		require.EqualError(t, err, "BUG: removing Const#2 which still has uses")
	})
}

func TestMode(t *testing.T) {
	for _, tc := range []struct {
		m     Mode
		exp   string
		bits  byte
		float bool
		data  bool
	}{
		{m: ModeI32, exp: "i32", bits: 32, data: true},
		{m: ModeP32, exp: "p32", bits: 32, data: true},
		{m: ModeF64, exp: "f64", bits: 64, float: true, data: true},
		{m: ModeM, exp: "mem"},
		{m: ModeFlags, exp: "flags"},
		{m: ModeInvalid, exp: "?NOMODE?"},
	} {
		t.Run(tc.exp, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.m.String())
			require.Equal(t, tc.bits, tc.m.Bits())
			require.Equal(t, tc.float, tc.m.IsFloat())
			require.Equal(t, tc.data, tc.m.IsData())
		})
	}
}
