package ia32

import (
	"strconv"
	"testing"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/faddat/belower/internal/testing/require"
)

func newTestBuilder() (*ir.Graph, *Builder) {
	g := ir.NewGraph("test")
	b := NewBuilder(g, true)
	b.SetBlock(g.AllocateBlock())
	return g, b
}

func TestAttr_Immediate(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -2147483648, 4294967295} {
		v := v
		t.Run(strconv.FormatInt(v, 10), func(t *testing.T) {
			_, b := newTestBuilder()
			a := AttrOf(b.Const(v))
			require.Equal(t, OpKindConst, a.Kind())
			text, ok := a.ConstText()
			require.True(t, ok)
			parsed, err := strconv.ParseInt(text, 10, 64)
			require.NoError(t, err)
			require.Equal(t, v, parsed)
			got, ok := a.Immediate()
			require.True(t, ok)
			require.Equal(t, v, got)
		})
	}
}

func TestAttr_SymConst(t *testing.T) {
	_, b := newTestBuilder()
	a := AttrOf(b.Const(7))
	a.SetSymConst("table")

	require.Equal(t, OpKindSymConst, a.Kind())
	_, ok := a.Immediate()
	require.False(t, ok)
	text, ok := a.ConstText()
	require.True(t, ok)
	require.Equal(t, "table", text)
	sym, ok := a.SymConst()
	require.True(t, ok)
	require.Equal(t, "table", sym)

	err := require.CapturePanic(func() { a.SetSymConst("") })
	require.EqualError(t, err, "BUG: Const#0: constant: empty symbol name")
}

func TestAttr_ImmediateConstructionErrors(t *testing.T) {
	_, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)
	y := b.Arg(ir.ModeI32, nil)
	mem := b.Arg(ir.ModeM, nil)

	add := b.Add(x.Result(0), y.Result(0))
	err := require.CapturePanic(func() { AttrOf(add).SetImmediate(1) })
	require.EqualError(t, err, "BUG: Add#3: constant: Add has no immediate operand")

	load := b.Load(x.Result(0), mem.Result(0), ir.ModeI32, "")
	err = require.CapturePanic(func() { AttrOf(load).SetSymConst("g") })
	require.EqualError(t, err, "BUG: Load#4: constant: Load has no immediate operand")

	addi := b.AddI(x.Result(0), 1)
	AttrOf(addi).SetAddrMode('D')
	err = require.CapturePanic(func() { AttrOf(addi).SetImmediate(2) })
	require.EqualError(t, err, "BUG: Add_i#5: constant: immediate operand on AM Dest address mode node")

	err = require.CapturePanic(func() { AttrOf(add).SetConstType(OpKindSymConst) })
	require.EqualError(t, err, "BUG: Add#3: op_kind: constant type set on Add")

	cnst := b.Const(3)
	err = require.CapturePanic(func() { AttrOf(cnst).SetConstType(OpKindAddrModeS) })
	require.EqualError(t, err, "BUG: Const#6: op_kind: AM Source is not a constant type")

	cmp := b.Cmp(x.Result(0), y.Result(0), CondE)
	err = require.CapturePanic(func() { AttrOf(cmp).SetAddrMode('D') })
	require.EqualError(t, err, "BUG: Cmp#7: op_kind: Cmp does not support dest address mode")
}

func TestAttr_CopyImmediateFrom(t *testing.T) {
	_, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)
	c := b.Const(12)
	s := b.SymConst("counter")

	addi := b.ImmediateOf(OpAddI, x.Result(0), c)
	require.True(t, SameImmediate(AttrOf(c), AttrOf(addi)))
	v, ok := AttrOf(addi).Immediate()
	require.True(t, ok)
	require.Equal(t, int64(12), v)

	subi := b.ImmediateOf(OpSubI, x.Result(0), s)
	require.Equal(t, OpKindSymConst, AttrOf(subi).Kind())
	require.True(t, SameImmediate(AttrOf(s), AttrOf(subi)))

	err := require.CapturePanic(func() { b.ImmediateOf(OpAddI, x.Result(0), x) })
	require.EqualError(t, err, "BUG: Add_i#5: constant: immediate copied from Arg#0")
}

func TestSameImmediate(t *testing.T) {
	_, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)
	y := b.Arg(ir.ModeI32, nil)

	c1, c2, c3 := b.Const(1), b.Const(1), b.Const(2)
	s1, s2 := b.SymConst("a"), b.SymConst("a")
	// A symbol retyped as a numeric constant compares by its text.
	n1 := b.Const(0)
	AttrOf(n1).SetSymConst("1")
	AttrOf(n1).SetConstType(OpKindConst)
	add1 := b.Add(x.Result(0), y.Result(0))
	add2 := b.Sub(x.Result(0), y.Result(0))
	noText := b.Const(0)
	AttrOf(noText).imm = immediate{}

	for _, tc := range []struct {
		name string
		a, b *ir.Node
		exp  bool
	}{
		{name: "same value", a: c1, b: c2, exp: true},
		{name: "different value", a: c1, b: c3, exp: false},
		{name: "same symbol", a: s1, b: s2, exp: true},
		{name: "symbol vs const", a: c1, b: s1, exp: false},
		{name: "same text", a: c1, b: n1, exp: true},
		{name: "both without constant", a: add1, b: add2, exp: true},
		{name: "text vs none", a: c1, b: noText, exp: false},
		{name: "kind mismatch without text", a: noText, b: add1, exp: false},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, SameImmediate(AttrOf(tc.a), AttrOf(tc.b)))
			require.Equal(t, tc.exp, SameImmediate(AttrOf(tc.b), AttrOf(tc.a)))
		})
	}
}

func TestAttr_Offset(t *testing.T) {
	type term struct {
		text string
		sign byte
	}
	for _, tc := range []struct {
		name   string
		terms  []term
		exp    string
		value  int64
		hasVal bool
	}{
		{name: "empty", exp: "", hasVal: false},
		{name: "single", terms: []term{{"8", '+'}}, exp: "+8", value: 8, hasVal: true},
		{name: "negative first", terms: []term{{"8", '-'}}, exp: "-8", value: -8, hasVal: true},
		{name: "signed terms", terms: []term{{"-8", '+'}, {"+4", '-'}}, exp: "-8-4", value: -12, hasVal: true},
		{name: "direct", terms: []term{{"-8", '+'}, {"-4", '+'}}, exp: "-8-4", value: -12, hasVal: true},
		{name: "double negation", terms: []term{{"16", '+'}, {"-4", '-'}}, exp: "+16+4", value: 20, hasVal: true},
		{name: "symbolic", terms: []term{{"frame", '+'}, {"4", '-'}}, exp: "+frame-4"},
		{name: "empty term", terms: []term{{"", '-'}, {"4", '+'}}, exp: "+4", value: 4, hasVal: true},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, b := newTestBuilder()
			x := b.Arg(ir.ModeI32, nil)
			mem := b.Arg(ir.ModeM, nil)
			a := AttrOf(b.Load(x.Result(0), mem.Result(0), ir.ModeI32, ""))
			for _, tm := range tc.terms {
				a.ExtendOffset(tm.text, tm.sign)
			}
			off, ok := a.Offset()
			require.Equal(t, tc.exp != "", ok)
			require.Equal(t, tc.exp, off)
			v, ok := a.OffsetValue()
			require.Equal(t, tc.hasVal, ok)
			require.Equal(t, tc.value, v)
		})
	}

	t.Run("add and sub", func(t *testing.T) {
		_, b := newTestBuilder()
		x := b.Arg(ir.ModeI32, nil)
		a := AttrOf(b.Lea(x.Result(0), x.Result(0), 2, "-8"))
		a.SubOffset("+4")
		a.AddOffset("12")
		off, _ := a.Offset()
		require.Equal(t, "-8-4+12", off)
		require.Equal(t, AMFlavourO|AMFlavourB|AMFlavourI|AMFlavourS, a.AMFlavour())
		require.Equal(t, 2, a.Scale())
	})

	t.Run("invalid operator", func(t *testing.T) {
		_, b := newTestBuilder()
		x := b.Arg(ir.ModeI32, nil)
		a := AttrOf(b.Lea(x.Result(0), x.Result(0), 0, ""))
		err := require.CapturePanic(func() { a.ExtendOffset("4", '*') })
		require.EqualError(t, err, "BUG: Lea#1: addressing: invalid offset operator '*'")
		err = require.CapturePanic(func() { a.SetScale(4) })
		require.EqualError(t, err, "BUG: Lea#1: addressing: scale 4 out of range")
	})
}

func TestAttr_RegisterSlots(t *testing.T) {
	_, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)
	y := b.Arg(ir.ModeI32, nil)
	mul := b.Mul(x.Result(0), y.Result(0))
	a := AttrOf(mul)
	require.Equal(t, 2, a.NumSlots())
	require.False(t, a.HasOutReg(0))

	err := require.CapturePanic(func() { a.OutReg(1) })
	require.EqualError(t, err, "BUG: Mul#2: assigned_registers: slot 1 is unassigned")

	a.AllocateRegisterSlots(2)
	a.SetOutReg(0, EAX)
	a.SetOutReg(1, EDX)
	require.Equal(t, "AX", a.OutRegName(0))
	require.Equal(t, 2, a.OutRegIndex(1))
	require.Equal(t, EDX, a.OutReg(1))

	err = require.CapturePanic(func() { a.SetOutReg(0, ECX) })
	require.EqualError(t, err, "BUG: Mul#2: assigned_registers: slot 0 already holds AX")

	err = require.CapturePanic(func() { a.SetOutReg(2, ECX) })
	require.EqualError(t, err, "BUG: Mul#2: assigned_registers: no slot 2")

	err = require.CapturePanic(func() { a.AllocateRegisterSlots(3) })
	require.EqualError(t, err, "BUG: Mul#2: assigned_registers: slots resized after register allocation")
}

func TestAttr_Fields(t *testing.T) {
	g, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)
	y := b.Arg(ir.ModeI32, nil)
	mem := b.Arg(ir.ModeM, nil)

	b.SetOrigin("Add 17")
	add := b.Add(x.Result(0), y.Result(0))
	a := AttrOf(add)
	require.Equal(t, OpAdd, a.Op())
	require.Equal(t, "Add", add.OpName())
	require.True(t, a.Commutative())
	a.ClearCommutative()
	require.False(t, a.Commutative())
	a.SetCommutative()
	require.True(t, a.Commutative())
	require.Equal(t, AMFull, a.AMSupport())
	orig, ok := a.OrigNode()
	require.True(t, ok)
	require.Equal(t, "Add 17", orig)
	require.Equal(t, 2, len(a.InReqs()))
	require.Equal(t, "gp same as #1", a.OutReq(0).String())

	spill := b.Spill(x.Result(0), mem.Result(0))
	sa := AttrOf(spill)
	require.True(t, sa.UseFrame())
	require.True(t, sa.IsAddrModeD())
	require.Equal(t, ir.ModeI32, sa.LSMode())
	require.True(t, sa.Flags().Has(backend.FlagDontSpill))
	sa.ClearUseFrame()
	require.False(t, sa.UseFrame())
	require.Nil(t, sa.FrameEntity())

	setcc := b.Setcc(b.Cmp(x.Result(0), y.Result(0), CondL).Result(0), CondGE)
	c, ok := AttrOf(setcc).PNCode()
	require.True(t, ok)
	require.Equal(t, CondGE, c)
	require.Equal(t, "gp {AX CX DX BX}", AttrOf(setcc).OutReq(0).String())

	div := b.Div(x.Result(0), y.Result(0), x.Result(0))
	require.Equal(t, FlavourDivMod, AttrOf(div).Flavour())

	t.Run("not ia32", func(t *testing.T) {
		keep := g.NewKeep(x.Result(0))
		err := require.CapturePanic(func() { AttrOf(keep) })
		require.EqualError(t, err, "BUG: Keep#"+strconv.Itoa(int(keep.ID()))+" is not an ia32 node")
	})

	t.Run("commutative needs two inputs", func(t *testing.T) {
		err := require.CapturePanic(func() { AttrOf(x).SetCommutative() })
		require.EqualError(t, err, "BUG: Arg#0: commutative: Arg has less than two inputs")
	})

	t.Run("no origin without debug", func(t *testing.T) {
		b := NewBuilder(g, false)
		b.SetBlock(g.Blocks()[0])
		b.SetOrigin("Add 18")
		_, ok := AttrOf(b.Add(x.Result(0), y.Result(0))).OrigNode()
		require.False(t, ok)
	})
}

func TestNewNode_InvalidTies(t *testing.T) {
	g, b := newTestBuilder()
	x := b.Arg(ir.ModeI32, nil)

	err := require.CapturePanic(func() {
		newNode(g, OpCopy, modes(ir.ModeI32), reqs(reqGP), reqs(reqGP.WithSame(1)), x.Result(0))
	})
	require.EqualError(t, err, "BUG: Copy#1: out_requirements: same tie to operand 1 out of 1 inputs")

	err = require.CapturePanic(func() {
		newNode(g, OpCopy, modes(ir.ModeI32), reqs(reqGP.WithDifferent(0)), reqs(reqGP), x.Result(0))
	})
	require.EqualError(t, err, "BUG: Copy#2: in_requirements: different tie of input 0 refers to itself")

	err = require.CapturePanic(func() {
		newNode(g, OpCopy, modes(ir.ModeI32), reqs(reqGP), reqs(reqGP.WithSame(0).WithDifferent(0)), x.Result(0))
	})
	require.EqualError(t, err, "BUG: Copy#3: out_requirements: same and different tie to operand 0")

	err = require.CapturePanic(func() {
		newNode(g, OpCopy, modes(ir.ModeI32), nil, reqs(reqGP), x.Result(0))
	})
	require.EqualError(t, err, "BUG: Copy#4: in_requirements: 0 requirements for 1 inputs")
}

func TestCond(t *testing.T) {
	for _, tc := range []struct {
		c, inv Cond
		name   string
	}{
		{c: CondE, inv: CondNE, name: "e"},
		{c: CondL, inv: CondGE, name: "l"},
		{c: CondA, inv: CondBE, name: "a"},
		{c: CondO, inv: CondNO, name: "o"},
		{c: CondG, inv: CondLE, name: "g"},
	} {
		require.Equal(t, tc.name, tc.c.String())
		require.Equal(t, tc.inv, tc.c.Invert())
		require.Equal(t, tc.c, tc.c.Invert().Invert())
	}
}

func TestOp(t *testing.T) {
	require.Equal(t, "Add_i", OpAddI.String())
	require.Equal(t, "Unknown", numOps.String())
	require.True(t, OpConst.HasImmediate())
	require.False(t, OpAdd.HasImmediate())
	require.Equal(t, "OBS", (AMFlavourO | AMFlavourB | AMFlavourS).String())
	require.Equal(t, "none", AMFlavour(0).String())
}
