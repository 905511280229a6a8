package ia32

import (
	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
)

// newNode allocates an unscheduled ia32 node. The requirement slices are owned
// by the node from now on.
func newNode(g *ir.Graph, op Op, results []ir.Mode, inReqs, outReqs []backend.Requirement, ins ...ir.Value) (*ir.Node, *Attr) {
	info := &opInfos[op]
	a := &Attr{op: op, amSupport: info.am, inReqs: inReqs, outReqs: outReqs}
	n := g.NewNode(a, results, ins...)
	a.owner = n
	if len(inReqs) != len(ins) {
		backend.Fatalf(n, "in_requirements", "%d requirements for %d inputs", len(inReqs), len(ins))
	}
	if len(outReqs) != len(results) {
		backend.Fatalf(n, "out_requirements", "%d requirements for %d results", len(outReqs), len(results))
	}
	for i, r := range inReqs {
		if err := r.CheckTies(i, false, len(ins)); err != nil {
			backend.Fatalf(n, "in_requirements", "%v", err)
		}
	}
	for i, r := range outReqs {
		if err := r.CheckTies(i, true, len(ins)); err != nil {
			backend.Fatalf(n, "out_requirements", "%v", err)
		}
	}
	a.AllocateRegisterSlots(len(results))
	if info.commutative {
		a.SetCommutative()
	}
	return n, a
}

// newCopy allocates an unscheduled, unconstrained copy of v.
func newCopy(g *ir.Graph, v ir.Value) (*ir.Node, *Attr) {
	req := reqOf(v.Mode())
	return newNode(g, OpCopy, []ir.Mode{v.Mode()}, []backend.Requirement{req}, []backend.Requirement{req}, v)
}

// Builder creates ia32 nodes at the end of a block, the way instruction
// selection does.
type Builder struct {
	g      *ir.Graph
	blk    *ir.Block
	debug  bool
	origin string
}

// NewBuilder returns a Builder for g. In debug mode the name set by SetOrigin
// is recorded on every created node.
func NewBuilder(g *ir.Graph, debug bool) *Builder {
	return &Builder{g: g, debug: debug}
}

// Graph returns the graph being built.
func (b *Builder) Graph() *ir.Graph { return b.g }

// SetBlock sets the block new nodes are appended to.
func (b *Builder) SetBlock(blk *ir.Block) { b.blk = blk }

// SetOrigin sets the name of the node currently being selected.
func (b *Builder) SetOrigin(name string) { b.origin = name }

func (b *Builder) emit(n *ir.Node, a *Attr) *ir.Node {
	if b.debug && b.origin != "" {
		a.SetOrigNode(b.origin)
	}
	b.blk.Append(n)
	return n
}

func reqs(rs ...backend.Requirement) []backend.Requirement { return rs }

func modes(ms ...ir.Mode) []ir.Mode { return ms }

// Arg defines an incoming argument of mode m, pinned to pin if not nil.
func (b *Builder) Arg(m ir.Mode, pin *backend.Register) *ir.Node {
	out := reqOf(m)
	if pin != nil {
		out = backend.LimitedReq(pin.Class(), pin)
	}
	return b.emit(newNode(b.g, OpArg, modes(m), nil, reqs(out)))
}

// Const loads the integer v.
func (b *Builder) Const(v int64) *ir.Node {
	n, a := newNode(b.g, OpConst, modes(ir.ModeI32), nil, reqs(reqGP))
	a.SetImmediate(v)
	a.SetFlags(backend.FlagRematerializable)
	return b.emit(n, a)
}

// SymConst loads the address of symbol.
func (b *Builder) SymConst(symbol string) *ir.Node {
	n, a := newNode(b.g, OpConst, modes(ir.ModeP32), nil, reqs(reqGP))
	a.SetSymConst(symbol)
	a.SetFlags(backend.FlagRematerializable)
	return b.emit(n, a)
}

// FConst loads the float constant stored at symbol.
func (b *Builder) FConst(symbol string, m ir.Mode) *ir.Node {
	n, a := newNode(b.g, OpFConst, modes(m), nil, reqs(reqXMM))
	a.SetSymConst(symbol)
	a.SetLSMode(m)
	return b.emit(n, a)
}

// Copy copies v.
func (b *Builder) Copy(v ir.Value) *ir.Node {
	return b.emit(newCopy(b.g, v))
}

func (b *Builder) binop(op Op, src, dst ir.Value) *ir.Node {
	return b.emit(newNode(b.g, op, modes(dst.Mode()), reqs(reqGP, reqGP), reqs(reqGP.WithSame(1)), src, dst))
}

// Add computes dst + src.
func (b *Builder) Add(src, dst ir.Value) *ir.Node { return b.binop(OpAdd, src, dst) }

// Sub computes dst - src.
func (b *Builder) Sub(src, dst ir.Value) *ir.Node { return b.binop(OpSub, src, dst) }

// And computes dst & src.
func (b *Builder) And(src, dst ir.Value) *ir.Node { return b.binop(OpAnd, src, dst) }

// Or computes dst | src.
func (b *Builder) Or(src, dst ir.Value) *ir.Node { return b.binop(OpOr, src, dst) }

// Xor computes dst ^ src.
func (b *Builder) Xor(src, dst ir.Value) *ir.Node { return b.binop(OpXor, src, dst) }

// IMul computes the low half of dst * src.
func (b *Builder) IMul(src, dst ir.Value) *ir.Node { return b.binop(OpIMul, src, dst) }

func (b *Builder) immop(op Op, dst ir.Value, v int64) *ir.Node {
	n, a := newNode(b.g, op, modes(dst.Mode()), reqs(reqGP), reqs(reqGP.WithSame(0)), dst)
	a.SetImmediate(v)
	return b.emit(n, a)
}

// AddI computes dst + v.
func (b *Builder) AddI(dst ir.Value, v int64) *ir.Node { return b.immop(OpAddI, dst, v) }

// SubI computes dst - v.
func (b *Builder) SubI(dst ir.Value, v int64) *ir.Node { return b.immop(OpSubI, dst, v) }

// ShlI computes dst << v.
func (b *Builder) ShlI(dst ir.Value, v int64) *ir.Node { return b.immop(OpShlI, dst, v) }

// ImmediateOf creates the immediate form op of dst and the constant loaded by cnst.
func (b *Builder) ImmediateOf(op Op, dst ir.Value, cnst *ir.Node) *ir.Node {
	n, a := newNode(b.g, op, modes(dst.Mode()), reqs(reqGP), reqs(reqGP.WithSame(0)), dst)
	a.CopyImmediateFrom(cnst)
	return b.emit(n, a)
}

func (b *Builder) shift(op Op, count, dst ir.Value) *ir.Node {
	return b.emit(newNode(b.g, op, modes(dst.Mode()), reqs(reqECX, reqGP),
		reqs(reqGP.WithSame(1).WithDifferent(0)), count, dst))
}

// Shl computes dst << count.
func (b *Builder) Shl(count, dst ir.Value) *ir.Node { return b.shift(OpShl, count, dst) }

// Sar computes dst >> count keeping the sign.
func (b *Builder) Sar(count, dst ir.Value) *ir.Node { return b.shift(OpSar, count, dst) }

// Mul computes the full product of x and y. Result 0 is the low half, result 1 the high half.
func (b *Builder) Mul(x, y ir.Value) *ir.Node {
	n, a := newNode(b.g, OpMul, modes(ir.ModeU32, ir.ModeU32), reqs(reqEAX, reqGP),
		reqs(reqEAX.WithSame(0), reqEDX), x, y)
	a.SetFlavour(FlavourMul)
	return b.emit(n, a)
}

// Div divides hi:lo by divisor. Result 0 is the quotient, result 1 the remainder.
func (b *Builder) Div(lo, hi, divisor ir.Value) *ir.Node {
	n, a := newNode(b.g, OpDiv, modes(ir.ModeU32, ir.ModeU32), reqs(reqEAX, reqEDX, reqDivisor),
		reqs(reqEAX.WithSame(0), reqEDX.WithSame(1)), lo, hi, divisor)
	a.SetFlavour(FlavourDivMod)
	return b.emit(n, a)
}

// Lea computes base + index<<scale + offset.
func (b *Builder) Lea(base, index ir.Value, scale int, offset string) *ir.Node {
	n, a := newNode(b.g, OpLea, modes(ir.ModeP32), reqs(reqGP, reqGP), reqs(reqGP), base, index)
	a.SetAMFlavour(AMFlavourB | AMFlavourI)
	a.SetScale(scale)
	a.AddOffset(offset)
	return b.emit(n, a)
}

// Load reads a value of mode m at base + offset. Result 1 is the memory state.
func (b *Builder) Load(base, mem ir.Value, m ir.Mode, offset string) *ir.Node {
	n, a := newNode(b.g, OpLoad, modes(m, ir.ModeM), reqs(reqGP, reqNone), reqs(reqOf(m), reqNone), base, mem)
	a.SetAddrMode('S')
	a.SetAMFlavour(AMFlavourB)
	a.AddOffset(offset)
	a.SetLSMode(m)
	return b.emit(n, a)
}

// Store writes val at base + offset.
func (b *Builder) Store(base, val, mem ir.Value, offset string) *ir.Node {
	n, a := newNode(b.g, OpStore, modes(ir.ModeM), reqs(reqGP, reqOf(val.Mode()), reqNone), reqs(reqNone), base, val, mem)
	a.SetAddrMode('D')
	a.SetAMFlavour(AMFlavourB)
	a.AddOffset(offset)
	a.SetLSMode(val.Mode())
	return b.emit(n, a)
}

// Spill writes val to a frame slot bound after register allocation.
func (b *Builder) Spill(val, mem ir.Value) *ir.Node {
	n, a := newNode(b.g, OpSpill, modes(ir.ModeM), reqs(reqOf(val.Mode()), reqNone), reqs(reqNone), val, mem)
	a.SetAddrMode('D')
	a.SetLSMode(val.Mode())
	a.SetUseFrame()
	a.SetFlags(backend.FlagDontSpill)
	return b.emit(n, a)
}

// Reload reads a value of mode m back from the frame slot written by the Spill defining mem.
func (b *Builder) Reload(mem ir.Value, m ir.Mode) *ir.Node {
	n, a := newNode(b.g, OpReload, modes(m), reqs(reqNone), reqs(reqOf(m)), mem)
	a.SetAddrMode('S')
	a.SetLSMode(m)
	a.SetUseFrame()
	return b.emit(n, a)
}

// Cmp compares x against y for the condition c.
func (b *Builder) Cmp(x, y ir.Value, c Cond) *ir.Node {
	n, a := newNode(b.g, OpCmp, modes(ir.ModeFlags), reqs(reqGP, reqGP), reqs(reqNone), x, y)
	a.SetPNCode(c)
	return b.emit(n, a)
}

// Setcc materializes the condition c of flags as 0 or 1.
func (b *Builder) Setcc(flags ir.Value, c Cond) *ir.Node {
	n, a := newNode(b.g, OpSetcc, modes(ir.ModeI32), reqs(reqNone), reqs(reqByte), flags)
	a.SetPNCode(c)
	return b.emit(n, a)
}

func (b *Builder) fbinop(op Op, src, dst ir.Value) *ir.Node {
	return b.emit(newNode(b.g, op, modes(dst.Mode()), reqs(reqXMM, reqXMM), reqs(reqXMM.WithSame(1)), src, dst))
}

// FAdd computes dst + src on floats.
func (b *Builder) FAdd(src, dst ir.Value) *ir.Node { return b.fbinop(OpFAdd, src, dst) }

// FMul computes dst * src on floats.
func (b *Builder) FMul(src, dst ir.Value) *ir.Node { return b.fbinop(OpFMul, src, dst) }

// Xorp computes the bitwise xor of two xmm registers.
func (b *Builder) Xorp(src, dst ir.Value) *ir.Node { return b.fbinop(OpXorp, src, dst) }

// Perm permutes the registers of vals. Result i is vals[i] in the register
// assigned to result i.
func (b *Builder) Perm(vals ...ir.Value) *ir.Node {
	return b.emit(newPerm(b.g, vals))
}

func newPerm(g *ir.Graph, vals []ir.Value) (*ir.Node, *Attr) {
	ms := make([]ir.Mode, len(vals))
	in := make([]backend.Requirement, len(vals))
	for i, v := range vals {
		ms[i] = v.Mode()
		in[i] = reqOf(v.Mode())
	}
	out := append([]backend.Requirement(nil), in...)
	return newNode(g, OpPerm, ms, in, out, vals...)
}

// Return returns vals. The first integer value goes in EAX, the first float in X0.
func (b *Builder) Return(vals ...ir.Value) *ir.Node {
	in := make([]backend.Requirement, len(vals))
	var gpDone, xmmDone bool
	for i, v := range vals {
		switch c := classOf(v.Mode()); {
		case c == ClassGP && !gpDone:
			in[i], gpDone = reqEAX, true
		case c == ClassXMM && !xmmDone:
			in[i], xmmDone = backend.LimitedReq(ClassXMM, XMM0), true
		default:
			in[i] = reqOf(v.Mode())
		}
	}
	return b.emit(newNode(b.g, OpReturn, nil, in, nil, vals...))
}

// Keep appends a Keep node reading vals.
func (b *Builder) Keep(vals ...ir.Value) *ir.Node {
	n := b.g.NewKeep(vals...)
	b.blk.Append(n)
	return n
}
