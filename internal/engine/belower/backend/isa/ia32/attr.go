package ia32

import (
	"strconv"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
)

// OpKind classifies how a node encodes its operand.
type OpKind byte

const (
	OpKindNormal OpKind = iota
	OpKindConst
	OpKindSymConst
	OpKindAddrModeS
	OpKindAddrModeD
)

// String implements fmt.Stringer.
func (k OpKind) String() string {
	switch k {
	case OpKindNormal:
		return "Normal"
	case OpKindConst:
		return "Const"
	case OpKindSymConst:
		return "SymConst"
	case OpKindAddrModeS:
		return "AM Source"
	case OpKindAddrModeD:
		return "AM Dest"
	default:
		return "Unknown"
	}
}

// immediate is the constant operand of a node. text caches the printed form
// and is kept in sync on every mutation.
type immediate struct {
	value    int64
	hasValue bool
	symbol   string
	text     string
	hasText  bool
}

// Attr holds the ia32 specific data of a node. Each Attr is owned by exactly
// one node and reached through AttrOf.
type Attr struct {
	owner *ir.Node
	op    Op
	kind  OpKind
	imm   immediate

	amSupport AMSupport
	amFlavour AMFlavour
	scale     int
	offset    offsetChain

	flags   backend.Flags
	inReqs  []backend.Requirement
	outReqs []backend.Requirement
	regs    []*backend.Register
	colored bool

	frameEnt    *backend.FrameEntity
	useFrame    bool
	commutative bool

	lsMode    ir.Mode
	pnCode    Cond
	hasPN     bool
	opFlavour OpFlavour

	origNode string
}

// OpName implements ir.Attr.
func (a *Attr) OpName() string { return a.op.String() }

// AttrOf returns the ia32 attributes of n. Panics if n is not an ia32 node.
func AttrOf(n *ir.Node) *Attr {
	a, ok := n.Attr().(*Attr)
	if !ok {
		panic("BUG: " + n.String() + " is not an ia32 node")
	}
	return a
}

// attrOf is like AttrOf but reports non-ia32 nodes instead of panicking.
func attrOf(n *ir.Node) (*Attr, bool) {
	a, ok := n.Attr().(*Attr)
	return a, ok
}

// Op returns the opcode.
func (a *Attr) Op() Op { return a.op }

// Kind returns the operand encoding of the node.
func (a *Attr) Kind() OpKind { return a.kind }

// SetAddrMode marks the node as using an address mode for its source ('S') or
// destination ('D') operand.
func (a *Attr) SetAddrMode(direction byte) {
	switch direction {
	case 'S':
		a.checkAMSupport(AMSource)
		a.kind = OpKindAddrModeS
	case 'D':
		a.checkAMSupport(AMDest)
		a.kind = OpKindAddrModeD
	default:
		backend.Fatalf(a.owner, "op_kind", "invalid address mode direction %q", direction)
	}
}

func (a *Attr) checkAMSupport(want AMSupport) {
	if a.amSupport != want && a.amSupport != AMFull {
		backend.Fatalf(a.owner, "op_kind", "%s does not support %s address mode", a.op, want)
	}
}

// IsAddrModeS returns true if the source operand is an address mode.
func (a *Attr) IsAddrModeS() bool { return a.kind == OpKindAddrModeS }

// IsAddrModeD returns true if the destination operand is an address mode.
func (a *Attr) IsAddrModeD() bool { return a.kind == OpKindAddrModeD }

// AMSupport returns the address modes supported by the op.
func (a *Attr) AMSupport() AMSupport { return a.amSupport }

// SetAMSupport overrides the address modes supported by the op.
func (a *Attr) SetAMSupport(s AMSupport) { a.amSupport = s }

// AMFlavour returns the present address mode components.
func (a *Attr) AMFlavour() AMFlavour { return a.amFlavour }

// SetAMFlavour sets the present address mode components.
func (a *Attr) SetAMFlavour(f AMFlavour) { a.amFlavour = f }

// Scale returns the index scale as a shift amount.
func (a *Attr) Scale() int { return a.scale }

// SetScale sets the index scale as a shift amount in [0, 3].
func (a *Attr) SetScale(s int) {
	if s < 0 || s > 3 {
		backend.Fatalf(a.owner, "addressing", "scale %d out of range", s)
	}
	a.scale = s
	if s != 0 {
		a.amFlavour |= AMFlavourS
	}
}

// Offset returns the rendered address mode offset, e.g. "-8-4".
func (a *Attr) Offset() (string, bool) { return a.offset.render() }

// OffsetValue returns the value of the offset if all of its terms are numeric.
func (a *Attr) OffsetValue() (int64, bool) {
	if len(a.offset) == 0 {
		return 0, false
	}
	return a.offset.value()
}

// ExtendOffset appends term to the offset with the operator sign, which is
// either '+' or '-'. An explicit sign on term is combined with sign.
func (a *Attr) ExtendOffset(term string, sign byte) {
	if sign != '+' && sign != '-' {
		backend.Fatalf(a.owner, "addressing", "invalid offset operator %q", sign)
	}
	a.offset = a.offset.extend(term, sign)
	if len(a.offset) > 0 {
		a.amFlavour |= AMFlavourO
	}
}

// AddOffset adds term to the offset.
func (a *Attr) AddOffset(term string) { a.ExtendOffset(term, '+') }

// SubOffset subtracts term from the offset.
func (a *Attr) SubOffset(term string) { a.ExtendOffset(term, '-') }

// Immediate returns the numeric constant operand.
func (a *Attr) Immediate() (int64, bool) { return a.imm.value, a.imm.hasValue }

// SymConst returns the symbol of a symbolic constant operand.
func (a *Attr) SymConst() (string, bool) {
	return a.imm.symbol, a.kind == OpKindSymConst
}

// ConstText returns the printed form of the constant operand.
func (a *Attr) ConstText() (string, bool) { return a.imm.text, a.imm.hasText }

func (a *Attr) checkImmediate() {
	if !a.op.HasImmediate() {
		backend.Fatalf(a.owner, "constant", "%s has no immediate operand", a.op)
	}
	if a.kind == OpKindAddrModeS || a.kind == OpKindAddrModeD {
		backend.Fatalf(a.owner, "constant", "immediate operand on %s address mode node", a.kind)
	}
}

// SetImmediate sets a numeric constant operand.
func (a *Attr) SetImmediate(v int64) {
	a.checkImmediate()
	a.kind = OpKindConst
	a.imm = immediate{value: v, hasValue: true, text: strconv.FormatInt(v, 10), hasText: true}
}

// SetSymConst sets a symbolic constant operand resolved by the linker.
func (a *Attr) SetSymConst(name string) {
	a.checkImmediate()
	if name == "" {
		backend.Fatalf(a.owner, "constant", "empty symbol name")
	}
	a.kind = OpKindSymConst
	a.imm = immediate{symbol: name, text: name, hasText: true}
}

// SetConstType changes the constant kind of a constant loading node.
func (a *Attr) SetConstType(k OpKind) {
	if a.op != OpConst && a.op != OpFConst {
		backend.Fatalf(a.owner, "op_kind", "constant type set on %s", a.op)
	}
	if k != OpKindConst && k != OpKindSymConst {
		backend.Fatalf(a.owner, "op_kind", "%s is not a constant type", k)
	}
	a.kind = k
}

// CopyImmediateFrom copies the constant operand of the Const node cnst.
func (a *Attr) CopyImmediateFrom(cnst *ir.Node) {
	src := AttrOf(cnst)
	if src.op != OpConst && src.op != OpFConst {
		backend.Fatalf(a.owner, "constant", "immediate copied from %s", cnst)
	}
	a.checkImmediate()
	a.kind = src.kind
	a.imm = src.imm
}

// SameImmediate returns true if a and b encode the same constant operand.
func SameImmediate(a, b *Attr) bool {
	if a.kind != b.kind || a.imm.hasText != b.imm.hasText {
		return false
	}
	return !a.imm.hasText || a.imm.text == b.imm.text
}

// Flags returns the allocator hints.
func (a *Attr) Flags() backend.Flags { return a.flags }

// SetFlags sets the allocator hints.
func (a *Attr) SetFlags(f backend.Flags) { a.flags = f }

// InReqs returns the requirements of the inputs.
func (a *Attr) InReqs() []backend.Requirement { return a.inReqs }

// OutReqs returns the requirements of the results.
func (a *Attr) OutReqs() []backend.Requirement { return a.outReqs }

// InReq returns the requirement of input pos.
func (a *Attr) InReq(pos int) backend.Requirement { return a.inReqs[pos] }

// OutReq returns the requirement of result pos.
func (a *Attr) OutReq(pos int) backend.Requirement { return a.outReqs[pos] }

// AllocateRegisterSlots resizes the register slots to n unassigned entries.
func (a *Attr) AllocateRegisterSlots(n int) {
	if a.colored {
		backend.Fatalf(a.owner, "assigned_registers", "slots resized after register allocation")
	}
	a.regs = make([]*backend.Register, n)
}

// NumSlots returns the number of register slots.
func (a *Attr) NumSlots() int { return len(a.regs) }

// SetOutReg assigns r to result pos. Each slot is assigned once.
func (a *Attr) SetOutReg(pos int, r *backend.Register) {
	if pos >= len(a.regs) {
		backend.Fatalf(a.owner, "assigned_registers", "no slot %d", pos)
	}
	if a.regs[pos] != nil {
		backend.Fatalf(a.owner, "assigned_registers", "slot %d already holds %s", pos, a.regs[pos])
	}
	a.regs[pos] = r
	a.colored = true
}

// HasOutReg returns true if result pos has a register.
func (a *Attr) HasOutReg(pos int) bool { return pos < len(a.regs) && a.regs[pos] != nil }

// OutReg returns the register of result pos. Panics if unassigned.
func (a *Attr) OutReg(pos int) *backend.Register {
	if !a.HasOutReg(pos) {
		backend.Fatalf(a.owner, "assigned_registers", "slot %d is unassigned", pos)
	}
	return a.regs[pos]
}

// OutRegName returns the name of the register of result pos.
func (a *Attr) OutRegName(pos int) string { return a.OutReg(pos).Name() }

// OutRegIndex returns the class index of the register of result pos.
func (a *Attr) OutRegIndex(pos int) int { return a.OutReg(pos).Index() }

// FrameEntity returns the bound frame slot, if any.
func (a *Attr) FrameEntity() *backend.FrameEntity { return a.frameEnt }

// SetFrameEntity binds the node to the frame slot e.
func (a *Attr) SetFrameEntity(e *backend.FrameEntity) { a.frameEnt = e }

// UseFrame returns true if the node addresses a frame slot.
func (a *Attr) UseFrame() bool { return a.useFrame }

// SetUseFrame marks the node as addressing a frame slot.
func (a *Attr) SetUseFrame() { a.useFrame = true }

// ClearUseFrame clears the frame slot mark.
func (a *Attr) ClearUseFrame() { a.useFrame = false }

// Commutative returns true if the first two inputs may be swapped.
func (a *Attr) Commutative() bool { return a.commutative }

// SetCommutative marks the first two inputs as swappable.
func (a *Attr) SetCommutative() {
	if len(a.inReqs) < 2 {
		backend.Fatalf(a.owner, "commutative", "%s has less than two inputs", a.op)
	}
	a.commutative = true
}

// ClearCommutative clears the commutative mark.
func (a *Attr) ClearCommutative() { a.commutative = false }

// LSMode returns the mode of the memory access of a load or store.
func (a *Attr) LSMode() ir.Mode { return a.lsMode }

// SetLSMode sets the mode of the memory access.
func (a *Attr) SetLSMode(m ir.Mode) { a.lsMode = m }

// PNCode returns the condition code.
func (a *Attr) PNCode() (Cond, bool) { return a.pnCode, a.hasPN }

// SetPNCode sets the condition code.
func (a *Attr) SetPNCode(c Cond) { a.pnCode, a.hasPN = c, true }

// Flavour returns the op flavour.
func (a *Attr) Flavour() OpFlavour { return a.opFlavour }

// SetFlavour sets the op flavour.
func (a *Attr) SetFlavour(f OpFlavour) { a.opFlavour = f }

// OrigNode returns the name of the node this one was selected from. Only
// recorded in debug mode.
func (a *Attr) OrigNode() (string, bool) { return a.origNode, a.origNode != "" }

// SetOrigNode records the name of the node this one was selected from.
func (a *Attr) SetOrigNode(name string) { a.origNode = name }
