package ia32

import (
	"fmt"
	"strings"

	"github.com/faddat/belower/internal/engine/belower/ir"
)

const notAvailable = "n/a"

// Dump renders the ia32 attributes of n for debugging.
func Dump(n *ir.Node) string {
	a := AttrOf(n)
	var sb strings.Builder
	sb.WriteString("=== IA32 attr begin ===\n")

	operand := func(pos int) string {
		if pos < n.NumIns() && n.In(pos).Valid() {
			return n.In(pos).String()
		}
		return fmt.Sprintf("#%d", pos)
	}
	if len(a.inReqs) > 0 {
		for i, r := range a.inReqs {
			fmt.Fprintf(&sb, "inreq #%d = %s\n", i, r.Format(operand))
		}
		sb.WriteByte('\n')
	}
	if len(a.outReqs) > 0 {
		for i, r := range a.outReqs {
			fmt.Fprintf(&sb, "outreq #%d = %s\n", i, r.Format(operand))
		}
		sb.WriteByte('\n')
	}
	if len(a.regs) > 0 {
		for i, r := range a.regs {
			name := notAvailable
			if r != nil {
				name = r.Name()
			}
			fmt.Fprintf(&sb, "reg #%d = %s\n", i, name)
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "op = %s\n", a.kind)
	if text, ok := a.ConstText(); ok {
		fmt.Fprintf(&sb, "constant = %s\n", text)
	}
	fmt.Fprintf(&sb, "AM support = %s\n", a.amSupport)
	fmt.Fprintf(&sb, "AM flavour = %s (%d)\n", a.amFlavour, a.amFlavour)
	offset, ok := a.Offset()
	if !ok {
		offset = notAvailable
	}
	fmt.Fprintf(&sb, "AM offset = %s\n", offset)
	fmt.Fprintf(&sb, "AM scale = %d\n", a.scale)
	if m := a.lsMode; m != ir.ModeInvalid {
		fmt.Fprintf(&sb, "ls_mode = %s\n", m)
	}
	pn := notAvailable
	if c, ok := a.PNCode(); ok {
		pn = c.String()
	}
	fmt.Fprintf(&sb, "pn_code = %s\n", pn)
	fmt.Fprintf(&sb, "op flavour = %s\n", a.opFlavour)
	fmt.Fprintf(&sb, "n_res = %d\n", len(a.regs))
	fmt.Fprintf(&sb, "use_frame = %d\n", b2i(a.useFrame))
	fmt.Fprintf(&sb, "commutative = %d\n", b2i(a.commutative))
	fmt.Fprintf(&sb, "flags = %s (%d)\n", a.flags, a.flags)
	ent := notAvailable
	if a.frameEnt != nil {
		ent = a.frameEnt.String()
	}
	fmt.Fprintf(&sb, "frame entity = %s\n", ent)
	orig, ok := a.OrigNode()
	if !ok {
		orig = notAvailable
	}
	fmt.Fprintf(&sb, "orig node = %s\n", orig)

	sb.WriteString("=== IA32 attr end ===\n")
	return sb.String()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NodeAttrText returns the short attribute annotation printed after the
// opcode, e.g. "[SymC foo]" or "[AM S]".
func NodeAttrText(n *ir.Node) string {
	a, ok := attrOf(n)
	if !ok {
		return ""
	}
	switch a.kind {
	case OpKindConst:
		return "[" + a.imm.text + "]"
	case OpKindSymConst:
		return "[SymC " + a.imm.symbol + "]"
	case OpKindAddrModeS:
		return "[AM S]"
	case OpKindAddrModeD:
		return "[AM D]"
	default:
		return ""
	}
}

// nameOf returns the register holding v or, before allocation, the name of v.
func nameOf(v ir.Value) string {
	if r := regOf(v); r != nil {
		return r.Name()
	}
	return v.String()
}

// FormatNode returns the textual form of n, naming registers where assigned,
// e.g. "CX = Add[AM S] AX, CX".
func FormatNode(n *ir.Node) string {
	var sb strings.Builder
	if n.NumResults() > 0 {
		for i := 0; i < n.NumResults(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(nameOf(n.Result(i)))
		}
		sb.WriteString(" = ")
	}
	sb.WriteString(n.OpName())
	sb.WriteString(NodeAttrText(n))
	for i, in := range n.Ins() {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(nameOf(in))
	}
	if a, ok := attrOf(n); ok {
		if off, ok := a.Offset(); ok {
			sb.WriteString(" ")
			sb.WriteString(off)
		}
	}
	return sb.String()
}
