package ia32

import (
	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/mmcloughlin/avo/reg"
)

// Register classes of ia32. Register indices follow the hardware encoding.
var (
	ClassGP = backend.NewRegClass("gp", backend.RegTypeInt,
		[]reg.Physical{reg.EAX, reg.ECX, reg.EDX, reg.EBX, reg.ESP, reg.EBP, reg.ESI, reg.EDI},
		"SP", "BP")
	ClassXMM = backend.NewRegClass("xmm", backend.RegTypeFloat,
		[]reg.Physical{reg.X0, reg.X1, reg.X2, reg.X3, reg.X4, reg.X5, reg.X6, reg.X7})
)

// Frequently pinned registers.
var (
	EAX  = ClassGP.Register(0)
	ECX  = ClassGP.Register(1)
	EDX  = ClassGP.Register(2)
	EBX  = ClassGP.Register(3)
	ESP  = ClassGP.Register(4)
	EBP  = ClassGP.Register(5)
	ESI  = ClassGP.Register(6)
	EDI  = ClassGP.Register(7)
	XMM0 = ClassXMM.Register(0)
)

var classes = []*backend.RegClass{ClassGP, ClassXMM}

// classOf returns the register class holding values of mode m, or nil if m is
// not held in registers.
func classOf(m ir.Mode) *backend.RegClass {
	if !m.IsData() {
		return nil
	}
	switch backend.RegTypeOf(m) {
	case backend.RegTypeInt:
		return ClassGP
	case backend.RegTypeFloat:
		return ClassXMM
	default:
		return nil
	}
}

// reqOf returns the unconstrained requirement for values of mode m.
func reqOf(m ir.Mode) backend.Requirement {
	if !m.IsData() {
		return backend.NoReq()
	}
	return backend.NormalReq(classOf(m))
}

var (
	reqGP  = backend.NormalReq(ClassGP)
	reqXMM = backend.NormalReq(ClassXMM)
	reqEAX = backend.LimitedReq(ClassGP, EAX)
	reqECX = backend.LimitedReq(ClassGP, ECX)
	reqEDX = backend.LimitedReq(ClassGP, EDX)
	// reqByte holds the registers with an addressable low byte.
	reqByte = backend.LimitedReq(ClassGP, EAX, ECX, EDX, EBX)
	// reqDivisor keeps the divisor out of the dividend registers.
	reqDivisor = backend.LimitedReq(ClassGP, ECX, EBX, ESI, EDI)
	reqNone    = backend.NoReq()
)
