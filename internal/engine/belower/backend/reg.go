package backend

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/mmcloughlin/avo/reg"
)

// Register is a physical register of a RegClass.
type Register struct {
	name   string
	index  int
	class  *RegClass
	phys   reg.Physical
	ignore bool
}

// Name returns the assembler name of the register.
func (r *Register) Name() string { return r.name }

// Index returns the index of the register within its class.
func (r *Register) Index() int { return r.index }

// Class returns the class the register belongs to.
func (r *Register) Class() *RegClass { return r.class }

// Physical returns the underlying avo register.
func (r *Register) Physical() reg.Physical { return r.phys }

// Ignore returns true if the allocator must never hand out this register,
// e.g. the stack pointer.
func (r *Register) Ignore() bool { return r.ignore }

// String implements fmt.Stringer.
func (r *Register) String() string { return r.name }

// RegType represents the type of a register.
type RegType byte

const (
	RegTypeInvalid RegType = iota
	RegTypeInt
	RegTypeFloat
)

// String implements fmt.Stringer.
func (t RegType) String() string {
	switch t {
	case RegTypeInt:
		return "int"
	case RegTypeFloat:
		return "float"
	}
	return "invalid"
}

// RegTypeOf returns the RegType of the given ir.Mode.
func RegTypeOf(m ir.Mode) RegType {
	switch {
	case m.IsInt():
		return RegTypeInt
	case m.IsFloat():
		return RegTypeFloat
	default:
		panic(fmt.Sprintf("BUG: mode %s has no register type", m))
	}
}

// RegClass is a named, ordered set of interchangeable registers.
// A RegClass is immutable once created and shared by reference.
type RegClass struct {
	name string
	typ  RegType
	regs []*Register
}

// NewRegClass creates a RegClass from avo physical registers. Registers that
// avo marks as restricted, or whose name is listed in ignore, are never
// allocatable.
func NewRegClass(name string, typ RegType, phys []reg.Physical, ignore ...string) *RegClass {
	if len(phys) == 0 || len(phys) > 64 {
		panic(fmt.Sprintf("BUG: register class %s must have between 1 and 64 registers", name))
	}
	c := &RegClass{name: name, typ: typ, regs: make([]*Register, len(phys))}
	for i, p := range phys {
		r := &Register{name: p.Asm(), index: i, class: c, phys: p}
		r.ignore = p.Info()&reg.Restricted != 0
		for _, ig := range ignore {
			if ig == r.name {
				r.ignore = true
			}
		}
		c.regs[i] = r
	}
	return c
}

// Name returns the name of the class.
func (c *RegClass) Name() string { return c.name }

// Type returns the RegType of the class.
func (c *RegClass) Type() RegType { return c.typ }

// Len returns the number of registers in the class.
func (c *RegClass) Len() int { return len(c.regs) }

// Register returns the i-th register of the class.
func (c *RegClass) Register(i int) *Register { return c.regs[i] }

// Registers returns all registers of the class in order.
func (c *RegClass) Registers() []*Register { return c.regs }

// Allocatable returns the registers the allocator may hand out.
func (c *RegClass) Allocatable() (ret []*Register) {
	for _, r := range c.regs {
		if !r.ignore {
			ret = append(ret, r)
		}
	}
	return
}

// Lookup returns the register called name, or nil.
func (c *RegClass) Lookup(name string) *Register {
	for _, r := range c.regs {
		if r.name == name {
			return r
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (c *RegClass) String() string { return c.name }

// RegSet is a set of register indices within one class.
type RegSet uint64

// NewRegSet returns the set of the given registers' indices.
func NewRegSet(regs ...*Register) (s RegSet) {
	for _, r := range regs {
		s = s.Add(r.index)
	}
	return
}

// Has returns true if index i is in the set.
func (s RegSet) Has(i int) bool { return s&(1<<uint(i)) != 0 }

// Add returns the set with index i added.
func (s RegSet) Add(i int) RegSet { return s | 1<<uint(i) }

// Len returns the number of indices in the set.
func (s RegSet) Len() int { return bits.OnesCount64(uint64(s)) }

// Indices returns the indices in ascending order.
func (s RegSet) Indices() (ret []int) {
	for v := uint64(s); v != 0; v &= v - 1 {
		ret = append(ret, bits.TrailingZeros64(v))
	}
	return
}

// Format returns the register names of the set within class c, e.g. "{AX DX}".
func (s RegSet) Format(c *RegClass) string {
	names := make([]string, 0, s.Len())
	for _, i := range s.Indices() {
		names = append(names, c.regs[i].name)
	}
	return "{" + strings.Join(names, " ") + "}"
}
