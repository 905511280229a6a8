package backend

import (
	"fmt"
	"strings"
)

// ReqKind is the bit set describing what a Requirement asks for.
type ReqKind uint8

const (
	ReqKindNone   ReqKind = 0
	ReqKindNormal ReqKind = 1 << (iota - 1)
	ReqKindLimited
	ReqKindShouldBeSame
	ReqKindShouldBeDifferent
)

// String implements fmt.Stringer.
func (k ReqKind) String() string {
	if k == ReqKindNone {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		k    ReqKind
		name string
	}{
		{ReqKindNormal, "normal"},
		{ReqKindLimited, "limited"},
		{ReqKindShouldBeSame, "should_be_same"},
		{ReqKindShouldBeDifferent, "should_be_different"},
	} {
		if k&b.k != 0 {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}

// Requirement is the register requirement of one operand position.
//
// The zero value requires nothing. A limited set or a tie can only be added
// on top of a class, so a Requirement lacking a class never carries either.
// Ties are soft: they guide the allocator but never affect Allows.
type Requirement struct {
	class   *RegClass
	limited RegSet
	// same and different hold the tied position plus one; zero means no tie.
	same, different int
}

// NoReq returns the Requirement of operands that do not live in registers.
func NoReq() Requirement { return Requirement{} }

// NormalReq returns a Requirement for any register of c.
func NormalReq(c *RegClass) Requirement {
	if c == nil {
		panic("BUG: requirement without register class")
	}
	return Requirement{class: c}
}

// LimitedReq returns a Requirement restricted to regs, which must be members of c.
func LimitedReq(c *RegClass, regs ...*Register) Requirement {
	r := NormalReq(c)
	if len(regs) == 0 {
		panic(fmt.Sprintf("BUG: empty limited set in class %s", c))
	}
	for _, reg := range regs {
		if reg.class != c {
			panic(fmt.Sprintf("BUG: register %s is not a member of class %s", reg, c))
		}
	}
	r.limited = NewRegSet(regs...)
	return r
}

// WithSame returns r with a ShouldBeSame tie to operand position pos.
func (r Requirement) WithSame(pos int) Requirement {
	r.checkTie(pos)
	r.same = pos + 1
	return r
}

// WithDifferent returns r with a ShouldBeDifferent tie to operand position pos.
func (r Requirement) WithDifferent(pos int) Requirement {
	r.checkTie(pos)
	r.different = pos + 1
	return r
}

func (r Requirement) checkTie(pos int) {
	if r.class == nil {
		panic("BUG: tie on a requirement without register class")
	}
	if pos < 0 {
		panic(fmt.Sprintf("BUG: negative tie position %d", pos))
	}
}

// Kind returns the bit set of this Requirement.
func (r Requirement) Kind() (k ReqKind) {
	if r.class == nil {
		return ReqKindNone
	}
	if r.limited != 0 {
		k |= ReqKindLimited
	} else {
		k |= ReqKindNormal
	}
	if r.same != 0 {
		k |= ReqKindShouldBeSame
	}
	if r.different != 0 {
		k |= ReqKindShouldBeDifferent
	}
	return
}

// IsNone returns true if the operand needs no register.
func (r Requirement) IsNone() bool { return r.class == nil }

// Class returns the register class, or nil for NoReq.
func (r Requirement) Class() *RegClass { return r.class }

// Limited returns the limited set, or zero if the requirement is not limited.
func (r Requirement) Limited() RegSet { return r.limited }

// Same returns the ShouldBeSame position if any.
func (r Requirement) Same() (pos int, ok bool) { return r.same - 1, r.same != 0 }

// Different returns the ShouldBeDifferent position if any.
func (r Requirement) Different() (pos int, ok bool) { return r.different - 1, r.different != 0 }

// Single returns the only legal register when the limited set has exactly one member.
func (r Requirement) Single() (*Register, bool) {
	if r.limited.Len() != 1 {
		return nil, false
	}
	return r.class.regs[r.limited.Indices()[0]], true
}

// Allows returns true if reg is a legal assignment for this Requirement.
func (r Requirement) Allows(reg *Register) bool {
	if r.class == nil || reg == nil || reg.class != r.class {
		return false
	}
	if r.limited != 0 {
		return r.limited.Has(reg.index)
	}
	return true
}

// LimitedIndices returns the legal register indices: the limited set, or the whole class.
func (r Requirement) LimitedIndices() []int {
	if r.class == nil {
		return nil
	}
	if r.limited != 0 {
		return r.limited.Indices()
	}
	ret := make([]int, len(r.class.regs))
	for i := range ret {
		ret[i] = i
	}
	return ret
}

// LimitedRegisters returns the legal registers, see LimitedIndices.
func (r Requirement) LimitedRegisters() []*Register {
	idx := r.LimitedIndices()
	ret := make([]*Register, len(idx))
	for i, j := range idx {
		ret[i] = r.class.regs[j]
	}
	return ret
}

// CheckTies validates the tie positions of the requirement at operand self.
// Output ties index inputs, input ties index other inputs.
func (r Requirement) CheckTies(self int, output bool, numIns int) error {
	for _, t := range []struct {
		name string
		v    int
	}{{"same", r.same}, {"different", r.different}} {
		if t.v == 0 {
			continue
		}
		pos := t.v - 1
		if pos >= numIns {
			return fmt.Errorf("%s tie to operand %d out of %d inputs", t.name, pos, numIns)
		}
		if !output && pos == self {
			return fmt.Errorf("%s tie of input %d refers to itself", t.name, self)
		}
	}
	if r.same != 0 && r.same == r.different {
		return fmt.Errorf("same and different tie to operand %d", r.same-1)
	}
	return nil
}

// Format returns the textual form of the requirement. operand names a tied operand position.
func (r Requirement) Format(operand func(pos int) string) string {
	if r.class == nil {
		return "n/a"
	}
	parts := []string{r.class.name}
	if r.limited != 0 {
		parts = append(parts, r.limited.Format(r.class))
	}
	if pos, ok := r.Same(); ok {
		parts = append(parts, "same as "+operand(pos))
	}
	if pos, ok := r.Different(); ok {
		parts = append(parts, "different from "+operand(pos))
	}
	return strings.Join(parts, " ")
}

// String implements fmt.Stringer.
func (r Requirement) String() string {
	return r.Format(func(pos int) string { return fmt.Sprintf("#%d", pos) })
}
