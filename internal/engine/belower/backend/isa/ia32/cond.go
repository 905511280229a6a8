package ia32

// Cond represents a condition code of Jcc, Setcc and Cmovcc.
// The values follow the hardware encoding.
type Cond uint8

const (
	CondO  Cond = iota // CondO represents "overflow"
	CondNO             // CondNO represents "not overflow"
	CondB              // CondB represents "below"
	CondAE             // CondAE represents "above or equal"
	CondE              // CondE represents "equal"
	CondNE             // CondNE represents "not equal"
	CondBE             // CondBE represents "below or equal"
	CondA              // CondA represents "above"
	CondS              // CondS represents "sign"
	CondNS             // CondNS represents "not sign"
	CondP              // CondP represents "parity"
	CondNP             // CondNP represents "not parity"
	CondL              // CondL represents "less than"
	CondGE             // CondGE represents "greater or equal"
	CondLE             // CondLE represents "less or equal"
	CondG              // CondG represents "greater than"
)

var condNames = [...]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

// Invert returns the inverted condition. Conditions come in pairs differing in the lowest bit.
func (c Cond) Invert() Cond {
	return c ^ 1
}

// String implements fmt.Stringer.
func (c Cond) String() string {
	if int(c) >= len(condNames) {
		panic(c)
	}
	return condNames[c]
}
