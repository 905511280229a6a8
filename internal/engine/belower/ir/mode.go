package ir

// Mode is the machine type of a value flowing along an edge of the graph.
type Mode byte

const (
	ModeInvalid Mode = iota

	// ModeI32 represents a signed 32-bit integer.
	ModeI32

	// ModeU32 represents an unsigned 32-bit integer.
	ModeU32

	// ModeP32 represents a 32-bit pointer.
	ModeP32

	// ModeF32 represents 32-bit floats in the IEEE 754.
	ModeF32

	// ModeF64 represents 64-bit floats in the IEEE 754.
	ModeF64

	// ModeM represents the memory state. Never held in a register.
	ModeM

	// ModeFlags represents the condition flags produced by a comparison.
	ModeFlags
)

// String implements fmt.Stringer.
func (m Mode) String() (ret string) {
	switch m {
	case ModeI32:
		return "i32"
	case ModeU32:
		return "u32"
	case ModeP32:
		return "p32"
	case ModeF32:
		return "f32"
	case ModeF64:
		return "f64"
	case ModeM:
		return "mem"
	case ModeFlags:
		return "flags"
	}
	return "?NOMODE?"
}

// Bits returns the number of bits of a value of this mode, or zero if the mode has no size.
func (m Mode) Bits() byte {
	switch m {
	case ModeI32, ModeU32, ModeP32, ModeF32:
		return 32
	case ModeF64:
		return 64
	default:
		return 0
	}
}

// IsInt returns true if the mode is an integer or pointer mode.
func (m Mode) IsInt() bool {
	return m == ModeI32 || m == ModeU32 || m == ModeP32
}

// IsFloat returns true if the mode is a floating point mode.
func (m Mode) IsFloat() bool {
	return m == ModeF32 || m == ModeF64
}

// IsData returns true if values of this mode live in registers.
func (m Mode) IsData() bool {
	return m.IsInt() || m.IsFloat()
}
