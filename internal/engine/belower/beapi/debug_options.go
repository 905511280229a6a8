package beapi

// These consts are used in various places in the backend to control the debug output.
// They are compile-time switches so that the printing is removed entirely when off.
const (
	PrintAssuredGraph      = false
	PrintAllocatedGraph    = false
	PrintLoweredGraph      = false
	AssureLoggingEnabled   = false
	LoweringLoggingEnabled = false
	RegAllocLoggingEnabled = false
)
