package backend

import "strings"

// Flags are allocator hints attached to a node.
type Flags uint8

const (
	FlagsNone     Flags = 0
	FlagDontSpill Flags = 1 << (iota - 1)
	FlagRematerializable
	FlagIgnore
)

// Has returns true if all of o are set.
func (f Flags) Has(o Flags) bool { return f&o == o }

// String implements fmt.Stringer.
func (f Flags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var parts []string
	if f&FlagDontSpill != 0 {
		parts = append(parts, "unspillable")
	}
	if f&FlagRematerializable != 0 {
		parts = append(parts, "remat")
	}
	if f&FlagIgnore != 0 {
		parts = append(parts, "ignore")
	}
	return strings.Join(parts, " ")
}
