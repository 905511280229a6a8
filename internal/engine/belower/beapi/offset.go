package beapi

import "strconv"

// Offset represents a byte offset relative to the frame base.
type Offset int32

// I64 encodes an Offset as int64 for convenience.
func (o Offset) I64() int64 {
	return int64(o)
}

// String implements fmt.Stringer. The sign is always explicit so that the
// result can be appended to an addressing-mode offset chain as a term.
func (o Offset) String() string {
	if o < 0 {
		return strconv.FormatInt(int64(o), 10)
	}
	return "+" + strconv.FormatInt(int64(o), 10)
}
