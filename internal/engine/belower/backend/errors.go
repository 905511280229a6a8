package backend

import "fmt"

// InvariantError is raised by panicking when a pass finds a backend invariant
// broken: a contradictory requirement, an allocator contract violation or a
// permutation that cannot be resolved. It names the offending node and field.
type InvariantError struct {
	Node  string
	Field string
	Msg   string
}

// Error implements error.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("BUG: %s: %s: %s", e.Node, e.Field, e.Msg)
}

// Fatalf panics with an InvariantError for node and field.
func Fatalf(node fmt.Stringer, field, format string, args ...interface{}) {
	panic(&InvariantError{Node: node.String(), Field: field, Msg: fmt.Sprintf(format, args...)})
}

// RecoverInvariant turns a panicking InvariantError into *errp. Any other
// panic is propagated. Must be called directly by a deferred function.
func RecoverInvariant(errp *error) {
	if r := recover(); r != nil {
		if ie, ok := r.(*InvariantError); ok {
			*errp = ie
			return
		}
		panic(r)
	}
}
