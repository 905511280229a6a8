package ia32

import (
	"strconv"
	"strings"
)

// offsetTerm is one signed term of an addressing-mode offset.
type offsetTerm struct {
	neg  bool
	text string
}

// offsetChain is the symbolic offset of an addressing mode: an ordered list
// of signed terms, rendered only on demand.
type offsetChain []offsetTerm

// extend appends term with the given sign. An explicit sign carried by term
// is combined with sign, so "-8" subtracted adds 8.
func (c offsetChain) extend(term string, sign byte) offsetChain {
	if term == "" {
		return c
	}
	neg := sign == '-'
	switch term[0] {
	case '-':
		neg = !neg
		term = term[1:]
	case '+':
		term = term[1:]
	}
	return append(c, offsetTerm{neg: neg, text: term})
}

// render returns the chain as text, e.g. "-8-4". The first term always
// carries its sign.
func (c offsetChain) render() (string, bool) {
	if len(c) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, t := range c {
		if t.neg {
			sb.WriteByte('-')
		} else {
			sb.WriteByte('+')
		}
		sb.WriteString(t.text)
	}
	return sb.String(), true
}

// value evaluates the chain when every term is numeric.
func (c offsetChain) value() (ret int64, ok bool) {
	for _, t := range c {
		v, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return 0, false
		}
		if t.neg {
			v = -v
		}
		ret += v
	}
	return ret, true
}
