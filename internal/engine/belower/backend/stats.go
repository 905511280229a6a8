package backend

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// StatKind is a kind of rewrite counted by the passes.
type StatKind int

const (
	// StatOperandSwap counts ties resolved by swapping commutative operands.
	StatOperandSwap StatKind = iota
	// StatTieCopy counts copies inserted before allocation for ShouldBeSame ties.
	StatTieCopy
	// StatPinCopy counts copies inserted around operands pinned to one register.
	StatPinCopy
	// StatExclusion counts exclusion edges added for ShouldBeDifferent ties.
	StatExclusion
	// StatRepairSwap counts unhonored ties repaired by swapping after allocation.
	StatRepairSwap
	// StatRepairCopy counts copies inserted after allocation to force a tie.
	StatRepairCopy
	// StatRepairFlagged counts unhonored ties left in place because copies are disabled.
	StatRepairFlagged
	// StatSelfCopy counts eliminated copies whose source and destination registers match.
	StatSelfCopy
	// StatFrameBinding counts frame entities bound to nodes.
	StatFrameBinding
	// StatPermMove counts register moves emitted for permutations.
	StatPermMove
	// StatPermExchange counts exchanges emitted for permutation cycles.
	StatPermExchange
	// StatPermSpare counts permutation cycles resolved through a spare register.
	StatPermSpare

	numStatKinds
)

var statNames = [numStatKinds]string{
	StatOperandSwap:   "operand swaps",
	StatTieCopy:       "tie copies",
	StatPinCopy:       "pin copies",
	StatExclusion:     "exclusion edges",
	StatRepairSwap:    "repair swaps",
	StatRepairCopy:    "repair copies",
	StatRepairFlagged: "flagged ties",
	StatSelfCopy:      "self copies removed",
	StatFrameBinding:  "frame bindings",
	StatPermMove:      "perm moves",
	StatPermExchange:  "perm exchanges",
	StatPermSpare:     "perm spare cycles",
}

// String implements fmt.Stringer.
func (k StatKind) String() string { return statNames[k] }

// Stats holds the count of each kind of rewrite.
type Stats struct {
	counts [numStatKinds]int
}

// Add adds n to the count of k.
func (s *Stats) Add(k StatKind, n int) { s.counts[k] += n }

// Get returns the count of k.
func (s *Stats) Get(k StatKind) int { return s.counts[k] }

// Merge adds the counts of o to s.
func (s *Stats) Merge(o Stats) {
	for i, c := range o.counts {
		s.counts[i] += c
	}
}

// Total returns the sum of all counts.
func (s *Stats) Total() (ret int) {
	for _, c := range s.counts {
		ret += c
	}
	return
}

// Table renders the non-zero counts as a table titled title.
func (s *Stats) Table(title string) string {
	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Rewrite", "Count"})
	for k := StatKind(0); k < numStatKinds; k++ {
		if c := s.counts[k]; c != 0 {
			t.AppendRow(table.Row{k.String(), c})
		}
	}
	t.AppendFooter(table.Row{"total", s.Total()})
	return t.Render()
}
