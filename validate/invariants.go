package validate

import "github.com/petriflow/core/petri"

// CheckConservation reports whether the all-places, all-weight-1
// P-invariant holds: the total token count is constant across every
// transition firing. This is the teacher's simplest invariant check,
// kept as an informational extra beyond the required checks (see
// SPEC_FULL.md §4) — a stronger invariant-discovery pass would solve
// the incidence matrix for the general case, which this repo's scope
// does not require.
func CheckConservation(net *petri.PetriNet) bool {
	for _, id := range net.SortedTransitionIDs() {
		t := net.Transitions[id]
		in, out := 0, 0
		for _, arc := range net.InputArcs(t.ID) {
			if arc.Kind == petri.ArcNormal {
				in += arc.Weight
			}
		}
		for _, arc := range net.OutputArcs(t.ID) {
			if arc.Kind == petri.ArcNormal {
				out += arc.Weight
			}
		}
		if in != out {
			return false
		}
	}
	return true
}
