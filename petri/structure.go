package petri

import "fmt"

// Violation describes a single structural invariant failure.
type Violation struct {
	Rule    string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// StructuralIssues checks the five structural invariants every net must
// satisfy regardless of how it was produced (by a Builder, by the
// grammar compiler, or by deserializing JSON):
//
//  1. arcs are bipartite: every arc connects a place and a transition,
//     never place-to-place or transition-to-transition.
//  2. every arc endpoint names a declared place or transition.
//  3. no id is reused across places and transitions.
//  4. the initial marking only assigns tokens to declared places.
//  5. every transition has at least one input arc.
func (n *PetriNet) StructuralIssues() []Violation {
	var issues []Violation

	for id := range n.Places {
		if n.Transitions[id] != nil {
			issues = append(issues, Violation{"UNIQUE_ID",
				fmt.Sprintf("id %q used by both a place and a transition", id)})
		}
	}

	for _, arc := range n.Arcs {
		srcPlace, srcTrans := n.IsPlace(arc.Source), n.IsTransition(arc.Source)
		dstPlace, dstTrans := n.IsPlace(arc.Target), n.IsTransition(arc.Target)

		if !srcPlace && !srcTrans {
			issues = append(issues, Violation{"ARC_ENDPOINT",
				fmt.Sprintf("arc source %q is not a declared place or transition", arc.Source)})
			continue
		}
		if !dstPlace && !dstTrans {
			issues = append(issues, Violation{"ARC_ENDPOINT",
				fmt.Sprintf("arc target %q is not a declared place or transition", arc.Target)})
			continue
		}
		if srcPlace == dstPlace {
			issues = append(issues, Violation{"BIPARTITE",
				fmt.Sprintf("arc %s->%s does not connect a place to a transition", arc.Source, arc.Target)})
		}
	}

	for place := range n.InitialMarking {
		if !n.IsPlace(place) {
			issues = append(issues, Violation{"MARKING_SCOPE",
				fmt.Sprintf("initial marking assigns tokens to undeclared place %q", place)})
		}
	}

	for _, id := range n.SortedTransitionIDs() {
		if len(n.InputArcs(id)) == 0 {
			issues = append(issues, Violation{"NO_INPUT",
				fmt.Sprintf("transition %q has no input arcs", id)})
		}
	}

	return issues
}

// Valid reports whether the net has no structural violations.
func (n *PetriNet) Valid() bool {
	return len(n.StructuralIssues()) == 0
}
