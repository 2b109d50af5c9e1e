package petri

import "fmt"

// GuardEvaluator evaluates a transition's guard expression against a
// marking and an auxiliary variable set. The guard package implements
// this by compiling expressions with CEL; tests may supply a stub.
type GuardEvaluator interface {
	Evaluate(expr string, marking Marking, vars map[string]any) (bool, error)
}

// alwaysTrue is the default evaluator used when a transition carries no
// guard and no evaluator is supplied.
type alwaysTrue struct{}

func (alwaysTrue) Evaluate(string, Marking, map[string]any) (bool, error) {
	return true, nil
}

// AlwaysTrueEvaluator is a GuardEvaluator that accepts every expression,
// useful in tests that don't exercise guard logic.
var AlwaysTrueEvaluator GuardEvaluator = alwaysTrue{}

// Enabled reports whether transition t can fire in marking m. It checks,
// in order: input arcs (NORMAL/READ require M(p) >= weight, INHIBITOR
// requires M(p) < weight, RESET is always satisfied), output-arc capacity
// (firing must not push a bounded place over its Capacity — checked
// pre-fire, never post-hoc), and finally the transition's guard
// expression if non-empty.
func Enabled(net *PetriNet, t *Transition, m Marking, eval GuardEvaluator, vars map[string]any) (bool, error) {
	if eval == nil {
		eval = AlwaysTrueEvaluator
	}

	for _, arc := range net.InputArcs(t.ID) {
		tokens := m.Get(arc.Source)
		switch arc.Kind {
		case ArcNormal, ArcRead:
			if tokens < arc.Weight {
				return false, nil
			}
		case ArcInhibitor:
			if tokens >= arc.Weight {
				return false, nil
			}
		case ArcReset:
			// always satisfied: reset arcs don't gate enabling
		default:
			return false, fmt.Errorf("petri: unknown arc kind %q on input to %s", arc.Kind, t.ID)
		}
	}

	for _, arc := range net.OutputArcs(t.ID) {
		place, ok := net.Places[arc.Target]
		if !ok {
			return false, fmt.Errorf("petri: output arc target %q is not a place", arc.Target)
		}
		if place.Capacity <= 0 {
			continue
		}
		switch arc.Kind {
		case ArcNormal:
			if m.Get(place.ID)+arc.Weight > place.Capacity {
				return false, nil
			}
		case ArcReset:
			// reset always fits: it sets the place to zero then nothing else adds
		}
	}

	if t.Guard != "" {
		ok, err := eval.Evaluate(t.Guard, m, vars)
		if err != nil {
			return false, fmt.Errorf("petri: guard evaluation for %s: %w", t.ID, err)
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Fire applies transition t's effect to marking m, returning a new
// marking. Fire assumes Enabled(net, t, m, ...) has already returned
// true; it does not re-check guards or capacity.
func Fire(net *PetriNet, t *Transition, m Marking) Marking {
	next := m.Copy()

	// Normal input arcs are consumed first and reset arcs applied after,
	// so a place that is both consumed from and reset ends at zero.
	// Inhibitor and read arcs only gate enabling and leave m unchanged.
	inputs := net.InputArcs(t.ID)
	for _, arc := range inputs {
		if arc.Kind == ArcNormal {
			next.Add(arc.Source, -arc.Weight)
		}
	}
	for _, arc := range inputs {
		if arc.Kind == ArcReset {
			next.Set(arc.Source, 0)
		}
	}

	for _, arc := range net.OutputArcs(t.ID) {
		switch arc.Kind {
		case ArcNormal:
			next.Add(arc.Target, arc.Weight)
		case ArcReset:
			next.Set(arc.Target, 0)
		case ArcInhibitor, ArcRead:
			// read/inhibitor arcs never appear as outputs in a well-formed net
		}
	}

	return next
}

// EnabledTransitions returns the ids of every transition enabled in m,
// in priority order (highest Priority first, ties broken lexicographically
// by id) — the tie-break simulate.DETERMINISTIC mode relies on.
func EnabledTransitions(net *PetriNet, m Marking, eval GuardEvaluator, vars map[string]any) ([]string, error) {
	var enabled []string
	for _, id := range net.SortedTransitionIDs() {
		t := net.Transitions[id]
		ok, err := Enabled(net, t, m, eval, vars)
		if err != nil {
			return nil, err
		}
		if ok {
			enabled = append(enabled, id)
		}
	}
	sortByPriorityThenID(net, enabled)
	return enabled, nil
}

func sortByPriorityThenID(net *PetriNet, ids []string) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := net.Transitions[ids[j-1]], net.Transitions[ids[j]]
			if a.Priority < b.Priority || (a.Priority == b.Priority && a.ID > b.ID) {
				ids[j-1], ids[j] = ids[j], ids[j-1]
			} else {
				break
			}
		}
	}
}
