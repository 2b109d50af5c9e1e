package validate

import "github.com/petriflow/core/petri"

// VerifyPotentiallyDead runs a separate, targeted breadth-first search
// from net's initial marking, scored by distance to enabling the target
// transition, and reports whether it is reachably enabled anywhere
// within kBound states. It reports the transition as confirmed dead when
// the search exhausts either the reachable state space or its kBound
// budget without ever meeting all of the transition's input-arc
// requirements. Explore does not call it; callers invoke it directly.
func VerifyPotentiallyDead(net *petri.PetriNet, eval petri.GuardEvaluator, transitionID string, kBound int) (confirmedDead bool, err error) {
	t, ok := net.Transitions[transitionID]
	if !ok {
		return false, nil
	}

	seen := map[string]bool{}
	initial := net.InitialMarking
	if initial == nil {
		initial = petri.Marking{}
	}
	queue := []petri.Marking{initial}
	seen[initial.Hash()] = true

	bestDistance := distanceToEnable(net, t, initial)
	explored := 0

	for len(queue) > 0 && explored < kBound {
		cur := queue[0]
		queue = queue[1:]
		explored++

		ok, evalErr := petri.Enabled(net, t, cur, eval, nil)
		if evalErr != nil {
			return false, evalErr
		}
		if ok {
			return false, nil
		}

		d := distanceToEnable(net, t, cur)
		if d < bestDistance {
			bestDistance = d
		}

		enabled, evalErr := petri.EnabledTransitions(net, cur, eval, nil)
		if evalErr != nil {
			continue
		}
		for _, tid := range enabled {
			next := petri.Fire(net, net.Transitions[tid], cur)
			hash := next.Hash()
			if seen[hash] {
				continue
			}
			seen[hash] = true
			queue = append(queue, next)
		}
	}

	// Never enabled and never had every input-arc requirement met, across
	// the whole reachable space or the whole budget: confirmed dead.
	return bestDistance > 0 && (len(queue) == 0 || explored >= kBound), nil
}

// distanceToEnable counts how many of t's input-arc requirements are
// currently unmet in m — 0 means t is enabled (modulo its guard).
func distanceToEnable(net *petri.PetriNet, t *petri.Transition, m petri.Marking) int {
	unmet := 0
	for _, arc := range net.InputArcs(t.ID) {
		tokens := m.Get(arc.Source)
		switch arc.Kind {
		case petri.ArcNormal, petri.ArcRead:
			if tokens < arc.Weight {
				unmet++
			}
		case petri.ArcInhibitor:
			if tokens >= arc.Weight {
				unmet++
			}
		}
	}
	return unmet
}
