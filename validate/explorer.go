package validate

import (
	"sort"
	"time"

	"github.com/petriflow/core/petri"
)

// stateRecord is one visited marking in the BFS frontier.
type stateRecord struct {
	marking  petri.Marking
	depth    int
	path     []string // firing sequence from the initial marking to here
	enabled  []string
	terminal bool
	deadlock bool
}

type explorer struct {
	net  *petri.PetriNet
	eval petri.GuardEvaluator
	cfg  Config

	seen    map[string]*stateRecord
	order   []string // hashes in visitation order, for determinism
	fired   map[string]bool
	edges   int
	maxSeen map[string]int

	deadlocks   []*stateRecord
	terminalHit bool

	truncatedBound   bool
	truncatedTimeout bool
	boundViolation   *boundWitness

	start time.Time
}

// boundWitness records the first marking observed to exceed
// Config.CapacityCap: the overflowing place, its token count, and the
// firing sequence that produced it.
type boundWitness struct {
	place string
	count int
	path  []string
}

func newExplorer(net *petri.PetriNet, eval petri.GuardEvaluator, cfg Config) *explorer {
	return &explorer{
		net:     net,
		eval:    eval,
		cfg:     cfg,
		seen:    make(map[string]*stateRecord),
		fired:   make(map[string]bool),
		maxSeen: make(map[string]int),
		start:   time.Now(),
	}
}

func (e *explorer) run() {
	if e.cfg.KBound == 0 {
		// A zero bound permits exploring no states at all.
		e.truncatedBound = true
		return
	}

	initial := e.net.InitialMarking
	if initial == nil {
		initial = petri.Marking{}
	}
	e.observe(initial, 0, nil)

	root := e.seen[initial.Hash()]
	queue := []*stateRecord{root}

	for len(queue) > 0 {
		if e.cfg.MaxTime > 0 && time.Since(e.start) > e.cfg.MaxTime {
			e.truncatedTimeout = true
			return
		}
		if e.cfg.KBound > 0 && len(e.seen) > e.cfg.KBound {
			e.truncatedBound = true
			return
		}

		cur := queue[0]
		queue = queue[1:]

		enabled, err := petri.EnabledTransitions(e.net, cur.marking, e.eval, nil)
		if err != nil {
			// A guard evaluation error during exploration is treated as
			// "transition not enabled" for the purposes of the search;
			// the simulator surfaces guard errors as SIMULATION_ERROR
			// when actually firing (§7).
			enabled = nil
		}
		cur.enabled = enabled

		if len(enabled) == 0 {
			cur.terminal = e.cfg.isTerminal(e.net, cur.marking)
			if cur.terminal {
				e.terminalHit = true
			} else {
				cur.deadlock = true
				e.deadlocks = append(e.deadlocks, cur)
			}
			continue
		}

		for _, tid := range enabled {
			t := e.net.Transitions[tid]
			next := petri.Fire(e.net, t, cur.marking)

			if e.cfg.CapacityCap > 0 {
				for _, place := range next.SortedKeys() {
					if count := next[place]; count > e.cfg.CapacityCap {
						if e.boundViolation == nil {
							e.boundViolation = &boundWitness{
								place: place,
								count: count,
								path:  append(append([]string{}, cur.path...), tid),
							}
						}
						e.truncatedBound = true
						return
					}
				}
			}

			e.fired[tid] = true
			e.edges++

			hash := next.Hash()
			if _, ok := e.seen[hash]; ok {
				continue
			}
			path := append(append([]string{}, cur.path...), tid)
			e.observe(next, cur.depth+1, path)
			queue = append(queue, e.seen[hash])
		}
	}
}

func (e *explorer) observe(m petri.Marking, depth int, path []string) {
	hash := m.Hash()
	if _, ok := e.seen[hash]; ok {
		return
	}
	rec := &stateRecord{marking: m, depth: depth, path: path}
	e.seen[hash] = rec
	e.order = append(e.order, hash)
	for place, count := range m {
		if count > e.maxSeen[place] {
			e.maxSeen[place] = count
		}
	}
}

func (e *explorer) verdict(cfg Config) Verdict {
	stats := Stats{
		StatesExplored: len(e.seen),
		EdgesExplored:  e.edges,
		MaxTokensSeen:  e.maxSeen,
		Truncated:      e.truncatedBound || e.truncatedTimeout,
	}
	for _, h := range e.order {
		if d := e.seen[h].depth; d > stats.MaxDepth {
			stats.MaxDepth = d
		}
	}

	var failures []Verdict

	if wants(cfg, CheckBoundedness) && e.boundViolation != nil {
		failures = append(failures, Verdict{
			Status: StatusFail, FailKind: FailBoundedness,
			Witness:    e.boundViolation.path,
			Diagnostic: "place " + e.boundViolation.place + " exceeded capacity cap",
		})
	}

	if wants(cfg, CheckDeadlock) && len(e.deadlocks) > 0 {
		sort.Slice(e.deadlocks, func(i, j int) bool {
			return e.deadlocks[i].depth < e.deadlocks[j].depth
		})
		d := e.deadlocks[0]
		failures = append(failures, Verdict{
			Status: StatusFail, FailKind: FailDeadlock,
			Witness:    d.path,
			Diagnostic: "reached a non-terminal marking with no enabled transitions",
		})
	}

	if e.truncatedBound || e.truncatedTimeout {
		reason := ReasonKBoundExhausted
		if e.truncatedTimeout {
			reason = ReasonTimeout
		}
		if len(failures) > 0 {
			return bestFailure(failures, stats)
		}
		return Verdict{Status: StatusInconclusive, InconclusiveReason: reason, Stats: stats}
	}

	if wants(cfg, CheckReachability) {
		hasTerminal := len(e.net.TerminalMarkings) > 0 || hasSinkPlaces(e.net) || cfg.TerminalPredicate != nil
		if hasTerminal && !e.terminalHit {
			failures = append(failures, Verdict{
				Status: StatusFail, FailKind: FailReachability,
				Diagnostic: "no reachable marking satisfies the terminal predicate",
			})
		}
	}

	var deadTransitions []string
	if wants(cfg, CheckLiveness) {
		for _, id := range e.net.SortedTransitionIDs() {
			if !e.fired[id] {
				deadTransitions = append(deadTransitions, id)
			}
		}
		if len(deadTransitions) > 0 {
			failures = append(failures, Verdict{
				Status: StatusFail, FailKind: FailLiveness,
				Diagnostic:      "one or more transitions never fired within the explored bound",
				DeadTransitions: deadTransitions,
			})
		}
	}

	if len(failures) > 0 {
		v := bestFailure(failures, stats)
		v.DeadTransitions = deadTransitions
		return v
	}

	return Verdict{Status: StatusPass, Stats: stats}
}

func bestFailure(failures []Verdict, stats Stats) Verdict {
	best := failures[0]
	for _, f := range failures[1:] {
		if failurePriority[f.FailKind] < failurePriority[best.FailKind] {
			best = f
		}
	}
	best.Stats = stats
	return best
}

func hasSinkPlaces(net *petri.PetriNet) bool {
	for _, p := range net.Places {
		if p.Kind == petri.PlaceSink {
			return true
		}
	}
	return false
}
