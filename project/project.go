// Package project derives a transition-level DAG from a petri.PetriNet:
// an edge t_a -> t_b for every place t_a feeds that t_b consumes from,
// transitively reduced, with LOOP back-arcs broken and recorded.
package project

import (
	"sort"

	"github.com/petriflow/core/petri"
)

// Node is one DAG node, corresponding exactly to one transition of the
// source net.
type Node struct {
	TransitionID string
	Kind         petri.TransitionKind
	InputPlaces  []string
	OutputPlaces []string
	StepID       string // origin intent step, read from the transition's Name
	ActionRef    string // external side-effect reference, copied from the transition
}

// Edge is a directed DAG edge. Condition is non-empty when the source
// transition is a CHOICE carrying a guard that selects this path.
type Edge struct {
	From      string
	To        string
	Condition string
}

// Note records a build-time diagnostic: a reduced edge or a broken loop
// — the single enumerated schema §9 calls for instead of free-form
// metadata. The kind "decisionFanOut" is reserved; Project does not emit
// notes for decision places that fan out.
type Note struct {
	Kind          string // "reducedEdge" | "brokenLoop" | "decisionFanOut" (not emitted)
	From          string
	To            string
	BreakEdgeFrom string
}

// DAG is the projected acyclic transition graph.
type DAG struct {
	Nodes []Node
	Edges []Edge
	Notes []Note
}

// NodeByID returns the node with the given transition id, or nil.
func (d *DAG) NodeByID(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].TransitionID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Project derives the DAG from net.
func Project(net *petri.PetriNet) *DAG {
	d := &DAG{}

	for _, id := range net.SortedTransitionIDs() {
		t := net.Transitions[id]
		node := Node{TransitionID: id, Kind: t.Kind, StepID: t.Name, ActionRef: t.ActionRef}
		for _, arc := range net.InputArcs(id) {
			node.InputPlaces = append(node.InputPlaces, arc.Source)
		}
		for _, arc := range net.OutputArcs(id) {
			node.OutputPlaces = append(node.OutputPlaces, arc.Target)
		}
		sort.Strings(node.InputPlaces)
		sort.Strings(node.OutputPlaces)
		d.Nodes = append(d.Nodes, node)
	}

	d.deriveEdges(net)
	d.breakLoops(net)
	d.transitiveReduce()

	return d
}

// deriveEdges adds t_a -> t_b whenever an output place of t_a is an
// input place of t_b, carrying t_a's guard as the edge condition when
// t_a is a CHOICE transition.
func (d *DAG) deriveEdges(net *petri.PetriNet) {
	seen := make(map[[2]string]bool)
	for _, from := range net.SortedTransitionIDs() {
		ta := net.Transitions[from]
		for _, outArc := range net.OutputArcs(from) {
			for _, inArc := range net.ArcsFrom(outArc.Target) {
				to := inArc.Target
				if to == from {
					continue
				}
				key := [2]string{from, to}
				if seen[key] {
					continue
				}
				seen[key] = true
				cond := ""
				if ta.Kind == petri.TransitionChoice {
					cond = ta.Guard
				}
				d.Edges = append(d.Edges, Edge{From: from, To: to, Condition: cond})
			}
		}
	}
	sort.Slice(d.Edges, func(i, j int) bool {
		if d.Edges[i].From != d.Edges[j].From {
			return d.Edges[i].From < d.Edges[j].From
		}
		return d.Edges[i].To < d.Edges[j].To
	})
}
