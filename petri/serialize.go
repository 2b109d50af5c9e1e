package petri

import (
	"encoding/json"
	"fmt"
	"sort"
)

// wirePlace/wireTransition/wireArc/wireNet are the canonical JSON shapes:
// places and transitions sorted by id, arcs sorted by (source, target, kind).
type wirePlace struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Kind        PlaceKind         `json:"kind"`
	Capacity    int               `json:"capacity,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type wireTransition struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Kind        TransitionKind    `json:"kind"`
	Guard       string            `json:"guard,omitempty"`
	ActionRef   string            `json:"actionRef,omitempty"`
	Priority    int               `json:"priority,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type wireArc struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight int     `json:"weight"`
	Kind   ArcKind `json:"kind"`
}

type wireNet struct {
	Places           []wirePlace      `json:"places"`
	Transitions      []wireTransition `json:"transitions"`
	Arcs             []wireArc        `json:"arcs"`
	InitialMarking   map[string]int   `json:"initialMarking,omitempty"`
	TerminalMarkings []map[string]int `json:"terminalMarkings,omitempty"`
	OriginIntent     string           `json:"originIntent,omitempty"`
	SchemaVersion    string           `json:"schemaVersion,omitempty"`
}

// MarshalCanonicalJSON serializes the net with places/transitions sorted
// by id and arcs sorted lexicographically by (source, target, kind), so
// two structurally identical nets always produce byte-identical output.
func (n *PetriNet) MarshalCanonicalJSON() ([]byte, error) {
	w := wireNet{
		InitialMarking: map[string]int(n.InitialMarking),
		OriginIntent:   n.Metadata.OriginIntent,
		SchemaVersion:  n.Metadata.SchemaVersion,
	}

	for _, id := range n.SortedPlaceIDs() {
		p := n.Places[id]
		w.Places = append(w.Places, wirePlace{
			ID: p.ID, Name: p.Name, Description: p.Description,
			Kind: p.Kind, Capacity: p.Capacity, Metadata: p.Metadata,
		})
	}

	for _, id := range n.SortedTransitionIDs() {
		t := n.Transitions[id]
		w.Transitions = append(w.Transitions, wireTransition{
			ID: t.ID, Name: t.Name, Description: t.Description, Kind: t.Kind,
			Guard: t.Guard, ActionRef: t.ActionRef, Priority: t.Priority, Metadata: t.Metadata,
		})
	}

	arcs := make([]*Arc, len(n.Arcs))
	copy(arcs, n.Arcs)
	sort.Slice(arcs, func(i, j int) bool {
		a, b := arcs[i], arcs[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
	for _, a := range arcs {
		w.Arcs = append(w.Arcs, wireArc{Source: a.Source, Target: a.Target, Weight: a.Weight, Kind: a.Kind})
	}

	for _, tm := range n.TerminalMarkings {
		w.TerminalMarkings = append(w.TerminalMarkings, map[string]int(tm))
	}

	return json.MarshalIndent(w, "", "  ")
}

// UnmarshalCanonicalJSON parses the canonical wire form and re-validates
// the result's structural invariants before returning it.
func UnmarshalCanonicalJSON(data []byte) (*PetriNet, error) {
	var w wireNet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("petri: decode: %w", err)
	}

	n := newPetriNet()
	for _, p := range w.Places {
		n.Places[p.ID] = &Place{
			ID: p.ID, Name: p.Name, Description: p.Description,
			Kind: p.Kind, Capacity: p.Capacity, Metadata: p.Metadata,
		}
	}
	for _, t := range w.Transitions {
		n.Transitions[t.ID] = &Transition{
			ID: t.ID, Name: t.Name, Description: t.Description, Kind: t.Kind,
			Guard: t.Guard, ActionRef: t.ActionRef, Priority: t.Priority, Metadata: t.Metadata,
		}
	}
	for _, a := range w.Arcs {
		n.Arcs = append(n.Arcs, &Arc{Source: a.Source, Target: a.Target, Weight: a.Weight, Kind: a.Kind})
	}
	n.InitialMarking = NewMarking(w.InitialMarking)
	for _, tm := range w.TerminalMarkings {
		n.TerminalMarkings = append(n.TerminalMarkings, NewMarking(tm))
	}
	n.Metadata = NetMetadata{OriginIntent: w.OriginIntent, SchemaVersion: w.SchemaVersion}

	if issues := n.StructuralIssues(); len(issues) > 0 {
		return nil, fmt.Errorf("petri: decoded net fails structural validation: %w", issues[0])
	}
	return n, nil
}
