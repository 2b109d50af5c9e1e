package project

import "github.com/petriflow/core/petri"

// breakLoops finds every back-edge in the derived transition graph via
// a standard DFS white/grey/black coloring (a back-edge is one that
// targets a node still on the current DFS stack) and removes it,
// recording a brokenLoop note per §6 Open Question 1: the projector
// always breaks the back-arc and always records the note. In practice
// the only transitions that can produce a back-edge are the
// "continue" transitions grammar.compileLoop wires from a loop body's
// output place back to its input place, but the detection itself does
// not assume that shape. The DFS starts from transitions fed by an
// initially marked place, then from the remaining nodes in order, so the
// edge broken is the one returning to a loop's entry transition.
func (d *DAG) breakLoops(net *petri.PetriNet) {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(d.Nodes))
	for _, n := range d.Nodes {
		color[n.TransitionID] = white
	}
	adj := make(map[string][]Edge)
	for _, e := range d.Edges {
		adj[e.From] = append(adj[e.From], e)
	}

	broken := make(map[int]bool)
	var dfs func(id string)
	dfs = func(id string) {
		color[id] = grey
		for _, e := range adj[id] {
			switch color[e.To] {
			case grey:
				broken[edgeIndex(d.Edges, e)] = true
			case white:
				dfs(e.To)
			}
		}
		color[id] = black
	}
	var order []string
	for _, n := range d.Nodes {
		for _, p := range n.InputPlaces {
			if net.InitialMarking.Get(p) > 0 {
				order = append(order, n.TransitionID)
				break
			}
		}
	}
	for _, n := range d.Nodes {
		order = append(order, n.TransitionID)
	}
	for _, id := range order {
		if color[id] == white {
			dfs(id)
		}
	}

	var kept []Edge
	for i, e := range d.Edges {
		if broken[i] {
			d.Notes = append(d.Notes, Note{Kind: "brokenLoop", From: e.From, To: e.To, BreakEdgeFrom: e.From})
			continue
		}
		kept = append(kept, e)
	}
	d.Edges = kept
}

func edgeIndex(edges []Edge, target Edge) int {
	for i, e := range edges {
		if e == target {
			return i
		}
	}
	return -1
}

// transitiveReduce removes any edge t_a -> t_b for which a longer path
// t_a -> ... -> t_b already exists, recording each removal as a
// reducedEdge note. Idempotent: running it again on an already-reduced
// edge set removes nothing further, since no edge then has an
// alternate path.
func (d *DAG) transitiveReduce() {
	adj := make(map[string][]string)
	for _, e := range d.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	hasAlternatePath := func(skip Edge) bool {
		visited := map[string]bool{skip.From: true}
		queue := []string{skip.From}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adj[cur] {
				if cur == skip.From && next == skip.To {
					continue // the direct edge itself doesn't count as an alternate
				}
				if visited[next] {
					continue
				}
				visited[next] = true
				if next == skip.To {
					return true
				}
				queue = append(queue, next)
			}
		}
		return false
	}

	var kept []Edge
	for _, e := range d.Edges {
		if hasAlternatePath(e) {
			d.Notes = append(d.Notes, Note{Kind: "reducedEdge", From: e.From, To: e.To})
			continue
		}
		kept = append(kept, e)
	}
	d.Edges = kept
}
