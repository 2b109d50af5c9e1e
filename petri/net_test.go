package petri

import "testing"

func TestBuilderBuildsValidNet(t *testing.T) {
	net, err := NewBuilder().
		Place("p_start", "start").
		Place("p_end", "end").
		Transition("t_go", "go").
		Arc("p_start", "t_go").
		Arc("t_go", "p_end").
		InitialTokens("p_start", 1).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if net.InitialMarking.Get("p_start") != 1 {
		t.Errorf("InitialMarking[p_start] = %d, want 1", net.InitialMarking.Get("p_start"))
	}
	if len(net.InputArcs("t_go")) != 1 {
		t.Errorf("InputArcs(t_go) = %d, want 1", len(net.InputArcs("t_go")))
	}
	if len(net.OutputArcs("t_go")) != 1 {
		t.Errorf("OutputArcs(t_go) = %d, want 1", len(net.OutputArcs("t_go")))
	}
}

func TestStructuralIssuesDetectsBipartiteViolation(t *testing.T) {
	net := newPetriNet()
	net.Places["p1"] = &Place{ID: "p1", Kind: PlaceNormal}
	net.Places["p2"] = &Place{ID: "p2", Kind: PlaceNormal}
	net.Arcs = append(net.Arcs, &Arc{Source: "p1", Target: "p2", Weight: 1, Kind: ArcNormal})

	issues := net.StructuralIssues()
	found := false
	for _, v := range issues {
		if v.Rule == "BIPARTITE" {
			found = true
		}
	}
	if !found {
		t.Errorf("StructuralIssues() = %v, want a BIPARTITE violation", issues)
	}
}

func TestStructuralIssuesDetectsMissingInput(t *testing.T) {
	net := newPetriNet()
	net.Transitions["t1"] = &Transition{ID: "t1", Kind: TransitionAction}

	issues := net.StructuralIssues()
	found := false
	for _, v := range issues {
		if v.Rule == "NO_INPUT" {
			found = true
		}
	}
	if !found {
		t.Errorf("StructuralIssues() = %v, want a NO_INPUT violation", issues)
	}
}

func TestStructuralIssuesDetectsMarkingScope(t *testing.T) {
	net := newPetriNet()
	net.InitialMarking = Marking{"ghost": 1}

	issues := net.StructuralIssues()
	found := false
	for _, v := range issues {
		if v.Rule == "MARKING_SCOPE" {
			found = true
		}
	}
	if !found {
		t.Errorf("StructuralIssues() = %v, want a MARKING_SCOPE violation", issues)
	}
}

func TestDuplicateIDAcrossPlaceAndTransitionFailsBuild(t *testing.T) {
	_, err := NewBuilder().
		Place("x", "place x").
		Transition("x", "transition x").
		Build()
	if err == nil {
		t.Fatal("Build() error = nil, want error for duplicate id across kinds")
	}
}
