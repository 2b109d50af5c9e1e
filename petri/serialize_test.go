package petri

import "testing"

func TestCanonicalJSONRoundTrip(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p_start", "start").
		PlaceWithKind("p_end", "end", PlaceSink, 5).
		Transition("t_go", "go").
		Guard("t_go", `marking["p_start"] > 0`).
		Arc("p_start", "t_go").
		Arc("t_go", "p_end").
		InitialTokens("p_start", 3).
		WithOriginIntent("intent-123", "v1"))

	data, err := net.MarshalCanonicalJSON()
	if err != nil {
		t.Fatalf("MarshalCanonicalJSON() error = %v", err)
	}

	decoded, err := UnmarshalCanonicalJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalCanonicalJSON() error = %v", err)
	}

	if !decoded.InitialMarking.Equals(net.InitialMarking) {
		t.Errorf("round trip InitialMarking = %v, want %v", decoded.InitialMarking, net.InitialMarking)
	}
	if decoded.Places["p_end"].Capacity != 5 {
		t.Errorf("round trip p_end capacity = %d, want 5", decoded.Places["p_end"].Capacity)
	}
	if decoded.Transitions["t_go"].Guard != `marking["p_start"] > 0` {
		t.Errorf("round trip guard = %q, want preserved expression", decoded.Transitions["t_go"].Guard)
	}
	if decoded.Metadata.OriginIntent != "intent-123" {
		t.Errorf("round trip OriginIntent = %q, want intent-123", decoded.Metadata.OriginIntent)
	}
}

func TestCanonicalJSONIsDeterministic(t *testing.T) {
	build := func() *PetriNet {
		return mustBuild(t, NewBuilder().
			Place("p2", "p2").
			Place("p1", "p1").
			Transition("t2", "t2").
			Transition("t1", "t1").
			Arc("p1", "t1").
			Arc("p2", "t2"))
	}

	a, err := build().MarshalCanonicalJSON()
	if err != nil {
		t.Fatalf("MarshalCanonicalJSON() error = %v", err)
	}
	b, err := build().MarshalCanonicalJSON()
	if err != nil {
		t.Fatalf("MarshalCanonicalJSON() error = %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("MarshalCanonicalJSON() not deterministic across independently built equal nets")
	}
}

func TestUnmarshalRejectsStructurallyInvalidNet(t *testing.T) {
	// transition "t" has no input arcs.
	data := []byte(`{
		"places": [{"id": "p", "name": "p", "kind": "NORMAL"}],
		"transitions": [{"id": "t", "name": "t", "kind": "ACTION"}],
		"arcs": []
	}`)
	if _, err := UnmarshalCanonicalJSON(data); err == nil {
		t.Fatal("UnmarshalCanonicalJSON() error = nil, want structural validation failure")
	}
}
