package petri

import "testing"

func mustBuild(t *testing.T, b *Builder) *PetriNet {
	t.Helper()
	net, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return net
}

func TestEnabledRequiresSufficientTokens(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p", "p").
		Transition("t", "t").
		Arc("p", "t"))

	cases := []struct {
		tokens int
		want   bool
	}{
		{0, false},
		{1, true},
	}
	for _, c := range cases {
		m := Marking{"p": c.tokens}
		got, err := Enabled(net, net.Transitions["t"], m, nil, nil)
		if err != nil {
			t.Fatalf("Enabled() error = %v", err)
		}
		if got != c.want {
			t.Errorf("Enabled() with %d tokens = %v, want %v", c.tokens, got, c.want)
		}
	}
}

func TestInhibitorArcBlocksWhenTokensPresent(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p", "p").
		Place("guard_place", "guard").
		Transition("t", "t").
		Arc("p", "t").
		InhibitorArc("guard_place", "t", 1))

	m := Marking{"p": 1, "guard_place": 1}
	got, err := Enabled(net, net.Transitions["t"], m, nil, nil)
	if err != nil {
		t.Fatalf("Enabled() error = %v", err)
	}
	if got {
		t.Errorf("Enabled() = true, want false when inhibitor place is marked")
	}

	m["guard_place"] = 0
	got, err = Enabled(net, net.Transitions["t"], m, nil, nil)
	if err != nil {
		t.Fatalf("Enabled() error = %v", err)
	}
	if !got {
		t.Errorf("Enabled() = false, want true when inhibitor place is empty")
	}
}

func TestEnabledRespectsOutputCapacity(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("in", "in").
		PlaceWithKind("out", "out", PlaceNormal, 1).
		Transition("t", "t").
		Arc("in", "t").
		Arc("t", "out"))

	m := Marking{"in": 1, "out": 1}
	got, err := Enabled(net, net.Transitions["t"], m, nil, nil)
	if err != nil {
		t.Fatalf("Enabled() error = %v", err)
	}
	if got {
		t.Errorf("Enabled() = true, want false: firing would overflow capacity")
	}
}

func TestFireMovesTokens(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p1", "p1").
		Place("p2", "p2").
		Transition("t", "t").
		Arc("p1", "t").
		Arc("t", "p2"))

	m := Marking{"p1": 1}
	next := Fire(net, net.Transitions["t"], m)
	if next.Get("p1") != 0 || next.Get("p2") != 1 {
		t.Errorf("Fire() = %v, want p1=0 p2=1", next)
	}
	if m.Get("p1") != 1 {
		t.Errorf("Fire() mutated the input marking; got p1=%d, want 1", m.Get("p1"))
	}
}

func TestFireResetArcZeroesPlace(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p", "p").
		Transition("t", "t").
		ArcWithKind("p", "t", ArcReset, 1).
		Arc("p", "t"))

	m := Marking{"p": 5}
	next := Fire(net, net.Transitions["t"], m)
	if next.Get("p") != 0 {
		t.Errorf("Fire() with reset arc = %v, want p=0", next)
	}
}

func TestEnabledTransitionsOrdersByPriorityThenID(t *testing.T) {
	net := mustBuild(t, NewBuilder().
		Place("p", "p").
		Transition("t_b", "b").
		Transition("t_a", "a").
		Transition("t_high", "high").
		Arc("p", "t_b").
		Arc("p", "t_a").
		Arc("p", "t_high").
		Priority("t_high", 10))

	m := Marking{"p": 1}
	ids, err := EnabledTransitions(net, m, nil, nil)
	if err != nil {
		t.Fatalf("EnabledTransitions() error = %v", err)
	}
	want := []string{"t_high", "t_a", "t_b"}
	if len(ids) != len(want) {
		t.Fatalf("EnabledTransitions() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("EnabledTransitions()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
