package grammar

import (
	"testing"

	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

func TestCompileSingleActionProducesMinimalNet(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "run_tests", Kind: intent.StepAction},
	}}

	net, notes, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(net.Places) != 2 {
		t.Errorf("len(Places) = %d, want 2", len(net.Places))
	}
	if len(net.Transitions) != 1 {
		t.Errorf("len(Transitions) = %d, want 1", len(net.Transitions))
	}
	if len(net.Arcs) != 2 {
		t.Errorf("len(Arcs) = %d, want 2", len(net.Arcs))
	}
	if net.InitialMarking.Total() != 1 {
		t.Errorf("InitialMarking.Total() = %d, want 1", net.InitialMarking.Total())
	}
	if len(notes.RootPlaces) != 1 {
		t.Errorf("len(notes.RootPlaces) = %d, want 1", len(notes.RootPlaces))
	}
	if issues := net.StructuralIssues(); len(issues) != 0 {
		t.Errorf("StructuralIssues() = %v, want none", issues)
	}
}

func TestCompileDevOpsChoicePipeline(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "run_tests", Kind: intent.StepAction},
		{ID: "deploy", Kind: intent.StepAction, Dependencies: []string{"run_tests"}, Guard: `vars.passed == true`},
		{ID: "alert", Kind: intent.StepAction, Dependencies: []string{"run_tests"}, Guard: `vars.passed == false`},
	}}

	net, _, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(net.Places) < 4 {
		t.Errorf("len(Places) = %d, want >= 4", len(net.Places))
	}
	if len(net.Transitions) < 3 {
		t.Errorf("len(Transitions) = %d, want >= 3", len(net.Transitions))
	}
}

func TestCompileParallelForkAndSyncJoin(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "warm_up", Kind: intent.StepAction},
		{ID: "split", Kind: intent.StepParallel, Dependencies: []string{"warm_up"},
			Parallel: &intent.ParallelSpec{Branches: []string{"pass_practice", "shoot_practice"}}},
		{ID: "pass_practice", Kind: intent.StepAction, Dependencies: []string{"split"}},
		{ID: "shoot_practice", Kind: intent.StepAction, Dependencies: []string{"split"}},
		{ID: "join", Kind: intent.StepSync, Dependencies: []string{"pass_practice", "shoot_practice"},
			Sync: &intent.SyncSpec{JoinsStepID: "split"}},
		{ID: "cooldown", Kind: intent.StepAction, Dependencies: []string{"join"}},
	}}

	net, _, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if issues := net.StructuralIssues(); len(issues) != 0 {
		t.Errorf("StructuralIssues() = %v, want none", issues)
	}
	if !net.IsTransition("fork_split") {
		t.Error("expected fork transition fork_split")
	}
	if !net.IsTransition("join_join") {
		t.Error("expected join transition join_join")
	}
}

func TestCompileRejectsMissingDependency(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "deploy", Kind: intent.StepAction, Dependencies: []string{"build"}},
	}}
	if _, _, err := Compile(doc); err == nil {
		t.Fatal("Compile() error = nil, want error for undeclared dependency")
	}
}

func TestCompileRejectsCircularDependency(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "a", Kind: intent.StepAction, Dependencies: []string{"b"}},
		{ID: "b", Kind: intent.StepAction, Dependencies: []string{"c"}},
		{ID: "c", Kind: intent.StepAction, Dependencies: []string{"a"}},
	}}
	if _, _, err := Compile(doc); err == nil {
		t.Fatal("Compile() error = nil, want error for dependency cycle")
	}
}

func TestCompileRejectsChoiceWithoutPaths(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "decide", Kind: intent.StepChoice},
	}}
	if _, _, err := Compile(doc); err == nil {
		t.Fatal("Compile() error = nil, want error for CHOICE without paths")
	}
}

func TestCompileRejectsEmptyDocument(t *testing.T) {
	if _, _, err := Compile(&intent.Doc{}); err == nil {
		t.Fatal("Compile() error = nil, want error for empty intent document")
	}
}

func TestCompileRejectsDuplicateStepID(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "a", Kind: intent.StepAction},
		{ID: "a", Kind: intent.StepAction},
	}}
	if _, _, err := Compile(doc); err == nil {
		t.Fatal("Compile() error = nil, want error for duplicate step id")
	}
}

func TestCompileErrorStepCarriesActionsAsActionRef(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "deploy", Kind: intent.StepAction},
		{ID: "rollback", Kind: intent.StepError, Dependencies: []string{"deploy"},
			Error: &intent.ErrorSpec{CompensatesStepID: "deploy", Actions: []string{"revert migration", "restart service"}}},
	}}

	net, _, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	t_rollback, ok := net.Transitions["t_rollback"]
	if !ok {
		t.Fatalf("transition t_rollback not found among %v", net.SortedTransitionIDs())
	}
	if t_rollback.Kind != petri.TransitionCompensate {
		t.Errorf("Kind = %v, want COMPENSATION", t_rollback.Kind)
	}
	want := "revert migration && restart service"
	if t_rollback.ActionRef != want {
		t.Errorf("ActionRef = %q, want %q", t_rollback.ActionRef, want)
	}
}

func TestCompileRejectsErrorStepCompensatingNonDependency(t *testing.T) {
	doc := &intent.Doc{Steps: []intent.Step{
		{ID: "deploy", Kind: intent.StepAction},
		{ID: "rollback", Kind: intent.StepError,
			Error: &intent.ErrorSpec{CompensatesStepID: "deploy"}},
	}}
	if _, _, err := Compile(doc); err == nil {
		t.Fatal("Compile() error = nil, want error for CompensatesStepID not in Dependencies")
	}
}
