package intent

import "testing"

func TestFromJSONRoundTrip(t *testing.T) {
	raw := []byte(`{
		"name": "devops-pipeline",
		"steps": [
			{"id": "run_tests", "kind": "ACTION"},
			{"id": "deploy", "kind": "ACTION", "dependencies": ["run_tests"], "guard": "vars.passed == true"},
			{"id": "alert", "kind": "ACTION", "dependencies": ["run_tests"], "guard": "vars.passed == false"}
		]
	}`)

	doc, err := FromJSON(raw)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if len(doc.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(doc.Steps))
	}
	if doc.StepByID("deploy").Guard != "vars.passed == true" {
		t.Errorf("deploy guard = %q, want preserved", doc.StepByID("deploy").Guard)
	}

	out, err := ToJSON(doc)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	roundTripped, err := FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON(ToJSON()) error = %v", err)
	}
	if len(roundTripped.Steps) != len(doc.Steps) {
		t.Errorf("round trip step count = %d, want %d", len(roundTripped.Steps), len(doc.Steps))
	}
}

func TestFromJSONRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"steps": [{"id": "s", "kind": "TELEPORT"}]}`)
	if _, err := FromJSON(raw); err == nil {
		t.Fatal("FromJSON() error = nil, want parse error for unknown step kind")
	}
}

func TestFromJSONParsesChoiceFragment(t *testing.T) {
	raw := []byte(`{
		"steps": [
			{"id": "decide", "kind": "CHOICE", "choice": {"paths": [
				{"id": "p_yes", "guard": "vars.ok"},
				{"id": "p_no", "guard": "!vars.ok"}
			]}}
		]
	}`)
	doc, err := FromJSON(raw)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	step := doc.StepByID("decide")
	if step.Choice == nil || len(step.Choice.Paths) != 2 {
		t.Fatalf("Choice = %+v, want 2 paths", step.Choice)
	}
}
