package guard

import (
	"testing"

	"github.com/petriflow/core/petri"
)

func TestEvaluateReadsMarking(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m := petri.Marking{"orders_open": 3}
	got, err := e.Evaluate(`marking["orders_open"] > 0`, m, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
}

func TestEvaluateReadsVars(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := e.Evaluate(`vars.approved == true`, petri.Marking{}, map[string]any{"approved": true})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
}

func TestEvaluateNonBooleanExpressionErrors(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := e.Evaluate(`marking["p"]`, petri.Marking{"p": 1}, nil); err == nil {
		t.Fatal("Evaluate() error = nil, want error for non-boolean result")
	}
}

func TestCompileRejectsMalformedExpression(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Compile(`marking["p" >`); err == nil {
		t.Fatal("Compile() error = nil, want error for malformed expression")
	}
}

func TestCompiledProgramsAreCached(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	const expr = `marking["p"] > 0`
	if _, err := e.Evaluate(expr, petri.Marking{"p": 1}, nil); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if _, err := e.Evaluate(expr, petri.Marking{"p": 0}, nil); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if e.CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1 (single compile, reused)", e.CacheSize())
	}
}
