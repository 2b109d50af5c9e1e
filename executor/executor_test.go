package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petriflow/core/guard"
	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/petri"
	"github.com/petriflow/core/project"
)

func mustGuardEvaluator(t *testing.T) petri.GuardEvaluator {
	t.Helper()
	eval, err := guard.New()
	if err != nil {
		t.Fatalf("guard.New() error = %v", err)
	}
	return eval
}

func singleNodeDAG(id string) *project.DAG {
	return &project.DAG{Nodes: []project.Node{{TransitionID: id}}}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	dag := singleNodeDAG("t_flaky")
	var calls int32

	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return NodeResult{Status: NodeFailed, ErrorMessage: "transient"}, nil
		}
		return NodeResult{Status: NodeSucceeded}, nil
	}

	cfg := Config{
		MaxConcurrency: 1,
		FailFast:       true,
		DefaultRetry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelay:      1 * time.Millisecond,
			BackoffMultiplier: 2,
			MaxDelay:          100 * time.Millisecond,
			Strategy:          BackoffExponential,
		},
	}

	start := time.Now()
	run := Execute(context.Background(), dag, cfg, dispatch, nil, logging.NoOpObservability())
	elapsed := time.Since(start)

	result := run.Results["t_flaky"]
	if result.Status != NodeSucceeded {
		t.Fatalf("Status = %v, want SUCCEEDED (%s)", result.Status, result.ErrorMessage)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if elapsed < 3*time.Millisecond {
		t.Errorf("elapsed = %v, want >= initialDelay + initialDelay*multiplier (backoff actually waited)", elapsed)
	}
	if run.Summary.Succeeded != 1 || run.Summary.Failed != 0 {
		t.Errorf("Summary = %+v, want 1 succeeded, 0 failed", run.Summary)
	}
}

func TestExecuteExhaustsRetriesAndFails(t *testing.T) {
	dag := singleNodeDAG("t_broken")
	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		return NodeResult{Status: NodeFailed, ErrorMessage: "boom"}, nil
	}
	cfg := Config{MaxConcurrency: 1, FailFast: true, DefaultRetry: RetryPolicy{
		MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffMultiplier: 1, Strategy: BackoffConstant,
	}}

	run := Execute(context.Background(), dag, cfg, dispatch, nil, logging.NoOpObservability())
	result := run.Results["t_broken"]
	if result.Status != NodeFailed {
		t.Fatalf("Status = %v, want FAILED", result.Status)
	}
	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2 (exhausted maxAttempts)", result.Attempts)
	}
	if run.Summary.Failed != 1 {
		t.Errorf("Summary.Failed = %d, want 1", run.Summary.Failed)
	}
}

// threeNodeFanOut builds a -> b, a -> c with no edge between b and c,
// used to exercise failFast vs independent-branch-completion behavior.
func threeNodeFanOut() *project.DAG {
	return &project.DAG{
		Nodes: []project.Node{{TransitionID: "a"}, {TransitionID: "b"}, {TransitionID: "c"}},
		Edges: []project.Edge{{From: "a", To: "b"}, {From: "a", To: "c"}},
	}
}

func TestExecuteFailFastCancelsSiblingBranch(t *testing.T) {
	dag := threeNodeFanOut()
	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		switch nodeID {
		case "a":
			return NodeResult{Status: NodeSucceeded}, nil
		case "b":
			return NodeResult{Status: NodeFailed, ErrorMessage: "b failed"}, nil
		default: // c blocks until cancelled by failFast
			<-ctx.Done()
			return NodeResult{Status: NodeCancelled}, nil
		}
	}
	cfg := Config{MaxConcurrency: 2, FailFast: true, DefaultRetry: NoRetryPolicy()}

	run := Execute(context.Background(), dag, cfg, dispatch, nil, logging.NoOpObservability())
	if run.Results["a"].Status != NodeSucceeded {
		t.Errorf("a.Status = %v, want SUCCEEDED", run.Results["a"].Status)
	}
	if run.Results["b"].Status != NodeFailed {
		t.Errorf("b.Status = %v, want FAILED", run.Results["b"].Status)
	}
	if run.Results["c"].Status != NodeCancelled {
		t.Errorf("c.Status = %v, want CANCELLED due to failFast", run.Results["c"].Status)
	}
}

func TestExecuteNonFailFastLetsIndependentBranchFinish(t *testing.T) {
	dag := threeNodeFanOut()
	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		if nodeID == "b" {
			return NodeResult{Status: NodeFailed, ErrorMessage: "b failed"}, nil
		}
		return NodeResult{Status: NodeSucceeded}, nil
	}
	cfg := Config{MaxConcurrency: 2, FailFast: false, DefaultRetry: NoRetryPolicy()}

	run := Execute(context.Background(), dag, cfg, dispatch, nil, logging.NoOpObservability())
	if run.Results["b"].Status != NodeFailed {
		t.Errorf("b.Status = %v, want FAILED", run.Results["b"].Status)
	}
	if run.Results["c"].Status != NodeSucceeded {
		t.Errorf("c.Status = %v, want SUCCEEDED (independent branch unaffected)", run.Results["c"].Status)
	}
}

func TestExecutePrunesSubtreeOnFalseCondition(t *testing.T) {
	// Conditions are full CEL guard expressions over `vars`, matching
	// what project.Project copies from a CHOICE transition's Guard
	// (project/project.go), not bare output-key names.
	dag := &project.DAG{
		Nodes: []project.Node{{TransitionID: "choose"}, {TransitionID: "path_a"}, {TransitionID: "path_b"}},
		Edges: []project.Edge{
			{From: "choose", To: "path_a", Condition: "vars.take_a == true"},
			{From: "choose", To: "path_b", Condition: "vars.take_b == true"},
		},
	}
	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		switch nodeID {
		case "choose":
			return NodeResult{Status: NodeSucceeded, Outputs: map[string]any{"take_a": true, "take_b": false}}, nil
		default:
			return NodeResult{Status: NodeSucceeded}, nil
		}
	}
	cfg := Config{MaxConcurrency: 2, FailFast: true, DefaultRetry: NoRetryPolicy()}

	run := Execute(context.Background(), dag, cfg, dispatch, mustGuardEvaluator(t), logging.NoOpObservability())
	if run.Results["path_a"].Status != NodeSucceeded {
		t.Errorf("path_a.Status = %v, want SUCCEEDED (condition true)", run.Results["path_a"].Status)
	}
	if run.Results["path_b"].Status != NodeSkipped {
		t.Errorf("path_b.Status = %v, want SKIPPED (condition false)", run.Results["path_b"].Status)
	}
}

func TestExecuteRespectsConcurrencyCap(t *testing.T) {
	dag := &project.DAG{Nodes: []project.Node{
		{TransitionID: "w1"}, {TransitionID: "w2"}, {TransitionID: "w3"}, {TransitionID: "w4"},
	}}
	var inFlight, maxSeen int32
	dispatch := func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return NodeResult{Status: NodeSucceeded}, nil
	}
	cfg := Config{MaxConcurrency: 2, FailFast: true, DefaultRetry: NoRetryPolicy()}

	run := Execute(context.Background(), dag, cfg, dispatch, nil, logging.NoOpObservability())
	if run.Summary.Succeeded != 4 {
		t.Fatalf("Summary.Succeeded = %d, want 4", run.Summary.Succeeded)
	}
	if atomic.LoadInt32(&maxSeen) > 2 {
		t.Errorf("maxSeen concurrent dispatches = %d, want <= 2 (MaxConcurrency)", maxSeen)
	}
}
