// Package executor runs a project.DAG to completion: a single scheduler
// goroutine pops ready nodes onto a concurrency-capped worker pool,
// dispatches each to an injected action dispatcher, and retries failed
// attempts per a per-node backoff policy.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/petri"
	"github.com/petriflow/core/project"
)

// NodeStatus is the lifecycle state of one DAG node within a run.
// Transitions are monotonic: PENDING -> READY -> RUNNING ->
// (SUCCEEDED | FAILED | TIMEOUT | CANCELLED | SKIPPED). A retry is
// modeled as RUNNING -> FAILED -> READY for bookkeeping, never as a
// literal backward move on the same status value.
type NodeStatus string

const (
	NodePending   NodeStatus = "PENDING"
	NodeReady     NodeStatus = "READY"
	NodeRunning   NodeStatus = "RUNNING"
	NodeSucceeded NodeStatus = "SUCCEEDED"
	NodeFailed    NodeStatus = "FAILED"
	NodeTimeout   NodeStatus = "TIMEOUT"
	NodeCancelled NodeStatus = "CANCELLED"
	NodeSkipped   NodeStatus = "SKIPPED"
)

func (s NodeStatus) terminal() bool {
	switch s {
	case NodeSucceeded, NodeFailed, NodeTimeout, NodeCancelled, NodeSkipped:
		return true
	default:
		return false
	}
}

// NodeResult is what a Dispatch call returns for one attempt.
type NodeResult struct {
	Status       NodeStatus
	Outputs      map[string]any
	ErrorMessage string
	ErrorCode    string
	DurationMS   int64
	Attempts     int
}

// Dispatch is the injected action dispatcher contract (C6 ↔ outside
// world). Implementations must honor ctx cancellation.
type Dispatch func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (NodeResult, error)

// Config parameterizes a run.
type Config struct {
	MaxConcurrency int
	FailFast       bool
	DefaultRetry   RetryPolicy
	NodeTimeout    map[string]time.Duration // nodeID -> declared per-attempt deadline, optional
	NodeRetry      map[string]RetryPolicy    // nodeID -> override, optional
	NodeActionRef  map[string]string         // nodeID -> actionRef passed to Dispatch
	NodeInputs     map[string]map[string]any // nodeID -> static inputs merged with upstream outputs
}

// DefaultConfig turns failFast on and sets MaxConcurrency to nodeCount,
// one worker per node; the worker count is not derived from the number
// of CPU threads.
func DefaultConfig(nodeCount int) Config {
	return Config{
		MaxConcurrency: nodeCount,
		FailFast:       true,
		DefaultRetry:   DefaultRetryPolicy(),
	}
}

// Summary is the run-level rollup returned alongside per-node results.
type Summary struct {
	TotalNodes int
	Succeeded  int
	Failed     int
	Skipped    int
	Cancelled  int
	WallTimeMS int64
}

// Run is the per-run executor state: one DAG execution owns its own
// node results exclusively, so concurrent runs over the same DAG never
// share mutable state.
type Run struct {
	ID      string
	Results map[string]NodeResult
	Summary Summary
}

// Execute runs dag to completion under cfg, calling dispatch for every
// node, and returns the finished Run. eval evaluates a CHOICE edge's
// guard expression (the same evaluator validate/simulate use); nil
// falls back to petri.AlwaysTrueEvaluator. obs carries logging/metrics;
// a zero value is replaced with a no-op.
func Execute(ctx context.Context, dag *project.DAG, cfg Config, dispatch Dispatch, eval petri.GuardEvaluator, obs logging.Observability) *Run {
	if obs.Log == nil {
		obs = logging.NoOpObservability()
	}
	if eval == nil {
		eval = petri.AlwaysTrueEvaluator
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = len(dag.Nodes)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	s := newScheduler(ctx, dag, cfg, dispatch, eval, obs)
	return s.run()
}

// scheduler owns the single-threaded ready-queue logic; workers only
// execute one node's dispatch-with-retry loop and report back.
type scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	dag    *project.DAG
	cfg    Config
	disp   Dispatch
	eval   petri.GuardEvaluator
	obs    logging.Observability

	status  map[string]NodeStatus
	results map[string]NodeResult
	outputs map[string]map[string]any
	indeg   map[string][]project.Edge // incoming edges per node
	outedg  map[string][]project.Edge

	sem     *semaphore.Weighted
	doneCh  chan nodeDone
	pending int
}

type nodeDone struct {
	nodeID string
	result NodeResult
}

func newScheduler(ctx context.Context, dag *project.DAG, cfg Config, disp Dispatch, eval petri.GuardEvaluator, obs logging.Observability) *scheduler {
	runCtx, cancel := context.WithCancel(ctx)
	s := &scheduler{
		ctx: runCtx, cancel: cancel,
		dag: dag, cfg: cfg, disp: disp, eval: eval, obs: obs,
		status:  make(map[string]NodeStatus, len(dag.Nodes)),
		results: make(map[string]NodeResult, len(dag.Nodes)),
		outputs: make(map[string]map[string]any, len(dag.Nodes)),
		indeg:   make(map[string][]project.Edge),
		outedg:  make(map[string][]project.Edge),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		doneCh:  make(chan nodeDone, len(dag.Nodes)),
	}
	for _, n := range dag.Nodes {
		s.status[n.TransitionID] = NodePending
	}
	for _, e := range dag.Edges {
		s.indeg[e.To] = append(s.indeg[e.To], e)
		s.outedg[e.From] = append(s.outedg[e.From], e)
	}
	return s
}

func (s *scheduler) run() *Run {
	start := time.Now()
	defer s.cancel()

	ready := s.rootsReady()
	for _, id := range ready {
		s.status[id] = NodeReady
		s.launch(id)
	}

	for s.pending > 0 {
		select {
		case <-s.ctx.Done():
			s.cancelAllPending()
			s.drainOutstanding()
			return s.finish(start)
		case d := <-s.doneCh:
			s.pending--
			s.complete(d.nodeID, d.result)
		}
	}

	return s.finish(start)
}

// rootsReady returns node ids with no incoming edges at all, sorted
// for deterministic launch order.
func (s *scheduler) rootsReady() []string {
	var roots []string
	for _, n := range s.dag.Nodes {
		if len(s.indeg[n.TransitionID]) == 0 {
			roots = append(roots, n.TransitionID)
		}
	}
	sort.Strings(roots)
	return roots
}

// launch starts a node's dispatch-with-retry loop on its own worker.
func (s *scheduler) launch(nodeID string) {
	s.status[nodeID] = NodeRunning
	s.pending++
	go func() {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			s.doneCh <- nodeDone{nodeID, NodeResult{Status: NodeCancelled, ErrorMessage: err.Error()}}
			return
		}
		defer s.sem.Release(1)
		result := s.runWithRetry(nodeID)
		s.doneCh <- nodeDone{nodeID, result}
	}()
}

func (s *scheduler) retryPolicyFor(nodeID string) RetryPolicy {
	if rp, ok := s.cfg.NodeRetry[nodeID]; ok {
		return rp
	}
	return s.cfg.DefaultRetry
}

// runWithRetry dispatches nodeID, retrying per policy on failure. The
// backoff sleep is a cancellation suspension point.
func (s *scheduler) runWithRetry(nodeID string) NodeResult {
	policy := s.retryPolicyFor(nodeID)
	actionRef := s.cfg.NodeActionRef[nodeID]
	inputs := s.inputsFor(nodeID)
	timeout := s.cfg.NodeTimeout[nodeID]

	var last NodeResult
	start := time.Now()
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-s.ctx.Done():
			return NodeResult{Status: NodeCancelled, Attempts: attempt - 1, DurationMS: time.Since(start).Milliseconds()}
		default:
		}

		callCtx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(s.ctx, timeout)
			defer cancel()
		}

		result, err := s.disp(callCtx, nodeID, actionRef, inputs)
		result.Attempts = attempt
		result.DurationMS = time.Since(start).Milliseconds()

		if err == nil && result.Status == NodeSucceeded {
			return result
		}
		if err == nil && result.Status == "" {
			result.Status = NodeFailed
		}
		if err != nil {
			result.Status = NodeFailed
			result.ErrorMessage = err.Error()
		}
		if timeout > 0 && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			result.Status = NodeTimeout
		}
		last = result

		if attempt >= maxAttempts {
			break
		}
		if !policy.ShouldRetry(last) {
			break
		}

		delay := policy.Delay(attempt)
		if delay > 0 {
			select {
			case <-s.ctx.Done():
				last.Status = NodeCancelled
				return last
			case <-time.After(delay):
			}
		}
	}
	return last
}

// inputsFor merges configured static inputs with the accumulated
// outputs of every upstream node.
func (s *scheduler) inputsFor(nodeID string) map[string]any {
	merged := make(map[string]any)
	for _, e := range s.indeg[nodeID] {
		for k, v := range s.outputs[e.From] {
			merged[k] = v
		}
	}
	for k, v := range s.cfg.NodeInputs[nodeID] {
		merged[k] = v
	}
	return merged
}

// complete records a finished node's result and advances its
// successors, pruning subtrees whose guarding edge condition is false.
func (s *scheduler) complete(nodeID string, result NodeResult) {
	s.status[nodeID] = result.Status
	s.results[nodeID] = result
	if result.Status == NodeSucceeded {
		s.outputs[nodeID] = result.Outputs
	}

	if result.Status != NodeSucceeded && s.cfg.FailFast {
		s.cancelAllPending()
		return
	}

	for _, e := range s.outedg[nodeID] {
		s.tryAdvance(e.To)
	}
}

// tryAdvance promotes a PENDING node to READY/SKIPPED/RUNNING once
// every incoming edge is resolved: source SUCCEEDED and the edge
// condition (if any) evaluates true against accumulated outputs. An
// edge whose condition is false prunes the node to SKIPPED.
func (s *scheduler) tryAdvance(nodeID string) {
	if s.status[nodeID] != NodePending {
		return
	}
	allSatisfied := true
	anyPruned := false
	for _, e := range s.indeg[nodeID] {
		srcStatus := s.status[e.From]
		if srcStatus == NodeSkipped || srcStatus == NodeCancelled || srcStatus == NodeFailed || srcStatus == NodeTimeout {
			anyPruned = true
			continue
		}
		if srcStatus != NodeSucceeded {
			allSatisfied = false
			continue
		}
		if e.Condition != "" && !s.conditionHolds(e.Condition, s.outputs[e.From]) {
			anyPruned = true
		}
	}
	if anyPruned {
		s.status[nodeID] = NodeSkipped
		s.propagateSkip(nodeID)
		return
	}
	if !allSatisfied {
		return
	}
	s.status[nodeID] = NodeReady
	s.launch(nodeID)
}

func (s *scheduler) propagateSkip(nodeID string) {
	for _, e := range s.outedg[nodeID] {
		if s.status[e.To] == NodePending {
			s.status[e.To] = NodeSkipped
			s.propagateSkip(e.To)
		}
	}
}

// conditionHolds evaluates a CHOICE edge's guard expression (the same
// expression the compiler attached to the source transition, §4.2)
// against the source node's accumulated outputs as `vars`. A guard
// referencing no marking, so an empty Marking is passed; an evaluation
// error prunes the edge rather than risking a spurious advance.
func (s *scheduler) conditionHolds(condition string, outputs map[string]any) bool {
	vars := outputs
	if vars == nil {
		vars = map[string]any{}
	}
	ok, err := s.eval.Evaluate(condition, petri.Marking{}, vars)
	if err != nil {
		s.obs.Log.Warn("edge condition evaluation failed, pruning", "condition", condition, "error", err)
		return false
	}
	return ok
}

func (s *scheduler) cancelAllPending() {
	s.cancel()
	for id, st := range s.status {
		if st == NodePending || st == NodeReady {
			s.status[id] = NodeCancelled
		}
	}
}

func (s *scheduler) drainOutstanding() {
	for s.pending > 0 {
		d := <-s.doneCh
		s.pending--
		if d.result.Status == "" {
			d.result.Status = NodeCancelled
		}
		s.results[d.nodeID] = d.result
		s.status[d.nodeID] = d.result.Status
	}
}

func (s *scheduler) finish(start time.Time) *Run {
	summary := Summary{WallTimeMS: time.Since(start).Milliseconds()}
	for _, n := range s.dag.Nodes {
		summary.TotalNodes++
		switch s.status[n.TransitionID] {
		case NodeSucceeded:
			summary.Succeeded++
		case NodeFailed, NodeTimeout:
			summary.Failed++
		case NodeSkipped:
			summary.Skipped++
		case NodeCancelled:
			summary.Cancelled++
		}
		if _, ok := s.results[n.TransitionID]; !ok {
			s.results[n.TransitionID] = NodeResult{Status: s.status[n.TransitionID]}
		}
	}
	return &Run{ID: uuid.NewString(), Results: s.results, Summary: summary}
}

// ErrSchedulerInternal wraps a scheduler-level fault (not a dispatcher
// failure, which is always recovered into a NodeResult).
func ErrSchedulerInternal(msg string) error {
	return fmt.Errorf("executor: %s", msg)
}
