// Package guard compiles and evaluates the opaque guard expressions
// attached to Petri net transitions, using CEL (Common Expression
// Language) as the expression engine.
package guard

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/petriflow/core/petri"
)

// Evaluator compiles guard expressions against a `marking` variable
// (the current token counts, exposed as a map[string]int) and an
// arbitrary `vars` variable (step-local bindings supplied by the
// caller), caching compiled programs by expression text. It satisfies
// petri.GuardEvaluator.
type Evaluator struct {
	env   *cel.Env
	mu    sync.RWMutex
	cache map[string]cel.Program
}

// New builds an Evaluator with a fixed CEL environment declaring the
// `marking` and `vars` variables every guard expression may reference.
func New() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("marking", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("vars", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("guard: creating CEL environment: %w", err)
	}
	return &Evaluator{env: env, cache: make(map[string]cel.Program)}, nil
}

// Evaluate compiles expr (if not already cached) and runs it against
// marking and vars, expecting a boolean result.
func (e *Evaluator) Evaluate(expr string, marking petri.Marking, vars map[string]any) (bool, error) {
	prg, err := e.compiled(expr)
	if err != nil {
		return false, err
	}

	markingInts := make(map[string]int, len(marking))
	for k, v := range marking {
		markingInts[k] = v
	}
	if vars == nil {
		vars = map[string]any{}
	}

	out, _, err := prg.Eval(map[string]any{
		"marking": markingInts,
		"vars":    vars,
	})
	if err != nil {
		return false, fmt.Errorf("guard: evaluating %q: %w", expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard: expression %q did not return a bool, got %T", expr, out.Value())
	}
	return result, nil
}

func (e *Evaluator) compiled(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("guard: compiling %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("guard: building program for %q: %w", expr, err)
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Compile validates expr against the guard environment without
// evaluating it and returns the compile error, if any. grammar.Compile
// does not call it, so a malformed guard is first reported when it is
// evaluated.
func (e *Evaluator) Compile(expr string) error {
	_, err := e.compiled(expr)
	return err
}

// CacheSize reports how many distinct expressions have been compiled
// and cached, mainly useful in tests.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
