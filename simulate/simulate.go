// Package simulate fires enabled transitions of a petri.PetriNet under
// a firing policy (deterministic, seeded-random, or interactive),
// producing an observable trace of TraceEvents.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/petri"
)

// Mode selects how the simulator picks among enabled transitions.
type Mode string

const (
	ModeDeterministic Mode = "DETERMINISTIC"
	ModeRandom        Mode = "RANDOM"
	ModeInteractive   Mode = "INTERACTIVE"
)

// Config bounds and parameterizes a simulation run.
type Config struct {
	Mode           Mode
	Seed           int64 // required when Mode == ModeRandom
	MaxSteps       int
	StepDelayMS    int // pause between steps; 0 fires as fast as possible
	TraceEvents    bool
	StopOnTerminal bool
}

// DefaultConfig matches the §4.4 stated defaults.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeDeterministic,
		MaxSteps:       1000,
		StepDelayMS:    0,
		TraceEvents:    true,
		StopOnTerminal: true,
	}
}

// TraceEvent records a single firing.
type TraceEvent struct {
	StepIndex           int
	TransitionID         string
	PreMarking           petri.Marking
	PostMarking          petri.Marking
	TimestampOffsetMS    int64
}

// Status is the terminal outcome of a run.
type Status string

const (
	StatusCompleted       Status = "COMPLETED"
	StatusDeadlock        Status = "DEADLOCK"
	StatusMaxStepsReached Status = "MAX_STEPS_REACHED"
	StatusTimeout         Status = "TIMEOUT"
	StatusCancelled       Status = "CANCELLED"
	StatusError           Status = "ERROR"
)

// Result is the outcome of a simulation run.
type Result struct {
	Status       Status
	ErrorMessage string
	Trace        []TraceEvent
	FinalMarking petri.Marking
}

// Chooser supplies the external chooseFire(tid) call INTERACTIVE mode
// suspends on: it's handed the currently enabled transition ids and
// must return one of them.
type Chooser interface {
	ChooseFire(ctx context.Context, enabled []string) (string, error)
}

// Run simulates net under cfg until a terminal marking, a deadlock, the
// step budget, cancellation, or an error stops it. chooser is only
// consulted in ModeInteractive and may be nil otherwise.
func Run(ctx context.Context, net *petri.PetriNet, eval petri.GuardEvaluator, cfg Config, chooser Chooser, obs logging.Observability) Result {
	if obs.Log == nil {
		obs = logging.NoOpObservability()
	}
	if cfg.Mode == ModeRandom && cfg.Seed == 0 {
		return Result{Status: StatusError, ErrorMessage: "RANDOM mode requires a nonzero seed"}
	}

	marking := net.InitialMarking
	if marking == nil {
		marking = petri.Marking{}
	}
	marking = marking.Copy()

	rng := rand.New(rand.NewSource(cfg.Seed))
	var trace []TraceEvent
	var elapsedMS int64

	for step := 0; cfg.MaxSteps <= 0 || step < cfg.MaxSteps; step++ {
		select {
		case <-ctx.Done():
			return Result{Status: cancellationStatus(ctx), Trace: trace, FinalMarking: marking}
		default:
		}

		if cfg.StepDelayMS > 0 && step > 0 {
			select {
			case <-ctx.Done():
				return Result{Status: cancellationStatus(ctx), Trace: trace, FinalMarking: marking}
			case <-time.After(time.Duration(cfg.StepDelayMS) * time.Millisecond):
			}
			elapsedMS += int64(cfg.StepDelayMS)
		}

		enabled, err := petri.EnabledTransitions(net, marking, eval, nil)
		if err != nil {
			return Result{Status: StatusError, ErrorMessage: err.Error(), Trace: trace, FinalMarking: marking}
		}

		if len(enabled) == 0 {
			if isTerminal(net, marking) {
				return Result{Status: StatusCompleted, Trace: trace, FinalMarking: marking}
			}
			return Result{Status: StatusDeadlock, Trace: trace, FinalMarking: marking}
		}

		var chosen string
		switch cfg.Mode {
		case ModeDeterministic:
			chosen = enabled[0] // petri.EnabledTransitions already orders by priority then id
		case ModeRandom:
			chosen = enabled[rng.Intn(len(enabled))]
		case ModeInteractive:
			if chooser == nil {
				return Result{Status: StatusError, ErrorMessage: "INTERACTIVE mode requires a Chooser", Trace: trace, FinalMarking: marking}
			}
			pick, err := chooser.ChooseFire(ctx, enabled)
			if err != nil {
				return Result{Status: StatusError, ErrorMessage: err.Error(), Trace: trace, FinalMarking: marking}
			}
			if !contains(enabled, pick) {
				return Result{
					Status:       StatusError,
					ErrorMessage: fmt.Sprintf("chooseFire: %q is not currently enabled", pick),
					Trace:        trace, FinalMarking: marking,
				}
			}
			chosen = pick
		default:
			return Result{Status: StatusError, ErrorMessage: fmt.Sprintf("unknown simulation mode %q", cfg.Mode)}
		}

		t := net.Transitions[chosen]
		pre := marking.Copy()
		next := petri.Fire(net, t, marking)

		if cfg.TraceEvents {
			trace = append(trace, TraceEvent{
				StepIndex: step, TransitionID: chosen,
				PreMarking: pre, PostMarking: next.Copy(),
				TimestampOffsetMS: elapsedMS,
			})
		}
		marking = next

		if cfg.StopOnTerminal && isTerminal(net, marking) {
			return Result{Status: StatusCompleted, Trace: trace, FinalMarking: marking}
		}
	}

	return Result{Status: StatusMaxStepsReached, Trace: trace, FinalMarking: marking}
}

// isTerminal matches validate's default terminal predicate: an
// explicitly declared terminal marking, or (absent any) a marking
// whose only nonzero places are SINK-kind.
func isTerminal(net *petri.PetriNet, m petri.Marking) bool {
	if len(net.TerminalMarkings) > 0 {
		for _, tm := range net.TerminalMarkings {
			if m.Equals(tm) {
				return true
			}
		}
		return false
	}
	for place, count := range m {
		if count == 0 {
			continue
		}
		p, ok := net.Places[place]
		if !ok || p.Kind != petri.PlaceSink {
			return false
		}
	}
	return true
}

// cancellationStatus distinguishes a context deadline from a plain
// cancellation: the former is TIMEOUT, everything else is CANCELLED.
func cancellationStatus(ctx context.Context) Status {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StatusTimeout
	}
	return StatusCancelled
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// ErrSimulation wraps a guard/capacity runtime error surfaced during
// simulation (§7, SIMULATION_ERROR), naming the offending transition.
func ErrSimulation(transitionID string, cause error) *apierr.Error {
	return apierr.Wrap(apierr.CodeSimulationError,
		fmt.Sprintf("transition %q failed during simulation", transitionID), cause)
}
