package grammar

import (
	"fmt"
	"strings"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

// compileStep emits the place/transition fragment for a single step,
// per the §4.2 fragment table. Dependency arcs are added separately in
// stitchDependencies, after every step's own places exist.
func (c *compiler) compileStep(s intent.Step) error {
	switch s.Kind {
	case intent.StepAction:
		return c.compileAction(s)
	case intent.StepChoice:
		return c.compileChoice(s)
	case intent.StepParallel:
		return c.compileParallel(s)
	case intent.StepSync:
		return c.compileSync(s)
	case intent.StepLoop:
		return c.compileLoop(s)
	case intent.StepError:
		return c.compileError(s)
	case intent.StepTimer:
		return c.compileTimer(s)
	default:
		return apierr.New(apierr.CodeParseError, fmt.Sprintf("step %q has unrecognized kind %q", s.ID, s.Kind))
	}
}

// compileAction emits pre_s -> t_s -> post_s, guard on t_s.
func (c *compiler) compileAction(s intent.Step) error {
	pre, post, t := placeID(s.ID, rolePre), placeID(s.ID, rolePost), transitionID(s.ID, roleT)
	c.builder.Place(pre, pre).Place(post, post).TransitionWithKind(t, s.ID, petri.TransitionAction)
	if s.Guard != "" {
		c.builder.Guard(t, s.Guard)
	}
	if s.ActionRef != "" {
		c.builder.ActionRef(t, s.ActionRef)
	}
	c.builder.Arc(pre, t).Arc(t, post)
	return nil
}

// compileChoice emits pre_s -> {t_s_path...} -> post_s, one transition
// per path, each carrying that path's guard.
func (c *compiler) compileChoice(s intent.Step) error {
	if s.Choice == nil || len(s.Choice.Paths) == 0 {
		return apierr.New(apierr.CodeConstructionConflict, fmt.Sprintf("CHOICE step %q declares no paths", s.ID))
	}
	pre, post := placeID(s.ID, rolePre), placeID(s.ID, rolePost)
	c.builder.Place(pre, pre).Place(post, post)
	for _, path := range s.Choice.Paths {
		t := transitionID(s.ID, "path_"+path.ID)
		c.builder.TransitionWithKind(t, path.ID, petri.TransitionChoice)
		if path.Guard != "" {
			c.builder.Guard(t, path.Guard)
		}
		c.builder.Arc(pre, t).Arc(t, post)
	}
	return nil
}

// compileParallel emits pre_s -> t_fork_s -> {pre_branch...}: the fork
// feeds each branch step's own pre-place directly, rather than a
// generic post_s place, so stitchDependencies must skip re-wiring those
// particular edges (see compiler.branchOf).
func (c *compiler) compileParallel(s intent.Step) error {
	if s.Parallel == nil || len(s.Parallel.Branches) == 0 {
		return apierr.New(apierr.CodeConstructionConflict, fmt.Sprintf("PARALLEL step %q declares no branches", s.ID))
	}
	pre := placeID(s.ID, rolePre)
	t := transitionID(s.ID, roleFork)
	c.builder.Place(pre, pre).TransitionWithKind(t, s.ID, petri.TransitionFork)
	c.builder.Arc(pre, t)
	for _, branch := range s.Parallel.Branches {
		branchPre := placeID(branch, rolePre)
		if c.doc.StepByID(branch) == nil {
			// a declared branch step adds its own pre-place when compiled
			c.builder.Place(branchPre, branchPre)
		}
		c.builder.Arc(t, branchPre)
	}
	return nil
}

// compileSync emits {post_branch...} -> t_join_s -> post_s, consuming
// every branch's output place.
func (c *compiler) compileSync(s intent.Step) error {
	if s.Sync == nil || s.Sync.JoinsStepID == "" {
		return apierr.New(apierr.CodeConstructionConflict, fmt.Sprintf("SYNC step %q names no PARALLEL to join", s.ID))
	}
	parallel := c.doc.StepByID(s.Sync.JoinsStepID)
	if parallel == nil || parallel.Kind != intent.StepParallel || parallel.Parallel == nil {
		return apierr.New(apierr.CodeConstructionConflict,
			fmt.Sprintf("SYNC step %q references %q which is not a PARALLEL step", s.ID, s.Sync.JoinsStepID))
	}
	if !sameBranchSet(s.Dependencies, parallel.Parallel.Branches) {
		return apierr.New(apierr.CodeConstructionConflict,
			fmt.Sprintf("SYNC step %q dependencies do not match PARALLEL %q branches (missing join)", s.ID, parallel.ID))
	}

	post := placeID(s.ID, rolePost)
	t := transitionID(s.ID, roleJoin)
	c.builder.Place(post, post).TransitionWithKind(t, s.ID, petri.TransitionJoin)
	for _, branch := range parallel.Parallel.Branches {
		branchPost := placeID(branch, rolePost)
		c.builder.Arc(branchPost, t)
	}
	c.builder.Arc(t, post)
	return nil
}

func sameBranchSet(deps, branches []string) bool {
	if len(deps) != len(branches) {
		return false
	}
	set := make(map[string]bool, len(branches))
	for _, b := range branches {
		set[b] = true
	}
	for _, d := range deps {
		if !set[d] {
			return false
		}
	}
	return true
}

// compileLoop emits the body pre_s -> t_s -> post_s, plus a back-arc
// transition post_s -> t_s_continue -> pre_s guarded by the continuation
// condition. The projector (C5) is responsible for detecting and
// breaking the resulting cycle.
func (c *compiler) compileLoop(s intent.Step) error {
	pre, post, t := placeID(s.ID, rolePre), placeID(s.ID, rolePost), transitionID(s.ID, roleT)
	c.builder.Place(pre, pre).Place(post, post).TransitionWithKind(t, s.ID, petri.TransitionLoop)
	if s.Guard != "" {
		c.builder.Guard(t, s.Guard)
	}
	c.builder.Arc(pre, t).Arc(t, post)

	if s.Loop != nil && s.Loop.ContinueGuard != "" {
		tc := transitionID(s.ID, roleLoopC)
		c.builder.TransitionWithKind(tc, s.ID+" continue", petri.TransitionLoop)
		c.builder.Guard(tc, s.Loop.ContinueGuard)
		c.builder.Arc(post, tc).Arc(tc, pre)
	}
	return nil
}

// compileError emits a compensation fragment: pre_s -> t_s -> post_s,
// where t_s is kind COMPENSATION carrying its fixed reverse actions as
// ActionRef. CompensatesStepID, when set, must name one of this step's
// own Dependencies: reachability from the erroring transition's outcome
// is then wired by stitchDependencies the same way every other step's
// dependency arcs are, rather than by a second bespoke wiring path here
// — the same cross-check compileSync runs against JoinsStepID/branches.
func (c *compiler) compileError(s intent.Step) error {
	if s.Error != nil && s.Error.CompensatesStepID != "" && !containsString(s.Dependencies, s.Error.CompensatesStepID) {
		return apierr.New(apierr.CodeConstructionConflict,
			fmt.Sprintf("ERROR step %q compensates %q but does not declare it as a dependency", s.ID, s.Error.CompensatesStepID))
	}

	pre, post, t := placeID(s.ID, rolePre), placeID(s.ID, rolePost), transitionID(s.ID, roleT)
	c.builder.Place(pre, pre).Place(post, post).TransitionWithKind(t, s.ID, petri.TransitionCompensate)
	if s.Error != nil && len(s.Error.Actions) > 0 {
		c.builder.ActionRef(t, strings.Join(s.Error.Actions, " && "))
	}
	c.builder.Arc(pre, t).Arc(t, post)
	return nil
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

// compileTimer emits an ACTION-shaped fragment; the delay is recorded
// on the transition's metadata under "delayMs". The projector and the
// executor do not read that metadata, so no delay is applied at run time.
func (c *compiler) compileTimer(s intent.Step) error {
	pre, post, t := placeID(s.ID, rolePre), placeID(s.ID, rolePost), transitionID(s.ID, roleT)
	c.builder.Place(pre, pre).Place(post, post).TransitionWithKind(t, s.ID, petri.TransitionTimer)
	if s.Guard != "" {
		c.builder.Guard(t, s.Guard)
	}
	if s.Timer != nil && s.Timer.DelayMS > 0 {
		c.builder.TransitionMetadata(t, "delayMs", fmt.Sprintf("%d", s.Timer.DelayMS))
	}
	if s.ActionRef != "" {
		c.builder.ActionRef(t, s.ActionRef)
	}
	c.builder.Arc(pre, t).Arc(t, post)
	return nil
}
