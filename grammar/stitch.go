package grammar

import (
	"fmt"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

// stitchDependencies connects post_d -> pre_s for every step s and
// dependency d, skipping edges the fork of a PARALLEL step already
// wires directly (see compileParallel) and the branch-set edges a SYNC
// step already consumes explicitly (see compileSync). A place can
// never feed another place directly (arcs must alternate place and
// transition), so the stitch goes through a silent pass-through
// transition, named from the (dep, s) pair so compilation stays
// deterministic.
func (c *compiler) stitchDependencies() error {
	for _, s := range c.doc.Steps {
		if s.Kind == intent.StepSync {
			continue // SYNC consumes branch post-places directly, not via generic stitching
		}
		for _, dep := range s.Dependencies {
			depStep := c.doc.StepByID(dep)
			if depStep == nil {
				return apierr.New(apierr.CodeConstructionConflict,
					fmt.Sprintf("step %q depends on undeclared step %q", s.ID, dep))
			}
			if owner, isBranch := c.branchOf[s.ID]; isBranch && owner == dep {
				continue // fork already feeds this branch's pre-place directly
			}
			link := fmt.Sprintf("seq_%s_%s", dep, s.ID)
			c.builder.TransitionWithKind(link, fmt.Sprintf("%s -> %s", dep, s.ID), petri.TransitionAction)
			c.builder.Arc(placeID(dep, rolePost), link)
			c.builder.Arc(link, placeID(s.ID, rolePre))
		}
	}
	return nil
}
