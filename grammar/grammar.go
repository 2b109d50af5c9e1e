// Package grammar compiles an intent document into a Petri net — the
// "automation grammar" that maps step kinds to place/transition
// fragments and stitches them together via declared dependencies.
package grammar

import (
	"fmt"
	"sort"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

// id roles used for deterministic, reproducible naming from (stepID, role).
const (
	rolePre    = "pre"
	rolePost   = "post"
	roleFork   = "fork"
	roleJoin   = "join"
	roleT      = "t"
	roleLoopC  = "loop_continue"
)

func placeID(stepID, role string) string      { return fmt.Sprintf("%s_%s", role, stepID) }
func transitionID(stepID, role string) string { return fmt.Sprintf("%s_%s", role, stepID) }

// Notes accompany a successful compilation — build-time diagnostics
// that aren't errors but are worth surfacing (§4.2's "build notes").
type Notes struct {
	RootPlaces []string
}

// Compile turns doc into a PetriNet, or an *apierr.Error describing the
// first grammar conflict encountered (duplicate id, unknown dependency,
// unresolved SYNC, CHOICE without paths, or a dependency cycle).
func Compile(doc *intent.Doc) (*petri.PetriNet, *Notes, error) {
	if len(doc.Steps) == 0 {
		return nil, nil, apierr.New(apierr.CodeBuildError, "intent document has no steps")
	}

	if err := checkDuplicateIDs(doc); err != nil {
		return nil, nil, err
	}
	if err := checkDependencyCycles(doc); err != nil {
		return nil, nil, err
	}

	b := petri.NewBuilder()
	c := &compiler{doc: doc, builder: b, branchOf: make(map[string]string)}

	// Pre-scan PARALLEL steps so branch steps know not to double-stitch
	// their dependency on the fork.
	for _, s := range doc.Steps {
		if s.Kind == intent.StepParallel && s.Parallel != nil {
			for _, branch := range s.Parallel.Branches {
				c.branchOf[branch] = s.ID
			}
		}
	}

	for _, s := range doc.Steps {
		if err := c.compileStep(s); err != nil {
			return nil, nil, err
		}
	}

	if err := c.stitchDependencies(); err != nil {
		return nil, nil, err
	}

	roots := c.rootSteps()
	for _, r := range roots {
		b.InitialTokens(placeID(r, rolePre), 1)
	}

	net, err := b.Build()
	if err != nil {
		return nil, nil, apierr.Wrap(apierr.CodeBuildError, "assembling net", err)
	}
	net.Metadata.OriginIntent = doc.Name
	net.Metadata.SchemaVersion = doc.SchemaVersion

	return net, &Notes{RootPlaces: rootPlaceIDs(roots)}, nil
}

type compiler struct {
	doc      *intent.Doc
	builder  *petri.Builder
	branchOf map[string]string // branch step id -> owning PARALLEL step id
}

func rootPlaceIDs(roots []string) []string {
	ids := make([]string, len(roots))
	for i, r := range roots {
		ids[i] = placeID(r, rolePre)
	}
	return ids
}

// rootSteps returns the ids of steps with no dependencies and that are
// not themselves fed directly by a PARALLEL fork.
func (c *compiler) rootSteps() []string {
	var roots []string
	for _, s := range c.doc.Steps {
		if len(s.Dependencies) == 0 {
			if _, isBranch := c.branchOf[s.ID]; isBranch {
				continue
			}
			roots = append(roots, s.ID)
		}
	}
	sort.Strings(roots)
	return roots
}
