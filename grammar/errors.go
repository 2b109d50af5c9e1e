package grammar

import (
	"fmt"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/intent"
)

// checkDuplicateIDs rejects an intent document with two steps sharing
// an id.
func checkDuplicateIDs(doc *intent.Doc) error {
	seen := make(map[string]bool, len(doc.Steps))
	for _, s := range doc.Steps {
		if seen[s.ID] {
			return apierr.New(apierr.CodeConstructionConflict, fmt.Sprintf("duplicate step id %q", s.ID))
		}
		seen[s.ID] = true
	}
	return nil
}

// checkDependencyCycles rejects a cycle in the declared step dependency
// graph. LOOP steps are expressed as a guarded back-arc at the net
// level (see compileLoop), not as a step dependency, so they never
// participate here.
func checkDependencyCycles(doc *intent.Doc) error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(doc.Steps))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case black:
			return nil
		case grey:
			cycle := append(append([]string{}, path...), id)
			return apierr.New(apierr.CodeConstructionConflict,
				fmt.Sprintf("step dependency cycle detected: %v", cycle))
		}
		color[id] = grey
		path = append(path, id)

		step := doc.StepByID(id)
		if step != nil {
			for _, dep := range step.Dependencies {
				if doc.StepByID(dep) == nil {
					return apierr.New(apierr.CodeConstructionConflict,
						fmt.Sprintf("step %q depends on undeclared step %q", id, dep))
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, s := range doc.Steps {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}
