// Package ghactions adapts GitHub Actions workflow YAML into an
// intent.Doc: each job becomes an ACTION step, and a job's `needs:`
// list becomes that step's Dependencies. It is a deterministic
// structural transcoder, not the natural-language template matcher —
// dependency validation (missing job, circular needs) is left to
// grammar.Compile, which already walks the step dependency graph.
package ghactions

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/grammar"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

// Workflow is the subset of the GitHub Actions workflow schema this
// adapter understands: a name and a map of jobs keyed by job id.
type Workflow struct {
	Name string         `yaml:"name"`
	On   any            `yaml:"on,omitempty"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Job is one `jobs.<id>` entry.
type Job struct {
	Name   string   `yaml:"name,omitempty"`
	Needs  Needs    `yaml:"needs,omitempty"`
	RunsOn string   `yaml:"runs-on,omitempty"`
	Steps  []RunStep `yaml:"steps,omitempty"`
}

// RunStep is one `jobs.<id>.steps[]` entry. Steps are never compiled
// individually — a job is one ACTION step regardless of how many shell
// steps it runs; jobActionRef derives that step's actionRef from them.
type RunStep struct {
	Name string `yaml:"name,omitempty"`
	Run  string `yaml:"run,omitempty"`
	Uses string `yaml:"uses,omitempty"`
}

// Needs normalizes `needs:`, which YAML allows as either a bare string
// or a list of strings, into a slice.
type Needs []string

func (n *Needs) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*n = Needs{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*n = Needs(ss)
		return nil
	default:
		return fmt.Errorf("ghactions: needs must be a string or list of strings")
	}
}

// ToIntentDoc parses GitHub Actions workflow YAML and converts it to
// an intent.Doc. It does not itself reject a dangling or circular
// `needs:` reference — that surfaces as CONSTRUCTION_CONFLICT from
// grammar.Compile, which already walks the dependency graph once per
// document; duplicating the check here would just be two places that
// can disagree.
func ToIntentDoc(data []byte) (*intent.Doc, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, apierr.Wrap(apierr.CodeParseError, "invalid GitHub Actions workflow YAML", err)
	}
	if len(wf.Jobs) == 0 {
		return nil, apierr.New(apierr.CodeParseError, "workflow has no jobs")
	}

	doc := &intent.Doc{
		Name:          wf.Name,
		SchemaVersion: "1.0",
		Steps:         make([]intent.Step, 0, len(wf.Jobs)),
	}

	// Go map iteration order is randomized; sort job ids so repeated
	// parses of the same file produce the same step order.
	ids := make([]string, 0, len(wf.Jobs))
	for id := range wf.Jobs {
		ids = append(ids, id)
	}
	sortStrings(ids)

	for _, id := range ids {
		job := wf.Jobs[id]
		doc.Steps = append(doc.Steps, intent.Step{
			ID:           id,
			Kind:         intent.StepAction,
			Description:  jobDescription(id, job),
			Dependencies: append([]string{}, job.Needs...),
			ActionRef:    jobActionRef(job),
		})
	}
	return doc, nil
}

func jobDescription(id string, job Job) string {
	if job.Name != "" {
		return job.Name
	}
	if len(job.Steps) == 1 && job.Steps[0].Name != "" {
		return job.Steps[0].Name
	}
	return id
}

// jobActionRef joins a job's `run:` steps into a single shell command,
// `&&`-chained in declared order; `uses:` steps invoke a third-party
// action this adapter can't execute locally and are skipped. A job
// with no `run:` steps gets no actionRef.
func jobActionRef(job Job) string {
	var cmds []string
	for _, step := range job.Steps {
		if step.Run != "" {
			cmds = append(cmds, step.Run)
		}
	}
	return strings.Join(cmds, " && ")
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// Compile parses GitHub Actions workflow YAML and compiles it straight
// through to a Petri net, surfacing any CONSTRUCTION_CONFLICT
// grammar.Compile raises (missing or circular `needs:`) to the caller.
func Compile(data []byte) (*petri.PetriNet, *grammar.Notes, error) {
	doc, err := ToIntentDoc(data)
	if err != nil {
		return nil, nil, err
	}
	return grammar.Compile(doc)
}
