package intent

import (
	"encoding/json"
	"fmt"

	"github.com/petriflow/core/apierr"
)

// wireStep mirrors the §6 intent input schema:
// {id, kind, description, dependencies[], guard?, timeoutMs?, metadata{}}.
// Kind-specific fragments ride in the typed sub-objects instead of a
// free-form metadata map.
type wireStep struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Guard        string   `json:"guard,omitempty"`
	TimeoutMS    int      `json:"timeoutMs,omitempty"`

	Choice   *wireChoiceSpec   `json:"choice,omitempty"`
	Parallel *wireParallelSpec `json:"parallel,omitempty"`
	Sync     *wireSyncSpec     `json:"sync,omitempty"`
	Loop     *wireLoopSpec     `json:"loop,omitempty"`
	Error    *wireErrorSpec    `json:"error,omitempty"`
	Timer    *wireTimerSpec    `json:"timer,omitempty"`
}

type wireChoicePath struct {
	ID    string `json:"id"`
	Guard string `json:"guard"`
}

type wireChoiceSpec struct {
	Paths []wireChoicePath `json:"paths"`
}

type wireParallelSpec struct {
	Branches []string `json:"branches"`
}

type wireSyncSpec struct {
	JoinsStepID string `json:"joinsStepId"`
}

type wireLoopSpec struct {
	ContinueGuard string `json:"continueGuard"`
	ExitStepID    string `json:"exitStepId"`
}

type wireErrorSpec struct {
	CompensatesStepID string   `json:"compensatesStepId"`
	Actions           []string `json:"actions"`
}

type wireTimerSpec struct {
	DelayMS int `json:"delayMs"`
}

type wireDoc struct {
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	OriginalPrompt string     `json:"originalPrompt,omitempty"`
	SchemaVersion  string     `json:"schemaVersion,omitempty"`
	Steps          []wireStep `json:"steps"`
}

// FromJSON decodes an intent document, rejecting unknown step kinds per
// §6 ("Unknown kinds ⇒ parse error").
func FromJSON(data []byte) (*Doc, error) {
	var w wireDoc
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, apierr.Wrap(apierr.CodeParseError, "decoding intent document", err)
	}

	doc := &Doc{
		Name:           w.Name,
		Description:    w.Description,
		OriginalPrompt: w.OriginalPrompt,
		SchemaVersion:  w.SchemaVersion,
	}

	for _, ws := range w.Steps {
		kind := StepKind(ws.Kind)
		switch kind {
		case StepAction, StepChoice, StepParallel, StepSync, StepLoop, StepError, StepTimer:
		default:
			return nil, apierr.New(apierr.CodeParseError,
				fmt.Sprintf("step %q has unrecognized kind %q", ws.ID, ws.Kind))
		}

		step := Step{
			ID:           ws.ID,
			Kind:         kind,
			Description:  ws.Description,
			Dependencies: ws.Dependencies,
			Guard:        ws.Guard,
			TimeoutMS:    ws.TimeoutMS,
		}
		if ws.Choice != nil {
			paths := make([]ChoicePath, len(ws.Choice.Paths))
			for i, p := range ws.Choice.Paths {
				paths[i] = ChoicePath{ID: p.ID, Guard: p.Guard}
			}
			step.Choice = &ChoiceSpec{Paths: paths}
		}
		if ws.Parallel != nil {
			step.Parallel = &ParallelSpec{Branches: ws.Parallel.Branches}
		}
		if ws.Sync != nil {
			step.Sync = &SyncSpec{JoinsStepID: ws.Sync.JoinsStepID}
		}
		if ws.Loop != nil {
			step.Loop = &LoopSpec{ContinueGuard: ws.Loop.ContinueGuard, ExitStepID: ws.Loop.ExitStepID}
		}
		if ws.Error != nil {
			step.Error = &ErrorSpec{CompensatesStepID: ws.Error.CompensatesStepID, Actions: ws.Error.Actions}
		}
		if ws.Timer != nil {
			step.Timer = &TimerSpec{DelayMS: ws.Timer.DelayMS}
		}
		doc.Steps = append(doc.Steps, step)
	}

	return doc, nil
}

// ToJSON encodes the document back to wire form.
func ToJSON(doc *Doc) ([]byte, error) {
	w := wireDoc{
		Name:           doc.Name,
		Description:    doc.Description,
		OriginalPrompt: doc.OriginalPrompt,
		SchemaVersion:  doc.SchemaVersion,
	}
	for _, s := range doc.Steps {
		ws := wireStep{
			ID:           s.ID,
			Kind:         string(s.Kind),
			Description:  s.Description,
			Dependencies: s.Dependencies,
			Guard:        s.Guard,
			TimeoutMS:    s.TimeoutMS,
		}
		if s.Choice != nil {
			paths := make([]wireChoicePath, len(s.Choice.Paths))
			for i, p := range s.Choice.Paths {
				paths[i] = wireChoicePath{ID: p.ID, Guard: p.Guard}
			}
			ws.Choice = &wireChoiceSpec{Paths: paths}
		}
		if s.Parallel != nil {
			ws.Parallel = &wireParallelSpec{Branches: s.Parallel.Branches}
		}
		if s.Sync != nil {
			ws.Sync = &wireSyncSpec{JoinsStepID: s.Sync.JoinsStepID}
		}
		if s.Loop != nil {
			ws.Loop = &wireLoopSpec{ContinueGuard: s.Loop.ContinueGuard, ExitStepID: s.Loop.ExitStepID}
		}
		if s.Error != nil {
			ws.Error = &wireErrorSpec{CompensatesStepID: s.Error.CompensatesStepID, Actions: s.Error.Actions}
		}
		if s.Timer != nil {
			ws.Timer = &wireTimerSpec{DelayMS: s.Timer.DelayMS}
		}
		w.Steps = append(w.Steps, ws)
	}
	return json.MarshalIndent(w, "", "  ")
}
