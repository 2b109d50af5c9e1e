// Package api defines the wire contract types of §6/§7: the request
// and response DTOs the core's components expose to an external
// transport layer, and the error envelope every failure rides in. No
// HTTP server, authentication, or /health endpoint lives here — those
// are an external collaborator's job (spec §1 Non-goals).
package api

import (
	"encoding/json"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/executor"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/project"
	"github.com/petriflow/core/simulate"
	"github.com/petriflow/core/validate"
)

// SchemaVersion is stamped on every response envelope.
const SchemaVersion = "1.0"

// BuildRequest carries an intent document to POST /build.
type BuildRequest struct {
	SchemaVersion string     `json:"schemaVersion"`
	Doc           intent.Doc `json:"doc"`
}

// BuildResponse returns the compiled net plus any build notes.
type BuildResponse struct {
	SchemaVersion string          `json:"schemaVersion"`
	Net           json.RawMessage `json:"net"` // json.Marshal(*petri.PetriNet) output
	RootPlaces    []string        `json:"rootPlaces"`
}

// ValidateRequest carries a net plus validator config to POST /validate.
type ValidateRequest struct {
	SchemaVersion string          `json:"schemaVersion"`
	Net           json.RawMessage `json:"net"`
	Config        validate.Config `json:"config"`
}

// ValidateResponse wraps the verdict.
type ValidateResponse struct {
	SchemaVersion string           `json:"schemaVersion"`
	Verdict       validate.Verdict `json:"verdict"`
}

// SimulateRequest carries a net plus simulator config to POST /simulate.
type SimulateRequest struct {
	SchemaVersion string          `json:"schemaVersion"`
	Net           json.RawMessage `json:"net"`
	Config        simulate.Config `json:"config"`
}

// SimulateResponse wraps the simulation result.
type SimulateResponse struct {
	SchemaVersion string          `json:"schemaVersion"`
	Result        simulate.Result `json:"result"`
}

// DAGRequest carries a net to POST /dag.
type DAGRequest struct {
	SchemaVersion string          `json:"schemaVersion"`
	Net           json.RawMessage `json:"net"`
}

// DAGResponse wraps the projected DAG.
type DAGResponse struct {
	SchemaVersion string      `json:"schemaVersion"`
	DAG           project.DAG `json:"dag"`
}

// ErrorEnvelope is the uniform failure shape: {schemaVersion,
// error:{code,message,details}}.
type ErrorEnvelope struct {
	SchemaVersion string               `json:"schemaVersion"`
	Error         apierr.EnvelopeError `json:"error"`
}

// NewErrorEnvelope wraps err (ideally an *apierr.Error) into the wire shape.
func NewErrorEnvelope(err error) ErrorEnvelope {
	if ae, ok := apierr.As(err); ok {
		return ErrorEnvelope{SchemaVersion: SchemaVersion, Error: ae.ToEnvelope(SchemaVersion).Error}
	}
	return ErrorEnvelope{SchemaVersion: SchemaVersion, Error: apierr.EnvelopeError{
		Code: apierr.CodeEngineError, Message: err.Error(),
	}}
}

// StatusCode maps an error/verdict outcome to the §6 HTTP status table.
// Transport layers that don't use HTTP status codes can ignore this;
// it exists purely as a mapping table per spec, not a transport dependency.
func StatusCode(err error, inconclusive bool) int {
	if err == nil && !inconclusive {
		return 200
	}
	if inconclusive {
		return 422
	}
	ae, ok := apierr.As(err)
	if !ok {
		return 500
	}
	switch ae.Code {
	case apierr.CodeInvalidInput, apierr.CodeParseError:
		return 400
	case apierr.CodeConstructionConflict:
		return 409
	case apierr.CodeValidationInconclusive:
		return 422
	default:
		return 500
	}
}

// Dispatch is the action dispatcher contract of §6,
// `dispatch(nodeId, actionRef, inputs) -> future<NodeResult>`, aliased
// from executor so a transport package can reference one name.
type Dispatch = executor.Dispatch
