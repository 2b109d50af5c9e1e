package apierr

import (
	"errors"
	"testing"
)

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeBuildError, "failed to build net", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestAsExtractsStructuredError(t *testing.T) {
	wrapped := fmtWrap(New(CodeInvalidInput, "bad input"))
	e, ok := As(wrapped)
	if !ok {
		t.Fatal("As() ok = false, want true")
	}
	if e.Code != CodeInvalidInput {
		t.Errorf("Code = %q, want %q", e.Code, CodeInvalidInput)
	}
}

func fmtWrap(e *Error) error {
	return errors.Join(e)
}

func TestToEnvelopeShape(t *testing.T) {
	err := New(CodeValidationInconclusive, "k-bound exhausted").WithDetails(map[string]any{"kBound": 10000})
	env := err.ToEnvelope("1.0")
	if env.SchemaVersion != "1.0" {
		t.Errorf("SchemaVersion = %q, want 1.0", env.SchemaVersion)
	}
	if env.Error.Code != CodeValidationInconclusive {
		t.Errorf("Error.Code = %q, want %q", env.Error.Code, CodeValidationInconclusive)
	}
	if env.Error.Details["kBound"] != 10000 {
		t.Errorf("Error.Details[kBound] = %v, want 10000", env.Error.Details["kBound"])
	}
}
