package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Validator.KBound != 200 {
		t.Errorf("Validator.KBound = %d, want 200", cfg.Validator.KBound)
	}
	if cfg.Executor.RetryBackoff != "exponential" {
		t.Errorf("Executor.RetryBackoff = %q, want exponential", cfg.Executor.RetryBackoff)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PETRIFLOW_VALIDATOR_K_BOUND", "42")
	t.Setenv("PETRIFLOW_EXECUTOR_RETRY_BACKOFF", "linear")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Validator.KBound != 42 {
		t.Errorf("Validator.KBound = %d, want 42", cfg.Validator.KBound)
	}
	if cfg.Executor.RetryBackoff != "linear" {
		t.Errorf("Executor.RetryBackoff = %q, want linear", cfg.Executor.RetryBackoff)
	}
}

func TestValidateRejectsUnknownBackoff(t *testing.T) {
	cfg := &Config{
		Validator: ValidatorDefaults{KBound: 1},
		Simulator: SimulatorDefaults{MaxSteps: 1},
		Executor:  ExecutorDefaults{MaxConcurrency: 1, RetryBackoff: "bogus"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() error = nil, want error for unknown backoff strategy")
	}
}
