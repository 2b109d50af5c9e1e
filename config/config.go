// Package config loads process configuration from environment variables
// (prefixed PETRIFLOW_), falling back to the defaults the pipeline's
// spec states for its validator, simulator and executor components.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds all process configuration.
type Config struct {
	Service   ServiceConfig
	Validator ValidatorDefaults
	Simulator SimulatorDefaults
	Executor  ExecutorDefaults
}

// ServiceConfig controls logging output.
type ServiceConfig struct {
	LogLevel  string
	LogFormat string
}

// ValidatorDefaults bound the validator's bounded BFS exploration (§C3).
type ValidatorDefaults struct {
	KBound      int
	MaxTimeMS   int
	CapacityCap int
}

// SimulatorDefaults bound a simulation run (§C4).
type SimulatorDefaults struct {
	MaxSteps     int
	StepDelayMS  int
}

// ExecutorDefaults bound the DAG executor's concurrency and retry
// behavior (§C6).
type ExecutorDefaults struct {
	MaxConcurrency   int
	RetryMaxAttempts int
	RetryInitialMS   int
	RetryMaxMS       int
	RetryBackoff     string // "constant", "linear", "exponential"
}

// Load reads PETRIFLOW_*-prefixed environment variables, falling back
// to spec-stated defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			LogLevel:  getEnv("PETRIFLOW_LOG_LEVEL", "info"),
			LogFormat: getEnv("PETRIFLOW_LOG_FORMAT", "console"),
		},
		Validator: ValidatorDefaults{
			KBound:      getEnvInt("PETRIFLOW_VALIDATOR_K_BOUND", 200),
			MaxTimeMS:   getEnvInt("PETRIFLOW_VALIDATOR_MAX_TIME_MS", 30000),
			CapacityCap: getEnvInt("PETRIFLOW_VALIDATOR_CAPACITY_CAP", 1000),
		},
		Simulator: SimulatorDefaults{
			MaxSteps:    getEnvInt("PETRIFLOW_SIMULATOR_MAX_STEPS", 1000),
			StepDelayMS: getEnvInt("PETRIFLOW_SIMULATOR_STEP_DELAY_MS", 0),
		},
		Executor: ExecutorDefaults{
			MaxConcurrency:   getEnvInt("PETRIFLOW_EXECUTOR_MAX_CONCURRENCY", runtime.NumCPU()),
			RetryMaxAttempts: getEnvInt("PETRIFLOW_EXECUTOR_RETRY_MAX_ATTEMPTS", 3),
			RetryInitialMS:   getEnvInt("PETRIFLOW_EXECUTOR_RETRY_INITIAL_MS", 1000),
			RetryMaxMS:       getEnvInt("PETRIFLOW_EXECUTOR_RETRY_MAX_MS", 30000),
			RetryBackoff:     getEnv("PETRIFLOW_EXECUTOR_RETRY_BACKOFF", "exponential"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations that can never run correctly.
func (c *Config) Validate() error {
	if c.Validator.KBound <= 0 {
		return fmt.Errorf("config: validator k_bound must be > 0, got %d", c.Validator.KBound)
	}
	if c.Simulator.MaxSteps <= 0 {
		return fmt.Errorf("config: simulator max_steps must be > 0, got %d", c.Simulator.MaxSteps)
	}
	if c.Executor.MaxConcurrency <= 0 {
		return fmt.Errorf("config: executor max_concurrency must be > 0, got %d", c.Executor.MaxConcurrency)
	}
	switch c.Executor.RetryBackoff {
	case "constant", "linear", "exponential":
	default:
		return fmt.Errorf("config: unknown executor retry backoff %q", c.Executor.RetryBackoff)
	}
	return nil
}

// RetryInitialDelay returns the executor's configured initial retry delay.
func (c *Config) RetryInitialDelay() time.Duration {
	return time.Duration(c.Executor.RetryInitialMS) * time.Millisecond
}

// RetryMaxDelay returns the executor's configured retry delay ceiling.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Executor.RetryMaxMS) * time.Millisecond
}

// ValidatorMaxTime returns the validator's wall-clock exploration budget.
func (c *Config) ValidatorMaxTime() time.Duration {
	return time.Duration(c.Validator.MaxTimeMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
