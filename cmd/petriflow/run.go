package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/executor"
	"github.com/petriflow/core/guard"
	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/project"
)

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	maxConcurrency := fs.Int("max-concurrency", 0, "Cap on concurrently dispatched nodes (0 = one per node)")
	failFast := fs.Bool("fail-fast", true, "Cancel all pending nodes on the first unrecoverable failure")
	outputJSON := fs.Bool("json", false, "Output the run result as JSON")
	outputFile := fs.String("output", "", "Write JSON run result to file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: petriflow run <net.json> <dag.json> [options]

Execute a projected DAG. Each node's actionRef, if set, is run as a
shell command (its exit status becomes SUCCEEDED/FAILED); nodes with
no actionRef are dispatched against a no-op stub that always succeeds.
This is a local demo dispatcher only — a real deployment wires its own
Dispatch against whatever executes actions (see SPEC_FULL.md §5/§6).

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("net file and dag file required")
	}

	// fs.Arg(0), the compiled net, isn't needed once the DAG is
	// projected; it's required positionally so `run` mirrors `dag`'s
	// <net.json> <dag.json> pairing a caller already has on disk.
	dagData, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("read dag: %w", err)
	}
	var d project.DAG
	if err := json.Unmarshal(dagData, &d); err != nil {
		return apierr.Wrap(apierr.CodeParseError, "invalid DAG JSON", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	actionRefs := make(map[string]string, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ActionRef != "" {
			actionRefs[n.TransitionID] = n.ActionRef
		}
	}

	cfg := executor.DefaultConfig(len(d.Nodes))
	cfg.FailFast = *failFast
	cfg.NodeActionRef = actionRefs
	if *maxConcurrency > 0 {
		cfg.MaxConcurrency = *maxConcurrency
	}

	eval, err := guard.New()
	if err != nil {
		return fmt.Errorf("init guard evaluator: %w", err)
	}

	dispatch := shellDispatch(log)
	obs := logging.Observability{Log: logging.New("info", "console"), Metrics: logging.NoOpMetrics}

	result := executor.Execute(context.Background(), &d, cfg, dispatch, eval, obs)

	log.Info().
		Int("succeeded", result.Summary.Succeeded).
		Int("failed", result.Summary.Failed).
		Int("skipped", result.Summary.Skipped).
		Int("cancelled", result.Summary.Cancelled).
		Int64("wallTimeMs", result.Summary.WallTimeMS).
		Msg("run complete")

	if *outputJSON || *outputFile != "" {
		return writeJSON(result, *outputFile)
	}
	printRun(result)
	return nil
}

// shellDispatch runs a node's actionRef as a shell command; nodes with
// no actionRef succeed immediately with no side effect.
func shellDispatch(log zerolog.Logger) executor.Dispatch {
	return func(ctx context.Context, nodeID, actionRef string, inputs map[string]any) (executor.NodeResult, error) {
		if strings.TrimSpace(actionRef) == "" {
			return executor.NodeResult{Status: executor.NodeSucceeded}, nil
		}
		log.Debug().Str("node", nodeID).Str("actionRef", actionRef).Msg("dispatching")

		cmd := exec.CommandContext(ctx, "sh", "-c", actionRef)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return executor.NodeResult{
				Status:       executor.NodeFailed,
				ErrorMessage: fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(output))),
			}, nil
		}
		return executor.NodeResult{
			Status:  executor.NodeSucceeded,
			Outputs: map[string]any{"stdout": string(output)},
		}, nil
	}
}

func printRun(r *executor.Run) {
	fmt.Printf("Run %s\n", r.ID)
	for _, nodeID := range sortedKeys(r.Results) {
		res := r.Results[nodeID]
		fmt.Printf("  %-20s %-10s attempts=%d\n", nodeID, res.Status, res.Attempts)
		if res.ErrorMessage != "" {
			fmt.Printf("  %-20s   %s\n", "", res.ErrorMessage)
		}
	}
	fmt.Printf("Summary: %d succeeded, %d failed, %d skipped, %d cancelled (%dms)\n",
		r.Summary.Succeeded, r.Summary.Failed, r.Summary.Skipped, r.Summary.Cancelled, r.Summary.WallTimeMS)
}

func sortedKeys(m map[string]executor.NodeResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
