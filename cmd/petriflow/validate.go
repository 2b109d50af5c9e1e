package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/petriflow/core/guard"
	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/validate"
)

func validateCmd(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	kBound := fs.Int("k-bound", 200, "Maximum markings to explore before INCONCLUSIVE")
	maxTimeMS := fs.Int("max-time-ms", 30000, "Wall-clock exploration budget in milliseconds")
	outputJSON := fs.Bool("json", false, "Output the verdict as JSON")
	outputFile := fs.String("output", "", "Write JSON verdict to file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: petriflow validate <net.json> [options]

Run bounded reachability validation: structural soundness, deadlock
freedom, reachability of a terminal marking, transition liveness and
k-boundedness.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("net file required")
	}

	net, err := readNet(fs.Arg(0))
	if err != nil {
		return err
	}

	eval, err := guard.New()
	if err != nil {
		return fmt.Errorf("init guard evaluator: %w", err)
	}

	cfg := validate.DefaultConfig()
	cfg.KBound = *kBound
	cfg.MaxTime = time.Duration(*maxTimeMS) * time.Millisecond

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	verdict := validate.Explore(net, eval, cfg, logging.NoOpObservability())

	log.Info().Str("status", string(verdict.Status)).Msg("validation complete")

	if *outputJSON || *outputFile != "" {
		if err := writeJSON(verdict, *outputFile); err != nil {
			return err
		}
	} else {
		printVerdict(verdict)
	}

	if verdict.Status != validate.StatusPass {
		os.Exit(1)
	}
	return nil
}

func printVerdict(v validate.Verdict) {
	fmt.Printf("Status: %s\n", v.Status)
	if v.Status == validate.StatusFail {
		fmt.Printf("  Kind: %s\n", v.FailKind)
		fmt.Printf("  Diagnostic: %s\n", v.Diagnostic)
		if len(v.Witness) > 0 {
			fmt.Printf("  Witness: %v\n", v.Witness)
		}
	}
	if v.Status == validate.StatusInconclusive {
		fmt.Printf("  Reason: %s\n", v.InconclusiveReason)
	}
	if len(v.DeadTransitions) > 0 {
		fmt.Printf("  Dead transitions: %v\n", v.DeadTransitions)
		if len(v.ConfirmedDead) > 0 {
			fmt.Printf("  Confirmed dead: %v\n", v.ConfirmedDead)
		}
	}
	fmt.Printf("  States explored: %d\n", v.Stats.StatesExplored)
}
