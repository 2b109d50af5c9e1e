package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petriflow/core/guard"
	"github.com/petriflow/core/logging"
	"github.com/petriflow/core/simulate"
)

func simulateCmd(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	mode := fs.String("mode", "DETERMINISTIC", "Firing policy: DETERMINISTIC, RANDOM or INTERACTIVE")
	seed := fs.Int64("seed", 0, "Random seed, required when --mode RANDOM")
	maxSteps := fs.Int("max-steps", 1000, "Maximum transitions to fire before MAX_STEPS_REACHED")
	stepDelayMS := fs.Int("step-delay-ms", 0, "Pause between steps, in milliseconds")
	outputJSON := fs.Bool("json", false, "Output the trace as JSON")
	outputFile := fs.String("output", "", "Write JSON result to file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: petriflow simulate <net.json> [options]

Fire a net's enabled transitions under a firing policy until a terminal
marking, a deadlock, the step budget, or cancellation stops the run.

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

	cfg := simulate.DefaultConfig()
	cfg.Mode = simulate.Mode(*mode)
	cfg.Seed = *seed
	cfg.MaxSteps = *maxSteps
	cfg.StepDelayMS = *stepDelayMS

	var chooser simulate.Chooser
	if cfg.Mode == simulate.ModeInteractive {
		chooser = stdinChooser{reader: bufio.NewReader(os.Stdin)}
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	result := simulate.Run(context.Background(), net, eval, cfg, chooser, logging.NoOpObservability())

	log.Info().
		Str("status", string(result.Status)).
		Int("steps", len(result.Trace)).
		Msg("simulation complete")

	if *outputJSON || *outputFile != "" {
		return writeJSON(result, *outputFile)
	}
	printTrace(result)
	return nil
}

func printTrace(r simulate.Result) {
	fmt.Printf("Status: %s\n", r.Status)
	if r.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", r.ErrorMessage)
	}
	for _, ev := range r.Trace {
		fmt.Printf("  [%d] %s (+%dms)\n", ev.StepIndex, ev.TransitionID, ev.TimestampOffsetMS)
	}
	fmt.Printf("Final marking: %v\n", r.FinalMarking)
}

// stdinChooser implements simulate.Chooser by prompting the operator on
// the terminal, for `simulate --mode INTERACTIVE`.
type stdinChooser struct {
	reader *bufio.Reader
}

func (c stdinChooser) ChooseFire(ctx context.Context, enabled []string) (string, error) {
	fmt.Fprintf(os.Stderr, "enabled: %s\nfire> ", strings.Join(enabled, ", "))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read choice: %w", err)
	}
	return strings.TrimSpace(line), nil
}
