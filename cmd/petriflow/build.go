package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/petriflow/core/apierr"
	"github.com/petriflow/core/ghactions"
	"github.com/petriflow/core/grammar"
	"github.com/petriflow/core/intent"
	"github.com/petriflow/core/petri"
)

func build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	outputFile := fs.String("output", "", "Write the compiled net JSON to file instead of stdout")
	fromGHActions := fs.Bool("ghactions", false, "Treat the input file as a GitHub Actions workflow YAML")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: petriflow build <doc.json|workflow.yml> [options]

Compile an intent document to a Petri net. With --ghactions, the input
is instead a GitHub Actions workflow YAML whose jobs.<id>.needs become
step dependencies.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("input file required")
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var net *petri.PetriNet
	if *fromGHActions {
		net, _, err = ghactions.Compile(data)
	} else {
		var doc intent.Doc
		if unmarshalErr := json.Unmarshal(data, &doc); unmarshalErr != nil {
			return apierr.Wrap(apierr.CodeParseError, "invalid intent document JSON", unmarshalErr)
		}
		net, _, err = grammar.Compile(&doc)
	}
	if err != nil {
		return err
	}

	log.Info().
		Int("places", len(net.Places)).
		Int("transitions", len(net.Transitions)).
		Int("arcs", len(net.Arcs)).
		Msg("compiled net")

	return writeJSON(net, *outputFile)
}

func writeJSON(v any, outputFile string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Written to %s\n", outputFile)
	return nil
}

func readNet(path string) (*petri.PetriNet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read net: %w", err)
	}
	var net petri.PetriNet
	if err := json.Unmarshal(data, &net); err != nil {
		return nil, apierr.Wrap(apierr.CodeParseError, "invalid compiled net JSON", err)
	}
	return &net, nil
}
