// Command petriflow is a CLI front end for the build/validate/simulate/
// project/execute pipeline: intent document or GitHub Actions workflow
// in, compiled Petri net, validation verdict, simulation trace, DAG
// projection, or executor run out.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "build":
		err = build(args)
	case "validate":
		err = validateCmd(args)
	case "simulate":
		err = simulateCmd(args)
	case "dag":
		err = dag(args)
	case "run":
		err = run(args)
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Println("petriflow version 1.0.0")
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`petriflow - compile, validate, simulate and execute workflow specs as Petri nets

Usage:
  petriflow <command> [options]

Commands:
  build      Compile an intent document (or --ghactions workflow YAML) to a Petri net
  validate   Run bounded reachability validation over a compiled net
  simulate   Fire a net's transitions under a firing policy, producing a trace
  dag        Project a net's transition graph to an executable DAG
  run        Execute a projected DAG against a local demo dispatcher
  help       Show this help message
  version    Show version information

Examples:
  petriflow build intent.json --output net.json
  petriflow build .github/workflows/ci.yml --ghactions --output net.json
  petriflow validate net.json --k-bound 500
  petriflow simulate net.json --mode RANDOM --seed 42
  petriflow dag net.json --output dag.json
  petriflow run net.json dag.json

For command-specific help, run:
  petriflow <command> --help`)
}
