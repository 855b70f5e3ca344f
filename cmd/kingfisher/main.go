// Command kingfisher is the scanner's CLI entry point: it wires the
// rule catalogue, source adapters, and scan orchestrator together
// behind the `scan` subcommand. Report formatting here is intentionally
// minimal; this just drives the pipeline and writes the record stream
// internal/report already knows how to build.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFatal)
	}
}

// exitFatal is distinct from the scan's own 0/200/205 vocabulary
// (orchestrator.ExitNoFindings/ExitFindingsNoActive/ExitFindingsActive)
// so a wrapper script can tell "scan crashed" apart from "scan found
// something".
const exitFatal = 1
