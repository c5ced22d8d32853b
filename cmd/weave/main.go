// Command weave is the reference CLI driver for the weave scripting
// core: it turns source files into CompilationUnits and runs them,
// prints disassembly listings, and offers a line-editing REPL. None of
// this is part of the core (spec.md §1 places the CLI, diagnostics
// rendering and lexer/parser mechanics outside it); it exists so the
// core is reachable end to end from a terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
