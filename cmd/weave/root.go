package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd builds the weave command tree: run, compile, disasm, repl.
// Persistent flags are read by the subcommands that use them rather than
// parsed again per-command, matching a cobra app with a handful of
// independent verbs over a shared pipeline.
func rootCmd() *cobra.Command {
	var entry string
	var trace bool

	root := &cobra.Command{
		Use:           "weave",
		Short:         "weave is a small embeddable scripting language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&entry, "entry", "main", "entry function to invoke")
	root.PersistentFlags().BoolVar(&trace, "trace", false, "print disassembly before running")

	root.AddCommand(newRunCmd(&entry, &trace))
	root.AddCommand(newCompileCmd())
	root.AddCommand(newDisasmCmd())
	root.AddCommand(newReplCmd())
	return root
}
