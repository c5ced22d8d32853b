package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kristofer/weave/pkg/unit"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Print the compiled instruction stream for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cu, _, err := compileFile(args[0])
			if err != nil {
				return err
			}
			printDisassembly(cu)
			return nil
		},
	}
}

// printDisassembly colorizes CompilationUnit.Disassemble()'s output:
// function headers in bold, every instruction line in cyan — colorized
// disassembly is the one place fatih/color earns its keep over a bare
// fmt.Println loop.
func printDisassembly(cu *unit.CompilationUnit) {
	fnHeader := color.New(color.Bold)
	inst := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimRight(cu.Disassemble(), "\n"), "\n") {
		if strings.HasPrefix(line, "fn ") {
			fnHeader.Println(line)
			continue
		}
		inst.Println(line)
	}
	fmt.Println()
}
