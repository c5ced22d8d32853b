package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file and report success or a compile error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cu, _, err := compileFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("compiled ok: %d instruction(s), %d function(s)\n", cu.Len(), len(cu.Functions()))
			return nil
		},
	}
}
