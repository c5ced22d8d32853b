package main

import (
	stdctx "context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kristofer/weave/pkg/host"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/vm"
)

func newRunCmd(entry *string, trace *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and run a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], *entry, *trace)
		},
	}
}

func runFile(path, entry string, trace bool) error {
	cu, ctx, err := compileFile(path)
	if err != nil {
		return err
	}
	if trace {
		color.New(color.FgCyan).Fprintln(os.Stdout, "; disassembly")
		printDisassembly(cu)
	}

	m := vm.New(cu, ctx)
	task, err := m.Call(unit.Item{entry}, nil)
	if err != nil {
		return err
	}

	e := host.New()
	h := host.Track(task)
	rv, err := e.Run(stdctx.Background(), h)
	if err != nil {
		reportRuntimeError(err)
		return errSilent{}
	}
	fmt.Println(rv.Display())
	return nil
}

// reportRuntimeError formats a vm.RuntimeError the way a CLI user wants
// it: the failure kind in red, the stack trace dimmed underneath.
func reportRuntimeError(err error) {
	rerr, ok := err.(*vm.RuntimeError)
	if !ok {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "%s: ", rerr.Kind)
	fmt.Fprintln(os.Stderr, rerr.Message)
	for i := len(rerr.Stack) - 1; i >= 0; i-- {
		f := rerr.Stack[i]
		color.New(color.Faint).Fprintf(os.Stderr, "  at %s (line %d)\n", f.Name, f.Line)
	}
}

// errSilent signals that the failure has already been printed by
// reportRuntimeError, so main's top-level handler exits nonzero without
// printing anything a second time.
type errSilent struct{}

func (errSilent) Error() string { return "" }
