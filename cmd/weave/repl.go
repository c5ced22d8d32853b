package main

import (
	stdctx "context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kristofer/weave/pkg/host"
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/vm"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

// runRepl reads one statement sequence at a time, wraps it in a synthetic
// `fn main() { ... }`, and runs it to completion against a fresh Context
// every iteration — the core has no notion of a REPL session threading
// locals across inputs, so each entry is its own self-contained program,
// the same simplification every toy-language REPL in this corpus makes.
func runRepl() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "weave> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	prompt := color.New(color.FgGreen)
	var buf strings.Builder
	depth := 0

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			depth = 0
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		buf.WriteString(line)
		buf.WriteString("\n")
		if depth > 0 {
			rl.SetPrompt(prompt.Sprint("....> "))
			continue
		}
		rl.SetPrompt(prompt.Sprint("weave> "))

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}
		evalRepl(src)
	}
}

func evalRepl(src string) {
	cu, ctx, err := compileSource("fn main() {\n" + src + "\n}")
	if err != nil {
		fmt.Println(err)
		return
	}
	m := vm.New(cu, ctx)
	task, err := m.Call(unit.Item{"main"}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	rv, err := host.New().Run(stdctx.Background(), host.Track(task))
	if err != nil {
		reportRuntimeError(err)
		return
	}
	fmt.Println(rv.Display())
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.weave_history"
}
