package main

import (
	"fmt"
	"os"

	"github.com/kristofer/weave/pkg/compiler"
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/parser"
	"github.com/kristofer/weave/pkg/unit"
)

// compileFile reads path, parses it, and compiles it against a fresh
// prelude Context — the same source -> AST -> CompilationUnit pipeline
// every subcommand drives, just stopped at a different point.
func compileFile(path string) (*unit.CompilationUnit, *context.Context, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return compileSource(string(src))
}

func compileSource(src string) (*unit.CompilationUnit, *context.Context, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse error: %w", err)
	}
	ctx := context.New()
	cu, err := compiler.Compile(prog, ctx)
	if err != nil {
		return nil, nil, err
	}
	return cu, ctx, nil
}
