// Package pipeline runs the full parse -> bounds -> optimize ->
// speculate -> lower sequence as one unit, so every entry point that
// needs "compile this source" (the CLI's build command, the batch
// worker pool, the conformance runner, and the watch server) shares one
// implementation instead of each re-deriving the stage order. The
// `bfc debug` command does not use it: it parses and optimizes on its
// own and never speculates or lowers.
package pipeline

import (
	"os"

	"github.com/llir/llvm/ir"

	"sentra/internal/bfir"
	"sentra/internal/bounds"
	"sentra/internal/codegen"
	bferrors "sentra/internal/errors"
	"sentra/internal/optimizer"
	"sentra/internal/speculate"
)

// Options controls which stages run, mirroring the original bfc's
// `-O`/`--opt` levels: 0 skips the peephole optimizer entirely, 1
// optimizes but does not speculate, 2 (the default) does both.
type Options struct {
	OptLevel   int
	StepBudget int
}

// DefaultOptions returns the settings `bfc` uses with no flags.
func DefaultOptions() Options {
	return Options{OptLevel: 2, StepBudget: speculate.DefaultStepBudget}
}

// Result holds every intermediate value a caller might want to report,
// cache, or render, at the point where the pipeline stopped.
type Result struct {
	SourceFile       string
	Source           string
	Parsed           []bfir.Instruction
	Optimized        []bfir.Instruction
	OptStats         optimizer.Stats
	HighestCellIndex int
	State            speculate.ExecutionState
	StepsUsed        int
	Residual         []bfir.Instruction
	Module           *ir.Module
}

// Compile reads sourceFile from disk and runs it through every stage.
func Compile(sourceFile string, opts Options) (*Result, error) {
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, bferrors.NewToolError("read", "could not read source file", err)
	}
	return CompileSource(sourceFile, string(data), opts)
}

// CompileSource runs the pipeline against in-memory source, used by
// callers (the build command, which also hashes the bytes for the
// build cache) that already have the bytes and don't want a second
// disk read.
func CompileSource(sourceFile, source string, opts Options) (*Result, error) {
	parsed, err := bfir.Parse(source)
	if err != nil {
		if pe, ok := err.(*bfir.ParseError); ok {
			return nil, bferrors.NewParseError(pe.Message, sourceFile, pe.Offset, source)
		}
		return nil, bferrors.NewParseError(err.Error(), sourceFile, 0, source)
	}

	result := &Result{
		SourceFile: sourceFile,
		Source:     source,
		Parsed:     parsed,
	}

	optimized := parsed
	var stats optimizer.Stats
	if opts.OptLevel >= 1 {
		optimized, stats = optimizer.OptimizeWithStats(parsed)
	}
	result.Optimized = optimized
	result.OptStats = stats
	result.HighestCellIndex = bounds.HighestCellIndex(optimized)

	var state speculate.ExecutionState
	var stepsUsed int
	if opts.OptLevel >= 2 {
		state, stepsUsed = speculate.ExecuteWithStepsUsed(optimized, opts.StepBudget)
	} else {
		state = speculate.ExecutionState{
			Cells: make([]bfir.Cell, result.HighestCellIndex+1),
		}
	}
	result.State = state
	result.StepsUsed = stepsUsed
	result.Residual = optimized[state.InstrPtr:]

	result.Module = codegen.Lower(sourceFile, result.Residual, state)

	return result, nil
}
