// Package commands implements the bfc subcommands, dispatched from
// cmd/bfc/main.go the way the teacher's cmd/sentra/commands package is
// dispatched from its main.go.
package commands

import (
	"fmt"
	"strconv"

	"sentra/internal/pipeline"
)

// compileFlags holds the flags shared by build, batch, and watch.
type compileFlags struct {
	optLevel     int
	llvmOpt      int
	dumpIR       bool
	dumpLLVM     bool
	cacheDSN     string
	noCache      bool
	reportFormat string
	output       string
	serveAddr    string
	input        string
}

func defaultCompileFlags() compileFlags {
	return compileFlags{optLevel: 2, llvmOpt: 3}
}

// parseFlags scans args for known flags, returning the remaining
// positional arguments in order.
func parseFlags(args []string) ([]string, compileFlags, error) {
	flags := defaultCompileFlags()
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-O", "--opt":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, flags, fmt.Errorf("%s: invalid level %q", arg, args[i])
			}
			flags.optLevel = n

		case "--llvm-opt":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, flags, fmt.Errorf("%s: invalid level %q", arg, args[i])
			}
			flags.llvmOpt = n

		case "--dump-ir":
			flags.dumpIR = true

		case "--dump-llvm":
			flags.dumpLLVM = true

		case "--cache-dsn":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			flags.cacheDSN = args[i]

		case "--no-cache":
			flags.noCache = true

		case "--report":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			flags.reportFormat = args[i]

		case "-o", "--output":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			flags.output = args[i]

		case "--serve":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			flags.serveAddr = args[i]

		case "--input":
			i++
			if i >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			flags.input = args[i]

		default:
			positional = append(positional, arg)
		}
	}

	return positional, flags, nil
}

func (f compileFlags) pipelineOptions() pipeline.Options {
	return pipeline.Options{OptLevel: f.optLevel, StepBudget: pipeline.DefaultOptions().StepBudget}
}
