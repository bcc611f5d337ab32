package commands

import (
	"fmt"
	"os"
	"strings"

	"sentra/internal/bfir"
	"sentra/internal/bounds"
	"sentra/internal/debugger"
	"sentra/internal/optimizer"
)

// DebugCommand runs the interactive stepper over the optimized IR of
// one source file. Program Read instructions are served from
// --input FILE if given, otherwise from an empty stream (matching the
// conformance runner's "no real stdin" assumption) since the REPL's
// own command stream already owns stdin.
func DebugCommand(args []string) error {
	files, flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return fmt.Errorf("usage: bfc debug <file.bf> [--input FILE]")
	}
	sourceFile := files[0]

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}
	parsed, err := bfir.Parse(string(source))
	if err != nil {
		return err
	}

	optimized := parsed
	if flags.optLevel >= 1 {
		optimized = optimizer.Optimize(parsed)
	}

	programInput := strings.NewReader("")
	if flags.input != "" {
		data, err := os.ReadFile(flags.input)
		if err != nil {
			return fmt.Errorf("reading --input: %w", err)
		}
		programInput = strings.NewReader(string(data))
	}

	dbg := debugger.New(optimized, bounds.HighestCellIndex(optimized)+1, programInput, os.Stdout)
	repl := debugger.NewREPL(dbg, os.Stdin, os.Stdout)
	repl.Run()
	return nil
}
