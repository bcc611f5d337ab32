// cmd/bfc/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"sentra/cmd/bfc/commands"
)

const version = "1.0.0"

// Command aliases mapping, same shape as the teacher's commandAliases.
var commandAliases = map[string]string{
	"b": "build",
	"d": "debug",
	"w": "watch",
	"t": "test",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}

	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("bfc", version)
		return
	}

	var err error
	switch cmd {
	case "build":
		err = commands.BuildCommand(args[1:])
	case "batch":
		err = commands.BatchCommand(args[1:])
	case "debug":
		err = commands.DebugCommand(args[1:])
	case "watch":
		err = commands.WatchCommand(args[1:])
	case "test":
		err = commands.TestCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("bfc: %v", err)
	}
}

func showUsage() {
	fmt.Println(`bfc - a Brainfuck ahead-of-time compiler

Usage:
  bfc build <file.bf> [flags]     compile a program to a native executable
  bfc batch <dir> [flags]         compile every *.bf file under dir concurrently
  bfc debug <file.bf> [flags]     step the optimized IR interactively
  bfc watch <file.bf> [flags]     recompile and broadcast on every save
  bfc test <dir>                  run *.bf/*.expected conformance fixtures
  bfc help                        show this message
  bfc version                     show the version

Flags (build/batch/watch):
  -O, --opt N        optimizer/speculation level, 0-2 (default 2)
  --llvm-opt N        llc optimization level, 0-3 (default 3)
  --dump-ir            print optimized residual IR and exit
  --dump-llvm          print the lowered LLVM IR instead of building
  --cache-dsn DSN      cache compiled artifacts in the store at DSN
  --no-cache           disable the build cache even if --cache-dsn is set
  --report FORMAT      emit a compile report: json, csv, or html
  -o, --output PATH    output executable path (build only)
  --serve ADDR         listen address for the watch server (watch only)`)
}
