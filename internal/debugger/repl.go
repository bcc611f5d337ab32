package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// REPL drives a Debugger from line-oriented commands, grounded in the
// teacher's RunDebugger/executeCommand stdin-loop shape.
type REPL struct {
	dbg    *Debugger
	in     *bufio.Scanner
	out    io.Writer
	quit   bool
}

// NewREPL wires a Debugger to a command stream and an output stream
// for command responses (separate from the program's own stdout,
// which the Debugger writes to directly).
func NewREPL(dbg *Debugger, commands io.Reader, out io.Writer) *REPL {
	return &REPL{dbg: dbg, in: bufio.NewScanner(commands), out: out}
}

// Run reads commands until EOF, `quit`, or the program halts.
func (r *REPL) Run() {
	fmt.Fprintln(r.out, "Brainfuck debugger. Type 'help' for available commands.")
	for !r.quit && r.in.Scan() {
		r.execute(strings.TrimSpace(r.in.Text()))
	}
}

func (r *REPL) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "h":
		r.help()

	case "break", "b":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: break <instruction-index>")
			return
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.out, "invalid index: %s\n", args[0])
			return
		}
		id := r.dbg.Break(BreakAtIndex, idx)
		fmt.Fprintf(r.out, "breakpoint %d set at instruction %d\n", id, idx)

	case "breakio":
		id := r.dbg.Break(BreakOnIO, 0)
		fmt.Fprintf(r.out, "breakpoint %d set on next read/write\n", id)

	case "list", "l":
		for _, bp := range r.dbg.Breakpoints() {
			fmt.Fprintf(r.out, "  %d: kind=%v index=%d hits=%d\n", bp.ID, bp.Kind, bp.Index, bp.Hits)
		}

	case "step", "s":
		r.report(r.dbg.Step())

	case "continue", "c":
		r.report(r.dbg.Continue())

	case "print", "p":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "usage: print cells|ptr")
			return
		}
		switch args[0] {
		case "cells":
			fmt.Fprintf(r.out, "%v\n", r.dbg.Cells())
		case "ptr":
			fmt.Fprintf(r.out, "%d\n", r.dbg.CellPtr())
		default:
			fmt.Fprintf(r.out, "unknown expression: %s\n", args[0])
		}

	case "quit", "q":
		r.quit = true

	default:
		fmt.Fprintf(r.out, "unknown command: %s (type 'help')\n", cmd)
	}
}

func (r *REPL) report(hit *Breakpoint, err error) {
	if err != nil {
		fmt.Fprintf(r.out, "runtime error: %v\n", err)
		return
	}
	if hit != nil {
		fmt.Fprintf(r.out, "breakpoint %d hit\n", hit.ID)
	}
	if r.dbg.Halted {
		fmt.Fprintln(r.out, "program halted")
		r.quit = true
	}
}

func (r *REPL) help() {
	fmt.Fprintln(r.out, "commands:")
	fmt.Fprintln(r.out, "  break <index>   set a breakpoint at a top-level instruction index")
	fmt.Fprintln(r.out, "  breakio         set a breakpoint on the next read/write")
	fmt.Fprintln(r.out, "  list            list breakpoints")
	fmt.Fprintln(r.out, "  step            execute one instruction")
	fmt.Fprintln(r.out, "  continue        run until a breakpoint, halt, or error")
	fmt.Fprintln(r.out, "  print cells     show the tape")
	fmt.Fprintln(r.out, "  print ptr       show the cell pointer")
	fmt.Fprintln(r.out, "  quit            exit the debugger")
}
