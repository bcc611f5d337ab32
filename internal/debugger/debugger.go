// Package debugger implements a breakpoint-capable stepper over
// optimized Brainfuck IR, grounded in the teacher's debugger
// breakpoint/state-machine shape (Breakpoint, DebugState, step/continue
// commands) fused with its REPL's stdin-loop shape, since both
// concerns serve the same `bfc debug` command here.
package debugger

import (
	"bufio"
	"fmt"
	"io"

	"sentra/internal/bfir"
)

// BreakKind distinguishes what a Breakpoint watches for.
type BreakKind int

const (
	// BreakAtIndex fires before executing the top-level instruction at
	// a given index.
	BreakAtIndex BreakKind = iota
	// BreakOnIO fires before executing the next Read or Write
	// instruction, at any nesting depth.
	BreakOnIO
)

// Breakpoint is one condition the debugger checks before every step.
type Breakpoint struct {
	ID    int
	Kind  BreakKind
	Index int // meaningful only for BreakAtIndex
	Hits  int
}

// frame is one level of the explicit call stack standing in for the
// recursion speculate.run uses; the debugger needs to pause between
// instructions, including mid-loop, so it cannot just recurse.
type frame struct {
	prog []bfir.Instruction
	pos  int
}

// Debugger steps a Brainfuck program one primitive instruction at a
// time, against real cells and real I/O, rather than speculate's
// budgeted, discard-on-partial-iteration evaluation.
type Debugger struct {
	stack       []frame
	cells       []bfir.Cell
	cellPtr     int
	breakpoints []*Breakpoint
	nextBpID    int
	in          *bufio.Reader
	out         io.Writer
	Halted      bool
	RuntimeErr  error
}

// New creates a Debugger over prog with tapeSize cells, reading Read
// instructions from in and writing Write instructions to out.
func New(prog []bfir.Instruction, tapeSize int, in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		stack:    []frame{{prog: prog, pos: 0}},
		cells:    make([]bfir.Cell, tapeSize),
		nextBpID: 1,
		in:       bufio.NewReader(in),
		out:      out,
		Halted:   len(prog) == 0,
	}
}

// Break adds a breakpoint and returns its assigned ID.
func (d *Debugger) Break(kind BreakKind, index int) int {
	id := d.nextBpID
	d.nextBpID++
	d.breakpoints = append(d.breakpoints, &Breakpoint{ID: id, Kind: kind, Index: index})
	return id
}

// Breakpoints returns the current breakpoint list, for `print
// breakpoints`.
func (d *Debugger) Breakpoints() []*Breakpoint { return d.breakpoints }

// Cells returns the live tape. Callers must not retain it past the
// next Step.
func (d *Debugger) Cells() []bfir.Cell { return d.cells }

// CellPtr returns the current tape pointer.
func (d *Debugger) CellPtr() int { return d.cellPtr }

// atTopLevel reports the current top-level instruction index, valid
// only when the stack has exactly one frame.
func (d *Debugger) atTopLevel() (int, bool) {
	if len(d.stack) != 1 {
		return 0, false
	}
	return d.stack[0].pos, true
}

func (d *Debugger) hitBreakpoint(nextOp bfir.Op) *Breakpoint {
	topIndex, atTop := d.atTopLevel()
	for _, bp := range d.breakpoints {
		switch bp.Kind {
		case BreakAtIndex:
			if atTop && topIndex == bp.Index {
				return bp
			}
		case BreakOnIO:
			if nextOp == bfir.OpRead || nextOp == bfir.OpWrite {
				return bp
			}
		}
	}
	return nil
}

// Step executes exactly one primitive instruction (Increment,
// PointerIncrement, Read, Write, Set, MultiplyMove), or descends into
// or steps past one Loop. It returns the breakpoint that fired for
// this step's instruction, if any; the instruction still runs on a
// hit, it isn't skipped, so callers stop calling Step once they see a
// non-nil breakpoint rather than expecting it to have been elided.
func (d *Debugger) Step() (*Breakpoint, error) {
	if d.Halted {
		return nil, nil
	}

	top := &d.stack[len(d.stack)-1]
	for top.pos >= len(top.prog) {
		if len(d.stack) == 1 {
			d.Halted = true
			return nil, nil
		}
		// Finishing a body returns to its Loop instruction, which is
		// executed again below to re-test the loop condition.
		d.stack = d.stack[:len(d.stack)-1]
		top = &d.stack[len(d.stack)-1]
	}

	instr := top.prog[top.pos]
	hit := d.hitBreakpoint(instr.Op)
	if hit != nil {
		hit.Hits++
	}

	switch instr.Op {
	case bfir.OpIncrement:
		d.cells[d.cellPtr] += instr.Delta
		top.pos++

	case bfir.OpSet:
		d.cells[d.cellPtr] = instr.Value
		top.pos++

	case bfir.OpPointerIncrement:
		newPtr := d.cellPtr + instr.PointerDelta
		if newPtr < 0 || newPtr >= len(d.cells) {
			d.Halted = true
			d.RuntimeErr = fmt.Errorf("pointer moved out of [0, %d) to %d", len(d.cells), newPtr)
			return hit, d.RuntimeErr
		}
		d.cellPtr = newPtr
		top.pos++

	case bfir.OpWrite:
		if _, err := d.out.Write([]byte{d.cells[d.cellPtr]}); err != nil {
			return hit, err
		}
		top.pos++

	case bfir.OpRead:
		b, err := d.in.ReadByte()
		switch {
		case err == io.EOF:
			d.cells[d.cellPtr] = 0
		case err != nil:
			d.Halted = true
			d.RuntimeErr = err
			return hit, err
		default:
			d.cells[d.cellPtr] = b
		}
		top.pos++

	case bfir.OpMultiplyMove:
		for offset := range instr.Moves {
			target := d.cellPtr + offset
			if target < 0 || target >= len(d.cells) {
				d.Halted = true
				d.RuntimeErr = fmt.Errorf("multiply-move target out of range at offset %d", offset)
				return hit, d.RuntimeErr
			}
		}
		current := d.cells[d.cellPtr]
		for offset, k := range instr.Moves {
			d.cells[d.cellPtr+offset] += current * k
		}
		d.cells[d.cellPtr] = 0
		top.pos++

	case bfir.OpLoop:
		if d.cells[d.cellPtr] == 0 {
			top.pos++
		} else {
			d.stack = append(d.stack, frame{prog: instr.Body, pos: 0})
		}
	}

	if len(d.stack) == 1 && d.stack[0].pos >= len(d.stack[0].prog) {
		d.Halted = true
	}

	return hit, nil
}

// Continue steps until halted, a runtime error, or a breakpoint fires.
func (d *Debugger) Continue() (*Breakpoint, error) {
	for {
		hit, err := d.Step()
		if err != nil || d.Halted || hit != nil {
			return hit, err
		}
	}
}
