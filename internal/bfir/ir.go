// Package bfir defines the typed intermediate representation for
// Brainfuck programs: the instruction tree produced by the parser,
// reshaped by the optimizer, and consumed by the speculative
// interpreter and the backend lowering stage.
package bfir

import "fmt"

// Cell is a machine-level 8-bit integer with two's-complement
// wrap-around arithmetic. The bit pattern is all that matters; signed
// vs. unsigned interpretation is only a display choice.
type Cell = uint8

// Op identifies which variant an Instruction holds.
type Op int

const (
	OpIncrement Op = iota
	OpPointerIncrement
	OpRead
	OpWrite
	OpLoop
	OpSet
	OpMultiplyMove
)

func (o Op) String() string {
	switch o {
	case OpIncrement:
		return "Increment"
	case OpPointerIncrement:
		return "PointerIncrement"
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpLoop:
		return "Loop"
	case OpSet:
		return "Set"
	case OpMultiplyMove:
		return "MultiplyMove"
	default:
		return "Unknown"
	}
}

// Instruction is a tagged variant over the BF IR node kinds described
// in spec.md §3. Only the fields relevant to Op are populated; the
// zero value of the others is never read.
type Instruction struct {
	Op Op

	// OpIncrement: amount to add to the current cell (wrapping).
	Delta Cell

	// OpPointerIncrement: signed displacement of the cell pointer.
	PointerDelta int

	// OpLoop: the loop body, itself a valid IR sequence.
	Body []Instruction

	// OpSet: the value the current cell is overwritten with.
	Value Cell

	// OpMultiplyMove: offset (relative to the current pointer, never
	// zero) -> multiplier, applied as cell[ptr+offset] += k*cell[ptr].
	Moves map[int]Cell
}

// Program is an ordered, top-level sequence of Instruction; loops nest
// their own Program as Body.
type Program []Instruction

func Increment(delta int) Instruction {
	return Instruction{Op: OpIncrement, Delta: wrap(delta)}
}

func PointerIncrement(delta int) Instruction {
	return Instruction{Op: OpPointerIncrement, PointerDelta: delta}
}

func Read() Instruction { return Instruction{Op: OpRead} }

func Write() Instruction { return Instruction{Op: OpWrite} }

func Loop(body []Instruction) Instruction {
	return Instruction{Op: OpLoop, Body: body}
}

func Set(value int) Instruction {
	return Instruction{Op: OpSet, Value: wrap(value)}
}

func MultiplyMove(moves map[int]Cell) Instruction {
	return Instruction{Op: OpMultiplyMove, Moves: moves}
}

// wrap folds an arbitrary int into the 8-bit wrap-around range.
func wrap(v int) Cell {
	return Cell(uint8(int32(v)))
}

// Equal reports whether two instructions (and, transitively, their
// loop bodies) are structurally identical. Used by the optimizer's
// fixed-point check and by tests.
func (i Instruction) Equal(other Instruction) bool {
	if i.Op != other.Op {
		return false
	}
	switch i.Op {
	case OpIncrement:
		return i.Delta == other.Delta
	case OpPointerIncrement:
		return i.PointerDelta == other.PointerDelta
	case OpRead, OpWrite:
		return true
	case OpLoop:
		return ProgramEqual(i.Body, other.Body)
	case OpSet:
		return i.Value == other.Value
	case OpMultiplyMove:
		if len(i.Moves) != len(other.Moves) {
			return false
		}
		for k, v := range i.Moves {
			if ov, ok := other.Moves[k]; !ok || ov != v {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ProgramEqual reports whether two instruction sequences are
// structurally identical.
func ProgramEqual(a, b []Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (i Instruction) payloadString() string {
	switch i.Op {
	case OpIncrement:
		return fmt.Sprintf("(%d)", int8(i.Delta))
	case OpPointerIncrement:
		return fmt.Sprintf("(%d)", i.PointerDelta)
	case OpSet:
		return fmt.Sprintf("(%d)", int8(i.Value))
	case OpMultiplyMove:
		return fmt.Sprintf("(%v)", sortedMoves(i.Moves))
	default:
		return "()"
	}
}
