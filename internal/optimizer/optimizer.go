// Package optimizer implements the peephole rewriter described in
// spec.md §4.3: a set of local and loop-shaped rewrite rules applied
// repeatedly to a fixed point, reshaping parsed IR into a shorter,
// semantically equivalent form that may introduce Set and
// MultiplyMove nodes.
package optimizer

import "sentra/internal/bfir"

// Stats counts how many times each rewrite rule actually fired across
// the whole run to a fixed point, for the compile report (SPEC_FULL.md
// §10).
type Stats struct {
	Combined             int // rules 1-3: increments, pointer moves, Set+Increment
	RedundantSetsDropped int // rule 4
	ZeroingLoops         int // rule 5
	MultiplyMoves        int // rule 6
	DeadLoopsDropped     int // rule 7
	Passes               int
}

// Optimize runs the rewrite passes against prog repeatedly until a
// pass is a no-op (the result is structurally equal to its input),
// and returns the fixed point. Every rewrite strictly shrinks the
// instruction count or collapses two adjacent leaves into one, so the
// loop is guaranteed to terminate.
func Optimize(prog []bfir.Instruction) []bfir.Instruction {
	out, _ := OptimizeWithStats(prog)
	return out
}

// OptimizeWithStats behaves exactly like Optimize but also reports how
// many times each rule fired, for callers that want to surface that
// detail (the report component).
func OptimizeWithStats(prog []bfir.Instruction) ([]bfir.Instruction, Stats) {
	var stats Stats
	current := prog
	for {
		next := onePass(current, true, &stats)
		stats.Passes++
		if bfir.ProgramEqual(next, current) {
			return next, stats
		}
		current = next
	}
}

// onePass recurses into loop bodies, then runs the local rules
// (1-4) in a single linear sweep, then the loop-shaped rules (5-7)
// in a second sweep that tracks the known-zero flag over the
// already-locally-combined sequence. atProgramStart is true only for
// the real top-level program: entering a loop body means the loop
// condition just tested the current cell non-zero, so the recursive
// call over instr.Body always passes false, not true.
func onePass(prog []bfir.Instruction, atProgramStart bool, stats *Stats) []bfir.Instruction {
	recursed := make([]bfir.Instruction, 0, len(prog))
	for _, instr := range prog {
		if instr.Op == bfir.OpLoop {
			recursed = append(recursed, bfir.Loop(onePass(instr.Body, false, stats)))
		} else {
			recursed = append(recursed, instr)
		}
	}

	locally := combineLocal(recursed, stats)
	return rewriteLoops(locally, atProgramStart, stats)
}

// combineLocal applies rules 1-4: combine adjacent Increments,
// combine adjacent PointerIncrements, combine Set+Increment, and drop
// a Set immediately followed by another Set or by a Read.
func combineLocal(prog []bfir.Instruction, stats *Stats) []bfir.Instruction {
	out := make([]bfir.Instruction, 0, len(prog))

	for _, instr := range prog {
		switch instr.Op {
		case bfir.OpIncrement:
			if n := len(out); n > 0 && out[n-1].Op == bfir.OpIncrement {
				combined := out[n-1].Delta + instr.Delta
				if combined == 0 {
					out = out[:n-1]
				} else {
					out[n-1] = bfir.Instruction{Op: bfir.OpIncrement, Delta: combined}
				}
				stats.Combined++
				continue
			}
			if n := len(out); n > 0 && out[n-1].Op == bfir.OpSet {
				out[n-1] = bfir.Set(int(int8(out[n-1].Value)) + int(int8(instr.Delta)))
				stats.Combined++
				continue
			}
			out = append(out, instr)

		case bfir.OpPointerIncrement:
			if n := len(out); n > 0 && out[n-1].Op == bfir.OpPointerIncrement {
				combined := out[n-1].PointerDelta + instr.PointerDelta
				if combined == 0 {
					out = out[:n-1]
				} else {
					out[n-1] = bfir.PointerIncrement(combined)
				}
				stats.Combined++
				continue
			}
			out = append(out, instr)

		case bfir.OpSet:
			if n := len(out); n > 0 && out[n-1].Op == bfir.OpSet {
				out = out[:n-1]
				stats.RedundantSetsDropped++
			}
			out = append(out, instr)

		case bfir.OpRead:
			if n := len(out); n > 0 && out[n-1].Op == bfir.OpSet {
				out = out[:n-1]
				stats.RedundantSetsDropped++
			}
			out = append(out, instr)

		default:
			out = append(out, instr)
		}
	}

	return out
}

// rewriteLoops applies rules 5-7 over an already-locally-combined
// sequence, threading the "current cell known zero" flag left to
// right. knownZeroAtStart is true only at the real top-level program's
// first instruction: a loop body is entered only when its condition
// just tested the current cell non-zero, so every recursive call over
// a loop's body passes false (unknown, not zero) instead.
func rewriteLoops(prog []bfir.Instruction, knownZeroAtStart bool, stats *Stats) []bfir.Instruction {
	out := make([]bfir.Instruction, 0, len(prog))
	knownZero := knownZeroAtStart

	for _, instr := range prog {
		switch instr.Op {
		case bfir.OpLoop:
			if knownZero {
				// Dead loop: the current cell is known zero, so the
				// loop body never executes.
				stats.DeadLoopsDropped++
				continue
			}

			if isZeroingLoop(instr.Body) {
				out = append(out, bfir.Set(0))
				knownZero = true
				stats.ZeroingLoops++
				continue
			}

			if mm, ok := recognizeMultiplyMove(instr.Body); ok {
				out = append(out, mm)
				knownZero = true
				stats.MultiplyMoves++
				continue
			}

			out = append(out, instr)
			knownZero = false

		case bfir.OpSet:
			out = append(out, instr)
			knownZero = instr.Value == 0

		case bfir.OpMultiplyMove:
			out = append(out, instr)
			knownZero = true

		case bfir.OpIncrement, bfir.OpPointerIncrement, bfir.OpRead:
			out = append(out, instr)
			knownZero = false

		case bfir.OpWrite:
			out = append(out, instr)
			// Write doesn't change the current cell's value.

		default:
			out = append(out, instr)
			knownZero = false
		}
	}

	return out
}

// isZeroingLoop matches Loop([Increment(-1)]) and Loop([Increment(1)]):
// under 8-bit wrap semantics both run until the cell is zero for any
// starting value. (The `[+]` half is only sound because Cell is fixed
// at 8-bit wrap here -- see SPEC_FULL.md's Open Question resolution.)
func isZeroingLoop(body []bfir.Instruction) bool {
	if len(body) != 1 || body[0].Op != bfir.OpIncrement {
		return false
	}
	delta := int8(body[0].Delta)
	return delta == 1 || delta == -1
}

// recognizeMultiplyMove matches a Loop whose body is a straight-line
// sequence of Increment/PointerIncrement instructions with net
// pointer displacement zero, which decrements cell 0 by exactly one
// and touches cell 0 nowhere else, producing a well-defined
// offset->delta map for every other offset it touches.
func recognizeMultiplyMove(body []bfir.Instruction) (bfir.Instruction, bool) {
	offset := 0
	deltas := map[int]int{}
	sawCellZeroDecrement := false

	for _, instr := range body {
		switch instr.Op {
		case bfir.OpPointerIncrement:
			offset += instr.PointerDelta
		case bfir.OpIncrement:
			if offset == 0 {
				if instr.Delta != 255 || sawCellZeroDecrement {
					// Either not a single decrement of cell 0, or
					// cell 0 is touched more than once: not a clean
					// multiply-move loop.
					return bfir.Instruction{}, false
				}
				sawCellZeroDecrement = true
				continue
			}
			deltas[offset] += int(int8(instr.Delta))
		default:
			return bfir.Instruction{}, false
		}
	}

	if offset != 0 || !sawCellZeroDecrement || len(deltas) == 0 {
		return bfir.Instruction{}, false
	}

	moves := make(map[int]bfir.Cell, len(deltas))
	for off, d := range deltas {
		moves[off] = bfir.Cell(uint8(int32(d)))
	}
	return bfir.MultiplyMove(moves), true
}
