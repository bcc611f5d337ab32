// Package bounds statically determines the highest tape cell index a
// Brainfuck program could touch, per spec.md §4.2. The result sizes
// the tape the speculative interpreter and the emitted binary use; it
// is an upper bound and need not be tight.
package bounds

import "sentra/internal/bfir"

// HighestCellIndex returns H such that every legal execution of prog
// leaves the cell pointer in 0..=H. Programs that move left of cell 0
// are runtime errors and are not accounted for here; bounds analysis
// only sizes the statically reachable non-negative range.
func HighestCellIndex(prog []bfir.Instruction) int {
	_, maxReach := walk(prog, 0)
	if maxReach < 0 {
		maxReach = 0
	}
	return maxReach
}

// walk returns the pointer offset reached at the end of prog when it is
// entered at offset base, and the maximum offset reached while executing
// it (on the same scale as base), clamped to be at least 0.
func walk(prog []bfir.Instruction, base int) (net int, maxReach int) {
	offset := base
	maxReach = base
	if maxReach < 0 {
		maxReach = 0
	}

	for _, instr := range prog {
		switch instr.Op {
		case bfir.OpPointerIncrement:
			offset += instr.PointerDelta
			if offset > maxReach {
				maxReach = offset
			}
		case bfir.OpLoop:
			// A loop may execute zero or many times: it contributes
			// no net displacement for bounds purposes, but its body
			// can still reach cells at (current offset + max reach
			// inside the body).
			_, bodyMax := walk(instr.Body, offset)
			if bodyMax > maxReach {
				maxReach = bodyMax
			}
		case bfir.OpMultiplyMove:
			for off := range instr.Moves {
				reach := offset + off
				if reach > maxReach {
					maxReach = reach
				}
			}
		default:
			// Increment, Read, Write, Set touch only the current
			// cell; they don't move the pointer.
		}
	}

	return offset, maxReach
}
