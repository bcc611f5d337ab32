// Package speculate implements the compile-time speculative
// interpreter described in spec.md §4.4: it partially evaluates an
// optimized IR program against a step budget, producing the
// furthest-reached ExecutionState so the backend can lower only the
// unevaluated residual.
package speculate

import (
	"sentra/internal/bfir"
	"sentra/internal/bounds"
)

// DefaultStepBudget is the default number of instructions the
// speculative interpreter will execute before giving up, chosen large
// enough that typical programs fully speculate in well under a
// second.
const DefaultStepBudget = 10_000_000

// ExecutionState is the four-tuple from spec.md §3.
type ExecutionState struct {
	InstrPtr int
	Cells    []bfir.Cell
	CellPtr  int
	Outputs  []byte
}

// outcome classifies why run returned, mirroring
// original_source/src/execution.rs's Outcome enum. It is internal:
// callers only ever see the resulting ExecutionState, per spec.md
// §4.4's contract.
type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeReachedRuntimeValue
	outcomeRuntimeError
	outcomeOutOfSteps
)

// Execute speculatively evaluates prog starting from a fresh,
// zero-initialized tape sized by bounds.HighestCellIndex, consuming at
// most budget steps. It halts on program completion, step exhaustion,
// encountering a Read (runtime input can't be speculated), or a
// runtime pointer-range error, returning the state at that point.
func Execute(prog []bfir.Instruction, budget int) ExecutionState {
	final, _ := ExecuteWithStepsUsed(prog, budget)
	return final
}

// ExecuteWithStepsUsed behaves exactly like Execute but also reports
// how many of the budget's steps were actually consumed, for callers
// that want to surface that detail (the report component).
func ExecuteWithStepsUsed(prog []bfir.Instruction, budget int) (ExecutionState, int) {
	cells := make([]bfir.Cell, bounds.HighestCellIndex(prog)+1)
	state := ExecutionState{Cells: cells}
	final, _, stepsLeft := run(prog, state, budget)
	return final, budget - stepsLeft
}

// run executes prog from state, consuming at most stepsLeft steps, and
// returns the resulting state, the outcome, and the steps remaining
// (meaningful only on outcomeCompleted, matching the Rust original's
// Completed(remaining_steps) payload).
func run(prog []bfir.Instruction, state ExecutionState, stepsLeft int) (ExecutionState, outcome, int) {
	for state.InstrPtr < len(prog) && stepsLeft > 0 {
		instr := prog[state.InstrPtr]

		switch instr.Op {
		case bfir.OpIncrement:
			state.Cells[state.CellPtr] += instr.Delta
			state.InstrPtr++

		case bfir.OpSet:
			state.Cells[state.CellPtr] = instr.Value
			state.InstrPtr++

		case bfir.OpPointerIncrement:
			newPtr := state.CellPtr + instr.PointerDelta
			if newPtr < 0 || newPtr >= len(state.Cells) {
				return state, outcomeRuntimeError, stepsLeft
			}
			state.CellPtr = newPtr
			state.InstrPtr++

		case bfir.OpWrite:
			state.Outputs = append(state.Outputs, state.Cells[state.CellPtr])
			state.InstrPtr++

		case bfir.OpRead:
			return state, outcomeReachedRuntimeValue, stepsLeft

		case bfir.OpMultiplyMove:
			if !withinRange(state.CellPtr, instr.Moves, len(state.Cells)) {
				return state, outcomeRuntimeError, stepsLeft
			}
			current := state.Cells[state.CellPtr]
			for offset, k := range instr.Moves {
				target := state.CellPtr + offset
				state.Cells[target] += current * k
			}
			state.Cells[state.CellPtr] = 0
			state.InstrPtr++

		case bfir.OpLoop:
			if state.Cells[state.CellPtr] == 0 {
				// Step over the loop because the current cell is
				// zero.
				state.InstrPtr++
			} else {
				// Execute the loop body from a scratch state seeded
				// with the outer state's cells/pointer/outputs. The
				// cells are copied so a discarded iteration leaves the
				// outer tape untouched.
				bodyState := state
				bodyState.Cells = append([]bfir.Cell(nil), state.Cells...)
				bodyState.InstrPtr = 0
				afterBody, bodyOutcome, remaining := run(instr.Body, bodyState, stepsLeft)

				if bodyOutcome == outcomeCompleted {
					// The iteration finished: commit its side
					// effects and re-examine the loop condition by
					// falling through without advancing InstrPtr.
					state.Cells = afterBody.Cells
					state.CellPtr = afterBody.CellPtr
					state.Outputs = afterBody.Outputs
					stepsLeft = remaining
				} else {
					// Couldn't evaluate the loop body: discard its
					// state changes and surface the outcome with the
					// pre-body outer state. The residual program must
					// be able to re-execute the loop from a clean
					// iteration boundary; committing a half-executed
					// iteration would leave it unable to. state
					// already points at this Loop instruction, since
					// we haven't advanced InstrPtr yet this round.
					return state, bodyOutcome, stepsLeft
				}
			}
		}

		stepsLeft--
	}

	if stepsLeft == 0 {
		return state, outcomeOutOfSteps, stepsLeft
	}
	return state, outcomeCompleted, stepsLeft
}

func withinRange(ptr int, moves map[int]bfir.Cell, tapeLen int) bool {
	for offset := range moves {
		target := ptr + offset
		if target < 0 || target >= tapeLen {
			return false
		}
	}
	return true
}
