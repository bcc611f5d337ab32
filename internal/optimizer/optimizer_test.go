package optimizer

import (
	"testing"

	"sentra/internal/bfir"
)

func parse(t *testing.T, src string) []bfir.Instruction {
	t.Helper()
	instrs, err := bfir.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return instrs
}

func TestCombineIncrements(t *testing.T) {
	got := Optimize(parse(t, "+++"))
	want := []bfir.Instruction{bfir.Increment(3)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+++) = %v, want %v", got, want)
	}
}

func TestCombineIncrementsToZeroDrops(t *testing.T) {
	got := Optimize(parse(t, "+-"))
	if len(got) != 0 {
		t.Errorf("Optimize(+-) = %v, want empty", got)
	}
}

func TestCombinePointerMoves(t *testing.T) {
	got := Optimize(parse(t, ">>>"))
	want := []bfir.Instruction{bfir.PointerIncrement(3)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(>>>) = %v, want %v", got, want)
	}
}

func TestCombinePointerMovesToZeroDrops(t *testing.T) {
	got := Optimize(parse(t, "><"))
	if len(got) != 0 {
		t.Errorf("Optimize(><) = %v, want empty", got)
	}
}

func TestZeroingLoopDecrement(t *testing.T) {
	// The leading "+" keeps the loop from being a dead loop at start.
	got := Optimize(parse(t, "+[-]"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Set(0)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[-]) = %v, want %v", got, want)
	}
}

func TestZeroingLoopIncrement(t *testing.T) {
	got := Optimize(parse(t, "+[+]"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Set(0)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[+]) = %v, want %v", got, want)
	}
}

func TestDeadLoopAtStart(t *testing.T) {
	got := Optimize(parse(t, "[>>>]"))
	if len(got) != 0 {
		t.Errorf("Optimize([>>>]) = %v, want empty (dead loop at start)", got)
	}
}

func TestDeadLoopAfterZeroingLoop(t *testing.T) {
	// [-] zeros the cell, then the second loop is dead.
	got := Optimize(parse(t, "+[-][>>>]"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Set(0)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[-][>>>]) = %v, want %v", got, want)
	}
}

func TestEmptyLoopNotKnownZeroIsPreserved(t *testing.T) {
	// Cell is not known zero after a plain Increment, so the empty
	// loop (infinite loop on nonzero cells) must be preserved.
	got := Optimize(parse(t, "+[]"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Loop(nil)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[]) = %v, want %v", got, want)
	}
}

func TestMultiplyMoveRecognition(t *testing.T) {
	// [->+<] moves cell 0 into cell 1 (multiplier 1); the leading "+"
	// keeps the loop from being a dead loop at start.
	got := Optimize(parse(t, "+[->+<]"))
	if len(got) != 2 || got[1].Op != bfir.OpMultiplyMove {
		t.Fatalf("Optimize(+[->+<]) = %v, want Increment then MultiplyMove", got)
	}
	if got[1].Moves[1] != 1 {
		t.Errorf("Moves[1] = %d, want 1", got[1].Moves[1])
	}
}

func TestMultiplyMoveWithMultiplier(t *testing.T) {
	// [->++<] adds 2x the current cell to cell 1.
	got := Optimize(parse(t, "+[->++<]"))
	if len(got) != 2 || got[1].Op != bfir.OpMultiplyMove {
		t.Fatalf("Optimize(+[->++<]) = %v, want Increment then MultiplyMove", got)
	}
	if got[1].Moves[1] != 2 {
		t.Errorf("Moves[1] = %d, want 2", got[1].Moves[1])
	}
}

func TestMultiplyMoveMultipleOffsets(t *testing.T) {
	// [->+>++<<] distributes into cell 1 (x1) and cell 2 (x2).
	got := Optimize(parse(t, "+[->+>++<<]"))
	if len(got) != 2 || got[1].Op != bfir.OpMultiplyMove {
		t.Fatalf("Optimize(...) = %v, want Increment then MultiplyMove", got)
	}
	if got[1].Moves[1] != 1 || got[1].Moves[2] != 2 {
		t.Errorf("Moves = %v, want {1:1, 2:2}", got[1].Moves)
	}
}

func TestLoopNotMultiplyMoveWhenPointerUnbalanced(t *testing.T) {
	// Net pointer displacement is nonzero: not a multiply-move loop.
	got := Optimize(parse(t, "+[->+]"))
	if len(got) != 2 || got[1].Op != bfir.OpLoop {
		t.Errorf("Optimize(+[->+]) = %v, want loop preserved", got)
	}
}

func TestIdempotence(t *testing.T) {
	samples := []string{
		"++[-]", "+++.>++.", "[->+<]", "+[[>>>>>>>>>]+>>>>>>>>>-]",
		"+-><,.", "[]", "+[]",
	}
	for _, src := range samples {
		prog := parse(t, src)
		once := Optimize(prog)
		twice := Optimize(once)
		if !bfir.ProgramEqual(once, twice) {
			t.Errorf("Optimize not idempotent for %q: once=%v twice=%v", src, once, twice)
		}
	}
}

func TestSetIncrementCombine(t *testing.T) {
	// The first "+" makes the cell known-nonzero, so "[-]" is
	// recognized as a real zeroing loop (Set(0)) rather than removed
	// outright as a dead loop; the trailing "+++" then folds into it.
	got := Optimize(parse(t, "+[-]+++"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Set(3)}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[-]+++) = %v, want %v", got, want)
	}
}

func TestRedundantSetBeforeRead(t *testing.T) {
	// "[-]" at the very start of a program is itself a dead loop
	// (cell 0 starts at zero), so it disappears outright rather than
	// becoming an explicit Set(0) that the Set-before-Read rule would
	// then also have to drop; either way the net result is just Read.
	got := Optimize(parse(t, "[-],"))
	want := []bfir.Instruction{bfir.Read()}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize([-],) = %v, want %v", got, want)
	}
}

func TestRedundantSetBeforeReadAfterRealSet(t *testing.T) {
	// Here the Set(0) is genuine (cell known-nonzero beforehand), so
	// this actually exercises rule 4 dropping a Set immediately
	// before a Read.
	got := Optimize(parse(t, "+[-],"))
	want := []bfir.Instruction{bfir.Increment(1), bfir.Read()}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(+[-],) = %v, want %v", got, want)
	}
}

func TestNonTrivialLoopAsFirstBodyInstructionIsNotDeadLoop(t *testing.T) {
	// The inner loop is the first instruction of the outer loop's
	// body. Entering that body at all means the outer loop's
	// condition just tested the cell non-zero, so the inner loop must
	// not be treated as "known zero, hence dead": dropping it would
	// collapse the outer body to Loop([]), turning a terminating
	// program (one 0x00 byte written) into an infinite loop that
	// writes nothing.
	got := Optimize(parse(t, "++[[-->.<]]"))
	want := []bfir.Instruction{
		bfir.Increment(2),
		bfir.Loop([]bfir.Instruction{
			bfir.Loop([]bfir.Instruction{
				bfir.Increment(-2),
				bfir.PointerIncrement(1),
				bfir.Write(),
				bfir.PointerIncrement(-1),
			}),
		}),
	}
	if !bfir.ProgramEqual(got, want) {
		t.Errorf("Optimize(++[[-->.<]]) = %v, want %v (inner loop preserved)", got, want)
	}
}

func TestOptimizeWithStatsCountsRules(t *testing.T) {
	_, stats := OptimizeWithStats(parse(t, "+[-]+++[->+<]"))
	if stats.ZeroingLoops != 1 {
		t.Errorf("ZeroingLoops = %d, want 1", stats.ZeroingLoops)
	}
	if stats.MultiplyMoves != 1 {
		t.Errorf("MultiplyMoves = %d, want 1", stats.MultiplyMoves)
	}
	if stats.Combined == 0 {
		t.Errorf("Combined = 0, want at least one combine to have fired")
	}
	if stats.Passes == 0 {
		t.Errorf("Passes = 0, want at least one pass recorded")
	}
}
