package codegen

import (
	"strings"
	"testing"

	"sentra/internal/bfir"
	"sentra/internal/speculate"
)

func TestLowerFullySpeculatedProgramEmitsOnlyPutchars(t *testing.T) {
	// "+++.>++." fully speculates (spec.md scenario 7): the residual
	// program is empty and the two output bytes should appear as
	// putchar calls with no tape load/store left to emit.
	instrs, err := bfir.Parse("+++.>++.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	state := speculate.Execute(instrs, speculate.DefaultStepBudget)
	if state.InstrPtr != len(instrs) {
		t.Fatalf("expected full speculation, InstrPtr=%d len=%d", state.InstrPtr, len(instrs))
	}

	residual := instrs[state.InstrPtr:]
	m := Lower("test.bf", residual, state)
	ir := m.String()

	if !strings.Contains(ir, "@tape") {
		t.Error("expected @tape global in emitted IR")
	}
	if !strings.Contains(ir, "declare i32 @putchar") {
		t.Error("expected putchar declared")
	}
	if !strings.Contains(ir, "declare i32 @getchar") {
		t.Error("expected getchar declared")
	}
	if got := strings.Count(ir, "call i32 @putchar"); got != 2 {
		t.Errorf("putchar call count = %d, want 2", got)
	}
	if !strings.Contains(ir, "define i32 @main") {
		t.Error("expected main defined")
	}
}

func TestLowerResidualLoopEmitsBranches(t *testing.T) {
	instrs, err := bfir.Parse(",[.,]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Speculation stops at the leading Read; everything is residual.
	state := speculate.Execute(instrs, speculate.DefaultStepBudget)
	if state.InstrPtr != 0 {
		t.Fatalf("expected speculation to stop at Read, InstrPtr=%d", state.InstrPtr)
	}

	m := Lower("test.bf", instrs[state.InstrPtr:], state)
	out := m.String()

	if !strings.Contains(out, "icmp eq i8") {
		t.Error("expected a zero-test for the loop condition")
	}
	if strings.Count(out, "br i1") < 1 {
		t.Error("expected at least one conditional branch for the loop")
	}
}
