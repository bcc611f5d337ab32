// Package codegen lowers a residual Brainfuck program and its
// pre-computed ExecutionState into an in-memory LLVM module, using
// llir/llvm as the external low-level code-generator backend spec.md
// §1/§4.5 treats as a collaborator. internal/jit/jit.go in the
// teacher repository stubbed this concern out entirely ("no actual
// compilation"); this package is where it's actually implemented.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"sentra/internal/bfir"
	"sentra/internal/speculate"
)

// Lower builds the LLVM module for a compilation unit: the residual
// program (instructions the speculative interpreter could not
// evaluate), the pre-state it returned, and the source file name
// (used only for the module's source filename metadata).
//
// The already-produced output prefix (state.Outputs) is emitted as a
// sequence of putchar calls before the residual instructions, so the
// emitted binary reproduces exactly the same byte sequence a from-
// scratch interpretation would, per spec.md §5's ordering guarantee.
func Lower(sourceFile string, residual []bfir.Instruction, state speculate.ExecutionState) *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = sourceFile

	getchar := m.NewFunc("getchar", types.I32)
	putchar := m.NewFunc("putchar", types.I32, ir.NewParam("c", types.I32))

	tapeLen := len(state.Cells)
	if tapeLen == 0 {
		tapeLen = 1
	}
	arrayType := types.NewArray(uint64(tapeLen), types.I8)
	tape := m.NewGlobalDef("tape", constant.NewArray(arrayType, initialCells(state.Cells, tapeLen)...))

	main := m.NewFunc("main", types.I32)
	entry := main.NewBlock("entry")

	ptr := entry.NewAlloca(types.I64)
	entry.NewStore(constant.NewInt(types.I64, int64(state.CellPtr)), ptr)

	for _, b := range state.Outputs {
		entry.NewCall(putchar, constant.NewInt(types.I32, int64(b)))
	}

	l := &lowerer{
		module:  m,
		tape:    tape,
		array:   arrayType,
		ptr:     ptr,
		getchar: getchar,
		putchar: putchar,
		fn:      main,
	}

	final := l.lowerSeq(entry, residual)
	final.NewRet(constant.NewInt(types.I32, 0))

	return m
}

// initialCells pads/truncates cells to exactly n entries of
// constant.Int, used to seed @tape's initializer.
func initialCells(cells []bfir.Cell, n int) []constant.Constant {
	out := make([]constant.Constant, n)
	for i := 0; i < n; i++ {
		var v bfir.Cell
		if i < len(cells) {
			v = cells[i]
		}
		out[i] = constant.NewInt(types.I8, int64(int8(v)))
	}
	return out
}

// lowerer threads the shared codegen context (module, tape global,
// pointer alloca, external decls) through the recursive block-building
// walk over the residual IR.
type lowerer struct {
	module  *ir.Module
	tape    *ir.Global
	array   *types.ArrayType
	ptr     *ir.InstAlloca
	getchar *ir.Func
	putchar *ir.Func
	fn      *ir.Func

	blockCounter int
}

func (l *lowerer) newBlock(prefix string) *ir.Block {
	l.blockCounter++
	return l.fn.NewBlock(fmt.Sprintf("%s.%d", prefix, l.blockCounter))
}

// cellPtr returns a pointer to the tape cell currently addressed by
// the pointer local, GEP'd off @tape.
func (l *lowerer) cellPtr(block *ir.Block) *ir.InstGetElementPtr {
	idx := block.NewLoad(types.I64, l.ptr)
	return block.NewGetElementPtr(l.array, l.tape, constant.NewInt(types.I64, 0), idx)
}

// cellPtrAt returns a pointer to the tape cell at offset cells away
// from the current pointer local, used by MultiplyMove lowering.
func (l *lowerer) cellPtrAt(block *ir.Block, offset int) (*ir.Block, *ir.InstGetElementPtr) {
	cur := block.NewLoad(types.I64, l.ptr)
	idx := block.NewAdd(cur, constant.NewInt(types.I64, int64(offset)))
	return block, block.NewGetElementPtr(l.array, l.tape, constant.NewInt(types.I64, 0), idx)
}

// lowerSeq lowers a straight-line (but possibly loop-containing)
// instruction sequence starting at block, and returns the block that
// execution falls through to afterward.
func (l *lowerer) lowerSeq(block *ir.Block, prog []bfir.Instruction) *ir.Block {
	for _, instr := range prog {
		block = l.lowerOne(block, instr)
	}
	return block
}

func (l *lowerer) lowerOne(block *ir.Block, instr bfir.Instruction) *ir.Block {
	switch instr.Op {
	case bfir.OpIncrement:
		cell := l.cellPtr(block)
		val := block.NewLoad(types.I8, cell)
		sum := block.NewAdd(val, constant.NewInt(types.I8, int64(int8(instr.Delta))))
		block.NewStore(sum, cell)

	case bfir.OpSet:
		cell := l.cellPtr(block)
		block.NewStore(constant.NewInt(types.I8, int64(int8(instr.Value))), cell)

	case bfir.OpPointerIncrement:
		cur := block.NewLoad(types.I64, l.ptr)
		next := block.NewAdd(cur, constant.NewInt(types.I64, int64(instr.PointerDelta)))
		block.NewStore(next, l.ptr)

	case bfir.OpWrite:
		cell := l.cellPtr(block)
		val := block.NewLoad(types.I8, cell)
		ext := block.NewSExt(val, types.I32)
		block.NewCall(l.putchar, ext)

	case bfir.OpRead:
		cell := l.cellPtr(block)
		got := block.NewCall(l.getchar)
		truncated := block.NewTrunc(got, types.I8)
		block.NewStore(truncated, cell)

	case bfir.OpMultiplyMove:
		block = l.lowerMultiplyMove(block, instr)

	case bfir.OpLoop:
		block = l.lowerLoop(block, instr)
	}
	return block
}

func (l *lowerer) lowerMultiplyMove(block *ir.Block, instr bfir.Instruction) *ir.Block {
	cell := l.cellPtr(block)
	current := block.NewLoad(types.I8, cell)

	offsets := sortedOffsets(instr.Moves)
	for _, offset := range offsets {
		k := instr.Moves[offset]
		_, target := l.cellPtrAt(block, offset)
		existing := block.NewLoad(types.I8, target)
		product := block.NewMul(current, constant.NewInt(types.I8, int64(int8(k))))
		sum := block.NewAdd(existing, product)
		block.NewStore(sum, target)
	}

	block.NewStore(constant.NewInt(types.I8, 0), cell)
	return block
}

// lowerLoop emits the classic header/body/exit triple: the header
// loads the current cell and branches on whether it's nonzero into
// body (which falls back to header at its end) or exit.
func (l *lowerer) lowerLoop(block *ir.Block, instr bfir.Instruction) *ir.Block {
	header := l.newBlock("loop.header")
	body := l.newBlock("loop.body")
	exit := l.newBlock("loop.exit")

	block.NewBr(header)

	cell := l.cellPtr(header)
	val := header.NewLoad(types.I8, cell)
	isZero := header.NewICmp(enum.IPredEQ, val, constant.NewInt(types.I8, 0))
	header.NewCondBr(isZero, exit, body)

	bodyEnd := l.lowerSeq(body, instr.Body)
	bodyEnd.NewBr(header)

	return exit
}

func sortedOffsets(moves map[int]bfir.Cell) []int {
	offsets := make([]int, 0, len(moves))
	for off := range moves {
		offsets = append(offsets, off)
	}
	// Deterministic output: codegen must not depend on Go's
	// randomized map iteration order.
	for i := 1; i < len(offsets); i++ {
		for j := i; j > 0 && offsets[j-1] > offsets[j]; j-- {
			offsets[j-1], offsets[j] = offsets[j], offsets[j-1]
		}
	}
	return offsets
}
