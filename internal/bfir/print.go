package bfir

import (
	"sort"
	"strconv"
	"strings"
)

// Dump renders a program in the textual IR form described in spec.md
// §6: each instruction on its own line, loop bodies indented two
// spaces per nesting level, loops printed as a "Loop" header followed
// by indented body lines, everything else as "Name(payload)".
func Dump(prog []Instruction) string {
	var sb strings.Builder
	dumpAt(&sb, prog, 0)
	return sb.String()
}

func dumpAt(sb *strings.Builder, prog []Instruction, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, instr := range prog {
		sb.WriteString(pad)
		if instr.Op == OpLoop {
			sb.WriteString("Loop\n")
			dumpAt(sb, instr.Body, indent+1)
		} else {
			sb.WriteString(instr.Op.String())
			sb.WriteString(instr.payloadString())
			sb.WriteString("\n")
		}
	}
}

func sortedMoves(moves map[int]Cell) string {
	offsets := make([]int, 0, len(moves))
	for off := range moves {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	parts := make([]string, 0, len(offsets))
	for _, off := range offsets {
		parts = append(parts, strconv.Itoa(off)+":"+strconv.Itoa(int(int8(moves[off]))))
	}
	return strings.Join(parts, ", ")
}
