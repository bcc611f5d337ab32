// Package report renders a CompileReport in JSON, CSV, or HTML,
// mirroring the shape of the teacher's reporting package (one struct
// walked by three independent exporters) but scoped to compiler
// statistics instead of security findings.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"sentra/internal/bfir"
	"sentra/internal/optimizer"
	"sentra/internal/pipeline"
)

// CompileReport collects the counters a caller might want to inspect
// after a compile, per SPEC_FULL.md §10.
type CompileReport struct {
	SourceFile       string          `json:"source_file"`
	GeneratedAt      time.Time       `json:"generated_at"`
	HighestCellIndex int             `json:"highest_cell_index"`
	OptimizerStats   optimizer.Stats `json:"optimizer_stats"`
	ParsedCount      int             `json:"parsed_instruction_count"`
	OptimizedCount   int             `json:"optimized_instruction_count"`
	ResidualCount    int             `json:"residual_instruction_count"`
	StepsConsumed    int             `json:"steps_consumed"`
	OutputBytes      int             `json:"output_bytes"`
	FullySpeculated  bool            `json:"fully_speculated"`
}

// FromResult builds a CompileReport from a pipeline.Result.
func FromResult(result *pipeline.Result) CompileReport {
	return CompileReport{
		SourceFile:       result.SourceFile,
		HighestCellIndex: result.HighestCellIndex,
		OptimizerStats:   result.OptStats,
		ParsedCount:      countInstructions(result.Parsed),
		OptimizedCount:   countInstructions(result.Optimized),
		ResidualCount:    countInstructions(result.Residual),
		OutputBytes:      len(result.State.Outputs),
		FullySpeculated:  result.State.InstrPtr == len(result.Optimized),
		StepsConsumed:    result.StepsUsed,
	}
}

// countInstructions counts every instruction including nested loop
// bodies, so the report reflects total IR size rather than just the
// top-level sequence length.
func countInstructions(prog []bfir.Instruction) int {
	n := len(prog)
	for _, instr := range prog {
		if instr.Op == bfir.OpLoop {
			n += countInstructions(instr.Body)
		}
	}
	return n
}

// WriteJSON writes report to w as indented JSON.
func WriteJSON(w io.Writer, report CompileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteCSV writes report as a single-row CSV with a header, matching
// the teacher's exportCSV shape (header row, then one record row per
// item — here there's exactly one report per compile, so one record).
func WriteCSV(w io.Writer, report CompileReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"source_file", "highest_cell_index", "parsed_count", "optimized_count",
		"residual_count", "output_bytes", "fully_speculated",
		"combined", "redundant_sets_dropped", "zeroing_loops", "multiply_moves", "dead_loops_dropped",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := []string{
		report.SourceFile,
		fmt.Sprint(report.HighestCellIndex),
		fmt.Sprint(report.ParsedCount),
		fmt.Sprint(report.OptimizedCount),
		fmt.Sprint(report.ResidualCount),
		fmt.Sprint(report.OutputBytes),
		fmt.Sprint(report.FullySpeculated),
		fmt.Sprint(report.OptimizerStats.Combined),
		fmt.Sprint(report.OptimizerStats.RedundantSetsDropped),
		fmt.Sprint(report.OptimizerStats.ZeroingLoops),
		fmt.Sprint(report.OptimizerStats.MultiplyMoves),
		fmt.Sprint(report.OptimizerStats.DeadLoopsDropped),
	}
	return cw.Write(record)
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head><title>bfc compile report: {{.SourceFile}}</title></head>
<body>
<h1>{{.SourceFile}}</h1>
<table>
<tr><td>Highest cell index</td><td>{{.HighestCellIndex}}</td></tr>
<tr><td>Parsed instructions</td><td>{{.ParsedCount}}</td></tr>
<tr><td>Optimized instructions</td><td>{{.OptimizedCount}}</td></tr>
<tr><td>Residual instructions</td><td>{{.ResidualCount}}</td></tr>
<tr><td>Output bytes</td><td>{{.OutputBytes}}</td></tr>
<tr><td>Fully speculated</td><td>{{.FullySpeculated}}</td></tr>
</table>
<h2>Optimizer rule counts</h2>
<table>
<tr><td>Combined</td><td>{{.OptimizerStats.Combined}}</td></tr>
<tr><td>Redundant sets dropped</td><td>{{.OptimizerStats.RedundantSetsDropped}}</td></tr>
<tr><td>Zeroing loops</td><td>{{.OptimizerStats.ZeroingLoops}}</td></tr>
<tr><td>Multiply moves</td><td>{{.OptimizerStats.MultiplyMoves}}</td></tr>
<tr><td>Dead loops dropped</td><td>{{.OptimizerStats.DeadLoopsDropped}}</td></tr>
</table>
</body>
</html>
`

// WriteHTML renders report as a minimal standalone HTML page.
func WriteHTML(w io.Writer, report CompileReport) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, report)
}
