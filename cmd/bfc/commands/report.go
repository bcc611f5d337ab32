package commands

import (
	"fmt"
	"io"

	"sentra/internal/report"
)

// writeReport renders r in the requested format, shared by build,
// batch, and watch.
func writeReport(r report.CompileReport, format string, w io.Writer) error {
	switch format {
	case "json":
		return report.WriteJSON(w, r)
	case "csv":
		return report.WriteCSV(w, r)
	case "html":
		return report.WriteHTML(w, r)
	default:
		return fmt.Errorf("unknown report format: %s (want json, csv, or html)", format)
	}
}
