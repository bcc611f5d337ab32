package commands

import (
	"context"
	"fmt"
	"os"

	"sentra/internal/batch"
)

// BatchCommand compiles every *.bf file under a directory concurrently,
// the bfc analogue of the teacher's concurrency worker-pool commands.
func BatchCommand(args []string) error {
	files, flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return fmt.Errorf("usage: bfc batch <dir> [flags]")
	}
	dir := files[0]

	sources, err := batch.Discover(dir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("no .bf files found under", dir)
		return nil
	}

	results := batch.Run(context.Background(), sources, flags.pipelineOptions(), 0)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", r.SourceFile, r.Err)
			continue
		}
		fmt.Printf("OK   %s (%s)\n", r.SourceFile, r.Duration)
		if flags.reportFormat != "" {
			if err := writeReport(r.Report, flags.reportFormat, os.Stdout); err != nil {
				return err
			}
		}
	}

	summary := batch.Summarize(results)
	fmt.Printf("%d compiled, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
