// Package batch compiles many Brainfuck source files concurrently
// through a bounded worker pool, grounded in the teacher's
// internal/concurrency WorkerPool shape (a job channel of file indices
// drained by a fixed set of workers, each writing its JobResult into a
// slot of a results slice, a sync.WaitGroup waited on until every
// worker exits) trimmed to just that one piece: a Brainfuck
// compile is independent per file, so none of the teacher's rate
// limiters, connection pools, or priority task queues apply here.
package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"sentra/internal/pipeline"
	"sentra/internal/report"
)

// Job is one file to compile.
type Job struct {
	SourceFile string
}

// JobResult is the outcome of compiling one Job.
type JobResult struct {
	SourceFile string
	Report     report.CompileReport
	Err        error
	Duration   time.Duration
}

// Run compiles every job in files using a pool of size workers (0 or
// negative means runtime.NumCPU()), returning one JobResult per input
// file in the same order they were submitted -- order is preserved by
// index, not by completion time, so a slow file doesn't reshuffle the
// output a caller then prints.
func Run(ctx context.Context, files []string, opts pipeline.Options, size int) []JobResult {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	jobs := make(chan int, len(files))
	results := make([]JobResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					results[i] = JobResult{SourceFile: files[i], Err: ctx.Err()}
					continue
				default:
				}
				results[i] = compileOne(files[i], opts)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func compileOne(sourceFile string, opts pipeline.Options) JobResult {
	start := time.Now()
	result, err := pipeline.Compile(sourceFile, opts)
	duration := time.Since(start)

	if err != nil {
		return JobResult{SourceFile: sourceFile, Err: err, Duration: duration}
	}
	return JobResult{
		SourceFile: sourceFile,
		Report:     report.FromResult(result),
		Duration:   duration,
	}
}

// Summary aggregates pass/fail counts across a batch run, the way the
// teacher's ConcurrencyMetrics counts TasksCompleted/TasksFailed.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summarize counts pass/fail across results.
func Summarize(results []JobResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Err == nil {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
