// Package conformance implements `bfc test <dir>`: it discovers
// fixture pairs of a Brainfuck source file and its expected output,
// compiles each at full optimization with no real stdin, and compares
// speculated output byte-for-byte, grounded in the teacher's
// TestResult/TestStats accumulation shape from internal/testing's
// framework.
package conformance

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sentra/internal/pipeline"
)

// Result is the outcome of running one fixture.
type Result struct {
	Name     string
	File     string
	Passed   bool
	Got      []byte
	Want     []byte
	Err      error
	Duration time.Duration
}

// Suite aggregates Results the way the teacher's TestStats aggregates
// TestResults across a run.
type Suite struct {
	Results []Result
	Total   int
	Passed  int
	Failed  int
}

// Discover walks dir for *.bf files that have a sibling *.expected
// file, returning the .bf paths in sorted order.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".bf" {
			return nil
		}
		if _, statErr := os.Stat(expectedPath(path)); statErr == nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func expectedPath(bfFile string) string {
	return strings.TrimSuffix(bfFile, filepath.Ext(bfFile)) + ".expected"
}

// Run compiles every file in files at opts and compares its
// speculated output against the matching *.expected file.
func Run(files []string, opts pipeline.Options) Suite {
	var suite Suite
	for _, f := range files {
		suite.Results = append(suite.Results, runOne(f, opts))
	}
	for _, r := range suite.Results {
		suite.Total++
		if r.Passed {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite
}

func runOne(file string, opts pipeline.Options) Result {
	start := time.Now()
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	want, err := os.ReadFile(expectedPath(file))
	if err != nil {
		return Result{Name: name, File: file, Err: err, Duration: time.Since(start)}
	}

	result, err := pipeline.Compile(file, opts)
	if err != nil {
		return Result{Name: name, File: file, Err: err, Duration: time.Since(start)}
	}

	got := result.State.Outputs
	passed := bytes.Equal(got, want)
	return Result{
		Name:     name,
		File:     file,
		Passed:   passed,
		Got:      got,
		Want:     want,
		Duration: time.Since(start),
	}
}

// Summary renders a one-line-per-fixture, teacher-style text report.
func (s Suite) Summary() string {
	var sb strings.Builder
	for _, r := range s.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(&sb, "ERROR %s: %v\n", r.Name, r.Err)
		case r.Passed:
			fmt.Fprintf(&sb, "PASS  %s\n", r.Name)
		default:
			fmt.Fprintf(&sb, "FAIL  %s: got %q want %q\n", r.Name, r.Got, r.Want)
		}
	}
	fmt.Fprintf(&sb, "%d passed, %d failed, %d total\n", s.Passed, s.Failed, s.Total)
	return sb.String()
}
