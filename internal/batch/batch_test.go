package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sentra/internal/pipeline"
)

func writeFixture(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunCompilesAllFilesPreservingOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.bf", "+++.")
	b := writeFixture(t, dir, "b.bf", "++..")

	results := Run(context.Background(), []string{a, b}, pipeline.DefaultOptions(), 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].SourceFile != a || results[1].SourceFile != b {
		t.Errorf("results out of order: %v", results)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: unexpected error: %v", r.SourceFile, r.Err)
		}
	}
}

func TestRunReportsPerFileError(t *testing.T) {
	dir := t.TempDir()
	bad := writeFixture(t, dir, "bad.bf", "[")

	results := Run(context.Background(), []string{bad}, pipeline.DefaultOptions(), 1)
	if results[0].Err == nil {
		t.Fatal("expected an error for an unmatched [")
	}
}

func TestSummarizeCountsPassAndFail(t *testing.T) {
	summary := Summarize([]JobResult{{Err: nil}, {Err: nil}, {Err: context.Canceled}})
	if summary.Total != 3 || summary.Passed != 2 || summary.Failed != 1 {
		t.Errorf("Summarize = %+v, want Total=3 Passed=2 Failed=1", summary)
	}
}

func TestDiscoverFindsOnlyBFFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "z.bf", "+")
	writeFixture(t, dir, "a.bf", "+")
	writeFixture(t, dir, "ignore.txt", "+")

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.bf" || filepath.Base(files[1]) != "z.bf" {
		t.Errorf("files not sorted: %v", files)
	}
}
