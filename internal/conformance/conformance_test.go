package conformance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sentra/internal/pipeline"
)

func writeFixturePair(t *testing.T, dir, name, src, expected string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".bf"), []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".expected"), []byte(expected), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDiscoverRequiresExpectedSibling(t *testing.T) {
	dir := t.TempDir()
	writeFixturePair(t, dir, "hello", "+++.", "\x03")
	if err := os.WriteFile(filepath.Join(dir, "orphan.bf"), []byte("+"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "hello.bf" {
		t.Errorf("Discover = %v, want just [hello.bf]", files)
	}
}

func TestRunPassesOnMatchingOutput(t *testing.T) {
	dir := t.TempDir()
	writeFixturePair(t, dir, "three", "+++.", "\x03")

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	suite := Run(files, pipeline.DefaultOptions())
	if suite.Passed != 1 || suite.Failed != 0 {
		t.Errorf("Passed=%d Failed=%d, want Passed=1 Failed=0", suite.Passed, suite.Failed)
	}
}

func TestRunFailsOnMismatchedOutput(t *testing.T) {
	dir := t.TempDir()
	writeFixturePair(t, dir, "three", "+++.", "\x09")

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	suite := Run(files, pipeline.DefaultOptions())
	if suite.Passed != 0 || suite.Failed != 1 {
		t.Errorf("Passed=%d Failed=%d, want Passed=0 Failed=1", suite.Passed, suite.Failed)
	}
}

func TestRunReportsParseErrorAsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFixturePair(t, dir, "broken", "[", "")

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	suite := Run(files, pipeline.DefaultOptions())
	if suite.Results[0].Err == nil {
		t.Error("expected an error for an unmatched [")
	}
	if suite.Passed != 0 {
		t.Error("expected a parse error not to count as a pass")
	}
}

func TestSummaryMentionsEachFixture(t *testing.T) {
	dir := t.TempDir()
	writeFixturePair(t, dir, "three", "+++.", "\x03")

	files, _ := Discover(dir)
	suite := Run(files, pipeline.DefaultOptions())
	summary := suite.Summary()
	if !strings.Contains(summary, "three") {
		t.Errorf("summary %q should mention fixture name", summary)
	}
}
