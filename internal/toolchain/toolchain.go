// Package toolchain drives the external LLVM toolchain (llc, clang,
// strip) that turns the textual IR codegen produces into a native
// executable, the same three-command shell-out sequence
// original_source/src/main.rs's shell_command helper drives, reshaped
// into the teacher's config-driven multi-step external pipeline
// (internal/build/builder.go's Builder).
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	bferrors "sentra/internal/errors"
)

// Options configures the external compile/link/strip step.
type Options struct {
	// LLVMOptLevel is passed to llc as -O<level> (0 to 3).
	LLVMOptLevel int
	// OutputPath is the path of the produced executable. If empty,
	// it is derived from the source file name with its extension
	// dropped, matching the original bfc's executable_name.
	OutputPath string
	// KeepIntermediates, when true, leaves the temporary .ll and .o
	// files on disk instead of removing them, for debugging a failed
	// compile.
	KeepIntermediates bool
}

// Build writes llvmIR to a temporary file, compiles it to an object
// file with llc, links it with clang, and strips the result, producing
// a native executable at the resolved output path.
func Build(sourceFile, llvmIR string, opts Options) (string, error) {
	workDir, err := os.MkdirTemp("", "bfc-build-*")
	if err != nil {
		return "", bferrors.NewToolError("mkdtemp", "could not create a temporary build directory", err)
	}
	if !opts.KeepIntermediates {
		defer os.RemoveAll(workDir)
	}

	irPath := filepath.Join(workDir, "out.ll")
	if err := os.WriteFile(irPath, []byte(llvmIR), 0o644); err != nil {
		return "", bferrors.NewToolError("write", "could not write the LLVM IR to a temporary file", err)
	}

	objPath := filepath.Join(workDir, "out.o")
	llcOpt := fmt.Sprintf("-O%d", opts.LLVMOptLevel)
	if _, err := run("llc", llcOpt, "-filetype=obj", irPath, "-o", objPath); err != nil {
		return "", err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = executableName(sourceFile)
	}

	if _, err := run("clang", objPath, "-o", outputPath); err != nil {
		return "", err
	}

	if _, err := run("strip", "-s", outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// run executes an external tool and wraps any failure (spawn failure
// or nonzero exit) as a ToolError carrying stderr.
func run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", bferrors.NewToolError(name, strings.TrimSpace(stderr.String()), err)
	}
	return string(out), nil
}

// executableName converts "foo.bf" to "foo", dropping exactly one
// trailing extension, matching the original bfc's executable_name.
func executableName(sourceFile string) string {
	base := filepath.Base(sourceFile)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
